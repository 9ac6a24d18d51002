package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/segyhp/parking-billing/internal/domain"
	"github.com/segyhp/parking-billing/internal/repository"
	customError "github.com/segyhp/parking-billing/pkg/errors"
	"github.com/segyhp/parking-billing/pkg/utils"
)

// CreateSpace registers a new available space with a generated code
func (s *BillingService) CreateSpace(ctx context.Context, tenant domain.TenantContext, request *domain.CreateSpaceRequest) (space *domain.Space, err error) {
	ctx, span := s.startSpan(ctx, "BillingService.CreateSpace", tenant)
	defer func() { endSpan(span, err) }()

	if err := authorizeWrite(tenant, "create spaces"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(request.Name) == "" {
		return nil, customError.NewValidationError("name is required")
	}
	if !request.MonthlyRate.IsPositive() {
		return nil, customError.NewValidationError("monthly rate must be positive")
	}
	if !utils.HasCurrencyScale(request.MonthlyRate) {
		return nil, customError.NewValidationError("monthly rate must have at most 2 decimal places")
	}

	currency := strings.ToUpper(request.Currency)
	if currency == "" {
		currency = s.config.Business.DefaultCurrency
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		count, err := repos.Spaces.Count(ctx, tenant.CompanyID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}

		now := s.now().UTC()
		space = &domain.Space{
			ID:          uuid.New(),
			CompanyID:   tenant.CompanyID,
			Code:        utils.GenerateCode(utils.SpaceCodePrefix, count),
			Name:        strings.TrimSpace(request.Name),
			Type:        request.Type,
			Category:    request.Category,
			Size:        request.Size,
			MonthlyRate: request.MonthlyRate,
			Currency:    currency,
			Status:      domain.SpaceStatusAvailable,
			Description: request.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := repos.Spaces.Create(ctx, space); err != nil {
			if repository.IsUniqueViolation(err) {
				return customError.NewValidationError("space code " + space.Code + " already exists")
			}
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("company_id", tenant.CompanyID.String()).
		Str("space_id", space.ID.String()).
		Str("space_code", space.Code).
		Msg("space created")

	return space, nil
}

func (s *BillingService) ListSpaces(ctx context.Context, tenant domain.TenantContext) (spaces []*domain.Space, err error) {
	ctx, span := s.startSpan(ctx, "BillingService.ListSpaces", tenant)
	defer func() { endSpan(span, err) }()

	if err := authorizeRead(tenant); err != nil {
		return nil, err
	}

	spaces, err = s.store.Repositories().Spaces.List(ctx, tenant.CompanyID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return spaces, nil
}
