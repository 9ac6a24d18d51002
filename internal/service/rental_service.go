package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/parking-billing/internal/domain"
	"github.com/segyhp/parking-billing/internal/events"
	"github.com/segyhp/parking-billing/internal/metrics"
	"github.com/segyhp/parking-billing/internal/repository"
	customError "github.com/segyhp/parking-billing/pkg/errors"
	"github.com/segyhp/parking-billing/pkg/utils"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// CreateRental leases an available space. Occupying the space and inserting
// the rental happen in one transaction, so a space never carries two active
// rentals.
func (s *BillingService) CreateRental(ctx context.Context, tenant domain.TenantContext, request *domain.CreateRentalRequest) (rental *domain.Rental, err error) {
	ctx, span := s.startSpan(ctx, "BillingService.CreateRental", tenant, attribute.String("space_id", request.SpaceID.String()))
	defer func() { endSpan(span, err) }()

	if err := authorizeWrite(tenant, "create rentals"); err != nil {
		return nil, err
	}
	if err := validateCreateRental(request); err != nil {
		return nil, err
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		space, err := repos.Spaces.GetByID(ctx, tenant.CompanyID, request.SpaceID)
		if err != nil {
			if isNoRows(err) {
				return customError.WrapSpaceNotFound(request.SpaceID.String())
			}
			return customError.WrapDatabaseError(err)
		}
		if !space.IsAvailable() {
			return customError.WrapSpaceNotAvailable(space.Code)
		}

		// the conditional update still guards against a concurrent lease
		err = repos.Spaces.TransitionStatus(ctx, tenant.CompanyID, space.ID, domain.SpaceStatusAvailable, domain.SpaceStatusOccupied)
		if errors.Is(err, repository.ErrStatusConflict) {
			return customError.WrapSpaceNotAvailable(space.Code)
		}
		if err != nil {
			return customError.WrapDatabaseError(err)
		}

		count, err := repos.Rentals.Count(ctx, tenant.CompanyID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}

		rental = newRental(tenant, space, request, utils.GenerateCode(utils.RentalCodePrefix, count), s.now().UTC())

		if err := repos.Rentals.Create(ctx, rental); err != nil {
			if repository.IsUniqueViolation(err) {
				return customError.WrapSpaceNotAvailable(space.Code)
			}
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncRentalCreated()
	s.publish(ctx, events.RentalCreated, events.RentalCreatedEvent{
		CompanyID:   rental.CompanyID,
		RentalID:    rental.ID,
		RentalCode:  rental.Code,
		SpaceID:     rental.SpaceID,
		StartDate:   rental.StartDate,
		MonthlyRate: rental.MonthlyRate,
		Currency:    rental.Currency,
	})

	s.logger.Info().
		Str("company_id", tenant.CompanyID.String()).
		Str("rental_id", rental.ID.String()).
		Str("rental_code", rental.Code).
		Str("space_id", rental.SpaceID.String()).
		Msg("rental created")

	return rental, nil
}

// EndRental closes an active rental: it freezes total days and amount as of
// the end date, optionally records a final payment and frees the space. All
// of it commits or none of it does.
func (s *BillingService) EndRental(ctx context.Context, tenant domain.TenantContext, rentalID uuid.UUID, request *domain.EndRentalRequest) (result *domain.EndRentalResult, err error) {
	ctx, span := s.startSpan(ctx, "BillingService.EndRental", tenant, attribute.String("rental_id", rentalID.String()))
	defer func() { endSpan(span, err) }()

	if err := authorizeWrite(tenant, "end rentals"); err != nil {
		return nil, err
	}
	if request.EndDate.IsZero() {
		return nil, customError.NewValidationError("end date is required")
	}
	endDate := utils.DateOnly(request.EndDate)

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		rental, err := loadRental(ctx, repos, tenant.CompanyID, rentalID, true)
		if err != nil {
			return err
		}
		if !rental.IsActive() {
			return customError.WrapRentalAlreadyEnded(rental.Code)
		}
		if endDate.Before(rental.StartDate) {
			return customError.NewValidationError("end date must not be before the start date " + rental.StartDate.Format(utils.DateLayout))
		}

		payments, err := repos.Payments.GetByRentalID(ctx, tenant.CompanyID, rentalID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}

		rental.EndDate = &endDate
		balance, err := computeBalance(rental, payments, endDate)
		if err != nil {
			return err
		}

		result = &domain.EndRentalResult{Rental: rental}

		if request.FinalPayment != nil {
			paymentDate, err := s.resolvePaymentDate(request.FinalPayment, endDate)
			if err != nil {
				return err
			}

			payment, err := s.acceptPayment(tenant, rental, balance, request.FinalPayment, paymentDate)
			if err != nil {
				return err
			}
			if err := repos.Payments.Create(ctx, payment); err != nil {
				return customError.WrapDatabaseError(err)
			}

			payments = append(payments, payment)
			result.FinalPayment = payment
		}

		now := s.now().UTC()
		totalDays := balance.ElapsedDays
		rental.TotalDays = &totalDays
		rental.TotalAmount = decimal.NewNullDecimal(balance.OwedAmount)
		rental.Status = domain.RentalStatusEnded
		rental.UpdatedAt = now
		if notes := strings.TrimSpace(request.Notes); notes != "" {
			rental.Notes = notes
		}

		if err := repos.Rentals.End(ctx, rental); err != nil {
			if errors.Is(err, repository.ErrStatusConflict) {
				return customError.WrapRentalAlreadyEnded(rental.Code)
			}
			return customError.WrapDatabaseError(err)
		}

		err = repos.Spaces.TransitionStatus(ctx, tenant.CompanyID, rental.SpaceID, domain.SpaceStatusOccupied, domain.SpaceStatusAvailable)
		if errors.Is(err, repository.ErrStatusConflict) {
			return customError.NewValidationError("space of rental " + rental.Code + " is not occupied")
		}
		if err != nil {
			return customError.WrapDatabaseError(err)
		}

		result.Balance, err = computeBalance(rental, payments, endDate)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidateBalance(ctx, tenant.CompanyID, rentalID)
	metrics.IncRentalEnded()
	if result.FinalPayment != nil {
		metrics.IncPaymentRecorded(result.FinalPayment.Currency)
	}

	rental := result.Rental
	s.publish(ctx, events.RentalEnded, events.RentalEndedEvent{
		CompanyID:       rental.CompanyID,
		RentalID:        rental.ID,
		SpaceID:         rental.SpaceID,
		EndDate:         endDate,
		TotalDays:       *rental.TotalDays,
		TotalAmount:     rental.TotalAmount.Decimal,
		RemainingAmount: result.Balance.RemainingAmount,
	})

	s.logger.Info().
		Str("company_id", tenant.CompanyID.String()).
		Str("rental_id", rental.ID.String()).
		Int("total_days", *rental.TotalDays).
		Str("total_amount", utils.FormatCurrencyAmount(rental.TotalAmount.Decimal, rental.Currency)).
		Str("remaining", result.Balance.RemainingAmount.StringFixed(2)).
		Msg("rental ended")

	return result, nil
}

func (s *BillingService) GetRental(ctx context.Context, tenant domain.TenantContext, rentalID uuid.UUID) (rental *domain.Rental, err error) {
	ctx, span := s.startSpan(ctx, "BillingService.GetRental", tenant, attribute.String("rental_id", rentalID.String()))
	defer func() { endSpan(span, err) }()

	if err := authorizeRead(tenant); err != nil {
		return nil, err
	}
	return loadRental(ctx, s.store.Repositories(), tenant.CompanyID, rentalID, false)
}

func (s *BillingService) ListRentals(ctx context.Context, tenant domain.TenantContext, filter domain.RentalFilter) (rentals []*domain.Rental, err error) {
	ctx, span := s.startSpan(ctx, "BillingService.ListRentals", tenant, attribute.String("status", string(filter.Status)))
	defer func() { endSpan(span, err) }()

	if err := authorizeRead(tenant); err != nil {
		return nil, err
	}

	switch filter.Status {
	case "", domain.RentalStatusActive, domain.RentalStatusEnded:
	default:
		return nil, customError.NewValidationError("unknown rental status " + string(filter.Status))
	}

	rentals, err = s.store.Repositories().Rentals.List(ctx, tenant.CompanyID, filter)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return rentals, nil
}

func validateCreateRental(request *domain.CreateRentalRequest) error {
	if request.SpaceID == uuid.Nil {
		return customError.NewValidationError("space is required")
	}
	if strings.TrimSpace(request.ClientName) == "" {
		return customError.NewValidationError("client name is required")
	}
	if request.StartDate.IsZero() {
		return customError.NewValidationError("start date is required")
	}
	if request.EndDate != nil && request.EndDate.Before(request.StartDate) {
		return customError.NewValidationError("end date must not be before the start date")
	}
	if request.MonthlyRate != nil && !request.MonthlyRate.IsPositive() {
		return customError.NewValidationError("monthly rate must be positive")
	}
	if request.MonthlyRate != nil && !utils.HasCurrencyScale(*request.MonthlyRate) {
		return customError.NewValidationError("monthly rate must have at most 2 decimal places")
	}
	return nil
}

func newRental(tenant domain.TenantContext, space *domain.Space, request *domain.CreateRentalRequest, code string, now time.Time) *domain.Rental {
	rate := space.MonthlyRate
	if request.MonthlyRate != nil {
		rate = *request.MonthlyRate
	}
	currency := space.Currency
	if request.Currency != "" {
		currency = strings.ToUpper(request.Currency)
	}

	var endDate *time.Time
	if request.EndDate != nil {
		end := utils.DateOnly(*request.EndDate)
		endDate = &end
	}

	return &domain.Rental{
		ID:           uuid.New(),
		CompanyID:    tenant.CompanyID,
		SpaceID:      space.ID,
		Code:         code,
		ClientName:   strings.TrimSpace(request.ClientName),
		ClientPhone:  request.ClientPhone,
		ClientEmail:  request.ClientEmail,
		VehiclePlate: request.VehiclePlate,
		VehicleMake:  request.VehicleMake,
		VehicleModel: request.VehicleModel,
		VehicleColor: request.VehicleColor,
		StartDate:    utils.DateOnly(request.StartDate),
		EndDate:      endDate,
		MonthlyRate:  rate,
		Currency:     currency,
		Status:       domain.RentalStatusActive,
		Notes:        request.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
