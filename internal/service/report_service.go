package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/parking-billing/internal/domain"
	"github.com/segyhp/parking-billing/internal/metrics"
	"github.com/segyhp/parking-billing/internal/repository"
	"github.com/segyhp/parking-billing/internal/tracing"
	customError "github.com/segyhp/parking-billing/pkg/errors"
	"github.com/segyhp/parking-billing/pkg/utils"

	"go.opentelemetry.io/otel/attribute"
)

// OutstandingReport aggregates the balances of every active rental of the
// tenant's company, per currency.
func (s *BillingService) OutstandingReport(ctx context.Context, tenant domain.TenantContext, asOf *time.Time) (report *domain.OutstandingReport, err error) {
	ctx, span := s.startSpan(ctx, "BillingService.OutstandingReport", tenant)
	defer func() { endSpan(span, err) }()

	if err := authorizeRead(tenant); err != nil {
		return nil, err
	}

	day := s.today()
	if asOf != nil {
		day = utils.DateOnly(*asOf)
	}

	repos := s.store.Repositories()
	rentals, err := repos.Rentals.List(ctx, tenant.CompanyID, domain.RentalFilter{Status: domain.RentalStatusActive})
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	report = &domain.OutstandingReport{
		CompanyID: tenant.CompanyID,
		AsOf:      day,
		Totals:    []*domain.CurrencyTotals{},
		Balances:  []*domain.RentalBalance{},
	}

	for _, rental := range rentals {
		// Rentals starting after the report date owe nothing yet
		if rental.StartDate.After(day) {
			continue
		}

		balance, err := totalsBalance(ctx, repos, rental, day)
		if err != nil {
			return nil, err
		}
		report.Add(balance)
	}

	span.SetAttributes(attribute.Int("rentals", len(report.Balances)))
	return report, nil
}

// RefreshOutstanding recomputes the balance of every active rental of every
// company as of asOf, warms the balance cache and publishes the outstanding
// gauge. It returns the number of rentals refreshed.
func (s *BillingService) RefreshOutstanding(ctx context.Context, asOf time.Time) (int, error) {
	ctx, span := tracing.Tracer().Start(ctx, "BillingService.RefreshOutstanding")
	defer span.End()

	day := utils.DateOnly(asOf)
	repos := s.store.Repositories()

	rentals, err := repos.Rentals.ListAllActive(ctx)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	reports := map[uuid.UUID]*domain.OutstandingReport{}
	refreshed := 0
	for _, rental := range rentals {
		if rental.StartDate.After(day) {
			continue
		}

		version, cacheable := s.balanceVersion(ctx, rental.CompanyID, rental.ID)

		payments, err := repos.Payments.GetByRentalID(ctx, rental.CompanyID, rental.ID)
		if err != nil {
			return refreshed, customError.WrapDatabaseError(err)
		}

		balance, err := computeBalance(rental, payments, day)
		if err != nil {
			s.logger.Error().Err(err).Str("rental_id", rental.ID.String()).Msg("failed to compute balance")
			continue
		}

		if cacheable {
			s.storeBalance(ctx, balance, version)
		}

		report, ok := reports[rental.CompanyID]
		if !ok {
			report = &domain.OutstandingReport{CompanyID: rental.CompanyID, AsOf: day}
			reports[rental.CompanyID] = report
		}
		report.Add(balance)
		refreshed++

		if balance.RemainingAmount.IsPositive() {
			s.logger.Info().
				Str("company_id", rental.CompanyID.String()).
				Str("rental_code", rental.Code).
				Str("remaining", utils.FormatCurrencyAmount(balance.RemainingAmount, balance.Currency)).
				Int("elapsed_days", balance.ElapsedDays).
				Msg("rental has outstanding balance")
		}
	}

	metrics.ResetOutstanding()
	for companyID, report := range reports {
		for _, totals := range report.Totals {
			metrics.SetOutstanding(companyID.String(), totals.Currency, totals.RemainingAmount)
		}
	}

	span.SetAttributes(attribute.Int("rentals", refreshed))
	s.logger.Info().Int("rentals", refreshed).Int("companies", len(reports)).Time("as_of", day).Msg("outstanding balances refreshed")

	return refreshed, nil
}

// totalsBalance computes a report line from the aggregate paid amount, which
// is all the calculator needs for totals.
func totalsBalance(ctx context.Context, repos repository.Repositories, rental *domain.Rental, day time.Time) (*domain.RentalBalance, error) {
	paid, err := repos.Payments.GetTotalPaid(ctx, rental.CompanyID, rental.ID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return computeBalance(rental, []*domain.Payment{{Amount: paid, PaymentDate: day}}, day)
}
