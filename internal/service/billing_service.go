package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segyhp/parking-billing/internal/cache"
	"github.com/segyhp/parking-billing/internal/config"
	"github.com/segyhp/parking-billing/internal/domain"
	"github.com/segyhp/parking-billing/internal/events"
	"github.com/segyhp/parking-billing/internal/metrics"
	"github.com/segyhp/parking-billing/internal/repository"
	"github.com/segyhp/parking-billing/internal/tracing"
	"github.com/segyhp/parking-billing/pkg/billing"
	customError "github.com/segyhp/parking-billing/pkg/errors"
	"github.com/segyhp/parking-billing/pkg/utils"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type BillingService struct {
	store     repository.Store
	cache     cache.BalanceCache
	publisher events.Publisher
	config    *config.Config
	logger    zerolog.Logger
	now       func() time.Time
}

func NewBillingService(
	store repository.Store,
	balanceCache cache.BalanceCache,
	publisher events.Publisher,
	config *config.Config,
	logger zerolog.Logger,
) *BillingService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &BillingService{
		store:     store,
		cache:     balanceCache,
		publisher: publisher,
		config:    config,
		logger:    logger.With().Str("component", "billing_service").Logger(),
		now:       time.Now,
	}
}

// today is the current calendar day in UTC
func (s *BillingService) today() time.Time {
	return utils.DateOnly(s.now())
}

// GetRentalBalance returns the billing state of a rental. asOf defaults to
// today; ended rentals are always billed up to their end date.
func (s *BillingService) GetRentalBalance(ctx context.Context, tenant domain.TenantContext, rentalID uuid.UUID, asOf *time.Time) (balance *domain.RentalBalance, err error) {
	ctx, span := s.startSpan(ctx, "BillingService.GetRentalBalance", tenant, attribute.String("rental_id", rentalID.String()))
	defer func() { endSpan(span, err) }()

	if err := authorizeRead(tenant); err != nil {
		return nil, err
	}

	repos := s.store.Repositories()
	rental, err := loadRental(ctx, repos, tenant.CompanyID, rentalID, false)
	if err != nil {
		return nil, err
	}

	day := s.today()
	if asOf != nil {
		day = utils.DateOnly(*asOf)
	}
	day = rental.BalanceAsOf(day)

	version, cacheable := s.balanceVersion(ctx, tenant.CompanyID, rentalID)
	if cacheable {
		if cached := s.cachedBalance(ctx, tenant.CompanyID, rentalID, version, day); cached != nil {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return cached, nil
		}
	}

	payments, err := repos.Payments.GetByRentalID(ctx, tenant.CompanyID, rentalID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	balance, err = computeBalance(rental, payments, day)
	if err != nil {
		return nil, err
	}

	if cacheable {
		s.storeBalance(ctx, balance, version)
	}
	return balance, nil
}

// RecordPayment stores a payment against a rental. A payment may never exceed
// the remaining balance; a rejected payment persists nothing.
func (s *BillingService) RecordPayment(ctx context.Context, tenant domain.TenantContext, rentalID uuid.UUID, request *domain.RecordPaymentRequest) (payment *domain.Payment, err error) {
	ctx, span := s.startSpan(ctx, "BillingService.RecordPayment", tenant, attribute.String("rental_id", rentalID.String()))
	defer func() { endSpan(span, err) }()

	if err := authorizeWrite(tenant, "record payments"); err != nil {
		return nil, err
	}

	var remaining *domain.RentalBalance
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		rental, err := loadRental(ctx, repos, tenant.CompanyID, rentalID, true)
		if err != nil {
			return err
		}

		payments, err := repos.Payments.GetByRentalID(ctx, tenant.CompanyID, rentalID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}

		paymentDate, err := s.resolvePaymentDate(request, s.today())
		if err != nil {
			return err
		}

		asOf := rental.BalanceAsOf(paymentDate)
		balance, err := computeBalance(rental, payments, asOf)
		if err != nil {
			return err
		}

		payment, err = s.acceptPayment(tenant, rental, balance, request, paymentDate)
		if err != nil {
			return err
		}

		if err := repos.Payments.Create(ctx, payment); err != nil {
			return customError.WrapDatabaseError(err)
		}

		remaining, err = computeBalance(rental, append(payments, payment), asOf)
		return err
	})
	if err != nil {
		if customError.IsValidation(err) {
			s.logger.Info().
				Str("company_id", tenant.CompanyID.String()).
				Str("rental_id", rentalID.String()).
				Str("amount", request.Amount.String()).
				Err(err).
				Msg("payment rejected")
		}
		return nil, err
	}

	s.invalidateBalance(ctx, tenant.CompanyID, rentalID)
	metrics.IncPaymentRecorded(payment.Currency)
	s.publish(ctx, events.PaymentRecorded, events.PaymentRecordedEvent{
		CompanyID:       payment.CompanyID,
		RentalID:        payment.RentalID,
		PaymentID:       payment.ID,
		Amount:          payment.Amount,
		Currency:        payment.Currency,
		RemainingAmount: remaining.RemainingAmount,
		RecordedBy:      payment.CreatedBy,
	})

	s.logger.Info().
		Str("company_id", tenant.CompanyID.String()).
		Str("rental_id", rentalID.String()).
		Str("payment_id", payment.ID.String()).
		Str("amount", utils.FormatCurrencyAmount(payment.Amount, payment.Currency)).
		Str("remaining", remaining.RemainingAmount.StringFixed(2)).
		Msg("payment recorded")

	return payment, nil
}

// ListRentalPayments returns the payments of a rental, oldest first
func (s *BillingService) ListRentalPayments(ctx context.Context, tenant domain.TenantContext, rentalID uuid.UUID) (payments []*domain.Payment, err error) {
	ctx, span := s.startSpan(ctx, "BillingService.ListRentalPayments", tenant, attribute.String("rental_id", rentalID.String()))
	defer func() { endSpan(span, err) }()

	if err := authorizeRead(tenant); err != nil {
		return nil, err
	}

	repos := s.store.Repositories()
	if _, err := loadRental(ctx, repos, tenant.CompanyID, rentalID, false); err != nil {
		return nil, err
	}

	payments, err = repos.Payments.GetByRentalID(ctx, tenant.CompanyID, rentalID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return payments, nil
}

// acceptPayment applies the payment rules against the balance the payment
// would reduce and builds the payment row.
func (s *BillingService) acceptPayment(tenant domain.TenantContext, rental *domain.Rental, balance *domain.RentalBalance, request *domain.RecordPaymentRequest, paymentDate time.Time) (*domain.Payment, error) {
	if !request.Amount.IsPositive() {
		metrics.IncPaymentRejected(metrics.ReasonNotPositive)
		return nil, customError.WrapAmountNotPositive()
	}
	if !utils.HasCurrencyScale(request.Amount) {
		metrics.IncPaymentRejected(metrics.ReasonPrecision)
		return nil, customError.NewValidationError("amount must have at most 2 decimal places")
	}

	currency := request.Currency
	if currency == "" {
		currency = rental.Currency
	}
	if currency != rental.Currency {
		metrics.IncPaymentRejected(metrics.ReasonCurrencyMismatch)
		return nil, customError.NewValidationError("payment currency must match rental currency " + rental.Currency)
	}

	method := request.Method
	if method == "" {
		method = domain.PaymentMethodCash
	}
	if !method.IsValid() {
		return nil, customError.NewValidationError("unknown payment method " + string(method))
	}

	if request.Amount.GreaterThan(balance.RemainingAmount) {
		metrics.IncPaymentRejected(metrics.ReasonExceedsBalance)
		return nil, customError.WrapAmountExceedsBalance()
	}

	return &domain.Payment{
		ID:              uuid.New(),
		CompanyID:       tenant.CompanyID,
		RentalID:        rental.ID,
		Amount:          request.Amount,
		Currency:        currency,
		Method:          method,
		PaymentDate:     paymentDate,
		ReferenceNumber: request.ReferenceNumber,
		Notes:           request.Notes,
		CreatedBy:       tenant.UserID,
		CreatedAt:       s.now().UTC(),
	}, nil
}

// resolvePaymentDate returns the day a payment is booked on, fallback when the
// request leaves it out. Payments are never dated after today, so the balance
// they are checked against only counts days already owed.
func (s *BillingService) resolvePaymentDate(request *domain.RecordPaymentRequest, fallback time.Time) (time.Time, error) {
	today := s.today()
	if request.PaymentDate.IsZero() {
		if fallback.After(today) {
			return today, nil
		}
		return fallback, nil
	}

	date := utils.DateOnly(request.PaymentDate)
	if date.After(today) {
		metrics.IncPaymentRejected(metrics.ReasonFutureDate)
		return time.Time{}, customError.NewValidationError("payment date must not be after today")
	}
	return date, nil
}

// computeBalance runs the calculator for a stored rental. An as-of date before
// the rental start is a caller mistake, not a calculator failure.
func computeBalance(rental *domain.Rental, payments []*domain.Payment, asOf time.Time) (*domain.RentalBalance, error) {
	terms := rental.Terms()
	if terms.IsOngoing() && asOf.Before(rental.StartDate) {
		return nil, customError.NewValidationError("date must not be before the rental start date " + rental.StartDate.Format(utils.DateLayout))
	}

	balance, err := billing.Calculate(terms, domain.PaymentLines(payments), asOf)
	if err != nil {
		return nil, err
	}

	return &domain.RentalBalance{
		RentalID:   rental.ID,
		CompanyID:  rental.CompanyID,
		RentalCode: rental.Code,
		Currency:   rental.Currency,
		Status:     rental.Status,
		Balance:    *balance,
	}, nil
}

func loadRental(ctx context.Context, repos repository.Repositories, companyID, rentalID uuid.UUID, lock bool) (*domain.Rental, error) {
	get := repos.Rentals.GetByID
	if lock {
		get = repos.Rentals.GetByIDForUpdate
	}

	rental, err := get(ctx, companyID, rentalID)
	if isNoRows(err) {
		return nil, customError.WrapRentalNotFound(rentalID.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return rental, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func authorizeRead(tenant domain.TenantContext) error {
	if !tenant.IsValid() || !tenant.CanRead() {
		return customError.WrapForbidden(tenant.Role, "read billing data")
	}
	return nil
}

func authorizeWrite(tenant domain.TenantContext, action string) error {
	if !tenant.IsValid() || !tenant.CanWrite() {
		return customError.WrapForbidden(tenant.Role, action)
	}
	return nil
}

// balanceVersion reads the rental's cache version. It must be read before the
// payments the cached balance is computed from.
func (s *BillingService) balanceVersion(ctx context.Context, companyID, rentalID uuid.UUID) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	version, err := s.cache.Version(ctx, companyID, rentalID)
	if err != nil {
		s.logger.Warn().Err(customError.WrapCacheError(err)).Str("rental_id", rentalID.String()).Msg("balance cache version read failed")
		return 0, false
	}
	return version, true
}

func (s *BillingService) cachedBalance(ctx context.Context, companyID, rentalID uuid.UUID, version int64, asOf time.Time) *domain.RentalBalance {
	balance, err := s.cache.Get(ctx, companyID, rentalID, version, asOf)
	if err != nil {
		s.logger.Warn().Err(customError.WrapCacheError(err)).Str("rental_id", rentalID.String()).Msg("balance cache read failed")
		return nil
	}
	return balance
}

func (s *BillingService) storeBalance(ctx context.Context, balance *domain.RentalBalance, version int64) {
	if err := s.cache.Set(ctx, balance, version); err != nil {
		s.logger.Warn().Err(customError.WrapCacheError(err)).Str("rental_id", balance.RentalID.String()).Msg("balance cache write failed")
	}
}

func (s *BillingService) invalidateBalance(ctx context.Context, companyID, rentalID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, companyID, rentalID); err != nil {
		s.logger.Warn().Err(customError.WrapCacheError(err)).Str("rental_id", rentalID.String()).Msg("balance cache invalidation failed")
	}
}

func (s *BillingService) publish(ctx context.Context, key string, payload any) {
	if err := s.publisher.Publish(ctx, key, payload); err != nil {
		s.logger.Error().Err(err).Str("event", key).Msg("failed to publish event")
	}
}

func (s *BillingService) startSpan(ctx context.Context, name string, tenant domain.TenantContext, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("company_id", tenant.CompanyID.String()),
		attribute.String("role", tenant.Role),
	)
	return tracing.Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
