package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/segyhp/parking-billing/internal/domain"
	customError "github.com/segyhp/parking-billing/pkg/errors"
	"github.com/segyhp/parking-billing/pkg/response"
	"github.com/segyhp/parking-billing/pkg/utils"
)

// BillingService is the set of operations the HTTP API exposes.
type BillingService interface {
	CreateSpace(ctx context.Context, tenant domain.TenantContext, request *domain.CreateSpaceRequest) (*domain.Space, error)
	ListSpaces(ctx context.Context, tenant domain.TenantContext) ([]*domain.Space, error)
	CreateRental(ctx context.Context, tenant domain.TenantContext, request *domain.CreateRentalRequest) (*domain.Rental, error)
	GetRental(ctx context.Context, tenant domain.TenantContext, rentalID uuid.UUID) (*domain.Rental, error)
	ListRentals(ctx context.Context, tenant domain.TenantContext, filter domain.RentalFilter) ([]*domain.Rental, error)
	GetRentalBalance(ctx context.Context, tenant domain.TenantContext, rentalID uuid.UUID, asOf *time.Time) (*domain.RentalBalance, error)
	RecordPayment(ctx context.Context, tenant domain.TenantContext, rentalID uuid.UUID, request *domain.RecordPaymentRequest) (*domain.Payment, error)
	ListRentalPayments(ctx context.Context, tenant domain.TenantContext, rentalID uuid.UUID) ([]*domain.Payment, error)
	EndRental(ctx context.Context, tenant domain.TenantContext, rentalID uuid.UUID, request *domain.EndRentalRequest) (*domain.EndRentalResult, error)
	OutstandingReport(ctx context.Context, tenant domain.TenantContext, asOf *time.Time) (*domain.OutstandingReport, error)
}

type BillingHandler struct {
	service   BillingService
	validator *validator.Validate
	logger    zerolog.Logger
}

func NewBillingHandler(service BillingService, logger zerolog.Logger) *BillingHandler {
	return &BillingHandler{
		service:   service,
		validator: newValidator(),
		logger:    logger,
	}
}

// CreateSpace handles POST /api/v1/spaces
func (h *BillingHandler) CreateSpace(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateSpaceRequest
	if !h.decode(w, r, &request) {
		return
	}

	space, err := h.service.CreateSpace(r.Context(), tenantFrom(r), &request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, space)
}

// ListSpaces handles GET /api/v1/spaces
func (h *BillingHandler) ListSpaces(w http.ResponseWriter, r *http.Request) {
	spaces, err := h.service.ListSpaces(r.Context(), tenantFrom(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, spaces)
}

// CreateRental handles POST /api/v1/rentals
func (h *BillingHandler) CreateRental(w http.ResponseWriter, r *http.Request) {
	var body createRentalBody
	if !h.decode(w, r, &body) {
		return
	}
	request, err := body.toRequest()
	if err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	rental, err := h.service.CreateRental(r.Context(), tenantFrom(r), request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, rental)
}

// ListRentals handles GET /api/v1/rentals?status=active|ended
func (h *BillingHandler) ListRentals(w http.ResponseWriter, r *http.Request) {
	filter := domain.RentalFilter{Status: domain.RentalStatus(r.URL.Query().Get("status"))}

	rentals, err := h.service.ListRentals(r.Context(), tenantFrom(r), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, rentals)
}

// GetRental handles GET /api/v1/rentals/{rentalId}
func (h *BillingHandler) GetRental(w http.ResponseWriter, r *http.Request) {
	rentalID, ok := rentalIDFrom(w, r)
	if !ok {
		return
	}

	rental, err := h.service.GetRental(r.Context(), tenantFrom(r), rentalID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, rental)
}

// GetRentalBalance handles GET /api/v1/rentals/{rentalId}/balance
func (h *BillingHandler) GetRentalBalance(w http.ResponseWriter, r *http.Request) {
	rentalID, ok := rentalIDFrom(w, r)
	if !ok {
		return
	}
	asOf, ok := asOfFrom(w, r)
	if !ok {
		return
	}

	balance, err := h.service.GetRentalBalance(r.Context(), tenantFrom(r), rentalID, asOf)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, balance)
}

// RecordPayment handles POST /api/v1/rentals/{rentalId}/payments
func (h *BillingHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	rentalID, ok := rentalIDFrom(w, r)
	if !ok {
		return
	}
	var body recordPaymentBody
	if !h.decode(w, r, &body) {
		return
	}
	request, err := body.toRequest()
	if err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	payment, err := h.service.RecordPayment(r.Context(), tenantFrom(r), rentalID, request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, payment)
}

// ListRentalPayments handles GET /api/v1/rentals/{rentalId}/payments
func (h *BillingHandler) ListRentalPayments(w http.ResponseWriter, r *http.Request) {
	rentalID, ok := rentalIDFrom(w, r)
	if !ok {
		return
	}

	payments, err := h.service.ListRentalPayments(r.Context(), tenantFrom(r), rentalID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, payments)
}

// EndRental handles POST /api/v1/rentals/{rentalId}/end
func (h *BillingHandler) EndRental(w http.ResponseWriter, r *http.Request) {
	rentalID, ok := rentalIDFrom(w, r)
	if !ok {
		return
	}
	var body endRentalBody
	if !h.decode(w, r, &body) {
		return
	}
	request, err := body.toRequest()
	if err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	result, err := h.service.EndRental(r.Context(), tenantFrom(r), rentalID, request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, result)
}

// OutstandingReport handles GET /api/v1/reports/outstanding
func (h *BillingHandler) OutstandingReport(w http.ResponseWriter, r *http.Request) {
	asOf, ok := asOfFrom(w, r)
	if !ok {
		return
	}

	report, err := h.service.OutstandingReport(r.Context(), tenantFrom(r), asOf)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, report)
}

func (h *BillingHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		response.Fail(w, http.StatusBadRequest, customError.ErrCodeValidation, validationMessage(err))
		return false
	}
	return true
}

// writeError maps service errors onto HTTP statuses. Validation messages are
// returned verbatim; anything unclassified is logged and hidden.
func (h *BillingHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var businessErr *customError.BusinessError
	if !errors.As(err, &businessErr) {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("unexpected error")
		response.InternalServerError(w, "Internal server error", nil)
		return
	}

	switch {
	case customError.IsForbidden(err):
		response.Fail(w, http.StatusForbidden, businessErr.Code, businessErr.Message)
	case errors.Is(err, customError.ErrSpaceNotAvailable), errors.Is(err, customError.ErrRentalAlreadyEnded):
		response.Fail(w, http.StatusConflict, businessErr.Code, businessErr.Message)
	case customError.IsValidation(err):
		response.Fail(w, http.StatusBadRequest, businessErr.Code, businessErr.Message)
	case customError.IsNotFound(err):
		response.Fail(w, http.StatusNotFound, businessErr.Code, businessErr.Message)
	default:
		h.logger.Error().Err(err).Str("code", businessErr.Code).Str("path", r.URL.Path).Msg("request failed")
		response.InternalServerError(w, "Internal server error", nil)
	}
}

func rentalIDFrom(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	rentalID, err := uuid.Parse(mux.Vars(r)["rentalId"])
	if err != nil {
		response.BadRequest(w, "Invalid rental ID", err)
		return uuid.Nil, false
	}
	return rentalID, true
}

func asOfFrom(w http.ResponseWriter, r *http.Request) (*time.Time, bool) {
	asOf, err := utils.ParseOptionalDate(r.URL.Query().Get("as_of"))
	if err != nil {
		response.Fail(w, http.StatusBadRequest, customError.ErrCodeValidation, "as_of must be a date in YYYY-MM-DD format")
		return nil, false
	}
	return asOf, true
}
