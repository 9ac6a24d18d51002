package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segyhp/parking-billing/internal/auth"
	"github.com/segyhp/parking-billing/internal/config"
	"github.com/segyhp/parking-billing/internal/domain"
	"github.com/segyhp/parking-billing/internal/handler"
	"github.com/segyhp/parking-billing/internal/mocks"
	"github.com/segyhp/parking-billing/internal/testutil"
	customError "github.com/segyhp/parking-billing/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-test-secret"

type testServer struct {
	handler http.Handler
	service *mocks.MockBillingService
	tokens  *auth.TokenManager
	tenant  domain.TenantContext
}

func newTestServer(t *testing.T, limits config.RateLimitConfig) *testServer {
	t.Helper()

	svc := &mocks.MockBillingService{}
	tokens := auth.NewTokenManager(testSecret, time.Hour)
	health := handler.NewHealthHandler(testutil.NewSQLiteDB(t), nil, time.Second)

	router := handler.NewRouter(handler.NewBillingHandler(svc, zerolog.Nop()), health, handler.RouterOptions{
		Logger:    zerolog.Nop(),
		Tokens:    tokens,
		RateLimit: limits,
	})

	return &testServer{
		handler: router,
		service: svc,
		tokens:  tokens,
		tenant:  domain.NewTenantContext(uuid.New(), uuid.New(), domain.RoleManager),
	}
}

func defaultLimits() config.RateLimitConfig {
	return config.RateLimitConfig{RPS: 1000, Burst: 1000}
}

func (s *testServer) do(t *testing.T, tenant domain.TenantContext, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tenant.CompanyID != uuid.Nil {
		token, err := s.tokens.Issue(tenant)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestBillingHandler_RecordPayment(t *testing.T) {
	rentalID := uuid.New()
	path := "/api/v1/rentals/" + rentalID.String() + "/payments"

	tests := []struct {
		name           string
		path           string
		requestBody    interface{}
		setupMock      func(*mocks.MockBillingService)
		expectedStatus int
		checkResponse  func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "payment recorded",
			path:        path,
			requestBody: map[string]interface{}{"amount": "60", "method": "bank_transfer", "payment_date": "2024-01-05"},
			setupMock: func(m *mocks.MockBillingService) {
				m.On("RecordPayment", mock.Anything, mock.Anything, rentalID, mock.MatchedBy(func(req *domain.RecordPaymentRequest) bool {
					return req.Amount.Equal(decimal.NewFromInt(60)) &&
						req.Method == domain.PaymentMethodBankTransfer &&
						req.PaymentDate.Equal(testutil.Date(2024, 1, 5))
				})).Return(&domain.Payment{ID: uuid.New(), RentalID: rentalID, Amount: decimal.NewFromInt(60), Currency: "USD"}, nil).Once()
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var wrapperResponse struct {
					Success bool           `json:"success"`
					Data    domain.Payment `json:"data"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wrapperResponse))
				assert.True(t, wrapperResponse.Success)
				assert.True(t, wrapperResponse.Data.Amount.Equal(decimal.NewFromInt(60)))
			},
		},
		{
			name:        "non-positive amount is rejected by the service verbatim",
			path:        path,
			requestBody: map[string]interface{}{"amount": 0},
			setupMock: func(m *mocks.MockBillingService) {
				m.On("RecordPayment", mock.Anything, mock.Anything, rentalID, mock.Anything).
					Return(nil, customError.WrapAmountNotPositive()).Once()
			},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				body := decodeError(t, w)
				assert.Equal(t, "amount must be positive", body.Message)
				assert.Equal(t, customError.ErrCodeValidation, body.Code)
			},
		},
		{
			name:        "overpayment",
			path:        path,
			requestBody: map[string]interface{}{"amount": "50"},
			setupMock: func(m *mocks.MockBillingService) {
				m.On("RecordPayment", mock.Anything, mock.Anything, rentalID, mock.Anything).
					Return(nil, customError.WrapAmountExceedsBalance()).Once()
			},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, "amount exceeds remaining balance", decodeError(t, w).Message)
			},
		},
		{
			name:           "unknown method fails validation",
			path:           path,
			requestBody:    map[string]interface{}{"amount": "10", "method": "barter"},
			setupMock:      func(m *mocks.MockBillingService) {},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Contains(t, decodeError(t, w).Message, "method must be one of")
			},
		},
		{
			name:           "bad payment date",
			path:           path,
			requestBody:    map[string]interface{}{"amount": "10", "payment_date": "05/01/2024"},
			setupMock:      func(m *mocks.MockBillingService) {},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, "payment_date must be a date in YYYY-MM-DD format", decodeError(t, w).Message)
			},
		},
		{
			name:           "malformed JSON",
			path:           path,
			requestBody:    `{"amount":`,
			setupMock:      func(m *mocks.MockBillingService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid rental id",
			path:           "/api/v1/rentals/not-a-uuid/payments",
			requestBody:    map[string]interface{}{"amount": "10"},
			setupMock:      func(m *mocks.MockBillingService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "rental of another company",
			path:        path,
			requestBody: map[string]interface{}{"amount": "10"},
			setupMock: func(m *mocks.MockBillingService) {
				m.On("RecordPayment", mock.Anything, mock.Anything, rentalID, mock.Anything).
					Return(nil, customError.WrapRentalNotFound(rentalID.String())).Once()
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:        "database failure is hidden",
			path:        path,
			requestBody: map[string]interface{}{"amount": "10"},
			setupMock: func(m *mocks.MockBillingService) {
				m.On("RecordPayment", mock.Anything, mock.Anything, rentalID, mock.Anything).
					Return(nil, customError.WrapDatabaseError(errors.New("connection reset"))).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				body := decodeError(t, w)
				assert.Equal(t, "Internal server error", body.Message)
				assert.NotContains(t, w.Body.String(), "connection reset")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, defaultLimits())
			tt.setupMock(srv.service)

			w := srv.do(t, srv.tenant, http.MethodPost, tt.path, tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.checkResponse != nil {
				tt.checkResponse(t, w)
			}
			srv.service.AssertExpectations(t)
		})
	}
}

func TestBillingHandler_CreateRental(t *testing.T) {
	spaceID := uuid.New()

	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*mocks.MockBillingService)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name: "rental created with space rate",
			requestBody: map[string]interface{}{
				"space_id":    spaceID.String(),
				"client_name": "Jane",
				"start_date":  "2024-01-01",
			},
			setupMock: func(m *mocks.MockBillingService) {
				m.On("CreateRental", mock.Anything, mock.Anything, mock.MatchedBy(func(req *domain.CreateRentalRequest) bool {
					return req.SpaceID == spaceID &&
						req.StartDate.Equal(testutil.Date(2024, 1, 1)) &&
						req.EndDate == nil &&
						req.MonthlyRate == nil
				})).Return(&domain.Rental{ID: uuid.New(), Code: "RN-0001"}, nil).Once()
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "space already occupied",
			requestBody: map[string]interface{}{
				"space_id":    spaceID.String(),
				"client_name": "Jane",
				"start_date":  "2024-01-01",
			},
			setupMock: func(m *mocks.MockBillingService) {
				m.On("CreateRental", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, customError.WrapSpaceNotAvailable("PS-0001")).Once()
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "zero monthly rate override",
			requestBody: map[string]interface{}{
				"space_id":     spaceID.String(),
				"client_name":  "Jane",
				"start_date":   "2024-01-01",
				"monthly_rate": "0",
			},
			setupMock:      func(m *mocks.MockBillingService) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "monthly_rate must be greater than 0",
		},
		{
			name:           "missing client and start date",
			requestBody:    map[string]interface{}{"space_id": spaceID.String()},
			setupMock:      func(m *mocks.MockBillingService) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "client_name is required; start_date is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, defaultLimits())
			tt.setupMock(srv.service)

			w := srv.do(t, srv.tenant, http.MethodPost, "/api/v1/rentals", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedMsg != "" {
				assert.Equal(t, tt.expectedMsg, decodeError(t, w).Message)
			}
			srv.service.AssertExpectations(t)
		})
	}
}

func TestBillingHandler_GetRentalBalance(t *testing.T) {
	srv := newTestServer(t, defaultLimits())
	rentalID := uuid.New()
	asOf := testutil.Date(2024, 1, 11)

	srv.service.On("GetRentalBalance", mock.Anything, srv.tenant, rentalID, mock.MatchedBy(func(d *time.Time) bool {
		return d != nil && d.Equal(asOf)
	})).Return(&domain.RentalBalance{RentalID: rentalID, RentalCode: "RN-0001", Currency: "USD"}, nil).Once()

	w := srv.do(t, srv.tenant, http.MethodGet, "/api/v1/rentals/"+rentalID.String()+"/balance?as_of=2024-01-11", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rental_code":"RN-0001"`)

	w = srv.do(t, srv.tenant, http.MethodGet, "/api/v1/rentals/"+rentalID.String()+"/balance?as_of=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	srv.service.AssertExpectations(t)
}

func TestBillingHandler_EndRental(t *testing.T) {
	srv := newTestServer(t, defaultLimits())
	rentalID := uuid.New()

	srv.service.On("EndRental", mock.Anything, mock.Anything, rentalID, mock.MatchedBy(func(req *domain.EndRentalRequest) bool {
		return req.EndDate.Equal(testutil.Date(2024, 1, 25)) &&
			req.FinalPayment != nil &&
			req.FinalPayment.Amount.Equal(decimal.NewFromInt(240)) &&
			req.FinalPayment.PaymentDate.IsZero()
	})).Return(&domain.EndRentalResult{Rental: &domain.Rental{ID: rentalID, Status: domain.RentalStatusEnded}}, nil).Once()
	srv.service.On("EndRental", mock.Anything, mock.Anything, rentalID, mock.Anything).
		Return(nil, customError.WrapRentalAlreadyEnded("RN-0001")).Once()

	body := map[string]interface{}{
		"end_date":      "2024-01-25",
		"final_payment": map[string]interface{}{"amount": "240"},
	}
	w := srv.do(t, srv.tenant, http.MethodPost, "/api/v1/rentals/"+rentalID.String()+"/end", body)
	assert.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, srv.tenant, http.MethodPost, "/api/v1/rentals/"+rentalID.String()+"/end", body)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = srv.do(t, srv.tenant, http.MethodPost, "/api/v1/rentals/"+rentalID.String()+"/end", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "end_date is required", decodeError(t, w).Message)

	srv.service.AssertExpectations(t)
}

func TestBillingHandler_Authentication(t *testing.T) {
	srv := newTestServer(t, defaultLimits())
	viewer := domain.NewTenantContext(srv.tenant.CompanyID, uuid.New(), domain.RoleViewer)

	srv.service.On("ListRentals", mock.Anything, viewer, domain.RentalFilter{Status: domain.RentalStatusActive}).
		Return([]*domain.Rental{}, nil).Once()

	// no token
	w := srv.do(t, domain.TenantContext{}, http.MethodGet, "/api/v1/rentals", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// token signed with another secret
	forged, err := auth.NewTokenManager("other-secret", time.Hour).Issue(srv.tenant)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/rentals", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// viewers read but never write
	w = srv.do(t, viewer, http.MethodGet, "/api/v1/rentals?status=active", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, viewer, http.MethodPost, "/api/v1/rentals/"+uuid.NewString()+"/payments", map[string]interface{}{"amount": "10"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	srv.service.AssertExpectations(t)
	srv.service.AssertNotCalled(t, "RecordPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBillingHandler_RateLimit(t *testing.T) {
	srv := newTestServer(t, config.RateLimitConfig{RPS: 0.001, Burst: 1})
	srv.service.On("ListSpaces", mock.Anything, mock.Anything).Return([]*domain.Space{}, nil)

	w := srv.do(t, srv.tenant, http.MethodGet, "/api/v1/spaces", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, srv.tenant, http.MethodGet, "/api/v1/spaces", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// limits are per company
	other := domain.NewTenantContext(uuid.New(), uuid.New(), domain.RoleAdmin)
	w = srv.do(t, other, http.MethodGet, "/api/v1/spaces", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBillingHandler_OutstandingReport(t *testing.T) {
	srv := newTestServer(t, defaultLimits())
	report := &domain.OutstandingReport{CompanyID: srv.tenant.CompanyID}
	report.Add(&domain.RentalBalance{RentalID: uuid.New(), Currency: "USD"})

	srv.service.On("OutstandingReport", mock.Anything, srv.tenant, (*time.Time)(nil)).Return(report, nil).Once()

	w := srv.do(t, srv.tenant, http.MethodGet, "/api/v1/reports/outstanding", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var wrapperResponse struct {
		Data domain.OutstandingReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wrapperResponse))
	require.Len(t, wrapperResponse.Data.Totals, 1)
	assert.Equal(t, 1, wrapperResponse.Data.Totals[0].Rentals)
	srv.service.AssertExpectations(t)
}
