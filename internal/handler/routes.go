package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/segyhp/parking-billing/internal/auth"
	"github.com/segyhp/parking-billing/internal/config"
	"github.com/segyhp/parking-billing/pkg/response"
)

type RouterOptions struct {
	Logger    zerolog.Logger
	Tokens    *auth.TokenManager
	RateLimit config.RateLimitConfig
}

// NewRouter wires the health, metrics and billing API routes.
func NewRouter(billing *BillingHandler, health *HealthHandler, opts RouterOptions) http.Handler {
	router := mux.NewRouter()
	router.Use(AccessLog(opts.Logger))
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})

	router.HandleFunc("/health", health.Health).Methods("GET")
	router.HandleFunc("/health/ready", health.Ready).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(Authenticate(opts.Tokens))
	api.Use(newRateLimiter(opts.RateLimit).Middleware)

	api.HandleFunc("/spaces", RequireWrite(billing.CreateSpace)).Methods("POST")
	api.HandleFunc("/spaces", billing.ListSpaces).Methods("GET")

	api.HandleFunc("/rentals", RequireWrite(billing.CreateRental)).Methods("POST")
	api.HandleFunc("/rentals", billing.ListRentals).Methods("GET")
	api.HandleFunc("/rentals/{rentalId}", billing.GetRental).Methods("GET")
	api.HandleFunc("/rentals/{rentalId}/balance", billing.GetRentalBalance).Methods("GET")
	api.HandleFunc("/rentals/{rentalId}/payments", billing.ListRentalPayments).Methods("GET")
	api.HandleFunc("/rentals/{rentalId}/payments", RequireWrite(billing.RecordPayment)).Methods("POST")
	api.HandleFunc("/rentals/{rentalId}/end", RequireWrite(billing.EndRental)).Methods("POST")

	api.HandleFunc("/reports/outstanding", billing.OutstandingReport).Methods("GET")

	return response.CORSMiddleware(router)
}
