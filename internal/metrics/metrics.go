package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const namespace = "parking_billing"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		},
		[]string{"route", "method", "status"},
	)

	paymentsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_recorded_total",
			Help:      "Payments recorded by currency.",
		},
		[]string{"currency"},
	)

	paymentRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_rejections_total",
			Help:      "Payments rejected by reason.",
		},
		[]string{"reason"},
	)

	rentalsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rentals_created_total",
			Help:      "Rentals created.",
		},
	)

	rentalsEnded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rentals_ended_total",
			Help:      "Rentals ended.",
		},
	)

	outstandingBalance = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outstanding_balance",
			Help:      "Remaining balance of active rentals per company and currency.",
		},
		[]string{"company_id", "currency"},
	)
)

// Rejection reasons.
const (
	ReasonNotPositive      = "not_positive"
	ReasonExceedsBalance   = "exceeds_balance"
	ReasonCurrencyMismatch = "currency_mismatch"
	ReasonPrecision        = "precision"
	ReasonFutureDate       = "future_date"
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			paymentsRecorded,
			paymentRejections,
			rentalsCreated,
			rentalsEnded,
			outstandingBalance,
		)
	})
}

func IncHTTP(route, method string, status int) {
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

func IncPaymentRecorded(currency string) {
	paymentsRecorded.WithLabelValues(currency).Inc()
}

func IncPaymentRejected(reason string) {
	paymentRejections.WithLabelValues(reason).Inc()
}

func IncRentalCreated() {
	rentalsCreated.Inc()
}

func IncRentalEnded() {
	rentalsEnded.Inc()
}

// SetOutstanding records the remaining balance of a company in one currency.
func SetOutstanding(companyID, currency string, amount decimal.Decimal) {
	outstandingBalance.WithLabelValues(companyID, currency).Set(amount.InexactFloat64())
}

// ResetOutstanding drops every outstanding balance series so companies that
// no longer owe anything stop reporting their last value.
func ResetOutstanding() {
	outstandingBalance.Reset()
}
