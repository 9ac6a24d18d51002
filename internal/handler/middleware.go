package handler

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/segyhp/parking-billing/internal/auth"
	"github.com/segyhp/parking-billing/internal/config"
	"github.com/segyhp/parking-billing/internal/domain"
	"github.com/segyhp/parking-billing/internal/metrics"
	"github.com/segyhp/parking-billing/pkg/response"
	"golang.org/x/time/rate"
)

type tenantKey struct{}

// WithTenant stores the resolved tenant on the request context.
func WithTenant(ctx context.Context, tenant domain.TenantContext) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenant)
}

// TenantFromContext returns the tenant resolved by Authenticate.
func TenantFromContext(ctx context.Context) (domain.TenantContext, bool) {
	tenant, ok := ctx.Value(tenantKey{}).(domain.TenantContext)
	return tenant, ok
}

// tenantFrom returns the zero tenant when none was resolved; the service
// rejects it as forbidden.
func tenantFrom(r *http.Request) domain.TenantContext {
	tenant, _ := TenantFromContext(r.Context())
	return tenant
}

// Authenticate resolves the bearer token into a TenantContext.
func Authenticate(tokens *auth.TokenManager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || strings.TrimSpace(token) == "" {
				response.Unauthorized(w, "Missing bearer token")
				return
			}

			tenant, err := tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				response.Unauthorized(w, "Invalid bearer token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), tenant)))
		})
	}
}

// RequireWrite rejects roles that may only read.
func RequireWrite(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !tenantFrom(r).CanWrite() {
			response.Forbidden(w, "Role is not allowed to modify billing data")
			return
		}
		next(w, r)
	}
}

type rateLimiter struct {
	limiters sync.Map
	cfg      config.RateLimitConfig
}

func newRateLimiter(cfg config.RateLimitConfig) *rateLimiter {
	return &rateLimiter{cfg: cfg}
}

func (l *rateLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		if lim, ok := v.(*rate.Limiter); ok {
			return lim
		}
	}

	burst := l.cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(l.cfg.RPS), burst)
	actual, loaded := l.limiters.LoadOrStore(key, lim)
	if loaded {
		if actualLim, ok := actual.(*rate.Limiter); ok {
			return actualLim
		}
	}
	return lim
}

// Middleware limits requests per company. It must run after Authenticate.
func (l *rateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := tenantFrom(r).CompanyID.String()
		if !l.getLimiter(key).Allow() {
			response.TooManyRequests(w, "Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// AccessLog logs every request and counts it by route template.
func AccessLog(logger zerolog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(recorder, r)

			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tpl, err := current.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			metrics.IncHTTP(route, r.Method, recorder.status)

			event := logger.Info()
			if recorder.status >= http.StatusInternalServerError {
				event = logger.Error()
			}
			event.
				Str("method", r.Method).
				Str("route", route).
				Str("path", r.URL.Path).
				Int("status", recorder.status).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}
