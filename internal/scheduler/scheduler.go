// Package scheduler runs the periodic billing jobs.
package scheduler

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/segyhp/parking-billing/internal/config"
)

// Refresher recomputes outstanding balances of every active rental.
type Refresher interface {
	RefreshOutstanding(ctx context.Context, asOf time.Time) (int, error)
}

type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	logger    zerolog.Logger
	location  *time.Location
	timeout   time.Duration
	now       func() time.Time
}

// New schedules the outstanding balance refresh on cfg.Spec, a six-field
// cron expression evaluated in the configured timezone.
func New(cfg *config.Config, refresher Refresher, logger zerolog.Logger) (*Scheduler, error) {
	location := cfg.SchedulerLocation()
	s := &Scheduler{
		cron:      cron.New(cron.WithSeconds(), cron.WithLocation(location)),
		refresher: refresher,
		logger:    logger.With().Str("component", "scheduler").Logger(),
		location:  location,
		timeout:   30 * time.Minute,
		now:       time.Now,
	}

	if _, err := s.cron.AddFunc(cfg.Scheduler.Spec, s.refreshOutstanding); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn().Msg("scheduler stopped before running job finished")
	}
}

func (s *Scheduler) refreshOutstanding() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	// the balance day is the calendar day in the scheduler timezone
	started := s.now().In(s.location)
	s.logger.Info().Msg("running outstanding balance refresh")

	count, err := s.refresher.RefreshOutstanding(ctx, started)
	if err != nil {
		s.logger.Error().Err(err).Msg("outstanding balance refresh failed")
		return
	}

	s.logger.Info().
		Int("rentals", count).
		Dur("duration", time.Since(started)).
		Msg("outstanding balance refresh finished")
}

// NewMetricsServer exposes the scheduler's Prometheus metrics, including the
// outstanding balance gauge the refresh job maintains.
func NewMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
