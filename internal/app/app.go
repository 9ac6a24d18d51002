// Package app assembles the billing service from configuration. It is shared
// by the HTTP server, the scheduler and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/segyhp/parking-billing/internal/cache"
	"github.com/segyhp/parking-billing/internal/config"
	"github.com/segyhp/parking-billing/internal/events"
	"github.com/segyhp/parking-billing/internal/repository"
	"github.com/segyhp/parking-billing/internal/service"
)

type App struct {
	DB        *sqlx.DB
	Redis     *redis.Client
	Publisher events.Publisher
	Service   *service.BillingService
	logger    zerolog.Logger
}

// InitDB opens the configured database and applies the pool settings.
func InitDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Database.Driver, err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

// New connects every backing service and builds the billing service. The
// balance cache is disabled when no redis address is configured.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	db, err := InitDB(cfg)
	if err != nil {
		return nil, err
	}

	if err := repository.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	a := &App{DB: db, logger: logger}

	var balanceCache cache.BalanceCache
	if cfg.Redis.Addr != "" {
		a.Redis = cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, balances will be computed on every read")
		}
		balanceCache = cache.NewRedisBalanceCache(a.Redis, cfg.Redis.BalanceTTL)
	}

	a.Publisher, err = events.NewPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange)
	if err != nil {
		logger.Warn().Err(err).Msg("event broker unreachable, events disabled")
		a.Publisher = events.NoopPublisher{}
	}

	a.Service = service.NewBillingService(repository.NewStore(db), balanceCache, a.Publisher, cfg, logger)
	return a, nil
}

// Close releases every connection held by the app.
func (a *App) Close() {
	if err := a.Publisher.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("closing event publisher")
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("closing redis")
		}
	}
	if err := a.DB.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("closing database")
	}
}
