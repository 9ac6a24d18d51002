package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/segyhp/parking-billing/internal/domain"
	"github.com/segyhp/parking-billing/pkg/utils"
)

// BalanceCache stores computed rental balances keyed by the day they were
// computed for and by the rental's cache version. Callers read the version
// before loading payments and write under that version, so a balance computed
// before an invalidation is never served after it.
type BalanceCache interface {
	// Version returns the current cache version of a rental, 0 when unset
	Version(ctx context.Context, companyID, rentalID uuid.UUID) (int64, error)
	// Get returns nil without error on a cache miss
	Get(ctx context.Context, companyID, rentalID uuid.UUID, version int64, asOf time.Time) (*domain.RentalBalance, error)
	Set(ctx context.Context, balance *domain.RentalBalance, version int64) error
	// Invalidate bumps the rental's version and drops every cached day
	Invalidate(ctx context.Context, companyID, rentalID uuid.UUID) error
}

type RedisBalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient creates a Redis client from connection settings
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewRedisBalanceCache(client *redis.Client, ttl time.Duration) *RedisBalanceCache {
	return &RedisBalanceCache{
		client: client,
		ttl:    ttl,
	}
}

func balanceKey(companyID, rentalID uuid.UUID, version int64, asOf time.Time) string {
	return fmt.Sprintf("rental_balance:%s:%s:%d:%s", companyID, rentalID, version, asOf.Format(utils.DateLayout))
}

func versionKey(companyID, rentalID uuid.UUID) string {
	return fmt.Sprintf("rental_balance_version:%s:%s", companyID, rentalID)
}

func (c *RedisBalanceCache) Version(ctx context.Context, companyID, rentalID uuid.UUID) (int64, error) {
	version, err := c.client.Get(ctx, versionKey(companyID, rentalID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get balance version from redis: %w", err)
	}
	return version, nil
}

func (c *RedisBalanceCache) Get(ctx context.Context, companyID, rentalID uuid.UUID, version int64, asOf time.Time) (*domain.RentalBalance, error) {
	val, err := c.client.Get(ctx, balanceKey(companyID, rentalID, version, asOf)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance from redis: %w", err)
	}

	var balance domain.RentalBalance
	if err := json.Unmarshal([]byte(val), &balance); err != nil {
		return nil, fmt.Errorf("failed to unmarshal balance: %w", err)
	}
	balance.CompanyID = companyID

	return &balance, nil
}

func (c *RedisBalanceCache) Set(ctx context.Context, balance *domain.RentalBalance, version int64) error {
	data, err := json.Marshal(balance)
	if err != nil {
		return fmt.Errorf("failed to marshal balance: %w", err)
	}

	key := balanceKey(balance.CompanyID, balance.RentalID, version, balance.AsOf)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set balance in redis: %w", err)
	}
	return nil
}

func (c *RedisBalanceCache) Invalidate(ctx context.Context, companyID, rentalID uuid.UUID) error {
	if err := c.client.Incr(ctx, versionKey(companyID, rentalID)).Err(); err != nil {
		return fmt.Errorf("failed to bump balance version: %w", err)
	}

	pattern := fmt.Sprintf("rental_balance:%s:%s:*", companyID, rentalID)

	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan balance keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete balance keys: %w", err)
	}
	return nil
}
