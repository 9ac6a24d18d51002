package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/parking-billing/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockBalanceCache struct {
	mock.Mock
}

func (m *MockBalanceCache) Version(ctx context.Context, companyID, rentalID uuid.UUID) (int64, error) {
	args := m.Called(ctx, companyID, rentalID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBalanceCache) Get(ctx context.Context, companyID, rentalID uuid.UUID, version int64, asOf time.Time) (*domain.RentalBalance, error) {
	args := m.Called(ctx, companyID, rentalID, version, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalBalance), args.Error(1)
}

func (m *MockBalanceCache) Set(ctx context.Context, balance *domain.RentalBalance, version int64) error {
	args := m.Called(ctx, balance, version)
	return args.Error(0)
}

func (m *MockBalanceCache) Invalidate(ctx context.Context, companyID, rentalID uuid.UUID) error {
	args := m.Called(ctx, companyID, rentalID)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, key string, payload any) error {
	args := m.Called(ctx, key, payload)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
