package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/parking-billing/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockBillingService struct {
	mock.Mock
}

func (m *MockBillingService) CreateSpace(ctx context.Context, tenant domain.TenantContext, request *domain.CreateSpaceRequest) (*domain.Space, error) {
	args := m.Called(ctx, tenant, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Space), args.Error(1)
}

func (m *MockBillingService) ListSpaces(ctx context.Context, tenant domain.TenantContext) ([]*domain.Space, error) {
	args := m.Called(ctx, tenant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Space), args.Error(1)
}

func (m *MockBillingService) CreateRental(ctx context.Context, tenant domain.TenantContext, request *domain.CreateRentalRequest) (*domain.Rental, error) {
	args := m.Called(ctx, tenant, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}

func (m *MockBillingService) GetRental(ctx context.Context, tenant domain.TenantContext, rentalID uuid.UUID) (*domain.Rental, error) {
	args := m.Called(ctx, tenant, rentalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}

func (m *MockBillingService) ListRentals(ctx context.Context, tenant domain.TenantContext, filter domain.RentalFilter) ([]*domain.Rental, error) {
	args := m.Called(ctx, tenant, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Rental), args.Error(1)
}

func (m *MockBillingService) GetRentalBalance(ctx context.Context, tenant domain.TenantContext, rentalID uuid.UUID, asOf *time.Time) (*domain.RentalBalance, error) {
	args := m.Called(ctx, tenant, rentalID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalBalance), args.Error(1)
}

func (m *MockBillingService) RecordPayment(ctx context.Context, tenant domain.TenantContext, rentalID uuid.UUID, request *domain.RecordPaymentRequest) (*domain.Payment, error) {
	args := m.Called(ctx, tenant, rentalID, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockBillingService) ListRentalPayments(ctx context.Context, tenant domain.TenantContext, rentalID uuid.UUID) ([]*domain.Payment, error) {
	args := m.Called(ctx, tenant, rentalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

func (m *MockBillingService) EndRental(ctx context.Context, tenant domain.TenantContext, rentalID uuid.UUID, request *domain.EndRentalRequest) (*domain.EndRentalResult, error) {
	args := m.Called(ctx, tenant, rentalID, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EndRentalResult), args.Error(1)
}

func (m *MockBillingService) OutstandingReport(ctx context.Context, tenant domain.TenantContext, asOf *time.Time) (*domain.OutstandingReport, error) {
	args := m.Called(ctx, tenant, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OutstandingReport), args.Error(1)
}
