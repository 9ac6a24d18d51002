package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/segyhp/parking-billing/internal/domain"
	"github.com/segyhp/parking-billing/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockSpaceRepository struct {
	mock.Mock
}

func (m *MockSpaceRepository) Create(ctx context.Context, space *domain.Space) error {
	args := m.Called(ctx, space)
	return args.Error(0)
}

func (m *MockSpaceRepository) GetByID(ctx context.Context, companyID, id uuid.UUID) (*domain.Space, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Space), args.Error(1)
}

func (m *MockSpaceRepository) List(ctx context.Context, companyID uuid.UUID) ([]*domain.Space, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Space), args.Error(1)
}

func (m *MockSpaceRepository) Count(ctx context.Context, companyID uuid.UUID) (int, error) {
	args := m.Called(ctx, companyID)
	return args.Int(0), args.Error(1)
}

func (m *MockSpaceRepository) TransitionStatus(ctx context.Context, companyID, id uuid.UUID, from, to domain.SpaceStatus) error {
	args := m.Called(ctx, companyID, id, from, to)
	return args.Error(0)
}

type MockRentalRepository struct {
	mock.Mock
}

func (m *MockRentalRepository) Create(ctx context.Context, rental *domain.Rental) error {
	args := m.Called(ctx, rental)
	return args.Error(0)
}

func (m *MockRentalRepository) GetByID(ctx context.Context, companyID, id uuid.UUID) (*domain.Rental, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}

func (m *MockRentalRepository) GetByIDForUpdate(ctx context.Context, companyID, id uuid.UUID) (*domain.Rental, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}

func (m *MockRentalRepository) List(ctx context.Context, companyID uuid.UUID, filter domain.RentalFilter) ([]*domain.Rental, error) {
	args := m.Called(ctx, companyID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Rental), args.Error(1)
}

func (m *MockRentalRepository) ListAllActive(ctx context.Context) ([]*domain.Rental, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Rental), args.Error(1)
}

func (m *MockRentalRepository) Count(ctx context.Context, companyID uuid.UUID) (int, error) {
	args := m.Called(ctx, companyID)
	return args.Int(0), args.Error(1)
}

func (m *MockRentalRepository) End(ctx context.Context, rental *domain.Rental) error {
	args := m.Called(ctx, rental)
	return args.Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByRentalID(ctx context.Context, companyID, rentalID uuid.UUID) ([]*domain.Payment, error) {
	args := m.Called(ctx, companyID, rentalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetTotalPaid(ctx context.Context, companyID, rentalID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, companyID, rentalID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockStore runs WithinTx callbacks directly against its mock repositories.
type MockStore struct {
	Spaces   *MockSpaceRepository
	Rentals  *MockRentalRepository
	Payments *MockPaymentRepository
}

func NewMockStore() *MockStore {
	return &MockStore{
		Spaces:   &MockSpaceRepository{},
		Rentals:  &MockRentalRepository{},
		Payments: &MockPaymentRepository{},
	}
}

func (s *MockStore) Repositories() repository.Repositories {
	return repository.Repositories{
		Spaces:   s.Spaces,
		Rentals:  s.Rentals,
		Payments: s.Payments,
	}
}

func (s *MockStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return fn(ctx, s.Repositories())
}
