package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/segyhp/parking-billing/internal/domain"
	"github.com/shopspring/decimal"
)

// SpaceRepository defines the interface for parking space data operations
type SpaceRepository interface {
	// Create creates a new space
	Create(ctx context.Context, space *domain.Space) error

	// GetByID retrieves a space of a company
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*domain.Space, error)

	// List returns all spaces of a company ordered by code
	List(ctx context.Context, companyID uuid.UUID) ([]*domain.Space, error)

	// Count returns the number of spaces of a company
	Count(ctx context.Context, companyID uuid.UUID) (int, error)

	// TransitionStatus moves a space from one status to another. It returns
	// ErrStatusConflict when the space is not in the from status.
	TransitionStatus(ctx context.Context, companyID, id uuid.UUID, from, to domain.SpaceStatus) error
}

// RentalRepository defines the interface for rental data operations
type RentalRepository interface {
	// Create creates a new rental
	Create(ctx context.Context, rental *domain.Rental) error

	// GetByID retrieves a rental of a company
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*domain.Rental, error)

	// GetByIDForUpdate retrieves a rental and locks its row until the
	// surrounding transaction ends
	GetByIDForUpdate(ctx context.Context, companyID, id uuid.UUID) (*domain.Rental, error)

	// List returns rentals of a company, newest first
	List(ctx context.Context, companyID uuid.UUID, filter domain.RentalFilter) ([]*domain.Rental, error)

	// ListAllActive returns active rentals across all companies
	ListAllActive(ctx context.Context) ([]*domain.Rental, error)

	// Count returns the number of rentals of a company
	Count(ctx context.Context, companyID uuid.UUID) (int, error)

	// End persists the end-of-rental snapshot of an active rental. It returns
	// ErrStatusConflict when the rental is no longer active.
	End(ctx context.Context, rental *domain.Rental) error
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// Create creates a new payment record
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByRentalID retrieves all payments for a rental, oldest first
	GetByRentalID(ctx context.Context, companyID, rentalID uuid.UUID) ([]*domain.Payment, error)

	// GetTotalPaid calculates total amount paid for a rental
	GetTotalPaid(ctx context.Context, companyID, rentalID uuid.UUID) (decimal.Decimal, error)
}

// Repositories groups repositories bound to the same connection or transaction.
type Repositories struct {
	Spaces   SpaceRepository
	Rentals  RentalRepository
	Payments PaymentRepository
}

// Store hands out repositories and runs units of work atomically.
type Store interface {
	// Repositories returns repositories bound to the connection pool
	Repositories() Repositories

	// WithinTx runs fn with repositories bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
