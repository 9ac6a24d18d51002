// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/segyhp/parking-billing/internal/domain"
	"github.com/segyhp/parking-billing/migrations"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// NewSQLiteDB opens a migrated in-memory database. A single connection keeps
// every query on the same in-memory database.
func NewSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(context.Background(), migrations.InitSQL)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// Date returns UTC midnight of the given day.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewSpace builds an available space for a company.
func NewSpace(companyID uuid.UUID, code string, monthlyRate int64) *domain.Space {
	now := time.Now().UTC()
	return &domain.Space{
		ID:          uuid.New(),
		CompanyID:   companyID,
		Code:        code,
		Name:        "Space " + code,
		Type:        "covered",
		MonthlyRate: decimal.NewFromInt(monthlyRate),
		Currency:    "USD",
		Status:      domain.SpaceStatusAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewRental builds an active rental of a space.
func NewRental(space *domain.Space, code string, start time.Time) *domain.Rental {
	now := time.Now().UTC()
	return &domain.Rental{
		ID:           uuid.New(),
		CompanyID:    space.CompanyID,
		SpaceID:      space.ID,
		Code:         code,
		ClientName:   "Jane Client",
		VehiclePlate: "B 1234 XYZ",
		StartDate:    start,
		MonthlyRate:  space.MonthlyRate,
		Currency:     space.Currency,
		Status:       domain.RentalStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewPayment builds a cash payment against a rental.
func NewPayment(rental *domain.Rental, amount int64, paidOn time.Time) *domain.Payment {
	return &domain.Payment{
		ID:          uuid.New(),
		CompanyID:   rental.CompanyID,
		RentalID:    rental.ID,
		Amount:      decimal.NewFromInt(amount),
		Currency:    rental.Currency,
		Method:      domain.PaymentMethodCash,
		PaymentDate: paidOn,
		CreatedBy:   uuid.New(),
		CreatedAt:   time.Now().UTC(),
	}
}
