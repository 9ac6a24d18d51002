package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/segyhp/parking-billing/migrations"
)

var (
	// ErrStatusConflict is returned when a guarded status transition finds the
	// row in an unexpected state.
	ErrStatusConflict = errors.New("status transition conflict")
)

type sqlStore struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) Store {
	return &sqlStore{db: db}
}

func newRepositories(db sqlx.ExtContext) Repositories {
	return Repositories{
		Spaces:   NewSpaceRepository(db),
		Rentals:  NewRentalRepository(db),
		Payments: NewPaymentRepository(db),
	}
}

func (s *sqlStore) Repositories() Repositories {
	return newRepositories(s.db)
}

func (s *sqlStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(ctx, newRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, migrations.InitSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err comes from a unique constraint on
// either supported driver.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	return false
}

func forUpdate(db sqlx.ExtContext, query string) string {
	if db.DriverName() == "postgres" {
		return query + " FOR UPDATE"
	}
	return query
}
