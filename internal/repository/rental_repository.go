package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/segyhp/parking-billing/internal/domain"
)

const rentalColumns = `id, company_id, space_id, code, client_name, client_phone, client_email,
	vehicle_plate, vehicle_make, vehicle_model, vehicle_color, start_date, end_date,
	monthly_rate, currency, status, total_days, total_amount, notes, created_at, updated_at`

type rentalRepository struct {
	db sqlx.ExtContext
}

func NewRentalRepository(db sqlx.ExtContext) RentalRepository {
	return &rentalRepository{db: db}
}

func (r *rentalRepository) Create(ctx context.Context, rental *domain.Rental) error {
	query := `
		INSERT INTO rentals (` + rentalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		rental.ID,
		rental.CompanyID,
		rental.SpaceID,
		rental.Code,
		rental.ClientName,
		rental.ClientPhone,
		rental.ClientEmail,
		rental.VehiclePlate,
		rental.VehicleMake,
		rental.VehicleModel,
		rental.VehicleColor,
		rental.StartDate,
		rental.EndDate,
		rental.MonthlyRate,
		rental.Currency,
		rental.Status,
		rental.TotalDays,
		rental.TotalAmount,
		rental.Notes,
		rental.CreatedAt,
		rental.UpdatedAt,
	)

	return err
}

func (r *rentalRepository) GetByID(ctx context.Context, companyID, id uuid.UUID) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE company_id = ? AND id = ?`
	return r.get(ctx, query, companyID, id)
}

func (r *rentalRepository) GetByIDForUpdate(ctx context.Context, companyID, id uuid.UUID) (*domain.Rental, error) {
	query := forUpdate(r.db, `SELECT `+rentalColumns+` FROM rentals WHERE company_id = ? AND id = ?`)
	return r.get(ctx, query, companyID, id)
}

func (r *rentalRepository) get(ctx context.Context, query string, args ...interface{}) (*domain.Rental, error) {
	var rental domain.Rental
	if err := sqlx.GetContext(ctx, r.db, &rental, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return &rental, nil
}

func (r *rentalRepository) List(ctx context.Context, companyID uuid.UUID, filter domain.RentalFilter) ([]*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE company_id = ?`
	args := []interface{}{companyID}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY start_date DESC, code DESC`

	rentals := []*domain.Rental{}
	if err := sqlx.SelectContext(ctx, r.db, &rentals, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	return rentals, nil
}

func (r *rentalRepository) ListAllActive(ctx context.Context) ([]*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE status = ? ORDER BY company_id, code`

	rentals := []*domain.Rental{}
	if err := sqlx.SelectContext(ctx, r.db, &rentals, r.db.Rebind(query), domain.RentalStatusActive); err != nil {
		return nil, err
	}

	return rentals, nil
}

func (r *rentalRepository) Count(ctx context.Context, companyID uuid.UUID) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, r.db, &count, r.db.Rebind(`SELECT COUNT(*) FROM rentals WHERE company_id = ?`), companyID)
	return count, err
}

func (r *rentalRepository) End(ctx context.Context, rental *domain.Rental) error {
	query := `
		UPDATE rentals
		SET end_date = ?, total_days = ?, total_amount = ?, status = ?, notes = ?, updated_at = ?
		WHERE company_id = ? AND id = ? AND status = ?
	`

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		rental.EndDate,
		rental.TotalDays,
		rental.TotalAmount,
		domain.RentalStatusEnded,
		rental.Notes,
		rental.UpdatedAt,
		rental.CompanyID,
		rental.ID,
		domain.RentalStatusActive,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrStatusConflict
	}
	return nil
}
