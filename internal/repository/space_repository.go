package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/segyhp/parking-billing/internal/domain"
)

const spaceColumns = `id, company_id, code, name, type, category, size, monthly_rate, currency, status, description, created_at, updated_at`

type spaceRepository struct {
	db sqlx.ExtContext
}

func NewSpaceRepository(db sqlx.ExtContext) SpaceRepository {
	return &spaceRepository{db: db}
}

func (r *spaceRepository) Create(ctx context.Context, space *domain.Space) error {
	query := `
		INSERT INTO spaces (` + spaceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		space.ID,
		space.CompanyID,
		space.Code,
		space.Name,
		space.Type,
		space.Category,
		space.Size,
		space.MonthlyRate,
		space.Currency,
		space.Status,
		space.Description,
		space.CreatedAt,
		space.UpdatedAt,
	)

	return err
}

func (r *spaceRepository) GetByID(ctx context.Context, companyID, id uuid.UUID) (*domain.Space, error) {
	query := `SELECT ` + spaceColumns + ` FROM spaces WHERE company_id = ? AND id = ?`

	var space domain.Space
	if err := sqlx.GetContext(ctx, r.db, &space, r.db.Rebind(query), companyID, id); err != nil {
		return nil, err
	}

	return &space, nil
}

func (r *spaceRepository) List(ctx context.Context, companyID uuid.UUID) ([]*domain.Space, error) {
	query := `SELECT ` + spaceColumns + ` FROM spaces WHERE company_id = ? ORDER BY code`

	spaces := []*domain.Space{}
	if err := sqlx.SelectContext(ctx, r.db, &spaces, r.db.Rebind(query), companyID); err != nil {
		return nil, err
	}

	return spaces, nil
}

func (r *spaceRepository) Count(ctx context.Context, companyID uuid.UUID) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, r.db, &count, r.db.Rebind(`SELECT COUNT(*) FROM spaces WHERE company_id = ?`), companyID)
	return count, err
}

func (r *spaceRepository) TransitionStatus(ctx context.Context, companyID, id uuid.UUID, from, to domain.SpaceStatus) error {
	query := `
		UPDATE spaces
		SET status = ?, updated_at = ?
		WHERE company_id = ? AND id = ? AND status = ?
	`

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), to, time.Now().UTC(), companyID, id, from)
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
