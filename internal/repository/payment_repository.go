package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/segyhp/parking-billing/internal/domain"
	"github.com/shopspring/decimal"
)

const paymentColumns = `id, company_id, rental_id, amount, currency, method, payment_date,
	reference_number, notes, created_by, created_at`

type paymentRepository struct {
	db sqlx.ExtContext
}

func NewPaymentRepository(db sqlx.ExtContext) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		payment.ID,
		payment.CompanyID,
		payment.RentalID,
		payment.Amount,
		payment.Currency,
		payment.Method,
		payment.PaymentDate,
		payment.ReferenceNumber,
		payment.Notes,
		payment.CreatedBy,
		payment.CreatedAt,
	)

	return err
}

func (r *paymentRepository) GetByRentalID(ctx context.Context, companyID, rentalID uuid.UUID) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE company_id = ? AND rental_id = ?
		ORDER BY payment_date, created_at
	`

	payments := []*domain.Payment{}
	if err := sqlx.SelectContext(ctx, r.db, &payments, r.db.Rebind(query), companyID, rentalID); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) GetTotalPaid(ctx context.Context, companyID, rentalID uuid.UUID) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE company_id = ? AND rental_id = ?`

	var total decimal.Decimal
	if err := sqlx.GetContext(ctx, r.db, &total, r.db.Rebind(query), companyID, rentalID); err != nil {
		return decimal.Zero, err
	}

	return total, nil
}
