package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/parking-billing/pkg/billing"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "cash"
	PaymentMethodBankTransfer  PaymentMethod = "bank_transfer"
	PaymentMethodCreditCard    PaymentMethod = "credit_card"
	PaymentMethodDebitCard     PaymentMethod = "debit_card"
	PaymentMethodMobilePayment PaymentMethod = "mobile_payment"
	PaymentMethodCheck         PaymentMethod = "check"
	PaymentMethodOther         PaymentMethod = "other"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCreditCard,
		PaymentMethodDebitCard, PaymentMethodMobilePayment, PaymentMethodCheck, PaymentMethodOther:
		return true
	}
	return false
}

// Payment is a single receipt against a rental. Payments are never updated.
type Payment struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	CompanyID       uuid.UUID       `json:"company_id" db:"company_id"`
	RentalID        uuid.UUID       `json:"rental_id" db:"rental_id"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	Currency        string          `json:"currency" db:"currency"`
	Method          PaymentMethod   `json:"method" db:"method"`
	PaymentDate     time.Time       `json:"payment_date" db:"payment_date"`
	ReferenceNumber string          `json:"reference_number,omitempty" db:"reference_number"`
	Notes           string          `json:"notes,omitempty" db:"notes"`
	CreatedBy       uuid.UUID       `json:"created_by" db:"created_by"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// PaymentLines converts stored payments into calculator input.
func PaymentLines(payments []*Payment) []billing.PaymentLine {
	lines := make([]billing.PaymentLine, 0, len(payments))
	for _, p := range payments {
		lines = append(lines, billing.PaymentLine{Amount: p.Amount, Date: p.PaymentDate})
	}
	return lines
}

type RecordPaymentRequest struct {
	Amount          decimal.Decimal
	Currency        string
	Method          PaymentMethod
	PaymentDate     time.Time
	ReferenceNumber string
	Notes           string
}
