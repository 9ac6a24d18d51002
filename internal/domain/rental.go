package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/parking-billing/pkg/billing"
	"github.com/shopspring/decimal"
)

type RentalStatus string

const (
	RentalStatusActive RentalStatus = "active"
	RentalStatusEnded  RentalStatus = "ended"
)

// Rental represents a lease of a parking space to a client
type Rental struct {
	ID           uuid.UUID           `json:"id" db:"id"`
	CompanyID    uuid.UUID           `json:"company_id" db:"company_id"`
	SpaceID      uuid.UUID           `json:"space_id" db:"space_id"`
	Code         string              `json:"code" db:"code"`
	ClientName   string              `json:"client_name" db:"client_name"`
	ClientPhone  string              `json:"client_phone" db:"client_phone"`
	ClientEmail  string              `json:"client_email" db:"client_email"`
	VehiclePlate string              `json:"vehicle_plate" db:"vehicle_plate"`
	VehicleMake  string              `json:"vehicle_make" db:"vehicle_make"`
	VehicleModel string              `json:"vehicle_model" db:"vehicle_model"`
	VehicleColor string              `json:"vehicle_color" db:"vehicle_color"`
	StartDate    time.Time           `json:"start_date" db:"start_date"`
	EndDate      *time.Time          `json:"end_date,omitempty" db:"end_date"`
	MonthlyRate  decimal.Decimal     `json:"monthly_rate" db:"monthly_rate"`
	Currency     string              `json:"currency" db:"currency"`
	Status       RentalStatus        `json:"status" db:"status"`
	TotalDays    *int                `json:"total_days,omitempty" db:"total_days"`
	TotalAmount  decimal.NullDecimal `json:"total_amount" db:"total_amount"`
	Notes        string              `json:"notes" db:"notes"`
	CreatedAt    time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at" db:"updated_at"`
}

func (r *Rental) IsActive() bool {
	return r.Status == RentalStatusActive
}

// Terms returns the billing terms of the rental.
func (r *Rental) Terms() billing.Terms {
	return billing.Terms{
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		MonthlyRate: r.MonthlyRate,
	}
}

// BalanceAsOf picks the date a balance is computed at. Ended rentals are
// always billed up to their end date.
func (r *Rental) BalanceAsOf(now time.Time) time.Time {
	if r.Status == RentalStatusEnded && r.EndDate != nil {
		return *r.EndDate
	}
	return now
}

// RentalBalance is the billing state of a rental at a point in time.
type RentalBalance struct {
	RentalID   uuid.UUID    `json:"rental_id"`
	CompanyID  uuid.UUID    `json:"-"`
	RentalCode string       `json:"rental_code"`
	Currency   string       `json:"currency"`
	Status     RentalStatus `json:"status"`
	billing.Balance
}

// DTOs for requests and responses

type CreateRentalRequest struct {
	SpaceID      uuid.UUID
	ClientName   string
	ClientPhone  string
	ClientEmail  string
	VehiclePlate string
	VehicleMake  string
	VehicleModel string
	VehicleColor string
	StartDate    time.Time
	EndDate      *time.Time
	MonthlyRate  *decimal.Decimal
	Currency     string
	Notes        string
}

type EndRentalRequest struct {
	EndDate      time.Time
	FinalPayment *RecordPaymentRequest
	Notes        string
}

type EndRentalResult struct {
	Rental       *Rental        `json:"rental"`
	FinalPayment *Payment       `json:"final_payment,omitempty"`
	Balance      *RentalBalance `json:"balance"`
}

type RentalFilter struct {
	Status RentalStatus
}
