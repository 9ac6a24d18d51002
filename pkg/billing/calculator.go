// Package billing derives the financial state of a parking rental from its
// terms and recorded payments. Everything here is a pure function of its
// inputs.
package billing

import (
	"time"

	customError "github.com/segyhp/parking-billing/pkg/errors"

	"github.com/shopspring/decimal"
)

// DaysPerMonth is the fixed month length used for proration. It is not
// calendar accurate and must stay at 30 for compatibility with existing
// balances.
const DaysPerMonth = 30

// CurrencyPlaces is the precision owed amounts are rounded to.
const CurrencyPlaces = 2

const day = 24 * time.Hour

// Terms are the billing-relevant attributes of a rental.
type Terms struct {
	StartDate   time.Time
	EndDate     *time.Time
	MonthlyRate decimal.Decimal
}

// PaymentLine is a recorded receipt against a rental.
type PaymentLine struct {
	Amount decimal.Decimal
	Date   time.Time
}

// Balance is the calculator output for a rental at a point in time.
type Balance struct {
	AsOf            time.Time       `json:"as_of"`
	DailyRate       decimal.Decimal `json:"daily_rate"`
	ElapsedDays     int             `json:"elapsed_days"`
	OwedAmount      decimal.Decimal `json:"owed_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	OverpaidAmount  decimal.Decimal `json:"overpaid_amount"`
	IsOngoing       bool            `json:"is_ongoing"`
	IsFullyPaid     bool            `json:"is_fully_paid"`
}

// DailyRate converts a monthly rate into the prorated daily rate.
func DailyRate(monthlyRate decimal.Decimal) decimal.Decimal {
	return monthlyRate.Div(decimal.NewFromInt(DaysPerMonth))
}

// IsOngoing reports whether the terms describe an open rental. An end date
// that does not fall after the start date leaves the rental open.
func (t Terms) IsOngoing() bool {
	return t.EndDate == nil || !t.EndDate.After(t.StartDate)
}

// ElapsedDays returns the billable days for the terms. Closed rentals count
// whole days up to the end date rounded up; open rentals count whole days up
// to asOf, truncated.
func ElapsedDays(terms Terms, asOf time.Time) int {
	if !terms.IsOngoing() {
		span := terms.EndDate.Sub(terms.StartDate)
		days := int(span / day)
		if span%day != 0 {
			days++
		}
		return days
	}

	return int(asOf.Sub(terms.StartDate) / day)
}

// OwedAmount multiplies before dividing so whole-month multiples stay exact.
func OwedAmount(monthlyRate decimal.Decimal, elapsedDays int) decimal.Decimal {
	return monthlyRate.
		Mul(decimal.NewFromInt(int64(elapsedDays))).
		Div(decimal.NewFromInt(DaysPerMonth)).
		Round(CurrencyPlaces)
}

// Calculate computes the balance of a rental as of asOf. asOf only matters
// for ongoing rentals.
func Calculate(terms Terms, payments []PaymentLine, asOf time.Time) (*Balance, error) {
	if terms.MonthlyRate.IsNegative() {
		return nil, customError.NewInvalidInput("monthly rate must not be negative")
	}

	elapsed := ElapsedDays(terms, asOf)
	if elapsed < 0 {
		return nil, customError.NewInvalidInput("elapsed days must not be negative")
	}

	owed := OwedAmount(terms.MonthlyRate, elapsed)

	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}

	remaining := decimal.Max(decimal.Zero, owed.Sub(paid))

	return &Balance{
		AsOf:            asOf,
		DailyRate:       DailyRate(terms.MonthlyRate),
		ElapsedDays:     elapsed,
		OwedAmount:      owed,
		PaidAmount:      paid,
		RemainingAmount: remaining,
		OverpaidAmount:  decimal.Max(decimal.Zero, paid.Sub(owed)),
		IsOngoing:       terms.IsOngoing(),
		IsFullyPaid:     !remaining.IsPositive(),
	}, nil
}
