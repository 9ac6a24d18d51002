package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CurrencyTotals aggregates balances of rentals billed in one currency.
type CurrencyTotals struct {
	Currency        string          `json:"currency"`
	Rentals         int             `json:"rentals"`
	UnpaidRentals   int             `json:"unpaid_rentals"`
	OwedAmount      decimal.Decimal `json:"owed_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
}

// OutstandingReport summarises the active rentals of one company.
type OutstandingReport struct {
	CompanyID uuid.UUID         `json:"company_id"`
	AsOf      time.Time         `json:"as_of"`
	Totals    []*CurrencyTotals `json:"totals"`
	Balances  []*RentalBalance  `json:"balances"`
}

// Add folds a rental balance into the per-currency totals.
func (r *OutstandingReport) Add(b *RentalBalance) {
	r.Balances = append(r.Balances, b)

	var totals *CurrencyTotals
	for _, t := range r.Totals {
		if t.Currency == b.Currency {
			totals = t
			break
		}
	}
	if totals == nil {
		totals = &CurrencyTotals{
			Currency:        b.Currency,
			OwedAmount:      decimal.Zero,
			PaidAmount:      decimal.Zero,
			RemainingAmount: decimal.Zero,
		}
		r.Totals = append(r.Totals, totals)
	}

	totals.Rentals++
	if !b.IsFullyPaid {
		totals.UnpaidRentals++
	}
	totals.OwedAmount = totals.OwedAmount.Add(b.OwedAmount)
	totals.PaidAmount = totals.PaidAmount.Add(b.PaidAmount)
	totals.RemainingAmount = totals.RemainingAmount.Add(b.RemainingAmount)
}
