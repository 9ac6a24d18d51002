package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/parking-billing/pkg/billing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTenantContext_Permissions(t *testing.T) {
	company := uuid.New()

	tests := []struct {
		role     string
		valid    bool
		canRead  bool
		canWrite bool
	}{
		{RoleSuperAdmin, true, true, true},
		{RoleAdmin, true, true, true},
		{RoleManager, true, true, true},
		{RoleViewer, true, true, false},
		{"accountant", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			tenant := NewTenantContext(company, uuid.New(), tt.role)
			assert.Equal(t, tt.valid, tenant.IsValid())
			assert.Equal(t, tt.canRead, tenant.CanRead())
			assert.Equal(t, tt.canWrite, tenant.CanWrite())
		})
	}

	assert.False(t, NewTenantContext(uuid.Nil, uuid.New(), RoleAdmin).IsValid())
}

func TestPaymentMethod_IsValid(t *testing.T) {
	for _, m := range []PaymentMethod{
		PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCreditCard,
		PaymentMethodDebitCard, PaymentMethodMobilePayment, PaymentMethodCheck, PaymentMethodOther,
	} {
		assert.True(t, m.IsValid(), m)
	}
	assert.False(t, PaymentMethod("crypto").IsValid())
	assert.False(t, PaymentMethod("").IsValid())
}

func TestRental_BalanceAsOf(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	active := &Rental{StartDate: start, Status: RentalStatusActive}
	assert.Equal(t, now, active.BalanceAsOf(now))

	ended := &Rental{StartDate: start, EndDate: &end, Status: RentalStatusEnded}
	assert.Equal(t, end, ended.BalanceAsOf(now))
}

func TestOutstandingReport_Add(t *testing.T) {
	report := &OutstandingReport{CompanyID: uuid.New()}

	report.Add(&RentalBalance{Currency: "USD", Balance: billing.Balance{
		OwedAmount: decimal.NewFromInt(100), PaidAmount: decimal.NewFromInt(60), RemainingAmount: decimal.NewFromInt(40),
	}})
	report.Add(&RentalBalance{Currency: "USD", Balance: billing.Balance{
		OwedAmount: decimal.NewFromInt(300), PaidAmount: decimal.NewFromInt(300), RemainingAmount: decimal.Zero, IsFullyPaid: true,
	}})
	report.Add(&RentalBalance{Currency: "EUR", Balance: billing.Balance{
		OwedAmount: decimal.NewFromInt(50), PaidAmount: decimal.Zero, RemainingAmount: decimal.NewFromInt(50),
	}})

	assert.Len(t, report.Balances, 3)
	assert.Len(t, report.Totals, 2)

	usd := report.Totals[0]
	assert.Equal(t, "USD", usd.Currency)
	assert.Equal(t, 2, usd.Rentals)
	assert.Equal(t, 1, usd.UnpaidRentals)
	assert.True(t, usd.OwedAmount.Equal(decimal.NewFromInt(400)))
	assert.True(t, usd.PaidAmount.Equal(decimal.NewFromInt(360)))
	assert.True(t, usd.RemainingAmount.Equal(decimal.NewFromInt(40)))

	eur := report.Totals[1]
	assert.Equal(t, 1, eur.UnpaidRentals)
	assert.True(t, eur.RemainingAmount.Equal(decimal.NewFromInt(50)))
}
