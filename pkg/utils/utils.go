package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// Code prefixes for generated human-readable identifiers.
const (
	SpaceCodePrefix  = "PS"
	RentalCodePrefix = "RN"
)

// GenerateCode returns the next sequential code after existing rows,
// zero-padded to four digits: GenerateCode("RN", 41) == "RN-0042".
func GenerateCode(prefix string, existing int) string {
	if existing < 0 {
		existing = 0
	}
	return fmt.Sprintf("%s-%04d", prefix, existing+1)
}

// DateOnly strips the clock from t, keeping its calendar day in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

// ParseOptionalDate returns nil for an empty string.
func ParseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CurrencyScale is the number of decimal places money is stored with.
const CurrencyScale = 2

// HasCurrencyScale reports whether d fits CurrencyScale without rounding.
// Trailing zeros are fine: 10.000 fits, 10.004 does not.
func HasCurrencyScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(CurrencyScale))
}

// FormatCurrencyAmount renders an amount with two decimals and its currency code.
func FormatCurrencyAmount(amount decimal.Decimal, currencyCode string) string {
	return fmt.Sprintf("%s %s", amount.StringFixed(2), strings.ToUpper(currencyCode))
}

// DecimalFromString converts string to decimal.Decimal
func DecimalFromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}
