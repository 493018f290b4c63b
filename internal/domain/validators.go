package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// MinorUnitsExp is the number of decimal places carried by stored amounts.
const MinorUnitsExp = 2

// MaxAmount is the largest amount in cents a NUMERIC(15,0) column can hold.
const MaxAmount int64 = 999_999_999_999_999

var minorFactor = decimal.New(1, MinorUnitsExp)

// ValidatePositiveAmount checks that an amount is positive (in cents).
func ValidatePositiveAmount(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive, got %d", amount)
	}
	return nil
}

// ParseAmount converts a currency amount such as 1500.25 into cents. Amounts
// with more than two decimal places or beyond MaxAmount are rejected.
func ParseAmount(d decimal.Decimal) (int64, error) {
	scaled := d.Mul(minorFactor)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", d.String(), MinorUnitsExp)
	}
	if scaled.Abs().GreaterThan(decimal.NewFromInt(MaxAmount)) {
		return 0, fmt.Errorf("amount %s is out of range", d.String())
	}
	return scaled.IntPart(), nil
}

// AddAmounts adds two amounts, saturating at the int64 bounds.
func AddAmounts(a, b int64) int64 {
	switch {
	case b > 0 && a > math.MaxInt64-b:
		return math.MaxInt64
	case b < 0 && a < math.MinInt64-b:
		return math.MinInt64
	}
	return a + b
}

// FormatAmount converts cents back into a currency amount.
func FormatAmount(cents int64) decimal.Decimal {
	return decimal.New(cents, -MinorUnitsExp)
}
