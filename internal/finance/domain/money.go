package domain

import "github.com/shopspring/decimal"

// Monetary amounts are rounded to two decimal places after every arithmetic
// step, and "fully allocated" checks use a small epsilon instead of exact
// equality.
var epsilon = decimal.NewFromFloat(0.01)

func Round2(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// AmountsEqual reports whether two amounts are equal within the epsilon.
func AmountsEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(epsilon)
}
