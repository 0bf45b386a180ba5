package shared

import "github.com/shopspring/decimal"

// DefaultCurrency is used when a document does not name one
const DefaultCurrency = "PHP"

var hundred = decimal.NewFromInt(100)

// Percentage returns numerator/denominator*100 rounded to 2 places, or zero when
// the denominator is zero.
func Percentage(numerator, denominator decimal.Decimal) decimal.Decimal {
	if denominator.IsZero() {
		return decimal.Zero
	}
	return numerator.Div(denominator).Mul(hundred).Round(2)
}

// WithinTolerance reports whether |a-b| <= tolerance
func WithinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}
