package decimal

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Zero is decimal zero
var Zero = decimal.Zero

var hundred = decimal.NewFromInt(100)

// ParseComma parses a number written with a decimal comma ("1 234,50").
// A dot separator is accepted as well.
func ParseComma(s string) (decimal.Decimal, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\t':
			return -1
		}
		return r
	}, s)
	return decimal.NewFromString(strings.Replace(s, ",", ".", 1))
}

// FormatComma renders d with exactly places fractional digits and a decimal comma.
// The result never uses scientific notation.
func FormatComma(d decimal.Decimal, places int32) string {
	return strings.Replace(d.StringFixed(places), ".", ",", 1)
}

// Round rounds half away from zero to places
func Round(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}

// ApplyDiscount returns price reduced by discountPercent
func ApplyDiscount(price, discountPercent decimal.Decimal) decimal.Decimal {
	if discountPercent.IsZero() {
		return price
	}
	return price.Mul(decimal.NewFromInt(1).Sub(discountPercent.Div(hundred)))
}

// CalculatePercentage computes: amount * (percentage/100), rounded to places
func CalculatePercentage(amount, percentage decimal.Decimal, places int32) decimal.Decimal {
	return amount.Mul(percentage).Div(hundred).Round(places)
}

// IsNegative returns true if decimal is less than zero
func IsNegative(d decimal.Decimal) bool {
	return d.LessThan(Zero)
}
