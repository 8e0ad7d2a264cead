// Package money holds the fixed-point currency helpers. Amounts carry two
// fractional digits and are never converted to binary floating point.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const Places = 2

func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.Exponent() < -Places && !d.Equal(d.Round(Places)) {
		return decimal.Zero, fmt.Errorf("invalid amount %q: more than %d decimal places", s, Places)
	}
	return d.Round(Places), nil
}

func LineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}
