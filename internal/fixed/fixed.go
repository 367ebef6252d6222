// Package fixed is the decimal layer every monetary computation goes through.
//
// Multiplication, addition and subtraction are exact. Division keeps
// DivisionPlaces fractional digits and rounds half away from zero, so results
// are reproducible across runs and match the published figures.
package fixed

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// DivisionPlaces is the number of fractional digits kept by Div.
const DivisionPlaces = 20

// PresentationPlaces is the number of fractional digits kept for USD figures
// handed to consumers.
const PresentationPlaces = 8

// FromBig converts an unscaled on-chain integer. A nil value is zero.
func FromBig(v *big.Int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, 0)
}

// Pow10 returns 10^n.
func Pow10(n int) decimal.Decimal {
	return decimal.New(1, int32(n))
}

// Div divides a by b. The caller guarantees b is non-zero.
func Div(a, b decimal.Decimal) decimal.Decimal {
	return a.DivRound(b, DivisionPlaces)
}

// SafeDiv divides a by b and yields zero when b is zero.
func SafeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return Div(a, b)
}

// Scale converts an unscaled amount to whole units using the token's decimals.
func Scale(raw decimal.Decimal, decimals uint8) decimal.Decimal {
	return Div(raw, Pow10(int(decimals)))
}

// Floor truncates toward negative infinity at the given number of places.
func Floor(d decimal.Decimal, places int32) decimal.Decimal {
	return d.RoundFloor(places)
}

// Present floors a USD figure to PresentationPlaces.
func Present(d decimal.Decimal) decimal.Decimal {
	return Floor(d, PresentationPlaces)
}

// Parse reads a decimal string as returned by the subgraph. Empty input is zero.
func Parse(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return d, nil
}
