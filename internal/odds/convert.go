// Package odds turns raw bookmaker quotes into the text shown to a user.
//
// The pipeline runs in one direction:
//
//	game payload → Extract → []LineEntry → Render → text
//
// ToAmerican and Label are pure helpers used along the way. Nothing in this package keeps
// state or blocks, so every function is safe to call from concurrent selection sessions.
package odds

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/rewired-gh/oddsbot/internal/models"
)

var (
	// ErrDegenerateOdds is returned for decimal odds at or below 1.0, where the American
	// conversion divides by zero or flips sign.
	ErrDegenerateOdds = errors.New("decimal odds must be greater than 1.0")
	// ErrNotFinite is returned for NaN and infinite inputs.
	ErrNotFinite = errors.New("decimal odds must be a finite number")
	// ErrOddsOutOfRange is returned for odds whose American form would exceed ±1,000,000.
	ErrOddsOutOfRange = errors.New("decimal odds out of range")
)

// Placeholders used when a price cannot be converted.
const (
	MissingPrice    = "N/A" // price absent or null in the feed
	DegeneratePrice = "ERR" // decimal odds <= 1.0 or out of range
)

var (
	one     = decimal.NewFromInt(1)
	two     = decimal.NewFromInt(2)
	hundred = decimal.NewFromInt(100)

	minDecimal = decimal.RequireFromString("1.0001") // -1000000
	maxDecimal = decimal.NewFromInt(10001)           // +1000000
)

// DecimalToAmerican converts decimal odds to the American format.
//
// Odds of 2.0 and above become a positive "+N" where N = (d-1)*100; odds between 1.0 and 2.0
// become a negative integer -100/(d-1). Results are rounded to the nearest integer with ties
// away from zero. Odds that would convert beyond ±1,000,000 are rejected.
func DecimalToAmerican(d float64) (string, error) {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return "", ErrNotFinite
	}

	dec := decimal.NewFromFloat(d)
	if dec.LessThanOrEqual(one) {
		return "", fmt.Errorf("%w: got %s", ErrDegenerateOdds, dec.String())
	}
	if dec.LessThan(minDecimal) || dec.GreaterThan(maxDecimal) {
		return "", fmt.Errorf("%w: got %s", ErrOddsOutOfRange, dec.String())
	}

	if dec.GreaterThanOrEqual(two) {
		return "+" + dec.Sub(one).Mul(hundred).Round(0).String(), nil
	}
	return hundred.Neg().Div(dec.Sub(one)).Round(0).String(), nil
}

// ToAmerican converts a feed price to American odds for display. It never fails: values
// that are not numbers come back as their raw text, a missing price becomes MissingPrice and
// degenerate odds become DegeneratePrice.
func ToAmerican(p models.Price) string {
	if !p.Present {
		return MissingPrice
	}
	if !p.Valid {
		return p.Raw
	}
	american, err := DecimalToAmerican(p.Value)
	if err != nil {
		return DegeneratePrice
	}
	return american
}

// Label maps a market key to its display name. Unknown keys are returned unchanged.
func Label(marketKey string) string {
	switch models.KindOf(marketKey) {
	case models.KindMoneyline:
		return "Moneyline"
	case models.KindSpread:
		return "Spread"
	case models.KindTotals:
		return "Totals"
	default:
		return marketKey
	}
}
