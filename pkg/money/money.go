// Package money converts user-entered currency amounts into integer
// minor-units (cents) and validates them against a configured minimum.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount means the input could not be parsed as a
	// non-negative decimal currency value.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrBelowMinimum means the parsed amount is under the required floor.
	ErrBelowMinimum = errors.New("amount below minimum")
)

var hundred = decimal.NewFromInt(100)

// Normalize parses raw as a decimal currency value and converts it to
// integer cents, rounding half-up. It fails with ErrInvalidAmount on
// unparseable or negative input and with ErrBelowMinimum when the result is
// under minimumCents. Pure; no side effects.
func Normalize(raw string, minimumCents int64) (int64, error) {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.IsNegative() {
		return 0, ErrInvalidAmount
	}
	cents := d.Mul(hundred).Round(0).IntPart()
	if cents < minimumCents {
		return 0, ErrBelowMinimum
	}
	return cents, nil
}

// CheckMinimum validates an already-normalized cents amount against a floor.
func CheckMinimum(cents, minimumCents int64) error {
	if cents < 0 {
		return ErrInvalidAmount
	}
	if cents < minimumCents {
		return ErrBelowMinimum
	}
	return nil
}
