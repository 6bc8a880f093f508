// Package money represents ledger amounts as integer minor units.
//
// Amounts are stored and summed as int64 cents so balances never drift from
// floating-point rounding. Decimal strings are only used at the edges
// (RPC messages, CLI flags) and are converted with shopspring/decimal.
package money

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for amounts that cannot be represented:
// malformed strings, NaN/Inf floats, or values outside the int64 cent range.
var ErrInvalidAmount = errors.New("invalid amount")

// Scale is the number of minor-unit digits (cents).
const Scale = 2

var maxMajor = decimal.New(math.MaxInt64, -Scale)

// Amount is a monetary value in minor units of the account currency.
type Amount int64

// Parse converts a decimal string such as "1250.50" into an Amount.
// Digits past the second decimal place are rounded half away from zero.
// Negative values parse successfully; callers decide whether the sign is allowed.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return FromDecimal(d)
}

// FromDecimal converts a decimal major-unit value into an Amount.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if d.Abs().GreaterThan(maxMajor) {
		return 0, ErrInvalidAmount
	}
	return Amount(d.Round(Scale).Shift(Scale).IntPart()), nil
}

// FromFloat converts a float major-unit value, rejecting NaN and infinities.
func FromFloat(f float64) (Amount, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidAmount
	}
	return FromDecimal(decimal.NewFromFloat(f))
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

// String formats the amount with exactly two decimals, e.g. "1000.00".
func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b Amount) Amount {
	if a > b {
		return a
	}
	return b
}

// SubFloor returns a-b floored at zero.
func SubFloor(a, b Amount) Amount {
	return Max(0, a-b)
}
