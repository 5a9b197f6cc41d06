// Package core holds the domain model of the ledger: transaction,
// category and bucket records with validating constructors, the
// type-effect table, and exact money arithmetic.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount with two fractional digits. It is
// never a float; arithmetic and comparisons go through decimal so
// balances cannot drift. The zero value is 0.00.
type Money struct {
	d decimal.Decimal
}

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount parses a user-supplied amount string. Both dot and
// comma decimal separators are accepted. The value must be strictly
// positive with at most two fractional digits.
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.Exponent() < -2 {
		return Money{}, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	return Money{d: d}, nil
}

// FromCents converts an integer cent count, the store representation,
// into Money.
func FromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -2)}
}

// Cents returns the amount as integer cents for storage.
func (m Money) Cents() int64 {
	return m.d.Shift(2).IntPart()
}

func (m Money) Add(o Money) Money {
	return Money{d: m.d.Add(o.d)}
}

func (m Money) Sub(o Money) Money {
	return Money{d: m.d.Sub(o.d)}
}

// MulSign scales the amount by a signed unit multiplier from the
// type-effect table (-1, 0 or +1).
func (m Money) MulSign(sign int) Money {
	return Money{d: m.d.Mul(decimal.NewFromInt(int64(sign)))}
}

// Cmp compares two amounts: -1 if m < o, 0 if equal, +1 if m > o.
func (m Money) Cmp(o Money) int {
	return m.d.Cmp(o.d)
}

func (m Money) Equal(o Money) bool {
	return m.d.Equal(o.d)
}

func (m Money) IsPositive() bool {
	return m.d.IsPositive()
}

func (m Money) IsNegative() bool {
	return m.d.IsNegative()
}

func (m Money) IsZero() bool {
	return m.d.IsZero()
}

// String formats the amount with exactly two fractional digits.
func (m Money) String() string {
	return m.d.StringFixed(2)
}

// MarshalJSON encodes money as a fixed two-digit decimal string so
// clients never receive binary floating point.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	d, err := decimal.NewFromString(strings.Trim(string(b), `"`))
	if err != nil {
		return ErrInvalidAmount
	}
	m.d = d
	return nil
}
