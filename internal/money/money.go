// Package money provides exact fixed-point arithmetic for currency amounts.
// Every ledger quantity (balances, transaction amounts, budget targets,
// project funding) is a Money; binary floating point is never used.
package money

import (
	"bytes"
	"database/sql/driver"
	"fmt"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Scale is the number of fraction digits amounts are stored with.
const Scale int32 = 2

var hundred = decimal.NewFromInt(100)

// Money is an exact decimal amount in major currency units.
// The zero value is 0.00.
type Money struct {
	d decimal.Decimal
}

// Zero is 0.00.
var Zero = Money{}

// Parse reads a decimal string such as "1000.00".
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Money{d: d}, nil
}

// MustParse is Parse that panics on malformed input. Intended for tests and constants.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Decimal() decimal.Decimal { return m.d }
func (m Money) Add(n Money) Money        { return Money{d: m.d.Add(n.d)} }
func (m Money) Sub(n Money) Money        { return Money{d: m.d.Sub(n.d)} }
func (m Money) Neg() Money               { return Money{d: m.d.Neg()} }
func (m Money) Cmp(n Money) int          { return m.d.Cmp(n.d) }
func (m Money) Equal(n Money) bool       { return m.d.Equal(n.d) }
func (m Money) IsZero() bool             { return m.d.IsZero() }
func (m Money) IsPositive() bool         { return m.d.IsPositive() }
func (m Money) IsNegative() bool         { return m.d.IsNegative() }
func (m Money) LessThan(n Money) bool    { return m.d.LessThan(n.d) }

func (m Money) GreaterThanOrEqual(n Money) bool { return m.d.GreaterThanOrEqual(n.d) }

// MulPercent returns m × p / 100 rounded to the storage scale.
func (m Money) MulPercent(p Percent) Money {
	return Money{d: m.d.Mul(p.d).Div(hundred).Round(Scale)}
}

// HasValidScale reports whether m has no more fraction digits than Scale.
func (m Money) HasValidScale() bool {
	return m.d.Equal(m.d.Truncate(Scale))
}

// String renders the amount with exactly Scale fraction digits.
func (m Money) String() string { return m.d.StringFixed(Scale) }

// Format renders the amount with the symbol and grouping of the given
// ISO 4217 currency, e.g. "$1,000.00". Unknown currencies fall back to String.
func (m Money) Format(currency string) string {
	cur := gomoney.GetCurrency(currency)
	if cur == nil {
		return m.String() + " " + currency
	}
	minor := m.d.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}

// IsCurrency reports whether code is a known ISO 4217 currency code.
func IsCurrency(code string) bool {
	return code != "" && gomoney.GetCurrency(code) != nil
}

// Sum adds all amounts.
func Sum(amounts ...Money) Money {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// PercentOf returns part/whole × 100 rounded half-up to two fraction digits.
// A zero whole yields a zero percentage.
func PercentOf(part, whole Money) Percent {
	if whole.IsZero() {
		return Percent{}
	}
	return Percent{d: part.d.Mul(hundred).DivRound(whole.d, 2)}
}

// MarshalJSON encodes the amount as a JSON number with two fraction digits.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = Zero
		return nil
	}
	data = bytes.Trim(data, `"`)
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", data, err)
	}
	m.d = d
	return nil
}

// Scan implements sql.Scanner. Values are rounded to the storage scale so
// that float results from SQLite aggregates compare exactly.
func (m *Money) Scan(value interface{}) error {
	if value == nil {
		*m = Zero
		return nil
	}
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	m.d = d.Round(Scale)
	return nil
}

// Value implements driver.Valuer.
func (m Money) Value() (driver.Value, error) {
	return m.d.StringFixed(Scale), nil
}

// GormDataType is the column type used when migrating Money fields.
func (Money) GormDataType() string { return "decimal(19,2)" }
