package money

import (
	"bytes"
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Percent is a percentage with two fraction digits, e.g. 40.00 for 40%.
type Percent struct {
	d decimal.Decimal
}

// NewPercent returns an integer percentage.
func NewPercent(p int64) Percent { return Percent{d: decimal.NewFromInt(p)} }

func (p Percent) Decimal() decimal.Decimal          { return p.d }
func (p Percent) Cmp(q Percent) int                 { return p.d.Cmp(q.d) }
func (p Percent) Equal(q Percent) bool              { return p.d.Equal(q.d) }
func (p Percent) IsZero() bool                      { return p.d.IsZero() }
func (p Percent) GreaterThanOrEqual(q Percent) bool { return p.d.GreaterThanOrEqual(q.d) }
func (p Percent) String() string                    { return p.d.StringFixed(2) }
func (p Percent) MarshalJSON() ([]byte, error)      { return []byte(p.String()), nil }
func (p Percent) Value() (driver.Value, error)      { return p.d.StringFixed(2), nil }
func (Percent) GormDataType() string                { return "decimal(5,2)" }

// InRange reports whether lo <= p <= hi.
func (p Percent) InRange(lo, hi Percent) bool {
	return p.d.GreaterThanOrEqual(lo.d) && p.d.LessThanOrEqual(hi.d)
}

func (p *Percent) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || string(data) == "null" {
		*p = Percent{}
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("invalid percentage %s: %w", data, err)
	}
	p.d = d
	return nil
}

func (p *Percent) Scan(value interface{}) error {
	if value == nil {
		*p = Percent{}
		return nil
	}
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	p.d = d.Round(2)
	return nil
}
