package models

import (
	"time"

	"financehub/internal/money"
)

// BudgetPeriod labels the cadence a budget was planned for. The effective
// window is always StartDate..EndDate.
type BudgetPeriod string

const (
	BudgetPeriodWeekly    BudgetPeriod = "WEEKLY"
	BudgetPeriodMonthly   BudgetPeriod = "MONTHLY"
	BudgetPeriodQuarterly BudgetPeriod = "QUARTERLY"
	BudgetPeriodYearly    BudgetPeriod = "YEARLY"
	BudgetPeriodCustom    BudgetPeriod = "CUSTOM"
)

// Valid reports whether p is a known budget period.
func (p BudgetPeriod) Valid() bool {
	switch p {
	case BudgetPeriodWeekly, BudgetPeriodMonthly, BudgetPeriodQuarterly, BudgetPeriodYearly, BudgetPeriodCustom:
		return true
	}
	return false
}

// DefaultAlertThreshold is the spent percentage at which a budget alerts
// when none is given.
const DefaultAlertThreshold = 80

// Budget caps expenses over a date window, optionally for one category.
// Spent holds the value computed by the most recent evaluation and must be
// recomputed before use.
type Budget struct {
	Base
	UserID         string        `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID     *string       `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Name           string        `gorm:"not null" json:"name"`
	Description    string        `json:"description,omitempty"`
	Amount         money.Money   `gorm:"type:decimal(19,2);not null" json:"amount"`
	Spent          money.Money   `gorm:"type:decimal(19,2);not null;default:0" json:"spent"`
	Period         BudgetPeriod  `gorm:"not null" json:"period"`
	StartDate      time.Time     `gorm:"not null" json:"start_date"`
	EndDate        time.Time     `gorm:"not null" json:"end_date"`
	AlertThreshold money.Percent `gorm:"type:decimal(5,2);not null" json:"alert_threshold"`
	IsActive       bool          `gorm:"not null;default:true" json:"is_active"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
