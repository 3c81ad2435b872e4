package models

import "financehub/internal/money"

// ProjectStatus tracks a project's funding lifecycle.
type ProjectStatus string

const (
	ProjectStatusPending ProjectStatus = "PENDING"
	ProjectStatusActive  ProjectStatus = "ACTIVE"
	ProjectStatusFunded  ProjectStatus = "FUNDED"
)

// Project is a fundable target. CurrentAmount only ever grows.
type Project struct {
	Base
	OwnerID       string        `gorm:"type:uuid;not null;index" json:"owner_id"`
	Title         string        `gorm:"not null" json:"title"`
	Description   string        `json:"description"`
	TargetAmount  money.Money   `gorm:"type:decimal(19,2);not null" json:"target_amount"`
	CurrentAmount money.Money   `gorm:"type:decimal(19,2);not null;default:0" json:"current_amount"`
	Status        ProjectStatus `gorm:"not null;index" json:"status"`
}

// IsFunded reports whether the project reached its target.
func (p *Project) IsFunded() bool {
	return p.CurrentAmount.GreaterThanOrEqual(p.TargetAmount)
}

// Investment records an investor's contribution to a project, drawn from
// one of the investor's accounts. Immutable once created.
type Investment struct {
	Base
	InvestorID    string      `gorm:"type:uuid;not null;index" json:"investor_id"`
	ProjectID     string      `gorm:"type:uuid;not null;index" json:"project_id"`
	AccountID     string      `gorm:"type:uuid;not null" json:"account_id"`
	TransactionID string      `gorm:"type:uuid;not null" json:"transaction_id"`
	Amount        money.Money `gorm:"type:decimal(19,2);not null" json:"amount"`

	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}
