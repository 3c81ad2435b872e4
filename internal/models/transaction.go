package models

import (
	"time"

	"financehub/internal/money"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "INCOME"
	TransactionTypeExpense  TransactionType = "EXPENSE"
	TransactionTypeTransfer TransactionType = "TRANSFER"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransfer:
		return true
	}
	return false
}

// TransactionSource records what created a ledger entry.
type TransactionSource string

const (
	TransactionSourceManual     TransactionSource = "MANUAL"
	TransactionSourceInvestment TransactionSource = "INVESTMENT"
)

// Transaction is a single ledger entry. Amount is always positive; the
// direction of its balance effect is carried by Type.
type Transaction struct {
	Base
	UserID      string            `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID   string            `gorm:"type:uuid;not null;index" json:"account_id"`
	ToAccountID *string           `gorm:"type:uuid;index" json:"to_account_id,omitempty"`
	CategoryID  *string           `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Type        TransactionType   `gorm:"not null;index" json:"type"`
	Amount      money.Money       `gorm:"type:decimal(19,2);not null" json:"amount"`
	Date        time.Time         `gorm:"not null;index" json:"date"`
	Description string            `json:"description"`
	Payee       string            `json:"payee,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	Source      TransactionSource `gorm:"not null;default:'MANUAL'" json:"source"`

	Account   *Account  `gorm:"foreignKey:AccountID" json:"-"`
	ToAccount *Account  `gorm:"foreignKey:ToAccountID" json:"-"`
	Category  *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
