package models

import "financehub/internal/money"

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeChecking   AccountType = "CHECKING"
	AccountTypeSavings    AccountType = "SAVINGS"
	AccountTypeCreditCard AccountType = "CREDIT_CARD"
	AccountTypeInvestment AccountType = "INVESTMENT"
	AccountTypeCash       AccountType = "CASH"
	AccountTypeLoan       AccountType = "LOAN"
	AccountTypeOther      AccountType = "OTHER"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeCreditCard, AccountTypeInvestment,
		AccountTypeCash, AccountTypeLoan, AccountTypeOther:
		return true
	}
	return false
}

// Account is a balance-holding account owned by a user. Balance is a
// projection of OpeningBalance plus the signed effects of every live
// transaction against the account.
type Account struct {
	Base
	UserID         string      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name           string      `gorm:"not null" json:"name"`
	Type           AccountType `gorm:"not null" json:"type"`
	Description    string      `json:"description"`
	Balance        money.Money `gorm:"type:decimal(19,2);not null;default:0" json:"balance"`
	OpeningBalance money.Money `gorm:"type:decimal(19,2);not null;default:0" json:"opening_balance"`
	Currency       string      `gorm:"size:3;not null;default:'USD'" json:"currency"`
	IsActive       bool        `gorm:"not null;default:true" json:"is_active"`

	Transactions []Transaction `gorm:"foreignKey:AccountID" json:"-"`
}
