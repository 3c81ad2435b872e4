package services

import (
	"gorm.io/gorm"

	"financehub/internal/models"
	"financehub/internal/money"
)

// balanceEffect is one signed change a ledger entry makes to an account.
// Guarded effects may not take the account below zero.
type balanceEffect struct {
	accountID string
	delta     money.Money
	guarded   bool
}

// effectsOf returns the balance effects of t. Income credits the account,
// expense debits it, and a transfer debits its source and credits its
// destination.
func effectsOf(t *models.Transaction) []balanceEffect {
	switch t.Type {
	case models.TransactionTypeIncome:
		return []balanceEffect{{accountID: t.AccountID, delta: t.Amount}}
	case models.TransactionTypeExpense:
		return []balanceEffect{{accountID: t.AccountID, delta: t.Amount.Neg()}}
	case models.TransactionTypeTransfer:
		effects := []balanceEffect{{accountID: t.AccountID, delta: t.Amount.Neg(), guarded: true}}
		if t.ToAccountID != nil {
			effects = append(effects, balanceEffect{accountID: *t.ToAccountID, delta: t.Amount})
		}
		return effects
	}
	return nil
}

// applyEffects moves balances for a newly recorded entry.
func applyEffects(tx *gorm.DB, accounts AccountServicer, t *models.Transaction) error {
	for _, e := range effectsOf(t) {
		if err := accounts.ApplyBalanceChange(tx, t.UserID, e.accountID, e.delta, e.guarded); err != nil {
			return err
		}
	}
	return nil
}

// revertEffects undoes the effects of an entry being replaced or removed.
// Reversal is never guarded: it restores a state that already existed.
func revertEffects(tx *gorm.DB, accounts AccountServicer, t *models.Transaction) error {
	for _, e := range effectsOf(t) {
		if err := accounts.ApplyBalanceChange(tx, t.UserID, e.accountID, e.delta.Neg(), false); err != nil {
			return err
		}
	}
	return nil
}
