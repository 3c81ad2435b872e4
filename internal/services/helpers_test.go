package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"financehub/internal/events"
	"financehub/internal/models"
	"financehub/internal/money"
	"financehub/internal/testutil"
)

// ledgerFixture wires the ledger services over one test database.
type ledgerFixture struct {
	db           *gorm.DB
	accounts     AccountServicer
	budgets      BudgetServicer
	transactions TransactionServicer
	investments  InvestmentServicer
	recorder     *events.Recorder
	user         *models.User
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	recorder := &events.Recorder{}
	accounts := NewAccountService(db)
	budgets := NewBudgetService(db)
	return &ledgerFixture{
		db:           db,
		accounts:     accounts,
		budgets:      budgets,
		transactions: NewTransactionService(db, accounts, budgets, recorder),
		investments:  NewInvestmentService(db, accounts, recorder),
		recorder:     recorder,
		user:         testutil.CreateTestUser(t, db),
	}
}

func (f *ledgerFixture) balance(t *testing.T, accountID string) money.Money {
	t.Helper()
	return testutil.ReloadAccount(t, f.db, accountID).Balance
}

func daysAgo(n int) time.Time {
	return testutil.Today().AddDate(0, 0, -n)
}

func entry(txType models.TransactionType, accountID, amount string) TransactionInput {
	return TransactionInput{
		AccountID:   accountID,
		Type:        txType,
		Amount:      money.MustParse(amount),
		Date:        testutil.Today(),
		Description: string(txType) + " " + amount,
	}
}

func transfer(fromID, toID, amount string) TransactionInput {
	in := entry(models.TransactionTypeTransfer, fromID, amount)
	in.ToAccountID = &toID
	return in
}

func strPtr(s string) *string { return &s }
