package services

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "financehub/internal/errors"
	"financehub/internal/models"
	"financehub/internal/money"
)

// LedgerStore runs the aggregate queries over live ledger entries that
// budgets, analytics and reconciliation share. Soft-deleted entries never
// contribute to a sum.
type LedgerStore struct {
	db *gorm.DB
}

// NewLedgerStore creates a LedgerStore over db.
func NewLedgerStore(db *gorm.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// CategoryTotal is the expense total of one category.
type CategoryTotal struct {
	CategoryID   *string
	CategoryName string
	Amount       money.Money
}

// MonthTotal is the total of one transaction type within a calendar month.
type MonthTotal struct {
	Month  string
	Type   models.TransactionType
	Amount money.Money
}

func (l *LedgerStore) entries(ctx context.Context, ownerID string) *gorm.DB {
	return l.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", ownerID)
}

func withinRange(q *gorm.DB, column string, r *DateRange) *gorm.DB {
	if r == nil {
		return q
	}
	return q.Where(column+" >= ? AND "+column+" <= ?", models.DateOnly(r.Start), models.DateOnly(r.End))
}

// SQLite keeps decimal columns as binary floats, so every statement that
// adds to or sums a money column rounds back to two fraction digits. On
// PostgreSQL the rounding is exact and changes nothing.

// addMoney renders column + delta rounded to the money scale.
func addMoney(column string, delta money.Money) clause.Expr {
	return gorm.Expr("ROUND("+column+" + CAST(? AS NUMERIC), 2)", delta)
}

// sumMoney renders a rounded SUM of expr that is zero over no rows.
func sumMoney(expr string) string {
	return "COALESCE(ROUND(SUM(" + expr + "), 2), 0)"
}

func scanSum(q *gorm.DB, expr string, args ...interface{}) (money.Money, error) {
	var total money.Money
	if err := q.Select(expr, args...).Row().Scan(&total); err != nil {
		return money.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return total, nil
}

// SumByType totals the owner's entries of one type, optionally within r.
func (l *LedgerStore) SumByType(ctx context.Context, ownerID string, t models.TransactionType, r *DateRange) (money.Money, error) {
	q := withinRange(l.entries(ctx, ownerID).Where("type = ?", t), "date", r)
	return scanSum(q, sumMoney("amount"))
}

// SumExpenses totals the owner's expenses dated within start..end inclusive.
// A nil categoryID sums expenses across all categories.
func (l *LedgerStore) SumExpenses(ctx context.Context, ownerID string, categoryID *string, start, end time.Time) (money.Money, error) {
	q := l.entries(ctx, ownerID).Where("type = ?", models.TransactionTypeExpense)
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}
	q = withinRange(q, "date", &DateRange{Start: start, End: end})
	return scanSum(q, sumMoney("amount"))
}

// SumExpensesByCategory groups the owner's expenses within r by category,
// largest first. Uncategorized expenses form one group with a nil id.
func (l *LedgerStore) SumExpensesByCategory(ctx context.Context, ownerID string, r DateRange) ([]CategoryTotal, error) {
	var rows []CategoryTotal
	q := l.db.WithContext(ctx).Table("transactions t").
		Select("t.category_id AS category_id, COALESCE(c.name, '') AS category_name, "+sumMoney("t.amount")+" AS amount").
		Joins("LEFT JOIN categories c ON c.id = t.category_id").
		Where("t.user_id = ? AND t.type = ? AND t.deleted_at IS NULL", ownerID, models.TransactionTypeExpense)
	q = withinRange(q, "t.date", &r)
	if err := q.Group("t.category_id, c.name").Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if c := rows[i].Amount.Cmp(rows[j].Amount); c != 0 {
			return c > 0
		}
		return rows[i].CategoryName < rows[j].CategoryName
	})
	return rows, nil
}

// MonthlyTotals returns per-month income and expense totals within r,
// ordered by month. Months without entries are absent.
func (l *LedgerStore) MonthlyTotals(ctx context.Context, ownerID string, r DateRange) ([]MonthTotal, error) {
	month := l.monthExpr()
	var rows []MonthTotal
	q := l.entries(ctx, ownerID).
		Select(month + " AS month, type, " + sumMoney("amount") + " AS amount").
		Where("type IN ?", []models.TransactionType{models.TransactionTypeIncome, models.TransactionTypeExpense})
	q = withinRange(q, "date", &r)
	if err := q.Group(month + ", type").Order("month").Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rows, nil
}

// monthExpr renders the YYYY-MM bucket of the date column for the active dialect.
func (l *LedgerStore) monthExpr() string {
	if l.db.Dialector.Name() == "sqlite" {
		return "strftime('%Y-%m', date)"
	}
	return "to_char(date AT TIME ZONE 'UTC', 'YYYY-MM')"
}

// TotalBalance sums the owner's account balances. Inactive accounts are
// included only when includeInactive is set.
func (l *LedgerStore) TotalBalance(ctx context.Context, ownerID string, includeInactive bool) (money.Money, error) {
	q := l.db.WithContext(ctx).Model(&models.Account{}).Where("user_id = ?", ownerID)
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	return scanSum(q, sumMoney("balance"))
}

// AccountNetChange is the signed sum of every live entry's effect on the
// account: income adds, expense subtracts, and a transfer subtracts from
// its source and adds to its destination.
func (l *LedgerStore) AccountNetChange(ctx context.Context, accountID string) (money.Money, error) {
	q := l.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("account_id = ? OR to_account_id = ?", accountID, accountID)
	return scanSum(q, sumMoney(`CASE
		WHEN type = ? AND account_id = ? THEN amount
		WHEN type = ? AND account_id = ? THEN -amount
		WHEN type = ? AND account_id = ? THEN -amount
		WHEN type = ? AND to_account_id = ? THEN amount
		ELSE 0 END`),
		models.TransactionTypeIncome, accountID,
		models.TransactionTypeExpense, accountID,
		models.TransactionTypeTransfer, accountID,
		models.TransactionTypeTransfer, accountID,
	)
}
