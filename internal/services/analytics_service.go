package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"financehub/internal/config"
	apperrors "financehub/internal/errors"
	"financehub/internal/models"
	"financehub/internal/money"
)

// UncategorizedName labels expenses without a category.
const UncategorizedName = "Uncategorized"

// dashboardWindowDays is how far back the dashboard summary looks.
const dashboardWindowDays = 30

// analyticsService computes read-only aggregates straight from the ledger.
type analyticsService struct {
	ledger *LedgerStore
}

// NewAnalyticsService creates a new AnalyticsServicer.
func NewAnalyticsService(db *gorm.DB) AnalyticsServicer {
	return &analyticsService{ledger: NewLedgerStore(db)}
}

// normalizeRange fills an unset range with the current month to date and
// rejects a range that ends before it starts.
func normalizeRange(r DateRange) (DateRange, error) {
	now := today()
	if r.Start.IsZero() {
		r.Start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	if r.End.IsZero() {
		r.End = now
	}
	r.Start = models.DateOnly(r.Start)
	r.End = models.DateOnly(r.End)
	if r.Start.After(r.End) {
		return r, apperrors.WithMessage(apperrors.ErrInvalidInput, "start date must not be after end date")
	}
	return r, nil
}

// GetFinancialSummary totals income and expenses over the range.
func (s *analyticsService) GetFinancialSummary(ctx context.Context, ownerID string, r DateRange) (*FinancialSummary, error) {
	r, err := normalizeRange(r)
	if err != nil {
		return nil, err
	}

	income, err := s.ledger.SumByType(ctx, ownerID, models.TransactionTypeIncome, &r)
	if err != nil {
		return nil, err
	}
	expenses, err := s.ledger.SumByType(ctx, ownerID, models.TransactionTypeExpense, &r)
	if err != nil {
		return nil, err
	}

	return &FinancialSummary{
		TotalIncome:   income,
		TotalExpenses: expenses,
		NetBalance:    income.Sub(expenses),
		Currency:      config.Get().Ledger.DefaultCurrency,
		StartDate:     r.Start,
		EndDate:       r.End,
	}, nil
}

// GetExpensesByCategory breaks the range's expenses down by category.
func (s *analyticsService) GetExpensesByCategory(ctx context.Context, ownerID string, r DateRange) ([]CategoryExpense, error) {
	r, err := normalizeRange(r)
	if err != nil {
		return nil, err
	}

	rows, err := s.ledger.SumExpensesByCategory(ctx, ownerID, r)
	if err != nil {
		return nil, err
	}

	amounts := make([]money.Money, len(rows))
	for i, row := range rows {
		amounts[i] = row.Amount
	}
	total := money.Sum(amounts...)

	result := make([]CategoryExpense, 0, len(rows))
	if total.IsZero() {
		return result, nil
	}
	for _, row := range rows {
		name := row.CategoryName
		if row.CategoryID == nil || name == "" {
			name = UncategorizedName
		}
		result = append(result, CategoryExpense{
			CategoryID:   row.CategoryID,
			CategoryName: name,
			Amount:       row.Amount,
			Percentage:   money.PercentOf(row.Amount, total),
		})
	}
	return result, nil
}

// GetMonthlyTrends returns income, expenses and net per calendar month in
// ascending order. Months without entries are omitted.
func (s *analyticsService) GetMonthlyTrends(ctx context.Context, ownerID string, r DateRange) ([]MonthlyTrend, error) {
	r, err := normalizeRange(r)
	if err != nil {
		return nil, err
	}

	rows, err := s.ledger.MonthlyTotals(ctx, ownerID, r)
	if err != nil {
		return nil, err
	}

	trends := make([]MonthlyTrend, 0, len(rows))
	index := make(map[string]int)
	for _, row := range rows {
		i, ok := index[row.Month]
		if !ok {
			i = len(trends)
			index[row.Month] = i
			trends = append(trends, MonthlyTrend{Month: row.Month})
		}
		switch row.Type {
		case models.TransactionTypeIncome:
			trends[i].Income = trends[i].Income.Add(row.Amount)
		case models.TransactionTypeExpense:
			trends[i].Expenses = trends[i].Expenses.Add(row.Amount)
		}
	}
	for i := range trends {
		trends[i].Net = trends[i].Income.Sub(trends[i].Expenses)
	}
	return trends, nil
}

// GetCashFlow derives the opening balance by backing the range's net flow
// out of the current total balance.
func (s *analyticsService) GetCashFlow(ctx context.Context, ownerID string, r DateRange) (*CashFlow, error) {
	r, err := normalizeRange(r)
	if err != nil {
		return nil, err
	}

	inflows, err := s.ledger.SumByType(ctx, ownerID, models.TransactionTypeIncome, &r)
	if err != nil {
		return nil, err
	}
	outflows, err := s.ledger.SumByType(ctx, ownerID, models.TransactionTypeExpense, &r)
	if err != nil {
		return nil, err
	}
	closing, err := s.ledger.TotalBalance(ctx, ownerID, true)
	if err != nil {
		return nil, err
	}

	net := inflows.Sub(outflows)
	return &CashFlow{
		OpeningBalance: closing.Sub(net),
		TotalInflows:   inflows,
		TotalOutflows:  outflows,
		NetCashFlow:    net,
		ClosingBalance: closing,
		StartDate:      r.Start,
		EndDate:        r.End,
	}, nil
}

// GetDashboard summarizes the last thirty days.
func (s *analyticsService) GetDashboard(ctx context.Context, ownerID string) (*FinancialSummary, error) {
	end := today()
	return s.GetFinancialSummary(ctx, ownerID, DateRange{
		Start: end.AddDate(0, 0, -dashboardWindowDays),
		End:   end,
	})
}
