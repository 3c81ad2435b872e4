package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "financehub/internal/errors"
	"financehub/internal/logger"
	"financehub/internal/models"
	"financehub/internal/money"
	"financehub/internal/pagination"
)

var (
	minAlertThreshold = money.NewPercent(0)
	maxAlertThreshold = money.NewPercent(100)
)

// budgetService handles budget-related business logic. Spent is always
// derived from the ledger when a budget is read.
type budgetService struct {
	db     *gorm.DB
	ledger *LedgerStore
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db, ledger: NewLedgerStore(db)}
}

// periodEnd returns the last day of a period starting on start.
func periodEnd(start time.Time, period models.BudgetPeriod) time.Time {
	switch period {
	case models.BudgetPeriodWeekly:
		return start.AddDate(0, 0, 6)
	case models.BudgetPeriodQuarterly:
		return start.AddDate(0, 3, -1)
	case models.BudgetPeriodYearly:
		return start.AddDate(1, 0, -1)
	default:
		return start.AddDate(0, 1, -1)
	}
}

// validateBudget checks a budget's values before it is written.
func validateBudget(b *models.Budget) error {
	if strings.TrimSpace(b.Name) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name is required")
	}
	if !b.Amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "budget amount must be greater than zero")
	}
	if !b.Amount.HasValidScale() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "budget amount has more than two decimal places")
	}
	if !b.Period.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported budget period")
	}
	if b.StartDate.After(b.EndDate) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "start date must not be after end date")
	}
	if !b.AlertThreshold.InRange(minAlertThreshold, maxAlertThreshold) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "alert threshold must be between 0 and 100")
	}
	return nil
}

// resolveBudgetCategory checks that a budget's category is a visible
// expense category.
func resolveBudgetCategory(db *gorm.DB, ownerID string, categoryID *string) (*models.Category, error) {
	if categoryID == nil {
		return nil, nil
	}
	category, err := findCategory(db, ownerID, *categoryID)
	if err != nil {
		return nil, err
	}
	if category.Type != models.CategoryTypeExpense {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budgets can only track expense categories")
	}
	return category, nil
}

// evaluate recomputes spent and the values derived from it.
func (s *budgetService) evaluate(ctx context.Context, b models.Budget) (BudgetStatus, error) {
	spent, err := s.ledger.SumExpenses(ctx, b.UserID, b.CategoryID, b.StartDate, b.EndDate)
	if err != nil {
		return BudgetStatus{}, err
	}
	b.Spent = spent

	pct := money.PercentOf(spent, b.Amount)
	return BudgetStatus{
		Budget:          b,
		Remaining:       b.Amount.Sub(spent),
		SpentPercentage: pct,
		AlertTriggered:  pct.GreaterThanOrEqual(b.AlertThreshold),
	}, nil
}

func (s *budgetService) evaluateAll(ctx context.Context, budgets []models.Budget) ([]BudgetStatus, error) {
	statuses := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		st, err := s.evaluate(ctx, b)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// CreateBudget creates a budget. A missing start date means today and a
// missing end date is derived from the period.
func (s *budgetService) CreateBudget(ctx context.Context, ownerID string, in BudgetInput) (*BudgetStatus, error) {
	if in.Period == "" {
		in.Period = models.BudgetPeriodMonthly
	}
	start := in.StartDate
	if start.IsZero() {
		start = today()
	}
	start = models.DateOnly(start)

	end := in.EndDate
	if end.IsZero() {
		if in.Period == models.BudgetPeriodCustom {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "custom budgets require an end date")
		}
		end = periodEnd(start, in.Period)
	}

	threshold := money.NewPercent(models.DefaultAlertThreshold)
	if in.AlertThreshold != nil {
		threshold = *in.AlertThreshold
	}

	budget := models.Budget{
		UserID:         ownerID,
		CategoryID:     in.CategoryID,
		Name:           strings.TrimSpace(in.Name),
		Description:    in.Description,
		Amount:         in.Amount,
		Period:         in.Period,
		StartDate:      start,
		EndDate:        models.DateOnly(end),
		AlertThreshold: threshold,
		IsActive:       true,
	}
	if err := validateBudget(&budget); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	category, err := resolveBudgetCategory(db, ownerID, budget.CategoryID)
	if err != nil {
		return nil, err
	}

	status, err := s.evaluate(ctx, budget)
	if err != nil {
		return nil, err
	}
	budget.Spent = status.Spent

	if err := db.Create(&budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	budget.Category = category
	status.Budget = budget

	logger.Get().Infow("budget created", "budget_id", budget.ID, "user_id", ownerID, "amount", budget.Amount.String())
	return &status, nil
}

func (s *budgetService) findBudget(db *gorm.DB, ownerID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := db.Preload("Category").
		Where("id = ? AND user_id = ?", budgetID, ownerID).
		First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// GetBudgetByID retrieves a budget with freshly computed spending.
func (s *budgetService) GetBudgetByID(ctx context.Context, ownerID, budgetID string) (*BudgetStatus, error) {
	budget, err := s.findBudget(s.db.WithContext(ctx), ownerID, budgetID)
	if err != nil {
		return nil, err
	}
	status, err := s.evaluate(ctx, *budget)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// GetUserBudgets retrieves a paginated list of budgets for a user.
func (s *budgetService) GetUserBudgets(ctx context.Context, ownerID string, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[BudgetStatus], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Budget{}).Where("user_id = ?", ownerID)
	if isActive != nil {
		base = base.Where("is_active = ?", *isActive)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Preload("Category").
		Order("start_date DESC, created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	statuses, err := s.evaluateAll(ctx, budgets)
	if err != nil {
		return nil, err
	}

	result := pagination.NewPageResponse(statuses, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetActiveBudgets returns the active budgets whose window contains on.
func (s *budgetService) GetActiveBudgets(ctx context.Context, ownerID string, on time.Time) ([]BudgetStatus, error) {
	day := models.DateOnly(on)
	var budgets []models.Budget
	if err := s.db.WithContext(ctx).Preload("Category").
		Where("user_id = ? AND is_active = ? AND start_date <= ? AND end_date >= ?", ownerID, true, day, day).
		Order("start_date ASC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.evaluateAll(ctx, budgets)
}

// GetTriggeredAlerts returns the active budgets whose spending reached
// their alert threshold.
func (s *budgetService) GetTriggeredAlerts(ctx context.Context, ownerID string) ([]BudgetStatus, error) {
	var budgets []models.Budget
	if err := s.db.WithContext(ctx).Preload("Category").
		Where("user_id = ? AND is_active = ?", ownerID, true).
		Order("start_date ASC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	statuses, err := s.evaluateAll(ctx, budgets)
	if err != nil {
		return nil, err
	}

	triggered := make([]BudgetStatus, 0, len(statuses))
	for _, st := range statuses {
		if st.AlertTriggered {
			triggered = append(triggered, st)
		}
	}
	return triggered, nil
}

// BudgetsAffectedBy returns the active budgets an expense in categoryID on
// date counts against: overall budgets plus those scoped to the category.
func (s *budgetService) BudgetsAffectedBy(ctx context.Context, ownerID string, categoryID *string, date time.Time) ([]BudgetStatus, error) {
	day := models.DateOnly(date)
	q := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND start_date <= ? AND end_date >= ?", ownerID, true, day, day)
	if categoryID != nil {
		q = q.Where("category_id IS NULL OR category_id = ?", *categoryID)
	} else {
		q = q.Where("category_id IS NULL")
	}

	var budgets []models.Budget
	if err := q.Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.evaluateAll(ctx, budgets)
}

// UpdateBudget applies a partial update and stores a fresh spent snapshot.
func (s *budgetService) UpdateBudget(ctx context.Context, ownerID, budgetID string, in BudgetUpdate) (*BudgetStatus, error) {
	db := s.db.WithContext(ctx)
	budget, err := s.findBudget(db, ownerID, budgetID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		budget.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		budget.Description = *in.Description
	}
	if in.Amount != nil {
		budget.Amount = *in.Amount
	}
	if in.Period != nil {
		budget.Period = *in.Period
	}
	if in.StartDate != nil {
		budget.StartDate = models.DateOnly(*in.StartDate)
	}
	if in.EndDate != nil {
		budget.EndDate = models.DateOnly(*in.EndDate)
	}
	if in.AlertThreshold != nil {
		budget.AlertThreshold = *in.AlertThreshold
	}
	if in.IsActive != nil {
		budget.IsActive = *in.IsActive
	}
	switch {
	case in.ClearCategory:
		budget.CategoryID = nil
		budget.Category = nil
	case in.CategoryID != nil:
		category, err := resolveBudgetCategory(db, ownerID, in.CategoryID)
		if err != nil {
			return nil, err
		}
		budget.CategoryID = in.CategoryID
		budget.Category = category
	}

	if err := validateBudget(budget); err != nil {
		return nil, err
	}

	status, err := s.evaluate(ctx, *budget)
	if err != nil {
		return nil, err
	}
	budget.Spent = status.Spent

	if err := db.Omit("Category").Save(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	status.Budget = *budget

	return &status, nil
}

// DeleteBudget soft-deletes a budget.
func (s *budgetService) DeleteBudget(ctx context.Context, ownerID, budgetID string) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", budgetID, ownerID).Delete(&models.Budget{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrBudgetNotFound
	}
	return nil
}
