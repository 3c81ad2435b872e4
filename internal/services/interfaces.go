package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"financehub/internal/models"
	"financehub/internal/money"
	"financehub/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(ctx context.Context, email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(ctx context.Context, email, password string) (*models.User, error)
}

// AccountInput carries the fields needed to open an account.
type AccountInput struct {
	Name           string
	Type           models.AccountType
	Description    string
	Currency       string
	OpeningBalance money.Money
}

// AccountUpdate holds the mutable account fields. Nil fields are left unchanged.
type AccountUpdate struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// AccountServicer defines the contract for account-related business logic.
// ApplyBalanceChange is the single primitive through which ledger writes
// move account balances; it must run inside the caller's transaction.
type AccountServicer interface {
	CreateAccount(ctx context.Context, ownerID string, in AccountInput) (*models.Account, error)
	GetUserAccounts(ctx context.Context, ownerID string, page pagination.PageRequest, includeInactive bool) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(ctx context.Context, ownerID, accountID string) (*models.Account, error)
	UpdateAccount(ctx context.Context, ownerID, accountID string, in AccountUpdate) (*models.Account, error)
	DeactivateAccount(ctx context.Context, ownerID, accountID string) error
	GetTotalBalance(ctx context.Context, ownerID string) (*TotalBalance, error)
	ApplyBalanceChange(tx *gorm.DB, ownerID, accountID string, delta money.Money, guard bool) error
}

// TotalBalance is the sum of an owner's active account balances.
type TotalBalance struct {
	Total        money.Money `json:"total"`
	Currency     string      `json:"currency"`
	AccountCount int64       `json:"account_count"`
}

// CategoryInput carries the fields needed to create a category.
type CategoryInput struct {
	Name        string
	Type        models.CategoryType
	Description string
	Icon        string
	Color       string
}

// CategoryUpdate holds the mutable category fields.
type CategoryUpdate struct {
	Name        *string
	Description *string
	Icon        *string
	Color       *string
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(ctx context.Context, ownerID string, in CategoryInput) (*models.Category, error)
	GetCategories(ctx context.Context, ownerID string, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(ctx context.Context, ownerID, categoryID string) (*models.Category, error)
	UpdateCategory(ctx context.Context, ownerID, categoryID string, in CategoryUpdate) (*models.Category, error)
	DeleteCategory(ctx context.Context, ownerID, categoryID string) error
	SeedSystemCategories(ctx context.Context) (int, error)
}

// TransactionInput carries a full ledger entry as submitted by a user.
// ToAccountID is only meaningful for transfers.
type TransactionInput struct {
	AccountID   string
	ToAccountID *string
	CategoryID  *string
	Type        models.TransactionType
	Amount      money.Money
	Date        time.Time
	Description string
	Payee       string
	Notes       string
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *string
	AccountID  *string
	MinAmount  *money.Money
	MaxAmount  *money.Money
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, ownerID string, in TransactionInput) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, ownerID, transactionID string, in TransactionInput) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, ownerID, transactionID string) error
	GetTransactionByID(ctx context.Context, ownerID, transactionID string) (*models.Transaction, error)
	GetUserTransactions(ctx context.Context, ownerID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetAccountTransactions(ctx context.Context, ownerID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
}

// BudgetInput carries the fields needed to create a budget.
type BudgetInput struct {
	Name           string
	Description    string
	CategoryID     *string
	Amount         money.Money
	Period         models.BudgetPeriod
	StartDate      time.Time
	EndDate        time.Time
	AlertThreshold *money.Percent
}

// BudgetUpdate holds the mutable budget fields. ClearCategory turns a
// category budget into an overall one.
type BudgetUpdate struct {
	Name           *string
	Description    *string
	CategoryID     *string
	ClearCategory  bool
	Amount         *money.Money
	Period         *models.BudgetPeriod
	StartDate      *time.Time
	EndDate        *time.Time
	AlertThreshold *money.Percent
	IsActive       *bool
}

// BudgetStatus is a budget together with its freshly computed spending.
type BudgetStatus struct {
	models.Budget
	Remaining       money.Money   `json:"remaining"`
	SpentPercentage money.Percent `json:"spent_percentage"`
	AlertTriggered  bool          `json:"alert_triggered"`
}

// BudgetServicer defines the contract for budget-related business logic.
// Every read recomputes spent from the ledger.
type BudgetServicer interface {
	CreateBudget(ctx context.Context, ownerID string, in BudgetInput) (*BudgetStatus, error)
	GetBudgetByID(ctx context.Context, ownerID, budgetID string) (*BudgetStatus, error)
	GetUserBudgets(ctx context.Context, ownerID string, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[BudgetStatus], error)
	GetActiveBudgets(ctx context.Context, ownerID string, on time.Time) ([]BudgetStatus, error)
	GetTriggeredAlerts(ctx context.Context, ownerID string) ([]BudgetStatus, error)
	BudgetsAffectedBy(ctx context.Context, ownerID string, categoryID *string, date time.Time) ([]BudgetStatus, error)
	UpdateBudget(ctx context.Context, ownerID, budgetID string, in BudgetUpdate) (*BudgetStatus, error)
	DeleteBudget(ctx context.Context, ownerID, budgetID string) error
}

// ProjectInput carries the fields needed to create a project.
type ProjectInput struct {
	Title        string
	Description  string
	TargetAmount money.Money
}

// ProjectServicer defines the contract for fundable projects.
type ProjectServicer interface {
	CreateProject(ctx context.Context, ownerID string, in ProjectInput) (*models.Project, error)
	GetProjectByID(ctx context.Context, projectID string) (*models.Project, error)
	GetActiveProjects(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.Project], error)
	GetOwnerProjects(ctx context.Context, ownerID string, page pagination.PageRequest) (*pagination.PageResponse[models.Project], error)
}

// InvestmentServicer defines the contract for investing in projects.
type InvestmentServicer interface {
	Invest(ctx context.Context, investorID, projectID, accountID string, amount money.Money) (*models.Investment, error)
	GetInvestmentByID(ctx context.Context, investorID, investmentID string) (*models.Investment, error)
	GetUserInvestments(ctx context.Context, investorID string, page pagination.PageRequest) (*pagination.PageResponse[models.Investment], error)
	GetTotalInvested(ctx context.Context, investorID string) (money.Money, error)
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// FinancialSummary totals income and expenses over a date range.
type FinancialSummary struct {
	TotalIncome   money.Money `json:"total_income"`
	TotalExpenses money.Money `json:"total_expenses"`
	NetBalance    money.Money `json:"net_balance"`
	Currency      string      `json:"currency"`
	StartDate     time.Time   `json:"start_date"`
	EndDate       time.Time   `json:"end_date"`
}

// CategoryExpense is one slice of an expense breakdown.
type CategoryExpense struct {
	CategoryID   *string       `json:"category_id,omitempty"`
	CategoryName string        `json:"category_name"`
	Amount       money.Money   `json:"amount"`
	Percentage   money.Percent `json:"percentage"`
}

// MonthlyTrend holds one calendar month of income and expenses.
type MonthlyTrend struct {
	Month    string      `json:"month"`
	Income   money.Money `json:"income"`
	Expenses money.Money `json:"expenses"`
	Net      money.Money `json:"net"`
}

// CashFlow reports movement of money over a date range.
type CashFlow struct {
	OpeningBalance money.Money `json:"opening_balance"`
	TotalInflows   money.Money `json:"total_inflows"`
	TotalOutflows  money.Money `json:"total_outflows"`
	NetCashFlow    money.Money `json:"net_cash_flow"`
	ClosingBalance money.Money `json:"closing_balance"`
	StartDate      time.Time   `json:"start_date"`
	EndDate        time.Time   `json:"end_date"`
}

// AnalyticsServicer defines the contract for read-only ledger aggregates.
type AnalyticsServicer interface {
	GetFinancialSummary(ctx context.Context, ownerID string, r DateRange) (*FinancialSummary, error)
	GetExpensesByCategory(ctx context.Context, ownerID string, r DateRange) ([]CategoryExpense, error)
	GetMonthlyTrends(ctx context.Context, ownerID string, r DateRange) ([]MonthlyTrend, error)
	GetCashFlow(ctx context.Context, ownerID string, r DateRange) (*CashFlow, error)
	GetDashboard(ctx context.Context, ownerID string) (*FinancialSummary, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
