package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"financehub/internal/config"
	apperrors "financehub/internal/errors"
	"financehub/internal/events"
	"financehub/internal/logger"
	"financehub/internal/models"
	"financehub/internal/pagination"
)

// transactionService records ledger entries and keeps account balances in
// step with them.
type transactionService struct {
	db             *gorm.DB
	accountService AccountServicer
	budgetService  BudgetServicer
	publisher      events.Publisher
}

// NewTransactionService creates a new TransactionServicer. budgetService
// and publisher may be nil, which disables budget alerts and events.
func NewTransactionService(db *gorm.DB, accountService AccountServicer, budgetService BudgetServicer, publisher events.Publisher) TransactionServicer {
	return &transactionService{
		db:             db,
		accountService: accountService,
		budgetService:  budgetService,
		publisher:      publisher,
	}
}

// today is the current calendar date in UTC.
var today = func() time.Time { return models.DateOnly(time.Now().UTC()) }

// validateTransactionInput checks everything that can be checked without
// the database and normalizes the date.
func validateTransactionInput(in *TransactionInput) error {
	if !in.Type.Valid() {
		return apperrors.ErrInvalidTransactionType
	}
	if in.AccountID == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "account ID is required")
	}
	if !in.Amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if !in.Amount.HasValidScale() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount has more than two decimal places")
	}

	if in.Date.IsZero() {
		in.Date = today()
	}
	in.Date = models.DateOnly(in.Date)
	if in.Date.After(today()) {
		return apperrors.ErrFutureDatedTransaction
	}

	if in.Type == models.TransactionTypeTransfer {
		if in.ToAccountID == nil || *in.ToAccountID == "" {
			return apperrors.ErrTransferTargetRequired
		}
		if *in.ToAccountID == in.AccountID {
			return apperrors.ErrSameAccountTransfer
		}
	} else {
		in.ToAccountID = nil
	}

	if in.CategoryID != nil && *in.CategoryID == "" {
		in.CategoryID = nil
	}
	in.Description = strings.TrimSpace(in.Description)
	return nil
}

// resolveTransactionRefs checks that the accounts and category an entry
// points at are visible to the owner, and that an income or expense entry
// uses a category of its own type. requireActive lists the account ids
// that must also be active.
func resolveTransactionRefs(tx *gorm.DB, ownerID string, in TransactionInput, requireActive map[string]bool) error {
	source, err := findAccount(tx, ownerID, in.AccountID, requireActive[in.AccountID])
	if err != nil {
		return err
	}

	if in.ToAccountID != nil {
		dest, err := findAccount(tx, ownerID, *in.ToAccountID, requireActive[*in.ToAccountID])
		if err != nil {
			return err
		}
		if dest.Currency != source.Currency {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "transfer accounts must share a currency")
		}
	}

	if in.CategoryID != nil {
		category, err := findCategory(tx, ownerID, *in.CategoryID)
		if err != nil {
			return err
		}
		if in.Type != models.TransactionTypeTransfer && string(category.Type) != string(in.Type) {
			return apperrors.WithMessage(apperrors.ErrInvalidInput,
				"category type "+string(category.Type)+" does not match transaction type "+string(in.Type))
		}
	}
	return nil
}

// CreateTransaction records a ledger entry and applies its balance effects
// in one database transaction.
func (s *transactionService) CreateTransaction(ctx context.Context, ownerID string, in TransactionInput) (*models.Transaction, error) {
	if err := validateTransactionInput(&in); err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		UserID:      ownerID,
		AccountID:   in.AccountID,
		ToAccountID: in.ToAccountID,
		CategoryID:  in.CategoryID,
		Type:        in.Type,
		Amount:      in.Amount,
		Date:        in.Date,
		Description: in.Description,
		Payee:       in.Payee,
		Notes:       in.Notes,
		Source:      models.TransactionSourceManual,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		active := map[string]bool{in.AccountID: true}
		if in.ToAccountID != nil {
			active[*in.ToAccountID] = true
		}
		if err := resolveTransactionRefs(tx, ownerID, in, active); err != nil {
			return err
		}

		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return applyEffects(tx, s.accountService, transaction)
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("transaction created",
		"transaction_id", transaction.ID,
		"user_id", ownerID,
		"type", transaction.Type,
		"amount", transaction.Amount.String(),
	)
	events.Emit(ctx, s.publisher, events.TransactionCreated, ownerID, transaction)
	s.notifyBudgetAlerts(ctx, ownerID, transaction)

	return transaction, nil
}

// lockTransaction loads an owner's entry with a row lock held until the
// surrounding database transaction ends.
func lockTransaction(tx *gorm.DB, ownerID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", transactionID, ownerID).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if transaction.Source == models.TransactionSourceInvestment {
		return nil, apperrors.ErrTransactionNotEditable
	}
	return &transaction, nil
}

// UpdateTransaction replaces an entry's values. The old effects are
// reverted and the new ones applied in the same database transaction, so
// moving an entry between accounts updates both atomically.
func (s *transactionService) UpdateTransaction(ctx context.Context, ownerID, transactionID string, in TransactionInput) (*models.Transaction, error) {
	if err := validateTransactionInput(&in); err != nil {
		return nil, err
	}

	var (
		updated  *models.Transaction
		previous models.Transaction
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := lockTransaction(tx, ownerID, transactionID)
		if err != nil {
			return err
		}
		previous = *existing

		// Accounts the entry already touches may be inactive; newly
		// referenced ones may not.
		active := map[string]bool{}
		for _, id := range []*string{&in.AccountID, in.ToAccountID} {
			if id != nil && *id != existing.AccountID && (existing.ToAccountID == nil || *id != *existing.ToAccountID) {
				active[*id] = true
			}
		}
		if err := resolveTransactionRefs(tx, ownerID, in, active); err != nil {
			return err
		}

		if err := revertEffects(tx, s.accountService, existing); err != nil {
			return err
		}

		existing.AccountID = in.AccountID
		existing.ToAccountID = in.ToAccountID
		existing.CategoryID = in.CategoryID
		existing.Type = in.Type
		existing.Amount = in.Amount
		existing.Date = in.Date
		existing.Description = in.Description
		existing.Payee = in.Payee
		existing.Notes = in.Notes

		if err := applyEffects(tx, s.accountService, existing); err != nil {
			return err
		}
		if err := tx.Save(existing).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("transaction updated",
		"transaction_id", updated.ID,
		"user_id", ownerID,
		"old_amount", previous.Amount.String(),
		"new_amount", updated.Amount.String(),
	)
	events.Emit(ctx, s.publisher, events.TransactionUpdated, ownerID, updated)
	s.notifyBudgetAlerts(ctx, ownerID, updated)

	return updated, nil
}

// DeleteTransaction reverts an entry's balance effects and soft-deletes it.
func (s *transactionService) DeleteTransaction(ctx context.Context, ownerID, transactionID string) error {
	var deleted *models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := lockTransaction(tx, ownerID, transactionID)
		if err != nil {
			return err
		}
		if err := revertEffects(tx, s.accountService, existing); err != nil {
			return err
		}
		if err := tx.Delete(existing).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		deleted = existing
		return nil
	})
	if err != nil {
		return err
	}

	logger.Get().Infow("transaction deleted", "transaction_id", transactionID, "user_id", ownerID)
	events.Emit(ctx, s.publisher, events.TransactionDeleted, ownerID, deleted)
	return nil
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(ctx context.Context, ownerID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.WithContext(ctx).Preload("Category").
		Where("id = ? AND user_id = ?", transactionID, ownerID).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

var transactionSorts = map[string]string{
	"date_desc":   "date DESC, created_at DESC",
	"date_asc":    "date ASC, created_at ASC",
	"amount_desc": "amount DESC, date DESC",
	"amount_asc":  "amount ASC, date DESC",
}

// GetUserTransactions retrieves a filtered, paginated list of a user's
// transactions, newest first unless another order is requested.
func (s *transactionService) GetUserTransactions(ctx context.Context, ownerID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", ownerID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Preload("Category").
		Order(page.OrderBy(transactionSorts, transactionSorts["date_desc"])).
		Scopes(pagination.Paginate(page)).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAccountTransactions lists the entries touching one account, including
// transfers into it.
func (s *transactionService) GetAccountTransactions(ctx context.Context, ownerID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if _, err := findAccount(s.db.WithContext(ctx), ownerID, accountID, false); err != nil {
		return nil, err
	}
	filter.AccountID = &accountID
	return s.GetUserTransactions(ctx, ownerID, page, filter)
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", models.DateOnly(*f.FromDate))
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", models.DateOnly(*f.ToDate))
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.AccountID != nil {
		q = q.Where("account_id = ? OR to_account_id = ?", *f.AccountID, *f.AccountID)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	return q
}

// budgetAlert is the payload of a budget.alert event.
type budgetAlert struct {
	BudgetID        string `json:"budget_id"`
	Name            string `json:"name"`
	Amount          string `json:"amount"`
	Spent           string `json:"spent"`
	SpentPercentage string `json:"spent_percentage"`
	AlertThreshold  string `json:"alert_threshold"`
	AlertAt         string `json:"alert_at"`
	Summary         string `json:"summary"`
	TransactionID   string `json:"transaction_id"`
}

// notifyBudgetAlerts publishes an alert for every budget an expense pushed
// to or past its threshold. Failures are logged and dropped.
func (s *transactionService) notifyBudgetAlerts(ctx context.Context, ownerID string, t *models.Transaction) {
	if s.budgetService == nil || t.Type != models.TransactionTypeExpense {
		return
	}

	statuses, err := s.budgetService.BudgetsAffectedBy(ctx, ownerID, t.CategoryID, t.Date)
	if err != nil {
		logger.Get().Warnw("failed to evaluate budget alerts", "error", err, "transaction_id", t.ID)
		return
	}
	currency := config.Get().Ledger.DefaultCurrency
	if account, err := findAccount(s.db.WithContext(ctx), ownerID, t.AccountID, false); err == nil {
		currency = account.Currency
	}

	for _, st := range statuses {
		if !st.AlertTriggered {
			continue
		}
		events.Emit(ctx, s.publisher, events.BudgetAlert, ownerID, budgetAlert{
			BudgetID:        st.ID,
			Name:            st.Name,
			Amount:          st.Amount.String(),
			Spent:           st.Spent.String(),
			SpentPercentage: st.SpentPercentage.String(),
			AlertThreshold:  st.AlertThreshold.String(),
			AlertAt:         st.Amount.MulPercent(st.AlertThreshold).String(),
			Summary:         st.Spent.Format(currency) + " of " + st.Amount.Format(currency) + " spent",
			TransactionID:   t.ID,
		})
	}
}
