package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"financehub/internal/config"
	apperrors "financehub/internal/errors"
	"financehub/internal/logger"
	"financehub/internal/models"
	"financehub/internal/money"
	"financehub/internal/pagination"
)

// accountService handles account-related business logic.
type accountService struct {
	db     *gorm.DB
	ledger *LedgerStore
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db, ledger: NewLedgerStore(db)}
}

// CreateAccount opens an account. The opening balance becomes the account's
// starting balance and is kept for reconciliation.
func (s *accountService) CreateAccount(ctx context.Context, ownerID string, in AccountInput) (*models.Account, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	if in.Type == "" {
		in.Type = models.AccountTypeChecking
	}
	if !in.Type.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported account type")
	}
	if in.OpeningBalance.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "opening balance cannot be negative")
	}
	if !in.OpeningBalance.HasValidScale() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "opening balance has more than two decimal places")
	}

	currency := strings.ToUpper(in.Currency)
	if currency == "" {
		currency = config.Get().Ledger.DefaultCurrency
	}
	if !money.IsCurrency(currency) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported currency")
	}

	account := &models.Account{
		UserID:         ownerID,
		Name:           name,
		Type:           in.Type,
		Description:    in.Description,
		Balance:        in.OpeningBalance,
		OpeningBalance: in.OpeningBalance,
		Currency:       currency,
		IsActive:       true,
	}

	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infow("account created", "account_id", account.ID, "user_id", ownerID, "type", account.Type)
	return account, nil
}

var accountSorts = map[string]string{
	"name":         "name ASC",
	"balance_desc": "balance DESC",
	"balance_asc":  "balance ASC",
	"newest":       "created_at DESC",
}

// GetUserAccounts retrieves a paginated list of accounts for a user.
func (s *accountService) GetUserAccounts(ctx context.Context, ownerID string, page pagination.PageRequest, includeInactive bool) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Account{}).Where("user_id = ?", ownerID)
	if !includeInactive {
		base = base.Where("is_active = ?", true)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var accounts []models.Account
	if err := base.Order(page.OrderBy(accountSorts, "created_at ASC")).
		Scopes(pagination.Paginate(page)).Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(accounts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAccountByID retrieves an account by ID for a specific user. Inactive
// accounts are returned so their history stays readable.
func (s *accountService) GetAccountByID(ctx context.Context, ownerID, accountID string) (*models.Account, error) {
	return findAccount(s.db.WithContext(ctx), ownerID, accountID, false)
}

// findAccount loads an owner's account. With activeOnly, deactivated
// accounts are treated as missing.
func findAccount(db *gorm.DB, ownerID, accountID string, activeOnly bool) (*models.Account, error) {
	q := db.Where("id = ? AND user_id = ?", accountID, ownerID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var account models.Account
	if err := q.First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// UpdateAccount updates the descriptive fields of an account. Balances are
// never written here.
func (s *accountService) UpdateAccount(ctx context.Context, ownerID, accountID string, in AccountUpdate) (*models.Account, error) {
	account, err := s.GetAccountByID(ctx, ownerID, accountID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}

	if len(updates) > 0 {
		db := s.db.WithContext(ctx)
		if err := db.Model(account).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		// Reload to get fresh data
		if err := db.Where("id = ?", account.ID).First(account).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return account, nil
}

// DeactivateAccount hides an account from listings and new entries. Its
// transactions remain and can still be edited or deleted.
func (s *accountService) DeactivateAccount(ctx context.Context, ownerID, accountID string) error {
	result := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND user_id = ?", accountID, ownerID).
		Update("is_active", false)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}

// GetTotalBalance sums the balances of the owner's active accounts.
func (s *accountService) GetTotalBalance(ctx context.Context, ownerID string) (*TotalBalance, error) {
	total, err := s.ledger.TotalBalance(ctx, ownerID, false)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("user_id = ? AND is_active = ?", ownerID, true).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &TotalBalance{
		Total:        total,
		Currency:     config.Get().Ledger.DefaultCurrency,
		AccountCount: count,
	}, nil
}

// ApplyBalanceChange adds delta to an account's balance in one UPDATE
// statement. A guarded debit only succeeds while the balance covers it, so
// the check and the write cannot be separated by a concurrent writer.
func (s *accountService) ApplyBalanceChange(tx *gorm.DB, ownerID, accountID string, delta money.Money, guard bool) error {
	q := tx.Model(&models.Account{}).Where("id = ? AND user_id = ?", accountID, ownerID)
	guarded := guard && delta.IsNegative()
	if guarded {
		q = q.Where("ROUND(balance, 2) >= CAST(? AS NUMERIC)", delta.Neg())
	}

	result := q.Update("balance", addMoney("balance", delta))
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	if !guarded {
		return apperrors.ErrAccountNotFound
	}

	var count int64
	if err := tx.Model(&models.Account{}).
		Where("id = ? AND user_id = ?", accountID, ownerID).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrAccountNotFound
	}
	return apperrors.ErrInsufficientFunds
}
