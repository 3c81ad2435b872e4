package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "financehub/internal/errors"
	"financehub/internal/events"
	"financehub/internal/logger"
	"financehub/internal/models"
	"financehub/internal/money"
	"financehub/internal/pagination"
)

// InvestmentPayee is the payee recorded on investment debits.
const InvestmentPayee = "FinanceHub Investments"

// investmentService moves money from investor accounts into projects.
type investmentService struct {
	db             *gorm.DB
	accountService AccountServicer
	publisher      events.Publisher
}

// NewInvestmentService creates a new InvestmentServicer. publisher may be nil.
func NewInvestmentService(db *gorm.DB, accountService AccountServicer, publisher events.Publisher) InvestmentServicer {
	return &investmentService{db: db, accountService: accountService, publisher: publisher}
}

// Invest debits the investor's account, records the debit as an expense,
// credits the project and stores the investment. Either every step
// commits or none does.
func (s *investmentService) Invest(ctx context.Context, investorID, projectID, accountID string, amount money.Money) (*models.Investment, error) {
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "investment amount must be greater than zero")
	}
	if !amount.HasValidScale() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "investment amount has more than two decimal places")
	}

	var (
		investment *models.Investment
		project    *models.Project
		funded     bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		project, err = findProject(tx, projectID, true)
		if err != nil {
			return err
		}
		if project.Status != models.ProjectStatusActive {
			return apperrors.ErrProjectNotActive
		}

		if _, err := findAccount(tx, investorID, accountID, true); err != nil {
			return err
		}
		if err := s.accountService.ApplyBalanceChange(tx, investorID, accountID, amount.Neg(), true); err != nil {
			return err
		}

		categoryID, err := systemCategoryID(tx, InvestmentCategoryName, models.CategoryTypeExpense)
		if err != nil {
			return err
		}
		entry := &models.Transaction{
			UserID:      investorID,
			AccountID:   accountID,
			CategoryID:  categoryID,
			Type:        models.TransactionTypeExpense,
			Amount:      amount,
			Date:        today(),
			Description: "Investment in project: " + project.Title,
			Payee:       InvestmentPayee,
			Source:      models.TransactionSourceInvestment,
		}
		if err := tx.Create(entry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := tx.Model(&models.Project{}).Where("id = ?", project.ID).
			Update("current_amount", addMoney("current_amount", amount)).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		project, err = findProject(tx, project.ID, false)
		if err != nil {
			return err
		}
		if project.IsFunded() && project.Status != models.ProjectStatusFunded {
			if err := tx.Model(project).Update("status", models.ProjectStatusFunded).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			project.Status = models.ProjectStatusFunded
			funded = true
		}

		investment = &models.Investment{
			InvestorID:    investorID,
			ProjectID:     project.ID,
			AccountID:     accountID,
			TransactionID: entry.ID,
			Amount:        amount,
		}
		if err := tx.Create(investment).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		investment.Project = project
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("investment recorded",
		"investment_id", investment.ID,
		"investor_id", investorID,
		"project_id", project.ID,
		"amount", amount.String(),
		"project_funded", funded,
	)
	events.Emit(ctx, s.publisher, events.InvestmentCreated, investorID, investment)
	if funded {
		events.Emit(ctx, s.publisher, events.ProjectFunded, project.OwnerID, project)
	}

	return investment, nil
}

// GetInvestmentByID retrieves one of the investor's investments.
func (s *investmentService) GetInvestmentByID(ctx context.Context, investorID, investmentID string) (*models.Investment, error) {
	var investment models.Investment
	if err := s.db.WithContext(ctx).Preload("Project").
		Where("id = ? AND investor_id = ?", investmentID, investorID).
		First(&investment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvestmentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &investment, nil
}

// GetUserInvestments lists the investor's investments, newest first.
func (s *investmentService) GetUserInvestments(ctx context.Context, investorID string, page pagination.PageRequest) (*pagination.PageResponse[models.Investment], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Investment{}).Where("investor_id = ?", investorID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var investments []models.Investment
	if err := base.Preload("Project").
		Order("created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&investments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(investments, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetTotalInvested sums every investment the investor has made.
func (s *investmentService) GetTotalInvested(ctx context.Context, investorID string) (money.Money, error) {
	q := s.db.WithContext(ctx).Model(&models.Investment{}).Where("investor_id = ?", investorID)
	return scanSum(q, sumMoney("amount"))
}
