package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "financehub/internal/errors"
	"financehub/internal/logger"
	"financehub/internal/models"
	"financehub/internal/pagination"
)

// InvestmentCategoryName is the system expense category assigned to
// investment debits.
const InvestmentCategoryName = "Investment"

// SystemCategories is the catalog shared by every user.
var SystemCategories = []CategoryInput{
	{Name: "Salary", Type: models.CategoryTypeIncome, Icon: "briefcase", Color: "#2E7D32"},
	{Name: "Freelance", Type: models.CategoryTypeIncome, Icon: "laptop", Color: "#388E3C"},
	{Name: "Investment Returns", Type: models.CategoryTypeIncome, Icon: "trending-up", Color: "#43A047"},
	{Name: "Other Income", Type: models.CategoryTypeIncome, Icon: "plus-circle", Color: "#66BB6A"},
	{Name: "Food & Dining", Type: models.CategoryTypeExpense, Icon: "utensils", Color: "#E53935"},
	{Name: "Transportation", Type: models.CategoryTypeExpense, Icon: "car", Color: "#FB8C00"},
	{Name: "Shopping", Type: models.CategoryTypeExpense, Icon: "shopping-bag", Color: "#8E24AA"},
	{Name: "Entertainment", Type: models.CategoryTypeExpense, Icon: "film", Color: "#D81B60"},
	{Name: "Bills & Utilities", Type: models.CategoryTypeExpense, Icon: "file-text", Color: "#5E35B1"},
	{Name: "Healthcare", Type: models.CategoryTypeExpense, Icon: "heart", Color: "#C62828"},
	{Name: "Education", Type: models.CategoryTypeExpense, Icon: "book", Color: "#1E88E5"},
	{Name: "Housing", Type: models.CategoryTypeExpense, Icon: "home", Color: "#6D4C41"},
	{Name: "Personal Care", Type: models.CategoryTypeExpense, Icon: "smile", Color: "#00ACC1"},
	{Name: InvestmentCategoryName, Type: models.CategoryTypeExpense, Icon: "pie-chart", Color: "#00897B"},
	{Name: "Other Expenses", Type: models.CategoryTypeExpense, Icon: "more-horizontal", Color: "#757575"},
}

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new category owned by the user.
func (s *categoryService) CreateCategory(ctx context.Context, ownerID string, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if !in.Type.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category type must be INCOME or EXPENSE")
	}

	db := s.db.WithContext(ctx)
	if err := ensureUniqueCategoryName(db, ownerID, name, in.Type, ""); err != nil {
		return nil, err
	}

	category := &models.Category{
		UserID:      &ownerID,
		Name:        name,
		Type:        in.Type,
		Description: in.Description,
		Icon:        in.Icon,
		Color:       in.Color,
	}

	if err := db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// ensureUniqueCategoryName rejects a name already used by another of the
// owner's categories of the same type. Names compare case-insensitively.
func ensureUniqueCategoryName(db *gorm.DB, ownerID, name string, categoryType models.CategoryType, exceptID string) error {
	q := db.Model(&models.Category{}).
		Where("user_id = ? AND LOWER(name) = LOWER(?) AND type = ?", ownerID, name, categoryType)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateCategory
	}
	return nil
}

// GetCategories lists the system categories together with the user's own,
// optionally restricted to one type.
func (s *categoryService) GetCategories(ctx context.Context, ownerID string, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Category{}).
		Where("user_id = ? OR user_id IS NULL", ownerID)
	if categoryType != nil {
		base = base.Where("type = ?", *categoryType)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Order("type ASC, name ASC").Scopes(pagination.Paginate(page)).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCategoryByID resolves a category visible to the user: either a system
// category or one the user owns.
func (s *categoryService) GetCategoryByID(ctx context.Context, ownerID, categoryID string) (*models.Category, error) {
	return findCategory(s.db.WithContext(ctx), ownerID, categoryID)
}

func findCategory(db *gorm.DB, ownerID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := db.Where("id = ? AND (user_id = ? OR user_id IS NULL)", categoryID, ownerID).
		First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// findOwnedCategory resolves a category the user may change. System
// categories are refused.
func findOwnedCategory(db *gorm.DB, ownerID, categoryID string) (*models.Category, error) {
	category, err := findCategory(db, ownerID, categoryID)
	if err != nil {
		return nil, err
	}
	if category.IsSystem || category.UserID == nil {
		return nil, apperrors.ErrSystemCategoryImmutable
	}
	return category, nil
}

// UpdateCategory updates a user-owned category.
func (s *categoryService) UpdateCategory(ctx context.Context, ownerID, categoryID string, in CategoryUpdate) (*models.Category, error) {
	db := s.db.WithContext(ctx)
	category, err := findOwnedCategory(db, ownerID, categoryID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name cannot be empty")
		}
		if !strings.EqualFold(name, category.Name) {
			if err := ensureUniqueCategoryName(db, ownerID, name, category.Type, category.ID); err != nil {
				return nil, err
			}
		}
		updates["name"] = name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Icon != nil {
		updates["icon"] = *in.Icon
	}
	if in.Color != nil {
		updates["color"] = *in.Color
	}

	if len(updates) > 0 {
		if err := db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return category, nil
}

// DeleteCategory soft-deletes a user-owned category that no live
// transaction or budget references.
func (s *categoryService) DeleteCategory(ctx context.Context, ownerID, categoryID string) error {
	db := s.db.WithContext(ctx)
	category, err := findOwnedCategory(db, ownerID, categoryID)
	if err != nil {
		return err
	}

	var refs int64
	if err := db.Model(&models.Transaction{}).Where("category_id = ?", categoryID).Count(&refs).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if refs == 0 {
		if err := db.Model(&models.Budget{}).Where("category_id = ?", categoryID).Count(&refs).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	if refs > 0 {
		return apperrors.ErrCategoryInUse
	}

	if err := db.Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// SeedSystemCategories inserts any missing system categories and reports
// how many were created. Running it again is a no-op.
func (s *categoryService) SeedSystemCategories(ctx context.Context) (int, error) {
	created := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, seed := range SystemCategories {
			var count int64
			if err := tx.Model(&models.Category{}).
				Where("user_id IS NULL AND name = ? AND type = ?", seed.Name, seed.Type).
				Count(&count).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if count > 0 {
				continue
			}

			category := &models.Category{
				Name:     seed.Name,
				Type:     seed.Type,
				Icon:     seed.Icon,
				Color:    seed.Color,
				IsSystem: true,
			}
			if err := tx.Create(category).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Get().Infow("system categories seeded", "created", created)
	return created, nil
}

// systemCategoryID returns the id of a system category, or nil when the
// catalog has not been seeded.
func systemCategoryID(db *gorm.DB, name string, categoryType models.CategoryType) (*string, error) {
	var category models.Category
	err := db.Where("user_id IS NULL AND is_system = ? AND name = ? AND type = ?", true, name, categoryType).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category.ID, nil
}
