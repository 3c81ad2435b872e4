package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "financehub/internal/errors"
	"financehub/internal/logger"
	"financehub/internal/models"
	"financehub/internal/pagination"
)

// projectService handles fundable projects.
type projectService struct {
	db *gorm.DB
}

// NewProjectService creates a new ProjectServicer.
func NewProjectService(db *gorm.DB) ProjectServicer {
	return &projectService{db: db}
}

// CreateProject opens a project for investment.
func (s *projectService) CreateProject(ctx context.Context, ownerID string, in ProjectInput) (*models.Project, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "project title is required")
	}
	if !in.TargetAmount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target amount must be greater than zero")
	}
	if !in.TargetAmount.HasValidScale() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target amount has more than two decimal places")
	}

	project := &models.Project{
		OwnerID:      ownerID,
		Title:        title,
		Description:  in.Description,
		TargetAmount: in.TargetAmount,
		Status:       models.ProjectStatusActive,
	}
	if err := s.db.WithContext(ctx).Create(project).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infow("project created", "project_id", project.ID, "owner_id", ownerID, "target", project.TargetAmount.String())
	return project, nil
}

// GetProjectByID retrieves any project; projects are public.
func (s *projectService) GetProjectByID(ctx context.Context, projectID string) (*models.Project, error) {
	return findProject(s.db.WithContext(ctx), projectID, false)
}

// findProject loads a project, optionally holding a row lock for the rest
// of the surrounding transaction.
func findProject(db *gorm.DB, projectID string, lock bool) (*models.Project, error) {
	if lock {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var project models.Project
	if err := db.Where("id = ?", projectID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &project, nil
}

// GetActiveProjects lists projects still accepting investments.
func (s *projectService) GetActiveProjects(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.Project], error) {
	return s.list(s.db.WithContext(ctx).Model(&models.Project{}).Where("status = ?", models.ProjectStatusActive), page)
}

// GetOwnerProjects lists the projects a user created.
func (s *projectService) GetOwnerProjects(ctx context.Context, ownerID string, page pagination.PageRequest) (*pagination.PageResponse[models.Project], error) {
	return s.list(s.db.WithContext(ctx).Model(&models.Project{}).Where("owner_id = ?", ownerID), page)
}

func (s *projectService) list(base *gorm.DB, page pagination.PageRequest) (*pagination.PageResponse[models.Project], error) {
	page.Defaults()

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var projects []models.Project
	if err := base.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&projects).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(projects, page.Page, page.PageSize, totalItems)
	return &result, nil
}
