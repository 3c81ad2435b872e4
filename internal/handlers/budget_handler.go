package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "financehub/internal/errors"
	"financehub/internal/models"
	"financehub/internal/money"
	"financehub/internal/pagination"
	"financehub/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// CreateBudgetRequest represents the request payload for creating a budget.
// Omitting category_id creates an overall budget over every expense.
type CreateBudgetRequest struct {
	Name           string         `json:"name" binding:"required,min=1,max=100"`
	Description    string         `json:"description" binding:"max=500"`
	CategoryID     *string        `json:"category_id" binding:"omitempty,uuid"`
	Amount         money.Money    `json:"amount" binding:"positive_money" swaggertype:"string" example:"200.00"`
	Period         string         `json:"period" binding:"omitempty,budget_period"`
	StartDate      *string        `json:"start_date" example:"2024-03-01"`
	EndDate        *string        `json:"end_date" example:"2024-03-31"`
	AlertThreshold *money.Percent `json:"alert_threshold" swaggertype:"string" example:"80"`
}

// UpdateBudgetRequest represents the request payload for updating a budget.
type UpdateBudgetRequest struct {
	Name           *string        `json:"name" binding:"omitempty,min=1,max=100"`
	Description    *string        `json:"description" binding:"omitempty,max=500"`
	CategoryID     *string        `json:"category_id" binding:"omitempty,uuid"`
	ClearCategory  bool           `json:"clear_category"`
	Amount         *money.Money   `json:"amount" binding:"omitempty,positive_money" swaggertype:"string"`
	Period         *string        `json:"period" binding:"omitempty,budget_period"`
	StartDate      *string        `json:"start_date"`
	EndDate        *string        `json:"end_date"`
	AlertThreshold *money.Percent `json:"alert_threshold" swaggertype:"string"`
	IsActive       *bool          `json:"is_active"`
}

type budgetListQuery struct {
	pagination.PageRequest
	IsActive *bool `form:"is_active"`
}

// parseOptionalDate parses an optional date field named field.
func parseOptionalDate(raw *string, field string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := parseFlexibleTime(*raw)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+field+" format, use RFC3339 or YYYY-MM-DD")
	}
	t = models.DateOnly(t)
	return &t, nil
}

// CreateBudget handles the creation of a new budget.
// @Summary     Create a budget
// @Description Create a budget over a date window. The end date is derived from the period when omitted; custom periods require one.
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBudgetRequest true "Budget details"
// @Success     201 {object} services.BudgetStatus "Budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	in := services.BudgetInput{
		Name:           req.Name,
		Description:    req.Description,
		CategoryID:     req.CategoryID,
		Amount:         req.Amount,
		Period:         models.BudgetPeriod(strings.ToUpper(req.Period)),
		AlertThreshold: req.AlertThreshold,
	}
	start, err := parseOptionalDate(req.StartDate, "start_date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if start != nil {
		in.StartDate = *start
	}
	end, err := parseOptionalDate(req.EndDate, "end_date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if end != nil {
		in.EndDate = *end
	}

	budget, err := h.budgetService.CreateBudget(c.Request.Context(), userID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_BUDGET", "budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"name": budget.Name, "amount": budget.Amount.String(), "period": budget.Period})

	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

// GetBudgets handles listing the user's budgets
// @Summary     Get budgets
// @Description Get a paginated list of budgets with spending recomputed from the ledger
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       is_active query bool   false "Filter by active status"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Param       sort      query string false "Sort: name, start_date, amount"
// @Success     200 {object} pagination.PageResponse[services.BudgetStatus] "Paginated budgets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q budgetListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.budgetService.GetUserBudgets(c.Request.Context(), userID, q.PageRequest, q.IsActive)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetActiveBudgets handles listing budgets whose window covers a date
// @Summary     Get active budgets
// @Description List active budgets whose window contains the given date (default today)
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       date query string false "Calendar date (YYYY-MM-DD)"
// @Success     200 {array}  services.BudgetStatus "Active budgets"
// @Failure     400 {object} ErrorResponse "Invalid date"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/active [get]
func (h *BudgetHandler) GetActiveBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	on := models.DateOnly(time.Now().UTC())
	if v := c.Query("date"); v != "" {
		d, err := parseOptionalDate(&v, "date")
		if err != nil {
			respondWithError(c, err)
			return
		}
		on = *d
	}

	budgets, err := h.budgetService.GetActiveBudgets(c.Request.Context(), userID, on)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budgets": budgets})
}

// GetBudgetAlerts handles listing budgets at or past their alert threshold
// @Summary     Get budget alerts
// @Description List active budgets whose spent percentage has reached the alert threshold
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  services.BudgetStatus "Budgets exceeding their threshold"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/alerts [get]
func (h *BudgetHandler) GetBudgetAlerts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	alerts, err := h.budgetService.GetTriggeredAlerts(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budgets": alerts})
}

// GetBudget handles the retrieval of a budget and its progress
// @Summary     Get budget by ID
// @Description Get a budget with spent, remaining and spent percentage computed from the ledger
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} services.BudgetStatus "Budget details"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(c.Request.Context(), userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// UpdateBudget handles updating a budget
// @Summary     Update budget
// @Description Update an existing budget. Spending is recomputed over the new window and scope.
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Budget ID"
// @Param       request body UpdateBudgetRequest true "Updated budget details"
// @Success     200 {object} services.BudgetStatus "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid input or budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if req.ClearCategory && req.CategoryID != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "category_id and clear_category are mutually exclusive"))
		return
	}

	in := services.BudgetUpdate{
		Name:           req.Name,
		Description:    req.Description,
		CategoryID:     req.CategoryID,
		ClearCategory:  req.ClearCategory,
		Amount:         req.Amount,
		AlertThreshold: req.AlertThreshold,
		IsActive:       req.IsActive,
	}
	if req.Period != nil {
		p := models.BudgetPeriod(strings.ToUpper(*req.Period))
		in.Period = &p
	}
	if in.StartDate, err = parseOptionalDate(req.StartDate, "start_date"); err != nil {
		respondWithError(c, err)
		return
	}
	if in.EndDate, err = parseOptionalDate(req.EndDate, "end_date"); err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.UpdateBudget(c.Request.Context(), userID, budgetID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_BUDGET", "budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// DeleteBudget handles the deletion of a budget
// @Summary     Delete budget
// @Description Delete a budget by ID (soft delete)
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} MessageResponse "Budget deleted"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(c.Request.Context(), userID, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_BUDGET", "budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Budget deleted successfully"})
}
