package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"financehub/internal/services"
)

// trendMonths is how far back monthly trends reach when no start_date is given.
const trendMonths = 11

// AnalyticsHandler serves read-only aggregates over the ledger.
type AnalyticsHandler struct {
	analyticsService services.AnalyticsServicer
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService services.AnalyticsServicer) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// GetFinancialSummary handles income and expense totals
// @Summary     Get financial summary
// @Description Total income, expenses and net for a date range. Transfers are excluded.
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       start_date query string false "Start date (YYYY-MM-DD), defaults to the first of this month"
// @Param       end_date   query string false "End date (YYYY-MM-DD), defaults to today"
// @Success     200 {object} services.FinancialSummary "Summary"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /analytics/summary [get]
func (h *AnalyticsHandler) GetFinancialSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	r, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.analyticsService.GetFinancialSummary(c.Request.Context(), userID, r)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// GetExpensesByCategory handles the expense breakdown
// @Summary     Get expenses by category
// @Description Expense totals per category for a date range, largest first, with each share of the total
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       start_date query string false "Start date (YYYY-MM-DD)"
// @Param       end_date   query string false "End date (YYYY-MM-DD)"
// @Success     200 {array}  services.CategoryExpense "Breakdown"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /analytics/categories [get]
func (h *AnalyticsHandler) GetExpensesByCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	r, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	breakdown, err := h.analyticsService.GetExpensesByCategory(c.Request.Context(), userID, r)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": breakdown})
}

// GetMonthlyTrends handles the month-by-month series
// @Summary     Get monthly trends
// @Description Income, expenses and net per calendar month. Without start_date the series covers the last twelve months.
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       start_date query string false "Start date (YYYY-MM-DD)"
// @Param       end_date   query string false "End date (YYYY-MM-DD)"
// @Success     200 {array}  services.MonthlyTrend "Trends"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /analytics/trends [get]
func (h *AnalyticsHandler) GetMonthlyTrends(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	r, err := parseDateRangeFrom(c, trendMonths)
	if err != nil {
		respondWithError(c, err)
		return
	}

	trends, err := h.analyticsService.GetMonthlyTrends(c.Request.Context(), userID, r)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trends": trends})
}

// GetCashFlow handles cash flow reporting
// @Summary     Get cash flow
// @Description Opening balance, inflows, outflows and closing balance across all accounts for a date range
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       start_date query string false "Start date (YYYY-MM-DD)"
// @Param       end_date   query string false "End date (YYYY-MM-DD)"
// @Success     200 {object} services.CashFlow "Cash flow"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /analytics/cashflow [get]
func (h *AnalyticsHandler) GetCashFlow(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	r, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	flow, err := h.analyticsService.GetCashFlow(c.Request.Context(), userID, r)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cash_flow": flow})
}

// GetDashboard handles the dashboard summary
// @Summary     Get dashboard stats
// @Description Financial summary for the last 30 days
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.FinancialSummary "Summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /analytics/dashboard [get]
func (h *AnalyticsHandler) GetDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.analyticsService.GetDashboard(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
