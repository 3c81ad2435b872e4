package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "financehub/internal/errors"
	"financehub/internal/reconcile"
)

// ReconcileRunner runs a balance reconciliation pass.
type ReconcileRunner interface {
	Run(ctx context.Context, opts reconcile.Options) (*reconcile.Report, error)
}

// ReconcileHandler exposes reconciliation to operators.
type ReconcileHandler struct {
	runner      ReconcileRunner
	concurrency int
}

// NewReconcileHandler creates a new ReconcileHandler.
func NewReconcileHandler(runner ReconcileRunner, concurrency int) *ReconcileHandler {
	return &ReconcileHandler{runner: runner, concurrency: concurrency}
}

// ReconcileRequest selects the accounts to check. An empty body checks
// every account without repairing.
type ReconcileRequest struct {
	OwnerID string `json:"owner_id" binding:"omitempty,uuid"`
	Fix     bool   `json:"fix"`
}

// Reconcile handles a reconciliation run
// @Summary     Reconcile balances
// @Description Recompute account balances from the ledger and report drift. With fix, drifted balances are rewritten.
// @Tags        internal
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body     ReconcileRequest false "Scope and repair flag"
// @Success     200     {object} reconcile.Report "Reconciliation report"
// @Failure     400     {object} ErrorResponse    "Invalid input"
// @Failure     401     {object} ErrorResponse    "Invalid API key"
// @Failure     503     {object} ErrorResponse    "Internal API disabled"
// @Failure     500     {object} ErrorResponse    "Server error"
// @Router      /internal/reconcile [post]
func (h *ReconcileHandler) Reconcile(c *gin.Context) {
	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	report, err := h.runner.Run(c.Request.Context(), reconcile.Options{
		OwnerID:     req.OwnerID,
		Fix:         req.Fix,
		Concurrency: h.concurrency,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report, "clean": report.Clean()})
}
