package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/thesenegalesehitch/erp-ledger/internal/core/ports/services"
	"github.com/thesenegalesehitch/erp-ledger/internal/dto"
	"github.com/thesenegalesehitch/erp-ledger/internal/middleware"

	"github.com/gin-gonic/gin"
)

// reconciliationHandler handles HTTP requests for statement reconciliation.
type reconciliationHandler struct {
	reconService portssvc.ReconciliationSvcFacade
}

func newReconciliationHandler(rs portssvc.ReconciliationSvcFacade) *reconciliationHandler {
	return &reconciliationHandler{reconService: rs}
}

// registerReconciliationRoutes registers routes related to reconciliation.
func registerReconciliationRoutes(rg *gin.RouterGroup, reconService portssvc.ReconciliationSvcFacade) {
	h := newReconciliationHandler(reconService)

	recon := rg.Group("/accounts/:id/reconciliation")
	{
		recon.POST("/matches", h.matchStatementLine)
		recon.POST("/periods/:periodID/summary", h.summarize)
	}
}

func (h *reconciliationHandler) matchStatementLine(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("id")

	var req dto.MatchStatementLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for MatchStatementLine", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("account_id", accountID), slog.String("matcher_user_id", userID))
	match, err := h.reconService.MatchStatementLine(c.Request.Context(), accountID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "match statement line")
		return
	}

	logger.Info("Statement line matched", slog.String("matched_line_id", match.MatchedLineID))
	c.JSON(http.StatusCreated, match)
}

func (h *reconciliationHandler) summarize(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("id")
	periodID := c.Param("periodID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("account_id", accountID), slog.String("period_id", periodID))
	rec, err := h.reconService.Summarize(c.Request.Context(), accountID, periodID, userID)
	if err != nil {
		respondServiceError(c, logger, err, "summarize reconciliation")
		return
	}

	logger.Info("Reconciliation summarized", slog.String("status", string(rec.Status)))
	c.JSON(http.StatusCreated, dto.ToReconciliationResponse(rec))
}
