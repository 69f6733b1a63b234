package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/thesenegalesehitch/erp-ledger/internal/apperrors"

	"github.com/gin-gonic/gin"
)

// statusForError maps ledger error kinds to HTTP status codes. Anything
// unrecognized is an internal error.
func statusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrInvalidLine),
		errors.Is(err, apperrors.ErrInvalidHierarchy),
		errors.Is(err, apperrors.ErrEmptyEntry):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnbalanced),
		errors.Is(err, apperrors.ErrInactiveAccount),
		errors.Is(err, apperrors.ErrNonPostableAccount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrDuplicateCode),
		errors.Is(err, apperrors.ErrImmutableEntry),
		errors.Is(err, apperrors.ErrPeriodClosed),
		errors.Is(err, apperrors.ErrOpenTransactionsExist),
		errors.Is(err, apperrors.ErrAlreadyReversed),
		errors.Is(err, apperrors.ErrAccountInUse),
		errors.Is(err, apperrors.ErrAmbiguousReconciliation),
		errors.Is(err, apperrors.ErrConcurrencyConflict),
		errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError logs and writes a service error. Internal errors get
// a generic message so repository details never leak to clients.
func respondServiceError(c *gin.Context, logger *slog.Logger, err error, action string) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logger.Error("Failed to "+action, slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": "Failed to " + action})
		return
	}
	logger.Warn("Rejected request to "+action, slog.String("error", err.Error()))
	c.JSON(status, gin.H{"error": err.Error()})
}
