package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/thesenegalesehitch/erp-ledger/internal/apperrors"

	"github.com/stretchr/testify/assert"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperrors.ErrNotFound, http.StatusNotFound},
		{apperrors.ErrForbidden, http.StatusForbidden},
		{apperrors.ErrValidation, http.StatusBadRequest},
		{apperrors.ErrInvalidLine, http.StatusBadRequest},
		{apperrors.ErrInvalidHierarchy, http.StatusBadRequest},
		{apperrors.ErrEmptyEntry, http.StatusBadRequest},
		{apperrors.ErrUnbalanced, http.StatusUnprocessableEntity},
		{apperrors.ErrInactiveAccount, http.StatusUnprocessableEntity},
		{apperrors.ErrNonPostableAccount, http.StatusUnprocessableEntity},
		{apperrors.ErrDuplicateCode, http.StatusConflict},
		{apperrors.ErrImmutableEntry, http.StatusConflict},
		{apperrors.ErrPeriodClosed, http.StatusConflict},
		{apperrors.ErrOpenTransactionsExist, http.StatusConflict},
		{apperrors.ErrAlreadyReversed, http.StatusConflict},
		{apperrors.ErrAccountInUse, http.StatusConflict},
		{apperrors.ErrAmbiguousReconciliation, http.StatusConflict},
		{apperrors.ErrConcurrencyConflict, http.StatusConflict},
		{apperrors.ErrConflict, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}

func TestStatusForError_Wrapped(t *testing.T) {
	err := fmt.Errorf("failed to post entry abc: %w", apperrors.ErrConcurrencyConflict)
	assert.Equal(t, http.StatusConflict, statusForError(err))
}
