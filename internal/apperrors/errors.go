package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrConflict indicates that the operation conflicts with the current state of the resource.
var ErrConflict = errors.New("operation conflicts with resource state")

// ErrForbidden indicates the acting user may not perform the operation.
var ErrForbidden = errors.New("operation not permitted")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// Ledger-specific error kinds. Every validation failure of the ledger core
// surfaces as one of these; callers match with errors.Is.
var (
	// ErrDuplicateCode indicates the account code is already taken.
	ErrDuplicateCode = errors.New("account code already exists")

	// ErrInvalidHierarchy indicates a parent/child account type mismatch.
	ErrInvalidHierarchy = errors.New("account hierarchy is invalid")

	// ErrInvalidLine indicates a journal line without exactly one strictly
	// positive side, or with finer precision than the currency minor unit.
	ErrInvalidLine = errors.New("journal line is invalid")

	// ErrInactiveAccount indicates the referenced account is deactivated.
	ErrInactiveAccount = errors.New("account is inactive")

	// ErrNonPostableAccount indicates the referenced account is an
	// aggregation node and may not receive lines.
	ErrNonPostableAccount = errors.New("account is not postable")

	// ErrEmptyEntry indicates a validation attempt on an entry with no lines.
	ErrEmptyEntry = errors.New("journal entry has no lines")

	// ErrUnbalanced indicates total debits do not equal total credits.
	ErrUnbalanced = errors.New("journal entry does not balance")

	// ErrImmutableEntry indicates a mutation attempt on a non-draft entry.
	ErrImmutableEntry = errors.New("journal entry is immutable")

	// ErrPeriodClosed indicates a posting dated inside a closed fiscal period.
	ErrPeriodClosed = errors.New("fiscal period is closed")

	// ErrOpenTransactionsExist indicates a close attempt while draft or
	// validated entries remain dated inside the period.
	ErrOpenTransactionsExist = errors.New("open transactions exist in period")

	// ErrAlreadyReversed indicates a reversal already references the entry.
	ErrAlreadyReversed = errors.New("journal entry is already reversed")

	// ErrAccountInUse indicates a deactivation attempt on an account that
	// still carries a balance (directly or through descendants).
	ErrAccountInUse = errors.New("account is in use")

	// ErrAmbiguousReconciliation indicates more than one posted line
	// plausibly matches the statement record; manual resolution required.
	ErrAmbiguousReconciliation = errors.New("ambiguous reconciliation match")

	// ErrConcurrencyConflict indicates a concurrent writer updated an
	// account balance between read and write. Safe to retry.
	ErrConcurrencyConflict = errors.New("concurrent balance update conflict")
)

// AppError carries an internal code and message around a wrapped cause.
// Used mainly by the persistence layer to annotate infrastructure failures.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError creates an AppError wrapping err.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
