package repositories

import (
	"context"
	"time"

	"github.com/thesenegalesehitch/erp-ledger/internal/core/domain"
)

// PeriodReader defines read operations for fiscal period data.
type PeriodReader interface {
	// FindPeriodByID retrieves a fiscal period by its unique identifier.
	FindPeriodByID(ctx context.Context, periodID string) (*domain.FiscalPeriod, error)

	// FindPeriodForDate retrieves the period whose range contains the date.
	FindPeriodForDate(ctx context.Context, date time.Time) (*domain.FiscalPeriod, error)

	// FindOverlappingPeriod retrieves any period intersecting [start, end].
	FindOverlappingPeriod(ctx context.Context, start, end time.Time) (*domain.FiscalPeriod, error)

	// AnyClosedAfter reports whether any period starting after the given
	// date is already closed. Guards chronological reopening.
	AnyClosedAfter(ctx context.Context, date time.Time) (bool, error)

	// AnyOpenBefore reports whether any period ending before the given date
	// is still open. Guards chronological closing.
	AnyOpenBefore(ctx context.Context, date time.Time) (bool, error)

	// ListPeriods retrieves all periods ordered by start date.
	ListPeriods(ctx context.Context) ([]domain.FiscalPeriod, error)
}

// PeriodWriter defines write operations for fiscal period data.
type PeriodWriter interface {
	// SavePeriod persists a new fiscal period.
	SavePeriod(ctx context.Context, period domain.FiscalPeriod) error

	// UpdatePeriodStatus flips a period between open and closed.
	UpdatePeriodStatus(ctx context.Context, periodID string, status domain.PeriodStatus, by string, at time.Time) error
}

// PeriodRepositoryFacade combines all period repository interfaces.
type PeriodRepositoryFacade interface {
	PeriodReader
	PeriodWriter
}
