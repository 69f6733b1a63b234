package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thesenegalesehitch/erp-ledger/internal/apperrors"
	"github.com/thesenegalesehitch/erp-ledger/internal/core/domain"
	portsrepo "github.com/thesenegalesehitch/erp-ledger/internal/core/ports/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const periodColumns = `period_id, name, fiscal_year, start_date, end_date, status, closed_by, closed_at, created_at, created_by, last_updated_at, last_updated_by`

// PgxPeriodRepository persists fiscal periods.
type PgxPeriodRepository struct {
	BaseRepository
}

// NewPeriodRepository creates a new repository for fiscal period data.
func NewPeriodRepository(pool *pgxpool.Pool) *PgxPeriodRepository {
	return &PgxPeriodRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PeriodRepositoryFacade = (*PgxPeriodRepository)(nil)

func scanPeriod(row pgx.Row) (*domain.FiscalPeriod, error) {
	var period domain.FiscalPeriod
	var closedBy *string
	err := row.Scan(
		&period.PeriodID,
		&period.Name,
		&period.FiscalYear,
		&period.StartDate,
		&period.EndDate,
		&period.Status,
		&closedBy,
		&period.ClosedAt,
		&period.CreatedAt,
		&period.CreatedBy,
		&period.LastUpdatedAt,
		&period.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan period row: %w", err)
	}
	if closedBy != nil {
		period.ClosedBy = *closedBy
	}
	return &period, nil
}

// SavePeriod persists a new fiscal period.
func (r *PgxPeriodRepository) SavePeriod(ctx context.Context, period domain.FiscalPeriod) error {
	query := `
		INSERT INTO fiscal_periods (` + periodColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	var closedBy *string
	if period.ClosedBy != "" {
		closedBy = &period.ClosedBy
	}
	_, err := r.Pool.Exec(ctx, query,
		period.PeriodID,
		period.Name,
		period.FiscalYear,
		period.StartDate,
		period.EndDate,
		period.Status,
		closedBy,
		period.ClosedAt,
		period.CreatedAt,
		period.CreatedBy,
		period.LastUpdatedAt,
		period.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert period "+period.PeriodID, err)
	}
	return nil
}

// FindPeriodByID retrieves a fiscal period by its unique identifier.
func (r *PgxPeriodRepository) FindPeriodByID(ctx context.Context, periodID string) (*domain.FiscalPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM fiscal_periods WHERE period_id = $1;`
	return scanPeriod(r.Pool.QueryRow(ctx, query, periodID))
}

// FindPeriodForDate retrieves the period whose range contains the date.
func (r *PgxPeriodRepository) FindPeriodForDate(ctx context.Context, date time.Time) (*domain.FiscalPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM fiscal_periods WHERE start_date <= $1 AND end_date >= $1 LIMIT 1;`
	return scanPeriod(r.Pool.QueryRow(ctx, query, date))
}

// FindOverlappingPeriod retrieves any period intersecting [start, end].
func (r *PgxPeriodRepository) FindOverlappingPeriod(ctx context.Context, start, end time.Time) (*domain.FiscalPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM fiscal_periods WHERE start_date <= $2 AND end_date >= $1 LIMIT 1;`
	return scanPeriod(r.Pool.QueryRow(ctx, query, start, end))
}

// AnyClosedAfter reports whether any period starting after the given date
// is already closed.
func (r *PgxPeriodRepository) AnyClosedAfter(ctx context.Context, date time.Time) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM fiscal_periods WHERE start_date > $1 AND status = 'CLOSED');`
	if err := r.Pool.QueryRow(ctx, query, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check closed periods: %w", err)
	}
	return exists, nil
}

// AnyOpenBefore reports whether any period ending before the given date is
// still open.
func (r *PgxPeriodRepository) AnyOpenBefore(ctx context.Context, date time.Time) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM fiscal_periods WHERE end_date < $1 AND status = 'OPEN');`
	if err := r.Pool.QueryRow(ctx, query, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check open periods: %w", err)
	}
	return exists, nil
}

// ListPeriods retrieves all periods ordered by start date.
func (r *PgxPeriodRepository) ListPeriods(ctx context.Context) ([]domain.FiscalPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM fiscal_periods ORDER BY start_date;`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}
	defer rows.Close()

	var periods []domain.FiscalPeriod
	for rows.Next() {
		period, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, *period)
	}
	return periods, rows.Err()
}

// UpdatePeriodStatus flips a period between open and closed.
func (r *PgxPeriodRepository) UpdatePeriodStatus(ctx context.Context, periodID string, status domain.PeriodStatus, by string, at time.Time) error {
	var closedBy *string
	var closedAt *time.Time
	if status == domain.PeriodClosed {
		closedBy = &by
		closedAt = &at
	}
	query := `
		UPDATE fiscal_periods
		SET status = $2, closed_by = $3, closed_at = $4, last_updated_at = $5, last_updated_by = $6
		WHERE period_id = $1;
	`
	ct, err := r.Pool.Exec(ctx, query, periodID, status, closedBy, closedAt, at, by)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update period "+periodID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: period %s", apperrors.ErrNotFound, periodID)
	}
	return nil
}
