package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/thesenegalesehitch/erp-ledger/internal/apperrors"
	"github.com/thesenegalesehitch/erp-ledger/internal/core/domain"
	portsrepo "github.com/thesenegalesehitch/erp-ledger/internal/core/ports/repositories"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PgxReconciliationRepository persists statement lines, matches and
// reconciliation summaries.
type PgxReconciliationRepository struct {
	BaseRepository
}

// NewReconciliationRepository creates a new repository for reconciliation data.
func NewReconciliationRepository(pool *pgxpool.Pool) *PgxReconciliationRepository {
	return &PgxReconciliationRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ReconciliationRepositoryFacade = (*PgxReconciliationRepository)(nil)

// FindCandidateLines retrieves unmatched posted lines on an account that
// match a signed statement amount within [from, to]. A positive amount is
// money in and searches debit lines; a negative amount searches credit
// lines. The comparison is by magnitude on the selected side.
func (r *PgxReconciliationRepository) FindCandidateLines(ctx context.Context, accountID string, amount decimal.Decimal, from, to time.Time) ([]domain.JournalLine, error) {
	side := "jl.debit"
	if amount.IsNegative() {
		side = "jl.credit"
	}
	query := `
		SELECT ` + lineColumns + `
		FROM journal_lines jl
		JOIN journal_entries je ON je.entry_id = jl.entry_id
		WHERE jl.account_id = $1
		  AND je.status = 'POSTED'
		  AND jl.matched_statement_line_id IS NULL
		  AND ` + side + ` = $2
		  AND je.entry_date >= $3 AND je.entry_date <= $4
		ORDER BY je.entry_date, jl.line_id;
	`
	rows, err := r.Pool.Query(ctx, query, accountID, amount.Abs(), from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidate lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.JournalLine
	for rows.Next() {
		var line domain.JournalLine
		err := rows.Scan(
			&line.LineID,
			&line.EntryID,
			&line.AccountID,
			&line.Debit,
			&line.Credit,
			&line.Description,
			&line.MatchedStatementLineID,
			&line.CreatedAt,
			&line.CreatedBy,
			&line.LastUpdatedAt,
			&line.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// FetchTotals aggregates matched and unmatched volumes for an account over
// a period's date range. Both totals use the statement sign convention,
// debits positive and credits negative, so a fully matched account nets
// to a zero difference.
func (r *PgxReconciliationRepository) FetchTotals(ctx context.Context, accountID string, from, to time.Time) (*portsrepo.ReconciliationTotals, error) {
	totals := &portsrepo.ReconciliationTotals{}

	lineQuery := `
		SELECT
			COALESCE(SUM(CASE WHEN jl.matched_statement_line_id IS NOT NULL THEN jl.debit - jl.credit ELSE 0 END), 0),
			COUNT(*) FILTER (WHERE jl.matched_statement_line_id IS NULL)
		FROM journal_lines jl
		JOIN journal_entries je ON je.entry_id = jl.entry_id
		WHERE jl.account_id = $1
		  AND je.status = 'POSTED'
		  AND je.entry_date >= $2 AND je.entry_date <= $3;
	`
	if err := r.Pool.QueryRow(ctx, lineQuery, accountID, from, to).Scan(&totals.TotalInternal, &totals.UnmatchedLines); err != nil {
		return nil, fmt.Errorf("failed to aggregate journal lines: %w", err)
	}

	stmtQuery := `
		SELECT
			COALESCE(SUM(CASE WHEN matched_line_id IS NOT NULL THEN amount ELSE 0 END), 0),
			COUNT(*) FILTER (WHERE matched_line_id IS NULL)
		FROM statement_lines
		WHERE account_id = $1
		  AND statement_date >= $2 AND statement_date <= $3;
	`
	if err := r.Pool.QueryRow(ctx, stmtQuery, accountID, from, to).Scan(&totals.TotalExternal, &totals.UnmatchedStmts); err != nil {
		return nil, fmt.Errorf("failed to aggregate statement lines: %w", err)
	}
	return totals, nil
}

// SaveMatch persists the statement line and pairs it with the journal line
// in one transaction. The NULL guard on the line keeps two statements from
// consuming the same posted line.
func (r *PgxReconciliationRepository) SaveMatch(ctx context.Context, stmt domain.StatementLine, lineID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	insertQuery := `
		INSERT INTO statement_lines (statement_line_id, account_id, statement_date, amount, reference, matched_line_id, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err = tx.Exec(ctx, insertQuery,
		stmt.StatementLineID,
		stmt.AccountID,
		stmt.StatementDate,
		stmt.Amount,
		stmt.Reference,
		lineID,
		stmt.CreatedAt,
		stmt.CreatedBy,
		stmt.LastUpdatedAt,
		stmt.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert statement line "+stmt.StatementLineID, err)
	}

	updateQuery := `
		UPDATE journal_lines
		SET matched_statement_line_id = $2, last_updated_at = $3, last_updated_by = $4
		WHERE line_id = $1 AND matched_statement_line_id IS NULL;
	`
	ct, err := tx.Exec(ctx, updateQuery, lineID, stmt.StatementLineID, stmt.LastUpdatedAt, stmt.LastUpdatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark line "+lineID+" as matched", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: line %s is already matched", apperrors.ErrConflict, lineID)
	}
	return r.Commit(ctx, tx)
}

// SaveReconciliation persists a reconciliation summary record.
func (r *PgxReconciliationRepository) SaveReconciliation(ctx context.Context, rec domain.Reconciliation) error {
	query := `
		INSERT INTO reconciliations (reconciliation_id, account_id, period_id, status, total_internal, total_external, difference, performed_by, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.Pool.Exec(ctx, query,
		rec.ReconciliationID,
		rec.AccountID,
		rec.PeriodID,
		rec.Status,
		rec.TotalInternal,
		rec.TotalExternal,
		rec.Difference,
		rec.PerformedBy,
		rec.CreatedAt,
		rec.CreatedBy,
		rec.LastUpdatedAt,
		rec.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert reconciliation "+rec.ReconciliationID, err)
	}
	return nil
}
