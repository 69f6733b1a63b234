package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thesenegalesehitch/erp-ledger/internal/apperrors"
	"github.com/thesenegalesehitch/erp-ledger/internal/core/domain"
	portsrepo "github.com/thesenegalesehitch/erp-ledger/internal/core/ports/repositories"
	"github.com/thesenegalesehitch/erp-ledger/internal/utils/pagination"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const entryColumns = `entry_id, entry_number, entry_date, description, reference, currency_code, status, total_debit, total_credit, validated_by, validated_at, posted_by, posted_at, period_id, original_entry_id, reversing_entry_id, created_at, created_by, last_updated_at, last_updated_by`

const lineColumns = `line_id, entry_id, account_id, debit, credit, description, matched_statement_line_id, created_at, created_by, last_updated_at, last_updated_by`

// PgxEntryRepository persists journal entries and their lines. Posting is
// committed in a single transaction together with the account balance
// updates, so a partially posted entry is never observable.
type PgxEntryRepository struct {
	BaseRepository
	accountRepo *PgxAccountRepository
}

// NewEntryRepository creates a new repository for journal entry data.
func NewEntryRepository(pool *pgxpool.Pool, accountRepo *PgxAccountRepository) *PgxEntryRepository {
	return &PgxEntryRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

var _ portsrepo.EntryRepositoryFacade = (*PgxEntryRepository)(nil)

func scanEntry(row pgx.Row) (*domain.JournalEntry, error) {
	var entry domain.JournalEntry
	var validatedBy, postedBy, periodID *string
	err := row.Scan(
		&entry.EntryID,
		&entry.EntryNumber,
		&entry.EntryDate,
		&entry.Description,
		&entry.Reference,
		&entry.CurrencyCode,
		&entry.Status,
		&entry.TotalDebit,
		&entry.TotalCredit,
		&validatedBy,
		&entry.ValidatedAt,
		&postedBy,
		&entry.PostedAt,
		&periodID,
		&entry.OriginalEntryID,
		&entry.ReversingEntryID,
		&entry.CreatedAt,
		&entry.CreatedBy,
		&entry.LastUpdatedAt,
		&entry.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan entry row: %w", err)
	}
	if validatedBy != nil {
		entry.ValidatedBy = *validatedBy
	}
	if postedBy != nil {
		entry.PostedBy = *postedBy
	}
	if periodID != nil {
		entry.PeriodID = *periodID
	}
	return &entry, nil
}

func insertEntryTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry) error {
	query := `
		INSERT INTO journal_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20);
	`
	var validatedBy, postedBy, periodID *string
	if entry.ValidatedBy != "" {
		validatedBy = &entry.ValidatedBy
	}
	if entry.PostedBy != "" {
		postedBy = &entry.PostedBy
	}
	if entry.PeriodID != "" {
		periodID = &entry.PeriodID
	}
	_, err := tx.Exec(ctx, query,
		entry.EntryID,
		entry.EntryNumber,
		entry.EntryDate,
		entry.Description,
		entry.Reference,
		entry.CurrencyCode,
		entry.Status,
		entry.TotalDebit,
		entry.TotalCredit,
		validatedBy,
		entry.ValidatedAt,
		postedBy,
		entry.PostedAt,
		periodID,
		entry.OriginalEntryID,
		entry.ReversingEntryID,
		entry.CreatedAt,
		entry.CreatedBy,
		entry.LastUpdatedAt,
		entry.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert entry "+entry.EntryID, err)
	}
	return nil
}

func insertLinesTx(ctx context.Context, tx pgx.Tx, lines []domain.JournalLine) error {
	if len(lines) == 0 {
		return nil
	}
	query := `
		INSERT INTO journal_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	batch := &pgx.Batch{}
	for _, line := range lines {
		batch.Queue(query,
			line.LineID,
			line.EntryID,
			line.AccountID,
			line.Debit,
			line.Credit,
			line.Description,
			line.MatchedStatementLineID,
			line.CreatedAt,
			line.CreatedBy,
			line.LastUpdatedAt,
			line.LastUpdatedBy,
		)
	}
	br := tx.SendBatch(ctx, batch)
	defer br.Close()
	for range lines {
		if _, err := br.Exec(); err != nil {
			return apperrors.NewAppError(500, "failed to insert journal line", err)
		}
	}
	return nil
}

// SaveEntry persists a new draft entry and its initial lines atomically.
func (r *PgxEntryRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := insertEntryTx(ctx, tx, entry); err != nil {
		return err
	}
	if err := insertLinesTx(ctx, tx, entry.Lines); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// SaveLine appends a line to a draft entry.
func (r *PgxEntryRepository) SaveLine(ctx context.Context, line domain.JournalLine) error {
	query := `
		INSERT INTO journal_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.Pool.Exec(ctx, query,
		line.LineID,
		line.EntryID,
		line.AccountID,
		line.Debit,
		line.Credit,
		line.Description,
		line.MatchedStatementLineID,
		line.CreatedAt,
		line.CreatedBy,
		line.LastUpdatedAt,
		line.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert line for entry "+line.EntryID, err)
	}
	return nil
}

// DeleteLine removes a line from a draft entry.
func (r *PgxEntryRepository) DeleteLine(ctx context.Context, entryID, lineID string) error {
	ct, err := r.Pool.Exec(ctx, `DELETE FROM journal_lines WHERE line_id = $1 AND entry_id = $2;`, lineID, entryID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete line "+lineID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: line %s on entry %s", apperrors.ErrNotFound, lineID, entryID)
	}
	return nil
}

// DeleteEntry removes a draft entry; lines cascade with it.
func (r *PgxEntryRepository) DeleteEntry(ctx context.Context, entryID string) error {
	ct, err := r.Pool.Exec(ctx, `DELETE FROM journal_entries WHERE entry_id = $1 AND status = 'DRAFT';`, entryID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete entry "+entryID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: draft entry %s", apperrors.ErrNotFound, entryID)
	}
	return nil
}

// FindEntryByID retrieves an entry together with its lines.
func (r *PgxEntryRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE entry_id = $1;`
	entry, err := scanEntry(r.Pool.QueryRow(ctx, query, entryID))
	if err != nil {
		return nil, err
	}

	linesQuery := `SELECT ` + lineColumns + ` FROM journal_lines WHERE entry_id = $1 ORDER BY created_at, line_id;`
	rows, err := r.Pool.Query(ctx, linesQuery, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines for entry %s: %w", entryID, err)
	}
	defer rows.Close()

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
			return nil, fmt.Errorf("failed to scan line row: %w", err)
		}
		entry.Lines = append(entry.Lines, line)
	}
	return entry, rows.Err()
}

// ListEntries retrieves a filtered, keyset-paginated page of entries
// ordered by entry date descending.
func (r *PgxEntryRepository) ListEntries(ctx context.Context, filter portsrepo.ListEntriesFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE 1=1`
	args := []any{}
	argN := 1
	addArg := func(clause string, value any) {
		query += fmt.Sprintf(clause, argN)
		args = append(args, value)
		argN++
	}

	if filter.Status != nil {
		addArg(" AND status = $%d", *filter.Status)
	}
	if filter.PeriodID != nil {
		addArg(" AND period_id = $%d", *filter.PeriodID)
	}
	if filter.From != nil {
		addArg(" AND entry_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		addArg(" AND entry_date <= $%d", *filter.To)
	}
	if nextToken != nil {
		beforeDate, beforeID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		query += fmt.Sprintf(" AND (entry_date, entry_id) < ($%d, $%d)", argN, argN+1)
		args = append(args, beforeDate, beforeID)
		argN += 2
	}

	query += fmt.Sprintf(" ORDER BY entry_date DESC, entry_id DESC LIMIT $%d;", argN)
	args = append(args, limit+1)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var token *string
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[limit-1]
		t := pagination.EncodeToken(last.EntryDate, last.EntryID)
		token = &t
	}
	return entries, token, nil
}

// CountUnpostedInRange counts draft and validated entries dated within
// [from, to].
func (r *PgxEntryRepository) CountUnpostedInRange(ctx context.Context, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM journal_entries
		WHERE status IN ('DRAFT', 'VALIDATED')
		  AND entry_date >= $1 AND entry_date <= $2;
	`
	var count int
	if err := r.Pool.QueryRow(ctx, query, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unposted entries: %w", err)
	}
	return count, nil
}

// UpdateEntryValidated records the Draft -> Validated transition. The
// status guard in the WHERE clause keeps a concurrent post or discard from
// being overwritten.
func (r *PgxEntryRepository) UpdateEntryValidated(ctx context.Context, entry domain.JournalEntry) error {
	query := `
		UPDATE journal_entries
		SET status = $2, total_debit = $3, total_credit = $4, validated_by = $5, validated_at = $6, last_updated_at = $7, last_updated_by = $8
		WHERE entry_id = $1 AND status = 'DRAFT';
	`
	ct, err := r.Pool.Exec(ctx, query,
		entry.EntryID,
		entry.Status,
		entry.TotalDebit,
		entry.TotalCredit,
		entry.ValidatedBy,
		entry.ValidatedAt,
		entry.LastUpdatedAt,
		entry.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update entry "+entry.EntryID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: entry %s is no longer a draft", apperrors.ErrConflict, entry.EntryID)
	}
	return nil
}

// nextEntryNumberTx computes the next entry number for a period. Two
// transactions can race to the same number; the partial unique index on
// (period_id, entry_number) then fails one of them, which surfaces as a
// concurrency conflict and is retried by the posting engine.
func nextEntryNumberTx(ctx context.Context, tx pgx.Tx, periodID string) (int64, error) {
	var number int64
	query := `
		SELECT COALESCE(MAX(entry_number), 0) + 1
		FROM journal_entries
		WHERE period_id = $1 AND status = 'POSTED';
	`
	if err := tx.QueryRow(ctx, query, periodID).Scan(&number); err != nil {
		return 0, fmt.Errorf("failed to compute next entry number: %w", err)
	}
	return number, nil
}

func asConcurrencyConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return fmt.Errorf("%w: entry number already taken", apperrors.ErrConcurrencyConflict)
	}
	return err
}

// PostEntry commits a posting atomically: entry number assignment, the
// Validated -> Posted flip and every balance delta succeed or fail as one.
func (r *PgxEntryRepository) PostEntry(ctx context.Context, update portsrepo.PostingUpdate) (int64, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer r.Rollback(ctx, tx)

	entryNumber, err := nextEntryNumberTx(ctx, tx, update.PeriodID)
	if err != nil {
		return 0, err
	}

	entry := update.Entry
	query := `
		UPDATE journal_entries
		SET status = 'POSTED', entry_number = $2, period_id = $3, posted_by = $4, posted_at = $5, last_updated_at = $6, last_updated_by = $7
		WHERE entry_id = $1 AND status = 'VALIDATED';
	`
	ct, err := tx.Exec(ctx, query,
		entry.EntryID,
		entryNumber,
		update.PeriodID,
		entry.PostedBy,
		entry.PostedAt,
		entry.LastUpdatedAt,
		entry.LastUpdatedBy,
	)
	if err != nil {
		return 0, asConcurrencyConflict(err)
	}
	if ct.RowsAffected() == 0 {
		return 0, fmt.Errorf("%w: entry %s is not validated", apperrors.ErrConflict, entry.EntryID)
	}

	if err := r.accountRepo.applyBalanceDeltasInTx(ctx, tx, update.BalanceDeltas, update.ExpectedVersions, entry.PostedBy, entry.LastUpdatedAt); err != nil {
		return 0, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return 0, asConcurrencyConflict(err)
	}
	return entryNumber, nil
}

// PostReversal inserts and posts a reversing entry and links it to its
// original, all in one transaction. The NULL guard on reversing_entry_id
// enforces at most one reversal per entry.
func (r *PgxEntryRepository) PostReversal(ctx context.Context, update portsrepo.PostingUpdate, originalEntryID string) (int64, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer r.Rollback(ctx, tx)

	entryNumber, err := nextEntryNumberTx(ctx, tx, update.PeriodID)
	if err != nil {
		return 0, err
	}

	entry := update.Entry
	entry.EntryNumber = entryNumber
	if err := insertEntryTx(ctx, tx, entry); err != nil {
		return 0, asConcurrencyConflict(err)
	}
	if err := insertLinesTx(ctx, tx, entry.Lines); err != nil {
		return 0, err
	}

	linkQuery := `
		UPDATE journal_entries
		SET reversing_entry_id = $2, last_updated_at = $3, last_updated_by = $4
		WHERE entry_id = $1 AND reversing_entry_id IS NULL;
	`
	ct, err := tx.Exec(ctx, linkQuery, originalEntryID, entry.EntryID, entry.LastUpdatedAt, entry.LastUpdatedBy)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to link reversal to entry "+originalEntryID, err)
	}
	if ct.RowsAffected() == 0 {
		return 0, fmt.Errorf("%w: entry %s", apperrors.ErrAlreadyReversed, originalEntryID)
	}

	if err := r.accountRepo.applyBalanceDeltasInTx(ctx, tx, update.BalanceDeltas, update.ExpectedVersions, entry.PostedBy, entry.LastUpdatedAt); err != nil {
		return 0, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return 0, asConcurrencyConflict(err)
	}
	return entryNumber, nil
}
