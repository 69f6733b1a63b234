package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/thesenegalesehitch/erp-ledger/internal/apperrors"
	"github.com/thesenegalesehitch/erp-ledger/internal/core/domain"
	portsrepo "github.com/thesenegalesehitch/erp-ledger/internal/core/ports/repositories"
	portssvc "github.com/thesenegalesehitch/erp-ledger/internal/core/ports/services"
	"github.com/thesenegalesehitch/erp-ledger/internal/dto"
	"github.com/thesenegalesehitch/erp-ledger/internal/middleware"
	"github.com/thesenegalesehitch/erp-ledger/internal/utils/accounting"

	"github.com/google/uuid"
)

// postingRetries bounds the optimistic-concurrency retry loop on post.
const postingRetries = 3

// postingBackoff is the base delay between posting retries.
const postingBackoff = 25 * time.Millisecond

// entryService is the posting engine: it owns the journal entry aggregate
// and drives the Draft -> Validated -> Posted state machine.
type entryService struct {
	entryRepo  portsrepo.EntryRepositoryFacade
	periodRepo portsrepo.PeriodReader
	accountSvc portssvc.AccountSvcFacade
	clock      domain.Clock
}

// NewEntryService creates a new posting engine.
func NewEntryService(entryRepo portsrepo.EntryRepositoryFacade, periodRepo portsrepo.PeriodReader, accountSvc portssvc.AccountSvcFacade, clock domain.Clock) portssvc.EntrySvcFacade {
	return &entryService{
		entryRepo:  entryRepo,
		periodRepo: periodRepo,
		accountSvc: accountSvc,
		clock:      clock,
	}
}

var _ portssvc.EntrySvcFacade = (*entryService)(nil)

// checkLineAccount verifies a line's target account is suitable: present,
// active, postable, and in the entry's currency.
func (s *entryService) checkLineAccount(account *domain.Account, found bool, accountID, currencyCode string) error {
	if !found {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	if !account.IsActive {
		return fmt.Errorf("%w: account %s", apperrors.ErrInactiveAccount, account.Code)
	}
	if !account.IsPostable {
		return fmt.Errorf("%w: account %s is an aggregation account", apperrors.ErrNonPostableAccount, account.Code)
	}
	if account.CurrencyCode != currencyCode {
		return fmt.Errorf("%w: account currency %s does not match entry currency %s", apperrors.ErrValidation, account.CurrencyCode, currencyCode)
	}
	return nil
}

// CreateEntry opens a new draft entry, optionally with initial lines.
func (s *entryService) CreateEntry(ctx context.Context, req dto.CreateEntryRequest, actingUser string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Description == "" {
		return nil, fmt.Errorf("%w: entry description is required", apperrors.ErrValidation)
	}
	if req.EntryDate.IsZero() {
		return nil, fmt.Errorf("%w: entry date is required", apperrors.ErrValidation)
	}

	now := s.clock.Now()
	entryID := uuid.NewString()
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     actingUser,
		LastUpdatedAt: now,
		LastUpdatedBy: actingUser,
	}

	lines := make([]domain.JournalLine, len(req.Lines))
	accountIDs := make([]string, 0, len(req.Lines))
	for i, lineReq := range req.Lines {
		if err := accounting.ValidateLineSides(lineReq.Debit, lineReq.Credit); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidLine, err)
		}
		lines[i] = domain.JournalLine{
			LineID:      uuid.NewString(),
			EntryID:     entryID,
			AccountID:   lineReq.AccountID,
			Debit:       lineReq.Debit,
			Credit:      lineReq.Credit,
			Description: lineReq.Description,
			AuditFields: audit,
		}
		accountIDs = append(accountIDs, lineReq.AccountID)
	}

	if len(accountIDs) > 0 {
		accountsMap, err := s.accountSvc.GetAccountsByIDs(ctx, uniqueStrings(accountIDs))
		if err != nil {
			logger.Error("Failed to fetch accounts for entry creation", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to fetch accounts: %w", err)
		}
		for _, line := range lines {
			account, found := accountsMap[line.AccountID]
			if err := s.checkLineAccount(&account, found, line.AccountID, req.CurrencyCode); err != nil {
				return nil, err
			}
		}
	}

	totalDebit, totalCredit := accounting.ComputeTotals(lines)
	entry := domain.JournalEntry{
		EntryID:      entryID,
		EntryDate:    req.EntryDate,
		Description:  req.Description,
		Reference:    req.Reference,
		CurrencyCode: req.CurrencyCode,
		Status:       domain.Draft,
		TotalDebit:   totalDebit,
		TotalCredit:  totalCredit,
		Lines:        lines,
		AuditFields:  audit,
	}

	if err := s.entryRepo.SaveEntry(ctx, entry); err != nil {
		logger.Error("Failed to save entry", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}

	logger.Info("Entry created", slog.String("entry_id", entryID), slog.Int("lines", len(lines)))
	return &entry, nil
}

// fetchDraftForEdit loads an entry and enforces draft-only, creator-only
// mutation.
func (s *entryService) fetchDraftForEdit(ctx context.Context, entryID, actingUser string) (*domain.JournalEntry, error) {
	entry, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find entry %s: %w", entryID, err)
	}
	if entry.Status != domain.Draft {
		return nil, fmt.Errorf("%w: entry %s is %s", apperrors.ErrImmutableEntry, entryID, entry.Status)
	}
	if entry.CreatedBy != actingUser {
		return nil, fmt.Errorf("%w: only the creator may edit a draft entry", apperrors.ErrForbidden)
	}
	return entry, nil
}

// AddLine appends a line to a draft entry.
func (s *entryService) AddLine(ctx context.Context, entryID string, req dto.CreateLineRequest, actingUser string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.fetchDraftForEdit(ctx, entryID, actingUser)
	if err != nil {
		return nil, err
	}

	if err := accounting.ValidateLineSides(req.Debit, req.Credit); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidLine, err)
	}

	account, err := s.accountSvc.GetAccountByID(ctx, req.AccountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, req.AccountID)
		}
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}
	if err := s.checkLineAccount(account, true, req.AccountID, entry.CurrencyCode); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	line := domain.JournalLine{
		LineID:      uuid.NewString(),
		EntryID:     entryID,
		AccountID:   req.AccountID,
		Debit:       req.Debit,
		Credit:      req.Credit,
		Description: req.Description,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actingUser,
			LastUpdatedAt: now,
			LastUpdatedBy: actingUser,
		},
	}

	if err := s.entryRepo.SaveLine(ctx, line); err != nil {
		logger.Error("Failed to save line", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to save line: %w", err)
	}

	entry.Lines = append(entry.Lines, line)
	entry.TotalDebit, entry.TotalCredit = accounting.ComputeTotals(entry.Lines)
	return entry, nil
}

// RemoveLine deletes a line from a draft entry.
func (s *entryService) RemoveLine(ctx context.Context, entryID, lineID string, actingUser string) error {
	entry, err := s.fetchDraftForEdit(ctx, entryID, actingUser)
	if err != nil {
		return err
	}

	found := false
	for _, line := range entry.Lines {
		if line.LineID == lineID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: line %s on entry %s", apperrors.ErrNotFound, lineID, entryID)
	}

	if err := s.entryRepo.DeleteLine(ctx, entryID, lineID); err != nil {
		return fmt.Errorf("failed to delete line: %w", err)
	}
	return nil
}

// ValidateEntry checks structure and balance and moves Draft -> Validated.
// No account balance changes yet.
func (s *entryService) ValidateEntry(ctx context.Context, entryID string, actingUser string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find entry %s: %w", entryID, err)
	}

	switch entry.Status {
	case domain.Posted:
		return nil, fmt.Errorf("%w: entry %s is posted", apperrors.ErrImmutableEntry, entryID)
	case domain.Validated:
		return entry, nil
	}

	if len(entry.Lines) == 0 {
		return nil, fmt.Errorf("%w: entry %s", apperrors.ErrEmptyEntry, entryID)
	}

	totalDebit, totalCredit := accounting.ComputeTotals(entry.Lines)
	if !totalDebit.Equal(totalCredit) {
		return nil, fmt.Errorf("%w: debits %s, credits %s", apperrors.ErrUnbalanced, totalDebit.String(), totalCredit.String())
	}

	// Accounts may have been deactivated since the lines were created.
	accountIDs := make([]string, 0, len(entry.Lines))
	for _, line := range entry.Lines {
		accountIDs = append(accountIDs, line.AccountID)
	}
	accountsMap, err := s.accountSvc.GetAccountsByIDs(ctx, uniqueStrings(accountIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	for _, line := range entry.Lines {
		account, found := accountsMap[line.AccountID]
		if err := s.checkLineAccount(&account, found, line.AccountID, entry.CurrencyCode); err != nil {
			return nil, err
		}
	}

	entry.MarkValidated(totalDebit, totalCredit, actingUser, s.clock.Now())
	if err := s.entryRepo.UpdateEntryValidated(ctx, *entry); err != nil {
		logger.Error("Failed to persist validation", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to persist validation: %w", err)
	}

	logger.Info("Entry validated", slog.String("entry_id", entryID), slog.String("total", totalDebit.String()))
	return entry, nil
}

// resolveOpenPeriod finds the fiscal period covering the entry date and
// requires it to be open.
func (s *entryService) resolveOpenPeriod(ctx context.Context, entryDate time.Time) (*domain.FiscalPeriod, error) {
	period, err := s.periodRepo.FindPeriodForDate(ctx, entryDate)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no fiscal period covers %s", apperrors.ErrNotFound, entryDate.Format("2006-01-02"))
		}
		return nil, fmt.Errorf("failed to resolve fiscal period: %w", err)
	}
	if !period.Contains(entryDate) {
		return nil, fmt.Errorf("%w: period %s does not cover %s", apperrors.ErrNotFound, period.Name, entryDate.Format("2006-01-02"))
	}
	if !period.IsOpen() {
		return nil, fmt.Errorf("%w: period %s", apperrors.ErrPeriodClosed, period.Name)
	}
	return period, nil
}

// buildPostingUpdate computes the per-account balance deltas for an
// entry's lines and snapshots the balance versions the commit must match.
func (s *entryService) buildPostingUpdate(ctx context.Context, entry *domain.JournalEntry, periodID string) (*portsrepo.PostingUpdate, error) {
	accountIDs := make([]string, 0, len(entry.Lines))
	for _, line := range entry.Lines {
		accountIDs = append(accountIDs, line.AccountID)
	}
	accountsMap, err := s.accountSvc.GetAccountsByIDs(ctx, uniqueStrings(accountIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}

	accountTypes := make(map[string]domain.AccountType, len(accountsMap))
	expectedVersions := make(map[string]int64, len(accountsMap))
	for id, account := range accountsMap {
		accountTypes[id] = account.AccountType
		expectedVersions[id] = account.BalanceVersion
	}
	for _, line := range entry.Lines {
		if _, found := accountsMap[line.AccountID]; !found {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, line.AccountID)
		}
	}

	deltas, err := accounting.BalanceDeltas(entry.Lines, accountTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to compute balance deltas: %w", err)
	}

	return &portsrepo.PostingUpdate{
		Entry:            *entry,
		PeriodID:         periodID,
		BalanceDeltas:    deltas,
		ExpectedVersions: expectedVersions,
	}, nil
}

// commitWithRetry runs the atomic commit, re-reading balance versions and
// retrying a bounded number of times on optimistic-concurrency conflicts.
func (s *entryService) commitWithRetry(ctx context.Context, logger *slog.Logger, entry *domain.JournalEntry, periodID string, commit func(portsrepo.PostingUpdate) (int64, error)) (int64, error) {
	var lastErr error
	for attempt := 1; attempt <= postingRetries; attempt++ {
		update, err := s.buildPostingUpdate(ctx, entry, periodID)
		if err != nil {
			return 0, err
		}
		entryNumber, err := commit(*update)
		if err == nil {
			return entryNumber, nil
		}
		if !errors.Is(err, apperrors.ErrConcurrencyConflict) {
			return 0, err
		}
		lastErr = err
		logger.Warn("Posting conflict, retrying", slog.String("entry_id", entry.EntryID), slog.Int("attempt", attempt))
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Duration(attempt) * postingBackoff):
		}
	}
	return 0, lastErr
}

// PostEntry commits a validated entry into an open fiscal period. All
// balance updates for the entry commit atomically; a torn post is never
// observable.
func (s *entryService) PostEntry(ctx context.Context, entryID string, actingUser string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find entry %s: %w", entryID, err)
	}

	switch entry.Status {
	case domain.Posted:
		return nil, fmt.Errorf("%w: entry %s is already posted", apperrors.ErrImmutableEntry, entryID)
	case domain.Draft:
		return nil, fmt.Errorf("%w: entry %s must be validated before posting", apperrors.ErrValidation, entryID)
	}

	period, err := s.resolveOpenPeriod(ctx, entry.EntryDate)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	entry.MarkPosted(0, period.PeriodID, actingUser, now)

	entryNumber, err := s.commitWithRetry(ctx, logger, entry, period.PeriodID, func(update portsrepo.PostingUpdate) (int64, error) {
		return s.entryRepo.PostEntry(ctx, update)
	})
	if err != nil {
		logger.Error("Failed to post entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to post entry %s: %w", entryID, err)
	}

	entry.EntryNumber = entryNumber
	logger.Info("Entry posted", slog.String("entry_id", entryID), slog.Int64("entry_number", entryNumber), slog.String("period_id", period.PeriodID))
	return entry, nil
}

// ReverseEntry creates, validates and posts the offsetting entry for a
// posted one. The original entry's lines and status are never touched; it
// only gains the reversal link.
func (s *entryService) ReverseEntry(ctx context.Context, entryID string, reason string, actingUser string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find entry %s: %w", entryID, err)
	}

	if original.Status != domain.Posted {
		return nil, fmt.Errorf("%w: entry %s is %s, only posted entries can be reversed", apperrors.ErrConflict, entryID, original.Status)
	}
	if original.IsReversed() {
		return nil, fmt.Errorf("%w: entry %s", apperrors.ErrAlreadyReversed, entryID)
	}
	if original.IsReversal() {
		return nil, fmt.Errorf("%w: entry %s is itself a reversal", apperrors.ErrConflict, entryID)
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: reversal reason is required", apperrors.ErrValidation)
	}

	period, err := s.resolveOpenPeriod(ctx, original.EntryDate)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	reversalID := uuid.NewString()
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     actingUser,
		LastUpdatedAt: now,
		LastUpdatedBy: actingUser,
	}

	lines := make([]domain.JournalLine, len(original.Lines))
	for i, origLine := range original.Lines {
		lines[i] = domain.JournalLine{
			LineID:      uuid.NewString(),
			EntryID:     reversalID,
			AccountID:   origLine.AccountID,
			Debit:       origLine.Credit,
			Credit:      origLine.Debit,
			Description: origLine.Description,
			AuditFields: audit,
		}
	}

	reversal := &domain.JournalEntry{
		EntryID:         reversalID,
		EntryDate:       original.EntryDate,
		Description:     fmt.Sprintf("Reversal of entry %d: %s", original.EntryNumber, reason),
		Reference:       original.Reference,
		CurrencyCode:    original.CurrencyCode,
		Status:          domain.Draft,
		OriginalEntryID: &original.EntryID,
		Lines:           lines,
		AuditFields:     audit,
	}

	// Balanced by construction; validate and post in one atomic commit.
	totalDebit, totalCredit := accounting.ComputeTotals(lines)
	reversal.MarkValidated(totalDebit, totalCredit, actingUser, now)
	reversal.MarkPosted(0, period.PeriodID, actingUser, now)

	entryNumber, err := s.commitWithRetry(ctx, logger, reversal, period.PeriodID, func(update portsrepo.PostingUpdate) (int64, error) {
		return s.entryRepo.PostReversal(ctx, update, original.EntryID)
	})
	if err != nil {
		logger.Error("Failed to post reversal", slog.String("error", err.Error()), slog.String("original_entry_id", entryID))
		return nil, fmt.Errorf("failed to reverse entry %s: %w", entryID, err)
	}

	reversal.EntryNumber = entryNumber
	logger.Info("Entry reversed", slog.String("original_entry_id", entryID), slog.String("reversing_entry_id", reversalID))
	return reversal, nil
}

// GetEntryByID retrieves an entry with its lines.
func (s *entryService) GetEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find entry %s: %w", entryID, err)
	}
	return entry, nil
}

// ListEntries retrieves a paginated, filtered list of entries.
func (s *entryService) ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	filter := portsrepo.ListEntriesFilter{
		Status:   params.Status,
		PeriodID: params.PeriodID,
		From:     params.From,
		To:       params.To,
	}
	entries, nextToken, err := s.entryRepo.ListEntries(ctx, filter, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	resp := &dto.ListEntriesResponse{
		Entries:   make([]dto.EntryResponse, len(entries)),
		NextToken: nextToken,
	}
	for i := range entries {
		resp.Entries[i] = dto.ToEntryResponse(&entries[i])
	}
	return resp, nil
}

// DiscardEntry deletes a draft entry with its lines. Nothing external has
// been touched by a draft, so discarding has no side effects.
func (s *entryService) DiscardEntry(ctx context.Context, entryID string, actingUser string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.fetchDraftForEdit(ctx, entryID, actingUser); err != nil {
		return err
	}

	if err := s.entryRepo.DeleteEntry(ctx, entryID); err != nil {
		return fmt.Errorf("failed to delete entry %s: %w", entryID, err)
	}

	logger.Info("Draft entry discarded", slog.String("entry_id", entryID))
	return nil
}

// uniqueStrings returns a slice containing only the unique strings from the input.
func uniqueStrings(input []string) []string {
	seen := make(map[string]struct{}, len(input))
	result := make([]string, 0, len(input))
	for _, str := range input {
		if _, ok := seen[str]; !ok {
			seen[str] = struct{}{}
			result = append(result, str)
		}
	}
	return result
}
