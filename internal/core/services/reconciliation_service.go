package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/thesenegalesehitch/erp-ledger/internal/apperrors"
	"github.com/thesenegalesehitch/erp-ledger/internal/core/domain"
	portsrepo "github.com/thesenegalesehitch/erp-ledger/internal/core/ports/repositories"
	portssvc "github.com/thesenegalesehitch/erp-ledger/internal/core/ports/services"
	"github.com/thesenegalesehitch/erp-ledger/internal/dto"
	"github.com/thesenegalesehitch/erp-ledger/internal/middleware"

	"github.com/google/uuid"
)

// matchDateTolerance is how far a posted line's entry date may sit from
// the statement date and still count as a plausible match.
const matchDateTolerance = 3 * 24 * time.Hour

// reconciliationService pairs posted journal lines with external
// statement records.
type reconciliationService struct {
	reconRepo  portsrepo.ReconciliationRepositoryFacade
	periodRepo portsrepo.PeriodReader
	accountSvc portssvc.AccountSvcFacade
	clock      domain.Clock
}

// NewReconciliationService creates a new reconciliation engine.
func NewReconciliationService(reconRepo portsrepo.ReconciliationRepositoryFacade, periodRepo portsrepo.PeriodReader, accountSvc portssvc.AccountSvcFacade, clock domain.Clock) portssvc.ReconciliationSvcFacade {
	return &reconciliationService{
		reconRepo:  reconRepo,
		periodRepo: periodRepo,
		accountSvc: accountSvc,
		clock:      clock,
	}
}

var _ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)

// MatchStatementLine pairs one external statement record with the single
// plausible unmatched posted line on the account. More than one candidate
// is never guessed at; the caller resolves the ambiguity manually.
func (s *reconciliationService) MatchStatementLine(ctx context.Context, accountID string, req dto.MatchStatementLineRequest, actingUser string) (*dto.MatchResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.accountSvc.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}

	if req.Amount.IsZero() {
		return nil, fmt.Errorf("%w: statement amount must be nonzero", apperrors.ErrValidation)
	}

	from := req.StatementDate.Add(-matchDateTolerance)
	to := req.StatementDate.Add(matchDateTolerance)
	candidates, err := s.reconRepo.FindCandidateLines(ctx, accountID, req.Amount, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to search candidate lines: %w", err)
	}

	switch len(candidates) {
	case 0:
		return nil, fmt.Errorf("%w: no unreconciled posted line on account %s matches %s around %s",
			apperrors.ErrNotFound, account.Code, req.Amount.String(), req.StatementDate.Format("2006-01-02"))
	case 1:
		// Fall through to pairing.
	default:
		logger.Warn("Ambiguous reconciliation match", slog.String("account_id", accountID), slog.Int("candidates", len(candidates)))
		return nil, fmt.Errorf("%w: %d posted lines on account %s match %s",
			apperrors.ErrAmbiguousReconciliation, len(candidates), account.Code, req.Amount.String())
	}

	matched := candidates[0]
	now := s.clock.Now()
	stmt := domain.StatementLine{
		StatementLineID: uuid.NewString(),
		AccountID:       accountID,
		StatementDate:   req.StatementDate,
		Amount:          req.Amount,
		Reference:       req.Reference,
		MatchedLineID:   &matched.LineID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actingUser,
			LastUpdatedAt: now,
			LastUpdatedBy: actingUser,
		},
	}

	if err := s.reconRepo.SaveMatch(ctx, stmt, matched.LineID); err != nil {
		logger.Error("Failed to save reconciliation match", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to save match: %w", err)
	}

	logger.Info("Statement line matched", slog.String("account_id", accountID), slog.String("line_id", matched.LineID))
	return &dto.MatchResponse{
		StatementLineID: stmt.StatementLineID,
		MatchedLineID:   matched.LineID,
		EntryID:         matched.EntryID,
	}, nil
}

// Summarize produces the reconciliation record for an account over a
// fiscal period. Matching is complete once every statement line has been
// consumed; only then can the record settle as Balanced or Discrepancy.
func (s *reconciliationService) Summarize(ctx context.Context, accountID, periodID string, actingUser string) (*domain.Reconciliation, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.accountSvc.GetAccountByID(ctx, accountID); err != nil {
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	period, err := s.periodRepo.FindPeriodByID(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to find period %s: %w", periodID, err)
	}

	totals, err := s.reconRepo.FetchTotals(ctx, accountID, period.StartDate, period.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reconciliation totals: %w", err)
	}

	difference := totals.TotalExternal.Sub(totals.TotalInternal)
	status := domain.ReconciliationInProgress
	if totals.UnmatchedStmts == 0 {
		if difference.IsZero() {
			status = domain.ReconciliationBalanced
		} else {
			status = domain.ReconciliationDiscrepancy
		}
	}

	now := s.clock.Now()
	rec := domain.Reconciliation{
		ReconciliationID: uuid.NewString(),
		AccountID:        accountID,
		PeriodID:         periodID,
		Status:           status,
		TotalInternal:    totals.TotalInternal,
		TotalExternal:    totals.TotalExternal,
		Difference:       difference,
		PerformedBy:      actingUser,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actingUser,
			LastUpdatedAt: now,
			LastUpdatedBy: actingUser,
		},
	}

	if err := s.reconRepo.SaveReconciliation(ctx, rec); err != nil {
		logger.Error("Failed to save reconciliation", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to save reconciliation: %w", err)
	}

	logger.Info("Reconciliation summarized", slog.String("account_id", accountID), slog.String("period_id", periodID), slog.String("status", string(status)))
	return &rec, nil
}
