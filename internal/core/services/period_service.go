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

	"github.com/google/uuid"
)

// periodService manages fiscal periods and the chronological close
// discipline.
type periodService struct {
	periodRepo portsrepo.PeriodRepositoryFacade
	entryRepo  portsrepo.EntryReader
	clock      domain.Clock
}

// NewPeriodService creates a new fiscal period manager.
func NewPeriodService(periodRepo portsrepo.PeriodRepositoryFacade, entryRepo portsrepo.EntryReader, clock domain.Clock) portssvc.PeriodSvcFacade {
	return &periodService{
		periodRepo: periodRepo,
		entryRepo:  entryRepo,
		clock:      clock,
	}
}

var _ portssvc.PeriodSvcFacade = (*periodService)(nil)

// CreatePeriod registers a new open fiscal period.
func (s *periodService) CreatePeriod(ctx context.Context, req dto.CreatePeriodRequest, actingUser string) (*domain.FiscalPeriod, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.EndDate.Before(req.StartDate) {
		return nil, fmt.Errorf("%w: period end date precedes start date", apperrors.ErrValidation)
	}

	overlapping, err := s.periodRepo.FindOverlappingPeriod(ctx, req.StartDate, req.EndDate)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check period overlap: %w", err)
	}
	if overlapping != nil {
		return nil, fmt.Errorf("%w: range overlaps period %s", apperrors.ErrConflict, overlapping.Name)
	}

	now := s.clock.Now()
	period := domain.FiscalPeriod{
		PeriodID:   uuid.NewString(),
		Name:       req.Name,
		FiscalYear: req.FiscalYear,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Status:     domain.PeriodOpen,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actingUser,
			LastUpdatedAt: now,
			LastUpdatedBy: actingUser,
		},
	}

	if err := s.periodRepo.SavePeriod(ctx, period); err != nil {
		logger.Error("Failed to save period", slog.String("error", err.Error()), slog.String("name", req.Name))
		return nil, fmt.Errorf("failed to save period: %w", err)
	}

	logger.Info("Fiscal period created", slog.String("period_id", period.PeriodID), slog.String("name", period.Name))
	return &period, nil
}

// ClosePeriod closes a period. It fails while any draft or validated entry
// is dated inside the period, and periods close in chronological order.
func (s *periodService) ClosePeriod(ctx context.Context, periodID string, actingUser string) (*domain.FiscalPeriod, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	period, err := s.periodRepo.FindPeriodByID(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to find period %s: %w", periodID, err)
	}
	if !period.IsOpen() {
		return nil, fmt.Errorf("%w: period %s is already closed", apperrors.ErrConflict, period.Name)
	}

	earlierOpen, err := s.periodRepo.AnyOpenBefore(ctx, period.StartDate)
	if err != nil {
		return nil, fmt.Errorf("failed to check earlier periods: %w", err)
	}
	if earlierOpen {
		return nil, fmt.Errorf("%w: an earlier period is still open", apperrors.ErrConflict)
	}

	unposted, err := s.entryRepo.CountUnpostedInRange(ctx, period.StartDate, period.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to count unposted entries: %w", err)
	}
	if unposted > 0 {
		return nil, fmt.Errorf("%w: %d draft or validated entries dated in period %s", apperrors.ErrOpenTransactionsExist, unposted, period.Name)
	}

	now := s.clock.Now()
	if err := s.periodRepo.UpdatePeriodStatus(ctx, periodID, domain.PeriodClosed, actingUser, now); err != nil {
		logger.Error("Failed to close period", slog.String("error", err.Error()), slog.String("period_id", periodID))
		return nil, fmt.Errorf("failed to close period: %w", err)
	}

	period.Status = domain.PeriodClosed
	period.ClosedBy = actingUser
	period.ClosedAt = &now
	period.LastUpdatedAt = now
	period.LastUpdatedBy = actingUser

	logger.Info("Fiscal period closed", slog.String("period_id", periodID), slog.String("name", period.Name))
	return period, nil
}

// ReopenPeriod reopens a closed period, allowed only while no later period
// is closed so the closed history never develops retroactive gaps.
func (s *periodService) ReopenPeriod(ctx context.Context, periodID string, actingUser string) (*domain.FiscalPeriod, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	period, err := s.periodRepo.FindPeriodByID(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to find period %s: %w", periodID, err)
	}
	if period.IsOpen() {
		return nil, fmt.Errorf("%w: period %s is not closed", apperrors.ErrConflict, period.Name)
	}

	laterClosed, err := s.periodRepo.AnyClosedAfter(ctx, period.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to check later periods: %w", err)
	}
	if laterClosed {
		return nil, fmt.Errorf("%w: a later period is already closed", apperrors.ErrConflict)
	}

	now := s.clock.Now()
	if err := s.periodRepo.UpdatePeriodStatus(ctx, periodID, domain.PeriodOpen, actingUser, now); err != nil {
		logger.Error("Failed to reopen period", slog.String("error", err.Error()), slog.String("period_id", periodID))
		return nil, fmt.Errorf("failed to reopen period: %w", err)
	}

	period.Status = domain.PeriodOpen
	period.ClosedBy = ""
	period.ClosedAt = nil
	period.LastUpdatedAt = now
	period.LastUpdatedBy = actingUser

	logger.Info("Fiscal period reopened", slog.String("period_id", periodID), slog.String("name", period.Name))
	return period, nil
}

// GetPeriodByID retrieves a fiscal period.
func (s *periodService) GetPeriodByID(ctx context.Context, periodID string) (*domain.FiscalPeriod, error) {
	period, err := s.periodRepo.FindPeriodByID(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to find period %s: %w", periodID, err)
	}
	return period, nil
}

// FindPeriodForDate retrieves the period whose range contains the date.
func (s *periodService) FindPeriodForDate(ctx context.Context, date time.Time) (*domain.FiscalPeriod, error) {
	period, err := s.periodRepo.FindPeriodForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to find period for date %s: %w", date.Format("2006-01-02"), err)
	}
	return period, nil
}

// ListPeriods retrieves all periods in chronological order.
func (s *periodService) ListPeriods(ctx context.Context) (*dto.ListPeriodsResponse, error) {
	periods, err := s.periodRepo.ListPeriods(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}

	resp := &dto.ListPeriodsResponse{Periods: make([]dto.PeriodResponse, len(periods))}
	for i := range periods {
		resp.Periods[i] = dto.ToPeriodResponse(&periods[i])
	}
	return resp, nil
}
