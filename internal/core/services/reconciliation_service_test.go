package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/thesenegalesehitch/erp-ledger/internal/apperrors"
	"github.com/thesenegalesehitch/erp-ledger/internal/core/domain"
	portsrepo "github.com/thesenegalesehitch/erp-ledger/internal/core/ports/repositories"
	portssvc "github.com/thesenegalesehitch/erp-ledger/internal/core/ports/services"
	"github.com/thesenegalesehitch/erp-ledger/internal/core/services"
	"github.com/thesenegalesehitch/erp-ledger/internal/dto"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ReconciliationServiceTestSuite struct {
	suite.Suite
	mockReconRepo  *MockReconciliationRepository
	mockPeriodRepo *MockPeriodRepository
	mockAccountSvc *MockAccountService
	service        portssvc.ReconciliationSvcFacade

	accountID string
	account   *domain.Account
	period    *domain.FiscalPeriod
}

func (suite *ReconciliationServiceTestSuite) SetupTest() {
	suite.mockReconRepo = new(MockReconciliationRepository)
	suite.mockPeriodRepo = new(MockPeriodRepository)
	suite.mockAccountSvc = new(MockAccountService)
	suite.service = services.NewReconciliationService(suite.mockReconRepo, suite.mockPeriodRepo, suite.mockAccountSvc, fixedClock{now: testNow})

	suite.accountID = uuid.NewString()
	suite.account = &domain.Account{
		AccountID:    suite.accountID,
		Code:         "512000",
		Name:         "Bank",
		AccountType:  domain.Asset,
		CurrencyCode: "EUR",
		IsPostable:   true,
		IsActive:     true,
	}
	suite.period = &domain.FiscalPeriod{
		PeriodID:  uuid.NewString(),
		Name:      "2024-03",
		StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:    domain.PeriodOpen,
	}
}

func (suite *ReconciliationServiceTestSuite) TestMatchStatementLine_Success() {
	ctx := context.Background()
	actingUser := uuid.NewString()
	amount := decimal.NewFromFloat(845.10)
	stmtDate := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	candidate := domain.JournalLine{
		LineID:    uuid.NewString(),
		EntryID:   uuid.NewString(),
		AccountID: suite.accountID,
		Debit:     amount,
	}

	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.accountID).Return(suite.account, nil).Once()
	suite.mockReconRepo.On("FindCandidateLines", ctx, suite.accountID, amount,
		stmtDate.Add(-3*24*time.Hour), stmtDate.Add(3*24*time.Hour)).
		Return([]domain.JournalLine{candidate}, nil).Once()
	suite.mockReconRepo.On("SaveMatch", ctx, mock.AnythingOfType("domain.StatementLine"), candidate.LineID).Return(nil).Once()

	resp, err := suite.service.MatchStatementLine(ctx, suite.accountID, dto.MatchStatementLineRequest{
		StatementDate: stmtDate,
		Amount:        amount,
		Reference:     "VIR-20240312",
	}, actingUser)

	suite.Require().NoError(err)
	suite.Require().NotNil(resp)
	suite.Equal(candidate.LineID, resp.MatchedLineID)
	suite.Equal(candidate.EntryID, resp.EntryID)
	suite.NotEmpty(resp.StatementLineID)
	suite.mockReconRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestMatchStatementLine_NoCandidate() {
	ctx := context.Background()
	stmtDate := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)

	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.accountID).Return(suite.account, nil).Once()
	suite.mockReconRepo.On("FindCandidateLines", ctx, suite.accountID, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.JournalLine{}, nil).Once()

	resp, err := suite.service.MatchStatementLine(ctx, suite.accountID, dto.MatchStatementLineRequest{
		StatementDate: stmtDate,
		Amount:        decimal.NewFromInt(12),
	}, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(resp)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockReconRepo.AssertNotCalled(suite.T(), "SaveMatch", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestMatchStatementLine_Ambiguous() {
	ctx := context.Background()
	stmtDate := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	amount := decimal.NewFromInt(100)
	candidates := []domain.JournalLine{
		{LineID: uuid.NewString(), AccountID: suite.accountID, Debit: amount},
		{LineID: uuid.NewString(), AccountID: suite.accountID, Debit: amount},
	}

	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.accountID).Return(suite.account, nil).Once()
	suite.mockReconRepo.On("FindCandidateLines", ctx, suite.accountID, amount, mock.Anything, mock.Anything).
		Return(candidates, nil).Once()

	resp, err := suite.service.MatchStatementLine(ctx, suite.accountID, dto.MatchStatementLineRequest{
		StatementDate: stmtDate,
		Amount:        amount,
	}, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(resp)
	suite.ErrorIs(err, apperrors.ErrAmbiguousReconciliation)
	suite.mockReconRepo.AssertNotCalled(suite.T(), "SaveMatch", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestMatchStatementLine_NegativeAmountPassedSigned() {
	ctx := context.Background()
	stmtDate := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	amount := decimal.NewFromFloat(-56.70)
	candidate := domain.JournalLine{
		LineID:    uuid.NewString(),
		EntryID:   uuid.NewString(),
		AccountID: suite.accountID,
		Credit:    amount.Abs(),
	}

	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.accountID).Return(suite.account, nil).Once()
	suite.mockReconRepo.On("FindCandidateLines", ctx, suite.accountID, amount, mock.Anything, mock.Anything).
		Return([]domain.JournalLine{candidate}, nil).Once()
	suite.mockReconRepo.On("SaveMatch", ctx, mock.AnythingOfType("domain.StatementLine"), candidate.LineID).Return(nil).Once()

	resp, err := suite.service.MatchStatementLine(ctx, suite.accountID, dto.MatchStatementLineRequest{
		StatementDate: stmtDate,
		Amount:        amount,
	}, uuid.NewString())

	suite.Require().NoError(err)
	suite.Equal(candidate.LineID, resp.MatchedLineID)
	suite.mockReconRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestSummarize_Balanced() {
	ctx := context.Background()
	actingUser := uuid.NewString()
	totals := &portsrepo.ReconciliationTotals{
		TotalInternal:  decimal.NewFromInt(5000),
		TotalExternal:  decimal.NewFromInt(5000),
		UnmatchedLines: 0,
		UnmatchedStmts: 0,
	}

	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.accountID).Return(suite.account, nil).Once()
	suite.mockPeriodRepo.On("FindPeriodByID", ctx, suite.period.PeriodID).Return(suite.period, nil).Once()
	suite.mockReconRepo.On("FetchTotals", ctx, suite.accountID, suite.period.StartDate, suite.period.EndDate).Return(totals, nil).Once()
	suite.mockReconRepo.On("SaveReconciliation", ctx, mock.AnythingOfType("domain.Reconciliation")).Return(nil).Once()

	rec, err := suite.service.Summarize(ctx, suite.accountID, suite.period.PeriodID, actingUser)

	suite.Require().NoError(err)
	suite.Equal(domain.ReconciliationBalanced, rec.Status)
	suite.True(rec.Difference.IsZero())
	suite.Equal(actingUser, rec.PerformedBy)
	suite.mockReconRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestSummarize_MixedSignsBalanced() {
	ctx := context.Background()
	// A deposit of 100.00 matched to a debit line and a withdrawal of
	// 56.70 matched to a credit line net to the same signed total on both
	// sides, so the account settles as balanced.
	netTotal := decimal.NewFromInt(100).Sub(decimal.NewFromFloat(56.70))
	totals := &portsrepo.ReconciliationTotals{
		TotalInternal:  netTotal,
		TotalExternal:  netTotal,
		UnmatchedLines: 0,
		UnmatchedStmts: 0,
	}

	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.accountID).Return(suite.account, nil).Once()
	suite.mockPeriodRepo.On("FindPeriodByID", ctx, suite.period.PeriodID).Return(suite.period, nil).Once()
	suite.mockReconRepo.On("FetchTotals", ctx, suite.accountID, suite.period.StartDate, suite.period.EndDate).Return(totals, nil).Once()
	suite.mockReconRepo.On("SaveReconciliation", ctx, mock.AnythingOfType("domain.Reconciliation")).Return(nil).Once()

	rec, err := suite.service.Summarize(ctx, suite.accountID, suite.period.PeriodID, uuid.NewString())

	suite.Require().NoError(err)
	suite.Equal(domain.ReconciliationBalanced, rec.Status)
	suite.True(rec.Difference.IsZero())
	suite.True(rec.TotalInternal.Equal(decimal.NewFromFloat(43.30)))
}

func (suite *ReconciliationServiceTestSuite) TestSummarize_Discrepancy() {
	ctx := context.Background()
	totals := &portsrepo.ReconciliationTotals{
		TotalInternal:  decimal.NewFromInt(5000),
		TotalExternal:  decimal.NewFromFloat(5120.40),
		UnmatchedStmts: 0,
	}

	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.accountID).Return(suite.account, nil).Once()
	suite.mockPeriodRepo.On("FindPeriodByID", ctx, suite.period.PeriodID).Return(suite.period, nil).Once()
	suite.mockReconRepo.On("FetchTotals", ctx, suite.accountID, suite.period.StartDate, suite.period.EndDate).Return(totals, nil).Once()
	suite.mockReconRepo.On("SaveReconciliation", ctx, mock.AnythingOfType("domain.Reconciliation")).Return(nil).Once()

	rec, err := suite.service.Summarize(ctx, suite.accountID, suite.period.PeriodID, uuid.NewString())

	suite.Require().NoError(err)
	suite.Equal(domain.ReconciliationDiscrepancy, rec.Status)
	suite.True(rec.Difference.Equal(decimal.NewFromFloat(120.40)))
}

func (suite *ReconciliationServiceTestSuite) TestSummarize_InProgressWhileStatementsUnmatched() {
	ctx := context.Background()
	totals := &portsrepo.ReconciliationTotals{
		TotalInternal:  decimal.NewFromInt(4000),
		TotalExternal:  decimal.NewFromInt(4000),
		UnmatchedStmts: 2,
	}

	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.accountID).Return(suite.account, nil).Once()
	suite.mockPeriodRepo.On("FindPeriodByID", ctx, suite.period.PeriodID).Return(suite.period, nil).Once()
	suite.mockReconRepo.On("FetchTotals", ctx, suite.accountID, suite.period.StartDate, suite.period.EndDate).Return(totals, nil).Once()
	suite.mockReconRepo.On("SaveReconciliation", ctx, mock.AnythingOfType("domain.Reconciliation")).Return(nil).Once()

	rec, err := suite.service.Summarize(ctx, suite.accountID, suite.period.PeriodID, uuid.NewString())

	suite.Require().NoError(err)
	suite.Equal(domain.ReconciliationInProgress, rec.Status)
}

func TestReconciliationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceTestSuite))
}
