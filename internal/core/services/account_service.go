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
	"github.com/shopspring/decimal"
)

const defaultListLimit = 20

// accountService provides chart-of-accounts operations.
type accountService struct {
	accountRepo portsrepo.AccountRepositoryFacade
	clock       domain.Clock
}

// NewAccountService creates a new account registry service.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, clock domain.Clock) portssvc.AccountSvcFacade {
	return &accountService{
		accountRepo: accountRepo,
		clock:       clock,
	}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateAccount adds an account to the chart of accounts.
func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actingUser string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.AccountType.IsValid() {
		return nil, fmt.Errorf("%w: unknown account type '%s'", apperrors.ErrValidation, req.AccountType)
	}
	if req.Code == "" || req.Name == "" {
		return nil, fmt.Errorf("%w: account code and name are required", apperrors.ErrValidation)
	}

	// Code uniqueness. The unique index in the repository is the final
	// arbiter under concurrency; this check produces the friendlier error.
	existing, err := s.accountRepo.FindAccountByCode(ctx, req.Code)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		logger.Error("Failed to check account code uniqueness", slog.String("error", err.Error()), slog.String("code", req.Code))
		return nil, fmt.Errorf("failed to check account code: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: code %s", apperrors.ErrDuplicateCode, req.Code)
	}

	if req.ParentAccountID != "" {
		parent, err := s.accountRepo.FindAccountByID(ctx, req.ParentAccountID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: parent account %s", apperrors.ErrNotFound, req.ParentAccountID)
			}
			return nil, fmt.Errorf("failed to fetch parent account: %w", err)
		}
		// Parent and child share the account type family, and aggregation
		// nodes are the only legal parents: a postable parent would stop
		// being a leaf.
		if parent.AccountType != req.AccountType {
			return nil, fmt.Errorf("%w: %s account cannot sit under %s parent %s", apperrors.ErrInvalidHierarchy, req.AccountType, parent.AccountType, parent.Code)
		}
		if parent.IsPostable {
			return nil, fmt.Errorf("%w: parent account %s is postable", apperrors.ErrInvalidHierarchy, parent.Code)
		}
	}

	now := s.clock.Now()
	account := domain.Account{
		AccountID:       uuid.NewString(),
		Code:            req.Code,
		Name:            req.Name,
		AccountType:     req.AccountType,
		CurrencyCode:    req.CurrencyCode,
		ParentAccountID: req.ParentAccountID,
		Description:     req.Description,
		IsPostable:      req.IsPostable,
		IsActive:        true,
		Balance:         decimal.Zero,
		BalanceVersion:  0,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actingUser,
			LastUpdatedAt: now,
			LastUpdatedBy: actingUser,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		logger.Error("Failed to save account", slog.String("error", err.Error()), slog.String("code", req.Code))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID), slog.String("code", account.Code))
	return &account, nil
}

// GetAccountByID retrieves a single account.
func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	return account, nil
}

// GetAccountsByIDs retrieves multiple accounts keyed by ID.
func (s *accountService) GetAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	return s.accountRepo.FindAccountsByIDs(ctx, accountIDs)
}

// ListAccounts retrieves a paginated list of accounts.
func (s *accountService) ListAccounts(ctx context.Context, params dto.ListAccountsParams) (*dto.ListAccountsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	accounts, nextToken, err := s.accountRepo.ListAccounts(ctx, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	resp := &dto.ListAccountsResponse{
		Accounts:  make([]dto.AccountResponse, len(accounts)),
		NextToken: nextToken,
	}
	for i := range accounts {
		resp.Accounts[i] = dto.ToAccountResponse(&accounts[i])
	}
	return resp, nil
}

// GetBalance computes the account balance as of a date from posted history
// only. Draft and validated entries never contribute.
func (s *accountService) GetBalance(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}

	debits, credits, err := s.accountRepo.SumPostedLines(ctx, accountID, asOf)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum posted lines for account %s: %w", accountID, err)
	}

	if account.AccountType.IsDebitNormal() {
		return debits.Sub(credits), nil
	}
	return credits.Sub(debits), nil
}

// DeactivateAccount soft-deletes an account. It fails while the account or
// any postable descendant still carries a balance.
func (s *accountService) DeactivateAccount(ctx context.Context, accountID string, actingUser string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to find account %s: %w", accountID, err)
	}

	if !account.Balance.IsZero() {
		return fmt.Errorf("%w: account %s has balance %s", apperrors.ErrAccountInUse, account.Code, account.Balance.String())
	}

	if err := s.checkDescendantBalances(ctx, accountID); err != nil {
		return err
	}

	if err := s.accountRepo.DeactivateAccount(ctx, accountID, actingUser, s.clock.Now()); err != nil {
		logger.Error("Failed to deactivate account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return fmt.Errorf("failed to deactivate account: %w", err)
	}

	logger.Info("Account deactivated", slog.String("account_id", accountID))
	return nil
}

// checkDescendantBalances walks the subtree below accountID and fails with
// ErrAccountInUse on the first postable descendant holding a balance.
func (s *accountService) checkDescendantBalances(ctx context.Context, accountID string) error {
	children, err := s.accountRepo.FindChildAccounts(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to fetch child accounts of %s: %w", accountID, err)
	}
	for i := range children {
		child := &children[i]
		if child.IsPostable && !child.Balance.IsZero() {
			return fmt.Errorf("%w: descendant account %s has balance %s", apperrors.ErrAccountInUse, child.Code, child.Balance.String())
		}
		if err := s.checkDescendantBalances(ctx, child.AccountID); err != nil {
			return err
		}
	}
	return nil
}
