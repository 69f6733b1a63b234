package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/thesenegalesehitch/erp-ledger/internal/apperrors"
	"github.com/thesenegalesehitch/erp-ledger/internal/core/domain"
	portssvc "github.com/thesenegalesehitch/erp-ledger/internal/core/ports/services"
	"github.com/thesenegalesehitch/erp-ledger/internal/core/services"
	"github.com/thesenegalesehitch/erp-ledger/internal/dto"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type AccountServiceTestSuite struct {
	suite.Suite
	mockRepo *MockAccountRepository
	service  portssvc.AccountSvcFacade
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockAccountRepository)
	suite.service = services.NewAccountService(suite.mockRepo, fixedClock{now: testNow})
}

func (suite *AccountServiceTestSuite) TestCreateAccount_Success() {
	ctx := context.Background()
	creatorUserID := uuid.NewString()
	req := dto.CreateAccountRequest{
		Code:         "512000",
		Name:         "Bank Account",
		AccountType:  domain.Asset,
		CurrencyCode: "EUR",
		IsPostable:   true,
	}

	suite.mockRepo.On("FindAccountByCode", ctx, "512000").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("SaveAccount", ctx, mock.AnythingOfType("domain.Account")).Return(nil).Once()

	created, err := suite.service.CreateAccount(ctx, req, creatorUserID)

	suite.Require().NoError(err)
	suite.Require().NotNil(created)
	suite.NotEmpty(created.AccountID)
	suite.Equal(req.Code, created.Code)
	suite.Equal(req.AccountType, created.AccountType)
	suite.True(created.IsActive)
	suite.True(created.IsPostable)
	suite.True(created.Balance.IsZero())
	suite.Equal(int64(0), created.BalanceVersion)
	suite.Equal(creatorUserID, created.CreatedBy)
	suite.Equal(testNow, created.CreatedAt)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestCreateAccount_DuplicateCode() {
	ctx := context.Background()
	existing := &domain.Account{
		AccountID:   uuid.NewString(),
		Code:        "512000",
		AccountType: domain.Asset,
	}
	req := dto.CreateAccountRequest{
		Code:         "512000",
		Name:         "Another Bank",
		AccountType:  domain.Asset,
		CurrencyCode: "EUR",
		IsPostable:   true,
	}

	suite.mockRepo.On("FindAccountByCode", ctx, "512000").Return(existing, nil).Once()

	created, err := suite.service.CreateAccount(ctx, req, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(created)
	suite.ErrorIs(err, apperrors.ErrDuplicateCode)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveAccount", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_InvalidType() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{
		Code:         "999999",
		Name:         "Strange",
		AccountType:  domain.AccountType("GOODWILL"),
		CurrencyCode: "EUR",
	}

	created, err := suite.service.CreateAccount(ctx, req, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(created)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_ParentTypeMismatch() {
	ctx := context.Background()
	parentID := uuid.NewString()
	parent := &domain.Account{
		AccountID:   parentID,
		Code:        "400000",
		AccountType: domain.Expense,
		IsPostable:  false,
	}
	req := dto.CreateAccountRequest{
		Code:            "512100",
		Name:            "Bank Sub",
		AccountType:     domain.Asset,
		CurrencyCode:    "EUR",
		ParentAccountID: parentID,
		IsPostable:      true,
	}

	suite.mockRepo.On("FindAccountByCode", ctx, "512100").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("FindAccountByID", ctx, parentID).Return(parent, nil).Once()

	created, err := suite.service.CreateAccount(ctx, req, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(created)
	suite.ErrorIs(err, apperrors.ErrInvalidHierarchy)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_PostableParentRejected() {
	ctx := context.Background()
	parentID := uuid.NewString()
	parent := &domain.Account{
		AccountID:   parentID,
		Code:        "512000",
		AccountType: domain.Asset,
		IsPostable:  true,
	}
	req := dto.CreateAccountRequest{
		Code:            "512100",
		Name:            "Bank Sub",
		AccountType:     domain.Asset,
		CurrencyCode:    "EUR",
		ParentAccountID: parentID,
		IsPostable:      true,
	}

	suite.mockRepo.On("FindAccountByCode", ctx, "512100").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("FindAccountByID", ctx, parentID).Return(parent, nil).Once()

	created, err := suite.service.CreateAccount(ctx, req, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(created)
	suite.ErrorIs(err, apperrors.ErrInvalidHierarchy)
}

func (suite *AccountServiceTestSuite) TestGetBalance_DebitNormal() {
	ctx := context.Background()
	accountID := uuid.NewString()
	account := &domain.Account{
		AccountID:   accountID,
		Code:        "512000",
		AccountType: domain.Asset,
		IsActive:    true,
	}
	asOf := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	suite.mockRepo.On("FindAccountByID", ctx, accountID).Return(account, nil).Once()
	suite.mockRepo.On("SumPostedLines", ctx, accountID, asOf).
		Return(decimal.NewFromInt(1500), decimal.NewFromInt(400), nil).Once()

	balance, err := suite.service.GetBalance(ctx, accountID, asOf)

	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.NewFromInt(1100)), "debit-normal balance should be debits minus credits, got %s", balance)
}

func (suite *AccountServiceTestSuite) TestGetBalance_CreditNormal() {
	ctx := context.Background()
	accountID := uuid.NewString()
	account := &domain.Account{
		AccountID:   accountID,
		Code:        "701000",
		AccountType: domain.Revenue,
		IsActive:    true,
	}
	asOf := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	suite.mockRepo.On("FindAccountByID", ctx, accountID).Return(account, nil).Once()
	suite.mockRepo.On("SumPostedLines", ctx, accountID, asOf).
		Return(decimal.NewFromInt(400), decimal.NewFromInt(1500), nil).Once()

	balance, err := suite.service.GetBalance(ctx, accountID, asOf)

	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.NewFromInt(1100)), "credit-normal balance should be credits minus debits, got %s", balance)
}

func (suite *AccountServiceTestSuite) TestDeactivateAccount_NonzeroBalance() {
	ctx := context.Background()
	accountID := uuid.NewString()
	account := &domain.Account{
		AccountID:   accountID,
		Code:        "512000",
		AccountType: domain.Asset,
		IsActive:    true,
		Balance:     decimal.NewFromInt(250),
	}

	suite.mockRepo.On("FindAccountByID", ctx, accountID).Return(account, nil).Once()

	err := suite.service.DeactivateAccount(ctx, accountID, uuid.NewString())

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrAccountInUse)
	suite.mockRepo.AssertNotCalled(suite.T(), "DeactivateAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestDeactivateAccount_DescendantBalance() {
	ctx := context.Background()
	parentID := uuid.NewString()
	childID := uuid.NewString()
	parent := &domain.Account{
		AccountID:   parentID,
		Code:        "410000",
		AccountType: domain.Asset,
		IsActive:    true,
		Balance:     decimal.Zero,
	}
	child := domain.Account{
		AccountID:   childID,
		Code:        "411000",
		AccountType: domain.Asset,
		IsPostable:  true,
		IsActive:    true,
		Balance:     decimal.NewFromInt(90),
	}

	suite.mockRepo.On("FindAccountByID", ctx, parentID).Return(parent, nil).Once()
	suite.mockRepo.On("FindChildAccounts", ctx, parentID).Return([]domain.Account{child}, nil).Once()

	err := suite.service.DeactivateAccount(ctx, parentID, uuid.NewString())

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrAccountInUse)
}

func (suite *AccountServiceTestSuite) TestDeactivateAccount_Success() {
	ctx := context.Background()
	accountID := uuid.NewString()
	actingUser := uuid.NewString()
	account := &domain.Account{
		AccountID:   accountID,
		Code:        "512000",
		AccountType: domain.Asset,
		IsActive:    true,
		Balance:     decimal.Zero,
	}

	suite.mockRepo.On("FindAccountByID", ctx, accountID).Return(account, nil).Once()
	suite.mockRepo.On("FindChildAccounts", ctx, accountID).Return([]domain.Account{}, nil).Once()
	suite.mockRepo.On("DeactivateAccount", ctx, accountID, actingUser, testNow).Return(nil).Once()

	err := suite.service.DeactivateAccount(ctx, accountID, actingUser)

	suite.Require().NoError(err)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestListAccounts_DefaultLimit() {
	ctx := context.Background()
	accounts := []domain.Account{
		{AccountID: uuid.NewString(), Code: "101000", AccountType: domain.Asset, IsActive: true},
	}

	suite.mockRepo.On("ListAccounts", ctx, 20, (*string)(nil)).Return(accounts, nil, nil).Once()

	resp, err := suite.service.ListAccounts(ctx, dto.ListAccountsParams{})

	suite.Require().NoError(err)
	suite.Len(resp.Accounts, 1)
	suite.Nil(resp.NextToken)
	suite.mockRepo.AssertExpectations(suite.T())
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
