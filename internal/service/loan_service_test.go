package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/trustbank/lending-engine/internal/domain"
	customError "github.com/trustbank/lending-engine/pkg/errors"
	"github.com/trustbank/lending-engine/tests/mocks"
)

func newLoanService(loanRepo *mocks.MockLoanRepository, txRepo *mocks.MockTransactionRepository, userRepo *mocks.MockUserRepository, now time.Time) *LoanService {
	return &LoanService{
		loanRepo:        loanRepo,
		transactionRepo: txRepo,
		userRepo:        userRepo,
		now:             func() time.Time { return now },
	}
}

func TestCreateLoan_Success(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	txRepo := &mocks.MockTransactionRepository{}
	userRepo := &mocks.MockUserRepository{}

	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	service := newLoanService(loanRepo, txRepo, userRepo, now)

	userID := uuid.New()
	userRepo.On("GetByID", mock.Anything, userID).Return(&domain.User{ID: userID}, nil)
	loanRepo.On("Create", mock.Anything, mock.MatchedBy(func(loan *domain.Loan) bool {
		return loan.UserID == userID && loan.Status == domain.LoanStatusActive
	})).Return(nil)

	loan, err := service.CreateLoan(context.Background(), &domain.CreateLoanRequest{
		UserID:           userID,
		Amount:           decimal.NewFromInt(1000000),
		InterestRate:     decimal.NewFromInt(10),
		Installments:     12,
		LoanType:         domain.LoanTypeFixed,
		PaymentFrequency: domain.FrequencyMonthly15,
	})

	assert.NoError(t, err)
	assert.Equal(t, 0, loan.PaidInstallments)
	// First due date: day 15 of the month after the March 5 start.
	assert.NotNil(t, loan.NextPaymentDate)
	assert.Equal(t, time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC), *loan.NextPaymentDate)

	loanRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestCreateLoan_UserMissing(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	txRepo := &mocks.MockTransactionRepository{}
	userRepo := &mocks.MockUserRepository{}

	service := newLoanService(loanRepo, txRepo, userRepo, time.Now())

	userID := uuid.New()
	userRepo.On("GetByID", mock.Anything, userID).Return(nil, sql.ErrNoRows)

	_, err := service.CreateLoan(context.Background(), &domain.CreateLoanRequest{
		UserID:           userID,
		Amount:           decimal.NewFromInt(1000),
		InterestRate:     decimal.NewFromInt(5),
		Installments:     6,
		LoanType:         "Variable",
		PaymentFrequency: domain.FrequencyWeekly,
	})

	assert.True(t, customError.IsNotFound(err))
}

func TestCreateLoan_UnknownFrequency(t *testing.T) {
	service := newLoanService(&mocks.MockLoanRepository{}, &mocks.MockTransactionRepository{}, &mocks.MockUserRepository{}, time.Now())

	_, err := service.CreateLoan(context.Background(), &domain.CreateLoanRequest{
		UserID:           uuid.New(),
		Amount:           decimal.NewFromInt(1000),
		InterestRate:     decimal.NewFromInt(5),
		Installments:     6,
		LoanType:         "Variable",
		PaymentFrequency: "Diario",
	})

	assert.True(t, customError.IsInvalidRequest(err))
}

func TestPostTransaction_MissingLoanRef(t *testing.T) {
	service := newLoanService(&mocks.MockLoanRepository{}, &mocks.MockTransactionRepository{}, &mocks.MockUserRepository{}, time.Now())

	_, err := service.PostTransaction(context.Background(), &domain.PostTransactionRequest{
		Type:   domain.TransactionTypePayment,
		Amount: decimal.NewFromInt(100),
	})

	assert.True(t, customError.IsInvalidRequest(err))
}

func TestPostTransaction_CompletesLoanWhenPrincipalCovered(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	txRepo := &mocks.MockTransactionRepository{}

	now := time.Date(2025, 4, 16, 9, 0, 0, 0, time.UTC)
	service := newLoanService(loanRepo, txRepo, &mocks.MockUserRepository{}, now)

	loanID := uuid.New()
	due := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	loan := &domain.Loan{
		ID:               loanID,
		Amount:           decimal.NewFromInt(1000),
		InterestRate:     decimal.NewFromInt(10),
		Installments:     5,
		PaidInstallments: 1,
		StartDate:        time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		LoanType:         "Variable",
		PaymentFrequency: domain.FrequencyMonthly15,
		Status:           domain.LoanStatusActive,
		NextPaymentDate:  &due,
	}

	prior := []*domain.Transaction{
		{LoanID: loanID, PrincipalAmount: decimal.NewFromInt(400)},
	}

	loanRepo.On("GetByID", mock.Anything, loanID).Return(loan, nil)
	txRepo.On("ListByLoanID", mock.Anything, loanID).Return(prior, nil)
	loanRepo.On("ApplyPayment", mock.Anything, mock.MatchedBy(func(l *domain.Loan) bool {
		return l.Status == domain.LoanStatusCompleted && l.PaidInstallments == 2
	}), mock.Anything).Return(nil)

	// Pay exactly the remaining principal.
	txn, err := service.PostTransaction(context.Background(), &domain.PostTransactionRequest{
		LoanID:        loanID,
		Type:          domain.TransactionTypePayment,
		Amount:        decimal.NewFromInt(600),
		PaymentMethod: "CASH",
	})

	assert.NoError(t, err)
	// Principal defaults to the full amount when no split is given.
	assert.True(t, txn.PrincipalAmount.Equal(decimal.NewFromInt(600)))
	assert.Equal(t, domain.LoanStatusCompleted, loan.Status)
	assert.Equal(t, domain.LoanStatusActive, *loan.PreviousStatus)
	// Due date advanced one period past April 15.
	assert.Equal(t, time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC), *loan.NextPaymentDate)

	loanRepo.AssertExpectations(t)
	txRepo.AssertExpectations(t)
}

func TestPostTransaction_LoanMissing(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	service := newLoanService(loanRepo, &mocks.MockTransactionRepository{}, &mocks.MockUserRepository{}, time.Now())

	loanID := uuid.New()
	loanRepo.On("GetByID", mock.Anything, loanID).Return(nil, sql.ErrNoRows)

	_, err := service.PostTransaction(context.Background(), &domain.PostTransactionRequest{
		LoanID: loanID,
		Type:   domain.TransactionTypePayment,
		Amount: decimal.NewFromInt(100),
	})

	assert.True(t, customError.IsNotFound(err))
}

func TestRecalculateAllBalances_DerivesCountsFromLedger(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	txRepo := &mocks.MockTransactionRepository{}

	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	service := newLoanService(loanRepo, txRepo, &mocks.MockUserRepository{}, now)

	driftedID := uuid.New()
	drifted := &domain.Loan{
		ID:               driftedID,
		Amount:           decimal.NewFromInt(1000),
		Installments:     10,
		PaidInstallments: 5, // stale counter
		Status:           domain.LoanStatusActive,
	}

	cleanID := uuid.New()
	clean := &domain.Loan{
		ID:               cleanID,
		Amount:           decimal.NewFromInt(2000),
		Installments:     10,
		PaidInstallments: 1,
		Status:           domain.LoanStatusActive,
	}

	loanRepo.On("List", mock.Anything).Return([]*domain.Loan{drifted, clean}, nil)
	txRepo.On("ListByLoanID", mock.Anything, driftedID).Return([]*domain.Transaction{
		{PrincipalAmount: decimal.NewFromInt(100)},
		{PrincipalAmount: decimal.NewFromInt(100)},
	}, nil)
	txRepo.On("ListByLoanID", mock.Anything, cleanID).Return([]*domain.Transaction{
		{PrincipalAmount: decimal.NewFromInt(200)},
	}, nil)
	loanRepo.On("Update", mock.Anything, drifted).Return(nil)

	result, err := service.RecalculateAllBalances(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 2, result.ProcessedLoans)
	assert.Equal(t, 1, result.UpdatedLoans)
	assert.Equal(t, 2, drifted.PaidInstallments)
	assert.Equal(t, 1, clean.PaidInstallments)

	loanRepo.AssertExpectations(t)
	txRepo.AssertExpectations(t)
}

func TestRecalculateAllBalances_CompletesSettledLoans(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	txRepo := &mocks.MockTransactionRepository{}

	service := newLoanService(loanRepo, txRepo, &mocks.MockUserRepository{}, time.Now())

	loanID := uuid.New()
	loan := &domain.Loan{
		ID:               loanID,
		Amount:           decimal.NewFromInt(500),
		Installments:     10,
		PaidInstallments: 1,
		Status:           domain.LoanStatusActive,
	}

	loanRepo.On("List", mock.Anything).Return([]*domain.Loan{loan}, nil)
	txRepo.On("ListByLoanID", mock.Anything, loanID).Return([]*domain.Transaction{
		{PrincipalAmount: decimal.NewFromInt(500)},
	}, nil)
	loanRepo.On("Update", mock.Anything, loan).Return(nil)

	result, err := service.RecalculateAllBalances(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, result.UpdatedLoans)
	assert.Equal(t, domain.LoanStatusCompleted, loan.Status)
}

func TestDeleteTransaction_CommitsDeleteAndRecomputeTogether(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	txRepo := &mocks.MockTransactionRepository{}

	service := newLoanService(loanRepo, txRepo, &mocks.MockUserRepository{}, time.Now())

	loanID := uuid.New()
	removedID := uuid.New()
	keptID := uuid.New()

	loan := &domain.Loan{
		ID:               loanID,
		Amount:           decimal.NewFromInt(1000),
		Installments:     10,
		PaidInstallments: 2,
		Status:           domain.LoanStatusActive,
	}

	txRepo.On("GetByID", mock.Anything, removedID).Return(&domain.Transaction{
		ID:     removedID,
		LoanID: loanID,
	}, nil)
	loanRepo.On("GetByID", mock.Anything, loanID).Return(loan, nil)
	txRepo.On("ListByLoanID", mock.Anything, loanID).Return([]*domain.Transaction{
		{ID: removedID, PrincipalAmount: decimal.NewFromInt(100)},
		{ID: keptID, PrincipalAmount: decimal.NewFromInt(100)},
	}, nil)
	loanRepo.On("RemoveEntry", mock.Anything, mock.MatchedBy(func(l *domain.Loan) bool {
		return l.PaidInstallments == 1
	}), removedID).Return(nil)

	err := service.DeleteTransaction(context.Background(), removedID)

	assert.NoError(t, err)
	// The removed entry no longer counts toward the loaded ledger.
	assert.Len(t, loan.Transactions, 1)
	assert.Equal(t, keptID, loan.Transactions[0].ID)

	// The delete and the loan update go through the single atomic
	// repository call; no separate Delete or Update statements.
	txRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	loanRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	loanRepo.AssertExpectations(t)
	txRepo.AssertExpectations(t)
}

func TestDeleteTransaction_Missing(t *testing.T) {
	txRepo := &mocks.MockTransactionRepository{}

	service := newLoanService(&mocks.MockLoanRepository{}, txRepo, &mocks.MockUserRepository{}, time.Now())

	id := uuid.New()
	txRepo.On("GetByID", mock.Anything, id).Return(nil, sql.ErrNoRows)

	err := service.DeleteTransaction(context.Background(), id)

	assert.True(t, customError.IsNotFound(err))
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	service := newLoanService(&mocks.MockLoanRepository{}, &mocks.MockTransactionRepository{}, &mocks.MockUserRepository{}, time.Now())

	_, err := service.UpdateStatus(context.Background(), uuid.New(), "CANCELLED")

	assert.True(t, customError.IsInvalidRequest(err))
}

func TestUpdateStatus_AdminResetToActive(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	service := newLoanService(loanRepo, &mocks.MockTransactionRepository{}, &mocks.MockUserRepository{}, time.Now())

	loanID := uuid.New()
	loan := &domain.Loan{ID: loanID, Status: domain.LoanStatusOverdue}

	loanRepo.On("GetByID", mock.Anything, loanID).Return(loan, nil)
	loanRepo.On("Update", mock.Anything, loan).Return(nil)

	updated, err := service.UpdateStatus(context.Background(), loanID, domain.LoanStatusActive)

	assert.NoError(t, err)
	assert.Equal(t, domain.LoanStatusActive, updated.Status)
	assert.Equal(t, domain.LoanStatusOverdue, *updated.PreviousStatus)
}

func TestTotalRemainingAmount_SumsOpenBook(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	txRepo := &mocks.MockTransactionRepository{}

	service := newLoanService(loanRepo, txRepo, &mocks.MockUserRepository{}, time.Now())

	activeID := uuid.New()
	overdueID := uuid.New()

	loanRepo.On("ListByStatus", mock.Anything, domain.LoanStatusActive).Return([]*domain.Loan{
		{ID: activeID, Amount: decimal.NewFromInt(1000), Status: domain.LoanStatusActive},
	}, nil)
	loanRepo.On("ListByStatus", mock.Anything, domain.LoanStatusOverdue).Return([]*domain.Loan{
		{ID: overdueID, Amount: decimal.NewFromInt(500), Status: domain.LoanStatusOverdue},
	}, nil)
	txRepo.On("ListByLoanID", mock.Anything, activeID).Return([]*domain.Transaction{
		{PrincipalAmount: decimal.NewFromInt(400)},
	}, nil)
	txRepo.On("ListByLoanID", mock.Anything, overdueID).Return([]*domain.Transaction{}, nil)

	total, err := service.TotalRemainingAmount(context.Background())

	assert.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(1100)))
}

func TestProgress_IncludesAmortization(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	txRepo := &mocks.MockTransactionRepository{}

	service := newLoanService(loanRepo, txRepo, &mocks.MockUserRepository{}, time.Now())

	loanID := uuid.New()
	loanRepo.On("GetByID", mock.Anything, loanID).Return(&domain.Loan{
		ID:           loanID,
		Amount:       decimal.NewFromInt(1000000),
		InterestRate: decimal.NewFromInt(10),
		Installments: 12,
		LoanType:     domain.LoanTypeFixed,
		Status:       domain.LoanStatusActive,
	}, nil)
	txRepo.On("ListByLoanID", mock.Anything, loanID).Return([]*domain.Transaction{}, nil)

	progress, err := service.Progress(context.Background(), loanID)

	assert.NoError(t, err)
	assert.True(t, progress.TotalAmount.Equal(decimal.NewFromInt(2200000)))
	assert.True(t, progress.InstallmentAmount.Equal(decimal.NewFromInt(100000)))
	assert.True(t, progress.RemainingAmount.Equal(decimal.NewFromInt(1000000)))
}

func TestFixPrincipalAmounts(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	txRepo := &mocks.MockTransactionRepository{}

	service := newLoanService(loanRepo, txRepo, &mocks.MockUserRepository{}, time.Now())

	broken := &domain.Transaction{
		ID:              uuid.New(),
		Amount:          decimal.NewFromInt(300),
		PrincipalAmount: decimal.NewFromInt(100),
	}
	withInterest := &domain.Transaction{
		ID:              uuid.New(),
		Amount:          decimal.NewFromInt(300),
		PrincipalAmount: decimal.NewFromInt(200),
		InterestAmount:  decimal.NewNullDecimal(decimal.NewFromInt(100)),
	}

	txRepo.On("List", mock.Anything).Return([]*domain.Transaction{broken, withInterest}, nil)
	txRepo.On("Update", mock.Anything, broken).Return(nil)
	loanRepo.On("List", mock.Anything).Return([]*domain.Loan{}, nil)

	result, err := service.FixPrincipalAmounts(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 2, result.CheckedTransactions)
	assert.Equal(t, 1, result.FixedTransactions)
	assert.True(t, broken.PrincipalAmount.Equal(decimal.NewFromInt(300)))
	// Entries with an explicit interest split are left alone.
	assert.True(t, withInterest.PrincipalAmount.Equal(decimal.NewFromInt(200)))

	txRepo.AssertExpectations(t)
}
