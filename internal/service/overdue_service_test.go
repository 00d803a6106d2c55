package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/trustbank/lending-engine/internal/domain"
	"github.com/trustbank/lending-engine/tests/mocks"
)

func TestSweep_FlipsLapsedLoans(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}

	now := time.Date(2025, 4, 20, 11, 30, 0, 0, time.UTC)
	service := &OverdueService{
		loanRepo: loanRepo,
		now:      func() time.Time { return now },
	}

	lapsedDue := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	lapsed := &domain.Loan{
		ID:               uuid.New(),
		Status:           domain.LoanStatusActive,
		PaymentFrequency: domain.FrequencyMonthly15,
		NextPaymentDate:  &lapsedDue,
	}

	currentDue := time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC)
	current := &domain.Loan{
		ID:               uuid.New(),
		Status:           domain.LoanStatusActive,
		PaymentFrequency: domain.FrequencyMonthly15,
		NextPaymentDate:  &currentDue,
	}

	loanRepo.On("ListByStatus", mock.Anything, domain.LoanStatusActive).Return([]*domain.Loan{lapsed, current}, nil)
	loanRepo.On("Update", mock.Anything, lapsed).Return(nil)

	flipped, err := service.Sweep(context.Background())

	assert.NoError(t, err)
	assert.Len(t, flipped, 1)
	assert.Equal(t, domain.LoanStatusOverdue, lapsed.Status)
	assert.Equal(t, domain.LoanStatusActive, *lapsed.PreviousStatus)
	assert.Equal(t, now, *lapsed.StatusChangeDate)
	assert.Equal(t, domain.LoanStatusActive, current.Status)

	loanRepo.AssertExpectations(t)
}

func TestSweep_DueTodayIsNotOverdue(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}

	// Late in the day on the due date itself: grace runs until midnight.
	now := time.Date(2025, 4, 15, 23, 0, 0, 0, time.UTC)
	service := &OverdueService{
		loanRepo: loanRepo,
		now:      func() time.Time { return now },
	}

	due := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	loan := &domain.Loan{
		ID:               uuid.New(),
		Status:           domain.LoanStatusActive,
		PaymentFrequency: domain.FrequencyMonthly15,
		NextPaymentDate:  &due,
	}

	loanRepo.On("ListByStatus", mock.Anything, domain.LoanStatusActive).Return([]*domain.Loan{loan}, nil)

	flipped, err := service.Sweep(context.Background())

	assert.NoError(t, err)
	assert.Empty(t, flipped)
	assert.Equal(t, domain.LoanStatusActive, loan.Status)
}

func TestSweep_Idempotent(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}

	now := time.Date(2025, 4, 20, 6, 0, 0, 0, time.UTC)
	service := &OverdueService{
		loanRepo: loanRepo,
		now:      func() time.Time { return now },
	}

	due := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	loan := &domain.Loan{
		ID:               uuid.New(),
		Status:           domain.LoanStatusActive,
		PaymentFrequency: domain.FrequencyMonthly15,
		NextPaymentDate:  &due,
	}

	loanRepo.On("ListByStatus", mock.Anything, domain.LoanStatusActive).Return([]*domain.Loan{loan}, nil).Once()
	loanRepo.On("Update", mock.Anything, loan).Return(nil).Once()

	first, err := service.Sweep(context.Background())
	assert.NoError(t, err)
	assert.Len(t, first, 1)

	// The flipped loan left the ACTIVE book, so the next sweep sees nothing.
	loanRepo.On("ListByStatus", mock.Anything, domain.LoanStatusActive).Return([]*domain.Loan{}, nil).Once()

	second, err := service.Sweep(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, second)

	loanRepo.AssertExpectations(t)
}

func TestSweep_SkipsLoansWithoutSchedule(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}

	now := time.Date(2026, 1, 1, 6, 0, 0, 0, time.UTC)
	service := &OverdueService{
		loanRepo: loanRepo,
		now:      func() time.Time { return now },
	}

	loan := &domain.Loan{
		ID:               uuid.New(),
		Status:           domain.LoanStatusActive,
		StartDate:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PaymentFrequency: "Diario",
	}

	loanRepo.On("ListByStatus", mock.Anything, domain.LoanStatusActive).Return([]*domain.Loan{loan}, nil)

	flipped, err := service.Sweep(context.Background())

	assert.NoError(t, err)
	assert.Empty(t, flipped)
	assert.Equal(t, domain.LoanStatusActive, loan.Status)
}

func TestSweep_DerivesDueDateForLegacyLoans(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}

	now := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	service := &OverdueService{
		loanRepo: loanRepo,
		now:      func() time.Time { return now },
	}

	// No stored pointer: first due date derives from the start date
	// (April 15 for a March start), which has long passed.
	loan := &domain.Loan{
		ID:               uuid.New(),
		Status:           domain.LoanStatusActive,
		StartDate:        time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		PaymentFrequency: domain.FrequencyMonthly15,
	}

	loanRepo.On("ListByStatus", mock.Anything, domain.LoanStatusActive).Return([]*domain.Loan{loan}, nil)
	loanRepo.On("Update", mock.Anything, loan).Return(nil)

	flipped, err := service.Sweep(context.Background())

	assert.NoError(t, err)
	assert.Len(t, flipped, 1)
	assert.Equal(t, domain.LoanStatusOverdue, loan.Status)
}
