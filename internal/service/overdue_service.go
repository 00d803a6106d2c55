package service

import (
	"context"
	"log"
	"time"

	"github.com/trustbank/lending-engine/internal/domain"
	"github.com/trustbank/lending-engine/internal/repository"
	customError "github.com/trustbank/lending-engine/pkg/errors"
)

// OverdueService is the sweep that flips lapsed ACTIVE loans to OVERDUE.
// OVERDUE and COMPLETED loans are never re-evaluated; re-running right after
// a sweep therefore returns nothing.
type OverdueService struct {
	loanRepo repository.LoanRepository
	now      func() time.Time
}

func NewOverdueService(loanRepo repository.LoanRepository) *OverdueService {
	return &OverdueService{
		loanRepo: loanRepo,
		now:      time.Now,
	}
}

// Sweep scans the ACTIVE book and marks any loan whose due date has passed,
// returning the flipped loans. Loans with no enforceable schedule (unknown
// frequency, no stored due date) are skipped. Per-loan persistence failures
// are logged and the sweep continues.
func (s *OverdueService) Sweep(ctx context.Context) ([]*domain.Loan, error) {
	active, err := s.loanRepo.ListByStatus(ctx, domain.LoanStatusActive)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	flipped := make([]*domain.Loan, 0)
	for _, loan := range active {
		due, ok := s.dueDate(loan)
		if !ok || !due.Before(today) {
			continue
		}

		loan.SetStatus(domain.LoanStatusOverdue, now)
		if err := s.loanRepo.Update(ctx, loan); err != nil {
			log.Printf("sweep: saving loan %s: %v", loan.ID, err)
			continue
		}
		flipped = append(flipped, loan)
	}

	return flipped, nil
}

// dueDate reads the stored schedule pointer, deriving the first due date
// for loans created before the pointer existed.
func (s *OverdueService) dueDate(loan *domain.Loan) (time.Time, bool) {
	if loan.NextPaymentDate != nil {
		return *loan.NextPaymentDate, true
	}
	return domain.FirstDueDate(loan.StartDate, loan.PaymentFrequency)
}

// OverdueLoans returns the loans currently flagged overdue.
func (s *OverdueService) OverdueLoans(ctx context.Context) ([]*domain.Loan, error) {
	loans, err := s.loanRepo.ListByStatus(ctx, domain.LoanStatusOverdue)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loans, nil
}

// OverdueCount counts the loans currently flagged overdue.
func (s *OverdueService) OverdueCount(ctx context.Context) (int, error) {
	count, err := s.loanRepo.CountByStatus(ctx, domain.LoanStatusOverdue)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}
	return count, nil
}
