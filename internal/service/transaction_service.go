package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trustbank/lending-engine/internal/domain"
	"github.com/trustbank/lending-engine/internal/repository"
	customError "github.com/trustbank/lending-engine/pkg/errors"
)

// TransactionService is the read side of the ledger. Writes go through
// LoanService so the loan row is always updated alongside its ledger.
type TransactionService struct {
	transactionRepo repository.TransactionRepository
}

func NewTransactionService(transactionRepo repository.TransactionRepository) *TransactionService {
	return &TransactionService{transactionRepo: transactionRepo}
}

func (s *TransactionService) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	txn, err := s.transactionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapTransactionNotFound(id.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return txn, nil
}

func (s *TransactionService) ListTransactions(ctx context.Context) ([]*domain.Transaction, error) {
	txns, err := s.transactionRepo.List(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return txns, nil
}

func (s *TransactionService) ListTransactionsByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.Transaction, error) {
	txns, err := s.transactionRepo.ListByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return txns, nil
}

// ListTransactionsByDateRange returns entries posted between the two dates,
// both days included whole.
func (s *TransactionService) ListTransactionsByDateRange(ctx context.Context, start, end time.Time) ([]*domain.Transaction, error) {
	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	to := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, end.Location())

	txns, err := s.transactionRepo.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return txns, nil
}

func (s *TransactionService) TotalPayments(ctx context.Context) (decimal.Decimal, error) {
	total, err := s.transactionRepo.TotalPayments(ctx)
	if err != nil {
		return decimal.Zero, customError.WrapDatabaseError(err)
	}
	return total, nil
}
