package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/trustbank/lending-engine/internal/config"
	"github.com/trustbank/lending-engine/internal/domain"
	"github.com/trustbank/lending-engine/internal/repository"
	customError "github.com/trustbank/lending-engine/pkg/errors"
)

const (
	cacheKeyTotalActive    = "totals:active"
	cacheKeyTotalRemaining = "totals:remaining"
)

// LoanService owns the loan lifecycle: creation, payment posting, status
// transitions, and the full-book recalculation job.
type LoanService struct {
	loanRepo        repository.LoanRepository
	transactionRepo repository.TransactionRepository
	userRepo        repository.UserRepository
	redis           *redis.Client
	config          *config.Config
	now             func() time.Time
}

func NewLoanService(
	loanRepo repository.LoanRepository,
	transactionRepo repository.TransactionRepository,
	userRepo repository.UserRepository,
	redisClient *redis.Client,
	cfg *config.Config,
) *LoanService {
	return &LoanService{
		loanRepo:        loanRepo,
		transactionRepo: transactionRepo,
		userRepo:        userRepo,
		redis:           redisClient,
		config:          cfg,
		now:             time.Now,
	}
}

// CreateLoan creates an ACTIVE loan for an existing user and seeds its
// next payment date from the frequency policy.
func (s *LoanService) CreateLoan(ctx context.Context, request *domain.CreateLoanRequest) (*domain.Loan, error) {
	if !domain.IsValidFrequency(request.PaymentFrequency) {
		return nil, customError.WrapUnknownFrequency(request.PaymentFrequency)
	}

	if _, err := s.userRepo.GetByID(ctx, request.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapUserNotFound(request.UserID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	now := s.now()
	startDate := now
	if request.StartDate != nil {
		startDate = *request.StartDate
	}

	loan := &domain.Loan{
		ID:               uuid.New(),
		UserID:           request.UserID,
		Amount:           request.Amount,
		InterestRate:     request.InterestRate,
		Installments:     request.Installments,
		PaidInstallments: 0,
		StartDate:        startDate,
		LoanType:         request.LoanType,
		PaymentFrequency: request.PaymentFrequency,
		RealInstallment:  request.RealInstallment,
		OpenEnded:        request.OpenEnded,
		Status:           domain.LoanStatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if due, ok := domain.FirstDueDate(startDate, request.PaymentFrequency); ok {
		loan.NextPaymentDate = &due
	}

	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.invalidateTotals(ctx)

	return loan, nil
}

// GetLoan returns a loan with its ledger loaded.
func (s *LoanService) GetLoan(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapLoanNotFound(id.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	if loan.Transactions, err = s.transactionRepo.ListByLoanID(ctx, loan.ID); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return loan, nil
}

func (s *LoanService) ListLoans(ctx context.Context) ([]*domain.Loan, error) {
	loans, err := s.loanRepo.List(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loans, nil
}

func (s *LoanService) ListLoansByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error) {
	loans, err := s.loanRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loans, nil
}

func (s *LoanService) ListLoansByStatus(ctx context.Context, status string) ([]*domain.Loan, error) {
	if !domain.IsValidStatus(status) {
		return nil, customError.WrapUnknownStatus(status)
	}
	loans, err := s.loanRepo.ListByStatus(ctx, status)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loans, nil
}

// ListActiveAndOverdue returns the open loan book.
func (s *LoanService) ListActiveAndOverdue(ctx context.Context) ([]*domain.Loan, error) {
	active, err := s.loanRepo.ListByStatus(ctx, domain.LoanStatusActive)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	overdue, err := s.loanRepo.ListByStatus(ctx, domain.LoanStatusOverdue)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return append(active, overdue...), nil
}

// ListActiveAndOverdueByUser returns a user's open loans.
func (s *LoanService) ListActiveAndOverdueByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error) {
	loans, err := s.loanRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	open := make([]*domain.Loan, 0, len(loans))
	for _, loan := range loans {
		if loan.Status == domain.LoanStatusActive || loan.Status == domain.LoanStatusOverdue {
			open = append(open, loan)
		}
	}
	return open, nil
}

// PostTransaction records a ledger entry against a loan and applies it:
// paid installments are re-derived from the full ledger, the loan is
// completed when settled, and the next payment date advances one period.
// The entry and the loan update commit atomically.
func (s *LoanService) PostTransaction(ctx context.Context, request *domain.PostTransactionRequest) (*domain.Transaction, error) {
	if request.LoanID == uuid.Nil {
		return nil, customError.WrapMissingLoanRef()
	}

	loan, err := s.loanRepo.GetByID(ctx, request.LoanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapLoanNotFound(request.LoanID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	now := s.now()
	date := now
	if request.Date != nil {
		date = *request.Date
	}

	// Principal defaults to the full amount; interest is recorded apart.
	principal := request.Amount
	if request.PrincipalAmount != nil {
		principal = *request.PrincipalAmount
	}

	txn := &domain.Transaction{
		ID:              uuid.New(),
		LoanID:          loan.ID,
		Type:            request.Type,
		Amount:          request.Amount,
		PrincipalAmount: principal,
		InterestAmount:  request.InterestAmount,
		Date:            date,
		PaymentMethod:   request.PaymentMethod,
		Notes:           request.Notes,
		CreatedAt:       now,
	}

	ledger, err := s.transactionRepo.ListByLoanID(ctx, loan.ID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	loan.Transactions = append(ledger, txn)

	loan.PaidInstallments = domain.CountPaidInstallments(loan.Transactions)
	if loan.Status == domain.LoanStatusActive && loan.IsSettled() {
		loan.SetStatus(domain.LoanStatusCompleted, now)
	}

	if loan.NextPaymentDate != nil {
		if due, ok := domain.Advance(*loan.NextPaymentDate, loan.PaymentFrequency); ok {
			loan.NextPaymentDate = &due
		}
	} else if due, ok := domain.FirstDueDate(loan.StartDate, loan.PaymentFrequency); ok {
		loan.NextPaymentDate = &due
	}

	if err := s.loanRepo.ApplyPayment(ctx, loan, txn); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.invalidateTotals(ctx)

	return txn, nil
}

// DeleteTransaction removes a ledger entry and re-derives the loan's state
// from what remains. The delete and the loan update commit atomically.
func (s *LoanService) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	txn, err := s.transactionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapTransactionNotFound(id.String())
		}
		return customError.WrapDatabaseError(err)
	}

	loan, err := s.loanRepo.GetByID(ctx, txn.LoanID)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}

	ledger, err := s.transactionRepo.ListByLoanID(ctx, loan.ID)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}

	kept := make([]*domain.Transaction, 0, len(ledger))
	for _, entry := range ledger {
		if entry.ID != id {
			kept = append(kept, entry)
		}
	}
	loan.Transactions = kept

	loan.PaidInstallments = domain.CountPaidInstallments(kept)
	if loan.Status == domain.LoanStatusActive && loan.IsSettled() {
		loan.SetStatus(domain.LoanStatusCompleted, s.now())
	}

	if err := s.loanRepo.RemoveEntry(ctx, loan, id); err != nil {
		return customError.WrapDatabaseError(err)
	}

	s.invalidateTotals(ctx)

	return nil
}

// UpdateStatus sets a loan's status explicitly, e.g. an administrator
// resetting an overdue loan to ACTIVE. The previous status and transition
// time are stashed on every actual change.
func (s *LoanService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Loan, error) {
	if !domain.IsValidStatus(status) {
		return nil, customError.WrapUnknownStatus(status)
	}

	loan, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapLoanNotFound(id.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	loan.SetStatus(status, s.now())

	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.invalidateTotals(ctx)

	return loan, nil
}

// DeleteLoan removes a loan and its ledger.
func (s *LoanService) DeleteLoan(ctx context.Context, id uuid.UUID) error {
	if err := s.loanRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapLoanNotFound(id.String())
		}
		return customError.WrapDatabaseError(err)
	}
	s.invalidateTotals(ctx)
	return nil
}

// RecalculateAllBalances replays every loan's ledger to repair drift in the
// cached paid-installment counts and statuses. Per-loan failures are logged
// and skipped; the batch never aborts.
func (s *LoanService) RecalculateAllBalances(ctx context.Context) (*domain.RecalculateResult, error) {
	loans, err := s.loanRepo.List(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	result := &domain.RecalculateResult{}
	for _, loan := range loans {
		changed, err := s.recompute(ctx, loan)
		if err != nil {
			log.Printf("recalculate: skipping loan %s: %v", loan.ID, err)
			continue
		}

		if changed {
			if err := s.loanRepo.Update(ctx, loan); err != nil {
				log.Printf("recalculate: saving loan %s: %v", loan.ID, err)
				continue
			}
			result.UpdatedLoans++
		}
		result.ProcessedLoans++
	}
	result.Message = fmt.Sprintf("recalculated %d loans, %d updated", result.ProcessedLoans, result.UpdatedLoans)

	s.invalidateTotals(ctx)

	return result, nil
}

// FixPrincipalAmounts is the bulk repair job for entries recorded before the
// principal/interest split existed: any entry whose principal diverges from
// its amount without a recorded interest portion is reset to full principal.
func (s *LoanService) FixPrincipalAmounts(ctx context.Context) (*domain.FixPrincipalResult, error) {
	txns, err := s.transactionRepo.List(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	result := &domain.FixPrincipalResult{CheckedTransactions: len(txns)}
	for _, txn := range txns {
		hasInterest := txn.InterestAmount.Valid && txn.InterestAmount.Decimal.IsPositive()
		if txn.PrincipalAmount.Equal(txn.Amount) || hasInterest {
			continue
		}

		txn.PrincipalAmount = txn.Amount
		if err := s.transactionRepo.Update(ctx, txn); err != nil {
			log.Printf("fix-principal: transaction %s: %v", txn.ID, err)
			continue
		}
		result.FixedTransactions++
	}

	if _, err := s.RecalculateAllBalances(ctx); err != nil {
		return nil, err
	}
	result.Message = fmt.Sprintf("fixed %d of %d transactions", result.FixedTransactions, result.CheckedTransactions)

	return result, nil
}

// TotalActiveAmount sums the principal of all ACTIVE loans.
func (s *LoanService) TotalActiveAmount(ctx context.Context) (decimal.Decimal, error) {
	if cached, ok := s.cachedTotal(ctx, cacheKeyTotalActive); ok {
		return cached, nil
	}

	total, err := s.loanRepo.TotalAmountByStatus(ctx, domain.LoanStatusActive)
	if err != nil {
		return decimal.Zero, customError.WrapDatabaseError(err)
	}

	s.cacheTotal(ctx, cacheKeyTotalActive, total)

	return total, nil
}

// TotalRemainingAmount sums the outstanding principal across the open book
// (ACTIVE plus OVERDUE), derived from each loan's ledger.
func (s *LoanService) TotalRemainingAmount(ctx context.Context) (decimal.Decimal, error) {
	if cached, ok := s.cachedTotal(ctx, cacheKeyTotalRemaining); ok {
		return cached, nil
	}

	loans, err := s.ListActiveAndOverdue(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, loan := range loans {
		if loan.Transactions, err = s.transactionRepo.ListByLoanID(ctx, loan.ID); err != nil {
			return decimal.Zero, customError.WrapDatabaseError(err)
		}
		total = total.Add(loan.RemainingAmount())
	}

	s.cacheTotal(ctx, cacheKeyTotalRemaining, total)

	return total, nil
}

// HomeStats builds the dashboard summary.
func (s *LoanService) HomeStats(ctx context.Context) (*domain.HomeStats, error) {
	active, err := s.loanRepo.ListByStatus(ctx, domain.LoanStatusActive)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	overdue, err := s.loanRepo.ListByStatus(ctx, domain.LoanStatusOverdue)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	stats := &domain.HomeStats{
		ActiveLoansCount:  len(active),
		OverdueLoansCount: len(overdue),
		ActiveLoans:       active,
	}
	if len(overdue) > 0 {
		stats.OverdueLoans = overdue
	}
	return stats, nil
}

// Progress summarizes how far along a loan's repayment is.
func (s *LoanService) Progress(ctx context.Context, id uuid.UUID) (*domain.LoanProgress, error) {
	loan, err := s.GetLoan(ctx, id)
	if err != nil {
		return nil, err
	}

	progress := &domain.LoanProgress{
		LoanID:                loan.ID,
		TotalInstallments:     loan.Installments,
		PaidInstallments:      loan.PaidInstallments,
		RemainingInstallments: loan.Installments - loan.PaidInstallments,
		OriginalAmount:        loan.Amount,
		TotalAmount:           loan.TotalAmount(),
		InstallmentAmount:     loan.InstallmentAmount(),
		RemainingAmount:       loan.RemainingAmount(),
		ActualPaymentCount:    domain.CountPaidInstallments(loan.Transactions),
		Status:                loan.Status,
	}
	if loan.Installments > 0 {
		pct := float64(loan.PaidInstallments) / float64(loan.Installments) * 100
		progress.ProgressPercentage = float64(int(pct*100+0.5)) / 100
	}
	return progress, nil
}

// recompute re-derives paid installments and settlement status from the
// loan's ledger, reporting whether anything changed.
func (s *LoanService) recompute(ctx context.Context, loan *domain.Loan) (bool, error) {
	txns, err := s.transactionRepo.ListByLoanID(ctx, loan.ID)
	if err != nil {
		return false, customError.WrapDatabaseError(err)
	}
	loan.Transactions = txns

	changed := false
	if paid := domain.CountPaidInstallments(txns); paid != loan.PaidInstallments {
		loan.PaidInstallments = paid
		changed = true
	}

	if loan.Status == domain.LoanStatusActive && loan.IsSettled() {
		loan.SetStatus(domain.LoanStatusCompleted, s.now())
		changed = true
	}

	return changed, nil
}

// Cache access is best-effort: a cold or unreachable cache falls back to
// the database.

func (s *LoanService) cachedTotal(ctx context.Context, key string) (decimal.Decimal, bool) {
	if s.redis == nil {
		return decimal.Zero, false
	}
	val, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("cache: reading %s: %v", key, err)
		}
		return decimal.Zero, false
	}
	total, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, false
	}
	return total, true
}

func (s *LoanService) cacheTotal(ctx context.Context, key string, total decimal.Decimal) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Set(ctx, key, total.String(), s.config.GetCacheTTL()).Err(); err != nil {
		log.Printf("cache: writing %s: %v", key, err)
	}
}

func (s *LoanService) invalidateTotals(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, cacheKeyTotalActive, cacheKeyTotalRemaining).Err(); err != nil {
		log.Printf("cache: invalidating totals: %v", err)
	}
}
