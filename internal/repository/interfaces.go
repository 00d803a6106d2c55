package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trustbank/lending-engine/internal/domain"
)

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create creates a new loan
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)

	// Update persists a loan's mutable fields
	Update(ctx context.Context, loan *domain.Loan) error

	// Delete removes a loan and its transactions
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns all loans, newest first
	List(ctx context.Context) ([]*domain.Loan, error)

	// ListByUserID returns all loans owned by a user
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error)

	// ListByStatus returns loans in the given status
	ListByStatus(ctx context.Context, status string) ([]*domain.Loan, error)

	// CountByStatus counts loans in the given status
	CountByStatus(ctx context.Context, status string) (int, error)

	// TotalAmountByStatus sums the principal of loans in the given status
	TotalAmountByStatus(ctx context.Context, status string) (decimal.Decimal, error)

	// ApplyPayment inserts a ledger entry and persists the recomputed loan
	// in one database transaction
	ApplyPayment(ctx context.Context, loan *domain.Loan, txn *domain.Transaction) error

	// RemoveEntry deletes a ledger entry and persists the recomputed loan
	// in one database transaction
	RemoveEntry(ctx context.Context, loan *domain.Loan, txnID uuid.UUID) error
}

// TransactionRepository defines the interface for ledger data operations
type TransactionRepository interface {
	// Create inserts a ledger entry
	Create(ctx context.Context, txn *domain.Transaction) error

	// GetByID retrieves a ledger entry by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)

	// Update rewrites a ledger entry (correction endpoints only)
	Update(ctx context.Context, txn *domain.Transaction) error

	// Delete removes a ledger entry
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns all ledger entries, newest first
	List(ctx context.Context) ([]*domain.Transaction, error)

	// ListByLoanID returns a loan's ledger in posting order
	ListByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.Transaction, error)

	// ListByDateRange returns entries posted within [start, end]
	ListByDateRange(ctx context.Context, start, end time.Time) ([]*domain.Transaction, error)

	// TotalPayments sums the amount of all payment entries
	TotalPayments(ctx context.Context) (decimal.Decimal, error)
}

// UserRepository defines the interface for borrower data operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// Update persists user changes
	Update(ctx context.Context, user *domain.User) error

	// List returns all users ordered by user code
	List(ctx context.Context) ([]*domain.User, error)

	// ExistsByCode reports whether a user code is taken
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// DeleteCascade removes the user's payments, loan ledgers, loans, and
	// finally the user row, in one database transaction
	DeleteCascade(ctx context.Context, id uuid.UUID) error
}

// PaymentRepository defines the interface for quick cash movement operations
type PaymentRepository interface {
	// Create inserts a payment
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)

	// Delete removes a payment
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns all payments, newest first
	List(ctx context.Context) ([]*domain.Payment, error)

	// ListByUserID returns a user's payments, newest first
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Payment, error)

	// DeleteRegisteredBefore removes registered payments older than cutoff
	// and returns how many were removed
	DeleteRegisteredBefore(ctx context.Context, cutoff time.Time) (int, error)
}
