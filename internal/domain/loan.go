package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LoanStatusActive    = "ACTIVE"
	LoanStatusOverdue   = "OVERDUE"
	LoanStatusCompleted = "COMPLETED"
)

// LoanTypeFixed ("Fijo") charges one period of interest per installment on
// the original principal; any other type charges a single interest amount
// for the whole term.
const LoanTypeFixed = "Fijo"

var validStatuses = map[string]bool{
	LoanStatusActive:    true,
	LoanStatusOverdue:   true,
	LoanStatusCompleted: true,
}

// IsValidStatus reports whether s is a recognized loan status.
func IsValidStatus(s string) bool {
	return validStatuses[s]
}

// Loan represents a loan entity with its cached schedule pointer.
// PaidInstallments is a denormalized cache of the ledger count and is
// re-derived on every transaction write.
type Loan struct {
	ID               uuid.UUID           `json:"id" db:"id"`
	UserID           uuid.UUID           `json:"user_id" db:"user_id"`
	Amount           decimal.Decimal     `json:"amount" db:"amount"`
	InterestRate     decimal.Decimal     `json:"interest_rate" db:"interest_rate"`
	Installments     int                 `json:"installments" db:"installments"`
	PaidInstallments int                 `json:"paid_installments" db:"paid_installments"`
	StartDate        time.Time           `json:"start_date" db:"start_date"`
	LoanType         string              `json:"loan_type" db:"loan_type"`
	PaymentFrequency string              `json:"payment_frequency" db:"payment_frequency"`
	RealInstallment  decimal.NullDecimal `json:"real_installment" db:"real_installment"`
	OpenEnded        bool                `json:"open_ended" db:"open_ended"`
	Status           string              `json:"status" db:"status"`
	PreviousStatus   *string             `json:"previous_status" db:"previous_status"`
	StatusChangeDate *time.Time          `json:"status_change_date" db:"status_change_date"`
	NextPaymentDate  *time.Time          `json:"next_payment_date" db:"next_payment_date"`
	CreatedAt        time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at" db:"updated_at"`

	// Transactions is the loan's ledger, loaded explicitly by the service
	// layer. Never populated implicitly by the repository.
	Transactions []*Transaction `json:"transactions,omitempty" db:"-"`
}

var hundred = decimal.NewFromInt(100)

// TotalAmount returns principal plus interest for the whole loan term.
func (l *Loan) TotalAmount() decimal.Decimal {
	interest := l.Amount.Mul(l.InterestRate).Div(hundred)
	if l.LoanType == LoanTypeFixed {
		return l.Amount.Add(interest.Mul(decimal.NewFromInt(int64(l.Installments))))
	}
	return l.Amount.Add(interest)
}

// InstallmentAmount returns the fixed per-period amount, rounded to two
// decimals half-up. For fixed-type loans the installment covers one period's
// interest only; principal is repaid separately. Open-ended loans may carry
// zero installments, in which case no per-period amount is defined.
func (l *Loan) InstallmentAmount() decimal.Decimal {
	if l.LoanType == LoanTypeFixed {
		return l.Amount.Mul(l.InterestRate).Div(hundred).Round(2)
	}
	if l.Installments == 0 {
		return decimal.Zero
	}
	return l.TotalAmount().Div(decimal.NewFromInt(int64(l.Installments))).Round(2)
}

// RemainingAmount derives the unpaid principal from the loaded ledger,
// clamped at zero. Interest payments never reduce principal.
func (l *Loan) RemainingAmount() decimal.Decimal {
	remaining := l.Amount.Sub(PrincipalPaid(l.Transactions))
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// SetStatus transitions the loan, stashing the previous status and the
// transition timestamp. Same-value sets are a no-op.
func (l *Loan) SetStatus(status string, now time.Time) {
	if l.Status == status {
		return
	}
	prev := l.Status
	l.PreviousStatus = &prev
	l.StatusChangeDate = &now
	l.Status = status
}

// MarshalJSON adds the computed amortization figures to every serialized
// loan, so API responses carry them alongside the stored columns.
func (l *Loan) MarshalJSON() ([]byte, error) {
	type alias Loan
	return json.Marshal(struct {
		*alias
		TotalAmount       decimal.Decimal `json:"total_amount"`
		InstallmentAmount decimal.Decimal `json:"installment_amount"`
	}{
		alias:             (*alias)(l),
		TotalAmount:       l.TotalAmount(),
		InstallmentAmount: l.InstallmentAmount(),
	})
}

// IsSettled reports whether the loan should be considered fully repaid:
// no principal outstanding, or all installments covered on a loan with a
// fixed installment count.
func (l *Loan) IsSettled() bool {
	if !l.RemainingAmount().IsPositive() {
		return true
	}
	return !l.OpenEnded && l.Installments > 0 && l.PaidInstallments >= l.Installments
}
