package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Requests and responses exchanged with the HTTP layer.

type CreateLoanRequest struct {
	UserID           uuid.UUID           `json:"user_id" validate:"required"`
	Amount           decimal.Decimal     `json:"amount" validate:"required"`
	InterestRate     decimal.Decimal     `json:"interest_rate" validate:"required"`
	Installments     int                 `json:"installments" validate:"gte=0"`
	LoanType         string              `json:"loan_type" validate:"required"`
	PaymentFrequency string              `json:"payment_frequency" validate:"required"`
	RealInstallment  decimal.NullDecimal `json:"real_installment"`
	OpenEnded        bool                `json:"open_ended"`
	StartDate        *time.Time          `json:"start_date"`
}

type PostTransactionRequest struct {
	LoanID          uuid.UUID            `json:"loan_id"`
	Type            string               `json:"type" validate:"required"`
	Amount          decimal.Decimal      `json:"amount" validate:"required"`
	PrincipalAmount *decimal.Decimal     `json:"principal_amount"`
	InterestAmount  decimal.NullDecimal  `json:"interest_amount"`
	PaymentMethod   string               `json:"payment_method" validate:"required"`
	Notes           string               `json:"notes"`
	Date            *time.Time           `json:"date"`
}

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required"`
	UserCode string `json:"user_code"`
	Phone    string `json:"phone" validate:"required"`
	Address  string `json:"address" validate:"required"`
}

type CreatePaymentRequest struct {
	UserID          uuid.UUID       `json:"user_id" validate:"required"`
	Amount          decimal.Decimal `json:"amount" validate:"required"`
	DebtPayment     decimal.Decimal `json:"debt_payment"`
	InterestPayment decimal.Decimal `json:"interest_payment"`
	PaymentMethod   string          `json:"payment_method" validate:"required"`
	Description     string          `json:"description"`
	Registered      bool            `json:"registered"`
	Outgoing        bool            `json:"outgoing"`
	Partial         bool            `json:"partial"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// RecalculateResult reports the outcome of the full-book repair job.
type RecalculateResult struct {
	ProcessedLoans int    `json:"processed_loans"`
	UpdatedLoans   int    `json:"updated_loans"`
	Message        string `json:"message"`
}

// FixPrincipalResult reports the outcome of the principal-amount repair job.
type FixPrincipalResult struct {
	CheckedTransactions int    `json:"checked_transactions"`
	FixedTransactions   int    `json:"fixed_transactions"`
	Message             string `json:"message"`
}

// LoanProgress summarizes repayment progress for one loan.
type LoanProgress struct {
	LoanID                uuid.UUID       `json:"loan_id"`
	TotalInstallments     int             `json:"total_installments"`
	PaidInstallments      int             `json:"paid_installments"`
	RemainingInstallments int             `json:"remaining_installments"`
	OriginalAmount        decimal.Decimal `json:"original_amount"`
	TotalAmount           decimal.Decimal `json:"total_amount"`
	InstallmentAmount     decimal.Decimal `json:"installment_amount"`
	RemainingAmount       decimal.Decimal `json:"remaining_amount"`
	ProgressPercentage    float64         `json:"progress_percentage"`
	ActualPaymentCount    int             `json:"actual_payment_count"`
	Status                string          `json:"status"`
}

// HomeStats is the dashboard summary of the loan book.
type HomeStats struct {
	ActiveLoansCount  int     `json:"active_loans_count"`
	OverdueLoansCount int     `json:"overdue_loans_count"`
	ActiveLoans       []*Loan `json:"active_loans"`
	OverdueLoans      []*Loan `json:"overdue_loans,omitempty"`
}
