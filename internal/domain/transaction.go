package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransactionTypePayment      = "PAYMENT"
	TransactionTypeDisbursement = "DISBURSEMENT"
	TransactionTypeAdjustment   = "ADJUSTMENT"
)

// Transaction is one ledger entry against a loan. PrincipalAmount carries
// the portion that reduces principal; interest is recorded separately and
// never reduces the loan balance.
type Transaction struct {
	ID              uuid.UUID           `json:"id" db:"id"`
	LoanID          uuid.UUID           `json:"loan_id" db:"loan_id"`
	Type            string              `json:"type" db:"type"`
	Amount          decimal.Decimal     `json:"amount" db:"amount"`
	PrincipalAmount decimal.Decimal     `json:"principal_amount" db:"principal_amount"`
	InterestAmount  decimal.NullDecimal `json:"interest_amount" db:"interest_amount"`
	Date            time.Time           `json:"date" db:"date"`
	PaymentMethod   string              `json:"payment_method" db:"payment_method"`
	Notes           string              `json:"notes" db:"notes"`
	CreatedAt       time.Time           `json:"created_at" db:"created_at"`
}

// PrincipalPaid sums PrincipalAmount over entries with a positive principal
// portion. Pure function over the loaded ledger; an empty ledger pays zero.
func PrincipalPaid(txs []*Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if t.PrincipalAmount.IsPositive() {
			total = total.Add(t.PrincipalAmount)
		}
	}
	return total
}

// CountPaidInstallments counts ledger entries with a positive principal
// portion. This is the sole source of truth for Loan.PaidInstallments.
func CountPaidInstallments(txs []*Transaction) int {
	count := 0
	for _, t := range txs {
		if t.PrincipalAmount.IsPositive() {
			count++
		}
	}
	return count
}
