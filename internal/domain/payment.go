package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is a quick cash movement recorded against a user, separate from
// the per-loan transaction ledger. Registered payments are subject to a
// retention sweep after a configurable number of days.
type Payment struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          uuid.UUID       `json:"user_id" db:"user_id"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	DebtPayment     decimal.Decimal `json:"debt_payment" db:"debt_payment"`
	InterestPayment decimal.Decimal `json:"interest_payment" db:"interest_payment"`
	PaymentMethod   string          `json:"payment_method" db:"payment_method"`
	Description     string          `json:"description" db:"description"`
	PaymentDate     time.Time       `json:"payment_date" db:"payment_date"`
	Registered      bool            `json:"registered" db:"registered"`
	Outgoing        bool            `json:"outgoing" db:"outgoing"`
}
