package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/trustbank/lending-engine/internal/domain"
)

type transactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = `
	id, loan_id, type, amount, principal_amount, interest_amount,
	date, payment_method, notes, created_at
`

func (r *transactionRepository) Create(ctx context.Context, txn *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, loan_id, type, amount, principal_amount,
			interest_amount, date, payment_method, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		txn.ID,
		txn.LoanID,
		txn.Type,
		txn.Amount,
		txn.PrincipalAmount,
		txn.InterestAmount,
		txn.Date,
		txn.PaymentMethod,
		txn.Notes,
		txn.CreatedAt,
	)

	return err
}

func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	var txn domain.Transaction
	if err := r.db.GetContext(ctx, &txn, query, id); err != nil {
		return nil, err
	}

	return &txn, nil
}

func (r *transactionRepository) Update(ctx context.Context, txn *domain.Transaction) error {
	query := `
		UPDATE transactions
		SET type = $2, amount = $3, principal_amount = $4, interest_amount = $5,
			date = $6, payment_method = $7, notes = $8
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		txn.ID,
		txn.Type,
		txn.Amount,
		txn.PrincipalAmount,
		txn.InterestAmount,
		txn.Date,
		txn.PaymentMethod,
		txn.Notes,
	)

	return err
}

func (r *transactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	return err
}

func (r *transactionRepository) List(ctx context.Context) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY date DESC`

	var txns []*domain.Transaction
	if err := r.db.SelectContext(ctx, &txns, query); err != nil {
		return nil, err
	}

	return txns, nil
}

func (r *transactionRepository) ListByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE loan_id = $1 ORDER BY date ASC`

	var txns []*domain.Transaction
	if err := r.db.SelectContext(ctx, &txns, query, loanID); err != nil {
		return nil, err
	}

	return txns, nil
}

func (r *transactionRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE date BETWEEN $1 AND $2 ORDER BY date ASC`

	var txns []*domain.Transaction
	if err := r.db.SelectContext(ctx, &txns, query, start, end); err != nil {
		return nil, err
	}

	return txns, nil
}

func (r *transactionRepository) TotalPayments(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE type = $1`
	if err := r.db.GetContext(ctx, &total, query, domain.TransactionTypePayment); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
