package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/trustbank/lending-engine/internal/domain"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

const loanColumns = `
	id, user_id, amount, interest_rate, installments, paid_installments,
	start_date, loan_type, payment_frequency, real_installment, open_ended,
	status, previous_status, status_change_date, next_payment_date,
	created_at, updated_at
`

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (id, user_id, amount, interest_rate, installments, paid_installments,
			start_date, loan_type, payment_frequency, real_installment, open_ended,
			status, previous_status, status_change_date, next_payment_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.db.ExecContext(ctx, query,
		loan.ID,
		loan.UserID,
		loan.Amount,
		loan.InterestRate,
		loan.Installments,
		loan.PaidInstallments,
		loan.StartDate,
		loan.LoanType,
		loan.PaymentFrequency,
		loan.RealInstallment,
		loan.OpenEnded,
		loan.Status,
		loan.PreviousStatus,
		loan.StatusChangeDate,
		loan.NextPaymentDate,
		loan.CreatedAt,
		loan.UpdatedAt,
	)

	return err
}

func (r *loanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	var loan domain.Loan
	if err := r.db.GetContext(ctx, &loan, query, id); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	_, err := r.db.ExecContext(ctx, loanUpdateQuery, loanUpdateArgs(loan)...)
	return err
}

const loanUpdateQuery = `
	UPDATE loans
	SET amount = $2, interest_rate = $3, installments = $4, paid_installments = $5,
		loan_type = $6, payment_frequency = $7, real_installment = $8, open_ended = $9,
		status = $10, previous_status = $11, status_change_date = $12,
		next_payment_date = $13, updated_at = $14
	WHERE id = $1
`

func loanUpdateArgs(loan *domain.Loan) []interface{} {
	return []interface{}{
		loan.ID,
		loan.Amount,
		loan.InterestRate,
		loan.Installments,
		loan.PaidInstallments,
		loan.LoanType,
		loan.PaymentFrequency,
		loan.RealInstallment,
		loan.OpenEnded,
		loan.Status,
		loan.PreviousStatus,
		loan.StatusChangeDate,
		loan.NextPaymentDate,
		time.Now(),
	}
}

func (r *loanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `DELETE FROM transactions WHERE loan_id = $1`, id); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM loans WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}

	return tx.Commit()
}

func (r *loanRepository) List(ctx context.Context) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans ORDER BY created_at DESC`

	var loans []*domain.Loan
	if err := r.db.SelectContext(ctx, &loans, query); err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE user_id = $1 ORDER BY created_at DESC`

	var loans []*domain.Loan
	if err := r.db.SelectContext(ctx, &loans, query, userID); err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) ListByStatus(ctx context.Context, status string) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE status = $1 ORDER BY created_at DESC`

	var loans []*domain.Loan
	if err := r.db.SelectContext(ctx, &loans, query, status); err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM loans WHERE status = $1`, status)
	return count, err
}

func (r *loanRepository) TotalAmountByStatus(ctx context.Context, status string) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(amount), 0) FROM loans WHERE status = $1`
	if err := r.db.GetContext(ctx, &total, query, status); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// ApplyPayment keeps the loan row and its ledger consistent: the entry
// insert and the loan update either both commit or neither does.
func (r *loanRepository) ApplyPayment(ctx context.Context, loan *domain.Loan, txn *domain.Transaction) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insert := `
		INSERT INTO transactions (id, loan_id, type, amount, principal_amount,
			interest_amount, date, payment_method, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.ExecContext(ctx, insert,
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
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, loanUpdateQuery, loanUpdateArgs(loan)...); err != nil {
		return err
	}

	return tx.Commit()
}

// RemoveEntry is the inverse of ApplyPayment: the ledger delete and the
// recomputed loan row commit together.
func (r *loanRepository) RemoveEntry(ctx context.Context, loan *domain.Loan, txnID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, txnID); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, loanUpdateQuery, loanUpdateArgs(loan)...); err != nil {
		return err
	}

	return tx.Commit()
}
