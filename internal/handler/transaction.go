package handler

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trustbank/lending-engine/internal/domain"
	"github.com/trustbank/lending-engine/internal/service"
	"github.com/trustbank/lending-engine/pkg/response"
)

type TransactionHandler struct {
	loans        *service.LoanService
	transactions *service.TransactionService
	validator    *validator.Validate
}

func NewTransactionHandler(loans *service.LoanService, transactions *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		loans:        loans,
		transactions: transactions,
		validator:    validator.New(),
	}
}

// Create posts a ledger entry; the loan lifecycle update rides along in the
// same service call.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var request domain.PostTransactionRequest
	if !decodeAndValidate(w, r, h.validator, &request) {
		return
	}

	txn, err := h.loans.PostTransaction(r.Context(), &request)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, txn)
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	txn, err := h.transactions.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, txn)
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	txns, err := h.transactions.ListTransactions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, txns)
}

func (h *TransactionHandler) ListByLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r, "loanId")
	if !ok {
		return
	}

	txns, err := h.transactions.ListTransactionsByLoan(r.Context(), loanID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, txns)
}

// ListByDateRange expects start_date and end_date query parameters in
// YYYY-MM-DD form; the end day is included whole.
func (h *TransactionHandler) ListByDateRange(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse("2006-01-02", r.URL.Query().Get("start_date"))
	if err != nil {
		response.BadRequest(w, "invalid start_date", err)
		return
	}
	end, err := time.Parse("2006-01-02", r.URL.Query().Get("end_date"))
	if err != nil {
		response.BadRequest(w, "invalid end_date", err)
		return
	}

	txns, err := h.transactions.ListTransactionsByDateRange(r.Context(), start, end)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, txns)
}

func (h *TransactionHandler) TotalPayments(w http.ResponseWriter, r *http.Request) {
	total, err := h.transactions.TotalPayments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, total)
}

func (h *TransactionHandler) FixPrincipalAmounts(w http.ResponseWriter, r *http.Request) {
	result, err := h.loans.FixPrincipalAmounts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.loans.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, nil)
}
