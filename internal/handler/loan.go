package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/trustbank/lending-engine/internal/domain"
	"github.com/trustbank/lending-engine/internal/service"
	"github.com/trustbank/lending-engine/pkg/response"
)

type LoanHandler struct {
	loans     *service.LoanService
	overdue   *service.OverdueService
	validator *validator.Validate
}

func NewLoanHandler(loans *service.LoanService, overdue *service.OverdueService) *LoanHandler {
	return &LoanHandler{
		loans:     loans,
		overdue:   overdue,
		validator: validator.New(),
	}
}

func (h *LoanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateLoanRequest
	if !decodeAndValidate(w, r, h.validator, &request) {
		return
	}

	loan, err := h.loans.CreateLoan(r.Context(), &request)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, loan)
}

func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	loan, err := h.loans.GetLoan(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, loan)
}

func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	loans, err := h.loans.ListLoans(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, loans)
}

func (h *LoanHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	loans, err := h.loans.ListLoansByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, loans)
}

func (h *LoanHandler) ListActiveAndOverdueByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	loans, err := h.loans.ListActiveAndOverdueByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, loans)
}

func (h *LoanHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	loans, err := h.loans.ListLoansByStatus(r.Context(), domain.LoanStatusActive)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, loans)
}

func (h *LoanHandler) ListActiveAndOverdue(w http.ResponseWriter, r *http.Request) {
	loans, err := h.loans.ListActiveAndOverdue(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, loans)
}

func (h *LoanHandler) TotalActive(w http.ResponseWriter, r *http.Request) {
	total, err := h.loans.TotalActiveAmount(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, total)
}

func (h *LoanHandler) TotalRemaining(w http.ResponseWriter, r *http.Request) {
	total, err := h.loans.TotalRemainingAmount(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, total)
}

func (h *LoanHandler) HomeStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.loans.HomeStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, stats)
}

func (h *LoanHandler) Progress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	progress, err := h.loans.Progress(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, progress)
}

func (h *LoanHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var request domain.UpdateStatusRequest
	if !decodeAndValidate(w, r, h.validator, &request) {
		return
	}

	loan, err := h.loans.UpdateStatus(r.Context(), id, request.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, loan)
}

func (h *LoanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.loans.DeleteLoan(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, nil)
}

func (h *LoanHandler) RecalculateBalances(w http.ResponseWriter, r *http.Request) {
	result, err := h.loans.RecalculateAllBalances(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, result)
}

// CheckOverdue runs the sweep on demand.
func (h *LoanHandler) CheckOverdue(w http.ResponseWriter, r *http.Request) {
	flipped, err := h.overdue.Sweep(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, map[string]interface{}{
		"overdue_count": len(flipped),
		"overdue_loans": flipped,
	})
}

func (h *LoanHandler) ListOverdue(w http.ResponseWriter, r *http.Request) {
	loans, err := h.overdue.OverdueLoans(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, loans)
}

func (h *LoanHandler) OverdueCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.overdue.OverdueCount(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, count)
}
