package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/trustbank/lending-engine/internal/domain"
	"github.com/trustbank/lending-engine/internal/service"
	"github.com/trustbank/lending-engine/pkg/response"
)

type PaymentHandler struct {
	payments  *service.PaymentService
	validator *validator.Validate
}

func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		payments:  payments,
		validator: validator.New(),
	}
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var request domain.CreatePaymentRequest
	if !decodeAndValidate(w, r, h.validator, &request) {
		return
	}

	payment, err := h.payments.CreatePayment(r.Context(), &request)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, payment)
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	payment, err := h.payments.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, payment)
}

func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	payments, err := h.payments.ListPayments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, payments)
}

func (h *PaymentHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	payments, err := h.payments.ListPaymentsByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, payments)
}

func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.payments.DeletePayment(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, nil)
}
