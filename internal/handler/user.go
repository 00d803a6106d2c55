package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/trustbank/lending-engine/internal/domain"
	"github.com/trustbank/lending-engine/internal/service"
	"github.com/trustbank/lending-engine/pkg/response"
)

type UserHandler struct {
	users     *service.UserService
	validator *validator.Validate
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{
		users:     users,
		validator: validator.New(),
	}
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateUserRequest
	if !decodeAndValidate(w, r, h.validator, &request) {
		return
	}

	user, err := h.users.CreateUser(r.Context(), &request)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, user)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, user)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, users)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var request domain.CreateUserRequest
	if !decodeAndValidate(w, r, h.validator, &request) {
		return
	}

	user, err := h.users.UpdateUser(r.Context(), id, &request)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, user)
}

// Delete removes the user and cascades over their loans, ledgers, and
// payments.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, nil)
}
