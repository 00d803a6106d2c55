package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	customError "github.com/trustbank/lending-engine/pkg/errors"
	"github.com/trustbank/lending-engine/pkg/response"
)

// decodeAndValidate parses the JSON body into dst and runs struct
// validation, writing the 400 response itself on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		response.BadRequest(w, "validation failed", err)
		return false
	}
	return true
}

// pathID extracts a UUID path variable, writing the 400 response itself on
// failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.BadRequest(w, "invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps the service error taxonomy to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case customError.IsNotFound(err):
		response.NotFound(w, err.Error())
	case customError.IsInvalidRequest(err):
		response.BadRequest(w, err.Error(), nil)
	case customError.IsConflict(err):
		response.Conflict(w, err.Error(), nil)
	default:
		response.InternalServerError(w, "internal error", err)
	}
}
