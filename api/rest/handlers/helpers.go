package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/apperrors"
)

var validate = validator.New()

// decodeAndValidate parses a JSON request body and runs struct
// validation on it
func decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.Validation("invalid request body: %v", err)
	}
	if err := validate.Struct(dst); err != nil {
		return apperrors.Validation("invalid request: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP status codes
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		status = http.StatusBadRequest
	case apperrors.KindConflict:
		status = http.StatusConflict
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindSecurity:
		status = http.StatusUnprocessableEntity
	case apperrors.KindExternal:
		status = http.StatusBadGateway
	}

	writeJSON(w, status, map[string]string{
		"kind":  string(apperrors.KindOf(err)),
		"error": err.Error(),
	})
}
