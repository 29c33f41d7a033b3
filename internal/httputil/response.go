package httputil

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// ErrorResponse is the body of non-2xx responses that are not tied to input.
type ErrorResponse struct {
	Message string `json:"message"`
}

// FieldErrorResponse is the body of every 400. Field is always present and
// is "" when the error concerns the body as a whole.
type FieldErrorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field"`
}

// RespondWithError writes {"message": ...}.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Message: message})
}

// RespondWithFieldError writes {"message": ..., "field": ...}.
func RespondWithFieldError(w http.ResponseWriter, code int, message, field string) {
	RespondWithJSON(w, code, FieldErrorResponse{Message: message, Field: field})
}

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"Internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// IDParam parses a positive integer URL parameter.
func IDParam(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
