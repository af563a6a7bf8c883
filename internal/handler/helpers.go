package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/englishhub/englishhub/internal/model"
	"github.com/englishhub/englishhub/internal/service"
	"github.com/englishhub/englishhub/internal/store"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the standard error envelope.
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, model.ErrorResponse{
		Error: model.ErrorDetail{Code: code, Message: message},
	})
}

// readJSON decodes the request body into v, rejecting unknown fields and
// bodies over maxBodyBytes.
func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", model.ErrInvalidInput, err)
	}
	return nil
}

// classify maps a domain error to an HTTP status and a message that is safe
// to show the caller. Storage details never leave the server.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid username or password"
	case errors.Is(err, service.ErrInvalidSession):
		return http.StatusUnauthorized, "Invalid or expired session"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable, "Storage is temporarily unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// writeServiceError classifies err, logs server-side failures and writes the
// envelope.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error) {
	status, message := classify(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), op+" failed", "error", err)
	}
	writeError(w, status, message)
}

type successResponse struct {
	Success bool `json:"success"`
}
