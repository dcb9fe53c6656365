package handler

// Every error response has the same shape as the hosted service's:
//
//	{"error": "post not found with id abc123", "code": "not_found"}

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/postgen/internal/apperror"
)

// maxBodyBytes caps request bodies. Prompts are short.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error string `json:"error"` // Human-readable description
	Code  string `json:"code"`  // Machine-readable error type (e.g., "not_found")
}

// writeJSON sends a JSON response with the given status code. Headers must
// be set before WriteHeader; anything set afterwards is ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and sends it.
//
// The service layer never sees HTTP. It returns apperror sentinels and
// this is the one place they become status codes. errors.Is walks the
// whole chain, so "service/post: deleting post x: <AppError{ErrNotFound}>"
// still maps to 404.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrAuth):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		case errors.Is(err, apperror.ErrGeneration):
			status = http.StatusBadGateway
			errorType = "generation_failed"
		}

		writeJSON(w, status, ErrorResponse{
			Error: appErr.Message,
			Code:  errorType,
		})
		return
	}

	// Never leak raw error text: it may carry SQL or file paths.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: "An internal error occurred",
		Code:  "internal_error",
	})
}

// decodeJSON reads a JSON body into dst. A malformed body is a validation
// error so it lands on 400 through writeError.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("", fmt.Sprintf("Invalid JSON body: %v", err))
	}
	return nil
}
