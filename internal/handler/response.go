package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON / writeError so the API has one
// success shape (the resource itself) and one error shape:
//
//	{"error": "payment_required", "message": "User has not paid or is out of credits"}
//	{"error": "validation_error", "message": "Please enter a URL", "field": "videoUrl"}
//
// The frontend branches on "error" (machine-readable) and shows "message".

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/video-guides/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable kind, e.g. "not_found"
	Message string `json:"message"`         // human-readable description
	Field   string `json:"field,omitempty"` // offending input field, validation errors only
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be set before the body is written.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// headers are already sent, all we can do is log
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorKinds maps each apperror sentinel to its HTTP status and wire name.
// Order matters only for errors carrying more than one sentinel; the first
// match wins.
var errorKinds = []struct {
	sentinel error
	status   int
	kind     string
}{
	{apperror.ErrValidation, http.StatusBadRequest, "validation_error"},
	{apperror.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{apperror.ErrPaymentRequired, http.StatusPaymentRequired, "payment_required"},
	{apperror.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperror.ErrConflict, http.StatusConflict, "conflict"},
	{apperror.ErrProcessing, http.StatusBadGateway, "processing_failed"},
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// The service layer never sees status codes; this is the one place where
// apperror kinds become HTTP. errors.As finds the *AppError for the message,
// errors.Is finds the sentinel for the status, however deeply either is wrapped.
//
// Anything that is not an *AppError is a 500 with a generic message. Raw
// error strings can contain SQL, file paths or processor responses and are
// only logged, never returned.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		for _, k := range errorKinds {
			if errors.Is(err, k.sentinel) {
				writeJSON(w, k.status, ErrorResponse{
					Error:   k.kind,
					Message: appErr.Message,
					Field:   appErr.Field,
				})
				return
			}
		}
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
