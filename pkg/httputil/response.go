package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/ironfuel/cartapi/pkg/errors"
	"github.com/ironfuel/cartapi/pkg/logger"
	"github.com/ironfuel/cartapi/pkg/validator"
)

// ErrorEnvelope is the body of every non-2xx JSON response.
type ErrorEnvelope struct {
	Error *ErrorResponse `json:"error"`
}

// ErrorResponse describes a failed request.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// MessageResponse is a bare acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

func requestLogger(r *http.Request, fallback *slog.Logger) *slog.Logger {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}
	return l
}

// WriteError maps err to a status and error envelope. AppErrors keep their
// code and client-safe message. Anything else becomes a 500 with a generic
// message. Server errors are logged with their full cause chain.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	requestID := logger.CorrelationIDFromContext(r.Context())

	resp := &ErrorResponse{RequestID: requestID}
	var status int

	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		status, resp.Code, resp.Message = appErr.Status, appErr.Code, appErr.Message
	case errors.Is(err, apperrors.ErrNotFound):
		status, resp.Code, resp.Message = http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, apperrors.ErrInvalidInput):
		status, resp.Code, resp.Message = http.StatusBadRequest, "INVALID_INPUT", err.Error()
	default:
		status, resp.Code, resp.Message = http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}

	if status >= http.StatusInternalServerError {
		requestLogger(r, fallback).ErrorContext(r.Context(), "request failed",
			slog.String("code", resp.Code),
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, ErrorEnvelope{Error: resp})
}

// WriteValidationError writes a 400 for a request that failed decoding or
// tag validation. Tag failures carry per-field messages.
func WriteValidationError(w http.ResponseWriter, r *http.Request, err error) {
	resp := &ErrorResponse{RequestID: logger.CorrelationIDFromContext(r.Context())}

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		resp.Code = "VALIDATION_ERROR"
		resp.Message = "request validation failed"
		resp.Fields = valErr.Fields()
	} else {
		resp.Code = "INVALID_INPUT"
		resp.Message = err.Error()
	}

	WriteJSON(w, http.StatusBadRequest, ErrorEnvelope{Error: resp})
}
