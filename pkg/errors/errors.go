package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors shared by repositories, services and handlers.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrPaymentSession   = errors.New("payment session failed")
	ErrInternal         = errors.New("internal error")
)

// AppError is an error carrying a stable code, a client-safe message and the
// HTTP status it maps to.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// StoreUnavailable creates a 500 error for a failed or unreachable store
// round trip. The cause is kept for logs and never shown to the client.
func StoreUnavailable(cause error) *AppError {
	return &AppError{
		Code:    "STORE_UNAVAILABLE",
		Message: "the cart store is unavailable",
		Status:  http.StatusInternalServerError,
		Err:     errors.Join(ErrStoreUnavailable, cause),
	}
}

// PaymentSessionFailed creates a 500 error for a failed payment processor call.
func PaymentSessionFailed(cause error) *AppError {
	return &AppError{
		Code:    "PAYMENT_SESSION_FAILED",
		Message: "failed to create checkout session",
		Status:  http.StatusInternalServerError,
		Err:     errors.Join(ErrPaymentSession, cause),
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
