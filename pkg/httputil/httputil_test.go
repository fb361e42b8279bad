package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ironfuel/cartapi/pkg/errors"
	"github.com/ironfuel/cartapi/pkg/logger"
	"github.com/ironfuel/cartapi/pkg/validator"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *ErrorResponse {
	t.Helper()
	var env ErrorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.NotNil(t, env.Error)
	return env.Error
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, MessageResponse{Message: "ok"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"ok"}`, rec.Body.String())
}

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/cart/x", nil)

	WriteError(rec, req, fmt.Errorf("set quantity: %w", apperrors.NotFound("cart line", "x")), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "NOT_FOUND", resp.Code)
	assert.Equal(t, "cart line with id x not found", resp.Message)
}

func TestWriteError_StoreUnavailableHidesCause(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/cart", nil)

	WriteError(rec, req, apperrors.StoreUnavailable(errors.New("dial tcp 10.0.0.5:5432: connection refused")), l)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "STORE_UNAVAILABLE", resp.Code)
	assert.NotContains(t, resp.Message, "10.0.0.5")
	assert.Contains(t, buf.String(), "connection refused")
}

func TestWriteError_UnknownError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteError(rec, req, errors.New("boom"), slog.New(slog.DiscardHandler))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "INTERNAL_ERROR", resp.Code)
	assert.Equal(t, "an internal error occurred", resp.Message)
}

func TestWriteError_BareSentinels(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	WriteError(rec, req, fmt.Errorf("lookup: %w", apperrors.ErrNotFound), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	WriteError(rec, req, fmt.Errorf("quantity: %w", apperrors.ErrInvalidInput), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decodeError(t, rec).Code)
}

func TestWriteError_IncludesRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(logger.WithCorrelationID(context.Background(), "req-123"))

	WriteError(rec, req, apperrors.InvalidInput("bad"), nil)

	assert.Equal(t, "req-123", decodeError(t, rec).RequestID)
}

func TestWriteValidationError_Fields(t *testing.T) {
	type body struct {
		Quantity int `json:"quantity" validate:"gte=1"`
	}
	err := validator.Validate(body{Quantity: 0})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	WriteValidationError(rec, httptest.NewRequest(http.MethodPut, "/cart/1", nil), err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
	assert.Contains(t, resp.Fields, "quantity")
}

func TestWriteValidationError_DecodeError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteValidationError(rec, httptest.NewRequest(http.MethodPost, "/cart", nil), &validator.DecodeError{Err: errors.New("unexpected EOF")})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "INVALID_INPUT", resp.Code)
	assert.Contains(t, resp.Message, "decode request body")
}
