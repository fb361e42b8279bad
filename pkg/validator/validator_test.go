package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineRequest struct {
	UserEmail string           `json:"user_email" validate:"required"`
	Price     *decimal.Decimal `json:"price" validate:"required,gte=0,lte=1000000"`
	Quantity  int              `json:"quantity" validate:"required,gte=1,lte=999"`
	Note      string           `json:"note,omitempty" validate:"max=5"`
}

type sessionItem struct {
	Name     string `json:"product_name" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=1"`
}

type sessionRequest struct {
	Items []sessionItem `json:"cartItems" validate:"required,min=1,dive"`
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	return valErr.Fields()
}

func TestValidate_Success(t *testing.T) {
	err := Validate(lineRequest{UserEmail: "a@b.co", Price: price("19.99"), Quantity: 2})
	assert.NoError(t, err)
}

func TestValidate_ZeroPriceIsPresent(t *testing.T) {
	err := Validate(lineRequest{UserEmail: "a@b.co", Price: price("0"), Quantity: 1})
	assert.NoError(t, err)
}

func TestValidate_MissingPrice(t *testing.T) {
	fields := fieldsOf(t, Validate(lineRequest{UserEmail: "a@b.co", Quantity: 1}))
	assert.Equal(t, "is required", fields["price"])
}

func TestValidate_NegativePrice(t *testing.T) {
	fields := fieldsOf(t, Validate(lineRequest{UserEmail: "a@b.co", Price: price("-0.01"), Quantity: 1}))
	assert.Contains(t, fields["price"], "greater than or equal to 0")
}

func TestValidate_JSONFieldNames(t *testing.T) {
	fields := fieldsOf(t, Validate(lineRequest{Price: price("1"), Quantity: 1000, Note: "toolong"}))
	assert.Equal(t, "is required", fields["user_email"])
	assert.Contains(t, fields["quantity"], "999")
	assert.Contains(t, fields["note"], "at most 5 characters")
	assert.NotContains(t, fields, "UserEmail")
}

func TestValidate_DiveReportsIndexedPath(t *testing.T) {
	req := sessionRequest{Items: []sessionItem{{Name: "Whey", Quantity: 1}, {Quantity: 0}}}
	fields := fieldsOf(t, Validate(req))
	assert.Equal(t, "is required", fields["cartItems[1].product_name"])
	assert.Contains(t, fields["cartItems[1].quantity"], "greater than or equal to 1")
}

func TestValidate_EmptySlice(t *testing.T) {
	fields := fieldsOf(t, Validate(sessionRequest{Items: []sessionItem{}}))
	assert.Contains(t, fields["cartItems"], "at least 1 item")
}

func TestValidationError_Error(t *testing.T) {
	err := Validate(lineRequest{Price: price("1"), Quantity: 1})
	require.Error(t, err)
	assert.Equal(t, "field 'user_email' is required", err.Error())
}

func TestDecodeAndValidate_Success(t *testing.T) {
	body := `{"user_email":"a@b.co","price":19.99,"quantity":2}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var dst lineRequest
	require.NoError(t, DecodeAndValidate(req, &dst))
	assert.Equal(t, "a@b.co", dst.UserEmail)
	assert.True(t, dst.Price.Equal(decimal.RequireFromString("19.99")))
}

func TestDecodeAndValidate_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{invalid"))

	var dst lineRequest
	err := DecodeAndValidate(req, &dst)

	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestDecodeAndValidate_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))

	var dst lineRequest
	err := DecodeAndValidate(req, &dst)

	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Contains(t, err.Error(), "request body is empty")
}

func TestDecodeAndValidate_WrongType(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":"two"}`))

	var dst lineRequest
	err := DecodeAndValidate(req, &dst)

	var decErr *DecodeError
	assert.ErrorAs(t, err, &decErr)
}

func TestDecodeAndValidate_ValidationFails(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"user_email":"","quantity":1}`))

	var dst lineRequest
	err := DecodeAndValidate(req, &dst)

	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
}
