package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ironfuel/cartapi/internal/domain"
	"github.com/ironfuel/cartapi/internal/service"
	apperrors "github.com/ironfuel/cartapi/pkg/errors"
	"github.com/ironfuel/cartapi/pkg/httputil"
	"github.com/ironfuel/cartapi/pkg/validator"
)

// IdempotencyKeyHeader lets a client retry checkout without creating a
// second session.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLen = 255

// CheckoutHandler handles checkout session creation.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: svc, logger: logger}
}

// CheckoutItemRequest is one submitted cart item.
type CheckoutItemRequest struct {
	ProductName string           `json:"product_name" validate:"required"`
	Price       *decimal.Decimal `json:"price" validate:"required,gte=0"`
	Quantity    int              `json:"quantity" validate:"required,min=1"`
}

// CreateCheckoutSessionRequest is the JSON request body of POST /create-checkout-session.
type CreateCheckoutSessionRequest struct {
	CartItems []CheckoutItemRequest `json:"cartItems" validate:"required,min=1,dive"`
}

// CreateCheckoutSessionResponse carries the hosted payment page URL.
type CreateCheckoutSessionResponse struct {
	URL string `json:"url"`
}

// CreateSession handles POST /create-checkout-session
func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateCheckoutSessionRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	key := r.Header.Get(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLen {
		httputil.WriteError(w, r, apperrors.InvalidInput(
			fmt.Sprintf("%s must be at most %d characters", IdempotencyKeyHeader, maxIdempotencyKeyLen)), h.logger)
		return
	}

	items := make([]domain.CheckoutLineItem, len(req.CartItems))
	for i, it := range req.CartItems {
		items[i] = domain.CheckoutLineItem{
			ProductName: it.ProductName,
			Price:       *it.Price,
			Quantity:    it.Quantity,
		}
	}

	session, err := h.service.CreateSession(r.Context(), items, key)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, CreateCheckoutSessionResponse{URL: session.URL})
}
