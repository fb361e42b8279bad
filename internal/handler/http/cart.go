package http

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ironfuel/cartapi/internal/domain"
	"github.com/ironfuel/cartapi/internal/service"
	apperrors "github.com/ironfuel/cartapi/pkg/errors"
	"github.com/ironfuel/cartapi/pkg/httputil"
	"github.com/ironfuel/cartapi/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding an item to the cart.
type AddItemRequest struct {
	UserEmail   string           `json:"user_email" validate:"required"`
	ProductID   string           `json:"product_id" validate:"required"`
	ProductName string           `json:"product_name" validate:"required,max=500"`
	Price       *decimal.Decimal `json:"price" validate:"required,gte=0"`
	Quantity    int              `json:"quantity" validate:"required,min=1"`
	ImageURL    string           `json:"image_url"`
}

// UpdateQuantityRequest is the JSON request body for setting a line's quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// --- Response bodies ---

// DeleteItemResponse is returned by DELETE /cart/{id}.
type DeleteItemResponse struct {
	Message string          `json:"message"`
	Item    domain.CartLine `json:"item"`
}

// --- Handlers ---

// AddItem handles POST /cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	line, err := h.service.AddItem(r.Context(), domain.NewLine{
		UserEmail:   req.UserEmail,
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		Price:       *req.Price,
		Quantity:    req.Quantity,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, line)
}

// GetCart handles GET /cart/{user_email}
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	email, err := pathParam(r, "user_email")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	lines, err := h.service.ListLines(r.Context(), email)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if lines == nil {
		lines = []domain.CartLine{}
	}

	httputil.WriteJSON(w, http.StatusOK, lines)
}

// UpdateQuantity handles PUT /cart/{id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	line, err := h.service.SetQuantity(r.Context(), chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, line)
}

// DeleteItem handles DELETE /cart/{id}
func (h *CartHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	line, err := h.service.DeleteLine(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, DeleteItemResponse{Message: "Item deleted", Item: *line})
}

// ClearCart handles DELETE /cart/clear/{user_email}
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	email, err := pathParam(r, "user_email")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if err := h.service.ClearCart(r.Context(), email); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.MessageResponse{Message: "Cart cleared successfully"})
}

// pathParam returns a decoded path parameter. chi matches on the raw path,
// so an escaped "@" arrives as %40.
func pathParam(r *http.Request, name string) (string, error) {
	v, err := url.PathUnescape(chi.URLParam(r, name))
	if err != nil {
		return "", apperrors.InvalidInput(name + " is not a valid path segment")
	}
	return v, nil
}
