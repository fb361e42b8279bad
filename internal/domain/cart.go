package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/ironfuel/cartapi/pkg/errors"
)

func init() {
	// Prices travel as JSON numbers, matching what storefront clients send.
	decimal.MarshalJSONWithoutQuotes = true
}

// Limits applied to every line before it reaches the store.
const (
	MaxQuantityPerLine = 999
	PriceScale         = 2
)

// MaxUnitPrice is the largest accepted unit price.
var MaxUnitPrice = decimal.New(1_000_000, 0)

// CartLine is one product in a customer's cart. There is at most one line
// per (UserEmail, ProductID).
type CartLine struct {
	ID          string          `json:"id"`
	UserEmail   string          `json:"user_email"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	ImageURL    string          `json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewLine is the input of a merge-add. Price and ProductName only apply
// when the line does not exist yet.
type NewLine struct {
	UserEmail   string
	ProductID   string
	ProductName string
	Price       decimal.Decimal
	Quantity    int
	ImageURL    string
}

// Validate checks the line against the cart's input rules.
func (n NewLine) Validate() error {
	if strings.TrimSpace(n.UserEmail) == "" {
		return apperrors.InvalidInput("user_email is required")
	}
	if strings.TrimSpace(n.ProductID) == "" {
		return apperrors.InvalidInput("product_id is required")
	}
	if strings.TrimSpace(n.ProductName) == "" {
		return apperrors.InvalidInput("product_name is required")
	}
	if err := ValidatePrice(n.Price); err != nil {
		return err
	}
	return ValidateQuantity(n.Quantity)
}

// ValidateQuantity accepts 1..MaxQuantityPerLine.
func ValidateQuantity(q int) error {
	if q < 1 {
		return apperrors.InvalidInput("quantity must be at least 1")
	}
	if q > MaxQuantityPerLine {
		return apperrors.InvalidInput(fmt.Sprintf("quantity must be at most %d", MaxQuantityPerLine))
	}
	return nil
}

// ValidatePrice accepts non-negative prices up to MaxUnitPrice with at most
// two decimal places.
func ValidatePrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return apperrors.InvalidInput("price must not be negative")
	}
	if p.GreaterThan(MaxUnitPrice) {
		return apperrors.InvalidInput("price must be at most " + MaxUnitPrice.StringFixed(PriceScale))
	}
	if !p.Equal(p.Truncate(PriceScale)) {
		return apperrors.InvalidInput(fmt.Sprintf("price must have at most %d decimal places", PriceScale))
	}
	return nil
}

// LineTotal is Price * Quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
