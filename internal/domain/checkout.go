package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/ironfuel/cartapi/pkg/errors"
)

// CheckoutLineItem is one line submitted for payment.
type CheckoutLineItem struct {
	ProductName string
	Price       decimal.Decimal
	Quantity    int
}

// CheckoutSession is a hosted payment page created by the processor.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// MinorUnits converts a major-unit amount to the currency's minor unit,
// rounding half away from zero: 19.99 becomes 1999 and 0.005 becomes 1.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Round(PriceScale).Shift(PriceScale).IntPart()
}

// UnitAmount is the item's price in minor units.
func (i CheckoutLineItem) UnitAmount() int64 {
	return MinorUnits(i.Price)
}

// ValidateCheckoutItems requires at least one item, each with a name and a
// price and quantity within the cart limits. The limits keep every minor
// unit amount well inside int64.
func ValidateCheckoutItems(items []CheckoutLineItem) error {
	if len(items) == 0 {
		return apperrors.InvalidInput("cartItems must contain at least one item")
	}
	for i, it := range items {
		if strings.TrimSpace(it.ProductName) == "" {
			return apperrors.InvalidInput(fmt.Sprintf("cartItems[%d].product_name is required", i))
		}
		if err := ValidatePrice(it.Price); err != nil {
			return itemError(i, err)
		}
		if err := ValidateQuantity(it.Quantity); err != nil {
			return itemError(i, err)
		}
	}
	return nil
}

// itemError prefixes a field validation message with the item's position.
func itemError(i int, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return apperrors.InvalidInput(fmt.Sprintf("cartItems[%d].%s", i, appErr.Message))
	}
	return err
}
