// Package payment defines the port to the external payment processor.
package payment

import (
	"context"

	"github.com/ironfuel/cartapi/internal/domain"
)

// LineItem is one priced line of a hosted checkout page. UnitAmount is in
// the currency's minor unit.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// SessionRequest describes a hosted checkout session to create.
type SessionRequest struct {
	Items      []LineItem
	Currency   string
	SuccessURL string
	CancelURL  string

	// IdempotencyKey is forwarded to processors that support it.
	IdempotencyKey string
}

// Processor creates hosted checkout sessions.
type Processor interface {
	// Name returns the processor name (e.g. "stripe", "mock").
	Name() string

	// CreateCheckoutSession makes exactly one call to the processor.
	CreateCheckoutSession(ctx context.Context, req *SessionRequest) (*domain.CheckoutSession, error)
}
