package repository

import (
	"context"
	"time"

	"github.com/ironfuel/cartapi/internal/domain"
)

// CartRepository persists cart lines. Every method is a single store round
// trip.
type CartRepository interface {
	// AddOrMerge inserts the line, or adds its quantity to the existing line
	// for the same (UserEmail, ProductID). Name, price, image and creation
	// time of an existing line are left untouched.
	AddOrMerge(ctx context.Context, line domain.NewLine) (*domain.CartLine, error)

	// ListByUser returns the customer's lines, newest first. It returns an
	// empty slice when there are none.
	ListByUser(ctx context.Context, userEmail string) ([]domain.CartLine, error)

	// SetQuantity overwrites a line's quantity.
	SetQuantity(ctx context.Context, id string, quantity int) (*domain.CartLine, error)

	// Delete removes a line and returns it as it was before removal.
	Delete(ctx context.Context, id string) (*domain.CartLine, error)

	// ClearByUser removes every line of the customer and reports how many
	// were removed.
	ClearByUser(ctx context.Context, userEmail string) (int64, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
}

// IdempotencyStore remembers the checkout session created for a client
// supplied idempotency key.
type IdempotencyStore interface {
	// Get returns the stored session, or nil when the key is unknown.
	Get(ctx context.Context, key string) (*domain.CheckoutSession, error)

	// Put stores the session for ttl. An existing entry is kept.
	Put(ctx context.Context, key string, session domain.CheckoutSession, ttl time.Duration) error
}
