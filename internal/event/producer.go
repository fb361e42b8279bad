package event

import (
	"context"
	"fmt"

	"github.com/ironfuel/cartapi/internal/domain"
	pkgkafka "github.com/ironfuel/cartapi/pkg/kafka"
	"github.com/ironfuel/cartapi/pkg/logger"
)

// Kafka topics for cart domain events.
const (
	TopicCartUpdated            = "ironfuel.cart.updated"
	TopicCartCleared            = "ironfuel.cart.cleared"
	TopicCheckoutSessionCreated = "ironfuel.checkout.session_created"
)

// Event types carried in the envelope.
const (
	TypeCartUpdated            = "cart.updated"
	TypeCartCleared            = "cart.cleared"
	TypeCheckoutSessionCreated = "checkout.session_created"
)

// Cart line changes reported by cart.updated.
const (
	ChangeAdded    = "added"
	ChangeQuantity = "quantity_set"
	ChangeRemoved  = "removed"
)

const (
	aggregateCart = "cart"
	source        = "cart-api"
)

// CartUpdatedData is the cart.updated payload.
type CartUpdatedData struct {
	Change string          `json:"change"`
	Line   domain.CartLine `json:"line"`
}

// CartClearedData is the cart.cleared payload.
type CartClearedData struct {
	UserEmail    string `json:"user_email"`
	LinesRemoved int64  `json:"lines_removed"`
}

// CheckoutSessionCreatedData is the checkout.session_created payload.
type CheckoutSessionCreatedData struct {
	SessionID   string `json:"session_id"`
	Currency    string `json:"currency"`
	ItemCount   int    `json:"item_count"`
	TotalAmount int64  `json:"total_amount"`
}

type publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes cart domain events to Kafka.
type Producer struct {
	kafka publisher
}

// NewProducer creates an event producer on top of a Kafka producer.
func NewProducer(kafka *pkgkafka.Producer) *Producer {
	return &Producer{kafka: kafka}
}

func (p *Producer) publish(ctx context.Context, topic, eventType, aggregateID string, data any) error {
	ev, err := pkgkafka.NewEvent(eventType, aggregateID, aggregateCart, source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	ev.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, topic, ev); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}
	return nil
}

// PublishCartUpdated reports a changed cart line.
func (p *Producer) PublishCartUpdated(ctx context.Context, change string, line *domain.CartLine) error {
	return p.publish(ctx, TopicCartUpdated, TypeCartUpdated, line.UserEmail,
		CartUpdatedData{Change: change, Line: *line})
}

// PublishCartCleared reports a cleared cart.
func (p *Producer) PublishCartCleared(ctx context.Context, userEmail string, removed int64) error {
	return p.publish(ctx, TopicCartCleared, TypeCartCleared, userEmail,
		CartClearedData{UserEmail: userEmail, LinesRemoved: removed})
}

// PublishCheckoutSessionCreated reports a created checkout session.
func (p *Producer) PublishCheckoutSessionCreated(ctx context.Context, data CheckoutSessionCreatedData) error {
	return p.publish(ctx, TopicCheckoutSessionCreated, TypeCheckoutSessionCreated, data.SessionID, data)
}

// Noop discards every event. It stands in when Kafka is not configured.
type Noop struct{}

func (Noop) PublishCartUpdated(context.Context, string, *domain.CartLine) error { return nil }

func (Noop) PublishCartCleared(context.Context, string, int64) error { return nil }

func (Noop) PublishCheckoutSessionCreated(context.Context, CheckoutSessionCreatedData) error {
	return nil
}
