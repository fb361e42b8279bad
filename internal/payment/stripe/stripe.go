// Package stripe implements payment.Processor with Stripe Checkout.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"

	"github.com/ironfuel/cartapi/internal/domain"
	"github.com/ironfuel/cartapi/internal/payment"
)

// Config holds Stripe client settings.
type Config struct {
	SecretKey string
	// APIURL overrides the API base URL, e.g. for stripe-mock.
	APIURL string
	// HTTPClient carries timeouts and the circuit breaker.
	HTTPClient *http.Client
}

// Processor creates Stripe Checkout sessions.
type Processor struct {
	sessions *session.Client
	logger   *slog.Logger
}

// NewProcessor creates a Stripe processor. The backend never retries, so
// each checkout request results in at most one Stripe call.
func NewProcessor(cfg Config, logger *slog.Logger) *Processor {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = stripe.APIURL
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(apiURL),
		HTTPClient:        cfg.HTTPClient,
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})

	return &Processor{
		sessions: &session.Client{B: backend, Key: cfg.SecretKey},
		logger:   logger,
	}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "stripe"
}

func sessionParams(ctx context.Context, req *payment.SessionRequest) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	}
	for _, it := range req.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(req.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(it.Name),
				},
				UnitAmount: stripe.Int64(it.UnitAmount),
			},
			Quantity: stripe.Int64(it.Quantity),
		})
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	return params
}

// CreateCheckoutSession creates a payment-mode Checkout session for card
// payments.
func (p *Processor) CreateCheckoutSession(ctx context.Context, req *payment.SessionRequest) (*domain.CheckoutSession, error) {
	s, err := p.sessions.New(sessionParams(ctx, req))
	if err != nil {
		var serr *stripe.Error
		if errors.As(err, &serr) {
			p.logger.WarnContext(ctx, "stripe rejected checkout session",
				slog.Int("status", serr.HTTPStatusCode),
				slog.String("type", string(serr.Type)),
				slog.String("code", string(serr.Code)),
				slog.String("request_id", serr.RequestID),
			)
		}
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return &domain.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}
