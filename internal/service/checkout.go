package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/ironfuel/cartapi/internal/domain"
	"github.com/ironfuel/cartapi/internal/event"
	"github.com/ironfuel/cartapi/internal/payment"
	"github.com/ironfuel/cartapi/internal/repository"
	apperrors "github.com/ironfuel/cartapi/pkg/errors"
	"github.com/ironfuel/cartapi/pkg/logger"
)

// CheckoutConfig holds the fixed parameters of every checkout session.
type CheckoutConfig struct {
	Currency       string
	SuccessURL     string
	CancelURL      string
	Timeout        time.Duration
	IdempotencyTTL time.Duration
}

// CheckoutService turns submitted cart items into a hosted checkout session.
// It never reads or modifies the stored cart.
type CheckoutService struct {
	processor   payment.Processor
	idempotency repository.IdempotencyStore
	producer    EventPublisher
	cfg         CheckoutConfig
	logger      *slog.Logger
}

// NewCheckoutService creates a checkout service. A nil idempotency store
// disables Idempotency-Key handling and a nil producer disables events.
func NewCheckoutService(
	processor payment.Processor,
	idempotency repository.IdempotencyStore,
	producer EventPublisher,
	cfg CheckoutConfig,
	logger *slog.Logger,
) *CheckoutService {
	if producer == nil {
		producer = event.Noop{}
	}
	return &CheckoutService{
		processor:   processor,
		idempotency: idempotency,
		producer:    producer,
		cfg:         cfg,
		logger:      logger,
	}
}

// CreateSession creates one checkout session for the items and returns it.
// A repeated idempotency key returns the stored session without calling the
// processor again.
func (s *CheckoutService) CreateSession(ctx context.Context, items []domain.CheckoutLineItem, idempotencyKey string) (*domain.CheckoutSession, error) {
	if err := domain.ValidateCheckoutItems(items); err != nil {
		return nil, err
	}
	log := logger.WithContext(ctx, s.logger)

	if cached := s.lookup(ctx, log, idempotencyKey); cached != nil {
		log.InfoContext(ctx, "checkout session replayed",
			slog.String("session_id", cached.ID),
		)
		return cached, nil
	}

	req := &payment.SessionRequest{
		Items:          make([]payment.LineItem, 0, len(items)),
		Currency:       s.cfg.Currency,
		SuccessURL:     s.cfg.SuccessURL,
		CancelURL:      s.cfg.CancelURL,
		IdempotencyKey: idempotencyKey,
	}
	var total int64
	for _, it := range items {
		unit := it.UnitAmount()
		req.Items = append(req.Items, payment.LineItem{
			Name:       it.ProductName,
			UnitAmount: unit,
			Quantity:   int64(it.Quantity),
		})
		total += unit * int64(it.Quantity)
	}

	callCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	session, err := s.processor.CreateCheckoutSession(callCtx, req)
	if err != nil {
		log.ErrorContext(ctx, "checkout session creation failed",
			slog.String("processor", s.processor.Name()),
			slog.Int("items", len(items)),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.PaymentSessionFailed(err)
	}

	s.remember(ctx, log, idempotencyKey, session)

	if err := s.producer.PublishCheckoutSessionCreated(ctx, event.CheckoutSessionCreatedData{
		SessionID:   session.ID,
		Currency:    s.cfg.Currency,
		ItemCount:   len(items),
		TotalAmount: total,
	}); err != nil {
		log.WarnContext(ctx, "failed to publish checkout.session_created event",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
	}

	log.InfoContext(ctx, "checkout session created",
		slog.String("processor", s.processor.Name()),
		slog.String("session_id", session.ID),
		slog.Int64("total_amount", total),
		slog.String("currency", s.cfg.Currency),
	)
	return session, nil
}

// lookup treats a failing idempotency store as a miss.
func (s *CheckoutService) lookup(ctx context.Context, log *slog.Logger, key string) *domain.CheckoutSession {
	if key == "" || s.idempotency == nil {
		return nil
	}
	session, err := s.idempotency.Get(ctx, key)
	if err != nil {
		log.WarnContext(ctx, "idempotency lookup failed",
			slog.String("error", err.Error()),
		)
		return nil
	}
	return session
}

func (s *CheckoutService) remember(ctx context.Context, log *slog.Logger, key string, session *domain.CheckoutSession) {
	if key == "" || s.idempotency == nil {
		return
	}
	if err := s.idempotency.Put(ctx, key, *session, s.cfg.IdempotencyTTL); err != nil {
		log.WarnContext(ctx, "idempotency store failed",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
	}
}
