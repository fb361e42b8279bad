package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ironfuel/cartapi/internal/domain"
	"github.com/ironfuel/cartapi/internal/event"
	"github.com/ironfuel/cartapi/internal/repository"
	apperrors "github.com/ironfuel/cartapi/pkg/errors"
	"github.com/ironfuel/cartapi/pkg/logger"
)

// EventPublisher is the subset of the event producer the services use.
type EventPublisher interface {
	PublishCartUpdated(ctx context.Context, change string, line *domain.CartLine) error
	PublishCartCleared(ctx context.Context, userEmail string, removed int64) error
	PublishCheckoutSessionCreated(ctx context.Context, data event.CheckoutSessionCreatedData) error
}

// CartService implements the cart operations on top of a CartRepository.
type CartService struct {
	repo     repository.CartRepository
	producer EventPublisher
	logger   *slog.Logger
}

// NewCartService creates a cart service. A nil producer disables events.
func NewCartService(repo repository.CartRepository, producer EventPublisher, logger *slog.Logger) *CartService {
	if producer == nil {
		producer = event.Noop{}
	}
	return &CartService{repo: repo, producer: producer, logger: logger}
}

// AddItem adds the line to the customer's cart, merging quantities when the
// product is already there.
func (s *CartService) AddItem(ctx context.Context, input domain.NewLine) (*domain.CartLine, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	line, err := s.repo.AddOrMerge(ctx, input)
	if err != nil {
		return nil, err
	}

	s.publishUpdated(ctx, event.ChangeAdded, line)

	logger.WithContext(ctx, s.logger).InfoContext(ctx, "item added to cart",
		slog.String("user_email", line.UserEmail),
		slog.String("product_id", line.ProductID),
		slog.Int("added", input.Quantity),
		slog.Int("quantity", line.Quantity),
	)
	return line, nil
}

// ListLines returns the customer's cart, newest line first.
func (s *CartService) ListLines(ctx context.Context, userEmail string) ([]domain.CartLine, error) {
	if strings.TrimSpace(userEmail) == "" {
		return nil, apperrors.InvalidInput("user_email is required")
	}
	return s.repo.ListByUser(ctx, userEmail)
}

// SetQuantity overwrites the quantity of a line.
func (s *CartService) SetQuantity(ctx context.Context, id string, quantity int) (*domain.CartLine, error) {
	if err := domain.ValidateQuantity(quantity); err != nil {
		return nil, err
	}

	line, err := s.repo.SetQuantity(ctx, id, quantity)
	if err != nil {
		return nil, err
	}

	s.publishUpdated(ctx, event.ChangeQuantity, line)
	return line, nil
}

// DeleteLine removes a line and returns it.
func (s *CartService) DeleteLine(ctx context.Context, id string) (*domain.CartLine, error) {
	line, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publishUpdated(ctx, event.ChangeRemoved, line)

	logger.WithContext(ctx, s.logger).InfoContext(ctx, "cart line deleted",
		slog.String("id", line.ID),
		slog.String("user_email", line.UserEmail),
	)
	return line, nil
}

// ClearCart removes every line of the customer. An already empty cart is
// not an error.
func (s *CartService) ClearCart(ctx context.Context, userEmail string) error {
	if strings.TrimSpace(userEmail) == "" {
		return apperrors.InvalidInput("user_email is required")
	}

	removed, err := s.repo.ClearByUser(ctx, userEmail)
	if err != nil {
		return err
	}

	if err := s.producer.PublishCartCleared(ctx, userEmail, removed); err != nil {
		logger.WithContext(ctx, s.logger).WarnContext(ctx, "failed to publish cart.cleared event",
			slog.String("user_email", userEmail),
			slog.String("error", err.Error()),
		)
	}

	logger.WithContext(ctx, s.logger).InfoContext(ctx, "cart cleared",
		slog.String("user_email", userEmail),
		slog.Int64("removed", removed),
	)
	return nil
}

func (s *CartService) publishUpdated(ctx context.Context, change string, line *domain.CartLine) {
	if err := s.producer.PublishCartUpdated(ctx, change, line); err != nil {
		logger.WithContext(ctx, s.logger).WarnContext(ctx, "failed to publish cart.updated event",
			slog.String("user_email", line.UserEmail),
			slog.String("change", change),
			slog.String("error", err.Error()),
		)
	}
}
