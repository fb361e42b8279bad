package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ironfuel/cartapi/internal/domain"
	"github.com/ironfuel/cartapi/internal/event"
	"github.com/ironfuel/cartapi/internal/payment"
)

// --- Mock Repository ---

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) AddOrMerge(ctx context.Context, line domain.NewLine) (*domain.CartLine, error) {
	args := m.Called(ctx, line)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CartLine), args.Error(1)
}

func (m *mockCartRepository) ListByUser(ctx context.Context, userEmail string) ([]domain.CartLine, error) {
	args := m.Called(ctx, userEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CartLine), args.Error(1)
}

func (m *mockCartRepository) SetQuantity(ctx context.Context, id string, quantity int) (*domain.CartLine, error) {
	args := m.Called(ctx, id, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CartLine), args.Error(1)
}

func (m *mockCartRepository) Delete(ctx context.Context, id string) (*domain.CartLine, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CartLine), args.Error(1)
}

func (m *mockCartRepository) ClearByUser(ctx context.Context, userEmail string) (int64, error) {
	args := m.Called(ctx, userEmail)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCartRepository) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// --- Mock Publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishCartUpdated(ctx context.Context, change string, line *domain.CartLine) error {
	return m.Called(ctx, change, line).Error(0)
}

func (m *mockPublisher) PublishCartCleared(ctx context.Context, userEmail string, removed int64) error {
	return m.Called(ctx, userEmail, removed).Error(0)
}

func (m *mockPublisher) PublishCheckoutSessionCreated(ctx context.Context, data event.CheckoutSessionCreatedData) error {
	return m.Called(ctx, data).Error(0)
}

// --- Mock Processor ---

type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) Name() string { return "test" }

func (m *mockProcessor) CreateCheckoutSession(ctx context.Context, req *payment.SessionRequest) (*domain.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CheckoutSession), args.Error(1)
}

// --- Mock Idempotency Store ---

type mockIdempotencyStore struct {
	mock.Mock
}

func (m *mockIdempotencyStore) Get(ctx context.Context, key string) (*domain.CheckoutSession, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CheckoutSession), args.Error(1)
}

func (m *mockIdempotencyStore) Put(ctx context.Context, key string, session domain.CheckoutSession, ttl time.Duration) error {
	return m.Called(ctx, key, session, ttl).Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
