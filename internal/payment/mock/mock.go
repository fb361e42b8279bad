package mock

import (
	"context"
	"errors"
	"net/url"

	"github.com/google/uuid"

	"github.com/ironfuel/cartapi/internal/domain"
	"github.com/ironfuel/cartapi/internal/payment"
)

// Processor is a development payment processor that never leaves the
// process. Its session URL points straight at the success page.
type Processor struct{}

// NewProcessor creates a mock processor.
func NewProcessor() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "mock"
}

// CreateCheckoutSession returns a session whose URL is the success URL with
// the generated session id appended.
func (p *Processor) CreateCheckoutSession(_ context.Context, req *payment.SessionRequest) (*domain.CheckoutSession, error) {
	if len(req.Items) == 0 {
		return nil, errors.New("mock: no line items")
	}

	id := "cs_mock_" + uuid.NewString()
	u, err := url.Parse(req.SuccessURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("session_id", id)
	u.RawQuery = q.Encode()

	return &domain.CheckoutSession{ID: id, URL: u.String()}, nil
}
