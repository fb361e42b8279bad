package httpclient

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreakerConfig() CircuitBreakerConfig {
	cfg := DefaultCircuitBreakerConfig("stripe")
	cfg.MinRequests = 2
	cfg.Timeout = time.Hour
	return cfg
}

func TestBreakerTransport_PassesThroughSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rt := NewBreakerTransport(nil, testBreakerConfig(), nil, slog.New(slog.DiscardHandler))
	client := New(DefaultConfig(), rt)

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, rt.State())
}

func TestBreakerTransport_ReturnsServerErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	rt := NewBreakerTransport(nil, testBreakerConfig(), nil, slog.New(slog.DiscardHandler))
	resp, err := New(DefaultConfig(), rt).Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestBreakerTransport_OpensAfterFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	metrics, err := NewBreakerMetrics(reg)
	require.NoError(t, err)

	rt := NewBreakerTransport(nil, testBreakerConfig(), metrics, slog.New(slog.DiscardHandler))
	client := New(DefaultConfig(), rt)

	for i := 0; i < 2; i++ {
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		_ = resp.Body.Close()
	}
	assert.Equal(t, gobreaker.StateOpen, rt.State())
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.state.WithLabelValues("stripe")))

	_, err = client.Get(srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCircuitOpen))
	assert.Equal(t, int32(2), hits.Load())
}

func TestBreakerTransport_TransportErrorCounts(t *testing.T) {
	failing := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	})
	rt := NewBreakerTransport(failing, testBreakerConfig(), nil, slog.New(slog.DiscardHandler))

	req := httptest.NewRequest(http.MethodPost, "https://api.stripe.test/v1/checkout/sessions", nil)
	for i := 0; i < 2; i++ {
		_, err := rt.RoundTrip(req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	}
	assert.Equal(t, gobreaker.StateOpen, rt.State())
}

func TestNewBreakerMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewBreakerMetrics(reg)
	require.NoError(t, err)
	_, err = NewBreakerMetrics(reg)
	assert.Error(t, err)
}

func TestNew_DefaultTransport(t *testing.T) {
	c := New(Config{Timeout: 3 * time.Second, MaxConnsPerHost: 4}, nil)
	assert.Equal(t, 3*time.Second, c.Timeout)
	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 4, tr.MaxConnsPerHost)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
