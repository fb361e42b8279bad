package httpclient

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned while the breaker rejects requests.
var ErrCircuitOpen = gobreaker.ErrOpenState

// errServerStatus marks a 5xx response as a breaker failure. The response
// itself is still handed back to the caller.
var errServerStatus = errors.New("server error status")

// CircuitBreakerConfig holds breaker settings.
type CircuitBreakerConfig struct {
	Name string

	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32

	// Interval clears the closed-state counts periodically. Zero never clears.
	Interval time.Duration

	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration

	// FailureRatio trips the breaker once at least MinRequests were seen.
	FailureRatio float64
	MinRequests  uint32
}

// DefaultCircuitBreakerConfig returns breaker defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// BreakerMetrics exports breaker state changes.
type BreakerMetrics struct {
	state *prometheus.GaugeVec
}

// NewBreakerMetrics registers the breaker state gauge with reg.
func NewBreakerMetrics(reg prometheus.Registerer) (*BreakerMetrics, error) {
	state := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})
	if err := reg.Register(state); err != nil {
		return nil, fmt.Errorf("register circuit breaker metrics: %w", err)
	}
	return &BreakerMetrics{state: state}, nil
}

func (m *BreakerMetrics) set(name string, s gobreaker.State) {
	if m == nil {
		return
	}
	v := -1.0
	switch s {
	case gobreaker.StateClosed:
		v = 0
	case gobreaker.StateHalfOpen:
		v = 1
	case gobreaker.StateOpen:
		v = 2
	}
	m.state.WithLabelValues(name).Set(v)
}

// BreakerTransport is an http.RoundTripper guarded by a circuit breaker.
// Transport errors and 5xx responses count as failures.
type BreakerTransport struct {
	base    http.RoundTripper
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

// NewBreakerTransport wraps base. A nil base uses http.DefaultTransport.
// metrics may be nil.
func NewBreakerTransport(base http.RoundTripper, cfg CircuitBreakerConfig, metrics *BreakerMetrics, logger *slog.Logger) *BreakerTransport {
	if base == nil {
		base = http.DefaultTransport
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < cfg.MinRequests {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			metrics.set(name, to)
		},
	}
	metrics.set(cfg.Name, gobreaker.StateClosed)

	return &BreakerTransport{
		base:    base,
		breaker: gobreaker.NewCircuitBreaker[*http.Response](settings),
	}
}

// RoundTrip implements http.RoundTripper.
func (t *BreakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.breaker.Execute(func() (*http.Response, error) {
		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, nil
	})
	if errors.Is(err, errServerStatus) {
		return resp, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.breaker.Name(), err)
	}
	return resp, nil
}

// State returns the breaker's current state.
func (t *BreakerTransport) State() gobreaker.State {
	return t.breaker.State()
}
