package httpclient

import (
	"net"
	"net/http"
	"time"
)

// Config holds outbound HTTP client settings. Clients built here never retry;
// callers that need retries must add them explicitly.
type Config struct {
	Timeout         time.Duration
	MaxConnsPerHost int
}

// DefaultConfig returns client defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:         10 * time.Second,
		MaxConnsPerHost: 32,
	}
}

// NewTransport returns a pooled transport with bounded dial and TLS
// handshake times.
func NewTransport(cfg Config) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}

// New returns an *http.Client over rt with the configured overall timeout.
// A nil rt uses NewTransport(cfg).
func New(cfg Config, rt http.RoundTripper) *http.Client {
	if rt == nil {
		rt = NewTransport(cfg)
	}
	return &http.Client{Transport: rt, Timeout: cfg.Timeout}
}
