package database

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestPoolStatsCollector_Describe(t *testing.T) {
	c := newPoolStatsCollector(nil, "cart-api")

	ch := make(chan *prometheus.Desc, 16)
	c.Describe(ch)
	close(ch)

	var names []string
	for d := range ch {
		names = append(names, d.String())
	}

	assert.Len(t, names, 8)
	joined := strings.Join(names, "\n")
	for _, want := range []string{
		"db_pool_acquired_connections",
		"db_pool_idle_connections",
		"db_pool_max_connections",
		"db_pool_empty_acquire_count_total",
	} {
		assert.Contains(t, joined, want)
	}
}

func TestPoolStatsCollector_IsCollector(t *testing.T) {
	var _ prometheus.Collector = newPoolStatsCollector(nil, "cart-api")
}
