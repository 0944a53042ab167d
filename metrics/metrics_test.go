package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.CacheHit("search")
	m.CacheMiss("search")
	m.CacheMiss("search")
	m.ObserveUpstream("anime", "ok", 120*time.Millisecond)
	m.Transition("next", "moved")
	m.SetSessionsActive(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("search", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("search", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("anime", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionTransitions.WithLabelValues("next", "moved")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SessionsActive))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 5)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.CacheHit("x")
		m.CacheMiss("x")
		m.ObserveUpstream("x", "ok", time.Second)
		m.Transition("next", "moved")
		m.SetSessionsActive(1)
	})
}
