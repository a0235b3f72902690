package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/isabella232/tmg-ucm/internal/metrics"
)

func TestMetrics_Observers(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveRequest("GET", "/", 200, 10*time.Millisecond)
	m.ObserveRequest("GET", "/", 200, 20*time.Millisecond)
	m.ObserveUpstream("search", 404, time.Millisecond)
	m.ObserveRewrite(2, 7, time.Second)
	m.NodeFallback("heading")
	m.SetBreakerState("search", 1)
	m.AuthFailure("page")
	m.Login("ok")

	assert.InDelta(t, 2, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues("search", "404")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.RewrittenLists), 0)
	assert.InDelta(t, 7, testutil.ToFloat64(m.RewrittenArticles), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.NodeFallbacks.WithLabelValues("heading")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.BreakerState.WithLabelValues("search")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AuthFailures.WithLabelValues("page")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Logins.WithLabelValues("ok")), 0)
}

func TestNew_SeparateRegistries(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		metrics.New(prometheus.NewRegistry())
		metrics.New(prometheus.NewRegistry())
	})
}
