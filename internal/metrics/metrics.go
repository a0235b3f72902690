// Package metrics defines the Prometheus collectors of the gateway.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace prefixes every gateway metric.
	Namespace = "ucm"
)

// Metrics holds the gateway collectors.
type Metrics struct {
	// HTTP
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Upstream
	UpstreamRequestsTotal *prometheus.CounterVec
	UpstreamDuration      *prometheus.HistogramVec
	BreakerState          *prometheus.GaugeVec

	// Homepage rewrite
	RewrittenLists    prometheus.Counter
	RewrittenArticles prometheus.Counter
	RewriteDuration   prometheus.Histogram

	// Content transform
	NodeFallbacks *prometheus.CounterVec

	// Auth
	AuthFailures *prometheus.CounterVec
	Logins       *prometheus.CounterVec
}

// New creates and registers the collectors on reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	m := &Metrics{}

	m.initHTTPMetrics(factory)
	m.initUpstreamMetrics(factory)
	m.initRewriteMetrics(factory)
	m.initAuthMetrics(factory)

	return m
}

func (m *Metrics) initHTTPMetrics(factory promauto.Factory) {
	m.RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	m.RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
}

func (m *Metrics) initUpstreamMetrics(factory promauto.Factory) {
	m.UpstreamRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total number of upstream requests by target and status (0 for transport errors)",
		},
		[]string{"target", "status"},
	)

	m.UpstreamDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Time to upstream response headers in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		},
		[]string{"target"},
	)

	m.BreakerState = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "upstream",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state per target (0=closed, 1=open, 2=half-open)",
		},
		[]string{"target"},
	)
}

func (m *Metrics) initRewriteMetrics(factory promauto.Factory) {
	m.RewrittenLists = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "homepage",
			Name:      "lists_total",
			Help:      "Total number of article lists emitted by the homepage rewriter",
		},
	)

	m.RewrittenArticles = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "homepage",
			Name:      "articles_total",
			Help:      "Total number of articles emitted by the homepage rewriter",
		},
	)

	m.RewriteDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "homepage",
			Name:      "rewrite_duration_seconds",
			Help:      "Duration of a full homepage rewrite in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	m.NodeFallbacks = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "content",
			Name:      "node_fallbacks_total",
			Help:      "Body nodes rendered through the raw fallback",
		},
		[]string{"type"},
	)
}

func (m *Metrics) initAuthMetrics(factory promauto.Factory) {
	m.AuthFailures = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "auth",
			Name:      "failures_total",
			Help:      "Requests rejected by session authentication",
		},
		[]string{"surface"},
	)

	m.Logins = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by result",
		},
		[]string{"result"},
	)
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveUpstream records one upstream exchange.
func (m *Metrics) ObserveUpstream(target string, status int, elapsed time.Duration) {
	m.UpstreamRequestsTotal.WithLabelValues(target, strconv.Itoa(status)).Inc()
	m.UpstreamDuration.WithLabelValues(target).Observe(elapsed.Seconds())
}

// SetBreakerState records the circuit breaker state of target.
func (m *Metrics) SetBreakerState(target string, state int) {
	m.BreakerState.WithLabelValues(target).Set(float64(state))
}

// ObserveRewrite records the output of one homepage rewrite.
func (m *Metrics) ObserveRewrite(lists, articles int, elapsed time.Duration) {
	m.RewrittenLists.Add(float64(lists))
	m.RewrittenArticles.Add(float64(articles))
	m.RewriteDuration.Observe(elapsed.Seconds())
}

// NodeFallback counts a body node rendered through the raw fallback.
func (m *Metrics) NodeFallback(nodeType string) {
	m.NodeFallbacks.WithLabelValues(nodeType).Inc()
}

// AuthFailure counts a request rejected by session authentication on surface
// ("page" or "api").
func (m *Metrics) AuthFailure(surface string) {
	m.AuthFailures.WithLabelValues(surface).Inc()
}

// Login counts a login attempt by result.
func (m *Metrics) Login(result string) {
	m.Logins.WithLabelValues(result).Inc()
}
