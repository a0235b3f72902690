// Package metrics wires Prometheus request metrics into gin.
package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouteKey is the gin context key a handler sets to label requests that
// were not matched by a registered route.
const RouteKey = "metrics_route"

const unmatchedRoute = "unmatched"

// Recorder receives one observation per served request.
type Recorder interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Middleware records every request under its route pattern, so path
// parameters never become label values.
func Middleware(rec Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		rec.ObserveRequest(c.Request.Method, routeLabel(c), c.Writer.Status(), time.Since(start))
	}
}

func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	if route := c.GetString(RouteKey); route != "" {
		return route
	}
	return unmatchedRoute
}

// Handler serves the exposition format for g.
func Handler(g prometheus.Gatherer) gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
