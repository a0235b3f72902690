package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	inframetrics "github.com/isabella232/tmg-ucm/infrastructure/metrics"
)

// SetupRoutes configures all gateway routes.
// Health routes are registered by the infrastructure gin builder.
func SetupRoutes(router *gin.Engine, h *Handlers, gatherer prometheus.Gatherer) {
	router.Use(inframetrics.Middleware(h.metrics))

	router.GET("/metrics", inframetrics.Handler(gatherer))

	authAPI := router.Group("/api/auth")
	authAPI.POST("/login", h.Login)
	authAPI.POST("/logout", h.Logout)

	router.GET(loginPath, h.LoginPage)

	// Suffix-based routes cannot be expressed in gin's tree, so they are
	// dispatched from the fallback chain ahead of the session check.
	router.NoRoute(h.PublicAssets, h.RequireSession, h.Content)
}

// PublicAssets serves static assets and images without a session and stops
// the chain. Other GET requests continue to the session check.
func (h *Handlers) PublicAssets(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.String(http.StatusNotFound, "Not found")
		c.Abort()
		return
	}

	p := c.Request.URL.Path
	switch {
	case isStaticAsset(p):
		c.Set(inframetrics.RouteKey, "static")
		h.Static(c)
		c.Abort()
	case isImage(p):
		c.Set(inframetrics.RouteKey, "image")
		h.Image(c)
		c.Abort()
	case p == "/":
		c.Set(inframetrics.RouteKey, "homepage")
	default:
		c.Set(inframetrics.RouteKey, "article")
	}
}
