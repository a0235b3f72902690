package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	infragin "github.com/isabella232/tmg-ucm/infrastructure/gin"
	infralogger "github.com/isabella232/tmg-ucm/infrastructure/logger"
	"github.com/isabella232/tmg-ucm/internal/config"
)

// NewServer creates the gateway HTTP server. redisPing feeds the health
// check and may be nil.
func NewServer(
	cfg *config.Config,
	h *Handlers,
	gatherer prometheus.Gatherer,
	redisPing func(context.Context) error,
	log infralogger.Logger,
) *infragin.Server {
	builder := infragin.NewServerBuilder(cfg.Service.Name, cfg.Server.Address()).
		WithLogger(log).
		WithDebug(cfg.Service.Debug).
		WithVersion(cfg.Service.Version).
		WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.IdleTimeout).
		WithCORS(infragin.CORSConfig{
			Enabled:        true,
			AllowedOrigins: cfg.Service.CORSOrigins,
		}).
		WithRoutes(func(router *gin.Engine) {
			SetupRoutes(router, h, gatherer)
		})

	if redisPing != nil {
		builder = builder.WithRedisHealthCheck(redisPing)
	}

	return builder.Build()
}
