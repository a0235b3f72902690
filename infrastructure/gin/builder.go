package gin

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/isabella232/tmg-ucm/infrastructure/logger"
)

// ServerBuilder assembles a Server with a fluent API.
type ServerBuilder struct {
	config       *Config
	logger       logger.Logger
	setupRoutes  func(*gin.Engine)
	healthChecks map[string]HealthChecker
}

// NewServerBuilder starts a builder listening on address.
func NewServerBuilder(serviceName, address string) *ServerBuilder {
	return &ServerBuilder{
		config:       &Config{ServiceName: serviceName, Address: address, CORS: CORSConfig{Enabled: true}},
		healthChecks: make(map[string]HealthChecker),
	}
}

func (b *ServerBuilder) WithLogger(log logger.Logger) *ServerBuilder {
	b.logger = log
	return b
}

func (b *ServerBuilder) WithDebug(debug bool) *ServerBuilder {
	b.config.Debug = debug
	return b
}

func (b *ServerBuilder) WithVersion(version string) *ServerBuilder {
	b.config.ServiceVersion = version
	return b
}

func (b *ServerBuilder) WithCORS(cfg CORSConfig) *ServerBuilder {
	b.config.CORS = cfg
	return b
}

// WithTimeouts sets the read, write and idle timeouts of the listener.
func (b *ServerBuilder) WithTimeouts(read, write, idle time.Duration) *ServerBuilder {
	b.config.ReadTimeout = read
	b.config.WriteTimeout = write
	b.config.IdleTimeout = idle
	return b
}

// WithHealthCheck adds a named check reported by GET /health.
func (b *ServerBuilder) WithHealthCheck(name string, checker HealthChecker) *ServerBuilder {
	b.healthChecks[name] = checker
	return b
}

// WithRedisHealthCheck reports Redis reachability. A failing Redis degrades
// the service rather than failing it.
func (b *ServerBuilder) WithRedisHealthCheck(ping func(context.Context) error) *ServerBuilder {
	b.healthChecks["redis"] = RedisHealthChecker(ping)
	return b
}

func (b *ServerBuilder) WithRoutes(setupRoutes func(*gin.Engine)) *ServerBuilder {
	b.setupRoutes = setupRoutes
	return b
}

// Build creates the server. Health routes are registered before service routes.
func (b *ServerBuilder) Build() *Server {
	if b.logger == nil {
		b.logger = logger.NewNop()
	}

	setup := func(router *gin.Engine) {
		RegisterHealthRoutes(router, HealthOptions{
			ServiceName:    b.config.ServiceName,
			ServiceVersion: b.config.ServiceVersion,
			Checks:         b.healthChecks,
		})
		if b.setupRoutes != nil {
			b.setupRoutes(router)
		}
	}

	return NewServer(b.config, b.logger, setup)
}
