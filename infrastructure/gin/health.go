package gin

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthStatus is the coarse state reported by a check.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

const healthCheckTimeout = 2 * time.Second

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  HealthStatus           `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version"`
	Uptime  string                 `json:"uptime"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of one named check.
type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
	Latency string       `json:"latency,omitempty"`
}

// HealthChecker runs a single check.
type HealthChecker func(ctx context.Context) CheckResult

// HealthOptions configures RegisterHealthRoutes.
type HealthOptions struct {
	ServiceName    string
	ServiceVersion string
	Checks         map[string]HealthChecker
}

// MemoryStats is the body of GET /health/memory.
type MemoryStats struct {
	HeapAllocMB  float64 `json:"heap_alloc_mb"`
	HeapInuseMB  float64 `json:"heap_inuse_mb"`
	StackInuseMB float64 `json:"stack_inuse_mb"`
	NumGC        uint32  `json:"num_gc"`
	Goroutines   int     `json:"goroutines"`
}

// RegisterHealthRoutes adds GET /health, HEAD /health and GET /health/memory.
func RegisterHealthRoutes(router *gin.Engine, opts HealthOptions) {
	started := time.Now()

	router.GET("/health", func(c *gin.Context) {
		resp := HealthResponse{
			Status:  HealthStatusHealthy,
			Service: opts.ServiceName,
			Version: opts.ServiceVersion,
			Uptime:  time.Since(started).Truncate(time.Second).String(),
		}

		if len(opts.Checks) > 0 {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
			defer cancel()

			resp.Checks = make(map[string]CheckResult, len(opts.Checks))
			for name, check := range opts.Checks {
				result := check(ctx)
				resp.Checks[name] = result
				resp.Status = worse(resp.Status, result.Status)
			}
		}

		status := http.StatusOK
		if resp.Status == HealthStatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, resp)
	})

	router.HEAD("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/health/memory", func(c *gin.Context) {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)

		const mb = 1024 * 1024
		c.JSON(http.StatusOK, MemoryStats{
			HeapAllocMB:  float64(ms.HeapAlloc) / mb,
			HeapInuseMB:  float64(ms.HeapInuse) / mb,
			StackInuseMB: float64(ms.StackInuse) / mb,
			NumGC:        ms.NumGC,
			Goroutines:   runtime.NumGoroutine(),
		})
	})
}

func worse(a, b HealthStatus) HealthStatus {
	rank := map[HealthStatus]int{HealthStatusHealthy: 0, HealthStatusDegraded: 1, HealthStatusUnhealthy: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// RedisHealthChecker wraps a Redis ping. Failure reports degraded: without
// Redis logout cannot revoke tokens, but pages still render.
func RedisHealthChecker(ping func(context.Context) error) HealthChecker {
	return func(ctx context.Context) CheckResult {
		start := time.Now()
		err := ping(ctx)
		latency := time.Since(start).String()

		if err != nil {
			return CheckResult{Status: HealthStatusDegraded, Message: "Redis connection failed", Latency: latency}
		}
		return CheckResult{Status: HealthStatusHealthy, Message: "Redis connection OK", Latency: latency}
	}
}
