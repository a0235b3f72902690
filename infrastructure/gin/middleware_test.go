package gin_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	ginpkg "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infragin "github.com/isabella232/tmg-ucm/infrastructure/gin"
	"github.com/isabella232/tmg-ucm/infrastructure/logger"
)

func init() {
	ginpkg.SetMode(ginpkg.TestMode)
}

func newRequestIDRouter(seen *string) *ginpkg.Engine {
	router := ginpkg.New()
	router.Use(infragin.RequestIDLoggerMiddleware(logger.NewNop()))
	router.GET("/test", func(c *ginpkg.Context) {
		if seen != nil {
			*seen = c.GetString(infragin.RequestIDKey)
		}
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestRequestIDLoggerMiddleware_GeneratesID(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	newRequestIDRouter(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	assert.Len(t, w.Header().Get(infragin.RequestIDHeader), 32)
}

func TestRequestIDLoggerMiddleware_PreservesInboundID(t *testing.T) {
	t.Parallel()

	var seen string
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set(infragin.RequestIDHeader, "edge-abc123")

	w := httptest.NewRecorder()
	newRequestIDRouter(&seen).ServeHTTP(w, req)

	assert.Equal(t, "edge-abc123", w.Header().Get(infragin.RequestIDHeader))
	assert.Equal(t, "edge-abc123", seen)
}

func TestRequestIDLoggerMiddleware_RejectsOversizedID(t *testing.T) {
	t.Parallel()

	oversized := strings.Repeat("x", 200)
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set(infragin.RequestIDHeader, oversized)

	w := httptest.NewRecorder()
	newRequestIDRouter(nil).ServeHTTP(w, req)

	got := w.Header().Get(infragin.RequestIDHeader)
	assert.NotEqual(t, oversized, got)
	assert.Len(t, got, 32)
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	t.Parallel()

	router := ginpkg.New()
	router.Use(infragin.CORSMiddleware(infragin.CORSConfig{Enabled: true}))
	router.POST("/api", func(c *ginpkg.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api", http.NoBody)
	req.Header.Set("Origin", "https://example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Parallel()

	router := ginpkg.New()
	router.Use(infragin.RecoveryMiddleware(logger.NewNop()))
	router.GET("/boom", func(*ginpkg.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestBuilder_HealthDegradedWhenRedisDown(t *testing.T) {
	t.Parallel()

	srv := infragin.NewServerBuilder("gateway", ":0").
		WithRedisHealthCheck(func(context.Context) error { return errors.New("down") }).
		Build()

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	require.Equal(t, http.StatusOK, w.Code)

	var resp infragin.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, infragin.HealthStatusDegraded, resp.Status)
	assert.Equal(t, "gateway", resp.Service)
	assert.Equal(t, infragin.HealthStatusDegraded, resp.Checks["redis"].Status)
}

func TestBuilder_MemoryEndpoint(t *testing.T) {
	t.Parallel()

	srv := infragin.NewServerBuilder("gateway", ":0").Build()

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/memory", http.NoBody))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "goroutines")
}
