// Package api exposes the gateway over HTTP.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/isabella232/tmg-ucm/infrastructure/circuitbreaker"
	apperrors "github.com/isabella232/tmg-ucm/infrastructure/errors"
	"github.com/isabella232/tmg-ucm/infrastructure/logger"
	"github.com/isabella232/tmg-ucm/internal/auth"
	"github.com/isabella232/tmg-ucm/internal/content"
	"github.com/isabella232/tmg-ucm/internal/homepage"
	"github.com/isabella232/tmg-ucm/internal/upstream"
)

// Upstream is the subset of *upstream.Client used by the handlers.
type Upstream interface {
	Homepage(ctx context.Context) (io.ReadCloser, error)
	Search(ctx context.Context, pageURL string) (*content.SearchResult, error)
	ContentURL(path, rawQuery string) string
	Image(ctx context.Context, imagePath string, hints upstream.ImageHints) (*http.Response, error)
	Static(ctx context.Context, in *http.Request) (*http.Response, error)
}

// SessionTokens issues, verifies and inspects session tokens.
type SessionTokens interface {
	Issue(subject string) (string, time.Duration, error)
	Verify(ctx context.Context, token string) bool
	DecodePayload(token string) (*auth.Claims, error)
}

// Recorder receives handler level metrics.
type Recorder interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
	ObserveRewrite(lists, articles int, elapsed time.Duration)
	AuthFailure(surface string)
	Login(result string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRequest(string, string, int, time.Duration) {}
func (nopRecorder) ObserveRewrite(int, int, time.Duration) {}
func (nopRecorder) AuthFailure(string) {}
func (nopRecorder) Login(string) {}

// Handlers serves every gateway route.
type Handlers struct {
	upstream    Upstream
	authn       *auth.Authenticator
	tokens      SessionTokens
	revocations auth.RevocationStore
	rewriter    *homepage.Rewriter
	pages       *content.PageRenderer
	metrics     Recorder
	log         logger.Logger
}

// Dependencies are the collaborators of Handlers.
type Dependencies struct {
	Upstream      Upstream
	Authenticator *auth.Authenticator
	Tokens        SessionTokens
	Revocations   auth.RevocationStore
	Rewriter      *homepage.Rewriter
	Pages         *content.PageRenderer
	Metrics       Recorder
	Logger        logger.Logger
}

// NewHandlers creates Handlers.
func NewHandlers(deps Dependencies) *Handlers {
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}
	rec := deps.Metrics
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Handlers{
		upstream:    deps.Upstream,
		authn:       deps.Authenticator,
		tokens:      deps.Tokens,
		revocations: deps.Revocations,
		rewriter:    deps.Rewriter,
		pages:       deps.Pages,
		metrics:     rec,
		log:         log,
	}
}

// requestLog returns the request-scoped logger set by the gin middleware.
func (h *Handlers) requestLog(c *gin.Context) logger.Logger {
	return logger.FromContext(c.Request.Context(), h.log)
}

// upstreamStatus maps an upstream failure onto the status returned to the
// client: the upstream's own status, 503 while the breaker is open, else 502.
func upstreamStatus(err error) int {
	if code, ok := apperrors.StatusCode(err); ok {
		return code
	}
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

// requestOrigin is the scheme and host the client used to reach the gateway.
func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return (&url.URL{Scheme: scheme, Host: r.Host}).String()
}
