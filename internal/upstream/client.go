// Package upstream talks to the origins behind the gateway: the content
// origin (homepage and images), the content search API and the static
// rendering upstream.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/isabella232/tmg-ucm/infrastructure/circuitbreaker"
	apperrors "github.com/isabella232/tmg-ucm/infrastructure/errors"
	infrahttp "github.com/isabella232/tmg-ucm/infrastructure/http"
	"github.com/isabella232/tmg-ucm/infrastructure/logger"
	"github.com/isabella232/tmg-ucm/internal/content"
)

// Upstream targets, used for breakers and metrics.
const (
	TargetContent = "content"
	TargetSearch  = "search"
	TargetStatic  = "static"
)

const (
	apiKeyHeader = "app_key"

	thumbnailPolicy = "utilities-thumbnail"
	thumbnailWidth  = 60

	maxSearchBody = 16 << 20
)

// Config locates the upstream origins.
type Config struct {
	ContentEndpoint string
	APIEndpoint     string
	APIKey          string
	StaticUpstream  string
	CacheGen        string
	Timeout         time.Duration
}

// Observer receives the outcome of every upstream exchange. status is 0 when
// no response was received.
type Observer interface {
	ObserveUpstream(target string, status int, elapsed time.Duration)
	SetBreakerState(target string, state int)
}

type nopObserver struct{}

func (nopObserver) ObserveUpstream(string, int, time.Duration) {}
func (nopObserver) SetBreakerState(string, int) {}

// Client is safe for concurrent use.
type Client struct {
	cfg      Config
	http     *http.Client
	breakers map[string]*circuitbreaker.Breaker
	observer Observer
	log      logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithObserver reports exchanges to o.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithBreakerConfig overrides the per-target circuit breaker settings.
func WithBreakerConfig(cfg circuitbreaker.Config) Option {
	return func(c *Client) {
		c.breakers = c.newBreakers(cfg)
	}
}

// New creates a Client.
func New(cfg Config, log logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	c := &Client{
		cfg:      cfg,
		observer: nopObserver{},
		log:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		// Redirects are handed back to the browser, not followed.
		c.http = infrahttp.NewClient(infrahttp.ClientConfig{
			Timeout:          cfg.Timeout,
			DisableRedirects: true,
		})
	}
	if c.breakers == nil {
		c.breakers = c.newBreakers(circuitbreaker.Config{})
	}
	return c
}

func (c *Client) newBreakers(cfg circuitbreaker.Config) map[string]*circuitbreaker.Breaker {
	breakers := make(map[string]*circuitbreaker.Breaker, 3)
	for _, target := range []string{TargetContent, TargetSearch, TargetStatic} {
		bcfg := cfg
		bcfg.OnStateChange = func(from, to circuitbreaker.State) {
			c.log.Warn("Upstream circuit breaker state changed",
				logger.String("target", target),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
			c.observer.SetBreakerState(target, int(to))
		}
		breakers[target] = circuitbreaker.New(bcfg)
	}
	return breakers
}

// do sends req through the breaker of target. Only transport errors count as
// breaker failures; the response is returned whatever its status.
func (c *Client) do(ctx context.Context, target string, req *http.Request) (*http.Response, error) {
	start := time.Now()

	var resp *http.Response
	err := c.breakers[target].Execute(ctx, func(context.Context) error {
		var doErr error
		resp, doErr = c.http.Do(req)
		return doErr
	})

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.observer.ObserveUpstream(target, status, time.Since(start))

	if err != nil {
		return nil, fmt.Errorf("%s upstream: %w", target, err)
	}
	return resp, nil
}

// Homepage opens the upstream homepage. The caller closes the body.
func (c *Client) Homepage(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.ContentEndpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create homepage request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.do(ctx, TargetContent, req)
	if err != nil {
		return nil, err
	}
	if err = apperrors.ParseHTTPError(resp); err != nil {
		_ = resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

// Search looks up the content item published at pageURL.
func (c *Client) Search(ctx context.Context, pageURL string) (*content.SearchResult, error) {
	body, err := json.Marshal(content.SearchQuery(pageURL))
	if err != nil {
		return nil, fmt.Errorf("marshal search query: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.APIEndpoint, "/") + content.SearchPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Sent with the exact lower-case name the API expects.
	req.Header[apiKeyHeader] = []string{c.cfg.APIKey}

	resp, err := c.do(ctx, TargetSearch, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err = apperrors.ParseHTTPError(resp); err != nil {
		return nil, err
	}

	var result content.SearchResult
	if err = json.NewDecoder(io.LimitReader(resp.Body, maxSearchBody)).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &result, nil
}

// ContentURL is the canonical URL of path on the content origin.
func (c *Client) ContentURL(path, rawQuery string) string {
	u := strings.TrimRight(c.cfg.ContentEndpoint, "/") + path
	if rawQuery != "" {
		u += "?" + rawQuery
	}
	return u
}

// ImageHints are resize hints for the image fetch layer.
type ImageHints struct {
	Width  int
	Height int
}

// ParseImageHints reads imwidth, imheight and impolicy. The thumbnail policy
// forces a 60px width, and any policy suppresses imheight.
func ParseImageHints(q url.Values) ImageHints {
	var h ImageHints
	if w, ok := positiveInt(q.Get("imwidth")); ok {
		h.Width = w
	}

	if q.Has("impolicy") {
		if q.Get("impolicy") == thumbnailPolicy {
			h.Width = thumbnailWidth
		}
	} else if ht, ok := positiveInt(q.Get("imheight")); ok {
		h.Height = ht
	}
	return h
}

func (h ImageHints) query() string {
	v := url.Values{}
	if h.Width > 0 {
		v.Set("width", strconv.Itoa(h.Width))
	}
	if h.Height > 0 {
		v.Set("height", strconv.Itoa(h.Height))
	}
	return v.Encode()
}

func positiveInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Image fetches path from the content origin with resize hints applied.
// The caller closes the response body.
func (c *Client) Image(ctx context.Context, imagePath string, hints ImageHints) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ContentURL(imagePath, hints.query()), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create image request: %w", err)
	}

	resp, err := c.do(ctx, TargetContent, req)
	if err != nil {
		return nil, err
	}
	if err = apperrors.ParseHTTPError(resp); err != nil {
		_ = resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// StaticURL maps an incoming request URL onto the static upstream. Fonts
// are requested by base name; everything else carries the cache generation.
func (c *Client) StaticURL(in *url.URL) string {
	p := in.Path
	q := in.Query()
	if strings.HasSuffix(p, ".woff") {
		p = "/" + path.Base(p)
	} else if c.cfg.CacheGen != "" {
		q.Set("gen", c.cfg.CacheGen)
	}

	u := strings.TrimRight(c.cfg.StaticUpstream, "/") + p
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

// Static proxies in to the static upstream. Upstream error statuses are
// returned as responses, not errors. The caller closes the body.
func (c *Client) Static(ctx context.Context, in *http.Request) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, in.Method, c.StaticURL(in.URL), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create static request: %w", err)
	}
	for _, h := range []string{"Accept", "Accept-Encoding", "Accept-Language", "If-None-Match", "If-Modified-Since", "User-Agent"} {
		if v := in.Header.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}
	if in.Host != "" {
		req.Header.Set("X-Forwarded-Host", in.Host)
	}

	c.log.Debug("Fetching static asset", logger.String("url", req.URL.String()))
	return c.do(ctx, TargetStatic, req)
}
