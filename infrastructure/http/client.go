// Package http builds the tuned *http.Client used for upstream calls.
package http

import (
	"net/http"
	"time"
)

const (
	DefaultTimeout               = 30 * time.Second
	DefaultMaxIdleConns          = 100
	DefaultMaxIdleConnsPerHost   = 20
	DefaultIdleConnTimeout       = 90 * time.Second
	DefaultTLSHandshakeTimeout   = 10 * time.Second
	DefaultExpectContinueTimeout = 1 * time.Second
)

// ClientConfig configures NewClient. Zero values select the defaults above.
type ClientConfig struct {
	// Timeout bounds the whole exchange including reading the body.
	Timeout             time.Duration
	MaxIdleConnsPerHost int
	// DisableRedirects returns 3xx responses to the caller instead of following them.
	DisableRedirects bool
}

// NewClient returns a client with pooled keep-alive connections.
func NewClient(cfg ClientConfig) *http.Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          DefaultMaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       DefaultIdleConnTimeout,
		TLSHandshakeTimeout:   DefaultTLSHandshakeTimeout,
		ExpectContinueTimeout: DefaultExpectContinueTimeout,
		ResponseHeaderTimeout: cfg.Timeout,
	}

	client := &http.Client{Timeout: cfg.Timeout, Transport: transport}
	if cfg.DisableRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client
}
