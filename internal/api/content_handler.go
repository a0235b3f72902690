package api

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/isabella232/tmg-ucm/infrastructure/logger"
	"github.com/isabella232/tmg-ucm/internal/content"
)

const (
	pageCacheControl = "max-age=60, must-revalidate"
	htmlContentType  = "text/html; charset=utf-8"
)

// Content serves the homepage at "/" and article pages everywhere else.
func (h *Handlers) Content(c *gin.Context) {
	if p := c.Request.URL.Path; p == "" || p == "/" {
		h.homepage(c)
		return
	}
	h.article(c)
}

func (h *Handlers) homepage(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := h.upstream.Homepage(ctx)
	if err != nil {
		h.upstreamFailed(c, "homepage", err)
		return
	}
	defer body.Close()

	c.Header("Cache-Control", pageCacheControl)
	c.Header("Content-Type", htmlContentType)
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()

	start := time.Now()
	stats, err := h.rewriter.Rewrite(ctx, body, c.Writer, requestOrigin(c.Request))
	if err != nil {
		// Headers are already sent; the client sees a truncated page.
		h.requestLog(c).Error("Homepage rewrite failed", logger.Error(err))
		return
	}
	h.metrics.ObserveRewrite(stats.Lists, stats.Articles, time.Since(start))
	h.requestLog(c).Debug("Homepage rewritten",
		logger.Int("lists", stats.Lists),
		logger.Int("articles", stats.Articles),
	)
}

func (h *Handlers) article(c *gin.Context) {
	pageURL := h.upstream.ContentURL(c.Request.URL.Path, c.Request.URL.RawQuery)

	res, err := h.upstream.Search(c.Request.Context(), pageURL)
	if err != nil {
		h.upstreamFailed(c, "search", err)
		return
	}

	var buf bytes.Buffer
	if err = h.pages.Render(&buf, res); err != nil {
		if errors.Is(err, content.ErrNoHits) {
			c.String(http.StatusNotFound, "Not found")
			return
		}
		h.requestLog(c).Error("Failed to render article page", logger.String("url", pageURL), logger.Error(err))
		c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	c.Header("Cache-Control", pageCacheControl)
	c.Data(http.StatusOK, htmlContentType, buf.Bytes())
}

// upstreamFailed logs err and replies with the matching status and no detail.
func (h *Handlers) upstreamFailed(c *gin.Context, op string, err error) {
	status := upstreamStatus(err)
	h.requestLog(c).Error("Upstream request failed",
		logger.String("operation", op),
		logger.String("path", c.Request.URL.Path),
		logger.Int("status", status),
		logger.Error(err),
	)
	c.Status(status)
	c.Writer.WriteHeaderNow()
}
