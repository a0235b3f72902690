package api

import (
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/isabella232/tmg-ucm/infrastructure/logger"
	"github.com/isabella232/tmg-ucm/internal/upstream"
)

var (
	staticPages = map[string]bool{
		"/nav.plain.html":    true,
		"/footer.plain.html": true,
	}
	staticExtensions = map[string]bool{
		".svg": true, ".css": true, ".js": true, ".woff": true, ".woff2": true,
	}
	imageExtensions = map[string]bool{
		".png": true, ".jpg": true, ".jpeg": true,
	}
)

// Headers not copied from a proxied response.
var hopHeaders = []string{
	"Connection", "Keep-Alive", "Proxy-Authenticate", "Proxy-Authorization",
	"Te", "Trailer", "Transfer-Encoding", "Upgrade",
}

func isStaticAsset(p string) bool {
	return staticPages[p] || staticExtensions[strings.ToLower(path.Ext(p))]
}

func isImage(p string) bool {
	return imageExtensions[strings.ToLower(path.Ext(p))]
}

// Image proxies an image from the content origin, applying resize hints.
func (h *Handlers) Image(c *gin.Context) {
	hints := upstream.ParseImageHints(c.Request.URL.Query())

	resp, err := h.upstream.Image(c.Request.Context(), c.Request.URL.Path, hints)
	if err != nil {
		h.upstreamFailed(c, "image", err)
		return
	}
	defer resp.Body.Close()

	c.DataFromReader(http.StatusOK, resp.ContentLength, resp.Header.Get("Content-Type"), resp.Body, nil)
}

// Static proxies nav, footer, scripts, styles, icons and fonts from the static
// upstream with its status.
func (h *Handlers) Static(c *gin.Context) {
	resp, err := h.upstream.Static(c.Request.Context(), c.Request)
	if err != nil {
		h.upstreamFailed(c, "static", err)
		return
	}
	defer resp.Body.Close()

	dst := c.Writer.Header()
	for k, vv := range resp.Header {
		dst[k] = vv
	}
	for _, k := range hopHeaders {
		dst.Del(k)
	}
	dst.Set("Access-Control-Allow-Origin", "*")
	dst.Del("Age")
	dst.Del("X-Robots-Tag")

	c.Status(resp.StatusCode)
	c.Writer.WriteHeaderNow()
	if _, err = io.Copy(c.Writer, resp.Body); err != nil {
		h.requestLog(c).Warn("Static proxy copy interrupted",
			logger.String("path", c.Request.URL.Path),
			logger.Error(err),
		)
	}
}
