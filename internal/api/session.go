package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	loginPath          = "/auth"
	clearSessionCookie = "token=;max-age=-1;"
)

// RequireSession rejects unauthenticated requests with a redirect to the
// login page, carrying the requested path in the fragment.
func (h *Handlers) RequireSession(c *gin.Context) {
	if h.authn.Authenticate(c.Request.Context(), c.Request) {
		c.Next()
		return
	}

	h.metrics.AuthFailure("page")
	c.Header("Set-Cookie", clearSessionCookie)
	c.Redirect(http.StatusFound, loginRedirect(c.Request.URL.Path))
	c.Abort()
}

func loginRedirect(path string) string {
	if len(path) <= 1 {
		return loginPath
	}
	return loginPath + "#" + escapeComponent(path)
}

const upperHex = "0123456789ABCDEF"

// escapeComponent percent-encodes s like JavaScript's encodeURIComponent.
func escapeComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if componentSafe(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0f])
	}
	return b.String()
}

func componentSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
