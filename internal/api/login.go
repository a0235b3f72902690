package api

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed login.html
var loginPage []byte

// LoginPage serves the sign-in form. It is reachable without a session.
func (h *Handlers) LoginPage(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, htmlContentType, loginPage)
}
