package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/isabella232/tmg-ucm/infrastructure/logger"
	"github.com/isabella232/tmg-ucm/internal/auth"
)

const invalidRequest = "Invalid request"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type logoutRequest struct {
	Token string `json:"token"`
}

// Login exchanges the UI password for a session token.
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, invalidRequest)
		return
	}

	if !h.authn.CheckPassword(strings.TrimSpace(req.Password)) {
		h.requestLog(c).Warn("Login rejected",
			logger.String("username", req.Username),
			logger.String("client_ip", c.ClientIP()),
		)
		h.metrics.Login("rejected")
		c.String(http.StatusUnauthorized, "Not authorized")
		return
	}

	token, ttl, err := h.tokens.Issue(req.Username)
	if err != nil {
		if errors.Is(err, auth.ErrSigningKeyMissing) {
			h.requestLog(c).Error("Cannot issue session token, signing key not configured")
		} else {
			h.requestLog(c).Error("Failed to issue session token", logger.Error(err))
		}
		h.metrics.Login("error")
		c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	h.requestLog(c).Info("Login succeeded", logger.String("username", req.Username))
	h.metrics.Login("ok")
	c.Header("Set-Cookie", fmt.Sprintf("%s=%s; path=/; max-age=%d", auth.CookieName, token, int64(ttl/time.Second)))
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Logout revokes a valid token for the rest of its lifetime. Invalid tokens
// are acknowledged without effect.
func (h *Handlers) Logout(c *gin.Context) {
	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, invalidRequest)
		return
	}

	ctx := c.Request.Context()
	if !h.tokens.Verify(ctx, req.Token) {
		c.String(http.StatusOK, "ok")
		return
	}

	claims, err := h.tokens.DecodePayload(req.Token)
	if err != nil || claims.ExpiresAt == nil {
		c.String(http.StatusOK, "ok")
		return
	}

	if err = h.revocations.Revoke(ctx, req.Token, claims.ExpiresAt.Time); err != nil {
		h.requestLog(c).Error("Failed to revoke session token",
			logger.String("subject", claims.Subject),
			logger.Error(err),
		)
		c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	h.requestLog(c).Info("Session token revoked", logger.String("subject", claims.Subject))
	c.String(http.StatusOK, "ok")
}
