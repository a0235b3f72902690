// Package auth implements session tokens, credential checks and token revocation
// for the gateway.
package auth

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"
)

// CookieName is the cookie carrying the session token.
const CookieName = "token"

// Credentials are the shared secrets accepted by the gateway.
type Credentials struct {
	UIPassword string
	UIKey      string
}

// TokenVerifier is satisfied by *TokenCodec.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) bool
}

// Authenticator decides whether a request carries valid credentials.
type Authenticator struct {
	creds  Credentials
	tokens TokenVerifier
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(creds Credentials, tokens TokenVerifier) *Authenticator {
	return &Authenticator{creds: creds, tokens: tokens}
}

// Authenticate checks the Authorization header and then the token cookie.
// Supported schemes are Basic (password part only), Key and Bearer. An
// unrecognised scheme falls through to the cookie.
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) bool {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, value, _ := strings.Cut(header, " ")
		switch strings.ToLower(scheme) {
		case "basic":
			return a.basic(value)
		case "key":
			return secretEqual(value, a.creds.UIKey)
		case "bearer":
			return a.tokens.Verify(ctx, value)
		}
	}

	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	return a.tokens.Verify(ctx, cookie.Value)
}

// CheckPassword compares a login password with the configured UI password.
func (a *Authenticator) CheckPassword(password string) bool {
	return secretEqual(password, a.creds.UIPassword)
}

func (a *Authenticator) basic(encoded string) bool {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return false
	}
	_, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return false
	}
	return secretEqual(password, a.creds.UIPassword)
}

// secretEqual never matches an unset secret.
func secretEqual(got, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
