package auth

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/isabella232/tmg-ucm/infrastructure/logger"
)

const (
	// TokenTTL is how long an issued session token stays valid.
	TokenTTL = 14 * 24 * time.Hour

	adminSubject = "admin"
	tokenType    = "JWT"
)

var (
	// ErrSigningKeyMissing means the gateway was started without a JWT key.
	ErrSigningKeyMissing = errors.New("token signing key is not configured")
	// ErrMalformedToken is returned by DecodePayload for undecodable tokens.
	ErrMalformedToken = errors.New("malformed token")
)

// Claims is the session token payload.
type Claims struct {
	jwt.RegisteredClaims
	Admin bool `json:"admin"`
}

type tokenHeader struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// TokenCodec issues and verifies session tokens.
//
// Tokens have three dot-separated segments: padded standard base64 of the
// header JSON, padded standard base64 of the claims JSON, and the lowercase
// hex HMAC-SHA256 of the first two segments joined by a dot.
type TokenCodec struct {
	key     []byte
	revoked RevocationStore
	log     logger.Logger
	now     func() time.Time
}

// TokenOption customises a TokenCodec.
type TokenOption func(*TokenCodec)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TokenOption {
	return func(c *TokenCodec) { c.now = now }
}

// NewTokenCodec creates a codec signing with key. store may be nil, in which
// case no token is ever considered revoked.
func NewTokenCodec(key string, store RevocationStore, log logger.Logger, opts ...TokenOption) *TokenCodec {
	c := &TokenCodec{
		key:     []byte(key),
		revoked: store,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue creates a token for subject and returns it with its lifetime.
func (c *TokenCodec) Issue(subject string) (string, time.Duration, error) {
	if len(c.key) == 0 {
		return "", 0, ErrSigningKeyMissing
	}

	now := c.now().Truncate(time.Second)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
		Admin: subject == adminSubject,
	}

	header, err := json.Marshal(tokenHeader{Alg: jwt.SigningMethodHS256.Alg(), Typ: tokenType})
	if err != nil {
		return "", 0, fmt.Errorf("encode token header: %w", err)
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", 0, fmt.Errorf("encode token claims: %w", err)
	}

	signingString := base64.StdEncoding.EncodeToString(header) + "." + base64.StdEncoding.EncodeToString(payload)

	sig, err := jwt.SigningMethodHS256.Sign(signingString, c.key)
	if err != nil {
		return "", 0, fmt.Errorf("sign token: %w", err)
	}

	return signingString + "." + hex.EncodeToString(sig), TokenTTL, nil
}

// DecodePayload returns the claims of token without checking its signature,
// expiry or revocation.
func (c *TokenCodec) DecodePayload(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrMalformedToken
	}

	var claims Claims
	if err := decodeSegment(parts[1], &claims); err != nil {
		return nil, fmt.Errorf("%w: payload: %w", ErrMalformedToken, err)
	}
	return &claims, nil
}

// Verify reports whether token is well formed, correctly signed, unexpired and
// not revoked. Any failure, including a revocation lookup error, yields false.
func (c *TokenCodec) Verify(ctx context.Context, token string) bool {
	if len(c.key) == 0 {
		return false
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return false
	}

	var header tokenHeader
	if err := decodeSegment(parts[0], &header); err != nil {
		return false
	}
	if header.Alg != jwt.SigningMethodHS256.Alg() || header.Typ != tokenType {
		return false
	}

	sig, err := hex.DecodeString(parts[2])
	if err != nil {
		return false
	}
	if err = jwt.SigningMethodHS256.Verify(parts[0]+"."+parts[1], sig, c.key); err != nil {
		return false
	}

	var claims Claims
	if err = decodeSegment(parts[1], &claims); err != nil || claims.ExpiresAt == nil {
		return false
	}
	if !c.now().Before(claims.ExpiresAt.Time) {
		c.log.Debug("Session token expired",
			logger.String("subject", claims.Subject),
			logger.Time("expired_at", claims.ExpiresAt.Time),
		)
		return false
	}

	if c.revoked == nil {
		return true
	}
	revoked, err := c.revoked.IsRevoked(ctx, token)
	if err != nil {
		c.log.Warn("Revocation lookup failed, rejecting token", logger.Error(err))
		return false
	}
	return !revoked
}

func decodeSegment(seg string, v any) error {
	raw, err := base64.StdEncoding.DecodeString(seg)
	if err != nil {
		// Tolerate unpadded segments produced by other encoders.
		if raw, err = base64.RawStdEncoding.DecodeString(seg); err != nil {
			return err
		}
	}
	return json.Unmarshal(raw, v)
}
