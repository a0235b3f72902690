package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/isabella232/tmg-ucm/infrastructure/logger"
)

//go:generate mockgen -destination=../../testutils/mocks/auth/revocation_store.go -package=mocks . RevocationStore

// RevocationStore records tokens that were logged out before expiry.
type RevocationStore interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
	// Revoke marks token revoked until expiresAt, after which the entry may vanish.
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
}

const revokedKeyPrefix = "revoked:token:"

// RedisRevocationStore keeps revoked tokens as Redis keys that expire with
// the token itself.
type RedisRevocationStore struct {
	client *redis.Client
	log    logger.Logger
	now    func() time.Time
}

// NewRedisRevocationStore wraps client.
func NewRedisRevocationStore(client *redis.Client, log logger.Logger) *RedisRevocationStore {
	return &RedisRevocationStore{client: client, log: log, now: time.Now}
}

func (s *RedisRevocationStore) key(token string) string {
	return revokedKeyPrefix + token
}

// IsRevoked looks the token up on every call.
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n == 1, nil
}

// Revoke stores token until expiresAt. Tokens already past expiry are not stored.
func (s *RedisRevocationStore) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		s.log.Debug("Skipping revocation of expired token", logger.Time("expires_at", expiresAt))
		return nil
	}

	if err := s.client.Set(ctx, s.key(token), "true", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	s.log.Debug("Token revoked", logger.Duration("ttl", ttl))
	return nil
}
