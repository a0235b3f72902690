// Package redis builds go-redis clients from gateway configuration.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection settings.
type Config struct {
	Address      string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ErrEmptyAddress is returned when no address is configured.
var ErrEmptyAddress = errors.New("redis address is required")

const (
	defaultDialTimeout = 5 * time.Second
	defaultIOTimeout   = 2 * time.Second
)

// NewClient connects and pings Redis. The ping honours ctx.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  orDefault(cfg.DialTimeout, defaultDialTimeout),
		ReadTimeout:  orDefault(cfg.ReadTimeout, defaultIOTimeout),
		WriteTimeout: orDefault(cfg.WriteTimeout, defaultIOTimeout),
	})

	pingCtx, cancel := context.WithTimeout(ctx, orDefault(cfg.DialTimeout, defaultDialTimeout))
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Address, err)
	}

	return client, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
