// Package database connects the console to the shared state it keeps
// outside the local file system.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewRedisClient connects to the Redis instance that holds a console
// profile's flag and session cookies. A console run is short-lived, so dial
// and I/O are bounded by timeout (when positive) and a failed ping closes
// the client instead of leaving a pool behind.
func NewRedisClient(ctx context.Context, redisURL string, timeout time.Duration, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if timeout > 0 {
		opt.DialTimeout = timeout
		opt.ReadTimeout = timeout
		opt.WriteTimeout = timeout

		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	rdb := redis.NewClient(opt)

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opt.Addr, err)
	}

	log.Debug().
		Str("addr", opt.Addr).
		Int("db", opt.DB).
		Msg("Profile state store connected")

	return rdb, nil
}
