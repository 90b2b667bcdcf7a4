package authflag

import (
	"context"
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-console/internal/config"
	"github.com/stemsi/exstem-console/internal/database"
)

// RedisStore keeps the flag and the API session cookies in Redis so several
// console hosts sharing a profile share one session.
type RedisStore struct {
	rdb        *redis.Client
	key        string
	cookiesKey string
	log        zerolog.Logger
}

// NewRedisStore connects to cfg.RedisURL and validates the connection.
func NewRedisStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*RedisStore, error) {
	rdb, err := database.NewRedisClient(ctx, cfg.RedisURL, cfg.RequestTimeout, log)
	if err != nil {
		return nil, err
	}
	return NewRedisStoreWithClient(rdb, cfg.Profile, log), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(rdb *redis.Client, profile string, log zerolog.Logger) *RedisStore {
	return &RedisStore{
		rdb:        rdb,
		key:        config.CacheKey.AuthFlagKey(profile),
		cookiesKey: config.CacheKey.SessionCookiesKey(profile),
		log:        log,
	}
}

func (r *RedisStore) IsSet(ctx context.Context) bool {
	val, err := r.rdb.Get(ctx, r.key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn().Err(err).Str("key", r.key).Msg("Auth flag unreadable, treating as absent")
		}
		return false
	}
	return val == Value
}

func (r *RedisStore) Set(ctx context.Context) {
	if err := r.rdb.Set(ctx, r.key, Value, 0).Err(); err != nil {
		r.log.Warn().Err(err).Str("key", r.key).Msg("Auth flag write skipped")
	}
}

func (r *RedisStore) Clear(ctx context.Context) {
	if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
		r.log.Warn().Err(err).Str("key", r.key).Msg("Auth flag clear skipped")
	}
}

// LoadCookies returns the API session cookies shared by the profile.
func (r *RedisStore) LoadCookies(ctx context.Context) []*http.Cookie {
	val, err := r.rdb.Get(ctx, r.cookiesKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn().Err(err).Str("key", r.cookiesKey).Msg("Session cookies unreadable, starting fresh")
		}
		return nil
	}
	return decodeCookies(val)
}

func (r *RedisStore) SaveCookies(ctx context.Context, cookies []*http.Cookie) {
	encoded := encodeCookies(cookies)
	var err error
	if encoded == "" {
		err = r.rdb.Del(ctx, r.cookiesKey).Err()
	} else {
		err = r.rdb.Set(ctx, r.cookiesKey, encoded, 0).Err()
	}
	if err != nil {
		r.log.Warn().Err(err).Str("key", r.cookiesKey).Msg("Session cookies write skipped")
	}
}

// Close releases the underlying connection pool.
func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
