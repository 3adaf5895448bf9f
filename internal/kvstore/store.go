// Package kvstore holds short-lived keyed values such as OTP codes, sessions and OAuth states.
package kvstore

import (
	"context"
	"errors"
	"time"

	"github.com/re-earth/re-earth-api/internal/config"
	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("kvstore: key not found")

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// New returns a Redis store when REDIS_ADDR is configured, otherwise an in-process one.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	if cfg.RedisAddr == "" {
		return NewMemory(), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedis(client), nil
}
