// Package rediscache provides a cache backed by Redis.
package rediscache

import (
	"context"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/ktr0731/protoedit/cache"
	"github.com/pkg/errors"
)

// Config configures a Redis cache.
type Config struct {
	Client *redis.Pool
	// KeyPrefix is prepended to every key.
	KeyPrefix string
	// Expiration is the lifetime of saved entries. Zero means no expiration.
	Expiration time.Duration
}

// New returns a cache that stores entries in Redis.
func New(config Config) (cache.Cache, error) {
	if config.Client == nil {
		return nil, errors.New("client cannot be nil")
	}
	if config.Expiration < 0 {
		return nil, errors.Errorf("expiration (%v) cannot be negative", config.Expiration)
	}
	return (*redisCache)(&config), nil
}

// NewPool returns a connection pool of the Redis server at addr.
func NewPool(addr string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     3,
		IdleTimeout: 4 * time.Minute,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialContext(ctx, "tcp", addr)
		},
	}
}

type redisCache Config

func (c *redisCache) Load(ctx context.Context, key string) ([]byte, error) {
	conn, err := c.Client.GetContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = conn.Close()
	}()
	return redis.Bytes(redis.DoContext(conn, ctx, "get", c.KeyPrefix+key))
}

func (c *redisCache) Save(ctx context.Context, key string, data []byte) error {
	conn, err := c.Client.GetContext(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = conn.Close()
	}()

	args := []interface{}{c.KeyPrefix + key, data}
	if millis := c.Expiration.Milliseconds(); millis > 0 {
		args = append(args, "px", millis)
	}
	_, err = redis.DoContext(conn, ctx, "set", args...)
	return err
}
