// Package memcache provides a cache backed by memcached.
package memcache

import (
	"context"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/ktr0731/protoedit/cache"
	"github.com/pkg/errors"
)

// Config configures a memcached cache.
type Config struct {
	Client *memcache.Client
	// KeyPrefix is prepended to every key.
	KeyPrefix string
	// ExpirationSeconds is the lifetime of saved entries. Zero means no expiration.
	ExpirationSeconds int32
}

// New returns a cache that stores entries in memcached.
func New(config Config) (cache.Cache, error) {
	if config.Client == nil {
		return nil, errors.New("client cannot be nil")
	}
	if config.ExpirationSeconds < 0 {
		return nil, errors.Errorf("expiration seconds (%d) cannot be negative", config.ExpirationSeconds)
	}
	return (*memCache)(&config), nil
}

type memCache Config

func (c *memCache) Load(_ context.Context, key string) ([]byte, error) {
	item, err := c.Client.Get(c.key(key))
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

func (c *memCache) Save(_ context.Context, key string, data []byte) error {
	item := &memcache.Item{
		Key:        c.key(key),
		Value:      data,
		Expiration: c.ExpirationSeconds,
	}
	return c.Client.Set(item)
}

// key returns the memcached key of key. memcached rejects empty keys, so the
// empty key is stored under the bare prefix followed by a marker.
func (c *memCache) key(key string) string {
	if key == "" {
		return c.KeyPrefix + "_"
	}
	return c.KeyPrefix + key
}
