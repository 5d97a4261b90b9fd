package cache

import (
	"context"
	"errors"
	"time"
)

// based on github.com/kittpat1413/go-common/framework/cache/cache.go

var ErrCacheMiss = errors.New("cache miss")

type Cache[K comparable, V any] interface {
	Get(ctx context.Context, key K) (*V, error)
	Invalidate(ctx context.Context, key K)
}

// Store keeps serialized analysis results.
// Entries are immutable: PutIfAbsent keeps an existing entry untouched,
// so the first writer wins.
type Store interface {
	// Get returns ErrCacheMiss if no (unexpired) entry exists.
	Get(ctx context.Context, key string) ([]byte, error)
	PutIfAbsent(ctx context.Context, key string, value []byte) error
}

type (
	Config struct {
		TTL time.Duration // 0: entries never expire
	}
	Option func(*Config)
)

func WithTTL(d time.Duration) Option {
	return func(c *Config) {
		c.TTL = d
	}
}

func NewConfig(opts ...Option) *Config {
	ret := &Config{}
	for _, o := range opts {
		o(ret)
	}
	return ret
}

// Noop is a Store that never holds anything.
type Noop struct{}

func (Noop) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, ErrCacheMiss
}

func (Noop) PutIfAbsent(ctx context.Context, key string, value []byte) error {
	return nil
}
