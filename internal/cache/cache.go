// Package cache memoizes sous chef specifications in process memory or Redis.
package cache

import (
	"context"
	"errors"
	"time"
)

// Cache is a byte-oriented key/value store with expiry
type Cache interface {
	// Get returns ErrMiss when the key is absent or expired
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value; a zero ttl uses the backend's default
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
}

// Config holds settings shared by every backend
type Config struct {
	// DefaultTTL is used when Set is called with a zero ttl
	DefaultTTL time.Duration
	// Prefix is prepended to all keys
	Prefix string
}

// DefaultConfig returns a five minute TTL and the "recipes:" prefix
func DefaultConfig() Config {
	return Config{
		DefaultTTL: 5 * time.Minute,
		Prefix:     "recipes:",
	}
}

// ErrMiss is returned when a key is not cached
var ErrMiss = errors.New("cache miss")

// IsMiss reports whether err is a cache miss
func IsMiss(err error) bool {
	return errors.Is(err, ErrMiss)
}
