package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNoExpiry is returned when a key is marked without a positive ttl.
var ErrNoExpiry = errors.New("cache: ttl must be positive")

// Store is an expiring key set. Every key carries a deadline; once it passes
// the key is gone.
type Store interface {
	Mark(ctx context.Context, key string, ttl time.Duration) error
	Marked(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
}
