package auth

import (
	"context"
	"time"

	"shopmirror/internal/cache"
)

const blacklistPrefix = "blacklist:"

// Blacklist remembers logged-out tokens until they would have expired anyway.
type Blacklist struct {
	Store cache.Store
	Now   func() time.Time
}

func (b *Blacklist) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	if b == nil || b.Store == nil || token == "" {
		return nil
	}
	ttl := expiresAt.Sub(b.now())
	if ttl <= 0 {
		return nil
	}
	return b.Store.Mark(ctx, blacklistPrefix+token, ttl)
}

func (b *Blacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	if b == nil || b.Store == nil || token == "" {
		return false, nil
	}
	return b.Store.Marked(ctx, blacklistPrefix+token)
}

func (b *Blacklist) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}
