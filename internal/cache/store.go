package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long generated responses stay cached.
const DefaultTTL = 7 * 24 * time.Hour

// Store is a byte-oriented key/value store with per-entry expiry.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the stored value. A missing or expired key is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key. ttl <= 0 means DefaultTTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func effectiveTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}
