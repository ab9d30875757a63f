package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/postforge/internal/content"
)

// Responses stores fully assembled responses in a Store. Every failure is
// logged and degrades to a miss or a skipped write; none reach the caller.
type Responses struct {
	Store Store
	TTL   time.Duration
}

// Lookup returns the cached response for key. Read errors and undecodable
// entries are misses.
func (r *Responses) Lookup(ctx context.Context, key string) (*content.Response, bool) {
	if r == nil || r.Store == nil {
		return nil, false
	}
	raw, ok, err := r.Store.Get(ctx, key)
	if err != nil {
		log.Warn().Err(content.CacheFailure("get", err)).Str("key", key).Msg("cache read failed; treating as miss")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var resp content.Response
	if err := json.Unmarshal(raw, &resp); err != nil || len(resp.Posts) == 0 {
		if err == nil {
			err = errEmptyEntry
		}
		log.Warn().Err(content.CacheFailure("decode", err)).Str("key", key).Msg("cache entry unreadable; treating as miss")
		return nil, false
	}
	return &resp, true
}

// Save stores resp under key. It reports whether the write succeeded.
func (r *Responses) Save(ctx context.Context, key string, resp *content.Response) bool {
	if r == nil || r.Store == nil || resp == nil {
		return false
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		log.Warn().Err(content.CacheFailure("encode", err)).Str("key", key).Msg("cache encode failed")
		return false
	}
	if err := r.Store.Set(ctx, key, raw, r.TTL); err != nil {
		log.Warn().Err(content.CacheFailure("set", err)).Str("key", key).Msg("cache write failed; continuing")
		return false
	}
	log.Debug().Str("key", key).Int("bytes", len(raw)).Msg("cached response")
	return true
}

var errEmptyEntry = errors.New("cached response has no posts")
