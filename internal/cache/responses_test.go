package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/postforge/internal/content"
	"github.com/hyperifyio/postforge/internal/cost"
)

type failingStore struct{ getErr, setErr error }

func (f failingStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, f.getErr }
func (f failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return f.setErr
}

func sampleResponse() *content.Response {
	pos := 1
	return &content.Response{
		Posts:  []content.Post{{Text: "hello", IsThread: true, ThreadPosition: &pos}},
		Cost:   cost.Total(cost.DefaultTable.GPT(10, 5), cost.DefaultTable.Scrape(1)),
		Source: content.SourceMetadata{Kind: content.SourceURL, Identifier: "https://example.com"},
	}
}

func TestResponses_RoundTrip(t *testing.T) {
	r := &Responses{Store: NewMemoryStore()}
	ctx := context.Background()
	in := sampleResponse()

	require.True(t, r.Save(ctx, "k", in))
	out, ok := r.Lookup(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, in.Posts[0].Text, out.Posts[0].Text)
	require.NotNil(t, out.Cost.Scrape)
	assert.Equal(t, in.Cost.TotalCost, out.Cost.TotalCost)
}

func TestResponses_CorruptEntryIsMiss(t *testing.T) {
	store := NewMemoryStore()
	r := &Responses{Store: store}
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", []byte("{broken"), 0))

	_, ok := r.Lookup(ctx, "k")
	assert.False(t, ok)

	require.True(t, r.Save(ctx, "k", sampleResponse()))
	_, ok = r.Lookup(ctx, "k")
	assert.True(t, ok, "corrupt entry should be overwritten by the next save")
}

func TestResponses_StoreErrorsNeverSurface(t *testing.T) {
	r := &Responses{Store: failingStore{getErr: errors.New("boom"), setErr: errors.New("boom")}}
	_, ok := r.Lookup(context.Background(), "k")
	assert.False(t, ok)
	assert.False(t, r.Save(context.Background(), "k", sampleResponse()))
}

func TestResponses_NilStore(t *testing.T) {
	var r *Responses
	_, ok := r.Lookup(context.Background(), "k")
	assert.False(t, ok)
	assert.False(t, r.Save(context.Background(), "k", sampleResponse()))
}

func TestRequestKey_ChangesWithEveryParameter(t *testing.T) {
	base := content.Request{ContentType: content.Short, NumUnits: 2}
	key := RequestKey("url-to-twitter", "https://example.com", "gpt-4o-mini", base)

	variants := []struct {
		name string
		key  string
	}{
		{"operation", RequestKey("text-to-twitter", "https://example.com", "gpt-4o-mini", base)},
		{"identifier", RequestKey("url-to-twitter", "https://example.org", "gpt-4o-mini", base)},
		{"model", RequestKey("url-to-twitter", "https://example.com", "gpt-4o", base)},
		{"type", RequestKey("url-to-twitter", "https://example.com", "gpt-4o-mini", content.Request{ContentType: content.Poll, NumUnits: 2})},
		{"count", RequestKey("url-to-twitter", "https://example.com", "gpt-4o-mini", content.Request{ContentType: content.Short, NumUnits: 3})},
		{"context", RequestKey("url-to-twitter", "https://example.com", "gpt-4o-mini", content.Request{ContentType: content.Short, NumUnits: 2, AdditionalContext: "x"})},
		{"image", RequestKey("url-to-twitter", "https://example.com", "gpt-4o-mini", content.Request{ContentType: content.Short, NumUnits: 2, GenerateImage: true})},
		{"premium", RequestKey("url-to-twitter", "https://example.com", "gpt-4o-mini", content.Request{ContentType: content.Short, NumUnits: 2, Premium: true})},
		{"system prompt", RequestKey("url-to-twitter", "https://example.com", "gpt-4o-mini", base, "You write for engineers.")},
	}
	for _, v := range variants {
		assert.NotEqual(t, key, v.key, v.name)
	}
	assert.Equal(t, key, RequestKey("url-to-twitter", "https://example.com", "gpt-4o-mini", base), "key must be stable")
}

func TestFingerprint_NormalizesUnicodeAndSpace(t *testing.T) {
	composed := Fingerprint("op", "caf\u00e9")
	decomposed := Fingerprint("op", "  cafe\u0301 ")
	assert.Equal(t, composed, decomposed)
	assert.NotEqual(t, Fingerprint("op", "ab", "c"), Fingerprint("op", "a", "bc"))
}
