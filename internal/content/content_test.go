package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContentType(t *testing.T) {
	for in, want := range map[string]ContentType{
		"short":     Short,
		" THREAD ":  Thread,
		"Quotes":    Quote,
		"poll":      Poll,
		"long-form": Long,
		"tweets":    Short,
	} {
		got, err := ParseContentType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseContentType("essay")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestRequestValidate(t *testing.T) {
	ok := Request{ContentType: Short, NumUnits: 1}
	require.NoError(t, ok.Validate())

	for name, r := range map[string]Request{
		"zero units": {ContentType: Short, NumUnits: 0},
		"too many":   {ContentType: Thread, NumUnits: MaxUnits + 1},
		"bad type":   {ContentType: "essay", NumUnits: 1},
	} {
		err := r.Validate()
		require.Error(t, err, name)
		assert.True(t, IsKind(err, KindValidation), name)
	}
}

func TestPremiumLongAndCap(t *testing.T) {
	assert.True(t, Request{ContentType: Long, Premium: true}.PremiumLong())
	assert.False(t, Request{ContentType: Long}.PremiumLong())
	assert.False(t, Request{ContentType: Short, Premium: true}.PremiumLong())
	assert.Equal(t, PremiumCap, Request{ContentType: Long, Premium: true}.UnitCap())
	assert.Equal(t, StandardCap, Request{ContentType: Long}.UnitCap())
}

func TestSourceKindOperation(t *testing.T) {
	assert.Equal(t, "text-to-twitter", SourceText.Operation())
	assert.Equal(t, "url-to-twitter", SourceURL.Operation())
	assert.Equal(t, "youtube-to-twitter", SourceVideo.Operation())
	assert.Equal(t, "the article", SourceURL.Label())
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("upstream 500")
	err := fmt.Errorf("run: %w", GenerationFailure("chat", cause))
	assert.Equal(t, KindGeneration, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "generation_failure: chat: upstream 500")

	assert.Nil(t, ExtractionFailure("fetch", nil))
	assert.Equal(t, KindUnknown, KindOf(cause))
	assert.False(t, IsKind(nil, KindUnknown))
	assert.Equal(t, "image_generation_failure", KindImageGeneration.String())
}

func TestPostJSONShape(t *testing.T) {
	pos := 2
	b, err := json.Marshal(Post{Text: "hi", IsThread: true, ThreadPosition: &pos})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tweet_text":"hi","is_thread":true,"thread_position":2,"image_url":null,"is_premium_content":false}`, string(b))

	b, err = json.Marshal(Post{Text: "solo"})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "thread_position")
}
