package parse

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/postforge/internal/content"
)

func TestParse_StripsLabelsAndNumbersThread(t *testing.T) {
	raw := "Tweet 1: Hello world #ai\n\nTweet 2: Second point #ml"
	posts := Parse(raw, Options{Count: 2, ContentType: content.Short})

	require.Len(t, posts, 2)
	assert.Equal(t, "Hello world #ai", posts[0].Text)
	assert.Equal(t, "Second point #ml", posts[1].Text)
	for i, p := range posts {
		assert.True(t, p.IsThread)
		require.NotNil(t, p.ThreadPosition)
		assert.Equal(t, i+1, *p.ThreadPosition)
		assert.False(t, p.IsPremiumContent)
	}
}

func TestParse_PremiumLongTruncatesToCap(t *testing.T) {
	raw := strings.Repeat("a", 30000)
	posts := Parse(raw, Options{Count: 1, ContentType: content.Long, Premium: true})

	require.Len(t, posts, 1)
	assert.LessOrEqual(t, utf8.RuneCountInString(posts[0].Text), content.PremiumCap)
	assert.True(t, posts[0].IsPremiumContent)
	assert.False(t, posts[0].IsThread)
	assert.Nil(t, posts[0].ThreadPosition)
}

func TestParse_PremiumLongIgnoresRequestedCount(t *testing.T) {
	posts := Parse("One long post.\n\nWith paragraphs.", Options{Count: 4, ContentType: content.Long, Premium: true})
	require.Len(t, posts, 1)
	assert.Equal(t, "One long post.\n\nWith paragraphs.", posts[0].Text)
}

func TestParse_PadsUnderDelivery(t *testing.T) {
	posts := Parse("Only one real tweet here", Options{Count: 3, ContentType: content.Short, FallbackLabel: "the article", FallbackSeed: "Go is fun"})

	require.Len(t, posts, 3)
	assert.Equal(t, "Only one real tweet here", posts[0].Text)
	for _, p := range posts[1:] {
		assert.True(t, strings.HasPrefix(p.Text, "Additional insights from the article"), p.Text)
	}
}

func TestParse_TruncatesOverDelivery(t *testing.T) {
	raw := "one\n\ntwo\n\nthree\n\nfour"
	posts := Parse(raw, Options{Count: 2, ContentType: content.Short})
	require.Len(t, posts, 2)
	assert.Equal(t, "one", posts[0].Text)
	assert.Equal(t, "two", posts[1].Text)
}

func TestParse_SingleUnitHasNoThreadPosition(t *testing.T) {
	posts := Parse("just one", Options{Count: 1, ContentType: content.Quote})
	require.Len(t, posts, 1)
	assert.False(t, posts[0].IsThread)
	assert.Nil(t, posts[0].ThreadPosition)
}

func TestParse_ImageOnlyOnFirstUnit(t *testing.T) {
	posts := Parse("a\n\nb\n\nc", Options{Count: 3, ContentType: content.Thread, ImageURL: "https://img.example/1.png"})
	require.NotNil(t, posts[0].ImageURL)
	assert.Equal(t, "https://img.example/1.png", *posts[0].ImageURL)
	assert.Nil(t, posts[1].ImageURL)
	assert.Nil(t, posts[2].ImageURL)

	posts = Parse("a\n\nb", Options{Count: 2, ContentType: content.Thread})
	assert.Nil(t, posts[0].ImageURL)
}

func TestParse_MarkerOnlyUnitsAreDropped(t *testing.T) {
	raw := "[1/3]\n\n[2/3] Real content\n\n---\n\n3. Another"
	posts := Parse(raw, Options{Count: 3, ContentType: content.Thread, FallbackLabel: "the video"})
	require.Len(t, posts, 3)
	assert.Equal(t, "Real content", posts[0].Text)
	assert.Equal(t, "Another", posts[1].Text)
	assert.Contains(t, posts[2].Text, "Additional insights from the video")
}

func TestParse_DropsPreamble(t *testing.T) {
	raw := "Here are 2 tweets about Go:\n\nFirst\n\nSecond"
	posts := Parse(raw, Options{Count: 2, ContentType: content.Short})
	assert.Equal(t, "First", posts[0].Text)
	assert.Equal(t, "Second", posts[1].Text)
}

func TestParse_HandlesCRLF(t *testing.T) {
	posts := Parse("first\r\n\r\nsecond", Options{Count: 2, ContentType: content.Short})
	assert.Equal(t, "first", posts[0].Text)
	assert.Equal(t, "second", posts[1].Text)
}

func TestParse_PropertyExactCountAndCaps(t *testing.T) {
	raws := []string{
		"",
		"   \n\n  ",
		"single",
		strings.Repeat("word ", 400),
		strings.Repeat("x\n\n", 50),
		"1. a\n\n2. b\n\n3. c\n\n4. d\n\n5. e",
		strings.Repeat("long unit "+strings.Repeat("y", 500)+"\n\n", 5),
	}
	types := []content.ContentType{content.Short, content.Thread, content.Quote, content.Poll, content.Long}
	for _, raw := range raws {
		for _, ct := range types {
			for _, premium := range []bool{false, true} {
				for n := 1; n <= 6; n++ {
					name := fmt.Sprintf("%s/premium=%v/n=%d/len=%d", ct, premium, n, len(raw))
					posts := Parse(raw, Options{Count: n, ContentType: ct, Premium: premium, ImageURL: "u"})
					if premium && ct == content.Long {
						require.Len(t, posts, 1, name)
						assert.LessOrEqual(t, utf8.RuneCountInString(posts[0].Text), content.PremiumCap, name)
						continue
					}
					require.Len(t, posts, n, name)
					images := 0
					for i, p := range posts {
						assert.LessOrEqual(t, utf8.RuneCountInString(p.Text), content.StandardCap, name)
						assert.NotEmpty(t, p.Text, name)
						if n > 1 {
							require.NotNil(t, p.ThreadPosition, name)
							assert.Equal(t, i+1, *p.ThreadPosition, name)
						} else {
							assert.Nil(t, p.ThreadPosition, name)
						}
						if p.ImageURL != nil {
							images++
							assert.Equal(t, 0, i, name)
						}
					}
					assert.LessOrEqual(t, images, 1, name)
				}
			}
		}
	}
}

func TestTruncatePremium_PrefersSentenceEnd(t *testing.T) {
	body := strings.Repeat("This is a sentence. ", 1300) // 26000 chars
	got := TruncatePremium(body)
	assert.LessOrEqual(t, utf8.RuneCountInString(got), content.PremiumCap)
	assert.True(t, strings.HasSuffix(got, "."), "cut should land on a sentence end")
}

func TestTruncatePremium_HardCutWhenBoundaryTooEarly(t *testing.T) {
	body := "Early end. " + strings.Repeat("z", 30000)
	got := TruncatePremium(body)
	assert.Equal(t, content.PremiumCap, utf8.RuneCountInString(got))
}

func TestStripMarkers(t *testing.T) {
	cases := map[string]string{
		"Tweet 1: Hello":           "Hello",
		"**Post 2:** Hello":        "Hello",
		"[3/5] Hello":              "Hello",
		"(1/2) Hello":              "Hello",
		"1/4 Hello":                "Hello",
		"4. Hello":                 "Hello",
		"- Hello":                  "Hello",
		"• Hello":                  "Hello",
		"→ Hello":                  "Hello",
		"- Tweet 1: [1/3] Hello":   "Hello",
		"#golang rocks":            "#golang rocks",
		"@gopher hi":               "@gopher hi",
		"\"Quoted\" - Someone":     "\"Quoted\" - Someone",
		"24/7 support matters":     "24/7 support matters",
		"🚀 Launch day":             "🚀 Launch day",
		"1.5 million gophers":      "1.5 million gophers",
		"Post 5 reasons to use Go": "Post 5 reasons to use Go",
		"---":                      "",
	}
	for in, want := range cases {
		assert.Equal(t, want, StripMarkers(in, 4), "input %q", in)
	}
}

func TestStripMarkers_BareFractionNeedsMatchingCount(t *testing.T) {
	assert.Equal(t, "1/2 cup of flour is all you need", StripMarkers("1/2 cup of flour is all you need", 3))
	assert.Equal(t, "1/2 cup of flour is all you need", StripMarkers("1/2 cup of flour is all you need", 1))
	assert.Equal(t, "cup of flour", StripMarkers("[1/2] cup of flour", 3), "bracketed counters always go")
	assert.Equal(t, "Hello", StripMarkers("2/3 Hello", 3))

	posts := Parse("1/2 cup of flour is all you need.\n\nBake at 200C.\n\nServe warm.", Options{Count: 3, ContentType: content.Thread})
	assert.Equal(t, "1/2 cup of flour is all you need.", posts[0].Text)
}

func TestTruncate_RuneSafe(t *testing.T) {
	s := strings.Repeat("é", 300)
	got := Truncate(s, content.StandardCap)
	assert.Equal(t, content.StandardCap, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
}
