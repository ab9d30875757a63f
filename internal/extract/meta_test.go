package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaFromHTML_OpenGraph(t *testing.T) {
	page := `<html><head>
      <title>Fallback title</title>
      <meta property="og:title" content="  Rust in the kernel ">
      <meta name="description" content="What changed in 6.1">
      <meta name="author" content="Ada Lovelace">
      <meta property="og:site_name" content="Example News">
      <meta property="article:published_time" content="2024-03-05T10:30:00+02:00">
    </head><body><p>x</p></body></html>`

	m, err := MetaFromHTML([]byte(page))
	require.NoError(t, err)
	assert.Equal(t, "Rust in the kernel", m.Title)
	assert.Equal(t, "What changed in 6.1", m.Description)
	assert.Equal(t, "Ada Lovelace", m.Author)
	assert.Equal(t, "Example News", m.SiteName)
	require.NotNil(t, m.PublishedAt)
	assert.Equal(t, time.Date(2024, 3, 5, 8, 30, 0, 0, time.UTC), *m.PublishedAt)
}

func TestMetaFromHTML_Fallbacks(t *testing.T) {
	page := `<html><head><title>Plain title</title></head>
      <body><a rel="author">Grace</a><time datetime="2023-12-01">Dec 1</time></body></html>`

	m, err := MetaFromHTML([]byte(page))
	require.NoError(t, err)
	assert.Equal(t, "Plain title", m.Title)
	assert.Equal(t, "Grace", m.Author)
	require.NotNil(t, m.PublishedAt)
	assert.Equal(t, 2023, m.PublishedAt.Year())
}

func TestMetaFromHTML_UnparseableDateIgnored(t *testing.T) {
	m, err := MetaFromHTML([]byte(`<meta property="article:published_time" content="yesterday">`))
	require.NoError(t, err)
	assert.Nil(t, m.PublishedAt)
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount("  "))
	assert.Equal(t, 4, WordCount("one two\nthree\tfour"))
}
