package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/postforge/internal/cache"
)

// DefaultUserAgent identifies article fetches.
const DefaultUserAgent = "postforge/1.0 (+https://github.com/hyperifyio/postforge)"

// DefaultMaxBytes caps a fetched body.
const DefaultMaxBytes = 10 << 20

var (
	// ErrTooLarge is returned when the body exceeds MaxBytes.
	ErrTooLarge = errors.New("response body too large")
	// ErrUnsupportedType is returned for content types that carry no readable text.
	ErrUnsupportedType = errors.New("unsupported content type")
)

// StatusError reports a non-success HTTP status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("unexpected status: %d", e.Code) }

// Page is a fetched document.
type Page struct {
	Body        []byte
	ContentType string
	// URL is the final URL after redirects.
	URL       string
	FromCache bool
}

// HTML reports whether the page should go through the HTML extractor.
func (p *Page) HTML() bool {
	mt := mediaType(p.ContentType)
	return mt == "text/html" || mt == "application/xhtml+xml"
}

// Client wraps http.Client with timeouts, bounded retry on transient errors
// and an optional conditional-GET cache.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each request.
	PerRequestTimeout time.Duration
	// MaxBytes caps the body size. Zero means DefaultMaxBytes.
	MaxBytes int64
	Cache    *cache.HTTPCache
	// BypassCache fetches fresh without conditional headers but still saves
	// the latest response.
	BypassCache bool
	// RedirectMaxHops caps redirect following. Zero means 5.
	RedirectMaxHops int
	// MaxConcurrent limits in-flight requests. Zero means unlimited.
	MaxConcurrent int

	limiter     chan struct{}
	limiterOnce sync.Once
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

// Get fetches rawURL. A 304 answer is served from the cache.
func (c *Client) Get(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil || !isHTTPScheme(u) || u.Host == "" {
		return nil, fmt.Errorf("unsupported URL: %q", rawURL)
	}
	var etag, lastMod string
	if c.Cache != nil && !c.BypassCache {
		if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta != nil {
			etag = meta.ETag
			lastMod = meta.LastModified
		}
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		res, err := c.tryOnce(ctx, rawURL, etag, lastMod)
		if err == nil {
			return c.finish(ctx, rawURL, res)
		}
		lastErr = err
		if !isTransient(err) || i == attempts-1 {
			break
		}
		log.Debug().Err(err).Str("url", rawURL).Int("attempt", i+1).Msg("transient fetch error; retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * 200 * time.Millisecond):
		}
	}
	return nil, lastErr
}

type result struct {
	body         []byte
	contentType  string
	etag         string
	lastModified string
	status       int
	finalURL     string
}

func (c *Client) finish(ctx context.Context, rawURL string, res result) (*Page, error) {
	if res.status == http.StatusNotModified && c.Cache != nil {
		meta, err := c.Cache.LoadMeta(ctx, rawURL)
		body, berr := c.Cache.LoadBody(ctx, rawURL)
		if err == nil && berr == nil {
			return &Page{Body: body, ContentType: meta.ContentType, URL: res.finalURL, FromCache: true}, nil
		}
		return nil, fmt.Errorf("304 without cached body: %w", errors.Join(err, berr))
	}
	if c.Cache != nil && res.status == http.StatusOK {
		if err := c.Cache.Save(ctx, rawURL, res.contentType, res.etag, res.lastModified, res.body); err != nil {
			log.Warn().Err(err).Str("url", rawURL).Msg("http cache save failed")
		}
	}
	return &Page{Body: res.body, ContentType: res.contentType, URL: res.finalURL}, nil
}

func (c *Client) tryOnce(ctx context.Context, rawURL string, etag string, lastMod string) (result, error) {
	if err := c.acquire(ctx); err != nil {
		return result{}, err
	}
	defer c.release()

	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return result{}, fmt.Errorf("new request: %w", err)
	}
	ua := c.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return result{}, err
	}
	defer resp.Body.Close()

	res := result{
		contentType:  resp.Header.Get("Content-Type"),
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
		status:       resp.StatusCode,
		finalURL:     resp.Request.URL.String(),
	}
	if resp.StatusCode == http.StatusNotModified {
		return res, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result{}, &StatusError{Code: resp.StatusCode}
	}
	if !isAllowedContentType(res.contentType) {
		return result{}, fmt.Errorf("%w: %s", ErrUnsupportedType, res.contentType)
	}
	limit := c.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return result{}, fmt.Errorf("read body: %w", err)
	}
	if int64(len(b)) > limit {
		return result{}, ErrTooLarge
	}
	res.body = b
	return res, nil
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == http.StatusTooManyRequests
	}
	return false
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func mediaType(ct string) string {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}
	return mt
}

func isAllowedContentType(ct string) bool {
	switch mediaType(ct) {
	case "text/html", "application/xhtml+xml", "text/plain", "text/markdown":
		return true
	}
	return false
}

func (c *Client) acquire(ctx context.Context) error {
	if c.MaxConcurrent <= 0 {
		return nil
	}
	c.limiterOnce.Do(func() {
		c.limiter = make(chan struct{}, c.MaxConcurrent)
	})
	select {
	case c.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) release() {
	if c.MaxConcurrent <= 0 || c.limiter == nil {
		return
	}
	select {
	case <-c.limiter:
	default:
	}
}
