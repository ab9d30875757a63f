package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/postforge/internal/content"
	"github.com/hyperifyio/postforge/internal/cost"
	"github.com/hyperifyio/postforge/internal/ledger"
	"github.com/hyperifyio/postforge/internal/metrics"
	"github.com/hyperifyio/postforge/internal/pipeline"
	"github.com/hyperifyio/postforge/internal/source"
)

func init() { gin.SetMode(gin.TestMode) }

type call struct {
	op     string
	arg    string
	upload source.Upload
	req    content.Request
}

type fakeOps struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (f *fakeOps) record(op, arg string, up source.Upload, req content.Request) (*content.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{op: op, arg: arg, upload: up, req: req})
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &content.Response{
		Posts:  []content.Post{{Text: "generated from " + op}},
		Cost:   cost.Total(cost.DefaultTable.GPT(10, 5)),
		Source: content.SourceMetadata{Identifier: arg},
	}, nil
}

func (f *fakeOps) FromText(_ context.Context, text string, req content.Request) (*content.Response, error) {
	return f.record("text", text, source.Upload{}, req)
}
func (f *fakeOps) FromAudio(_ context.Context, up source.Upload, req content.Request) (*content.Response, error) {
	return f.record("audio", up.Name, up, req)
}
func (f *fakeOps) FromImage(_ context.Context, up source.Upload, req content.Request) (*content.Response, error) {
	return f.record("image", up.Name, up, req)
}
func (f *fakeOps) FromDocument(_ context.Context, up source.Upload, req content.Request) (*content.Response, error) {
	return f.record("document", up.Name, up, req)
}
func (f *fakeOps) FromURL(_ context.Context, rawURL string, req content.Request) (*content.Response, error) {
	return f.record("url", rawURL, source.Upload{}, req)
}
func (f *fakeOps) FromVideo(_ context.Context, videoURL string, transcript string, req content.Request) (*content.Response, error) {
	return f.record("video", videoURL+"|"+transcript, source.Upload{}, req)
}
func (f *fakeOps) GenerateImage(_ context.Context, summary string, postText string) (*pipeline.ImageResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &pipeline.ImageResult{URL: "https://img.example/1.png", Prompt: summary + postText}, nil
}

func (f *fakeOps) last(t *testing.T) call {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

type fakeUsage struct{ since time.Time }

func (u *fakeUsage) Summarize(_ context.Context, since time.Time) (ledger.Summary, error) {
	u.since = since
	return ledger.Summary{Since: since, Requests: 3, TotalCost: 0.12}, nil
}

func postJSON(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postForm(t *testing.T, r http.Handler, path string, fields map[string]string, fileName string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Error
}

func TestTextToTwitter(t *testing.T) {
	ops := &fakeOps{}
	r := New(Options{Ops: ops})

	w := postJSON(t, r, "/api/v1/content-sources/text-to-twitter", map[string]any{
		"text": "Go 1.24 ships", "content_type": "thread", "num_tweets": 3, "generate_image": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	c := ops.last(t)
	assert.Equal(t, "Go 1.24 ships", c.arg)
	assert.Equal(t, content.Request{ContentType: content.Thread, NumUnits: 3, GenerateImage: true}, c.req)

	var resp content.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Posts, 1)
	assert.Equal(t, "generated from text", resp.Posts[0].Text)
}

func TestDefaultsApply(t *testing.T) {
	ops := &fakeOps{}
	r := New(Options{Ops: ops})
	w := postJSON(t, r, "/api/v1/content-sources/url-to-twitter", map[string]any{"url": "https://example.com/a"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, content.Request{ContentType: content.Short, NumUnits: 1}, ops.last(t).req)
}

func TestYoutubeToTwitter(t *testing.T) {
	ops := &fakeOps{}
	r := New(Options{Ops: ops})
	w := postJSON(t, r, "/api/v1/content-sources/youtube-to-twitter", map[string]any{
		"url": "https://youtu.be/dQw4w9WgXcQ", "transcript": "hello", "content_type": "long", "is_premium": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	c := ops.last(t)
	assert.Equal(t, "https://youtu.be/dQw4w9WgXcQ|hello", c.arg)
	assert.True(t, c.req.PremiumLong())
}

func TestValidationRejectedBeforeOperation(t *testing.T) {
	ops := &fakeOps{}
	r := New(Options{Ops: ops})

	cases := map[string]map[string]any{
		"zero units":   {"text": "x", "num_tweets": 0},
		"too many":     {"text": "x", "num_tweets": content.MaxUnits + 1},
		"unknown type": {"text": "x", "content_type": "essay"},
		"wrong type":   {"text": "x", "num_tweets": "three"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := postJSON(t, r, "/api/v1/content-sources/text-to-twitter", body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, codeValidation, decodeError(t, w).Code)
		})
	}
	assert.Empty(t, ops.calls)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{content.ValidationFailure("text", "empty"), http.StatusBadRequest, codeValidation},
		{content.ExtractionFailure("fetch", errors.New("404")), http.StatusUnprocessableEntity, codeExtraction},
		{content.GenerationFailure("chat", errors.New("upstream down")), http.StatusBadGateway, codeGeneration},
		{content.GenerationFailure("chat", fmt.Errorf("call: %w", context.DeadlineExceeded)), http.StatusGatewayTimeout, codeTimeout},
		{errors.New("boom"), http.StatusInternalServerError, codeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			r := New(Options{Ops: &fakeOps{err: tc.err}})
			w := postJSON(t, r, "/api/v1/content-sources/text-to-twitter", map[string]any{"text": "x"})
			require.Equal(t, tc.status, w.Code)
			detail := decodeError(t, w)
			assert.Equal(t, tc.code, detail.Code)
			assert.NotEmpty(t, detail.RequestID)
			if tc.code == codeInternal {
				assert.Equal(t, "internal server error", detail.Message)
			}
		})
	}
}

func TestUploadRoutes(t *testing.T) {
	ops := &fakeOps{}
	r := New(Options{Ops: ops})
	for _, route := range []string{"audio", "image", "document"} {
		t.Run(route, func(t *testing.T) {
			w := postForm(t, r, "/api/v1/content-sources/"+route+"-to-twitter",
				map[string]string{"content_type": "quote", "num_tweets": "2", "generate_image": "true"},
				"input.bin", []byte("payload"))
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			c := ops.last(t)
			assert.Equal(t, route, c.op)
			assert.Equal(t, "input.bin", c.upload.Name)
			assert.Equal(t, []byte("payload"), c.upload.Data)
			assert.Equal(t, content.Request{ContentType: content.Quote, NumUnits: 2, GenerateImage: true}, c.req)
		})
	}
}

func TestUploadRequiresFile(t *testing.T) {
	r := New(Options{Ops: &fakeOps{}})
	w := postForm(t, r, "/api/v1/content-sources/audio-to-twitter", map[string]string{"num_tweets": "1"}, "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, codeValidation, decodeError(t, w).Code)
}

func TestUploadTooLarge(t *testing.T) {
	r := New(Options{Ops: &fakeOps{}, MaxUploadBytes: 1024})
	w := postForm(t, r, "/api/v1/content-sources/document-to-twitter", nil, "big.txt", bytes.Repeat([]byte("a"), 4096))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateImage(t *testing.T) {
	r := New(Options{Ops: &fakeOps{}})
	w := postJSON(t, r, "/api/v1/content-sources/generate-image", map[string]string{"summary": "s", "tweet_text": "t"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res pipeline.ImageResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "https://img.example/1.png", res.URL)

	failing := New(Options{Ops: &fakeOps{err: content.ImageGenerationFailure("image", errors.New("quota"))}})
	w = postJSON(t, failing, "/api/v1/content-sources/generate-image", map[string]string{"summary": "s"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, codeImageGeneration, decodeError(t, w).Code)
}

func TestUsage(t *testing.T) {
	u := &fakeUsage{}
	r := New(Options{Ops: &fakeOps{}, Usage: u})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/usage?since=2h", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.WithinDuration(t, time.Now().Add(-2*time.Hour), u.since, time.Minute)
	assert.Contains(t, w.Body.String(), `"requests":3`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/usage?since=soon", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	New(Options{Ops: &fakeOps{}}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthAndFallbacks(t *testing.T) {
	r := New(Options{Ops: &fakeOps{}, Build: BuildInfo{Version: "1.2.3"}, Metrics: metrics.New()})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"1.2.3"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, codeNotFound, decodeError(t, w).Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/content-sources/text-to-twitter", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `path="/healthz"`))
}

func TestRequestIDPropagates(t *testing.T) {
	r := New(Options{Ops: &fakeOps{}})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestRateLimit(t *testing.T) {
	r := New(Options{Ops: &fakeOps{}, RateRPS: 0.001, RateBurst: 2})
	var codes []int
	for i := 0; i < 3; i++ {
		w := postJSON(t, r, "/api/v1/content-sources/text-to-twitter", map[string]any{"text": "x"})
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestRecoveryReturnsJSON(t *testing.T) {
	r := New(Options{Ops: panickingOps{&fakeOps{}}})
	w := postJSON(t, r, "/api/v1/content-sources/text-to-twitter", map[string]any{"text": "x"})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, codeInternal, decodeError(t, w).Code)
}

type panickingOps struct{ *fakeOps }

func (panickingOps) FromText(context.Context, string, content.Request) (*content.Response, error) {
	panic("kaboom")
}
