package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hyperifyio/postforge/internal/content"
	"github.com/hyperifyio/postforge/internal/source"
)

type handlers struct {
	ops     Operations
	usage   Usage
	build   BuildInfo
	timeout time.Duration
}

// requestFields are the generation parameters shared by every route. The
// tags serve both JSON bodies and multipart forms.
type requestFields struct {
	ContentType       string `json:"content_type" form:"content_type"`
	NumTweets         int    `json:"num_tweets" form:"num_tweets"`
	AdditionalContext string `json:"additional_context" form:"additional_context"`
	GenerateImage     bool   `json:"generate_image" form:"generate_image"`
	IsPremium         bool   `json:"is_premium" form:"is_premium"`
}

func defaultFields() requestFields {
	return requestFields{ContentType: string(content.Short), NumTweets: 1}
}

func (f requestFields) request() (content.Request, error) {
	ct, err := content.ParseContentType(f.ContentType)
	if err != nil {
		return content.Request{}, err
	}
	req := content.Request{
		ContentType:       ct,
		NumUnits:          f.NumTweets,
		AdditionalContext: f.AdditionalContext,
		GenerateImage:     f.GenerateImage,
		Premium:           f.IsPremium,
	}
	return req, req.Validate()
}

type textBody struct {
	requestFields
	Text string `json:"text"`
}

type urlBody struct {
	requestFields
	URL string `json:"url"`
}

type videoBody struct {
	requestFields
	URL        string `json:"url"`
	Transcript string `json:"transcript"`
}

type imageBody struct {
	Summary   string `json:"summary"`
	TweetText string `json:"tweet_text"`
}

func (h *handlers) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout > 0 {
		return context.WithTimeout(c.Request.Context(), h.timeout)
	}
	return context.WithCancel(c.Request.Context())
}

// bindJSON decodes into dst and maps decode failures to validation errors.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			fail(c, content.ValidationFailure("body", "request body exceeds %d bytes", tooBig.Limit))
			return false
		}
		fail(c, content.ValidationFailure("body", "invalid JSON: %v", err))
		return false
	}
	return true
}

func (h *handlers) respond(c *gin.Context, resp *content.Response, err error) {
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) textToTwitter(c *gin.Context) {
	body := textBody{requestFields: defaultFields()}
	if !bindJSON(c, &body) {
		return
	}
	req, err := body.request()
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	resp, err := h.ops.FromText(ctx, body.Text, req)
	h.respond(c, resp, err)
}

func (h *handlers) urlToTwitter(c *gin.Context) {
	body := urlBody{requestFields: defaultFields()}
	if !bindJSON(c, &body) {
		return
	}
	req, err := body.request()
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	resp, err := h.ops.FromURL(ctx, body.URL, req)
	h.respond(c, resp, err)
}

func (h *handlers) youtubeToTwitter(c *gin.Context) {
	body := videoBody{requestFields: defaultFields()}
	if !bindJSON(c, &body) {
		return
	}
	req, err := body.request()
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	resp, err := h.ops.FromVideo(ctx, body.URL, body.Transcript, req)
	h.respond(c, resp, err)
}

func (h *handlers) generateImage(c *gin.Context) {
	var body imageBody
	if !bindJSON(c, &body) {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	res, err := h.ops.GenerateImage(ctx, body.Summary, body.TweetText)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type uploadOp func(Operations, context.Context, source.Upload, content.Request) (*content.Response, error)

// upload handles the multipart routes: a "file" part plus form fields.
func (h *handlers) upload(op uploadOp) gin.HandlerFunc {
	return func(c *gin.Context) {
		fields := defaultFields()
		if err := c.ShouldBind(&fields); err != nil {
			fail(c, content.ValidationFailure("form", "invalid form: %v", err))
			return
		}
		req, err := fields.request()
		if err != nil {
			fail(c, err)
			return
		}
		up, err := readUpload(c)
		if err != nil {
			fail(c, err)
			return
		}
		ctx, cancel := h.ctx(c)
		defer cancel()
		resp, err := op(h.ops, ctx, up, req)
		h.respond(c, resp, err)
	}
}

func readUpload(c *gin.Context) (source.Upload, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return source.Upload{}, content.ValidationFailure("file", "a file part is required: %v", err)
	}
	f, err := fh.Open()
	if err != nil {
		return source.Upload{}, content.ValidationFailure("file", "unreadable upload: %v", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return source.Upload{}, content.ValidationFailure("file", "unreadable upload: %v", err)
	}
	return source.Upload{Name: fh.Filename, Data: data}, nil
}

func (h *handlers) usageSummary(c *gin.Context) {
	if h.usage == nil {
		abortJSON(c, http.StatusServiceUnavailable, codeUnavailable, "usage ledger not configured")
		return
	}
	window := 24 * time.Hour
	if raw := c.Query("since"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			fail(c, content.ValidationFailure("since", "want a positive duration like 24h, got %q", raw))
			return
		}
		window = d
	}
	s, err := h.usage.Summarize(c.Request.Context(), time.Now().Add(-window))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "build": h.build})
}
