// Package server is the HTTP binding of the pipeline: one JSON or multipart
// route per source kind under /api/v1/content-sources, plus usage, health
// and metrics endpoints.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hyperifyio/postforge/internal/content"
	"github.com/hyperifyio/postforge/internal/ledger"
	"github.com/hyperifyio/postforge/internal/metrics"
	"github.com/hyperifyio/postforge/internal/pipeline"
	"github.com/hyperifyio/postforge/internal/source"
)

// Operations is what the handlers call. *pipeline.Pipeline implements it.
type Operations interface {
	FromText(ctx context.Context, text string, req content.Request) (*content.Response, error)
	FromAudio(ctx context.Context, up source.Upload, req content.Request) (*content.Response, error)
	FromImage(ctx context.Context, up source.Upload, req content.Request) (*content.Response, error)
	FromDocument(ctx context.Context, up source.Upload, req content.Request) (*content.Response, error)
	FromURL(ctx context.Context, rawURL string, req content.Request) (*content.Response, error)
	FromVideo(ctx context.Context, videoURL string, transcript string, req content.Request) (*content.Response, error)
	GenerateImage(ctx context.Context, summary string, postText string) (*pipeline.ImageResult, error)
}

// Usage reports spend. *ledger.Ledger implements it.
type Usage interface {
	Summarize(ctx context.Context, since time.Time) (ledger.Summary, error)
}

var (
	_ Operations = (*pipeline.Pipeline)(nil)
	_ Usage      = (*ledger.Ledger)(nil)
)

// BuildInfo is echoed by the health endpoint.
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Options configures the router. Usage, Metrics and a zero rate disable
// their endpoints or middleware.
type Options struct {
	Ops       Operations
	Usage     Usage
	Metrics   *metrics.Metrics
	Build     BuildInfo
	RateRPS   float64
	RateBurst int
	// MaxJSONBytes caps JSON bodies; MaxUploadBytes caps multipart bodies.
	MaxJSONBytes   int64
	MaxUploadBytes int64
	// RequestTimeout bounds each generation request. Zero means none.
	RequestTimeout time.Duration
}

const (
	defaultMaxJSONBytes   = 1 << 20
	defaultMaxUploadBytes = 60 << 20
)

// New builds the gin engine with middleware in order: recovery, request ID,
// access log, metrics, rate limit.
func New(opts Options) *gin.Engine {
	if opts.MaxJSONBytes <= 0 {
		opts.MaxJSONBytes = defaultMaxJSONBytes
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.MaxMultipartMemory = 32 << 20

	r.Use(Recovery())
	r.Use(RequestID())
	r.Use(AccessLog())
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	r.NoRoute(func(c *gin.Context) {
		abortJSON(c, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		abortJSON(c, http.StatusMethodNotAllowed, codeMethod, "method not allowed")
	})

	h := &handlers{ops: opts.Ops, usage: opts.Usage, build: opts.Build, timeout: opts.RequestTimeout}
	r.GET("/healthz", h.health)

	api := r.Group("/api/v1")
	if opts.RateRPS > 0 {
		api.Use(NewRateLimiter(opts.RateRPS, opts.RateBurst).Handler())
	}
	api.GET("/usage", h.usageSummary)

	sources := api.Group("/content-sources")
	jsonLimit := limitBody(opts.MaxJSONBytes)
	uploadLimit := limitBody(opts.MaxUploadBytes)
	sources.POST("/text-to-twitter", jsonLimit, h.textToTwitter)
	sources.POST("/url-to-twitter", jsonLimit, h.urlToTwitter)
	sources.POST("/youtube-to-twitter", jsonLimit, h.youtubeToTwitter)
	sources.POST("/generate-image", jsonLimit, h.generateImage)
	sources.POST("/audio-to-twitter", uploadLimit, h.upload(Operations.FromAudio))
	sources.POST("/image-to-twitter", uploadLimit, h.upload(Operations.FromImage))
	sources.POST("/document-to-twitter", uploadLimit, h.upload(Operations.FromDocument))
	return r
}
