package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/postforge/internal/cache"
	"github.com/hyperifyio/postforge/internal/content"
	"github.com/hyperifyio/postforge/internal/cost"
	"github.com/hyperifyio/postforge/internal/fetch"
	"github.com/hyperifyio/postforge/internal/ledger"
	"github.com/hyperifyio/postforge/internal/llm"
	"github.com/hyperifyio/postforge/internal/metrics"
	"github.com/hyperifyio/postforge/internal/pipeline"
	"github.com/hyperifyio/postforge/internal/server"
	"github.com/hyperifyio/postforge/internal/source"
)

// App wires configuration into a ready pipeline and its supporting stores.
type App struct {
	cfg      Config
	Pipeline *pipeline.Pipeline
	// Ledger is nil when no ledger path is configured.
	Ledger  *ledger.Ledger
	Metrics *metrics.Metrics

	provider  *llm.OpenAIProvider
	fileStore *cache.FileStore
	httpCache *cache.HTTPCache
	redis     *redis.Client
}

// Cache subdirectories under Config.CacheDir.
const (
	responsesSubdir = "responses"
	httpSubdir      = "http"
)

// New builds every collaborator from cfg. Only failures that make the
// configuration unusable are returned; a failing model preflight is logged.
func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	httpClient := newHTTPClient(cfg.LLMTimeout)
	provider := strings.ToLower(strings.TrimSpace(cfg.LLMProvider))

	openaiBase := cfg.LLMBaseURL
	if provider == ProviderAnthropic {
		openaiBase = ""
	}
	a := &App{
		cfg:      cfg,
		provider: llm.NewOpenAIProvider(openaiBase, cfg.LLMAPIKey, httpClient),
		Metrics:  metrics.New(),
	}

	var gen llm.TextGenerator
	switch provider {
	case ProviderAnthropic:
		key := cfg.AnthropicAPIKey
		if key == "" {
			key = cfg.LLMAPIKey
		}
		ag := llm.NewAnthropicGenerator(key, cfg.LLMBaseURL, cfg.LLMModel)
		ag.Timeout = cfg.LLMTimeout
		gen = ag
	default:
		gen = &llm.ChatGenerator{Client: a.provider, Model: cfg.LLMModel, Timeout: cfg.LLMTimeout}
	}

	store, err := a.openStores(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.LedgerPath != "" {
		l, err := ledger.Open(cfg.LedgerPath)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Ledger = l
	}
	observers := pipeline.Observers{a.Metrics}
	if a.Ledger != nil {
		observers = append(observers, a.Ledger)
	}

	fetcher := &fetch.Client{
		HTTPClient:        httpClient,
		UserAgent:         fetch.DefaultUserAgent,
		MaxAttempts:       3,
		PerRequestTimeout: 30 * time.Second,
		Cache:             a.httpCache,
		MaxConcurrent:     8,
	}
	deps := source.Deps{
		Fetcher:          fetcher,
		Transcriber:      &llm.WhisperTranscriber{Client: a.provider, Model: cfg.TranscribeModel, Timeout: cfg.LLMTimeout},
		Describer:        &llm.VisionDescriber{Client: a.provider, Model: cfg.VisionModel, Timeout: cfg.LLMTimeout},
		Generator:        gen,
		Model:            cfg.LLMModel,
		Costs:            cost.DefaultTable,
		Summarize:        !cfg.SkipSummary,
		CleanTranscripts: !cfg.SkipCleanup,
	}
	a.Pipeline = &pipeline.Pipeline{
		Generator:    gen,
		Images:       &llm.OpenAIImager{Client: a.provider, Model: cfg.ImageModel, Timeout: cfg.LLMTimeout},
		Prompter:     &llm.ImagePrompter{Generator: gen, Model: cfg.LLMModel},
		Cache:        &cache.Responses{Store: store, TTL: cfg.CacheTTL},
		Costs:        cost.DefaultTable,
		Model:        cfg.LLMModel,
		SystemPrompt: cfg.SystemPrompt,
		Observer:     observers,
		Sources:      pipeline.SourceFactory{Deps: deps},
	}

	if provider != ProviderAnthropic {
		a.preflight(ctx)
	}
	return a, nil
}

// openStores sets up the response store (Redis when configured, else files)
// and the on-disk HTTP cache.
func (a *App) openStores(cfg Config) (cache.Store, error) {
	if cfg.CacheDir == "" {
		return cache.NewMemoryStore(), nil
	}
	if cfg.CacheClear {
		if err := cache.ClearDir(cfg.CacheDir); err != nil {
			log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
		}
	}
	a.httpCache = &cache.HTTPCache{Dir: filepath.Join(cfg.CacheDir, httpSubdir), StrictPerms: cfg.CacheStrictPerms}
	if cfg.RedisAddress != "" {
		client, err := cache.NewRedisClient(cache.RedisConfig{Address: cfg.RedisAddress, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return nil, fmt.Errorf("response cache: %w", err)
		}
		a.redis = client
		return &cache.RedisStore{Client: client, Prefix: "postforge"}, nil
	}
	a.fileStore = &cache.FileStore{Dir: filepath.Join(cfg.CacheDir, responsesSubdir), StrictPerms: cfg.CacheStrictPerms}
	return a.fileStore, nil
}

// preflight lists models once so a misconfigured endpoint shows up at
// startup. It never fails.
func (a *App) preflight(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := a.provider.ListModels(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("LLM model list failed; continuing")
		return
	}
	if len(models.Models) == 0 {
		log.Warn().Msg("LLM returned zero models")
		return
	}
	log.Info().Int("count", len(models.Models)).Msg("LLM models available")
}

// Close releases the ledger and Redis connections.
func (a *App) Close() {
	if a.Ledger != nil {
		if err := a.Ledger.Close(); err != nil {
			log.Warn().Err(err).Msg("ledger close failed")
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// ServerOptions returns the HTTP options for this app.
func (a *App) ServerOptions() server.Options {
	opts := server.Options{
		Ops:            a.Pipeline,
		Metrics:        a.Metrics,
		Build:          Build(),
		RateRPS:        a.cfg.RateLimitRPS,
		RateBurst:      a.cfg.RateLimitBurst,
		RequestTimeout: a.cfg.RequestTimeout,
	}
	if a.Ledger != nil {
		opts.Usage = a.Ledger
	}
	return opts
}

// ErrNoInput is returned when the selected source has nothing to read.
var ErrNoInput = errors.New("no input given for the selected source")

// Run generates posts for the CLI source described by the configuration.
func (a *App) Run(ctx context.Context) (*content.Response, error) {
	req, err := a.cfg.Request()
	if err != nil {
		return nil, err
	}
	kind := content.SourceKind(strings.ToLower(strings.TrimSpace(a.cfg.Source)))
	switch kind {
	case content.SourceText:
		text, err := a.readInput()
		if err != nil {
			return nil, err
		}
		return a.Pipeline.FromText(ctx, string(text), req)
	case content.SourceAudio, content.SourceImage, content.SourceDocument:
		data, err := a.readInput()
		if err != nil {
			return nil, err
		}
		up := source.Upload{Name: filepath.Base(a.cfg.InputPath), Data: data}
		switch kind {
		case content.SourceAudio:
			return a.Pipeline.FromAudio(ctx, up, req)
		case content.SourceImage:
			return a.Pipeline.FromImage(ctx, up, req)
		default:
			return a.Pipeline.FromDocument(ctx, up, req)
		}
	case content.SourceURL:
		if a.cfg.URL == "" {
			return nil, content.ValidationFailure("url", "%v", ErrNoInput)
		}
		return a.Pipeline.FromURL(ctx, a.cfg.URL, req)
	case content.SourceVideo:
		transcript := a.cfg.Transcript
		if transcript != "" {
			raw, err := os.ReadFile(transcript)
			if err != nil {
				return nil, fmt.Errorf("read transcript: %w", err)
			}
			transcript = string(raw)
		}
		return a.Pipeline.FromVideo(ctx, a.cfg.VideoURL, transcript, req)
	}
	return nil, content.ValidationFailure("source", "unknown source %q (want text, audio, image, document, url or video)", a.cfg.Source)
}

// readInput reads InputPath, or stdin when it is "-".
func (a *App) readInput() ([]byte, error) {
	switch a.cfg.InputPath {
	case "":
		return nil, content.ValidationFailure("input", "%v", ErrNoInput)
	case "-":
		return io.ReadAll(os.Stdin)
	}
	b, err := os.ReadFile(a.cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return b, nil
}

// PurgeCaches removes expired response entries, evicts least recently used
// ones beyond CacheMaxEntries, drops HTTP cache entries older than the
// response TTL, then trims the ledger to its retention.
func (a *App) PurgeCaches(ctx context.Context, now time.Time) {
	if a.fileStore != nil {
		n, err := cache.PurgeExpired(a.fileStore.Dir, now)
		logPurge("responses", n, err)
		if a.cfg.CacheMaxEntries > 0 {
			n, err = cache.EnforceMaxEntries(a.fileStore.Dir, a.cfg.CacheMaxEntries)
			logPurge("responses-lru", n, err)
		}
	}
	if a.httpCache != nil {
		n, err := cache.PurgeHTTPCacheByAge(a.httpCache.Dir, a.cfg.CacheTTL)
		logPurge("http", n, err)
	}
	if a.Ledger != nil && a.cfg.LedgerRetention > 0 {
		n, err := a.Ledger.Purge(ctx, now.Add(-a.cfg.LedgerRetention))
		logPurge("ledger", int(n), err)
	}
}

func logPurge(what string, n int, err error) {
	if err != nil {
		log.Warn().Err(err).Str("store", what).Msg("purge failed")
		return
	}
	if n > 0 {
		log.Info().Int("removed", n).Str("store", what).Msg("purged")
	}
}
