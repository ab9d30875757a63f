package app

import (
	"fmt"
	"time"

	"github.com/hyperifyio/postforge/internal/cache"
)

// Config holds runtime configuration for the CLI and the server.
type Config struct {
	// CLI input/output
	Source     string
	InputPath  string
	URL        string
	VideoURL   string
	Transcript string
	OutputPath string
	OutputPDF  string

	// Request shape
	ContentType       string
	NumUnits          int
	AdditionalContext string
	GenerateImage     bool
	Premium           bool

	// LLM
	LLMProvider     string
	LLMBaseURL      string
	LLMModel        string
	LLMAPIKey       string
	AnthropicAPIKey string
	ImageModel      string
	TranscribeModel string
	VisionModel     string
	SystemPrompt    string
	LLMTimeout      time.Duration

	// Extraction behavior. Summaries and transcript cleanup run unless
	// skipped.
	SkipSummary bool
	SkipCleanup bool

	// Caches
	CacheDir         string
	CacheTTL         time.Duration
	CacheClear       bool
	CacheStrictPerms bool
	CacheMaxEntries  int
	RedisAddress     string
	RedisPassword    string
	RedisDB          int

	// Ledger and server
	LedgerPath      string
	LedgerRetention time.Duration
	Addr            string
	RateLimitRPS    float64
	RateLimitBurst  int
	RequestTimeout  time.Duration
	PurgeSchedule   string

	Verbose bool
}

// Provider names accepted by LLMProvider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Defaults returns the configuration used when nothing else sets a value.
func Defaults() Config {
	return Config{
		Source:          "text",
		ContentType:     "short",
		NumUnits:        1,
		LLMProvider:     ProviderOpenAI,
		LLMModel:        "gpt-4o-mini",
		ImageModel:      "dall-e-3",
		TranscribeModel: "whisper-1",
		VisionModel:     "gpt-4o",
		LLMTimeout:      2 * time.Minute,
		CacheDir:        ".postforge-cache",
		CacheTTL:        cache.DefaultTTL,
		LedgerRetention: 90 * 24 * time.Hour,
		Addr:            ":8080",
		RateLimitRPS:    2,
		RateLimitBurst:  10,
		RequestTimeout:  5 * time.Minute,
		PurgeSchedule:   "@hourly",
	}
}

// fillDefaults sets every zero field that has a default.
func (c *Config) fillDefaults() {
	d := Defaults()
	setString := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	setString(&c.Source, d.Source)
	setString(&c.ContentType, d.ContentType)
	setString(&c.LLMProvider, d.LLMProvider)
	setString(&c.LLMModel, d.LLMModel)
	setString(&c.ImageModel, d.ImageModel)
	setString(&c.TranscribeModel, d.TranscribeModel)
	setString(&c.VisionModel, d.VisionModel)
	setString(&c.CacheDir, d.CacheDir)
	setString(&c.Addr, d.Addr)
	setString(&c.PurgeSchedule, d.PurgeSchedule)
	if c.NumUnits == 0 {
		c.NumUnits = d.NumUnits
	}
	if c.LLMTimeout == 0 {
		c.LLMTimeout = d.LLMTimeout
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = d.CacheTTL
	}
	if c.LedgerRetention == 0 {
		c.LedgerRetention = d.LedgerRetention
	}
	if c.RateLimitRPS == 0 {
		c.RateLimitRPS = d.RateLimitRPS
	}
	if c.RateLimitBurst == 0 {
		c.RateLimitBurst = d.RateLimitBurst
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = d.RequestTimeout
	}
}

// Load layers configuration: defaults, then the optional config file, then
// the environment (after loading envFiles), then overrides, which callers
// use for explicitly set flags.
func Load(configPath string, envFiles []string, overrides func(*Config)) (Config, error) {
	if err := LoadEnvFiles(envFiles...); err != nil {
		return Config{}, fmt.Errorf("load env files: %w", err)
	}
	var cfg Config
	if configPath != "" {
		fc, err := LoadConfigFile(configPath)
		if err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", configPath, err)
		}
		ApplyFileConfig(&cfg, fc)
		ApplyEnvOverrides(&cfg)
	} else {
		ApplyEnvToConfig(&cfg)
	}
	if overrides != nil {
		overrides(&cfg)
	}
	cfg.fillDefaults()
	return cfg, nil
}
