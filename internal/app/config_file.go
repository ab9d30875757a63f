package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/postforge/internal/content"
)

// FileConfig is the single-file configuration schema. Nested sections map
// onto the dotted flag names.
type FileConfig struct {
	Source     string `yaml:"source" json:"source"`
	Input      string `yaml:"input" json:"input"`
	URL        string `yaml:"url" json:"url"`
	Video      string `yaml:"video" json:"video"`
	Transcript string `yaml:"transcript" json:"transcript"`
	Output     string `yaml:"output" json:"output"`
	OutputPDF  string `yaml:"outputPDF" json:"outputPDF"`

	Request struct {
		Type        string `yaml:"type" json:"type"`
		Count       int    `yaml:"count" json:"count"`
		Context     string `yaml:"context" json:"context"`
		Image       bool   `yaml:"image" json:"image"`
		Premium     bool   `yaml:"premium" json:"premium"`
		SkipSummary bool   `yaml:"skipSummary" json:"skipSummary"`
		SkipCleanup bool   `yaml:"skipCleanup" json:"skipCleanup"`
	} `yaml:"request" json:"request"`

	LLM struct {
		Provider        string        `yaml:"provider" json:"provider"`
		BaseURL         string        `yaml:"base" json:"base"`
		Model           string        `yaml:"model" json:"model"`
		APIKey          string        `yaml:"key" json:"key"`
		AnthropicKey    string        `yaml:"anthropicKey" json:"anthropicKey"`
		ImageModel      string        `yaml:"imageModel" json:"imageModel"`
		TranscribeModel string        `yaml:"transcribeModel" json:"transcribeModel"`
		VisionModel     string        `yaml:"visionModel" json:"visionModel"`
		Timeout         time.Duration `yaml:"timeout" json:"timeout"`
	} `yaml:"llm" json:"llm"`

	Prompts struct {
		SystemPrompt     string `yaml:"systemPrompt" json:"systemPrompt"`
		SystemPromptFile string `yaml:"systemPromptFile" json:"systemPromptFile"`
	} `yaml:"prompts" json:"prompts"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		TTL         time.Duration `yaml:"ttl" json:"ttl"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
		MaxEntries  int           `yaml:"maxEntries" json:"maxEntries"`
		Redis       struct {
			Address  string `yaml:"address" json:"address"`
			Password string `yaml:"password" json:"password"`
			DB       int    `yaml:"db" json:"db"`
		} `yaml:"redis" json:"redis"`
		PurgeSchedule string `yaml:"purgeSchedule" json:"purgeSchedule"`
	} `yaml:"cache" json:"cache"`

	Ledger struct {
		Path      string        `yaml:"path" json:"path"`
		Retention time.Duration `yaml:"retention" json:"retention"`
	} `yaml:"ledger" json:"ledger"`

	Server struct {
		Addr           string        `yaml:"addr" json:"addr"`
		RateLimitRPS   float64       `yaml:"rateLimitRPS" json:"rateLimitRPS"`
		RateLimitBurst int           `yaml:"rateLimitBurst" json:"rateLimitBurst"`
		RequestTimeout time.Duration `yaml:"requestTimeout" json:"requestTimeout"`
	} `yaml:"server" json:"server"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig. Unknown extensions try
// YAML first.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	if p := strings.TrimSpace(fc.Prompts.SystemPromptFile); p != "" {
		if !filepath.IsAbs(p) {
			p = filepath.Join(filepath.Dir(path), p)
		}
		raw, err := os.ReadFile(p)
		if err != nil {
			return fc, fmt.Errorf("system prompt file: %w", err)
		}
		fc.Prompts.SystemPrompt = string(raw)
	}
	return fc, nil
}

// ApplyFileConfig overlays values from fc onto any fields of cfg that are
// still zero.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	str := func(dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
		}
	}
	flag := func(dst *bool, v bool) {
		if !*dst && v {
			*dst = true
		}
	}
	dur := func(dst *time.Duration, v time.Duration) {
		if *dst == 0 && v > 0 {
			*dst = v
		}
	}

	str(&cfg.Source, fc.Source)
	str(&cfg.InputPath, fc.Input)
	str(&cfg.URL, fc.URL)
	str(&cfg.VideoURL, fc.Video)
	str(&cfg.Transcript, fc.Transcript)
	str(&cfg.OutputPath, fc.Output)
	str(&cfg.OutputPDF, fc.OutputPDF)

	str(&cfg.ContentType, fc.Request.Type)
	if cfg.NumUnits == 0 && fc.Request.Count > 0 {
		cfg.NumUnits = fc.Request.Count
	}
	str(&cfg.AdditionalContext, fc.Request.Context)
	flag(&cfg.GenerateImage, fc.Request.Image)
	flag(&cfg.Premium, fc.Request.Premium)
	flag(&cfg.SkipSummary, fc.Request.SkipSummary)
	flag(&cfg.SkipCleanup, fc.Request.SkipCleanup)

	str(&cfg.LLMProvider, fc.LLM.Provider)
	str(&cfg.LLMBaseURL, fc.LLM.BaseURL)
	str(&cfg.LLMModel, fc.LLM.Model)
	str(&cfg.LLMAPIKey, fc.LLM.APIKey)
	str(&cfg.AnthropicAPIKey, fc.LLM.AnthropicKey)
	str(&cfg.ImageModel, fc.LLM.ImageModel)
	str(&cfg.TranscribeModel, fc.LLM.TranscribeModel)
	str(&cfg.VisionModel, fc.LLM.VisionModel)
	dur(&cfg.LLMTimeout, fc.LLM.Timeout)
	str(&cfg.SystemPrompt, fc.Prompts.SystemPrompt)

	str(&cfg.CacheDir, fc.Cache.Dir)
	dur(&cfg.CacheTTL, fc.Cache.TTL)
	flag(&cfg.CacheClear, fc.Cache.Clear)
	flag(&cfg.CacheStrictPerms, fc.Cache.StrictPerms)
	if cfg.CacheMaxEntries == 0 && fc.Cache.MaxEntries > 0 {
		cfg.CacheMaxEntries = fc.Cache.MaxEntries
	}
	str(&cfg.RedisAddress, fc.Cache.Redis.Address)
	str(&cfg.RedisPassword, fc.Cache.Redis.Password)
	if cfg.RedisDB == 0 && fc.Cache.Redis.DB > 0 {
		cfg.RedisDB = fc.Cache.Redis.DB
	}
	str(&cfg.PurgeSchedule, fc.Cache.PurgeSchedule)

	str(&cfg.LedgerPath, fc.Ledger.Path)
	dur(&cfg.LedgerRetention, fc.Ledger.Retention)

	str(&cfg.Addr, fc.Server.Addr)
	if cfg.RateLimitRPS == 0 && fc.Server.RateLimitRPS > 0 {
		cfg.RateLimitRPS = fc.Server.RateLimitRPS
	}
	if cfg.RateLimitBurst == 0 && fc.Server.RateLimitBurst > 0 {
		cfg.RateLimitBurst = fc.Server.RateLimitBurst
	}
	dur(&cfg.RequestTimeout, fc.Server.RequestTimeout)
	flag(&cfg.Verbose, fc.Verbose)
}

// ValidateConfig reports the first missing or inconsistent setting.
// Generation parameters are checked separately by content.Request.
func ValidateConfig(cfg Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
	case ProviderOpenAI, "":
		if strings.TrimSpace(cfg.LLMAPIKey) == "" && strings.TrimSpace(cfg.LLMBaseURL) == "" {
			return errors.New("config: llm.key is required (or set LLM_API_KEY) unless llm.base points at a local server")
		}
	case ProviderAnthropic:
		if strings.TrimSpace(cfg.AnthropicAPIKey) == "" && strings.TrimSpace(cfg.LLMAPIKey) == "" {
			return errors.New("config: anthropic provider needs ANTHROPIC_API_KEY or llm.key")
		}
	default:
		return fmt.Errorf("config: unknown llm.provider %q (want openai or anthropic)", cfg.LLMProvider)
	}
	if strings.TrimSpace(cfg.LLMModel) == "" {
		return errors.New("config: llm.model is required (or set LLM_MODEL)")
	}
	if cfg.CacheTTL < 0 || cfg.LLMTimeout < 0 || cfg.RequestTimeout < 0 {
		return errors.New("config: negative durations are not allowed")
	}
	if cfg.RateLimitRPS < 0 || cfg.RateLimitBurst < 0 {
		return errors.New("config: negative rate limits are not allowed")
	}
	if cfg.CacheMaxEntries < 0 {
		return errors.New("config: cache.maxEntries must not be negative")
	}
	return nil
}

// Request builds the generation request described by cfg.
func (c Config) Request() (content.Request, error) {
	ct, err := content.ParseContentType(c.ContentType)
	if err != nil {
		return content.Request{}, err
	}
	req := content.Request{
		ContentType:       ct,
		NumUnits:          c.NumUnits,
		AdditionalContext: c.AdditionalContext,
		GenerateImage:     c.GenerateImage,
		Premium:           c.Premium,
	}
	return req, req.Validate()
}
