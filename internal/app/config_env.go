package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	setString := func(dst *string, keys ...string) {
		if *dst != "" {
			return
		}
		*dst = firstEnv(keys...)
	}
	setString(&cfg.LLMProvider, "LLM_PROVIDER")
	setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
	setString(&cfg.LLMModel, "LLM_MODEL")
	setString(&cfg.LLMAPIKey, "LLM_API_KEY", "OPENAI_API_KEY")
	setString(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setString(&cfg.ImageModel, "IMAGE_MODEL")
	setString(&cfg.TranscribeModel, "TRANSCRIBE_MODEL")
	setString(&cfg.CacheDir, "CACHE_DIR")
	setString(&cfg.RedisAddress, "REDIS_ADDRESS")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")
	setString(&cfg.LedgerPath, "LEDGER_PATH")
	setString(&cfg.Addr, "ADDR")

	if cfg.CacheTTL == 0 {
		if d, ok := envDuration("CACHE_TTL"); ok {
			cfg.CacheTTL = d
		}
	}
	if cfg.RedisDB == 0 {
		if n, ok := envInt("REDIS_DB"); ok {
			cfg.RedisDB = n
		}
	}
	if cfg.RateLimitRPS == 0 {
		if f, ok := envFloat("RATE_LIMIT_RPS"); ok {
			cfg.RateLimitRPS = f
		}
	}
	if cfg.RateLimitBurst == 0 {
		if n, ok := envInt("RATE_LIMIT_BURST"); ok {
			cfg.RateLimitBurst = n
		}
	}
	if !cfg.Verbose {
		if b, ok := envBool("VERBOSE"); ok {
			cfg.Verbose = b
		}
	}
	if !cfg.CacheStrictPerms {
		if b, ok := envBool("CACHE_STRICT_PERMS"); ok {
			cfg.CacheStrictPerms = b
		}
	}
	if cfg.CacheMaxEntries == 0 {
		if n, ok := envInt("CACHE_MAX_ENTRIES"); ok {
			cfg.CacheMaxEntries = n
		}
	}
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when they are set. Used so env beats a config file while flags, applied
// afterwards, still win.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	override := func(dst *string, keys ...string) {
		if v := firstEnv(keys...); v != "" {
			*dst = v
		}
	}
	override(&cfg.LLMProvider, "LLM_PROVIDER")
	override(&cfg.LLMBaseURL, "LLM_BASE_URL")
	override(&cfg.LLMModel, "LLM_MODEL")
	override(&cfg.LLMAPIKey, "LLM_API_KEY", "OPENAI_API_KEY")
	override(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	override(&cfg.ImageModel, "IMAGE_MODEL")
	override(&cfg.TranscribeModel, "TRANSCRIBE_MODEL")
	override(&cfg.CacheDir, "CACHE_DIR")
	override(&cfg.RedisAddress, "REDIS_ADDRESS")
	override(&cfg.RedisPassword, "REDIS_PASSWORD")
	override(&cfg.LedgerPath, "LEDGER_PATH")
	override(&cfg.Addr, "ADDR")

	if d, ok := envDuration("CACHE_TTL"); ok {
		cfg.CacheTTL = d
	}
	if n, ok := envInt("REDIS_DB"); ok {
		cfg.RedisDB = n
	}
	if f, ok := envFloat("RATE_LIMIT_RPS"); ok {
		cfg.RateLimitRPS = f
	}
	if n, ok := envInt("RATE_LIMIT_BURST"); ok {
		cfg.RateLimitBurst = n
	}
	if b, ok := envBool("VERBOSE"); ok {
		cfg.Verbose = b
	}
	if b, ok := envBool("CACHE_STRICT_PERMS"); ok {
		cfg.CacheStrictPerms = b
	}
	if n, ok := envInt("CACHE_MAX_ENTRIES"); ok {
		cfg.CacheMaxEntries = n
	}
}

// firstEnv returns the first non-empty value among keys. Earlier keys win.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func envDuration(key string) (time.Duration, bool) {
	s := firstEnv(key)
	if s == "" {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	return d, err == nil
}

func envInt(key string) (int, bool) {
	s := firstEnv(key)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func envFloat(key string) (float64, bool) {
	s := firstEnv(key)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// envBool understands 1/true/yes/on and 0/false/no/off.
func envBool(key string) (bool, bool) {
	switch strings.ToLower(firstEnv(key)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}
