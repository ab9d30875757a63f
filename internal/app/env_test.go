package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// LoadEnvFiles reads KEY=VALUE pairs and populates the environment.
func TestLoadEnvFiles_LoadsKeyValues(t *testing.T) {
	t.Setenv("FOO", "")
	t.Setenv("BAR", "")

	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "\n# sample dotenv file\nFOO=alpha\nBAR=\"beta\"\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	if err := LoadEnvFiles(envPath, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("FOO"); got != "alpha" {
		t.Fatalf("FOO=%q, want alpha", got)
	}
	if got := os.Getenv("BAR"); got != "beta" {
		t.Fatalf("BAR=%q, want beta", got)
	}
}

// Later files override earlier ones when loading multiple dotenv files.
func TestLoadEnvFiles_OverrideOrder(t *testing.T) {
	t.Setenv("K", "")
	dir := t.TempDir()
	a := filepath.Join(dir, ".env.a")
	b := filepath.Join(dir, ".env.b")
	if err := os.WriteFile(a, []byte("K=first\n"), 0o600); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := os.WriteFile(b, []byte("K=second\n"), 0o600); err != nil {
		t.Fatalf("write b: %v", err)
	}

	if err := LoadEnvFiles(a, b); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("K"); got != "second" {
		t.Fatalf("override order failed: got %q, want second", got)
	}
}

func TestApplyEnvToConfig_FromEnv(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-fallback")
	t.Setenv("CACHE_DIR", "/tmp/postforge-cache")
	t.Setenv("CACHE_TTL", "48h")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	t.Setenv("VERBOSE", "yes")

	cfg := Config{CacheDir: "explicit"}
	ApplyEnvToConfig(&cfg)
	if cfg.LLMAPIKey != "sk-fallback" {
		t.Fatalf("LLMAPIKey=%q, want fallback from OPENAI_API_KEY", cfg.LLMAPIKey)
	}
	if cfg.CacheDir != "explicit" {
		t.Fatalf("CacheDir=%q, explicit value must win", cfg.CacheDir)
	}
	if cfg.CacheTTL != 48*time.Hour || cfg.RedisDB != 3 || cfg.RateLimitRPS != 0.5 || !cfg.Verbose {
		t.Fatalf("typed env values not applied: %+v", cfg)
	}
}

func TestApplyEnvOverrides_BooleansBothWays(t *testing.T) {
	t.Setenv("VERBOSE", "off")
	t.Setenv("LLM_MODEL", "gpt-4o")
	cfg := Config{Verbose: true, LLMModel: "file-model"}
	ApplyEnvOverrides(&cfg)
	if cfg.Verbose {
		t.Fatalf("VERBOSE=off should clear Verbose")
	}
	if cfg.LLMModel != "gpt-4o" {
		t.Fatalf("LLMModel=%q, env should override", cfg.LLMModel)
	}

	t.Setenv("VERBOSE", "maybe")
	cfg = Config{Verbose: true}
	ApplyEnvOverrides(&cfg)
	if !cfg.Verbose {
		t.Fatalf("unparseable boolean must leave the value alone")
	}
}
