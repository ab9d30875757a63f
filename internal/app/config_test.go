package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/postforge/internal/cache"
	"github.com/hyperifyio/postforge/internal/content"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"LLM_PROVIDER", "LLM_BASE_URL", "LLM_MODEL", "LLM_API_KEY", "OPENAI_API_KEY",
		"ANTHROPIC_API_KEY", "IMAGE_MODEL", "TRANSCRIBE_MODEL", "CACHE_DIR", "CACHE_TTL", "REDIS_ADDRESS",
		"REDIS_PASSWORD", "REDIS_DB", "LEDGER_PATH", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "ADDR", "VERBOSE",
		"CACHE_STRICT_PERMS"} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "postforge.yaml", `
llm:
  model: file-model
  base: http://file.example/v1
  key: file-key
cache:
  dir: file-cache
  ttl: 1h
server:
  addr: ":9000"
request:
  type: thread
  count: 4
`)
	envPath := writeFile(t, dir, ".env", "LLM_MODEL=env-model\nADDR=:9100\n")

	cfg, err := Load(cfgPath, []string{envPath}, func(c *Config) { c.LLMModel = "flag-model" })
	require.NoError(t, err)

	assert.Equal(t, "flag-model", cfg.LLMModel, "flags beat env")
	assert.Equal(t, ":9100", cfg.Addr, "env beats file")
	assert.Equal(t, "http://file.example/v1", cfg.LLMBaseURL, "file beats defaults")
	assert.Equal(t, "file-cache", cfg.CacheDir)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, "thread", cfg.ContentType)
	assert.Equal(t, 4, cfg.NumUnits)
	assert.Equal(t, Defaults().ImageModel, cfg.ImageModel, "defaults fill the rest")
	assert.Equal(t, Defaults().PurgeSchedule, cfg.PurgeSchedule)
}

func TestLoad_NoFileUsesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CACHE_TTL", "30m")
	cfg, err := Load("", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.Equal(t, cache.DefaultTTL, Defaults().CacheTTL)
	assert.Equal(t, 1, cfg.NumUnits)
}

func TestLoadConfigFile_JSONAndPromptFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "system.txt", "Be brief.")
	p := writeFile(t, dir, "cfg.json", `{"llm":{"provider":"anthropic","timeout":5000000000},"prompts":{"systemPromptFile":"system.txt"}}`)

	fc, err := LoadConfigFile(p)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", fc.LLM.Provider)
	assert.Equal(t, 5*time.Second, fc.LLM.Timeout)
	assert.Equal(t, "Be brief.", fc.Prompts.SystemPrompt)

	bad := writeFile(t, dir, "bad.conf", "{unclosed: [")
	_, err = LoadConfigFile(bad)
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	ok := Defaults()
	ok.LLMAPIKey = "sk"
	require.NoError(t, ValidateConfig(ok))

	local := Defaults()
	local.LLMBaseURL = "http://localhost:11434/v1"
	assert.NoError(t, ValidateConfig(local), "local servers need no key")

	cases := map[string]func(*Config){
		"no key":       func(c *Config) {},
		"no model":     func(c *Config) { c.LLMAPIKey = "sk"; c.LLMModel = "" },
		"bad provider": func(c *Config) { c.LLMAPIKey = "sk"; c.LLMProvider = "palm" },
		"anthropic":    func(c *Config) { c.LLMProvider = ProviderAnthropic },
		"negative ttl": func(c *Config) { c.LLMAPIKey = "sk"; c.CacheTTL = -time.Second },
	}
	for name, mutate := range cases {
		cfg := Defaults()
		mutate(&cfg)
		assert.Error(t, ValidateConfig(cfg), name)
	}
}

func TestConfigRequest(t *testing.T) {
	cfg := Defaults()
	cfg.ContentType = "Threads"
	cfg.NumUnits = 3
	cfg.GenerateImage = true
	req, err := cfg.Request()
	require.NoError(t, err)
	assert.Equal(t, content.Request{ContentType: content.Thread, NumUnits: 3, GenerateImage: true}, req)

	cfg.NumUnits = 0
	_, err = cfg.Request()
	assert.True(t, content.IsKind(err, content.KindValidation))
}
