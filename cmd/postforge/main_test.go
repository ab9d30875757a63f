package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperifyio/postforge/internal/app"
	"github.com/hyperifyio/postforge/internal/content"
)

func TestExitCode(t *testing.T) {
	cases := map[error]int{
		content.ValidationFailure("n", "bad"):               exitRequest,
		content.ExtractionFailure("fetch", errors.New("x")): exitRequest,
		content.GenerationFailure("chat", errors.New("x")):  exitRequest,
		errors.New("config: llm.model is required"):         exitSetup,
	}
	for err, want := range cases {
		if got := exitCode(err); got != want {
			t.Fatalf("exitCode(%v)=%d, want %d", err, got, want)
		}
	}
}

func TestOverrides_OnlyExplicitFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	opts := registerFlags(fs)
	if err := fs.Parse([]string{"-type", "thread", "-n", "3", "-image"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg := app.Config{LLMModel: "from-env", ContentType: "short"}
	opts.overrides(fs)(&cfg)
	if cfg.ContentType != "thread" || cfg.NumUnits != 3 || !cfg.GenerateImage {
		t.Fatalf("explicit flags not applied: %+v", cfg)
	}
	if cfg.LLMModel != "from-env" {
		t.Fatalf("unset -llm.model must not override, got %q", cfg.LLMModel)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" .env, ,.env.local ")
	if len(got) != 2 || got[0] != ".env" || got[1] != ".env.local" {
		t.Fatalf("splitList=%q", got)
	}
}

// Smoke test: run writes the JSON response and a PDF against a stub model.
func TestRun_WritesOutputs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/models" {
			_ = json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{{"id": "m"}}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": "A crisp post."}}},
			"usage":   map[string]int{"prompt_tokens": 50, "completion_tokens": 10},
		})
	}))
	defer srv.Close()

	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(in, []byte("Something worth posting about."), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	cfg := app.Defaults()
	cfg.InputPath = in
	cfg.LLMBaseURL = srv.URL + "/v1"
	cfg.LLMAPIKey = "test"
	cfg.CacheDir = filepath.Join(dir, "cache")
	cfg.OutputPDF = filepath.Join(dir, "posts.pdf")

	var out bytes.Buffer
	if err := run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	var resp content.Response
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out.String())
	}
	if len(resp.Posts) != 1 || resp.Posts[0].Text != "A crisp post." {
		t.Fatalf("unexpected posts: %+v", resp.Posts)
	}
	if _, err := os.Stat(cfg.OutputPDF); err != nil {
		t.Fatalf("pdf not written: %v", err)
	}
}

func TestRun_SetupErrorWrapped(t *testing.T) {
	cfg := app.Defaults()
	cfg.LLMProvider = "unknown"
	err := run(context.Background(), cfg, &bytes.Buffer{})
	if err == nil || exitCode(err) != exitSetup {
		t.Fatalf("expected setup error, got %v", err)
	}
}
