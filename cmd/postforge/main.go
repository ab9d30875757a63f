package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/postforge/internal/app"
	"github.com/hyperifyio/postforge/internal/content"
)

// Exit codes: 2 when the request itself failed (bad input, unreadable source,
// model failure), 1 for setup problems.
const (
	exitSetup   = 1
	exitRequest = 2
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	fs := flag.NewFlagSet("postforge", flag.ExitOnError)
	opts := registerFlags(fs)
	_ = fs.Parse(os.Args[1:])

	if opts.version {
		fmt.Printf("postforge %s (%s, %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
		return
	}

	cfg, err := app.Load(opts.configPath, splitList(opts.envFiles), opts.overrides(fs))
	if err != nil {
		log.Error().Err(err).Msg("config")
		os.Exit(exitSetup)
	}
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, os.Stdout); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(exitCode(err))
	}
}

// exitCode maps pipeline failures to exitRequest and everything else to
// exitSetup.
func exitCode(err error) int {
	switch content.KindOf(err) {
	case content.KindValidation, content.KindExtraction, content.KindGeneration:
		return exitRequest
	}
	return exitSetup
}

func run(ctx context.Context, cfg app.Config, stdout io.Writer) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	resp, err := a.Run(ctx)
	if err != nil {
		return err
	}
	if err := writeJSON(resp, cfg.OutputPath, stdout); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if cfg.OutputPDF != "" {
		if err := app.WritePostsPDF(resp, cfg.OutputPDF); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		log.Info().Str("path", cfg.OutputPDF).Msg("wrote pdf")
	}
	return nil
}

// writeJSON writes resp to path, or to stdout when path is empty or "-".
func writeJSON(resp *content.Response, path string, stdout io.Writer) error {
	b, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if path == "" || path == "-" {
		_, err = stdout.Write(b)
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

type cliOptions struct {
	configPath string
	envFiles   string
	version    bool
	v          app.Config
}

func registerFlags(fs *flag.FlagSet) *cliOptions {
	o := &cliOptions{}
	d := app.Defaults()
	c := &o.v

	fs.StringVar(&o.configPath, "config", "", "Path to YAML or JSON config file")
	fs.StringVar(&o.envFiles, "env", ".env", "Comma-separated dotenv files; later files win")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")

	fs.StringVar(&c.Source, "source", d.Source, "Source kind: text, audio, image, document, url or video")
	fs.StringVar(&c.InputPath, "input", "", "Input file for text, audio, image and document sources (- for stdin)")
	fs.StringVar(&c.URL, "url", "", "Article URL for the url source")
	fs.StringVar(&c.VideoURL, "video", "", "YouTube URL for the video source")
	fs.StringVar(&c.Transcript, "transcript", "", "SRT, WebVTT or plain-text transcript file for the video source")
	fs.StringVar(&c.OutputPath, "output", "", "Write the JSON response here instead of stdout")
	fs.StringVar(&c.OutputPDF, "output.pdf", "", "Also render the posts to this PDF file")

	fs.StringVar(&c.ContentType, "type", d.ContentType, "Content type: short, thread, quote, poll or long")
	fs.IntVar(&c.NumUnits, "n", d.NumUnits, fmt.Sprintf("Number of posts (1-%d)", content.MaxUnits))
	fs.StringVar(&c.AdditionalContext, "context", "", "Extra instructions appended to the prompt")
	fs.BoolVar(&c.GenerateImage, "image", false, "Generate an image for the first post")
	fs.BoolVar(&c.Premium, "premium", false, "Premium account; unlocks long-form posts")
	fs.BoolVar(&c.SkipSummary, "no-summary", false, "Skip document and article summaries")
	fs.BoolVar(&c.SkipCleanup, "no-cleanup", false, "Skip transcript cleanup")

	fs.StringVar(&c.LLMProvider, "llm.provider", d.LLMProvider, "Text model provider: openai or anthropic")
	fs.StringVar(&c.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL")
	fs.StringVar(&c.LLMModel, "llm.model", d.LLMModel, "Model name")
	fs.StringVar(&c.LLMAPIKey, "llm.key", "", "API key")
	fs.StringVar(&c.SystemPrompt, "llm.systemPrompt", "", "Override the generation system prompt")
	fs.DurationVar(&c.LLMTimeout, "llm.timeout", d.LLMTimeout, "Timeout per model call")

	fs.StringVar(&c.CacheDir, "cache.dir", d.CacheDir, "Cache directory")
	fs.StringVar(&c.RedisAddress, "cache.redis", "", "Redis address for the response cache (host:port)")
	fs.DurationVar(&c.CacheTTL, "cache.ttl", d.CacheTTL, "Response cache lifetime")
	fs.BoolVar(&c.CacheClear, "cache.clear", false, "Clear the cache directory before running")
	fs.BoolVar(&c.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")

	fs.StringVar(&c.LedgerPath, "ledger", "", "SQLite usage ledger path; empty disables")
	fs.BoolVar(&c.Verbose, "v", false, "Verbose logging")
	return o
}

// overrides copies only the flags the user set, so unset flags do not mask
// env or file values.
func (o *cliOptions) overrides(fs *flag.FlagSet) func(*app.Config) {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	v := o.v
	return func(c *app.Config) {
		str := func(name string, dst *string, val string) {
			if set[name] {
				*dst = val
			}
		}
		boolean := func(name string, dst *bool, val bool) {
			if set[name] {
				*dst = val
			}
		}
		dur := func(name string, dst *time.Duration, val time.Duration) {
			if set[name] {
				*dst = val
			}
		}
		str("source", &c.Source, v.Source)
		str("input", &c.InputPath, v.InputPath)
		str("url", &c.URL, v.URL)
		str("video", &c.VideoURL, v.VideoURL)
		str("transcript", &c.Transcript, v.Transcript)
		str("output", &c.OutputPath, v.OutputPath)
		str("output.pdf", &c.OutputPDF, v.OutputPDF)
		str("type", &c.ContentType, v.ContentType)
		if set["n"] {
			c.NumUnits = v.NumUnits
		}
		str("context", &c.AdditionalContext, v.AdditionalContext)
		boolean("image", &c.GenerateImage, v.GenerateImage)
		boolean("premium", &c.Premium, v.Premium)
		boolean("no-summary", &c.SkipSummary, v.SkipSummary)
		boolean("no-cleanup", &c.SkipCleanup, v.SkipCleanup)
		str("llm.provider", &c.LLMProvider, v.LLMProvider)
		str("llm.base", &c.LLMBaseURL, v.LLMBaseURL)
		str("llm.model", &c.LLMModel, v.LLMModel)
		str("llm.key", &c.LLMAPIKey, v.LLMAPIKey)
		str("llm.systemPrompt", &c.SystemPrompt, v.SystemPrompt)
		dur("llm.timeout", &c.LLMTimeout, v.LLMTimeout)
		str("cache.dir", &c.CacheDir, v.CacheDir)
		str("cache.redis", &c.RedisAddress, v.RedisAddress)
		dur("cache.ttl", &c.CacheTTL, v.CacheTTL)
		boolean("cache.clear", &c.CacheClear, v.CacheClear)
		boolean("cache.strictPerms", &c.CacheStrictPerms, v.CacheStrictPerms)
		str("ledger", &c.LedgerPath, v.LedgerPath)
		boolean("v", &c.Verbose, v.Verbose)
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
