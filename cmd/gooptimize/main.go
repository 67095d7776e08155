package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"github.com/hyperifyio/gooptimize/internal/app"
)

// Exit codes.
const (
	exitOK     = 0
	exitFatal  = 1
	exitConfig = 2
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := app.LoadEnvFiles(".env", ".env.local"); err != nil {
		log.Error().Err(err).Msg("load env files")
		os.Exit(exitConfig)
	}

	var (
		cfg         app.Config
		configPath  string
		progress    bool
		showVersion bool
	)

	flag.StringVar(&configPath, "config", os.Getenv("GOOPTIMIZE_CONFIG"), "Path to a YAML or JSON config file")
	flag.StringVar(&cfg.APIBaseURL, "api.base", "", "Article API base URL (default "+app.DefaultAPIBaseURL+")")
	flag.StringVar(&cfg.SerpAPIKey, "serpapi.key", "", "SerpAPI key; enables the search API tier")
	flag.StringVar(&cfg.SerpAPIURL, "serpapi.url", "", "SerpAPI endpoint override")
	flag.StringVar(&cfg.SearxURL, "searx.url", "", "SearxNG base URL, used when no SerpAPI key is set")
	flag.StringVar(&cfg.SearxKey, "searx.key", "", "SearxNG API key (optional)")
	flag.StringVar(&cfg.FileSearchPath, "search.file", "", "JSON file for offline search results")
	flag.StringVar(&cfg.GoogleURL, "search.googleURL", "", "Results page URL for the scraping fallback")
	flag.IntVar(&cfg.ReferenceLimit, "search.limit", app.DefaultReferenceLimit, "References per article")
	flag.StringVar(&cfg.LLMProvider, "llm.provider", "", "LLM backend: openai, gemini or ollama")
	flag.StringVar(&cfg.LLMBaseURL, "llm.base", "", "LLM base URL")
	flag.StringVar(&cfg.LLMModel, "llm.model", "", "Model name")
	flag.StringVar(&cfg.LLMAPIKey, "llm.key", "", "LLM API key")
	flag.DurationVar(&cfg.FetchTimeout, "fetch.timeout", app.DefaultFetchTimeout, "Per-page fetch timeout")
	flag.Float64Var(&cfg.RateLimit, "fetch.rateLimit", 0, "Page fetches per second (0 disables)")
	flag.DurationVar(&cfg.RenderTimeout, "render.timeout", app.DefaultRenderTimeout, "Headless render timeout")
	flag.StringVar(&cfg.RenderBin, "render.bin", "", "Chromium binary for rendering")
	flag.StringVar(&cfg.RenderRemoteURL, "render.remote", "", "DevTools endpoint of a running browser")
	flag.BoolVar(&cfg.DisableRender, "render.disable", false, "Never render pages in a headless browser")
	flag.DurationVar(&cfg.ReferenceDelay, "delay.reference", app.DefaultReferenceDelay, "Pause between reference pages")
	flag.DurationVar(&cfg.ArticleDelay, "delay.article", app.DefaultArticleDelay, "Pause between articles")
	flag.BoolVar(&cfg.DryRun, "dry-run", false, "Resolve and extract without rewriting or publishing")
	flag.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")
	flag.StringVar(&cfg.CacheDir, "cache.dir", "", "Cache directory path (default "+app.DefaultCacheDir+")")
	flag.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge; 0 disables")
	flag.BoolVar(&cfg.CacheClear, "cache.clear", false, "Clear cache directory before run")
	flag.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	flag.StringVar(&cfg.MetricsFile, "metrics.file", "", "Write Prometheus metrics to this textfile on exit")
	flag.BoolVar(&progress, "progress", false, "Show a progress bar")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: gooptimize [flags] [article-index]\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Println(app.VersionString())
		return
	}

	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("load config")
			os.Exit(exitConfig)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvToConfig(&cfg)
	app.FillDefaults(&cfg)

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	index, err := parseIndex(flag.Args())
	if err != nil {
		log.Error().Err(err).Msg("invalid arguments")
		os.Exit(exitConfig)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, cfg, index, progress, os.Stdout))
}

// run executes the pipeline and returns the process exit code.
func run(ctx context.Context, cfg app.Config, index *int, progress bool, out io.Writer) int {
	if err := app.ValidateConfig(cfg); err != nil {
		log.Error().Err(err).Msg("configuration")
		return exitConfig
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("init app")
		return exitCode(err)
	}
	defer a.Close()

	if progress {
		bar := newProgress()
		a.SetObserver(bar.observe)
		defer bar.finish()
	}

	summary, err := a.Run(ctx, index)
	if !summary.Single && summary.Total > 0 {
		printSummary(out, summary)
	}
	if err != nil {
		log.Error().Err(err).Msg("run failed")
	}
	return exitCode(err)
}

// parseIndex reads the optional 0-based article index.
func parseIndex(args []string) (*int, error) {
	switch len(args) {
	case 0:
		return nil, nil
	case 1:
		i, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("article index %q: %w", args[0], err)
		}
		return &i, nil
	}
	return nil, fmt.Errorf("expected at most one article index, got %d arguments", len(args))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, app.ErrInvalidConfig):
		return exitConfig
	}
	return exitFatal
}

func printSummary(w io.Writer, s app.Summary) {
	fmt.Fprintln(w)
	color.New(color.Bold).Fprintf(w, "Optimization summary\n")
	fmt.Fprintf(w, "  total:     %d\n", s.Total)
	color.New(color.FgGreen).Fprintf(w, "  succeeded: %d\n", s.Succeeded)
	if s.Failed > 0 {
		color.New(color.FgRed).Fprintf(w, "  failed:    %d\n", s.Failed)
	} else {
		fmt.Fprintf(w, "  failed:    %d\n", s.Failed)
	}
	for _, r := range s.Results {
		if r.Err == nil {
			continue
		}
		fmt.Fprintf(w, "    - %s: %v\n", r.Title, r.Err)
	}
}

// runProgress advances a bar once per finished article.
type runProgress struct {
	bar *progressbar.ProgressBar
}

func newProgress() *runProgress { return &runProgress{} }

func (p *runProgress) observe(ev app.Event) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(ev.Total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(color.BlueString("optimizing")),
			progressbar.OptionSetItsString("articles"),
			progressbar.OptionShowCount(),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}
	switch ev.State {
	case app.StatePublished, app.StateSkipped, app.StatePlanned:
		_ = p.bar.Add(1)
	default:
		p.bar.Describe(color.BlueString("%s: %s", ev.State, truncate(ev.Article.Title, 40)))
	}
}

func (p *runProgress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
