package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Article collaborator
	APIBaseURL string

	// Search
	SerpAPIKey     string
	SerpAPIURL     string
	SearxURL       string
	SearxKey       string
	FileSearchPath string
	GoogleURL      string
	ReferenceLimit int

	// LLM
	LLMProvider string
	LLMBaseURL  string
	LLMModel    string
	LLMAPIKey   string

	// Extraction
	FetchTimeout    time.Duration
	RenderTimeout   time.Duration
	RenderBin       string
	RenderRemoteURL string
	DisableRender   bool
	RateLimit       float64

	// Courtesy delays
	ReferenceDelay time.Duration
	ArticleDelay   time.Duration

	// Behavior
	DryRun           bool
	Verbose          bool
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool
	MetricsFile      string
}

// Defaults shared by flag definitions and the config-file overlay.
const (
	DefaultAPIBaseURL     = "http://localhost:5000/api/articles"
	DefaultReferenceLimit = 2
	DefaultFetchTimeout   = 10 * time.Second
	DefaultRenderTimeout  = 10 * time.Second
	DefaultReferenceDelay = 2 * time.Second
	DefaultArticleDelay   = 5 * time.Second
	DefaultCacheDir       = ".gooptimize-cache"
)

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	return Config{
		APIBaseURL:     DefaultAPIBaseURL,
		ReferenceLimit: DefaultReferenceLimit,
		LLMProvider:    "openai",
		FetchTimeout:   DefaultFetchTimeout,
		RenderTimeout:  DefaultRenderTimeout,
		ReferenceDelay: DefaultReferenceDelay,
		ArticleDelay:   DefaultArticleDelay,
	}
}

// FillDefaults sets the defaults that flags leave empty so that the config
// file and environment get a chance to provide them first.
func FillDefaults(cfg *Config) {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "openai"
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = DefaultCacheDir
	}
}
