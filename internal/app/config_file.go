package app

import (
    "encoding/json"
    "errors"
    "fmt"
    "net/url"
    "os"
    "path/filepath"
    "strings"
    "time"

    yaml "gopkg.in/yaml.v3"
)

// ErrInvalidConfig marks configuration errors; the CLI exits with code 2.
var ErrInvalidConfig = errors.New("invalid configuration")

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to dotted flag names and env keys.
type FileConfig struct {
    API struct {
        BaseURL string `yaml:"base" json:"base"`
    } `yaml:"api" json:"api"`

    Search struct {
        SerpAPIKey string `yaml:"serpapiKey" json:"serpapiKey"`
        SerpAPIURL string `yaml:"serpapiURL" json:"serpapiURL"`
        SearxURL   string `yaml:"searxURL" json:"searxURL"`
        SearxKey   string `yaml:"searxKey" json:"searxKey"`
        File       string `yaml:"file" json:"file"`
        GoogleURL  string `yaml:"googleURL" json:"googleURL"`
        Limit      int    `yaml:"limit" json:"limit"`
    } `yaml:"search" json:"search"`

    LLM struct {
        Provider string `yaml:"provider" json:"provider"`
        BaseURL  string `yaml:"base" json:"base"`
        Model    string `yaml:"model" json:"model"`
        APIKey   string `yaml:"key" json:"key"`
    } `yaml:"llm" json:"llm"`

    Fetch struct {
        Timeout   time.Duration `yaml:"timeout" json:"timeout"`
        RateLimit float64       `yaml:"rateLimit" json:"rateLimit"`
    } `yaml:"fetch" json:"fetch"`

    Render struct {
        Bin       string        `yaml:"bin" json:"bin"`
        RemoteURL string        `yaml:"remote" json:"remote"`
        Timeout   time.Duration `yaml:"timeout" json:"timeout"`
        Disable   bool          `yaml:"disable" json:"disable"`
    } `yaml:"render" json:"render"`

    Delay struct {
        Reference time.Duration `yaml:"reference" json:"reference"`
        Article   time.Duration `yaml:"article" json:"article"`
    } `yaml:"delay" json:"delay"`

    DryRun  bool `yaml:"dryRun" json:"dryRun"`
    Verbose bool `yaml:"verbose" json:"verbose"`

    Cache struct {
        Dir         string        `yaml:"dir" json:"dir"`
        MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
        Clear       bool          `yaml:"clear" json:"clear"`
        StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
    } `yaml:"cache" json:"cache"`

    Metrics struct {
        File string `yaml:"file" json:"file"`
    } `yaml:"metrics" json:"metrics"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
    var fc FileConfig
    b, err := os.ReadFile(path)
    if err != nil {
        return fc, err
    }
    switch ext := filepath.Ext(path); ext {
    case ".yaml", ".yml":
        if err := yaml.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse yaml: %w", err)
        }
    case ".json":
        if err := json.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse json: %w", err)
        }
    default:
        // Try YAML then JSON
        if err := yaml.Unmarshal(b, &fc); err != nil {
            if jerr := json.Unmarshal(b, &fc); jerr != nil {
                return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
            }
        }
    }
    return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are unset or still at their flag default. Flags should already have been
// parsed; explicit non-default flags win.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
    if cfg == nil { return }

    if (cfg.APIBaseURL == "" || cfg.APIBaseURL == DefaultAPIBaseURL) && fc.API.BaseURL != "" { cfg.APIBaseURL = fc.API.BaseURL }

    if cfg.SerpAPIKey == "" && fc.Search.SerpAPIKey != "" { cfg.SerpAPIKey = fc.Search.SerpAPIKey }
    if cfg.SerpAPIURL == "" && fc.Search.SerpAPIURL != "" { cfg.SerpAPIURL = fc.Search.SerpAPIURL }
    if cfg.SearxURL == "" && fc.Search.SearxURL != "" { cfg.SearxURL = fc.Search.SearxURL }
    if cfg.SearxKey == "" && fc.Search.SearxKey != "" { cfg.SearxKey = fc.Search.SearxKey }
    if cfg.FileSearchPath == "" && fc.Search.File != "" { cfg.FileSearchPath = fc.Search.File }
    if cfg.GoogleURL == "" && fc.Search.GoogleURL != "" { cfg.GoogleURL = fc.Search.GoogleURL }
    if (cfg.ReferenceLimit == 0 || cfg.ReferenceLimit == DefaultReferenceLimit) && fc.Search.Limit > 0 { cfg.ReferenceLimit = fc.Search.Limit }

    if (cfg.LLMProvider == "" || cfg.LLMProvider == "openai") && fc.LLM.Provider != "" { cfg.LLMProvider = fc.LLM.Provider }
    if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" { cfg.LLMBaseURL = fc.LLM.BaseURL }
    if cfg.LLMModel == "" && fc.LLM.Model != "" { cfg.LLMModel = fc.LLM.Model }
    if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" { cfg.LLMAPIKey = fc.LLM.APIKey }

    if (cfg.FetchTimeout == 0 || cfg.FetchTimeout == DefaultFetchTimeout) && fc.Fetch.Timeout > 0 { cfg.FetchTimeout = fc.Fetch.Timeout }
    if cfg.RateLimit == 0 && fc.Fetch.RateLimit > 0 { cfg.RateLimit = fc.Fetch.RateLimit }

    if cfg.RenderBin == "" && fc.Render.Bin != "" { cfg.RenderBin = fc.Render.Bin }
    if cfg.RenderRemoteURL == "" && fc.Render.RemoteURL != "" { cfg.RenderRemoteURL = fc.Render.RemoteURL }
    if (cfg.RenderTimeout == 0 || cfg.RenderTimeout == DefaultRenderTimeout) && fc.Render.Timeout > 0 { cfg.RenderTimeout = fc.Render.Timeout }
    if !cfg.DisableRender && fc.Render.Disable { cfg.DisableRender = true }

    if (cfg.ReferenceDelay == 0 || cfg.ReferenceDelay == DefaultReferenceDelay) && fc.Delay.Reference > 0 { cfg.ReferenceDelay = fc.Delay.Reference }
    if (cfg.ArticleDelay == 0 || cfg.ArticleDelay == DefaultArticleDelay) && fc.Delay.Article > 0 { cfg.ArticleDelay = fc.Delay.Article }

    if !cfg.DryRun && fc.DryRun { cfg.DryRun = true }
    if !cfg.Verbose && fc.Verbose { cfg.Verbose = true }

    if (cfg.CacheDir == "" || cfg.CacheDir == DefaultCacheDir) && fc.Cache.Dir != "" { cfg.CacheDir = fc.Cache.Dir }
    if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 { cfg.CacheMaxAge = fc.Cache.MaxAge }
    if !cfg.CacheClear && fc.Cache.Clear { cfg.CacheClear = true }
    if !cfg.CacheStrictPerms && fc.Cache.StrictPerms { cfg.CacheStrictPerms = true }

    if cfg.MetricsFile == "" && fc.Metrics.File != "" { cfg.MetricsFile = fc.Metrics.File }
}

// ValidateConfig performs minimal schema validation for required settings.
// For dry-run, LLM settings may be omitted.
func ValidateConfig(cfg Config) error {
    if strings.TrimSpace(cfg.APIBaseURL) == "" {
        return fmt.Errorf("%w: api base url is required (or set API_BASE_URL)", ErrInvalidConfig)
    }
    if u, err := url.Parse(cfg.APIBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
        return fmt.Errorf("%w: api base url must be an absolute http(s) url: %q", ErrInvalidConfig, cfg.APIBaseURL)
    }
    if cfg.ReferenceLimit < 1 {
        return fmt.Errorf("%w: reference limit must be at least 1", ErrInvalidConfig)
    }
    if cfg.ReferenceDelay < 0 || cfg.ArticleDelay < 0 || cfg.FetchTimeout < 0 || cfg.RenderTimeout < 0 || cfg.RateLimit < 0 {
        return fmt.Errorf("%w: negative durations and rates are not allowed", ErrInvalidConfig)
    }
    if !cfg.DryRun {
        switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
        case "", "openai", "ollama":
            if strings.TrimSpace(cfg.LLMModel) == "" {
                return fmt.Errorf("%w: llm.model is required (or set LLM_MODEL)", ErrInvalidConfig)
            }
        case "gemini":
            if strings.TrimSpace(cfg.LLMAPIKey) == "" {
                return fmt.Errorf("%w: gemini requires an api key (or set GEMINI_API_KEY)", ErrInvalidConfig)
            }
        default:
            return fmt.Errorf("%w: unknown llm provider %q", ErrInvalidConfig, cfg.LLMProvider)
        }
    }
    return nil
}
