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
    if cfg == nil { return }

    setString := func(dst *string, keys ...string) {
        if *dst != "" { return }
        for _, k := range keys {
            if v := strings.TrimSpace(os.Getenv(k)); v != "" {
                *dst = v
                return
            }
        }
    }
    setString(&cfg.APIBaseURL, "API_BASE_URL")
    setString(&cfg.SerpAPIKey, "SERPAPI_KEY", "SERPAPI_API_KEY")
    setString(&cfg.SearxURL, "SEARX_URL", "SEARXNG_URL")
    setString(&cfg.SearxKey, "SEARX_KEY", "SEARXNG_KEY")
    setString(&cfg.FileSearchPath, "SEARCH_FILE")
    setString(&cfg.LLMProvider, "LLM_PROVIDER")
    setString(&cfg.LLMModel, "LLM_MODEL")
    setString(&cfg.CacheDir, "CACHE_DIR")
    setString(&cfg.RenderBin, "RENDER_BIN")
    setString(&cfg.RenderRemoteURL, "RENDER_REMOTE_URL")
    setString(&cfg.MetricsFile, "METRICS_FILE")

    // Provider-specific credentials and endpoints fill the generic slots.
    switch strings.ToLower(cfg.LLMProvider) {
    case "gemini":
        setString(&cfg.LLMAPIKey, "GEMINI_API_KEY", "LLM_API_KEY")
        setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
    case "ollama":
        setString(&cfg.LLMBaseURL, "OLLAMA_BASE_URL", "LLM_BASE_URL")
        setString(&cfg.LLMAPIKey, "LLM_API_KEY")
    default:
        setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
        setString(&cfg.LLMAPIKey, "LLM_API_KEY", "OPENAI_API_KEY")
    }

    if cfg.CacheMaxAge == 0 {
        if d, ok := envDuration("CACHE_MAX_AGE"); ok { cfg.CacheMaxAge = d }
    }
    if cfg.RateLimit == 0 {
        if s := strings.TrimSpace(os.Getenv("FETCH_RATE_LIMIT")); s != "" {
            if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 { cfg.RateLimit = f }
        }
    }

    setBool(&cfg.DryRun, "DRY_RUN")
    setBool(&cfg.Verbose, "VERBOSE")
    setBool(&cfg.DisableRender, "RENDER_DISABLE")
    setBool(&cfg.CacheClear, "CACHE_CLEAR")
    setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}

func setBool(dst *bool, key string) {
    if *dst { return }
    if v, ok := envBool(key); ok && v { *dst = true }
}

func envBool(key string) (bool, bool) {
    s := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
    switch s {
    case "1", "true", "yes", "on":
        return true, true
    case "0", "false", "no", "off":
        return false, true
    }
    return false, false
}

func envDuration(key string) (time.Duration, bool) {
    s := strings.TrimSpace(os.Getenv(key))
    if s == "" { return 0, false }
    d, err := time.ParseDuration(s)
    if err != nil || d <= 0 { return 0, false }
    return d, true
}
