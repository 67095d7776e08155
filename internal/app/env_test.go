package app

import (
    "os"
    "path/filepath"
    "testing"
)

// LoadEnvFiles reads KEY=VALUE pairs, including export prefixes, quotes and
// trailing comments, into the process environment.
func TestLoadEnvFiles_LoadsKeyValues(t *testing.T) {
    unsetForTest(t, "FOO", "BAR", "BAZ")

    dir := t.TempDir()
    envPath := filepath.Join(dir, ".env.test")
    content := "\n# sample dotenv file\nFOO=alpha\nexport BAR=\"beta # not a comment\"\nBAZ=gamma # comment\n"
    if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
        t.Fatalf("write dotenv: %v", err)
    }

    if err := LoadEnvFiles(envPath); err != nil {
        t.Fatalf("LoadEnvFiles error: %v", err)
    }

    if got := os.Getenv("FOO"); got != "alpha" {
        t.Fatalf("FOO=%q, want alpha", got)
    }
    if got := os.Getenv("BAR"); got != "beta # not a comment" {
        t.Fatalf("BAR=%q", got)
    }
    if got := os.Getenv("BAZ"); got != "gamma" {
        t.Fatalf("BAZ=%q, want gamma", got)
    }
}

// The process environment and earlier files win over later files.
func TestLoadEnvFiles_Precedence(t *testing.T) {
    unsetForTest(t, "K")
    t.Setenv("PRESET", "shell")
    dir := t.TempDir()
    a := filepath.Join(dir, ".env.a")
    b := filepath.Join(dir, ".env.b")
    if err := os.WriteFile(a, []byte("K=first\nPRESET=file\n"), 0o600); err != nil { t.Fatalf("write a: %v", err) }
    if err := os.WriteFile(b, []byte("K=second\n"), 0o600); err != nil { t.Fatalf("write b: %v", err) }

    if err := LoadEnvFiles(a, filepath.Join(dir, "missing.env"), b); err != nil {
        t.Fatalf("LoadEnvFiles error: %v", err)
    }
    if got := os.Getenv("K"); got != "first" {
        t.Fatalf("precedence failed: got %q, want first", got)
    }
    if got := os.Getenv("PRESET"); got != "shell" {
        t.Fatalf("shell env overwritten: %q", got)
    }
}

func TestLoadEnvFiles_MalformedLine(t *testing.T) {
    p := filepath.Join(t.TempDir(), ".env")
    if err := os.WriteFile(p, []byte("JUSTAWORD\n"), 0o600); err != nil { t.Fatalf("write: %v", err) }
    if err := LoadEnvFiles(p); err == nil {
        t.Fatalf("expected error for malformed line")
    }
}

func TestApplyEnvToConfig_FromEnv(t *testing.T) {
    t.Setenv("API_BASE_URL", "http://articles.example/api/articles")
    t.Setenv("SERPAPI_KEY", "serp")
    t.Setenv("SEARX_URL", "")
    t.Setenv("SEARXNG_URL", "http://searxng.example")
    t.Setenv("LLM_PROVIDER", "gemini")
    t.Setenv("GEMINI_API_KEY", "g-key")
    t.Setenv("LLM_API_KEY", "generic")
    t.Setenv("CACHE_MAX_AGE", "48h")
    t.Setenv("DRY_RUN", "yes")

    var cfg Config
    ApplyEnvToConfig(&cfg)
    if cfg.APIBaseURL != "http://articles.example/api/articles" || cfg.SerpAPIKey != "serp" {
        t.Fatalf("unexpected cfg: %+v", cfg)
    }
    if cfg.SearxURL != "http://searxng.example" {
        t.Fatalf("SearxURL=%q, want fallback from SEARXNG_URL", cfg.SearxURL)
    }
    if cfg.LLMAPIKey != "g-key" {
        t.Fatalf("LLMAPIKey=%q, want GEMINI_API_KEY for gemini", cfg.LLMAPIKey)
    }
    if cfg.CacheMaxAge.Hours() != 48 || !cfg.DryRun {
        t.Fatalf("durations/bools not applied: %+v", cfg)
    }
}

func TestApplyEnvToConfig_ExplicitWins(t *testing.T) {
    t.Setenv("LLM_MODEL", "from-env")
    t.Setenv("LLM_PROVIDER", "ollama")
    t.Setenv("OLLAMA_BASE_URL", "http://127.0.0.1:11434")
    cfg := Config{LLMModel: "from-flag"}
    ApplyEnvToConfig(&cfg)
    if cfg.LLMModel != "from-flag" {
        t.Fatalf("explicit value overwritten: %q", cfg.LLMModel)
    }
    if cfg.LLMBaseURL != "http://127.0.0.1:11434" {
        t.Fatalf("ollama base url not applied: %q", cfg.LLMBaseURL)
    }
}

func unsetForTest(t *testing.T, keys ...string) {
    t.Helper()
    for _, k := range keys {
        t.Setenv(k, "")
        _ = os.Unsetenv(k)
    }
}
