package app

import (
    "os"
    "strconv"
    "strings"
)

// Environment variables read by ApplyEnvToConfig.
const (
    EnvBaseURL     = "GOCATALOG_BASE_URL"
    EnvCacheDir    = "GOCATALOG_CACHE_DIR"
    EnvUserAgent   = "GOCATALOG_USER_AGENT"
    EnvConcurrency = "GOCATALOG_CONCURRENCY"
    EnvRate        = "GOCATALOG_RATE"
    EnvRender      = "GOCATALOG_RENDER"
    EnvChromePath  = "GOCATALOG_CHROME_PATH"
    EnvVerbose     = "GOCATALOG_VERBOSE"
)

const envPrefix = "GOCATALOG_"

var envKeys = []string{
    EnvBaseURL, EnvCacheDir, EnvUserAgent, EnvConcurrency,
    EnvRate, EnvRender, EnvChromePath, EnvVerbose,
}

// ApplyEnvToConfig populates unset or defaulted fields of cfg from the
// environment. Values already set explicitly take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
    if cfg == nil { return }

    if cfg.BaseURL == "" { cfg.BaseURL = os.Getenv(EnvBaseURL) }
    if cfg.UserAgent == "" { cfg.UserAgent = os.Getenv(EnvUserAgent) }
    if cfg.ChromePath == "" { cfg.ChromePath = os.Getenv(EnvChromePath) }
    if cfg.CacheDir == "" || cfg.CacheDir == DefaultCacheDir {
        if v := os.Getenv(EnvCacheDir); v != "" { cfg.CacheDir = v }
    }

    if cfg.Concurrency == 0 || cfg.Concurrency == DefaultConcurrency {
        if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(EnvConcurrency))); err == nil && n > 0 {
            cfg.Concurrency = n
        }
    }
    if cfg.Rate == 0 {
        if f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(EnvRate)), 64); err == nil && f > 0 {
            cfg.Rate = f
        }
    }

    setBool := func(dst *bool, envKey string) {
        if *dst { return }
        switch strings.ToLower(strings.TrimSpace(os.Getenv(envKey))) {
        case "1", "true", "yes", "on":
            *dst = true
        }
    }
    setBool(&cfg.Render, EnvRender)
    setBool(&cfg.Verbose, EnvVerbose)
}
