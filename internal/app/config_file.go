package app

import (
    "encoding/json"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
    Input struct {
        File string   `yaml:"file" json:"file"`
        Dir  string   `yaml:"dir" json:"dir"`
        URLs []string `yaml:"urls" json:"urls"`
    } `yaml:"input" json:"input"`

    Base string `yaml:"base" json:"base"`

    Output struct {
        JSON        string `yaml:"json" json:"json"`
        PDF         string `yaml:"pdf" json:"pdf"`
        SQLite      string `yaml:"sqlite" json:"sqlite"`
        SnapshotDir string `yaml:"snapshotDir" json:"snapshotDir"`
    } `yaml:"output" json:"output"`

    Fetch struct {
        UserAgent   string        `yaml:"userAgent" json:"userAgent"`
        Render      bool          `yaml:"render" json:"render"`
        ChromePath  string        `yaml:"chromePath" json:"chromePath"`
        Concurrency int           `yaml:"concurrency" json:"concurrency"`
        Rate        float64       `yaml:"rate" json:"rate"`
        Timeout     time.Duration `yaml:"timeout" json:"timeout"`
        Robots      bool          `yaml:"robots" json:"robots"`
    } `yaml:"fetch" json:"fetch"`

    Cache struct {
        Dir         string        `yaml:"dir" json:"dir"`
        MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
        Clear       bool          `yaml:"clear" json:"clear"`
        StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
    } `yaml:"cache" json:"cache"`

    Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
    var fc FileConfig
    b, err := os.ReadFile(path)
    if err != nil {
        return fc, fmt.Errorf("%w: %v", ErrConfig, err)
    }
    switch ext := filepath.Ext(path); ext {
    case ".yaml", ".yml":
        if err := yaml.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("%w: parse yaml: %v", ErrConfig, err)
        }
    case ".json":
        if err := json.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("%w: parse json: %v", ErrConfig, err)
        }
    default:
        if err := yaml.Unmarshal(b, &fc); err != nil {
            if jerr := json.Unmarshal(b, &fc); jerr != nil {
                return fc, fmt.Errorf("%w: parse config: %v (yaml) / %v (json)", ErrConfig, err, jerr)
            }
        }
    }
    return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are still unset or at their flag default. Inputs are taken from the file
// only when no input was given at all, so a -url flag never mixes with a
// file-configured directory.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
    if cfg == nil { return }

    if !hasInput(*cfg) {
        cfg.InputFile = fc.Input.File
        cfg.InputDir = fc.Input.Dir
        cfg.URLs = cleanList(fc.Input.URLs)
    }
    if cfg.BaseURL == "" && fc.Base != "" { cfg.BaseURL = fc.Base }

    if (cfg.OutputPath == "" || cfg.OutputPath == DefaultOutputPath) && fc.Output.JSON != "" { cfg.OutputPath = fc.Output.JSON }
    if cfg.PDFPath == "" && fc.Output.PDF != "" { cfg.PDFPath = fc.Output.PDF }
    if cfg.SQLitePath == "" && fc.Output.SQLite != "" { cfg.SQLitePath = fc.Output.SQLite }
    if cfg.SnapshotDir == "" && fc.Output.SnapshotDir != "" { cfg.SnapshotDir = fc.Output.SnapshotDir }

    if cfg.UserAgent == "" && fc.Fetch.UserAgent != "" { cfg.UserAgent = fc.Fetch.UserAgent }
    if !cfg.Render && fc.Fetch.Render { cfg.Render = true }
    if cfg.ChromePath == "" && fc.Fetch.ChromePath != "" { cfg.ChromePath = fc.Fetch.ChromePath }
    if (cfg.Concurrency == 0 || cfg.Concurrency == DefaultConcurrency) && fc.Fetch.Concurrency > 0 { cfg.Concurrency = fc.Fetch.Concurrency }
    if cfg.Rate == 0 && fc.Fetch.Rate > 0 { cfg.Rate = fc.Fetch.Rate }
    if (cfg.Timeout == 0 || cfg.Timeout == DefaultTimeout) && fc.Fetch.Timeout > 0 { cfg.Timeout = fc.Fetch.Timeout }
    if !cfg.RespectRobots && fc.Fetch.Robots { cfg.RespectRobots = true }

    if (cfg.CacheDir == "" || cfg.CacheDir == DefaultCacheDir) && fc.Cache.Dir != "" { cfg.CacheDir = fc.Cache.Dir }
    if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 { cfg.CacheMaxAge = fc.Cache.MaxAge }
    if !cfg.CacheClear && fc.Cache.Clear { cfg.CacheClear = true }
    if !cfg.CacheStrictPerms && fc.Cache.StrictPerms { cfg.CacheStrictPerms = true }

    if !cfg.Verbose && fc.Verbose { cfg.Verbose = true }
}

// ValidateConfig checks required settings. Errors wrap ErrConfig.
func ValidateConfig(cfg Config) error {
    n := 0
    if strings.TrimSpace(cfg.InputFile) != "" { n++ }
    if strings.TrimSpace(cfg.InputDir) != "" { n++ }
    if len(cfg.URLs) > 0 { n++ }
    if n != 1 {
        return fmt.Errorf("%w: exactly one of -file, -dir or -url is required", ErrConfig)
    }
    if strings.TrimSpace(cfg.OutputPath) == "" {
        return fmt.Errorf("%w: output path is required", ErrConfig)
    }
    if cfg.Concurrency < 0 || cfg.Rate < 0 || cfg.Timeout < 0 {
        return fmt.Errorf("%w: negative limits are not allowed", ErrConfig)
    }
    return nil
}

func hasInput(cfg Config) bool {
    return cfg.InputFile != "" || cfg.InputDir != "" || len(cfg.URLs) > 0
}

// SplitList splits a comma-separated flag value, dropping blanks.
func SplitList(s string) []string {
    return cleanList(strings.Split(s, ","))
}

func cleanList(in []string) []string {
    var out []string
    for _, p := range in {
        if v := strings.TrimSpace(p); v != "" { out = append(out, v) }
    }
    return out
}
