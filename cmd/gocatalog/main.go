package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocatalog/internal/app"
)

// Exit codes.
const (
	exitOK        = 0
	exitFailure   = 1
	exitNoSources = 2
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, showVersion, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(exitOK)
		}
		log.Error().Err(err).Msg("invalid flags")
		os.Exit(exitFailure)
	}
	if showVersion {
		fmt.Println(app.VersionString())
		os.Exit(exitOK)
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(exitCode(err))
	}
}

// exitCode maps run errors to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, app.ErrNoSources):
		return exitNoSources
	default:
		return exitFailure
	}
}

// parseFlags builds the configuration from args, then fills what the flags
// left unset from dotenv files, the environment and finally the config file.
func parseFlags(args []string, stderr io.Writer) (app.Config, bool, error) {
	fs := flag.NewFlagSet("gocatalog", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		cfg         app.Config
		urls        string
		configPath  string
		envPath     string
		showVersion bool
	)
	fs.StringVar(&cfg.InputFile, "file", "", "Path to a single HTML file")
	fs.StringVar(&cfg.InputDir, "dir", "", "Directory of *.html files, processed in name order")
	fs.StringVar(&urls, "url", "", "Comma-separated page URLs to fetch")
	fs.StringVar(&cfg.BaseURL, "base", "", "Base URL for relative image links (defaults to the page URL when fetching)")
	fs.StringVar(&cfg.OutputPath, "o", app.DefaultOutputPath, "Output JSON path, or - for stdout")
	fs.StringVar(&cfg.PDFPath, "pdf", "", "Also render a PDF catalog to this path")
	fs.StringVar(&cfg.SQLitePath, "sqlite", "", "Also store the run in this SQLite database")
	fs.StringVar(&cfg.SnapshotDir, "snapshot.dir", "", "Save fetched pages under this directory")
	fs.BoolVar(&cfg.Render, "render", false, "Render pages in headless Chrome before extraction")
	fs.StringVar(&cfg.ChromePath, "chrome", "", "Chrome or Chromium binary for -render")
	fs.StringVar(&cfg.UserAgent, "ua", "", "User-Agent for fetching (default: desktop Chrome)")
	fs.IntVar(&cfg.Concurrency, "concurrency", app.DefaultConcurrency, "Sources processed in parallel")
	fs.Float64Var(&cfg.Rate, "rate", 0, "Maximum requests per second; 0 disables")
	fs.DurationVar(&cfg.Timeout, "timeout", app.DefaultTimeout, "Per-request timeout")
	fs.BoolVar(&cfg.RespectRobots, "robots", false, "Skip URLs disallowed by robots.txt")
	fs.StringVar(&cfg.CacheDir, "cache.dir", app.DefaultCacheDir, "HTTP cache directory; empty disables")
	fs.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", 0, "Purge cache entries older than this (e.g. 24h); 0 disables")
	fs.BoolVar(&cfg.CacheClear, "cache.clear", false, "Clear the cache directory before the run")
	fs.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.StringVar(&configPath, "config", "", "YAML or JSON config file")
	fs.StringVar(&envPath, "env", ".env", "Dotenv file to load")
	fs.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return cfg, false, err
	}
	cfg.URLs = app.SplitList(urls)

	if err := app.LoadEnvFiles(envPath); err != nil {
		return cfg, showVersion, fmt.Errorf("%w: load env: %v", app.ErrConfig, err)
	}
	app.ApplyEnvToConfig(&cfg)
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			return cfg, showVersion, err
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	return cfg, showVersion, nil
}

func run(ctx context.Context, cfg app.Config) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	return a.Run(ctx)
}
