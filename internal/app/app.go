package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hyperifyio/gocatalog/internal/cache"
	"github.com/hyperifyio/gocatalog/internal/extract"
	"github.com/hyperifyio/gocatalog/internal/fetch"
	"github.com/hyperifyio/gocatalog/internal/render"
	"github.com/hyperifyio/gocatalog/internal/robots"
	"github.com/hyperifyio/gocatalog/internal/snapshot"
	"github.com/hyperifyio/gocatalog/internal/store"
)

var (
	// ErrNoSources is returned when no configured source could be read or
	// fetched. The CLI maps it to exit code 2.
	ErrNoSources = errors.New("no readable sources")
	// ErrConfig wraps invalid or unreadable configuration.
	ErrConfig = errors.New("invalid configuration")
)

// pageGetter is satisfied by fetch.Client and render.Client.
type pageGetter interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

type App struct {
	cfg       Config
	getter    pageGetter
	extractor extract.Extractor
	pageCache *cache.PageCache
	robots    *robots.Checker
	store     *store.Store
}

// sourceResult is the outcome for one source, kept at its input position.
type sourceResult struct {
	source Source
	body   []byte
	groups []extract.ProductGroup
	err    error
}

func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, extractor: extract.HeuristicExtractor{}}

	if len(cfg.URLs) > 0 {
		if cfg.CacheDir != "" && !cfg.Render {
			if cfg.CacheClear {
				if err := cache.ClearDir(cfg.CacheDir); err != nil {
					log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
				}
			}
			if cfg.CacheMaxAge > 0 {
				if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
					log.Warn().Err(err).Msg("cache purge failed")
				} else if n > 0 {
					log.Info().Int("removed", n).Msg("purged stale cache entries")
				}
			}
			a.pageCache = &cache.PageCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
		}
		a.getter = a.newGetter()
		if cfg.RespectRobots {
			ua := cfg.UserAgent
			if ua == "" {
				ua = fetch.DefaultUserAgent
			}
			rc := newHTTPClient()
			rc.Timeout = 10 * time.Second
			a.robots = &robots.Checker{HTTPClient: rc, UserAgent: ua, Cache: a.pageCache}
		}
	}

	if cfg.SQLitePath != "" {
		s, err := store.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		a.store = s
	}
	return a, nil
}

func (a *App) newGetter() pageGetter {
	timeout := a.cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if a.cfg.Render {
		return &render.Client{
			Timeout:    4 * timeout,
			UserAgent:  a.cfg.UserAgent,
			ChromePath: a.cfg.ChromePath,
			Headers:    fetch.DefaultHeaders,
		}
	}
	var limiter *rate.Limiter
	if a.cfg.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(a.cfg.Rate), 1)
	}
	return &fetch.Client{
		HTTPClient:        newHTTPClient(),
		UserAgent:         a.cfg.UserAgent,
		MaxAttempts:       3,
		PerRequestTimeout: timeout,
		Cache:             a.pageCache,
		RedirectMaxHops:   5,
		MaxConcurrent:     a.concurrency(),
		Limiter:           limiter,
		PrimeCookies:      true,
	}
}

func (a *App) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}
}

func (a *App) concurrency() int {
	if a.cfg.Concurrency > 0 {
		return a.cfg.Concurrency
	}
	return DefaultConcurrency
}

func (a *App) Run(ctx context.Context) error {
	start := time.Now()
	sources, err := enumerateSources(a.cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoSources, err)
	}
	if len(sources) == 0 {
		log.Warn().Str("dir", a.cfg.InputDir).Msg("no .html files found")
		return ErrNoSources
	}

	results := a.collect(ctx, sources)
	if err := ctx.Err(); err != nil {
		return err
	}

	var groups []extract.ProductGroup
	readable := 0
	for _, r := range results {
		if r.err != nil {
			continue
		}
		readable++
		groups = append(groups, r.groups...)
	}
	if readable == 0 {
		return ErrNoSources
	}

	if err := writeCatalogJSON(a.cfg.OutputPath, groups); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info().Str("out", a.cfg.OutputPath).Int("groups", len(groups)).Int("sources", readable).Msg("wrote catalog")

	if a.cfg.PDFPath != "" {
		if err := writeCatalogPDF(groups, a.cfg.PDFPath); err != nil {
			return err
		}
		log.Info().Str("pdf", a.cfg.PDFPath).Msg("wrote PDF catalog")
	}

	runID := uuid.NewString()
	if a.store != nil {
		if _, err := a.store.SaveRun(ctx, runID, readable, groups); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		log.Info().Str("run", runID).Str("db", a.store.Path()).Msg("stored run")
	}

	if a.cfg.OutputPath != "-" {
		meta := manifestMeta{
			RunID:       runID,
			Version:     BuildVersion,
			SourceCount: len(sources),
			Products:    len(groups),
			BaseURL:     a.cfg.BaseURL,
			Rendered:    a.cfg.Render,
			HTTPCache:   a.pageCache != nil,
			GeneratedAt: time.Now().UTC(),
		}
		if err := writeManifest(deriveManifestSidecarPath(a.cfg.OutputPath), meta, buildManifestEntries(results)); err != nil {
			return err
		}
	}
	log.Debug().Dur("elapsed", time.Since(start)).Msg("run complete")
	return nil
}

// collect processes sources with bounded concurrency. Results keep input
// order; a failing source is logged and recorded, never fatal to the others.
func (a *App) collect(ctx context.Context, sources []Source) []sourceResult {
	results := make([]sourceResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency())
	for i, src := range sources {
		g.Go(func() error {
			results[i] = a.process(gctx, src)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (a *App) process(ctx context.Context, src Source) sourceResult {
	res := sourceResult{source: src}
	body, err := a.read(ctx, src)
	if err != nil {
		log.Warn().Err(err).Str("source", src.Name).Msg("source skipped")
		res.err = err
		return res
	}
	res.body = body

	if src.IsRemote() && a.cfg.SnapshotDir != "" {
		if path, err := snapshot.Save(a.cfg.SnapshotDir, src.URL, body); err != nil {
			log.Warn().Err(err).Str("source", src.Name).Msg("snapshot failed")
		} else {
			log.Debug().Str("path", path).Msg("saved snapshot")
		}
	}

	base := a.cfg.BaseURL
	if base == "" && src.IsRemote() {
		base = src.URL
	}
	res.groups = a.extractor.Extract(body, extract.Options{BaseURL: base, Source: src.Name})
	log.Info().Str("source", src.Name).Int("groups", len(res.groups)).Msg("extracted")
	return res
}

func (a *App) read(ctx context.Context, src Source) ([]byte, error) {
	if !src.IsRemote() {
		b, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", src.Path, err)
		}
		return b, nil
	}
	if a.getter == nil {
		return nil, errors.New("no fetcher configured")
	}
	if a.robots != nil {
		if err := a.robots.Check(ctx, src.URL); err != nil {
			return nil, err
		}
	}
	b, _, err := a.getter.Get(ctx, src.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src.URL, err)
	}
	return b, nil
}
