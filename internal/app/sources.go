package app

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hyperifyio/gocatalog/internal/aggregate"
)

// Source is one document to extract from: a local file or a URL.
type Source struct {
	// Name is the source identifier recorded on every group.
	Name string
	Path string
	URL  string
}

// IsRemote reports whether the source must be fetched.
func (s Source) IsRemote() bool { return s.URL != "" }

// enumerateSources expands the configured input into sources in a stable
// order: the single file, the directory's *.html files by name, or the URLs
// as given after canonicalization and dedup.
func enumerateSources(cfg Config) ([]Source, error) {
	switch {
	case cfg.InputFile != "":
		return []Source{{Name: filepath.Base(cfg.InputFile), Path: cfg.InputFile}}, nil
	case cfg.InputDir != "":
		entries, err := os.ReadDir(cfg.InputDir)
		if err != nil {
			return nil, fmt.Errorf("read input dir: %w", err)
		}
		var names []string
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".html") {
				continue
			}
			names = append(names, e.Name())
		}
		sort.Strings(names)
		out := make([]Source, 0, len(names))
		for _, n := range names {
			out = append(out, Source{Name: n, Path: filepath.Join(cfg.InputDir, n)})
		}
		return out, nil
	default:
		urls := aggregate.NormalizeURLs(cfg.URLs)
		out := make([]Source, 0, len(urls))
		for _, u := range urls {
			out = append(out, Source{Name: u, URL: u})
		}
		return out, nil
	}
}
