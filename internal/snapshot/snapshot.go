// Package snapshot stores fetched pages on disk under names derived from
// their URLs, so a later run can re-extract them with -dir.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	maxNameLen  = 200
	keepNameLen = 180
	queryHexLen = 8
)

var (
	reExt    = regexp.MustCompile(`(\.[A-Za-z0-9]+)$`)
	reUnsafe = regexp.MustCompile(`[^A-Za-z0-9._/-]+`)
)

// SafeFilename maps rawURL to a relative slash-separated path of the form
// host/path[_queryhash].ext. Directory URLs get index.html. Characters
// outside [A-Za-z0-9._/-] become underscores and overlong names are cut.
func SafeFilename(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	p := u.Path
	if p == "" {
		p = "/"
	}
	if strings.HasSuffix(p, "/") {
		p += "index.html"
	}
	base := u.Host + p

	if u.RawQuery != "" {
		sum := sha256.Sum256([]byte(u.RawQuery))
		qhash := hex.EncodeToString(sum[:])[:queryHexLen]
		if strings.Contains(lastSegment(base), ".") && reExt.MatchString(base) {
			base = reExt.ReplaceAllString(base, "_"+qhash+"$1")
		} else {
			base += "_" + qhash + ".html"
		}
	}
	if !reExt.MatchString(base) {
		base += ".html"
	}

	safe := reUnsafe.ReplaceAllString(base, "_")
	safe = dropDotSegments(safe)
	if len(safe) > maxNameLen {
		dir, name := splitLast(safe)
		if len(name) > keepNameLen {
			name = name[:keepNameLen]
		}
		name += "_cut.html"
		if dir != "" {
			safe = dir + "/" + name
		} else {
			safe = name
		}
	}
	return safe, nil
}

// Save writes body to dir/SafeFilename(rawURL) and returns the written path.
func Save(dir, rawURL string, body []byte) (string, error) {
	rel, err := SafeFilename(rawURL)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("mkdir snapshot dir: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// dropDotSegments removes empty, "." and ".." segments so the result stays
// below the snapshot directory.
func dropDotSegments(p string) string {
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, s := range parts {
		if s == "" || s == "." || s == ".." {
			continue
		}
		out = append(out, s)
	}
	return strings.Join(out, "/")
}

func lastSegment(p string) string {
	_, name := splitLast(p)
	return name
}

func splitLast(p string) (dir, name string) {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return "", p
	}
	return p[:i], p[i+1:]
}
