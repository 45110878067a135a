package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PageEntry is the metadata kept next to a cached page body. ETag and
// LastModified drive conditional revalidation.
type PageEntry struct {
	URL          string    `json:"url"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	SavedAt      time.Time `json:"saved_at"`
}

// PageCache stores fetched catalog pages as <sha256(url)>.meta.json and
// <sha256(url)>.body under Dir. Bodies are kept exactly as received, before
// any charset decoding.
type PageCache struct {
	Dir string
	// StrictPerms creates the directory 0700 and files 0600.
	StrictPerms bool
}

func (c *PageCache) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	perm := os.FileMode(0o755)
	if c.StrictPerms {
		perm = 0o700
	}
	if err := os.MkdirAll(c.Dir, perm); err != nil {
		return err
	}
	if c.StrictPerms {
		return os.Chmod(c.Dir, perm)
	}
	return nil
}

func (c *PageCache) filePerm() os.FileMode {
	if c.StrictPerms {
		return 0o600
	}
	return 0o644
}

// Key returns the file stem used for url.
func Key(url string) string {
	h := sha256.Sum256([]byte(url))
	return hex.EncodeToString(h[:])
}

func (c *PageCache) metaPath(url string) string { return filepath.Join(c.Dir, Key(url)+".meta.json") }
func (c *PageCache) bodyPath(url string) string { return filepath.Join(c.Dir, Key(url)+".body") }

// Meta returns the stored entry for url.
func (c *PageCache) Meta(_ context.Context, url string) (*PageEntry, error) {
	if err := c.ensureDir(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(c.metaPath(url))
	if err != nil {
		return nil, err
	}
	var e PageEntry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("decode meta: %w", err)
	}
	return &e, nil
}

// Body returns the stored body for url.
func (c *PageCache) Body(_ context.Context, url string) ([]byte, error) {
	if err := c.ensureDir(); err != nil {
		return nil, err
	}
	return os.ReadFile(c.bodyPath(url))
}

// Put writes body and then its metadata. The metadata file is replaced
// atomically so a reader never sees meta without a body.
func (c *PageCache) Put(_ context.Context, e PageEntry, body []byte) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	if e.SavedAt.IsZero() {
		e.SavedAt = time.Now().UTC()
	}
	if err := os.WriteFile(c.bodyPath(e.URL), body, c.filePerm()); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	b, err := json.Marshal(&e)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	tmp := c.metaPath(e.URL) + ".tmp"
	if err := os.WriteFile(tmp, b, c.filePerm()); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return os.Rename(tmp, c.metaPath(e.URL))
}
