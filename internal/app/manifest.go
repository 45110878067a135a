package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// manifestEntry records what one source contributed to a run.
type manifestEntry struct {
	Index       int    `json:"index"`
	Source      string `json:"source"`
	SHA256      string `json:"sha256,omitempty"`
	Bytes       int    `json:"bytes"`
	Groups      int    `json:"groups"`
	Subproducts int    `json:"subproducts"`
	Error       string `json:"error,omitempty"`
}

// manifestMeta captures run details that aid reproducibility.
type manifestMeta struct {
	RunID       string    `json:"run_id"`
	Version     string    `json:"version"`
	SourceCount int       `json:"source_count"`
	Products    int       `json:"products"`
	BaseURL     string    `json:"base_url,omitempty"`
	Rendered    bool      `json:"rendered"`
	HTTPCache   bool      `json:"http_cache"`
	GeneratedAt time.Time `json:"generated_at"`
}

func computeSHA256Hex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

func buildManifestEntries(results []sourceResult) []manifestEntry {
	out := make([]manifestEntry, 0, len(results))
	for i, r := range results {
		e := manifestEntry{Index: i + 1, Source: r.source.Name, Groups: len(r.groups)}
		if r.err != nil {
			e.Error = r.err.Error()
		} else {
			e.SHA256 = computeSHA256Hex(r.body)
			e.Bytes = len(r.body)
		}
		for _, g := range r.groups {
			e.Subproducts += len(g.SubProducts)
		}
		out = append(out, e)
	}
	return out
}

// marshalManifestJSON encodes the machine-readable sidecar manifest.
func marshalManifestJSON(meta manifestMeta, entries []manifestEntry) ([]byte, error) {
	payload := struct {
		Meta    manifestMeta    `json:"meta"`
		Sources []manifestEntry `json:"sources"`
	}{Meta: meta, Sources: entries}
	return json.MarshalIndent(payload, "", "  ")
}

// deriveManifestSidecarPath returns the manifest path next to the JSON output.
func deriveManifestSidecarPath(outputPath string) string {
	return outputPath + ".manifest.json"
}

func writeManifest(path string, meta manifestMeta, entries []manifestEntry) error {
	b, err := marshalManifestJSON(meta, entries)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
