package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/gocatalog/internal/extract"
)

func TestBuildManifestEntries(t *testing.T) {
	results := []sourceResult{
		{
			source: Source{Name: "a.html"},
			body:   []byte("hello"),
			groups: []extract.ProductGroup{{SubProducts: make([]extract.SubProduct, 3)}, {SubProducts: make([]extract.SubProduct, 1)}},
		},
		{source: Source{Name: "https://x.test/"}, err: errors.New("fetch failed")},
	}
	entries := buildManifestEntries(results)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries; got %d", len(entries))
	}
	if e := entries[0]; e.Index != 1 || e.Bytes != 5 || e.Groups != 2 || e.Subproducts != 4 || e.SHA256 != computeSHA256Hex([]byte("hello")) {
		t.Fatalf("unexpected first entry: %+v", e)
	}
	if e := entries[1]; e.Error != "fetch failed" || e.SHA256 != "" {
		t.Fatalf("unexpected failed entry: %+v", e)
	}
}

func TestMarshalManifestJSON(t *testing.T) {
	meta := manifestMeta{RunID: "r1", SourceCount: 1, Products: 2, GeneratedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	b, err := marshalManifestJSON(meta, []manifestEntry{{Index: 1, Source: "a.html", SHA256: "abcd"}})
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	for _, want := range []string{`"run_id": "r1"`, `"products": 2`, `"source": "a.html"`, `"generated_at": "2024-01-01T12:00:00Z"`} {
		if !strings.Contains(s, want) {
			t.Fatalf("missing %s in:\n%s", want, s)
		}
	}
}

func TestDeriveManifestSidecarPath(t *testing.T) {
	if got := deriveManifestSidecarPath("out/products.json"); got != "out/products.json.manifest.json" {
		t.Fatalf("got %q", got)
	}
}
