package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hyperifyio/gocatalog/internal/extract"
)

// encodeCatalog writes {"products": [...]} with two-space indent. HTML
// escaping is off so names like "A & B" and non-ASCII text stay readable.
func encodeCatalog(w io.Writer, groups []extract.ProductGroup) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(extract.NewCatalog(groups))
}

// writeCatalogJSON writes to path, or to stdout when path is "-".
func writeCatalogJSON(path string, groups []extract.ProductGroup) error {
	if path == "-" {
		return encodeCatalog(os.Stdout, groups)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := encodeCatalog(f, groups); err != nil {
		f.Close()
		return fmt.Errorf("encode output: %w", err)
	}
	return f.Close()
}
