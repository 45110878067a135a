package extract

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hyperifyio/gocatalog/internal/dom"
)

func parseDoc(t *testing.T, s string) *html.Node {
	t.Helper()
	n, err := html.Parse(strings.NewReader(s))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return n
}

// tables returns every <table> in document order.
func tables(root *html.Node) []*html.Node {
	var out []*html.Node
	for cur := root; cur != nil; cur = dom.Next(cur) {
		if dom.Is(cur, atom.Table) {
			out = append(out, cur)
		}
	}
	return out
}
