package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hyperifyio/gocatalog/internal/dom"
	"github.com/hyperifyio/gocatalog/internal/textnorm"
)

var headingTags = []atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5}

// Associate finds the group name and description for table. The description
// is the nearest preceding "description" block whose next table is this one;
// the name is the nearest preceding h1-h5. Without a description block, the
// paragraphs between the heading and the table are used.
func Associate(table *html.Node) (name, desc string) {
	desc = anchoredDescription(table)

	heading := dom.PrevElement(table, func(n *html.Node) bool {
		return dom.Is(n, headingTags...)
	})
	if heading == nil {
		return "", desc
	}
	name = textnorm.Normalize(dom.Text(heading))
	if desc == "" {
		desc = paragraphsBetween(heading, table)
	}
	return name, desc
}

// anchoredDescription walks back through description blocks and accepts the
// first one that introduces table rather than an earlier table.
func anchoredDescription(table *html.Node) string {
	for cand := dom.Prev(table); cand != nil; cand = dom.Prev(cand) {
		if !isDescriptionBlock(cand, table) {
			continue
		}
		next := dom.NextElement(cand, func(n *html.Node) bool { return dom.Is(n, atom.Table) })
		if next == table {
			return textnorm.Normalize(dom.Text(cand))
		}
	}
	return ""
}

// isDescriptionBlock accepts elements classed "description" that neither wrap
// the table nor sit inside some other table's cells.
func isDescriptionBlock(n, table *html.Node) bool {
	if !dom.ClassContains(n, "description") {
		return false
	}
	if dom.Contains(n, table) {
		return false
	}
	if owner := dom.Closest(n, atom.Table); owner != nil && !dom.Contains(owner, table) {
		return false
	}
	return true
}

// paragraphsBetween joins the <p> siblings following heading up to the sibling
// that holds table.
func paragraphsBetween(heading, table *html.Node) string {
	var texts []string
	for sib := heading.NextSibling; sib != nil; sib = sib.NextSibling {
		if dom.Contains(sib, table) {
			break
		}
		if !dom.Is(sib, atom.P) {
			continue
		}
		if t := textnorm.Normalize(dom.Text(sib)); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, " ")
}
