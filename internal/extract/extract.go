// Package extract turns HTML catalog pages into product groups by reading
// their price tables. Tables carry no reliable schema, so each one is judged
// on its header texts, its columns are assigned roles by keyword and image
// density, and its group name and description are taken from the surrounding
// document.
package extract

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hyperifyio/gocatalog/internal/dom"
	"github.com/hyperifyio/gocatalog/internal/images"
	"github.com/hyperifyio/gocatalog/internal/price"
	"github.com/hyperifyio/gocatalog/internal/textnorm"
)

// Options carries the caller-supplied context for one document.
type Options struct {
	// BaseURL resolves relative image links. Empty leaves them as found.
	BaseURL string
	// Source names the document; it feeds IDs and ProductGroup.Source.
	Source string
}

// FromHTML extracts product groups from every product table in input, in
// document order. Tables that yield no priced, named rows are skipped.
func FromHTML(input []byte, opts Options) []ProductGroup {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(input))
	if err != nil {
		return nil
	}
	var groups []ProductGroup
	doc.Find("table").Each(func(i int, s *goquery.Selection) {
		g, ok := groupFromTable(s.Nodes[0], opts)
		if !ok {
			log.Debug().Str("source", opts.Source).Int("table", i).Msg("table skipped")
			return
		}
		groups = append(groups, g)
	})
	return groups
}

type bodyRow struct {
	tr    *html.Node
	cells []*html.Node
}

type tableLayout struct {
	headers []string
	body    []bodyRow
}

func (l tableLayout) cells() [][]*html.Node {
	out := make([][]*html.Node, len(l.body))
	for i, r := range l.body {
		out[i] = r.cells
	}
	return out
}

func groupFromTable(table *html.Node, opts Options) (ProductGroup, bool) {
	lay, ok := layoutOf(table)
	if !ok || !IsCandidate(lay.headers) || len(lay.body) == 0 {
		return ProductGroup{}, false
	}

	roles := InferRoles(lay.headers, lay.cells())
	_, namedImage := headerRoles(lay.headers)[RoleImage]
	nameCol, ok := nameColumn(roles, len(lay.headers), !namedImage)
	if !ok {
		return ProductGroup{}, false
	}
	label := lay.headers[nameCol]
	priceCol, hasPrice := roles.Column(RolePrice)
	imageCol, hasImage := roles.Column(RoleImage)

	set := newRowSet()
	for _, r := range lay.body {
		if nameCol >= len(r.cells) {
			continue
		}
		name := textnorm.StripLabelPrefix(textnorm.Normalize(dom.Text(r.cells[nameCol])), []string{label})
		if name == "" {
			continue
		}
		priceSrc := r.tr
		if hasPrice && priceCol < len(r.cells) {
			priceSrc = r.cells[priceCol]
		}
		amount, ok := price.Extract(textnorm.Normalize(dom.Text(priceSrc)))
		if !ok {
			continue
		}
		sp := SubProduct{Name: name, Price: amount}
		if img, ok := rowImage(r, imageCol, hasImage, opts.BaseURL); ok {
			sp.Image = img
		}
		set.add(sp)
	}
	if len(set.rows) == 0 {
		return ProductGroup{}, false
	}

	name, desc := Associate(table)
	g := ProductGroup{
		ID:          GroupID(opts.Source, name),
		Name:        name,
		Description: desc,
		Source:      opts.Source,
		SubProducts: set.rows,
	}
	for i := range g.SubProducts {
		sp := &g.SubProducts[i]
		sp.ID = SubProductID(opts.Source, name, sp.Name, sp.Price)
	}
	return g, true
}

// rowImage prefers the image column and falls back to the whole row.
func rowImage(r bodyRow, col int, hasCol bool, base string) (string, bool) {
	if hasCol && col < len(r.cells) {
		if u, ok := images.Resolve(r.cells[col], base); ok {
			return u, true
		}
	}
	return images.Resolve(r.tr, base)
}

// nameColumn is the description column, or else the first column that holds
// neither prices nor images. A thumbnail column found only by image density
// also carries the name when no other column is free.
func nameColumn(roles Roles, width int, sampledImage bool) (int, bool) {
	if i, ok := roles.Column(RoleDescription); ok {
		return i, true
	}
	p, hasP := roles.Column(RolePrice)
	m, hasM := roles.Column(RoleImage)
	for i := 0; i < width; i++ {
		if (hasP && i == p) || (hasM && i == m) {
			continue
		}
		return i, true
	}
	if hasM && sampledImage && m < width {
		return m, true
	}
	return 0, false
}

// layoutOf splits a table into header texts and body rows. The header row is
// the first <thead> row, else the first row with a <th>. Body rows are the
// later rows with at least one <td>. Rows of nested tables are ignored.
func layoutOf(table *html.Node) (tableLayout, bool) {
	rows := ownRows(table)
	hi := headerRowIndex(rows)
	if hi < 0 {
		return tableLayout{}, false
	}
	var lay tableLayout
	for _, c := range rowCells(rows[hi]) {
		lay.headers = append(lay.headers, textnorm.Normalize(dom.Text(c)))
	}
	for _, tr := range rows[hi+1:] {
		cs := rowCells(tr)
		if len(dom.Children(tr, atom.Td)) == 0 {
			continue
		}
		lay.body = append(lay.body, bodyRow{tr: tr, cells: cs})
	}
	return lay, true
}

func headerRowIndex(rows []*html.Node) int {
	for i, tr := range rows {
		if dom.Is(tr.Parent, atom.Thead) {
			return i
		}
	}
	for i, tr := range rows {
		if len(dom.Children(tr, atom.Th)) > 0 {
			return i
		}
	}
	return -1
}

func ownRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case dom.Is(c, atom.Table):
				continue
			case dom.Is(c, atom.Tr):
				rows = append(rows, c)
			default:
				walk(c)
			}
		}
	}
	walk(table)
	return rows
}

func rowCells(tr *html.Node) []*html.Node {
	return dom.Children(tr, atom.Th, atom.Td)
}
