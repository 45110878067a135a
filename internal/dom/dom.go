// Package dom exposes the small set of tree queries the extractor needs on top
// of golang.org/x/net/html nodes: document-order walks, containment, attribute
// lookup and visible text.
package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Is reports whether n is an element with one of the given tags.
func Is(n *html.Node, tags ...atom.Atom) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, t := range tags {
		if n.DataAtom == t {
			return true
		}
	}
	return false
}

// Attr returns the value of the attribute key (case-insensitive).
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// ClassContains reports whether the class attribute of n contains sub.
func ClassContains(n *html.Node, sub string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	v, ok := Attr(n, "class")
	return ok && strings.Contains(strings.ToLower(v), sub)
}

// Text concatenates the text nodes below n, separating them with a space.
// Script and style contents are skipped.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		switch cur.Type {
		case html.TextNode:
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(cur.Data)
			return
		case html.ElementNode:
			if cur.DataAtom == atom.Script || cur.DataAtom == atom.Style {
				return
			}
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// Contains reports whether d is n or one of its descendants.
func Contains(n, d *html.Node) bool {
	for cur := d; cur != nil; cur = cur.Parent {
		if cur == n {
			return true
		}
	}
	return false
}

// Closest returns the nearest ancestor of n (excluding n) with the given tag.
func Closest(n *html.Node, tag atom.Atom) *html.Node {
	if n == nil {
		return nil
	}
	for cur := n.Parent; cur != nil; cur = cur.Parent {
		if Is(cur, tag) {
			return cur
		}
	}
	return nil
}

// Prev returns the node that precedes n in document order: the deepest last
// descendant of the previous sibling, or the parent when n is a first child.
func Prev(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	if n.PrevSibling == nil {
		return n.Parent
	}
	cur := n.PrevSibling
	for cur.LastChild != nil {
		cur = cur.LastChild
	}
	return cur
}

// Next returns the node that follows n in document order, descending into n
// first.
func Next(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	if n.FirstChild != nil {
		return n.FirstChild
	}
	return skip(n)
}

// skip returns the first node after the subtree rooted at n.
func skip(n *html.Node) *html.Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.NextSibling != nil {
			return cur.NextSibling
		}
	}
	return nil
}

// PrevElement walks backward from n and returns the first element accepted
// by match, or nil.
func PrevElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	for cur := Prev(n); cur != nil; cur = Prev(cur) {
		if cur.Type == html.ElementNode && match(cur) {
			return cur
		}
	}
	return nil
}

// NextElement walks forward from n (into its subtree first) and returns the
// first element accepted by match, or nil.
func NextElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	for cur := Next(n); cur != nil; cur = Next(cur) {
		if cur.Type == html.ElementNode && match(cur) {
			return cur
		}
	}
	return nil
}

// Children returns the element children of n with one of the given tags.
func Children(n *html.Node, tags ...atom.Atom) []*html.Node {
	if n == nil {
		return nil
	}
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if Is(c, tags...) {
			out = append(out, c)
		}
	}
	return out
}
