package dom

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func parse(t *testing.T, s string) *html.Node {
	t.Helper()
	n, err := html.Parse(strings.NewReader(s))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return n
}

func find(n *html.Node, tag atom.Atom) *html.Node {
	if Is(n, tag) {
		return n
	}
	return NextElement(n, func(e *html.Node) bool { return e.DataAtom == tag })
}

func TestPrevNext_DocumentOrder(t *testing.T) {
	root := parse(t, `<body><div><h2>A</h2><p>x</p></div><table id="t"></table></body>`)
	table := find(root, atom.Table)
	if table == nil {
		t.Fatalf("table not found")
	}
	h := PrevElement(table, func(n *html.Node) bool { return Is(n, atom.H2) })
	if h == nil || Text(h) != "A" {
		t.Fatalf("expected h2 before table, got %v", h)
	}
	p := PrevElement(table, func(n *html.Node) bool { return Is(n, atom.P) })
	if p == nil || Text(p) != "x" {
		t.Fatalf("expected nearest p, got %v", p)
	}
	if got := NextElement(h, func(n *html.Node) bool { return Is(n, atom.Table) }); got != table {
		t.Fatalf("expected next table to be the table")
	}
}

func TestText_SkipsScriptAndJoins(t *testing.T) {
	root := parse(t, `<body><td>One<br>Two<script>var x</script></td></body>`)
	body := find(root, atom.Body)
	got := Text(body)
	if strings.Contains(got, "var x") {
		t.Fatalf("script leaked into text: %q", got)
	}
	if !strings.Contains(got, "One Two") {
		t.Fatalf("expected space-joined text, got %q", got)
	}
}

func TestContainsAndClosest(t *testing.T) {
	root := parse(t, `<table><tr><td><span>x</span></td></tr></table>`)
	span := find(root, atom.Span)
	table := find(root, atom.Table)
	if !Contains(table, span) {
		t.Fatalf("table should contain span")
	}
	if Contains(span, table) {
		t.Fatalf("span should not contain table")
	}
	if Closest(span, atom.Table) != table {
		t.Fatalf("closest table mismatch")
	}
}

func TestClassContains(t *testing.T) {
	root := parse(t, `<div class="Product-Description main"></div>`)
	div := find(root, atom.Div)
	if !ClassContains(div, "description") {
		t.Fatalf("expected class match")
	}
	if ClassContains(div, "price") {
		t.Fatalf("unexpected class match")
	}
}
