// Package images picks a representative image URL out of a DOM subtree.
//
// Catalog markup rarely keeps the real image in <img src>: lazy loaders park it
// in data-* attributes, responsive markup in srcset, and some themes only set a
// CSS background. Candidates are gathered from all of those, resolved against
// the page URL, and known filler assets are rejected.
package images

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// sourceAttrs are read from every image-like element, in priority order.
// href covers SVG <image href> and xlink:href, which parse to the same key.
var sourceAttrs = []string{"src", "data-src", "data-original", "data-lazy", "href"}

// srcsetAttrs hold comma-separated responsive candidate lists.
var srcsetAttrs = []string{"srcset", "data-srcset"}

// placeholderHints mark filler assets. Matched as lowercase substrings.
var placeholderHints = []string{
	"placeholder",
	"quote.svg",
	"transparent.gif",
	"spacer.gif",
	"blank.gif",
	"pixel.gif",
	"pixel.png",
	"1x1.",
	"no-image",
	"noimage",
	"default-image",
	"/themes/",
	"/theme/",
}

var (
	reImageHref = regexp.MustCompile(`(?i)\.(png|jpe?g|webp|gif|svg|avif|ico)(\?.*)?$`)
	reCSSURL    = regexp.MustCompile(`url\(\s*["']?([^"')]+?)["']?\s*\)`)
)

// Resolve returns the best image URL found below n, absolutized against base.
// When every candidate looks like a placeholder the first one is returned
// anyway; the boolean is false only when no candidate exists.
func Resolve(n *html.Node, base string) (string, bool) {
	if n == nil {
		return "", false
	}
	raw := Candidates(goquery.NewDocumentFromNode(n).Selection)
	if len(raw) == 0 {
		return "", false
	}
	baseURL := parseBase(base)
	resolved := make([]string, 0, len(raw))
	for _, c := range raw {
		resolved = append(resolved, absolutize(baseURL, c))
	}
	for _, u := range resolved {
		if !IsPlaceholder(u) {
			return u, true
		}
	}
	return resolved[0], true
}

// Candidates lists raw image URLs below sel in collection order: image
// element attributes, then links to image files, then inline style url()s.
func Candidates(sel *goquery.Selection) []string {
	var out []string
	add := func(v string) {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}

	within(sel, "img, source, image").Each(func(_ int, s *goquery.Selection) {
		for _, a := range sourceAttrs {
			if v, ok := s.Attr(a); ok {
				add(v)
			}
		}
		for _, a := range srcsetAttrs {
			if v, ok := s.Attr(a); ok {
				for _, u := range splitSrcset(v) {
					add(u)
				}
			}
		}
	})

	within(sel, "a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if reImageHref.MatchString(stripFragment(href)) {
			add(href)
		}
	})

	within(sel, "[style]").Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		for _, m := range reCSSURL.FindAllStringSubmatch(style, -1) {
			add(m[1])
		}
	})
	return out
}

// HasImage reports whether n holds an image-bearing element.
func HasImage(n *html.Node) bool {
	if n == nil {
		return false
	}
	sel := goquery.NewDocumentFromNode(n).Selection
	return within(sel, `img, picture, source, image, [style*="url("]`).Length() > 0
}

// within matches q against sel itself and its descendants, in document order.
func within(sel *goquery.Selection, q string) *goquery.Selection {
	return sel.Filter(q).AddSelection(sel.Find(q))
}

// IsPlaceholder reports whether u looks like a filler asset. Inline data:
// URIs always count as filler.
func IsPlaceholder(u string) bool {
	if u == "" {
		return true
	}
	l := strings.ToLower(strings.TrimSpace(u))
	if strings.HasPrefix(l, "data:") {
		return true
	}
	for _, h := range placeholderHints {
		if strings.Contains(l, h) {
			return true
		}
	}
	return false
}

func splitSrcset(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		fields := strings.Fields(part)
		if len(fields) > 0 {
			out = append(out, fields[0])
		}
	}
	return out
}

func stripFragment(href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		return href[:i]
	}
	return href
}

func parseBase(base string) *url.URL {
	base = strings.TrimSpace(base)
	if base == "" {
		return nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil
	}
	return u
}

func absolutize(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	return base.ResolveReference(u).String()
}
