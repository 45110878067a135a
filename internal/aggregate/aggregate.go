// Package aggregate canonicalizes the page URLs given to a run so that the
// same page listed twice is fetched and extracted once.
package aggregate

import (
	"net/url"
	"strings"
)

var trackingParams = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "utm_id", "gclid", "fbclid"}

// NormalizeURLs canonicalizes each URL and drops later duplicates, keeping
// the first occurrence's position. Blank entries are dropped; unparseable
// ones are kept verbatim so the fetcher can report them.
func NormalizeURLs(raw []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		key := r
		if u, err := url.Parse(r); err == nil {
			normalizeURL(u)
			key = u.String()
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

// normalizeURL drops the fragment, lowercases scheme and host, and removes
// tracking parameters. The query is re-encoded only when something was
// removed, so parameter order is otherwise preserved.
func normalizeURL(u *url.URL) {
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.RawQuery == "" {
		return
	}
	q := u.Query()
	removed := false
	for _, p := range trackingParams {
		if q.Has(p) {
			q.Del(p)
			removed = true
		}
	}
	if removed {
		u.RawQuery = q.Encode()
	}
}
