// Package robots decides whether catalog pages may be fetched according to
// the site's robots.txt. Rules are fetched once per host and kept in memory.
package robots

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/hyperifyio/gocatalog/internal/cache"
)

// ErrDisallowed is returned by Check when robots.txt forbids the page.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// Checker fetches and evaluates robots.txt files.
type Checker struct {
	HTTPClient *http.Client
	// UserAgent selects the rule group and is sent with the request.
	UserAgent string
	// Cache, when set, revalidates robots.txt with ETag / Last-Modified.
	Cache *cache.PageCache
	// Expiry bounds how long parsed rules stay in memory. Zero means 30m.
	Expiry time.Duration

	mu    sync.Mutex
	rules map[string]entry
	now   func() time.Time
}

type entry struct {
	rules   Rules
	expires time.Time
}

// Check returns nil when pageURL may be fetched and an error wrapping
// ErrDisallowed when it may not.
func (c *Checker) Check(ctx context.Context, pageURL string) error {
	u, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	rules, err := c.For(ctx, u)
	if err != nil {
		return err
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	if !rules.Allowed(c.UserAgent, path) {
		return fmt.Errorf("%w: %s", ErrDisallowed, pageURL)
	}
	return nil
}

// For returns the rules that apply to u's host.
func (c *Checker) For(ctx context.Context, u *url.URL) (Rules, error) {
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return Rules{}, fmt.Errorf("unsupported url scheme: %q", u.String())
	}
	robotsURL := scheme + "://" + u.Host + "/robots.txt"
	now := c.clock()

	c.mu.Lock()
	if e, ok := c.rules[robotsURL]; ok && now.Before(e.expires) {
		c.mu.Unlock()
		return e.rules, nil
	}
	c.mu.Unlock()

	rules, err := c.fetch(ctx, robotsURL)
	if err != nil {
		return Rules{}, err
	}
	exp := c.Expiry
	if exp <= 0 {
		exp = 30 * time.Minute
	}
	c.mu.Lock()
	if c.rules == nil {
		c.rules = make(map[string]entry)
	}
	c.rules[robotsURL] = entry{rules: rules, expires: now.Add(exp)}
	c.mu.Unlock()
	return rules, nil
}

func (c *Checker) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

// fetch loads robots.txt. A 4xx means no restrictions; a 5xx or network
// failure disallows everything for this run.
func (c *Checker) fetch(ctx context.Context, robotsURL string) (Rules, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return Rules{}, fmt.Errorf("new request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.Cache != nil {
		if meta, err := c.Cache.Meta(ctx, robotsURL); err == nil {
			if meta.ETag != "" {
				req.Header.Set("If-None-Match", meta.ETag)
			}
			if meta.LastModified != "" {
				req.Header.Set("If-Modified-Since", meta.LastModified)
			}
		}
	}
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return disallowAll(), nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && c.Cache != nil:
		body, err := c.Cache.Body(ctx, robotsURL)
		if err != nil {
			return Rules{}, fmt.Errorf("load cached robots: %w", err)
		}
		return Parse(string(body)), nil
	case resp.StatusCode >= 500:
		return disallowAll(), nil
	case resp.StatusCode >= 400:
		return Rules{}, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Rules{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return Rules{}, fmt.Errorf("read robots: %w", err)
	}
	if c.Cache != nil {
		_ = c.Cache.Put(ctx, cache.PageEntry{
			URL:          robotsURL,
			ContentType:  resp.Header.Get("Content-Type"),
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}, body)
	}
	return Parse(string(body)), nil
}

// Rules is a parsed robots.txt.
type Rules struct {
	groups []group
}

type group struct {
	agents []string
	rules  []rule
}

type rule struct {
	allow bool
	re    *regexp.Regexp
	// weight is the pattern length without wildcards.
	weight int
}

func disallowAll() Rules {
	return Rules{groups: []group{{agents: []string{"*"}, rules: []rule{compileRule("/", false)}}}}
}

// Parse reads robots.txt text. Unknown directives are ignored.
func Parse(text string) Rules {
	var rs Rules
	var cur *group
	inRules := false
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		switch key {
		case "user-agent":
			if cur == nil || inRules {
				rs.groups = append(rs.groups, group{})
				cur = &rs.groups[len(rs.groups)-1]
				inRules = false
			}
			cur.agents = append(cur.agents, strings.ToLower(val))
		case "allow", "disallow":
			if cur == nil {
				continue
			}
			inRules = true
			if val == "" {
				continue
			}
			cur.rules = append(cur.rules, compileRule(val, key == "allow"))
		}
	}
	return rs
}

func compileRule(pattern string, allow bool) rule {
	anchored := strings.HasSuffix(pattern, "$")
	p := strings.TrimSuffix(pattern, "$")
	parts := strings.Split(p, "*")
	for i := range parts {
		parts[i] = regexp.QuoteMeta(parts[i])
	}
	expr := "^" + strings.Join(parts, ".*")
	if anchored {
		expr += "$"
	}
	return rule{allow: allow, re: regexp.MustCompile(expr), weight: len(strings.ReplaceAll(p, "*", ""))}
}

// Allowed applies the longest matching rule of the best agent group; on a tie
// Allow wins. No matching group or rule means allowed.
func (r Rules) Allowed(userAgent, path string) bool {
	g := r.groupFor(userAgent)
	if g == nil {
		return true
	}
	best, allowed := -1, true
	for _, ru := range g.rules {
		if !ru.re.MatchString(path) {
			continue
		}
		if ru.weight > best || (ru.weight == best && ru.allow) {
			best, allowed = ru.weight, ru.allow
		}
	}
	return allowed
}

// groupFor picks the group whose agent token is the longest substring of
// userAgent, falling back to "*".
func (r Rules) groupFor(userAgent string) *group {
	ua := strings.ToLower(userAgent)
	var best *group
	bestLen := -1
	for i := range r.groups {
		for _, a := range r.groups[i].agents {
			n := -1
			switch {
			case a == "*":
				n = 0
			case a != "" && strings.Contains(ua, a):
				n = len(a)
			}
			if n > bestLen {
				best, bestLen = &r.groups[i], n
			}
		}
	}
	return best
}
