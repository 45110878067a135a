package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/hyperifyio/gocatalog/internal/cache"
)

// DefaultHeaders mimic a desktop browser; several catalog sites refuse
// requests that do not look like one.
var DefaultHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9,ja;q=0.6",
	"Upgrade-Insecure-Requests": "1",
}

// DefaultUserAgent is sent when Client.UserAgent is empty.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/140.0.0.0 Safari/537.36"

// Client fetches catalog pages with timeouts, bounded retry on transient
// errors, optional conditional caching and per-client politeness limits.
// Returned bodies are decoded to UTF-8.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// Headers are added to every request; nil means DefaultHeaders.
	Headers map[string]string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each request.
	PerRequestTimeout time.Duration
	// Cache, when set, enables If-None-Match / If-Modified-Since revalidation.
	Cache *cache.PageCache
	// BypassCache skips revalidation but still stores fresh responses.
	BypassCache bool
	// RedirectMaxHops caps redirect following. Zero means 5.
	RedirectMaxHops int
	// MaxConcurrent limits in-flight requests. Zero means unlimited.
	MaxConcurrent int
	// Limiter, when set, paces every request including cookie priming.
	Limiter *rate.Limiter
	// PrimeCookies requests the site root once per host before the first
	// page so session cookies are in the jar.
	PrimeCookies bool

	initOnce sync.Once
	client   *http.Client
	limiter  chan struct{}

	primeMu sync.Mutex
	primed  map[string]bool
}

func (c *Client) init() {
	c.initOnce.Do(func() {
		var base http.Client
		if c.HTTPClient != nil {
			base = *c.HTTPClient
		} else {
			base.Timeout = c.PerRequestTimeout
		}
		base.CheckRedirect = c.checkRedirectFunc()
		if base.Jar == nil && c.PrimeCookies {
			if jar, err := cookiejar.New(nil); err == nil {
				base.Jar = jar
			}
		}
		c.client = &base
		if c.MaxConcurrent > 0 {
			c.limiter = make(chan struct{}, c.MaxConcurrent)
		}
		c.primed = make(map[string]bool)
	})
}

// Get fetches rawURL and returns the UTF-8 body and its content type.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	c.init()
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("parse url: %w", err)
	}
	if !isHTTPScheme(u) {
		return nil, "", fmt.Errorf("unsupported URL scheme: %q", rawURL)
	}
	if c.PrimeCookies {
		c.prime(ctx, u)
	}

	var etag, lastMod string
	if c.Cache != nil && !c.BypassCache {
		if meta, err := c.Cache.Meta(ctx, rawURL); err == nil && meta != nil {
			etag, lastMod = meta.ETag, meta.LastModified
		}
	}

	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		res, err := c.tryOnce(ctx, rawURL, etag, lastMod)
		if err == nil {
			return c.finish(ctx, rawURL, res)
		}
		lastErr = err
		if !isTransient(err) || i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(time.Duration(i+1) * 200 * time.Millisecond):
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return nil, "", lastErr
}

type response struct {
	status      int
	body        []byte
	contentType string
	etag        string
	lastMod     string
}

// finish stores fresh bodies, serves 304s from the cache and decodes.
func (c *Client) finish(ctx context.Context, rawURL string, res response) ([]byte, string, error) {
	body, ct := res.body, res.contentType
	if res.status == http.StatusNotModified {
		if c.Cache == nil {
			return nil, "", errors.New("not modified without cache")
		}
		cached, err := c.Cache.Body(ctx, rawURL)
		if err != nil {
			return nil, "", fmt.Errorf("load cached body: %w", err)
		}
		if meta, err := c.Cache.Meta(ctx, rawURL); err == nil && meta.ContentType != "" {
			ct = meta.ContentType
		}
		body = cached
		log.Debug().Str("url", rawURL).Msg("served from cache")
	} else if c.Cache != nil {
		entry := cache.PageEntry{URL: rawURL, ContentType: ct, ETag: res.etag, LastModified: res.lastMod}
		if err := c.Cache.Put(ctx, entry, body); err != nil {
			log.Warn().Err(err).Str("url", rawURL).Msg("cache write failed")
		}
	}
	return decode(body, ct), ct, nil
}

func (c *Client) tryOnce(ctx context.Context, rawURL, etag, lastMod string) (response, error) {
	if err := c.acquire(ctx); err != nil {
		return response{}, err
	}
	defer c.release()

	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
	}
	req, err := c.newRequest(ctx, rawURL)
	if err != nil {
		return response{}, err
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()

	res := response{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		etag:        resp.Header.Get("ETag"),
		lastMod:     resp.Header.Get("Last-Modified"),
	}
	switch {
	case resp.StatusCode >= 500 && resp.StatusCode <= 599:
		return res, fmt.Errorf("server error: %d", resp.StatusCode)
	case resp.StatusCode == http.StatusNotModified:
		return res, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return res, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if !isAllowedHTMLContentType(res.contentType) {
		return res, fmt.Errorf("unsupported content type: %s", res.contentType)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return res, fmt.Errorf("read body: %w", err)
	}
	res.body = b
	return res, nil
}

func (c *Client) newRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	ua := c.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	headers := c.Headers
	if headers == nil {
		headers = DefaultHeaders
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// prime visits scheme://host/ once per host. Failures are ignored; the real
// request decides whether the page is reachable.
func (c *Client) prime(ctx context.Context, u *url.URL) {
	root := u.Scheme + "://" + u.Host + "/"
	c.primeMu.Lock()
	done := c.primed[root]
	c.primed[root] = true
	c.primeMu.Unlock()
	if done {
		return
	}
	if err := c.acquire(ctx); err != nil {
		return
	}
	defer c.release()
	req, err := c.newRequest(ctx, root)
	if err != nil {
		return
	}
	resp, err := c.client.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("root", root).Msg("cookie priming failed")
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// decode converts body to UTF-8 using the declared or sniffed charset.
func decode(body []byte, contentType string) []byte {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return body
	}
	return out
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(err.Error(), "server error:")
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isAllowedHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

// acquire waits for the rate limiter and a concurrency slot.
func (c *Client) acquire(ctx context.Context) error {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if c.limiter == nil {
		return nil
	}
	select {
	case c.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) release() {
	if c.limiter == nil {
		return
	}
	select {
	case <-c.limiter:
	default:
	}
}
