// Package render loads pages in headless Chrome so that tables built by
// client-side scripts are present in the returned HTML.
package render

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

const defaultTimeout = 60 * time.Second

// Client renders one page per Get call in a fresh browser context.
type Client struct {
	// Timeout bounds navigation plus serialization. Zero means 60s.
	Timeout time.Duration
	// UserAgent overrides Chrome's own UA string when set.
	UserAgent string
	// WaitSelector is awaited before the DOM is read. Empty means "body".
	WaitSelector string
	// Settle is an extra pause after WaitSelector for late scripts.
	Settle time.Duration
	// ChromePath points at a specific Chrome or Chromium binary.
	ChromePath string
	// Headers are sent with the navigation request.
	Headers map[string]string
}

// Get renders rawURL and returns the serialized document.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("parse url: %w", err)
	}
	if s := strings.ToLower(u.Scheme); s != "http" && s != "https" {
		return nil, "", fmt.Errorf("unsupported URL scheme: %q", rawURL)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, c.allocatorOptions()...)
	defer allocCancel()

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	tctx, cancel := context.WithTimeout(allocCtx, timeout)
	defer cancel()
	bctx, bcancel := chromedp.NewContext(tctx)
	defer bcancel()

	wait := c.WaitSelector
	if wait == "" {
		wait = "body"
	}

	start := time.Now()
	var doc string
	actions := []chromedp.Action{}
	if len(c.Headers) > 0 {
		h := network.Headers{}
		for k, v := range c.Headers {
			h[k] = v
		}
		actions = append(actions, network.Enable(), network.SetExtraHTTPHeaders(h))
	}
	actions = append(actions,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady(wait, chromedp.ByQuery),
	)
	if c.Settle > 0 {
		actions = append(actions, chromedp.Sleep(c.Settle))
	}
	actions = append(actions, chromedp.OuterHTML("html", &doc, chromedp.ByQuery))

	if err := chromedp.Run(bctx, actions...); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, "", fmt.Errorf("render %s: timed out after %s", rawURL, timeout)
		}
		return nil, "", fmt.Errorf("render %s: %w", rawURL, err)
	}
	log.Debug().Str("url", rawURL).Dur("elapsed", time.Since(start)).Int("bytes", len(doc)).Msg("page rendered")
	return []byte(doc), "text/html; charset=utf-8", nil
}

func (c *Client) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
	)
	if c.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(c.UserAgent))
	}
	if c.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(c.ChromePath))
	}
	return opts
}
