// Package browser manages a shared headless Chrome allocator for source
// adapters that scrape JavaScript-rendered directories. Each page visit runs
// in its own tab; the Chrome process itself is launched lazily on first use
// and reused until Close.
package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"

	"github.com/gymscout/leads-cli/internal/fetcher"
)

// Options configures a browser session.
type Options struct {
	// Headless runs Chrome without a visible window. Adapters pass the
	// negation of the --headed flag here.
	Headless bool

	// Timeout bounds a single page visit, navigation through HTML capture.
	Timeout time.Duration

	// UserAgent overrides the default Chrome user agent string.
	UserAgent string
}

// Session owns a Chrome exec allocator. It is safe to create a Session and
// never use it; Chrome only starts when the first page is requested.
type Session struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
}

// NewSession prepares a Chrome allocator bound to the parent context.
// Call Close to release the browser process.
func NewSession(parent context.Context, opts Options) *Session {
	if opts.Timeout <= 0 {
		opts.Timeout = 45 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = fetcher.ChromeUserAgent
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		// Images and fonts are dead weight for DOM scraping.
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.WindowSize(1440, 900),
		chromedp.UserAgent(opts.UserAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(parent, allocOpts...)
	return &Session{
		allocCtx: allocCtx,
		cancel:   cancel,
		timeout:  opts.Timeout,
	}
}

// Close releases the allocator and the Chrome process if one was started.
func (s *Session) Close() {
	s.cancel()
}

type pageConfig struct {
	consentSelector string
	waitSelector    string
	scrolls         int
	scrollPause     time.Duration
	settle          time.Duration
}

// PageOption tunes a single page visit.
type PageOption func(*pageConfig)

// WithConsentClick clicks the selector if it becomes visible shortly after
// load. Missing consent banners are not an error.
func WithConsentClick(selector string) PageOption {
	return func(c *pageConfig) {
		c.consentSelector = selector
	}
}

// WithWaitVisible waits up to ten seconds for the selector before capturing
// HTML. An absent selector is tolerated; the caller inspects the result.
func WithWaitVisible(selector string) PageOption {
	return func(c *pageConfig) {
		c.waitSelector = selector
	}
}

// WithScrolls scrolls to the bottom of the page n times, pausing between
// scrolls so lazy-loaded results can render.
func WithScrolls(n int, pause time.Duration) PageOption {
	return func(c *pageConfig) {
		c.scrolls = n
		c.scrollPause = pause
	}
}

// WithSettle sleeps after navigation and scrolling, before HTML capture.
func WithSettle(d time.Duration) PageOption {
	return func(c *pageConfig) {
		c.settle = d
	}
}

// HTML navigates to pageURL in a fresh tab and returns the rendered outer
// HTML. The visit is bounded by the session timeout and by ctx.
func (s *Session) HTML(ctx context.Context, pageURL string, opts ...PageOption) (string, error) {
	cfg := pageConfig{
		scrollPause: 1200 * time.Millisecond,
		settle:      2 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	tabCtx, cancelTab := chromedp.NewContext(s.allocCtx)
	defer cancelTab()

	// The tab derives from the allocator context; propagate the caller's
	// cancellation by hand.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, s.timeout)
	defer cancelTimeout()

	actions := []chromedp.Action{
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
	}
	if cfg.consentSelector != "" {
		actions = append(actions, clickIfVisible(cfg.consentSelector, 3*time.Second))
	}
	if cfg.waitSelector != "" {
		actions = append(actions, waitVisibleWithin(cfg.waitSelector, 10*time.Second))
	}
	for range cfg.scrolls {
		actions = append(actions,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(cfg.scrollPause),
		)
	}
	if cfg.settle > 0 {
		actions = append(actions, chromedp.Sleep(cfg.settle))
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html))

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return "", eris.Wrapf(err, "render %s", pageURL)
	}
	return html, nil
}

// clickIfVisible clicks the selector if it shows up within wait. Cookie and
// consent banners come and go; their absence must not fail the visit.
func clickIfVisible(selector string, wait time.Duration) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		clickCtx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()
		_ = chromedp.Click(selector, chromedp.NodeVisible, chromedp.ByQuery).Do(clickCtx)
		return nil
	})
}

// waitVisibleWithin waits for the selector up to d, then proceeds either way.
func waitVisibleWithin(selector string, d time.Duration) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		waitCtx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		_ = chromedp.WaitVisible(selector, chromedp.ByQuery).Do(waitCtx)
		return nil
	})
}
