// Package fetch provides headless-browser page fetching and DOM text
// extraction. Source sites render their listings and chapter bodies with
// JavaScript, so every fetch goes through a real browser; each logical
// request gets its own scoped tab context that is independently closable.
package fetch

import (
	"context"
	"math/rand"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// userAgents is a small pool; every tab picks one at random.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.114 Safari/537.36",
}

func randomUA() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// Browser owns a headless Chrome instance shared by all fetches in a run.
// It is the single shared browser resource, held explicitly so cancellation
// can release it deterministically.
type Browser struct {
	browserCtx context.Context
	cancels    []context.CancelFunc
}

// NewBrowser launches headless Chrome. The returned Browser must be closed
// when the run ends; closing releases the Chrome process.
func NewBrowser(ctx context.Context) (*Browser, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.UserAgent(randomUA()),
		)...,
	)

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Start the browser now so a missing Chrome binary fails the run up
	// front instead of on the first page fetch.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, &FetchError{Message: "failed to start browser", Cause: err}
	}

	return &Browser{
		browserCtx: browserCtx,
		cancels:    []context.CancelFunc{cancelBrowser, cancelAlloc},
	}, nil
}

// Close shuts the browser down.
func (b *Browser) Close() {
	for _, cancel := range b.cancels {
		cancel()
	}
}

// Tab is a scoped fetch context: one browser tab serving one logical
// request, closable without affecting the shared browser. Each tab
// presents its own user agent.
type Tab struct {
	ctx    context.Context
	cancel context.CancelFunc
	ua     string
}

// NewTab opens a fresh tab with a user agent drawn from the pool.
func (b *Browser) NewTab() *Tab {
	ctx, cancel := chromedp.NewContext(b.browserCtx)
	return &Tab{ctx: ctx, cancel: cancel, ua: randomUA()}
}

// Close releases the tab.
func (t *Tab) Close() {
	t.cancel()
}

// Fetch navigates the tab to url, waits for the page body and then for
// waitSelector to appear (skipped when empty), and returns the rendered
// document HTML. The whole operation is bounded by timeout and by ctx.
func (t *Tab) Fetch(ctx context.Context, url, waitSelector string, timeout time.Duration) (string, error) {
	runCtx, cancel := context.WithTimeout(t.ctx, timeout)
	defer cancel()

	// Honor the caller's cancellation as well as the tab lifetime.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	actions := []chromedp.Action{
		emulation.SetUserAgentOverride(t.ua),
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	}
	if waitSelector != "" {
		actions = append(actions, chromedp.WaitVisible(waitSelector, chromedp.ByQuery))
	}
	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html))

	if err := chromedp.Run(runCtx, actions...); err != nil {
		return "", &FetchError{URL: url, Message: "page fetch failed", Cause: err}
	}
	return html, nil
}

// FetchPage serves one logical request: it opens a fresh tab, fetches the
// page, and closes the tab before returning, so cancellation mid-fetch can
// never leak a tab.
func (b *Browser) FetchPage(ctx context.Context, url, waitSelector string, timeout time.Duration) (string, error) {
	tab := b.NewTab()
	defer tab.Close()
	return tab.Fetch(ctx, url, waitSelector, timeout)
}

// Jitter returns a uniformly random delay in [min, max].
func Jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// Sleep waits for d or until ctx is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
