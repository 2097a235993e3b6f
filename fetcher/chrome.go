package fetcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"agentharvest/utils"
)

// ChromeOptions configures a ChromeFetcher.
type ChromeOptions struct {
	ChromeBin string
	UserAgent string
	Proxy     string
	Timeout   time.Duration
	// Settle is how long to wait after navigation before reading the DOM.
	Settle time.Duration
	Logger *utils.Logger
}

// ChromeFetcher renders pages in one headless Chrome tab. All requests share
// the tab, so cookies and history behave like a single browsing session.
type ChromeFetcher struct {
	logger  *utils.Logger
	timeout time.Duration
	settle  time.Duration

	mu          sync.Mutex
	started     bool
	tabCtx      context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// NewChromeFetcher starts Chrome and opens the tab used for every fetch.
// Call Close to shut the browser down.
func NewChromeFetcher(opts ChromeOptions) *ChromeFetcher {
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	bin := opts.ChromeBin
	if bin == "" {
		bin = findChromeBinary()
	}
	logger.Info("[fetcher] Using browser binary: %s", bin)

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = desktopUserAgents[0]
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(userAgent),
	)
	if bin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(bin))
	}
	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	// Suppress chromedp log noise
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	settle := opts.Settle
	if settle <= 0 {
		settle = 3 * time.Second
	}

	return &ChromeFetcher{
		logger:      logger,
		timeout:     timeout,
		settle:      settle,
		tabCtx:      tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}
}

// Fetch implements PageFetcher. It returns the rendered document HTML.
func (f *ChromeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	// The first Run allocates the browser and must use the long-lived tab
	// context, otherwise the browser dies with the per-request timeout.
	if !f.started {
		if err := chromedp.Run(f.tabCtx); err != nil {
			return "", networkError(url, fmt.Errorf("start chrome: %w", err))
		}
		f.started = true
	}

	runCtx, cancel := context.WithTimeout(f.tabCtx, f.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	f.logger.Debug("[fetcher] chrome navigate %s", url)
	resp, err := chromedp.RunResponse(runCtx, chromedp.Navigate(url))
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", networkError(url, fmt.Errorf("chromedp navigate: %w", err))
	}
	if resp != nil {
		if err := classifyStatus(url, int(resp.Status)); err != nil {
			return "", err
		}
	}

	var html string
	if err := chromedp.Run(runCtx,
		chromedp.Sleep(f.settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", networkError(url, fmt.Errorf("chromedp read document: %w", err))
	}
	return html, nil
}

// Close shuts down the tab and the browser.
func (f *ChromeFetcher) Close() {
	f.cancelTab()
	f.cancelAlloc()
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
