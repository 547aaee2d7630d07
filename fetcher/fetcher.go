// Package fetcher drives headless Chrome sessions that render external
// market sites and return their final markup.
package fetcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"cotton-crawler/config"
	"cotton-crawler/utils"
)

// Fetcher renders pages in disposable browser sessions. Each Fetch call gets
// its own browser context so no cookies or cached DOM leak between sources;
// concurrent calls are safe.
type Fetcher struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	timeout     time.Duration
	settle      time.Duration
	logger      *utils.Logger
}

// New builds a Fetcher from config. The exec allocator is shared; browser
// sessions are created per fetch.
func New(cfg *config.Config, logger *utils.Logger) *Fetcher {
	chromeBin := findChromeBinary(cfg.ChromeBin)
	logger.Info("[fetcher] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Fetcher{
		allocCtx:    allocCtx,
		cancelAlloc: cancelAlloc,
		timeout:     time.Duration(cfg.FetchTimeoutMs) * time.Millisecond,
		settle:      time.Duration(cfg.SettleMs) * time.Millisecond,
		logger:      logger,
	}
}

// Fetch navigates to url in a fresh browser session, waits for the page to
// settle, and returns the rendered markup. The session is torn down on every
// exit path. Navigation and timeout failures are returned, not swallowed.
//
// Settling is WaitReady on the document body followed by a fixed sleep. The
// target sites render quotes from late XHR responses with no DOM marker to
// wait on, so a bounded sleep after readiness is the reliable idle signal;
// the overall timeout still caps the worst case.
func (f *Fetcher) Fetch(url string) (string, error) {
	// Deriving from the allocator (not an existing browser context) starts a
	// fresh browser, so no cookies or cached DOM carry over between sources.
	ctx, cancel := chromedp.NewContext(f.allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancel()

	ctx, cancelTimeout := context.WithTimeout(ctx, f.timeout)
	defer cancelTimeout()

	start := time.Now()
	var html string

	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(f.settle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}

	f.logger.Debug("[fetcher] %s rendered in %v (%d bytes)", url, time.Since(start), len(html))
	return html, nil
}

// Close tears down the shared allocator.
func (f *Fetcher) Close() {
	f.cancelAlloc()
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
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
