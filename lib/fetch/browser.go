package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/thalesraymond/walland/lib/log"
)

// BrowserFetcher loads pages in headless Chrome. It is used for HTML
// sources that turn away clients whose TLS handshake is not a browser's.
type BrowserFetcher struct {
	UserAgent string
	Timeout   time.Duration
}

// Get navigates to rawURL and returns the rendered document.
func (b *BrowserFetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	userAgent := b.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	timeout := b.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	taskCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Debugf))
	defer cancel()

	taskCtx, cancel = context.WithTimeout(taskCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(rawURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: browser load %s: %v", ErrFetchFailed, rawURL, err)
	}

	log.Debugf("Loaded %s in browser (%d bytes)", rawURL, len(html))
	return []byte(html), nil
}
