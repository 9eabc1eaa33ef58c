// Package fetch performs the HTTP requests walland makes: scraping source
// documents, querying APIs and downloading the chosen image.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrFetchFailed wraps every network failure and non-2xx response.
var ErrFetchFailed = errors.New("fetch failed")

// DefaultUserAgent is a desktop Chrome signature. Several providers reject
// requests that do not look like they come from a browser.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

const defaultTimeout = 60 * time.Second

// browserTransport wraps an http.RoundTripper and adds the headers a browser
// would send.
type browserTransport struct {
	http.RoundTripper
	UserAgent string
}

// RoundTrip executes a single HTTP transaction with browser headers.
func (t *browserTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	clonedReq := req.Clone(req.Context())
	clonedReq.Header.Set("User-Agent", t.UserAgent)
	if clonedReq.Header.Get("Accept") == "" {
		clonedReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	}
	if clonedReq.Header.Get("Accept-Language") == "" {
		clonedReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	}
	return t.RoundTripper.RoundTrip(clonedReq)
}

// Client issues GET requests that impersonate a desktop browser.
type Client struct {
	httpClient *http.Client
}

// NewClient returns a Client sending userAgent on every request. base may be
// nil to use http.DefaultTransport.
func NewClient(userAgent string, base http.RoundTripper) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if base == nil {
		base = http.DefaultTransport
	}
	return &Client{
		httpClient: &http.Client{
			Transport: &browserTransport{RoundTripper: base, UserAgent: userAgent},
			Timeout:   defaultTimeout,
		},
	}
}

// Open performs one GET and returns the response when its status is 2xx.
// The caller closes the body.
func (c *Client) Open(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request for %s: %v", ErrFetchFailed, rawURL, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned status: %d", ErrFetchFailed, rawURL, resp.StatusCode)
	}
	return resp, nil
}

// Get performs one GET and returns the whole body.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.Open(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrFetchFailed, rawURL, err)
	}
	return body, nil
}
