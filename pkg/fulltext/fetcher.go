package fulltext

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

var defaultHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language": "zh-CN,zh;q=0.9",
}

// maxBodyBytes caps how much of a page is read.
const maxBodyBytes = 4 << 20

type Options struct {
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
}

// Fetcher downloads article pages and reduces them to readable text.
type Fetcher struct {
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
}

func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 300 * time.Millisecond
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: opts.Timeout},
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
	}
}

// StatusError is returned for a non-2xx response after retries are exhausted.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// FetchHTML returns the raw page body. 500/502/503/504 and transport errors
// are retried with exponential backoff.
func (f *Fetcher) FetchHTML(ctx context.Context, pageURL string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			wait := f.backoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}

		body, retry, err := f.fetchOnce(ctx, pageURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, pageURL string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("build request: %w", err)
	}
	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return "", retryableStatus(resp.StatusCode), &StatusError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", true, fmt.Errorf("read %s: %w", pageURL, err)
	}
	return string(data), false, nil
}

type Page struct {
	URL   string
	Title string
	Text  string
}

// Fetch downloads a page and extracts its title and main text. A page with
// empty Text and a nil error loaded fine but had nothing readable.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (Page, error) {
	html, err := f.FetchHTML(ctx, pageURL)
	if err != nil {
		return Page{URL: pageURL}, err
	}
	page := Extract(html, pageURL)
	page.URL = pageURL
	return page, nil
}
