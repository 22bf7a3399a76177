package tasks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxBodyBytes = 10 << 20

// Fetcher performs the outbound GETs for newsroom feeds and article pages.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
}

func NewFetcher(httpClient *http.Client, userAgent string) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Fetcher{httpClient: httpClient, userAgent: userAgent}
}

func (f *Fetcher) FetchFeed(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	return f.get(ctx, url, timeout, "")
}

// FetchPage fetches an HTML page; other content types are rejected.
func (f *Fetcher) FetchPage(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	return f.get(ctx, url, timeout, "text/html")
}

func (f *Fetcher) get(ctx context.Context, url string, timeout time.Duration, wantType string) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	if wantType != "" {
		contentType := resp.Header.Get("Content-Type")
		if !strings.Contains(strings.ToLower(contentType), wantType) {
			return nil, fmt.Errorf("content type is not HTML: %s", contentType)
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
