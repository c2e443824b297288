package services

import (
	"compress/gzip"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PageFetcher downloads the raw text of a linked external page. It performs
// exactly one outbound request per call: retry policy belongs to callers,
// and here there is none — a failed fetch is reported, not retried.
type PageFetcher struct {
	httpClient *http.Client
	userAgent  string
}

// NewPageFetcher creates a fetcher with a TLS-pinned transport. Per-call
// deadlines are handled via context, so the client itself carries no timeout.
func NewPageFetcher() *PageFetcher {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
			MaxVersion: tls.VersionTLS13,
		},
		DisableKeepAlives: false,
		IdleConnTimeout:   90 * time.Second,
	}

	return &PageFetcher{
		httpClient: &http.Client{Transport: transport},
		userAgent:  "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

// FetchText GETs url and returns the response body as text. timeout == 0
// means no per-call deadline beyond what ctx already carries. A non-2xx
// status yields *FetchError; a blown deadline cancels the in-flight request
// and yields *TimeoutError.
func (f *PageFetcher) FetchText(ctx context.Context, url string, timeout time.Duration) (string, error) {
	if url == "" {
		return "", fmt.Errorf("url cannot be empty")
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	f.setBrowserHeaders(req)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &TimeoutError{URL: url, Timeout: timeout, Err: err}
		}
		return "", fmt.Errorf("page request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &FetchError{URL: url, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &TimeoutError{URL: url, Timeout: timeout, Err: err}
		}
		return "", fmt.Errorf("failed to read page body: %w", err)
	}

	return string(content), nil
}

// setBrowserHeaders mimics a real browser; some event pages reject bare
// Go-http-client requests.
func (f *PageFetcher) setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "identity")
	req.Header.Set("Connection", "keep-alive")
}
