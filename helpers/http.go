package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"slices"
	"strings"
	"time"

	sniperrors "sjsage522/profitsniper/pkg/errors"

	"golang.org/x/net/html/charset"
)

// HTTP client and header configurations
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}

	referers = []string{
		"https://www.google.co.jp/",
		"https://auctions.yahoo.co.jp/",
		"https://zenmarket.jp/",
	}
)

// Fetcher performs GET requests with browser-like headers
type Fetcher struct {
	client *http.Client
	rnd    *mathrand.Rand
}

// NewFetcher creates a fetcher with the given timeout. A nil transport uses http.DefaultTransport.
func NewFetcher(timeout time.Duration, transport http.RoundTripper) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout, Transport: transport},
		rnd:    mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
	}
}

// Client exposes the underlying HTTP client for JSON endpoints
func (f *Fetcher) Client() *http.Client {
	return f.client
}

// Fetch sends a GET request with randomized headers,
// converts the response body to UTF-8 (if needed), and returns it as an io.Reader.
func (f *Fetcher) Fetch(ctx context.Context, url string) (io.Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgents[f.rnd.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ja,en-US;q=0.9,en;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Referer", referers[f.rnd.Intn(len(referers))])

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, sniperrors.NewNetwork("fetch", "request failed", err)
	}
	defer resp.Body.Close()

	// Check for rate limiting
	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode) {
		retryAfter, _ := time.ParseDuration(resp.Header.Get("Retry-After") + "s")
		return nil, sniperrors.NewRateLimit(url, retryAfter)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, sniperrors.NewNetwork("fetch", fmt.Sprintf("%s unexpected status code: %d", url, resp.StatusCode), nil)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, sniperrors.NewNetwork("fetch", "failed to read response body", err)
	}

	return toUTF8(bodyBytes, resp.Header.Get("Content-Type"))
}

// toUTF8 determines the encoding from Content-Type and body content, then decodes
func toUTF8(body []byte, contentType string) (io.Reader, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)
	if strings.EqualFold(name, "utf-8") {
		return bytes.NewReader(body), nil
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, encoding.NewDecoder().Reader(bytes.NewReader(body))); err != nil {
		return nil, sniperrors.NewParsing("fetch", "failed to convert body to UTF-8", err)
	}
	return &buf, nil
}
