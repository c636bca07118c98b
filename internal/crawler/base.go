package crawler

import (
	"context"
	"io"
	"net/url"
	"time"

	"sjsage522/profitsniper/logger"
	sniperrors "sjsage522/profitsniper/pkg/errors"
	"sjsage522/profitsniper/services/cache"

	"github.com/PuerkitoBio/goquery"
)

const blockKeyPrefix = "sniper:block:"

// CachedFetcher wraps a PageFetcher with per-host rate-limit blocks kept in
// a shared cache, so every process sharing the cache backs off together.
type CachedFetcher struct {
	fetcher   PageFetcher
	cache     cache.CacheService
	blockTime time.Duration
	log       *logger.Logger
}

// NewCachedFetcher creates a fetcher that blocks a host for blockTime after it rate limits us.
// A nil cache disables blocking.
func NewCachedFetcher(fetcher PageFetcher, c cache.CacheService, blockTime time.Duration) *CachedFetcher {
	if blockTime <= 0 {
		blockTime = 5 * time.Minute
	}
	return &CachedFetcher{
		fetcher:   fetcher,
		cache:     c,
		blockTime: blockTime,
		log:       logger.ForComponent("fetch"),
	}
}

// Fetch returns a rate limit error without a request while the host is blocked
func (c *CachedFetcher) Fetch(ctx context.Context, rawURL string) (io.Reader, error) {
	key := blockKey(rawURL)
	if cache.IsBlocked(c.cache, key) {
		return nil, sniperrors.NewRateLimit(hostOf(rawURL), c.blockTime)
	}

	body, err := c.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		if sniperrors.IsType(err, sniperrors.ErrorTypeRateLimit) {
			if berr := cache.Block(c.cache, key, c.blockTime); berr != nil {
				c.log.Warn().Err(berr).Str("key", key).Msg("Failed to set rate limit block")
			} else {
				c.log.Warn().
					Str("host", hostOf(rawURL)).
					Dur("block", c.blockTime).
					Msg("Rate limited, blocking host")
			}
		}
		return nil, err
	}
	return body, nil
}

func blockKey(rawURL string) string {
	return blockKeyPrefix + hostOf(rawURL)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}

// createDocument parses a UTF-8 page
func createDocument(reader io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, sniperrors.NewParsing("crawler", "HTML parse error", err)
	}
	return doc, nil
}
