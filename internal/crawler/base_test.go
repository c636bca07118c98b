package crawler

import (
	"context"
	"io"
	"testing"
	"time"

	sniperrors "sjsage522/profitsniper/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedFetcherPassesThrough(t *testing.T) {
	inner := &MockFetcher{pages: map[string]string{"https://example.com/a": "<html>ok</html>"}}
	f := NewCachedFetcher(inner, NewMockCacheService(), time.Minute)

	body, err := f.Fetch(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	data, _ := io.ReadAll(body)
	assert.Equal(t, "<html>ok</html>", string(data))
}

func TestCachedFetcherBlocksHostAfterRateLimit(t *testing.T) {
	mockCache := NewMockCacheService()
	inner := &MockFetcher{err: sniperrors.NewRateLimit("https://zenmarket.test/x", 0)}
	f := NewCachedFetcher(inner, mockCache, time.Minute)

	_, err := f.Fetch(context.Background(), "https://zenmarket.test/item?itemCode=1")
	assert.True(t, sniperrors.IsType(err, sniperrors.ErrorTypeRateLimit))
	_, blocked := mockCache.cache["sniper:block:zenmarket.test"]
	assert.True(t, blocked)

	// blocked host is not requested again
	inner.err = nil
	_, err = f.Fetch(context.Background(), "https://zenmarket.test/item?itemCode=2")
	assert.True(t, sniperrors.IsType(err, sniperrors.ErrorTypeRateLimit))
	assert.Len(t, inner.requests, 1)

	// other hosts are unaffected
	inner.pages = map[string]string{"https://other.test/": "ok"}
	_, err = f.Fetch(context.Background(), "https://other.test/")
	assert.NoError(t, err)
}

func TestCachedFetcherNetworkErrorDoesNotBlock(t *testing.T) {
	mockCache := NewMockCacheService()
	inner := &MockFetcher{err: sniperrors.NewNetwork("fetch", "timeout", nil)}
	f := NewCachedFetcher(inner, mockCache, time.Minute)

	_, err := f.Fetch(context.Background(), "https://example.com/")
	assert.Error(t, err)
	assert.Empty(t, mockCache.cache)
}

func TestCachedFetcherWithoutCache(t *testing.T) {
	inner := &MockFetcher{err: sniperrors.NewRateLimit("x", 0)}
	f := NewCachedFetcher(inner, nil, time.Minute)
	_, err := f.Fetch(context.Background(), "https://example.com/")
	assert.Error(t, err)
	_, err = f.Fetch(context.Background(), "https://example.com/")
	assert.Error(t, err)
	assert.Len(t, inner.requests, 2)
}
