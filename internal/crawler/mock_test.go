package crawler

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"sjsage522/profitsniper/services/cache"
)

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	cache map[string][]byte
}

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		cache: make(map[string][]byte),
	}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, cache.ErrMiss
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.cache[key] = value
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	delete(m.cache, key)
	return nil
}

// MockFetcher serves canned pages or a fixed error and records requests
type MockFetcher struct {
	pages    map[string]string
	err      error
	requests []string
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) (io.Reader, error) {
	m.requests = append(m.requests, url)
	if m.err != nil {
		return nil, m.err
	}
	page, ok := m.pages[url]
	if !ok {
		return nil, errors.New("not found")
	}
	return strings.NewReader(page), nil
}
