package currency

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"sjsage522/profitsniper/helpers"
	"sjsage522/profitsniper/internal/models"
	sniperrors "sjsage522/profitsniper/pkg/errors"
	"sjsage522/profitsniper/services/cache"
)

// RateStore persists the exchange rate across restarts
type RateStore interface {
	Name() string
	Load(ctx context.Context) (models.ExchangeRate, bool, error)
	Save(ctx context.Context, rate models.ExchangeRate) error
}

// FileRateStore keeps the rate in a local JSON file
type FileRateStore struct {
	Path string
}

func (s *FileRateStore) Name() string { return "file" }

func (s *FileRateStore) Load(ctx context.Context) (models.ExchangeRate, bool, error) {
	var rate models.ExchangeRate
	found, err := helpers.ReadJSONFile(s.Path, &rate)
	if err != nil {
		return models.ExchangeRate{}, false, sniperrors.NewPersistence("currency", "load rate file", err)
	}
	return rate, found, nil
}

func (s *FileRateStore) Save(ctx context.Context, rate models.ExchangeRate) error {
	if err := helpers.WriteJSONFile(s.Path, rate); err != nil {
		return sniperrors.NewPersistence("currency", "save rate file", err)
	}
	return nil
}

// CacheRateStore shares the rate with other processes through the cache
type CacheRateStore struct {
	Cache cache.CacheService
	Key   string
	TTL   time.Duration
}

func (s *CacheRateStore) Name() string { return "cache" }

func (s *CacheRateStore) Load(ctx context.Context) (models.ExchangeRate, bool, error) {
	data, err := s.Cache.Get(s.Key)
	if errors.Is(err, cache.ErrMiss) {
		return models.ExchangeRate{}, false, nil
	}
	if err != nil {
		return models.ExchangeRate{}, false, err
	}
	var rate models.ExchangeRate
	if err := json.Unmarshal(data, &rate); err != nil {
		return models.ExchangeRate{}, false, sniperrors.NewParsing("currency", "cached rate", err)
	}
	return rate, true, nil
}

func (s *CacheRateStore) Save(ctx context.Context, rate models.ExchangeRate) error {
	data, err := json.Marshal(rate)
	if err != nil {
		return err
	}
	return s.Cache.Set(s.Key, data, s.TTL)
}
