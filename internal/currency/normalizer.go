package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"sjsage522/profitsniper/helpers"
	"sjsage522/profitsniper/internal/models"
	"sjsage522/profitsniper/logger"
	sniperrors "sjsage522/profitsniper/pkg/errors"
)

// DefaultRate is used until a rate has been loaded or fetched
const DefaultRate = 150.0

// Options configures a Normalizer
type Options struct {
	RateURL     string
	DefaultRate float64
	Client      *http.Client
	Retry       helpers.RetryPolicy
	Stores      []RateStore
}

// Normalizer converts origin-currency prices using a cached exchange rate
type Normalizer struct {
	mu      sync.RWMutex
	rate    models.ExchangeRate
	rateURL string
	client  *http.Client
	retry   helpers.RetryPolicy
	stores  []RateStore
	log     *logger.Logger
	now     func() time.Time
}

// NewNormalizer creates a normalizer seeded with the default rate
func NewNormalizer(opts Options) *Normalizer {
	def := opts.DefaultRate
	if def <= 0 {
		def = DefaultRate
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Normalizer{
		rate:    models.ExchangeRate{Rate: def},
		rateURL: opts.RateURL,
		client:  client,
		retry:   opts.Retry,
		stores:  opts.Stores,
		log:     logger.ForComponent("currency"),
		now:     time.Now,
	}
}

// Current returns the cached rate
func (n *Normalizer) Current() models.ExchangeRate {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.rate
}

// Rate returns the origin units per reference unit
func (n *Normalizer) Rate() float64 {
	return n.Current().Rate
}

// SetRate replaces the cached rate without persisting it
func (n *Normalizer) SetRate(rate float64) {
	if rate <= 0 {
		return
	}
	n.mu.Lock()
	n.rate = models.ExchangeRate{Rate: rate, LastUpdated: n.now()}
	n.mu.Unlock()
}

// Convert returns amount / rate
func (n *Normalizer) Convert(amount int64) float64 {
	return float64(amount) / n.Rate()
}

// MaxOriginPrice converts a reference-currency cap into whole origin units
func (n *Normalizer) MaxOriginPrice(maxReference float64) int64 {
	return int64(math.Floor(maxReference * n.Rate()))
}

// Load restores the freshest persisted rate across stores
func (n *Normalizer) Load(ctx context.Context) {
	var best models.ExchangeRate
	for _, store := range n.stores {
		rate, ok, err := store.Load(ctx)
		if err != nil {
			n.log.Warn().Err(err).Str("store", store.Name()).Msg("failed to load exchange rate")
			continue
		}
		if ok && rate.Rate > 0 && (best.Rate <= 0 || rate.LastUpdated.After(best.LastUpdated)) {
			best = rate
		}
	}
	if best.Rate <= 0 {
		return
	}

	n.mu.Lock()
	n.rate = best
	n.mu.Unlock()
	n.log.Info().Float64("rate", best.Rate).Time("last_updated", best.LastUpdated).Msg("restored exchange rate")
}

// Refresh fetches a fresh rate. Failures keep the previous value and are only logged.
func (n *Normalizer) Refresh(ctx context.Context) bool {
	var fetched float64
	err := n.retry.Do(ctx, "exchange rate refresh", func(ctx context.Context) error {
		rate, err := n.fetch(ctx)
		if err != nil {
			return err
		}
		fetched = rate
		return nil
	})
	if err != nil {
		n.log.Warn().Err(err).Float64("rate", n.Rate()).Msg("keeping previous exchange rate")
		return false
	}

	current := models.ExchangeRate{Rate: fetched, LastUpdated: n.now()}
	n.mu.Lock()
	n.rate = current
	n.mu.Unlock()

	for _, store := range n.stores {
		if err := store.Save(ctx, current); err != nil {
			n.log.Warn().Err(err).Str("store", store.Name()).Msg("failed to persist exchange rate")
		}
	}
	n.log.Info().Float64("rate", fetched).Msg("updated exchange rate")
	return true
}

type rateResponse struct {
	Rates map[string]float64 `json:"rates"`
}

func (n *Normalizer) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.rateURL, nil)
	if err != nil {
		return 0, sniperrors.NewConfiguration("invalid exchange rate url", err)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return 0, sniperrors.NewNetwork("currency", "rate request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, sniperrors.NewNetwork("currency", fmt.Sprintf("rate source returned status %d", resp.StatusCode), nil)
	}

	var body rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, sniperrors.NewParsing("currency", "invalid rate payload", err)
	}
	rate, ok := body.Rates["JPY"]
	if !ok || rate <= 0 {
		return 0, sniperrors.NewParsing("currency", "rate payload has no positive JPY rate", nil)
	}
	return rate, nil
}
