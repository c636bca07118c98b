package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sniperrors "sjsage522/profitsniper/pkg/errors"
)

// UnknownBrand is the brand attributed when no brand variant matches a title
const UnknownBrand = "Unknown"

// Mechanism is how a listing can be bought
type Mechanism int

const (
	MechanismUnknown Mechanism = iota
	MechanismFixedPrice
	MechanismBid
)

var mechanismNames = map[Mechanism]string{
	MechanismUnknown:    "unknown",
	MechanismFixedPrice: "buy_it_now",
	MechanismBid:        "auction",
}

func (m Mechanism) String() string {
	if name, ok := mechanismNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseMechanism maps a stored or wire name back to a Mechanism
func ParseMechanism(s string) Mechanism {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy_it_now", "fixed_price", "fixed-price":
		return MechanismFixedPrice
	case "auction", "bid", "bid-based":
		return MechanismBid
	default:
		return MechanismUnknown
	}
}

func (m Mechanism) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Mechanism) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*m = ParseMechanism(s)
	return nil
}

// ProfitTier is a coarse ROI bucket
type ProfitTier string

const (
	TierFair  ProfitTier = "fair"
	TierGood  ProfitTier = "good"
	TierHigh  ProfitTier = "high"
	TierUltra ProfitTier = "ultra"
)

// TierForROI buckets an ROI percentage. Bands: fair <200, good <300, high <400, ultra.
func TierForROI(roi float64) ProfitTier {
	switch {
	case roi >= 400:
		return TierUltra
	case roi >= 300:
		return TierHigh
	case roi >= 200:
		return TierGood
	default:
		return TierFair
	}
}

// ProfitAnalysis is computed once at discovery time and never recomputed
type ProfitAnalysis struct {
	PurchasePrice      float64    `json:"purchase_price"`
	EstimatedSellPrice float64    `json:"estimated_sell_price"`
	EstimatedProfit    float64    `json:"estimated_profit"`
	ROIPercent         float64    `json:"roi_percent"`
	IsProfitable       bool       `json:"is_profitable"`
	Tier               ProfitTier `json:"profit_tier"`
}

// Listing is a candidate item discovered in one discovery pass
type Listing struct {
	ID                   string         `json:"auction_id"`
	Title                string         `json:"title"`
	Brand                string         `json:"brand"`
	PriceOrigin          int64          `json:"price_jpy"`
	PriceReference       float64        `json:"price_usd"`
	Mechanism            Mechanism      `json:"listing_type"`
	ImageURL             string         `json:"image_url,omitempty"`
	ListingURL           string         `json:"yahoo_url,omitempty"`
	Keyword              string         `json:"keyword_used,omitempty"`
	EstimatedMarketValue float64        `json:"estimated_market_value"`
	Profit               ProfitAnalysis `json:"profit_analysis"`
	Source               string         `json:"source"`
	MessageRef           string         `json:"message_ref,omitempty"`
	DiscoveredAt         time.Time      `json:"discovered_at"`
}

// Validate rejects listings that cannot flow through the pipeline
func (l *Listing) Validate() error {
	switch {
	case strings.TrimSpace(l.ID) == "":
		return sniperrors.NewValidation("listing", "missing identifier")
	case strings.TrimSpace(l.Title) == "":
		return sniperrors.NewValidation("listing", fmt.Sprintf("%s: empty title", l.ID))
	case l.PriceOrigin <= 0:
		return sniperrors.NewValidation("listing", fmt.Sprintf("%s: non-positive price %d", l.ID, l.PriceOrigin))
	}
	return nil
}

// QueuedItem is a listing waiting for delivery
type QueuedItem struct {
	Listing    Listing   `json:"listing"`
	Priority   float64   `json:"priority"`
	EnqueuedAt time.Time `json:"queued_at"`
	Attempts   int       `json:"attempts"`
	Seq        int64     `json:"seq"`
}

// ExchangeRate is the cached origin-per-reference currency rate
type ExchangeRate struct {
	Rate        float64   `json:"rate"`
	LastUpdated time.Time `json:"last_updated"`
}

// CycleStats aggregates one discovery cycle
type CycleStats struct {
	RunID            string        `json:"run_id"`
	StartedAt        time.Time     `json:"started_at"`
	Duration         time.Duration `json:"duration"`
	KeywordsSearched int           `json:"keywords_searched"`
	TotalFound       int           `json:"total_found"`
	ProfitableFound  int           `json:"profitable_found"`
	UltraFound       int           `json:"ultra_profit_found"`
	Duplicates       int           `json:"duplicates"`
	Queued           int           `json:"queued"`
	Sent             int           `json:"sent"`
	Errors           int           `json:"errors_count"`
	AvgROI           float64       `json:"avg_roi_percent"`
	Source           string        `json:"source"`
}

// TierSummary is one row of the per-tier aggregate
type TierSummary struct {
	Tier   ProfitTier `json:"tier"`
	Count  int        `json:"count"`
	AvgROI float64    `json:"avg_roi"`
}
