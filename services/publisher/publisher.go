package publisher

import (
	"context"
	"fmt"
	"math"

	"sjsage522/profitsniper/internal/models"
	"sjsage522/profitsniper/internal/profit"
)

// Publisher delivers accepted listings to the notification side
type Publisher interface {
	// Publish delivers one listing and returns the message reference, if the sink provides one
	Publish(ctx context.Context, l models.Listing) (string, error)

	// Close closes the publisher connection
	Close() error
}

const (
	zenmarketItemURL = "https://zenmarket.jp/en/auction.aspx?itemCode=%s"
	yahooItemURL     = "https://page.auctions.yahoo.co.jp/jp/auction/%s"
)

// ProfitSummary is the profit sub-object of the payload
type ProfitSummary struct {
	PurchasePrice      float64 `json:"purchase_price"`
	EstimatedSellPrice float64 `json:"estimated_sell_price"`
	EstimatedProfit    float64 `json:"estimated_profit"`
	ROIPercent         float64 `json:"roi_percent"`
	IsProfitable       bool    `json:"is_profitable"`
}

// Payload is the JSON body sent per listing
type Payload struct {
	AuctionID            string        `json:"auction_id"`
	Title                string        `json:"title"`
	Brand                string        `json:"brand"`
	PriceJPY             int64         `json:"price_jpy"`
	PriceUSD             float64       `json:"price_usd"`
	ListingType          string        `json:"listing_type"`
	ImageURL             string        `json:"image_url,omitempty"`
	ProfitAnalysis       ProfitSummary `json:"profit_analysis"`
	Source               string        `json:"source"`
	KeywordUsed          string        `json:"keyword_used,omitempty"`
	EstimatedMarketValue float64       `json:"estimated_market_value"`
	ProfitTier           string        `json:"profit_tier"`
	DealQuality          float64       `json:"deal_quality"`
	ProfitSummaryText    string        `json:"profit_summary"`
	ZenmarketURL         string        `json:"zenmarket_url"`
	YahooURL             string        `json:"yahoo_url"`
}

// BuildPayload maps a listing to the notification payload
func BuildPayload(l models.Listing) Payload {
	p := l.Profit
	yahoo := l.ListingURL
	if yahoo == "" {
		yahoo = fmt.Sprintf(yahooItemURL, l.ID)
	}
	return Payload{
		AuctionID:   l.ID,
		Title:       l.Title,
		Brand:       l.Brand,
		PriceJPY:    l.PriceOrigin,
		PriceUSD:    round2(l.PriceReference),
		ListingType: l.Mechanism.String(),
		ImageURL:    l.ImageURL,
		ProfitAnalysis: ProfitSummary{
			PurchasePrice:      round2(p.PurchasePrice),
			EstimatedSellPrice: p.EstimatedSellPrice,
			EstimatedProfit:    round2(p.EstimatedProfit),
			ROIPercent:         round2(p.ROIPercent),
			IsProfitable:       p.IsProfitable,
		},
		Source:               l.Source,
		KeywordUsed:          l.Keyword,
		EstimatedMarketValue: l.EstimatedMarketValue,
		ProfitTier:           string(p.Tier),
		DealQuality:          profit.Priority(p),
		ProfitSummaryText: fmt.Sprintf("Buy $%.2f → Sell $%.0f → Profit $%.2f (%.0f%% ROI)",
			p.PurchasePrice, p.EstimatedSellPrice, p.EstimatedProfit, p.ROIPercent),
		ZenmarketURL: fmt.Sprintf(zenmarketItemURL, l.ID),
		YahooURL:     yahoo,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
