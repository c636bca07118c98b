package publisher

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"sjsage522/profitsniper/internal/models"
	sniperrors "sjsage522/profitsniper/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleListing() models.Listing {
	return models.Listing{
		ID:                   "x1234567",
		Title:                "Rick Owens DRKSHDW Tee Archive FW18",
		Brand:                "Rick Owens",
		PriceOrigin:          2500,
		PriceReference:       2500.0 / 150.0,
		Mechanism:            models.MechanismBid,
		Keyword:              "rick owens",
		EstimatedMarketValue: 300,
		Profit: models.ProfitAnalysis{
			PurchasePrice:      2500.0 / 150.0,
			EstimatedSellPrice: 299,
			EstimatedProfit:    299 - 2500.0/150.0,
			ROIPercent:         (299 - 2500.0/150.0) / (2500.0 / 150.0) * 100,
			IsProfitable:       true,
			Tier:               models.TierUltra,
		},
		Source: "luxury_profit_sniper",
	}
}

func TestBuildPayload(t *testing.T) {
	p := BuildPayload(sampleListing())
	assert.Equal(t, "x1234567", p.AuctionID)
	assert.Equal(t, 16.67, p.PriceUSD)
	assert.Equal(t, "auction", p.ListingType)
	assert.Equal(t, 1.0, p.DealQuality)
	assert.Equal(t, "ultra", p.ProfitTier)
	assert.Equal(t, "https://zenmarket.jp/en/auction.aspx?itemCode=x1234567", p.ZenmarketURL)
	assert.Equal(t, "https://page.auctions.yahoo.co.jp/jp/auction/x1234567", p.YahooURL)
	assert.Equal(t, "Buy $16.67 → Sell $299 → Profit $282.33 (1694% ROI)", p.ProfitSummaryText)
	assert.True(t, p.ProfitAnalysis.IsProfitable)
}

func TestHTTPPublisher(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/webhook/listing", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &received))
		w.Write([]byte(`{"status":"ok","message_id":1234567890123456789}`))
	}))
	defer server.Close()

	p := NewHTTPPublisher(server.URL+"/", nil)
	ref, err := p.Publish(context.Background(), sampleListing())
	require.NoError(t, err)
	assert.Equal(t, "1234567890123456789", ref)

	for _, field := range []string{
		"auction_id", "title", "brand", "price_jpy", "price_usd", "listing_type",
		"profit_analysis", "source", "keyword_used", "profit_tier", "deal_quality",
		"zenmarket_url", "yahoo_url",
	} {
		assert.Contains(t, received, field)
	}
	profit := received["profit_analysis"].(map[string]interface{})
	assert.Equal(t, true, profit["is_profitable"])
}

func TestHTTPPublisherNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bot offline", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewHTTPPublisher(server.URL, nil).Publish(context.Background(), sampleListing())
	require.Error(t, err)
	assert.True(t, sniperrors.IsType(err, sniperrors.ErrorTypePublisher))
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPPublisherUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewHTTPPublisher(url, nil).Publish(context.Background(), sampleListing())
	assert.Error(t, err)
}

func TestMessageRef(t *testing.T) {
	assert.Equal(t, "abc", messageRef([]byte(`{"message_id":"abc"}`)))
	assert.Equal(t, "", messageRef([]byte(`OK`)))
	assert.Equal(t, "", messageRef([]byte(`{"status":"ok"}`)))
}
