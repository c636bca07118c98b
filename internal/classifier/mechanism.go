package classifier

import (
	"context"
	"fmt"
	"io"
	"strings"

	"sjsage522/profitsniper/internal/models"
	"sjsage522/profitsniper/logger"
)

var (
	fixedPriceIndicators = []string{
		"buyout price", "buy now price", "fixed price", "immediate purchase",
		"instant buy", "buy it now", "direct purchase",
	}
	bidIndicators = []string{
		"current bid", "highest bid", "bidding", "auction ends",
		"time left", "bid now", "place bid",
	}
)

// PageFetcher retrieves a detail page as UTF-8 HTML
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (io.Reader, error)
}

// MechanismResolver decides whether a listing is fixed-price or bid-based from its detail pages
type MechanismResolver struct {
	fetcher      PageFetcher
	primaryURL   string
	secondaryURL string
	log          *logger.Logger
}

// NewMechanismResolver takes URL templates with one %s for the listing id.
// An empty secondary template disables the fallback source.
func NewMechanismResolver(fetcher PageFetcher, primaryURL, secondaryURL string) *MechanismResolver {
	return &MechanismResolver{
		fetcher:      fetcher,
		primaryURL:   primaryURL,
		secondaryURL: secondaryURL,
		log:          logger.ForComponent("mechanism"),
	}
}

// Resolve scores indicator phrases on the primary page and consults the
// secondary page on a tie. With no signal the listing is treated as bid-based;
// unknown is returned only when no source could be read.
func (r *MechanismResolver) Resolve(ctx context.Context, id string) models.Mechanism {
	responded := false

	if text, ok := r.pageText(ctx, r.primaryURL, id); ok {
		responded = true
		fixed, bid := ScoreIndicators(text)
		switch {
		case fixed > bid:
			return models.MechanismFixedPrice
		case bid > fixed:
			return models.MechanismBid
		}
	}

	if r.secondaryURL != "" {
		if text, ok := r.pageText(ctx, r.secondaryURL, id); ok {
			responded = true
			lower := strings.ToLower(text)
			switch {
			case strings.Contains(text, "フリマ") || strings.Contains(lower, "fixed"):
				return models.MechanismFixedPrice
			case strings.Contains(text, "入札") || strings.Contains(lower, "bid"):
				return models.MechanismBid
			}
		}
	}

	if !responded {
		return models.MechanismUnknown
	}
	return models.MechanismBid
}

// ScoreIndicators counts distinct fixed-price and bid phrases in text
func ScoreIndicators(text string) (fixed, bid int) {
	lower := strings.ToLower(text)
	for _, p := range fixedPriceIndicators {
		if strings.Contains(lower, p) {
			fixed++
		}
	}
	for _, p := range bidIndicators {
		if strings.Contains(lower, p) {
			bid++
		}
	}
	return fixed, bid
}

// pageText returns the decoded page markup. Indicators are scored on the raw
// page, so phrases inside attributes and scripts count too.
func (r *MechanismResolver) pageText(ctx context.Context, template, id string) (string, bool) {
	if template == "" {
		return "", false
	}
	url := fmt.Sprintf(template, id)

	body, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		r.log.Debug().Err(err).Str("auction_id", id).Str("url", url).Msg("detail page unavailable")
		return "", false
	}

	page, err := io.ReadAll(body)
	if err != nil {
		r.log.Debug().Err(err).Str("auction_id", id).Msg("detail page unreadable")
		return "", false
	}
	return string(page), true
}
