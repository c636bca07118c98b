package crawler

import (
	"context"
	"fmt"
	"io"
	"strings"

	sniperrors "sjsage522/profitsniper/pkg/errors"
)

// Filter restricts a search to one purchase mechanism
type Filter string

const (
	FilterAny        Filter = ""
	FilterFixedPrice Filter = "bin"
	FilterBid        Filter = "auction"
)

// ParseFilter maps a configured pass name to a Filter
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bin", "buy_it_now", "fixed_price":
		return FilterFixedPrice, nil
	case "auction", "bid":
		return FilterBid, nil
	case "", "any":
		return FilterAny, nil
	default:
		return FilterAny, sniperrors.NewValidation("crawler", fmt.Sprintf("unknown search filter %q", s))
	}
}

// ParseFilters reads a comma separated list of passes. An empty list searches without a filter.
func ParseFilters(list string) ([]Filter, error) {
	var filters []Filter
	for _, name := range strings.Split(list, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		f, err := ParseFilter(name)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	if len(filters) == 0 {
		filters = []Filter{FilterAny}
	}
	return filters, nil
}

// RawListing is one search result before classification
type RawListing struct {
	ID          string `json:"auction_id"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	PriceText   string `json:"price_text"`
	PriceOrigin int64  `json:"price_jpy"`
	ImageURL    string `json:"image_url,omitempty"`
}

// Query selects one page of search results
type Query struct {
	Keyword  string
	Page     int
	MaxPrice int64
	Filter   Filter
}

// Page is one parsed search page. Count is the number of result
// elements on the page, including ones skipped as malformed.
type Page struct {
	Listings []RawListing
	Count    int
}

// Source is a paginated discovery source
type Source interface {
	// Search fetches and parses one result page
	Search(ctx context.Context, q Query) (Page, error)

	// Name returns the source name for logging
	Name() string
}

// PageFetcher retrieves a page as UTF-8 HTML
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (io.Reader, error)
}
