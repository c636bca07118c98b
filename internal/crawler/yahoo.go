package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"sjsage522/profitsniper/helpers"
	"sjsage522/profitsniper/logger"

	"github.com/PuerkitoBio/goquery"
)

// PageSize is the number of results requested per search page
const PageSize = 50

// Selectors contains CSS selectors for the search result page
type Selectors struct {
	Item      string
	Title     []string
	Price     []string
	Thumbnail string
}

// YahooSelectors matches the auction search result markup
var YahooSelectors = Selectors{
	Item:      "li.Product",
	Title:     []string{"h3.Product__title a", "a.Product__titleLink"},
	Price:     []string{"span.Product__priceValue", ".Product__price"},
	Thumbnail: "img",
}

// YahooSearch reads the auction search result pages
type YahooSearch struct {
	fetcher   PageFetcher
	searchURL string
	baseURL   string
	selectors Selectors
	log       *logger.Logger
}

// NewYahooSearch creates a search source. baseURL resolves relative links and images.
func NewYahooSearch(fetcher PageFetcher, searchURL, baseURL string) *YahooSearch {
	return &YahooSearch{
		fetcher:   fetcher,
		searchURL: searchURL,
		baseURL:   strings.TrimRight(baseURL, "/"),
		selectors: YahooSelectors,
		log:       logger.ForCrawler("yahoo_auctions"),
	}
}

func (y *YahooSearch) Name() string { return "yahoo_auctions" }

// SearchURL builds the newest-first result URL for a query
func (y *YahooSearch) SearchURL(q Query) string {
	page := q.Page
	if page < 1 {
		page = 1
	}
	offset := (page-1)*PageSize + 1
	u := fmt.Sprintf("%s?p=%s&n=%d&b=%d&s1=new&o1=d&minPrice=1&maxPrice=%d",
		y.searchURL, url.QueryEscape(q.Keyword), PageSize, offset, q.MaxPrice)

	switch q.Filter {
	case FilterFixedPrice:
		u += "&auccat=0"
	case FilterBid:
		u += "&auccat=auction"
	}
	return u
}

// Search fetches one page. Items missing a title, link, id or price are skipped.
func (y *YahooSearch) Search(ctx context.Context, q Query) (Page, error) {
	body, err := y.fetcher.Fetch(ctx, y.SearchURL(q))
	if err != nil {
		return Page{}, err
	}
	doc, err := createDocument(body)
	if err != nil {
		return Page{}, err
	}
	return y.parse(doc), nil
}

func (y *YahooSearch) parse(doc *goquery.Document) Page {
	items := doc.Find(y.selectors.Item)
	page := Page{Count: items.Length()}

	items.Each(func(_ int, s *goquery.Selection) {
		if l, ok := y.parseItem(s); ok {
			page.Listings = append(page.Listings, l)
		}
	})
	return page
}

func (y *YahooSearch) parseItem(s *goquery.Selection) (RawListing, bool) {
	titleSel := firstMatch(s, y.selectors.Title)
	if titleSel == nil {
		return RawListing{}, false
	}
	title := strings.TrimSpace(titleSel.Text())
	if title == "" {
		return RawListing{}, false
	}

	link, ok := titleSel.Attr("href")
	link = strings.TrimSpace(link)
	if !ok || link == "" {
		return RawListing{}, false
	}
	link = y.resolveURL(link)

	id := helpers.ExtractAuctionID(link)
	if id == "" {
		return RawListing{}, false
	}

	priceSel := firstMatch(s, y.selectors.Price)
	if priceSel == nil {
		return RawListing{}, false
	}
	priceText := strings.TrimSpace(priceSel.Text())
	price, err := helpers.ParsePriceText(priceText)
	if err != nil || price <= 0 {
		y.log.Debug().Str("auction_id", id).Str("price", priceText).Msg("Skipping item with unreadable price")
		return RawListing{}, false
	}

	return RawListing{
		ID:          id,
		Title:       title,
		Link:        link,
		PriceText:   priceText,
		PriceOrigin: price,
		ImageURL:    y.imageURL(s),
	}, true
}

func (y *YahooSearch) imageURL(s *goquery.Selection) string {
	img := s.Find(y.selectors.Thumbnail).First()
	if img.Length() == 0 {
		return ""
	}
	src := strings.TrimSpace(img.AttrOr("src", ""))
	if src == "" {
		src = strings.TrimSpace(img.AttrOr("data-src", ""))
	}
	if src == "" {
		return ""
	}
	return y.resolveURL(src)
}

func (y *YahooSearch) resolveURL(link string) string {
	switch {
	case strings.HasPrefix(link, "http"):
		return link
	case strings.HasPrefix(link, "//"):
		return "https:" + link
	case strings.HasPrefix(link, "/"):
		return y.baseURL + link
	default:
		return y.baseURL + "/" + link
	}
}

func firstMatch(s *goquery.Selection, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if found := s.Find(sel).First(); found.Length() > 0 {
			return found
		}
	}
	return nil
}
