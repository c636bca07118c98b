package helpers

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	sniperrors "sjsage522/profitsniper/pkg/errors"
)

var (
	digitsPattern    = regexp.MustCompile(`\d[\d,]*`)
	auctionIDPattern = regexp.MustCompile(`^[a-z]?\d{6,}$`)
)

// ParsePriceText extracts an integer yen amount from text such as "1,980円" or "¥ 2,500"
func ParsePriceText(text string) (int64, error) {
	match := digitsPattern.FindString(text)
	if match == "" {
		return 0, sniperrors.NewParsing("price", "no digits in "+strconv.Quote(text), nil)
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(match, ",", ""), 10, 64)
	if err != nil {
		return 0, sniperrors.NewParsing("price", "invalid amount "+strconv.Quote(match), err)
	}
	return n, nil
}

// ExtractAuctionID returns the trailing auction identifier of a listing URL
func ExtractAuctionID(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	if code := u.Query().Get("itemCode"); code != "" {
		return code
	}
	id := path.Base(strings.TrimRight(u.Path, "/"))
	if !auctionIDPattern.MatchString(id) {
		return ""
	}
	return id
}

// Truncate shortens s to at most n runes
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
