package classifier

import (
	"sort"
	"strings"

	"sjsage522/profitsniper/internal/models"
)

// CategoryRules decide whether a title is in the target category
type CategoryRules struct {
	// Positive terms; at least one must appear when non-empty
	Positive []string
	// Negative terms reject the title outright
	Negative []string
	// Required groups each need at least one term present
	Required [][]string
	// RequireBrand rejects titles that match no brand variant
	RequireBrand bool
}

type brandMatcher struct {
	name     string
	variants []string
	excluded []string
}

// Classifier attributes brands and filters titles. Matching is
// case-insensitive substring matching, except that short latin
// category-negative terms ("cd", "pin") must stand alone as words.
type Classifier struct {
	brands   []brandMatcher
	table    BrandTable
	positive []string
	negative []string
	required [][]string
	reqBrand bool
	banned   []string
}

// New builds a classifier from a brand table, category rules and banned terms
func New(brands BrandTable, rules CategoryRules, banned []string) *Classifier {
	c := &Classifier{
		table:    brands,
		positive: lowerAll(rules.Positive),
		negative: lowerAll(rules.Negative),
		reqBrand: rules.RequireBrand,
		banned:   lowerAll(banned),
	}
	for _, group := range rules.Required {
		c.required = append(c.required, lowerAll(group))
	}
	sort.Strings(c.banned)

	for _, b := range brands {
		c.brands = append(c.brands, brandMatcher{
			name:     b.Name,
			variants: lowerAll(b.Variants),
			excluded: lowerAll(b.ExcludedKeywords),
		})
	}
	return c
}

// Brands returns the brand table in match order
func (c *Classifier) Brands() BrandTable {
	return c.table
}

// BrandOf returns the first brand whose variant appears in the title, else "Unknown"
func (c *Classifier) BrandOf(title string) string {
	lower := strings.ToLower(title)
	for _, b := range c.brands {
		if containsAny(lower, b.variants) {
			return b.name
		}
	}
	return models.UnknownBrand
}

// IsTargetCategory applies the negative, brand exclusion, required and positive checks
func (c *Classifier) IsTargetCategory(title string) bool {
	lower := strings.ToLower(title)

	for _, t := range c.negative {
		if containsTerm(lower, t) {
			return false
		}
	}

	matched := false
	for _, b := range c.brands {
		if !containsAny(lower, b.variants) {
			continue
		}
		matched = true
		if containsAny(lower, b.excluded) {
			return false
		}
	}
	if c.reqBrand && !matched {
		return false
	}

	for _, group := range c.required {
		if !containsAny(lower, group) {
			return false
		}
	}

	if len(c.positive) == 0 {
		return true
	}
	return containsAny(lower, c.positive)
}

// HasBannedTerm reports the first banned term (in sorted order) found in the title
func (c *Classifier) HasBannedTerm(title string) (bool, string) {
	lower := strings.ToLower(title)
	for _, term := range c.banned {
		if strings.Contains(lower, term) {
			return true, term
		}
	}
	return false, ""
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// shortWordLen is the longest latin term that is matched as a whole word
const shortWordLen = 3

// containsTerm matches short latin terms on word boundaries and everything else as a substring
func containsTerm(s, term string) bool {
	if term == "" {
		return false
	}
	if len(term) > shortWordLen || !isWordASCII(term) {
		return strings.Contains(s, term)
	}
	for from := 0; ; {
		i := strings.Index(s[from:], term)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(term)
		if (start == 0 || !isWordByte(s[start-1])) && (end == len(s) || !isWordByte(s[end])) {
			return true
		}
		from = start + 1
	}
}

func isWordASCII(term string) bool {
	for i := 0; i < len(term); i++ {
		if !isWordByte(term[i]) {
			return false
		}
	}
	return true
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func lowerAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
