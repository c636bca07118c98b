package dedup

import (
	"context"
	"strings"
	"sync/atomic"

	"sjsage522/profitsniper/internal/models"
	"sjsage522/profitsniper/logger"
)

// Reason names the stage that flagged a duplicate
type Reason string

const (
	ReasonNone            Reason = "none"
	ReasonExactID         Reason = "exact_id"
	ReasonTitleSimilarity Reason = "title_similarity"
	ReasonComposite       Reason = "composite"
)

const (
	// SimilarityThreshold is exclusive: a score must exceed it
	SimilarityThreshold = 0.85
	// PriceBand bounds the similarity candidates to ±20% of the listing price
	PriceBand = 0.20
	// CompositeTolerance is the absolute reference-price tolerance of the composite stage
	CompositeTolerance = 1.0
	// PrefixRunes is the title prefix length used by the composite stage
	PrefixRunes = 20
	// candidateLimit caps the similarity candidate set
	candidateLimit = 200
)

// Lookup is the part of the record store the detector reads
type Lookup interface {
	GetListing(ctx context.Context, id string) (*models.Listing, error)
	FindByBrandPriceRange(ctx context.Context, brand string, min, max float64, limit int) ([]models.Listing, error)
	FindByBrandPriceTitleFragment(ctx context.Context, brand string, min, max float64, fragment string) ([]models.Listing, error)
}

// Result is the outcome of a duplicate check
type Result struct {
	IsDuplicate bool
	Reason      Reason
	// Evidence is the stored listing that matched, nil when none did
	Evidence *models.Listing
	// Similarity is set by the title similarity stage
	Similarity float64
}

// Stats is a snapshot of the detector counters
type Stats struct {
	Checked         int64 `json:"checked"`
	Duplicates      int64 `json:"duplicates"`
	ExactID         int64 `json:"exact_id"`
	TitleSimilarity int64 `json:"title_similarity"`
	Composite       int64 `json:"composite"`
	StoreErrors     int64 `json:"store_errors"`
}

// Detector runs the staged duplicate check against a Lookup
type Detector struct {
	lookup Lookup
	log    *logger.Logger

	checked     atomic.Int64
	duplicates  atomic.Int64
	exactID     atomic.Int64
	similarity  atomic.Int64
	composite   atomic.Int64
	storeErrors atomic.Int64
}

// NewDetector creates a detector reading from lookup
func NewDetector(lookup Lookup) *Detector {
	return &Detector{
		lookup: lookup,
		log:    logger.ForComponent("dedup"),
	}
}

// Check runs the stages in order and stops at the first match.
// Store failures are logged and make the failing stage inconclusive.
func (d *Detector) Check(ctx context.Context, l models.Listing) Result {
	d.checked.Add(1)

	if res, ok := d.exact(ctx, l); ok {
		d.exactID.Add(1)
		d.duplicates.Add(1)
		return res
	}
	if res, ok := d.titleSimilarity(ctx, l); ok {
		d.similarity.Add(1)
		d.duplicates.Add(1)
		return res
	}
	if res, ok := d.compositeKey(ctx, l); ok {
		d.composite.Add(1)
		d.duplicates.Add(1)
		return res
	}
	return Result{Reason: ReasonNone}
}

func (d *Detector) exact(ctx context.Context, l models.Listing) (Result, bool) {
	existing, err := d.lookup.GetListing(ctx, l.ID)
	if err != nil {
		d.storeFailure("exact_id", l.ID, err)
		return Result{}, false
	}
	if existing == nil {
		return Result{}, false
	}
	return Result{IsDuplicate: true, Reason: ReasonExactID, Evidence: existing}, true
}

func (d *Detector) titleSimilarity(ctx context.Context, l models.Listing) (Result, bool) {
	min := l.PriceReference * (1 - PriceBand)
	max := l.PriceReference * (1 + PriceBand)
	candidates, err := d.lookup.FindByBrandPriceRange(ctx, l.Brand, min, max, candidateLimit)
	if err != nil {
		d.storeFailure("title_similarity", l.ID, err)
		return Result{}, false
	}

	words := WordSet(l.Title)
	for i := range candidates {
		c := candidates[i]
		if c.ID == l.ID {
			continue
		}
		score := Jaccard(words, WordSet(c.Title))
		if score > SimilarityThreshold {
			return Result{IsDuplicate: true, Reason: ReasonTitleSimilarity, Evidence: &c, Similarity: score}, true
		}
	}
	return Result{}, false
}

func (d *Detector) compositeKey(ctx context.Context, l models.Listing) (Result, bool) {
	prefix := titlePrefix(l.Title, PrefixRunes)
	if prefix == "" {
		return Result{}, false
	}
	matches, err := d.lookup.FindByBrandPriceTitleFragment(ctx, l.Brand,
		l.PriceReference-CompositeTolerance, l.PriceReference+CompositeTolerance, prefix)
	if err != nil {
		d.storeFailure("composite", l.ID, err)
		return Result{}, false
	}
	for i := range matches {
		m := matches[i]
		if m.ID == l.ID {
			continue
		}
		return Result{IsDuplicate: true, Reason: ReasonComposite, Evidence: &m}, true
	}
	return Result{}, false
}

func (d *Detector) storeFailure(stage, id string, err error) {
	d.storeErrors.Add(1)
	d.log.Warn().
		Err(err).
		Str("stage", stage).
		Str("auction_id", id).
		Msg("Duplicate check stage inconclusive")
}

// Stats returns the cumulative counters
func (d *Detector) Stats() Stats {
	return Stats{
		Checked:         d.checked.Load(),
		Duplicates:      d.duplicates.Load(),
		ExactID:         d.exactID.Load(),
		TitleSimilarity: d.similarity.Load(),
		Composite:       d.composite.Load(),
		StoreErrors:     d.storeErrors.Load(),
	}
}

// WordSet lowercases and splits a title on whitespace
func WordSet(title string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(title)) {
		set[w] = struct{}{}
	}
	return set
}

// Jaccard is |a∩b| / |a∪b|, 0 when both sets are empty
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func titlePrefix(title string, n int) string {
	title = strings.TrimSpace(title)
	r := []rune(title)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
