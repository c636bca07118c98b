package store

import (
	"context"
	"strings"

	"sjsage522/profitsniper/internal/models"
)

// Store is the durable record of accepted listings, bookmarks and cycle statistics
type Store interface {
	// UpsertListing inserts a listing or refreshes mutable fields of an existing one.
	// Profit fields recorded at first insert are kept.
	UpsertListing(ctx context.Context, l models.Listing) error

	// GetListing returns nil when the identifier is unknown
	GetListing(ctx context.Context, id string) (*models.Listing, error)

	// FindByBrandPriceRange returns up to limit listings of brand with reference price in [min, max]
	FindByBrandPriceRange(ctx context.Context, brand string, min, max float64, limit int) ([]models.Listing, error)

	// FindByBrandPriceTitleFragment additionally requires the title to contain fragment (case-insensitive)
	FindByBrandPriceTitleFragment(ctx context.Context, brand string, min, max float64, fragment string) ([]models.Listing, error)

	// SetMessageRef records the notification message reference of a delivered listing
	SetMessageRef(ctx context.Context, id, ref string) error

	RecordCycleStats(ctx context.Context, s models.CycleStats) error
	TierSummary(ctx context.Context) ([]models.TierSummary, error)
	Close() error
}

// escapeLike escapes LIKE wildcards so the fragment matches literally
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
