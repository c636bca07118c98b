package dedup

import (
	"context"
	"errors"
	"testing"

	"sjsage522/profitsniper/internal/models"
	"sjsage522/profitsniper/services/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listing(id, title string, usd float64) models.Listing {
	return models.Listing{
		ID:             id,
		Title:          title,
		Brand:          "Rick Owens",
		PriceOrigin:    int64(usd * 150),
		PriceReference: usd,
	}
}

// failingLookup fails every query
type failingLookup struct{}

func (failingLookup) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	return nil, errors.New("connection refused")
}

func (failingLookup) FindByBrandPriceRange(ctx context.Context, brand string, min, max float64, limit int) ([]models.Listing, error) {
	return nil, errors.New("connection refused")
}

func (failingLookup) FindByBrandPriceTitleFragment(ctx context.Context, brand string, min, max float64, fragment string) ([]models.Listing, error) {
	return nil, errors.New("connection refused")
}

func TestJaccard(t *testing.T) {
	a := WordSet("Rick Owens DRKSHDW Tee")
	b := WordSet("tee drkshdw owens RICK")
	assert.Equal(t, 1.0, Jaccard(a, b))

	c := WordSet("Raf Simons bomber")
	assert.Equal(t, 0.0, Jaccard(a, c))

	assert.Equal(t, 0.5, Jaccard(WordSet("a b c d"), WordSet("a b c e f")))
	assert.Equal(t, 0.0, Jaccard(WordSet(""), WordSet("  ")))
}

func TestExactIDOnSecondSubmission(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	d := NewDetector(s)

	l := listing("x100", "Rick Owens DRKSHDW Tee Archive FW18", 16.67)
	res := d.Check(ctx, l)
	assert.False(t, res.IsDuplicate)
	assert.Equal(t, ReasonNone, res.Reason)

	require.NoError(t, s.UpsertListing(ctx, l))
	res = d.Check(ctx, l)
	assert.True(t, res.IsDuplicate)
	assert.Equal(t, ReasonExactID, res.Reason)
	require.NotNil(t, res.Evidence)
	assert.Equal(t, "x100", res.Evidence.ID)
}

func TestTitleSimilarityStage(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.UpsertListing(ctx, listing("a1", "Rick Owens DRKSHDW Tee Archive FW18", 20)))
	d := NewDetector(s)

	res := d.Check(ctx, listing("a2", "FW18 Archive Tee DRKSHDW Owens Rick", 22))
	assert.True(t, res.IsDuplicate)
	assert.Equal(t, ReasonTitleSimilarity, res.Reason)
	assert.Equal(t, 1.0, res.Similarity)

	// same words outside the ±20% price band
	res = d.Check(ctx, listing("a3", "FW18 Archive Tee DRKSHDW Owens Rick", 40))
	assert.False(t, res.IsDuplicate)

	// disjoint words never match via similarity
	res = d.Check(ctx, listing("a4", "Geobasket sneakers", 20))
	assert.False(t, res.IsDuplicate)
}

func TestCompositeStage(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.UpsertListing(ctx, listing("c1", "Rick Owens DRKSHDW Tee Archive FW18 black size M", 20)))
	d := NewDetector(s)

	// shared 20-rune prefix, different tail, within 1.0
	res := d.Check(ctx, listing("c2", "Rick Owens DRKSHDW Tee relisted cheaper used", 20.8))
	assert.True(t, res.IsDuplicate)
	assert.Equal(t, ReasonComposite, res.Reason)
	assert.Equal(t, "c1", res.Evidence.ID)

	res = d.Check(ctx, listing("c3", "Rick Owens DRKSHDW Tee relisted cheaper used", 21.5))
	assert.False(t, res.IsDuplicate)

	stats := d.Stats()
	assert.Equal(t, int64(2), stats.Checked)
	assert.Equal(t, int64(1), stats.Duplicates)
	assert.Equal(t, int64(1), stats.Composite)
}

func TestStoreFailureIsInconclusive(t *testing.T) {
	d := NewDetector(failingLookup{})
	res := d.Check(context.Background(), listing("f1", "Rick Owens Tee", 20))
	assert.False(t, res.IsDuplicate)
	assert.Equal(t, ReasonNone, res.Reason)

	stats := d.Stats()
	assert.Equal(t, int64(3), stats.StoreErrors)
	assert.Equal(t, int64(0), stats.Duplicates)
}
