package profile

import (
	"testing"

	"sjsage522/profitsniper/internal/classifier"
	"sjsage522/profitsniper/internal/profit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	assert.Equal(t, []string{"grizzly", "luxury"}, Names())

	lux, err := Get("luxury")
	require.NoError(t, err)
	assert.Equal(t, 60.0, lux.MaxPriceUSD)
	assert.Len(t, lux.Brands, 6)

	_, err = Get("streetwear")
	assert.Error(t, err)
}

func TestLuxuryPipelineScenario(t *testing.T) {
	p, err := Get("luxury")
	require.NoError(t, err)
	c := p.Classifier()
	e := profit.NewEstimator(p.Pricing, 200)

	title := "Rick Owens DRKSHDW Tee Archive FW18"
	banned, _ := c.HasBannedTerm(title)
	assert.False(t, banned)
	assert.True(t, c.IsTargetCategory(title))

	brand := c.BrandOf(title)
	assert.Equal(t, "Rick Owens", brand)

	mv := e.EstimateMarketValue(title, brand)
	assert.Equal(t, 300.0, mv)

	a := e.CalculateProfit(2500.0/150.0, mv)
	assert.True(t, a.IsProfitable)
	assert.Equal(t, "ultra", string(a.Tier))
}

func TestLuxuryRejections(t *testing.T) {
	p, _ := Get("luxury")
	c := p.Classifier()

	banned, term := c.HasBannedTerm("Supreme x CDG Tee")
	assert.True(t, banned)
	assert.Equal(t, "supreme", term)

	assert.False(t, c.IsTargetCategory("Balenciaga Triple S shirt print"))
	assert.False(t, c.IsTargetCategory("コムデギャルソン 財布"))
	assert.True(t, c.IsTargetCategory("コムデギャルソン Tシャツ"))
	assert.True(t, c.IsTargetCategory("CDG Homme Plus shirt"))
	assert.Equal(t, "Comme Des Garcons", c.BrandOf("CDG Homme Plus shirt"))
	assert.False(t, c.IsTargetCategory("CDG shirt with bonus CD"))
}

func TestGrizzlyRequiresAllTerms(t *testing.T) {
	p, err := Get("grizzly")
	require.NoError(t, err)
	c := p.Classifier()

	assert.True(t, c.IsTargetCategory("The Real McCoy's Grizzly Jacket 40"))
	assert.False(t, c.IsTargetCategory("The Real McCoy's Jacket 40"))
	assert.False(t, c.IsTargetCategory("Grizzly Jacket no brand"))
	assert.Equal(t, "The Real Mccoys", c.BrandOf("The Real McCoy's Grizzly Jacket 40"))
}

func TestOverrides(t *testing.T) {
	p, _ := Get("grizzly")
	p = p.WithPriceBounds(0, 300)
	assert.Equal(t, 0.5, p.MinPriceUSD)
	assert.Equal(t, 300.0, p.MaxPriceUSD)

	p = p.WithBrands(classifier.BrandTable{{Name: "Attractions", Variants: []string{"attractions"}}})
	assert.Len(t, p.Brands, 1)
	p = p.WithBrands(nil)
	assert.Len(t, p.Brands, 1)

	assert.Contains(t, p.Keywords(), "attractions grizzly jacket")
}

func TestProfilesAreIndependentCopies(t *testing.T) {
	a, _ := Get("luxury")
	a.Banned[0] = "changed"
	b, _ := Get("luxury")
	assert.NotEqual(t, "changed", b.Banned[0])
}
