package profit

import (
	"sort"
	"strings"

	"sjsage522/profitsniper/internal/models"
)

// ItemType is the garment category used for base value lookup
type ItemType string

const (
	ItemTee    ItemType = "tee"
	ItemHoodie ItemType = "hoodie"
	ItemJacket ItemType = "jacket"
	ItemPants  ItemType = "pants"
)

// checked in order; tee is the default
var itemTypeKeywords = []struct {
	itemType ItemType
	words    []string
}{
	{ItemHoodie, []string{"hoodie", "sweatshirt", "パーカー"}},
	{ItemJacket, []string{"jacket", "blazer", "coat", "ジャケット", "コート"}},
	{ItemPants, []string{"pants", "jeans", "trousers", "パンツ", "ジーンズ"}},
}

// DefaultArchiveTerms mark archive or seasonal pieces
var DefaultArchiveTerms = []string{"archive", "rare", "vintage", "fw", "ss", "runway"}

// Tier maps a resale price floor to the most we would pay
type Tier struct {
	SellPrice float64 `json:"sell_price"`
	MaxBuy    float64 `json:"max_buy"`
}

// DefaultTiers is the sell price to max purchase chart
var DefaultTiers = []Tier{
	{999, 400}, {899, 350}, {799, 310}, {699, 270}, {599, 230},
	{499, 190}, {399, 140}, {349, 120}, {299, 110}, {249, 90},
	{199, 70}, {149, 50}, {99, 30}, {79, 25}, {59, 20},
	{39, 10}, {29, 8}, {23, 5}, {19, 4},
}

// Table holds the static pricing heuristics
type Table struct {
	BaseValues   map[string]map[ItemType]float64
	DefaultValue float64
	ArchiveTerms []string
	ArchiveBoost float64
	Tiers        []Tier
}

// Estimator computes market value and profit from a Table
type Estimator struct {
	table     Table
	threshold float64
}

// NewEstimator sorts the tier table descending and keeps the ROI threshold
func NewEstimator(table Table, minROI float64) *Estimator {
	tiers := make([]Tier, len(table.Tiers))
	copy(tiers, table.Tiers)
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].SellPrice > tiers[j].SellPrice })
	table.Tiers = tiers

	if table.DefaultValue <= 0 {
		table.DefaultValue = 99
	}
	if table.ArchiveBoost <= 0 {
		table.ArchiveBoost = 1.5
	}
	if table.ArchiveTerms == nil {
		table.ArchiveTerms = DefaultArchiveTerms
	}
	return &Estimator{table: table, threshold: minROI}
}

// Threshold returns the minimum ROI percent for a profitable verdict
func (e *Estimator) Threshold() float64 {
	return e.threshold
}

// ItemTypeOf infers the garment type from title keywords
func ItemTypeOf(title string) ItemType {
	lower := strings.ToLower(title)
	for _, kw := range itemTypeKeywords {
		for _, w := range kw.words {
			if strings.Contains(lower, w) {
				return kw.itemType
			}
		}
	}
	return ItemTee
}

// EstimateMarketValue looks up the brand base value, applies the archive boost and truncates
func (e *Estimator) EstimateMarketValue(title, brand string) float64 {
	values, ok := e.table.BaseValues[brand]
	if !ok {
		return e.table.DefaultValue
	}

	value, ok := values[ItemTypeOf(title)]
	if !ok {
		value = e.table.DefaultValue
	}

	lower := strings.ToLower(title)
	for _, term := range e.table.ArchiveTerms {
		if strings.Contains(lower, term) {
			value *= e.table.ArchiveBoost
			break
		}
	}
	return float64(int64(value))
}

// CalculateProfit applies the tier chart, falling back to a linear estimate
func (e *Estimator) CalculateProfit(purchase, marketValue float64) models.ProfitAnalysis {
	sell := marketValue
	profit := marketValue - purchase
	if profit < 0 {
		profit = 0
	}
	for _, tier := range e.table.Tiers {
		if marketValue >= tier.SellPrice && purchase <= tier.MaxBuy {
			sell = tier.SellPrice
			profit = tier.SellPrice - purchase
			break
		}
	}

	roi := ROI(profit, purchase)
	return models.ProfitAnalysis{
		PurchasePrice:      purchase,
		EstimatedSellPrice: sell,
		EstimatedProfit:    profit,
		ROIPercent:         roi,
		IsProfitable:       roi >= e.threshold,
		Tier:               models.TierForROI(roi),
	}
}

// ROI is profit/purchase*100, or 0 when nothing was paid
func ROI(profit, purchase float64) float64 {
	if purchase <= 0 {
		return 0
	}
	return profit / purchase * 100
}

// Priority maps ROI onto the [0,1] queue priority; 400% and above is 1
func Priority(a models.ProfitAnalysis) float64 {
	p := a.ROIPercent / 400
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
