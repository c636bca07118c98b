package profile

import (
	"fmt"
	"sort"

	"sjsage522/profitsniper/internal/classifier"
	"sjsage522/profitsniper/internal/profit"
)

// Profile is one parameterization of the discovery pipeline
type Profile struct {
	Name        string
	Source      string
	MinPriceUSD float64
	MaxPriceUSD float64
	Brands      classifier.BrandTable
	Category    classifier.CategoryRules
	Banned      []string
	Pricing     profit.Table
	SearchTerms []string
}

var (
	accessoryTerms = []string{
		"bag", "purse", "wallet", "handbag", "clutch", "tote", "backpack",
		"shoes", "sneakers", "boots", "heels", "sandals", "loafers", "slippers",
		"watch", "jewelry", "necklace", "ring", "bracelet", "earrings",
		"perfume", "fragrance", "cologne", "spray",
		"phone", "case", "cover", "tech", "electronic", "charger",
		"poster", "magazine", "book", "dvd", "cd", "vinyl",
		"keychain", "pin", "badge", "sticker",
		"バッグ", "財布", "靴", "スニーカー", "ブーツ", "時計", "香水",
		"アクセサリー", "ネックレス", "指輪", "ブレスレット", "キーホルダー",
	}

	clothingTerms = []string{
		"shirt", "tee", "t-shirt", "polo", "blouse", "top",
		"jacket", "blazer", "coat", "hoodie", "sweatshirt", "sweater",
		"pants", "jeans", "trousers", "shorts", "denim",
		"cardigan", "pullover", "knit", "knitwear",
		"dress", "skirt", "tank", "vest", "waistcoat",
		"cap", "hat", "beanie", "scarf", "gloves", "socks",
		"underwear", "tights", "leggings",
		"シャツ", "Tシャツ", "ポロ", "トップス", "ブラウス",
		"ジャケット", "ブレザー", "コート", "パーカー",
		"パンツ", "ジーンズ", "ショーツ", "デニム",
		"ニット", "セーター", "カーディガン",
		"ワンピース", "スカート", "タンク", "ベスト",
		"キャップ", "帽子", "マフラー", "手袋", "靴下",
	}

	baseBanned = []string{
		"julius", "kmrii", "ifsixwasnine", "groundy", "fred perry",
		"play", "tornado", "midas", "civarize", "l.g.b.", "yeezy", "yzy",
		"gap", "zara", "uniqlo", "ユニクロ", "ザラ", "ギャップ", "フレッドペリー",
	}
)

func luxury() Profile {
	return Profile{
		Name:        "luxury",
		Source:      "luxury_profit_sniper",
		MinPriceUSD: 0.5,
		MaxPriceUSD: 60,
		Brands: classifier.BrandTable{
			{Name: "Balenciaga", Variants: []string{"balenciaga", "バレンシアガ"}, ExcludedKeywords: []string{"triple s", "speed trainer"}},
			{Name: "Vetements", Variants: []string{"vetements", "ヴェトモン"}},
			{Name: "Rick Owens", Variants: []string{"rick owens", "リックオウエンス", "drkshdw", "ダークシャドウ"}, ExcludedKeywords: []string{"geobasket", "ramones"}},
			{Name: "Comme Des Garcons", Variants: []string{"comme des garcons", "コムデギャルソン", "comme des garçons", "cdg"}},
			{Name: "Junya Watanabe", Variants: []string{"junya watanabe", "ジュンヤワタナベ", "junya"}},
			{Name: "Issey Miyake", Variants: []string{"issey miyake", "イッセイミヤケ", "homme plisse", "pleats please"}, ExcludedKeywords: []string{"bao bao", "baobao", "l'eau"}},
		},
		Category: classifier.CategoryRules{
			Positive: clothingTerms,
			Negative: accessoryTerms,
		},
		Banned: append(append([]string{}, baseBanned...),
			"ground y", "シュプリーム", "supreme", "off white", "off-white", "オフホワイト",
			"stone island", "ストーンアイランド", "cp company", "c.p. company",
		),
		Pricing: profit.Table{
			BaseValues: map[string]map[profit.ItemType]float64{
				"Balenciaga":        {profit.ItemTee: 120, profit.ItemHoodie: 280, profit.ItemJacket: 450, profit.ItemPants: 200},
				"Vetements":         {profit.ItemTee: 150, profit.ItemHoodie: 350, profit.ItemJacket: 500, profit.ItemPants: 250},
				"Rick Owens":        {profit.ItemTee: 200, profit.ItemHoodie: 400, profit.ItemJacket: 800, profit.ItemPants: 350},
				"Comme Des Garcons": {profit.ItemTee: 100, profit.ItemHoodie: 250, profit.ItemJacket: 350, profit.ItemPants: 180},
				"Junya Watanabe":    {profit.ItemTee: 120, profit.ItemHoodie: 300, profit.ItemJacket: 400, profit.ItemPants: 220},
				"Issey Miyake":      {profit.ItemTee: 90, profit.ItemHoodie: 220, profit.ItemJacket: 300, profit.ItemPants: 160},
			},
			DefaultValue: 99,
			ArchiveTerms: profit.DefaultArchiveTerms,
			ArchiveBoost: 1.5,
			Tiers:        profit.DefaultTiers,
		},
		SearchTerms: []string{"tee", "shirt", "jacket", "hoodie", "pants", "Tシャツ", "ジャケット", "パーカー"},
	}
}

func grizzly() Profile {
	jacketValues := func(v float64) map[profit.ItemType]float64 {
		return map[profit.ItemType]float64{profit.ItemTee: v, profit.ItemHoodie: v, profit.ItemJacket: v, profit.ItemPants: v}
	}
	return Profile{
		Name:        "grizzly",
		Source:      "grizzly_jacket_sniper",
		MinPriceUSD: 0.5,
		MaxPriceUSD: 500,
		Brands: classifier.BrandTable{
			// mccoy's contains y's, so McCoy's is matched first
			{Name: "The Real Mccoys", Variants: []string{"real mccoy", "リアルマッコイズ", "mccoys"}},
			{Name: "Y's", Variants: []string{"y's", "ys yohji", "ワイズ"}},
			{Name: "Attractions", Variants: []string{"attractions", "アトラクションズ"}},
		},
		Category: classifier.CategoryRules{
			Negative: accessoryTerms,
			Required: [][]string{
				{"grizzly", "グリズリー", "グリズリ"},
				{"jacket", "ジャケット", "coat", "コート"},
			},
			RequireBrand: true,
		},
		Banned: append(append([]string{}, baseBanned...), "de travail"),
		Pricing: profit.Table{
			// grizzly jackets sit around $200 resale, scaled per brand
			BaseValues: map[string]map[profit.ItemType]float64{
				"Y's":             jacketValues(240),
				"The Real Mccoys": jacketValues(260),
				"Attractions":     jacketValues(220),
			},
			DefaultValue: 99,
			ArchiveTerms: profit.DefaultArchiveTerms,
			ArchiveBoost: 1.5,
			Tiers:        profit.DefaultTiers,
		},
		SearchTerms: []string{"grizzly jacket", "グリズリー ジャケット", "grizzly"},
	}
}

var registry = map[string]func() Profile{
	"luxury":  luxury,
	"grizzly": grizzly,
}

// Names lists the registered profiles
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a fresh copy of the named profile
func Get(name string) (Profile, error) {
	build, ok := registry[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q (known: %v)", name, Names())
	}
	return build(), nil
}

// WithPriceBounds overrides the price range where the values are positive
func (p Profile) WithPriceBounds(minUSD, maxUSD float64) Profile {
	if minUSD > 0 {
		p.MinPriceUSD = minUSD
	}
	if maxUSD > 0 {
		p.MaxPriceUSD = maxUSD
	}
	return p
}

// WithBrands replaces the built-in brand table
func (p Profile) WithBrands(brands classifier.BrandTable) Profile {
	if len(brands) > 0 {
		p.Brands = brands
	}
	return p
}

// Classifier builds the title classifier for the profile
func (p Profile) Classifier() *classifier.Classifier {
	return classifier.New(p.Brands, p.Category, p.Banned)
}

// Keywords returns the search terms for the profile
func (p Profile) Keywords() []string {
	return classifier.Keywords(p.Brands, p.SearchTerms)
}
