package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cotton-crawler/config"
	"cotton-crawler/models"
	"cotton-crawler/utils"
)

// maxTitleRunes bounds stored news titles.
const maxTitleRunes = 200

var (
	bandUp   = decimal.NewFromFloat(1.02)
	bandDown = decimal.NewFromFloat(0.98)
)

// Normalizer maps raw extracted candidates into canonical records: string to
// decimal coercion, divisor scaling, default filling, and per-source unit
// tagging. It never reconciles units across sources — magnitudes are kept
// exactly as extracted.
type Normalizer struct {
	logger *utils.Logger
	units  map[string]string
	now    func() time.Time
}

// NewNormalizer creates a Normalizer. The source registry supplies the
// source→unit mapping stamped onto price records.
func NewNormalizer(logger *utils.Logger, sources []config.Source) *Normalizer {
	units := make(map[string]string, len(sources))
	for _, s := range sources {
		units[s.Name] = s.Unit
	}
	return &Normalizer{logger: logger, units: units, now: time.Now}
}

// Prices converts raw price candidates. Candidates whose price token does not
// parse are dropped with a warning; high/low/avg default to a ±2% band around
// the price when the source exposed no observed values.
func (n *Normalizer) Prices(raw []*models.RawPrice) []*models.CottonPrice {
	result := make([]*models.CottonPrice, 0, len(raw))

	for _, r := range raw {
		price, ok := n.parsePrice(r.PriceText, r.PriceDivisor)
		if !ok {
			n.logger.Warn("[normalizer] Dropping %q: unparseable price token %q",
				r.VarietyName, r.PriceText)
			continue
		}

		result = append(result, &models.CottonPrice{
			VarietyName:   strings.TrimSpace(r.VarietyName),
			Price:         price,
			Change:        r.Change,
			IsPositive:    r.IsPositive,
			Volume:        r.Volume,
			High:          n.parseOrBand(r.HighText, price, bandUp),
			Low:           n.parseOrBand(r.LowText, price, bandDown),
			AvgPrice:      n.parseOrDefault(r.AvgText, price),
			HistoryVolume: r.HistoryVolume,
			Unit:          n.units[r.Source],
			IsFallback:    r.IsFallback,
		})
	}

	n.logger.Info("[normalizer] Prices: %d raw → %d canonical", len(raw), len(result))
	return result
}

// News converts raw news candidates: titles are truncated to the stored
// bound and records without a true publish time are stamped with crawl time.
func (n *Normalizer) News(raw []*models.RawNews) []*models.News {
	result := make([]*models.News, 0, len(raw))

	for _, r := range raw {
		publishedAt := r.PublishedAt
		if publishedAt.IsZero() {
			publishedAt = n.now()
		}

		result = append(result, &models.News{
			Category:    r.Category,
			Title:       truncateRunes(strings.TrimSpace(r.Title), maxTitleRunes),
			Content:     r.Content,
			ImageURL:    r.ImageURL,
			PublishedAt: publishedAt,
			IsFallback:  r.IsFallback,
		})
	}
	return result
}

func (n *Normalizer) parsePrice(token string, divisor int64) (decimal.Decimal, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(token), ",", "")
	if cleaned == "" {
		return decimal.Zero, false
	}
	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	if divisor > 1 {
		price = price.Div(decimal.NewFromInt(divisor))
	}
	return price, true
}

// parseOrBand returns the parsed token, or the price scaled by band when the
// token is missing or malformed. The band values are fabricated bounds, not
// observations — the sources rarely expose true highs and lows.
func (n *Normalizer) parseOrBand(token string, price, band decimal.Decimal) decimal.Decimal {
	if v, ok := n.parsePrice(token, 0); ok {
		return v
	}
	return price.Mul(band).Round(2)
}

func (n *Normalizer) parseOrDefault(token string, price decimal.Decimal) decimal.Decimal {
	if v, ok := n.parsePrice(token, 0); ok {
		return v
	}
	return price
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
