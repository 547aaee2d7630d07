// Package extract turns rendered markup into raw price/news candidates.
// Each source gets its own extractor encapsulating that site's quirks; the
// heuristics live in ordered rule tables so new sources are additions, not
// rewrites. Extractors are pure functions over markup text: a failed or empty
// sweep yields the source's fixed fallback dataset, never an empty list.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cotton-crawler/models"
)

// PriceExtractor parses markup into raw price candidates.
type PriceExtractor interface {
	Name() string
	Prices(markup string) []*models.RawPrice
}

// NewsExtractor parses markup into raw news candidates.
type NewsExtractor interface {
	Name() string
	News(markup string) []*models.RawNews
}

// priceRule classifies a structural text block as a known instrument and maps
// it to a candidate record. Rules are evaluated in order against every block;
// at most one record is produced per variety name per sweep.
type priceRule struct {
	// keywords: the block matches if it contains any of these.
	keywords []string
	// require: additional substring the block must also contain, if set.
	require string
	// pattern extracts the numeric price token (first capture group). It is
	// matched against the block text after the keyword, never the label itself.
	pattern *regexp.Regexp
	// variety is the fixed instrument name; varietyFn overrides it when set,
	// deciding the name from the block text.
	variety   string
	varietyFn func(text string) string
	// divisor scales the parsed price (0 = no scaling).
	divisor int64
	// synthetic metadata the source does not expose
	change   string
	positive bool
	volume   int64
	history  int64
}

func (r *priceRule) matches(text string) bool {
	any := false
	for _, kw := range r.keywords {
		if strings.Contains(text, kw) {
			any = true
			break
		}
	}
	if !any {
		return false
	}
	if r.require != "" && !strings.Contains(text, r.require) {
		return false
	}
	return true
}

func (r *priceRule) varietyFor(text string) string {
	if r.varietyFn != nil {
		return r.varietyFn(text)
	}
	return r.variety
}

// priceToken extracts the numeric token from a matching block. The pattern is
// applied only to the text after the matched keyword, so digits inside an
// instrument label (the 3128 in "CC Index 3128B") can never be mistaken for
// the quote that follows it in the same row.
func (r *priceRule) priceToken(text string) (string, bool) {
	rest := text
	for _, kw := range r.keywords {
		if i := strings.Index(text, kw); i >= 0 {
			rest = text[i+len(kw):]
			break
		}
	}
	m := r.pattern.FindStringSubmatch(rest)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// sweep runs the rule table over every block matching selector. Malformed
// markup reduces to zero candidates; the caller substitutes its fallback set.
func sweep(source, markup, selector string, rules []*priceRule) []*models.RawPrice {
	var prices []*models.RawPrice
	seen := make(map[string]struct{})

	for _, text := range textBlocks(markup, selector) {
		for _, rule := range rules {
			if !rule.matches(text) {
				continue
			}
			token, ok := rule.priceToken(text)
			if !ok {
				continue
			}
			variety := rule.varietyFor(text)
			if _, dup := seen[variety]; dup {
				continue
			}
			seen[variety] = struct{}{}

			prices = append(prices, &models.RawPrice{
				Source:        source,
				VarietyName:   variety,
				PriceText:     token,
				PriceDivisor:  rule.divisor,
				Change:        rule.change,
				IsPositive:    rule.positive,
				Volume:        rule.volume,
				HistoryVolume: rule.history,
			})
		}
	}
	return prices
}

// textBlocks returns the trimmed text of every element matching selector.
func textBlocks(markup, selector string) []string {
	if strings.TrimSpace(markup) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	var blocks []string
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})
	return blocks
}
