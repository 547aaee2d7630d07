package services

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cotton-crawler/config"
	"cotton-crawler/models"
	"cotton-crawler/utils"
)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(utils.NewLogger(false), config.DefaultSources())
}

func TestNormalizerParsesAndScalesPrice(t *testing.T) {
	n := newTestNormalizer()

	prices := n.Prices([]*models.RawPrice{
		{Source: "cottonchina", VarietyName: "CC Index 3128B", PriceText: "14885", PriceDivisor: 100},
		{Source: "mysteel", VarietyName: "新疆棉花", PriceText: "15.62"},
		{Source: "mysteel", VarietyName: "坏数据", PriceText: "N/A"},
	})

	if len(prices) != 2 {
		t.Fatalf("expected 2 records (unparseable dropped), got %d", len(prices))
	}
	if !prices[0].Price.Equal(decimal.RequireFromString("148.85")) {
		t.Errorf("scaled price: got %s, want 148.85", prices[0].Price)
	}
	if !prices[1].Price.Equal(decimal.RequireFromString("15.62")) {
		t.Errorf("price: got %s, want 15.62", prices[1].Price)
	}
}

func TestNormalizerDerivesBand(t *testing.T) {
	n := newTestNormalizer()

	prices := n.Prices([]*models.RawPrice{
		{Source: "mysteel", VarietyName: "新疆棉花", PriceText: "100"},
	})

	p := prices[0]
	if !p.High.Equal(decimal.RequireFromString("102")) {
		t.Errorf("derived high: got %s, want 102", p.High)
	}
	if !p.Low.Equal(decimal.RequireFromString("98")) {
		t.Errorf("derived low: got %s, want 98", p.Low)
	}
	if !p.AvgPrice.Equal(decimal.RequireFromString("100")) {
		t.Errorf("default avg: got %s, want 100", p.AvgPrice)
	}
}

func TestNormalizerKeepsObservedBand(t *testing.T) {
	n := newTestNormalizer()

	prices := n.Prices([]*models.RawPrice{
		{
			Source: "cottonchina", VarietyName: "阿克苏长绒棉137",
			PriceText: "15.82", HighText: "15.88", LowText: "15.75", AvgText: "15.80",
		},
	})

	p := prices[0]
	if !p.High.Equal(decimal.RequireFromString("15.88")) ||
		!p.Low.Equal(decimal.RequireFromString("15.75")) ||
		!p.AvgPrice.Equal(decimal.RequireFromString("15.80")) {
		t.Errorf("observed band overwritten: high=%s low=%s avg=%s", p.High, p.Low, p.AvgPrice)
	}
}

func TestNormalizerStampsUnitPerSource(t *testing.T) {
	n := newTestNormalizer()

	prices := n.Prices([]*models.RawPrice{
		{Source: "cottonchina", VarietyName: "CC Index 3128B", PriceText: "14885", PriceDivisor: 100},
		{Source: "mysteel", VarietyName: "新疆棉花", PriceText: "15.62"},
	})

	if prices[0].Unit != "yuan/ton" {
		t.Errorf("cottonchina unit: got %q, want yuan/ton", prices[0].Unit)
	}
	if prices[1].Unit != "yuan/kg" {
		t.Errorf("mysteel unit: got %q, want yuan/kg", prices[1].Unit)
	}
}

func TestNormalizerPreservesFallbackFlag(t *testing.T) {
	n := newTestNormalizer()

	prices := n.Prices([]*models.RawPrice{
		{Source: "mysteel", VarietyName: "阿克苏长绒棉137", PriceText: "15.88", IsFallback: true},
	})
	if !prices[0].IsFallback {
		t.Error("fallback flag lost on price record")
	}

	news := n.News([]*models.RawNews{
		{Source: "cncotton", Category: "棉花新闻", Title: "棉花期货市场行情分析", IsFallback: true},
	})
	if !news[0].IsFallback {
		t.Error("fallback flag lost on news record")
	}
}

func TestNormalizerTruncatesLongTitles(t *testing.T) {
	n := newTestNormalizer()

	long := strings.Repeat("棉", 230)
	news := n.News([]*models.RawNews{
		{Source: "cncotton", Category: "棉花新闻", Title: long},
	})

	if got := len([]rune(news[0].Title)); got != 200 {
		t.Errorf("title truncation: got %d runes, want 200", got)
	}
}

func TestNormalizerStampsCrawlTime(t *testing.T) {
	n := newTestNormalizer()
	fixed := time.Date(2024, 10, 21, 8, 30, 0, 0, time.UTC)
	n.now = func() time.Time { return fixed }

	observed := fixed.Add(-48 * time.Hour)
	news := n.News([]*models.RawNews{
		{Source: "cncotton", Title: "无发布时间的棉花新闻"},
		{Source: "cncotton", Title: "有发布时间的棉花新闻", PublishedAt: observed},
	})

	if !news[0].PublishedAt.Equal(fixed) {
		t.Errorf("missing publish time should stamp crawl time, got %v", news[0].PublishedAt)
	}
	if !news[1].PublishedAt.Equal(observed) {
		t.Errorf("observed publish time overwritten: got %v", news[1].PublishedAt)
	}
}
