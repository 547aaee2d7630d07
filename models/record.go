package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawPrice holds an unprocessed price candidate straight out of an extractor.
// Numeric fields stay as scraped text so the normalizer owns all coercion.
type RawPrice struct {
	Source      string
	VarietyName string
	PriceText   string
	// PriceDivisor scales the parsed price (e.g. CC Index quotes are divided
	// by 100 to express yuan). Zero means no scaling.
	PriceDivisor  int64
	Change        string
	IsPositive    bool
	Volume        int64
	HistoryVolume int64
	// Optional observed values; left empty they are derived as ±2% of price.
	HighText string
	LowText  string
	AvgText  string
	// IsFallback marks records not derived from live markup.
	IsFallback bool
	ScrapedAt  time.Time
}

// RawNews holds an unprocessed news candidate from an extractor.
type RawNews struct {
	Source   string
	Category string
	Title    string
	Content  string
	ImageURL string
	// Zero PublishedAt means the source exposed no publish time; the
	// normalizer stamps crawl time, never an inferred value.
	PublishedAt time.Time
	IsFallback  bool
}

// CottonPrice is the canonical daily price row. At most one row exists per
// (variety_name, calendar day); a second crawl the same day updates it.
// Price magnitudes are stored exactly as extracted — Unit documents what the
// source quotes in, no cross-source conversion is performed.
type CottonPrice struct {
	ID            int64           `json:"id"`
	VarietyName   string          `json:"variety_name"`
	Price         decimal.Decimal `json:"price"`
	Change        string          `json:"change"`
	IsPositive    bool            `json:"is_positive"`
	Volume        int64           `json:"volume"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	AvgPrice      decimal.Decimal `json:"avg_price"`
	HistoryVolume int64           `json:"history_volume"`
	Unit          string          `json:"unit,omitempty"`
	IsFallback    bool            `json:"is_fallback"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// News is the canonical news row, deduplicated by (title, calendar day) with
// first-writer-wins semantics.
type News struct {
	ID          int64     `json:"id"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	Content     string    `json:"content,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	IsFallback  bool      `json:"is_fallback"`
	CreatedAt   time.Time `json:"created_at"`
}

// MarketOverview summarizes the latest stored prices for the overview endpoint.
type MarketOverview struct {
	TotalVarieties int             `json:"total_varieties"`
	RisingCount    int             `json:"rising_count"`
	FallingCount   int             `json:"falling_count"`
	FallbackCount  int             `json:"fallback_count"`
	AveragePrice   decimal.Decimal `json:"average_price"`
	TopVariety     string          `json:"top_variety"`
	TopPrice       decimal.Decimal `json:"top_price"`
	NewsCount      int             `json:"news_count"`
	GeneratedAt    time.Time       `json:"generated_at"`
}
