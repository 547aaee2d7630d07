package storage

import (
	"context"
	"time"

	"cotton-crawler/models"
)

// PriceStore is the record-store surface the price upsert path needs:
// equality lookup on the natural key within a half-open timestamp range,
// insert, and update.
type PriceStore interface {
	// FindPriceInRange returns the row id of a price for variety whose
	// creation time falls in [from, to), and whether one exists.
	FindPriceInRange(ctx context.Context, variety string, from, to time.Time) (int64, bool, error)
	InsertPrice(ctx context.Context, p *models.CottonPrice) error
	UpdatePrice(ctx context.Context, id int64, p *models.CottonPrice) error
}

// NewsStore is the record-store surface the news dedup path needs.
type NewsStore interface {
	NewsExistsInRange(ctx context.Context, title string, from, to time.Time) (bool, error)
	InsertNews(ctx context.Context, n *models.News) error
}

// Reader is the query surface the read-side endpoints consume.
type Reader interface {
	// LatestPrices returns the most recent row per variety.
	LatestPrices(ctx context.Context) ([]*models.CottonPrice, error)
	// PriceHistory returns rows for one variety over the trailing days window.
	PriceHistory(ctx context.Context, variety string, days int) ([]*models.CottonPrice, error)
	// ListNews returns the newest items, optionally filtered by category.
	ListNews(ctx context.Context, category string, limit int) ([]*models.News, error)
}

// Store is the full backing-store contract.
type Store interface {
	PriceStore
	NewsStore
	Reader
	Close() error
}
