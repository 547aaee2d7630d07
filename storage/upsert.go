package storage

import (
	"context"
	"fmt"
	"time"

	"cotton-crawler/models"
	"cotton-crawler/utils"
)

// Upserter applies the day-scoped write policy: at most one price row per
// (variety, calendar day) with a same-day crawl replacing the values, and at
// most one news row per (title, calendar day) with the first writer winning.
// Records are processed one at a time; a failing record is logged and skipped,
// never aborting the rest.
type Upserter struct {
	prices PriceStore
	news   NewsStore
	logger *utils.Logger
	now    func() time.Time
}

// NewUpserter creates an Upserter over the given stores.
func NewUpserter(prices PriceStore, news NewsStore, logger *utils.Logger) *Upserter {
	return &Upserter{prices: prices, news: news, logger: logger, now: time.Now}
}

// SavePrices upserts each price record against today's window and returns how
// many persisted. An error is returned only when the store failed every
// single record — the signature of a storage-layer outage rather than a bad
// row.
func (u *Upserter) SavePrices(ctx context.Context, prices []*models.CottonPrice) (int, error) {
	from, to := dayRange(u.now())
	saved := 0

	for _, p := range prices {
		if err := u.upsertPrice(ctx, p, from, to); err != nil {
			u.logger.Error("[upsert] Price %q: %v", p.VarietyName, err)
			continue
		}
		saved++
	}

	if saved == 0 && len(prices) > 0 {
		return 0, fmt.Errorf("all %d price upserts failed", len(prices))
	}
	return saved, nil
}

func (u *Upserter) upsertPrice(ctx context.Context, p *models.CottonPrice, from, to time.Time) error {
	id, found, err := u.prices.FindPriceInRange(ctx, p.VarietyName, from, to)
	if err != nil {
		return fmt.Errorf("lookup: %w", err)
	}
	if found {
		if err := u.prices.UpdatePrice(ctx, id, p); err != nil {
			return fmt.Errorf("update: %w", err)
		}
		u.logger.Debug("[upsert] Updated %q (row %d)", p.VarietyName, id)
		return nil
	}
	if err := u.prices.InsertPrice(ctx, p); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	u.logger.Debug("[upsert] Inserted %q", p.VarietyName)
	return nil
}

// SaveNews inserts each item unless the same title already landed today, and
// returns how many new rows persisted. Same-day repeats are skipped silently;
// they are not counted as saved.
func (u *Upserter) SaveNews(ctx context.Context, items []*models.News) (int, error) {
	from, to := dayRange(u.now())
	saved := 0
	failed := 0

	for _, n := range items {
		exists, err := u.news.NewsExistsInRange(ctx, n.Title, from, to)
		if err != nil {
			u.logger.Error("[upsert] News %q lookup: %v", n.Title, err)
			failed++
			continue
		}
		if exists {
			u.logger.Debug("[upsert] News %q already stored today", n.Title)
			continue
		}
		if err := u.news.InsertNews(ctx, n); err != nil {
			u.logger.Error("[upsert] News %q insert: %v", n.Title, err)
			failed++
			continue
		}
		saved++
	}

	if failed == len(items) && len(items) > 0 {
		return 0, fmt.Errorf("all %d news writes failed", len(items))
	}
	return saved, nil
}

// dayRange returns the half-open UTC window [midnight, next midnight) for t.
func dayRange(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	from := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return from, from.Add(24 * time.Hour)
}
