package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cotton-crawler/models"
	"cotton-crawler/utils"
)

// fakeStore is an in-memory PriceStore/NewsStore honoring the same creation
// timestamp semantics as the real schema.
type fakeStore struct {
	nextID   int64
	prices   map[int64]*fakePriceRow
	news     []*fakeNewsRow
	now      func() time.Time
	failWith error
}

type fakePriceRow struct {
	rec       *models.CottonPrice
	createdAt time.Time
}

type fakeNewsRow struct {
	rec       *models.News
	createdAt time.Time
}

func newFakeStore(now func() time.Time) *fakeStore {
	return &fakeStore{prices: make(map[int64]*fakePriceRow), now: now}
}

func (f *fakeStore) FindPriceInRange(_ context.Context, variety string, from, to time.Time) (int64, bool, error) {
	if f.failWith != nil {
		return 0, false, f.failWith
	}
	for id, row := range f.prices {
		if row.rec.VarietyName == variety &&
			!row.createdAt.Before(from) && row.createdAt.Before(to) {
			return id, true, nil
		}
	}
	return 0, false, nil
}

func (f *fakeStore) InsertPrice(_ context.Context, p *models.CottonPrice) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.nextID++
	cp := *p
	f.prices[f.nextID] = &fakePriceRow{rec: &cp, createdAt: f.now()}
	return nil
}

func (f *fakeStore) UpdatePrice(_ context.Context, id int64, p *models.CottonPrice) error {
	if f.failWith != nil {
		return f.failWith
	}
	row, ok := f.prices[id]
	if !ok {
		return errors.New("no such row")
	}
	cp := *p
	row.rec = &cp
	return nil
}

func (f *fakeStore) NewsExistsInRange(_ context.Context, title string, from, to time.Time) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	for _, row := range f.news {
		if row.rec.Title == title &&
			!row.createdAt.Before(from) && row.createdAt.Before(to) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) InsertNews(_ context.Context, n *models.News) error {
	if f.failWith != nil {
		return f.failWith
	}
	cn := *n
	f.news = append(f.news, &fakeNewsRow{rec: &cn, createdAt: f.now()})
	return nil
}

func price(variety string, value string) *models.CottonPrice {
	return &models.CottonPrice{
		VarietyName: variety,
		Price:       decimal.RequireFromString(value),
	}
}

func newTestUpserter(store *fakeStore, now func() time.Time) *Upserter {
	u := NewUpserter(store, store, utils.NewLogger(false))
	u.now = now
	return u
}

func TestSameDayPriceUpsertKeepsOneRow(t *testing.T) {
	day := time.Date(2024, 10, 21, 9, 0, 0, 0, time.UTC)
	store := newFakeStore(func() time.Time { return day })
	u := newTestUpserter(store, func() time.Time { return day })

	ctx := context.Background()
	if _, err := u.SavePrices(ctx, []*models.CottonPrice{price("新疆棉花", "100")}); err != nil {
		t.Fatal(err)
	}
	if _, err := u.SavePrices(ctx, []*models.CottonPrice{price("新疆棉花", "105")}); err != nil {
		t.Fatal(err)
	}

	if len(store.prices) != 1 {
		t.Fatalf("expected 1 row, got %d", len(store.prices))
	}
	for _, row := range store.prices {
		if !row.rec.Price.Equal(decimal.RequireFromString("105")) {
			t.Errorf("row should hold latest price, got %s", row.rec.Price)
		}
	}
}

func TestCrossDayPriceUpsertCreatesNewRow(t *testing.T) {
	day1 := time.Date(2024, 10, 21, 9, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	current := day1
	now := func() time.Time { return current }
	store := newFakeStore(now)
	u := newTestUpserter(store, now)

	ctx := context.Background()
	if _, err := u.SavePrices(ctx, []*models.CottonPrice{price("新疆棉花", "100")}); err != nil {
		t.Fatal(err)
	}
	current = day2
	if _, err := u.SavePrices(ctx, []*models.CottonPrice{price("新疆棉花", "105")}); err != nil {
		t.Fatal(err)
	}

	if len(store.prices) != 2 {
		t.Errorf("same variety on two days should make two rows, got %d", len(store.prices))
	}
}

func TestNewsFirstWriterWinsPerDay(t *testing.T) {
	day := time.Date(2024, 10, 21, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return day }
	store := newFakeStore(now)
	u := newTestUpserter(store, now)

	ctx := context.Background()
	first := &models.News{Title: "新疆棉花收购价持续走强", Content: "first"}
	second := &models.News{Title: "新疆棉花收购价持续走强", Content: "second"}

	n1, err := u.SaveNews(ctx, []*models.News{first})
	if err != nil || n1 != 1 {
		t.Fatalf("first save: saved=%d err=%v", n1, err)
	}
	n2, err := u.SaveNews(ctx, []*models.News{second})
	if err != nil {
		t.Fatal(err)
	}
	if n2 != 0 {
		t.Errorf("same-day repeat should not count as saved, got %d", n2)
	}

	if len(store.news) != 1 {
		t.Fatalf("expected 1 row, got %d", len(store.news))
	}
	if store.news[0].rec.Content != "first" {
		t.Error("first writer should win")
	}
}

func TestNewsCrossDayIndependence(t *testing.T) {
	day1 := time.Date(2024, 10, 21, 9, 0, 0, 0, time.UTC)
	current := day1
	now := func() time.Time { return current }
	store := newFakeStore(now)
	u := newTestUpserter(store, now)

	ctx := context.Background()
	item := &models.News{Title: "棉花期货市场行情分析"}
	if _, err := u.SaveNews(ctx, []*models.News{item}); err != nil {
		t.Fatal(err)
	}
	current = day1.Add(24 * time.Hour)
	if _, err := u.SaveNews(ctx, []*models.News{item}); err != nil {
		t.Fatal(err)
	}

	if len(store.news) != 2 {
		t.Errorf("same title on two days should make two rows, got %d", len(store.news))
	}
}

// failingOnceStore wraps fakeStore and fails the first insert only, to show
// one bad record does not abort the rest.
type failingOnceStore struct {
	*fakeStore
	failed bool
}

func (f *failingOnceStore) InsertPrice(ctx context.Context, p *models.CottonPrice) error {
	if !f.failed {
		f.failed = true
		return errors.New("transient write failure")
	}
	return f.fakeStore.InsertPrice(ctx, p)
}

func TestPriceUpsertIsolatesRecordFailures(t *testing.T) {
	day := time.Date(2024, 10, 21, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return day }
	inner := newFakeStore(now)
	store := &failingOnceStore{fakeStore: inner}
	u := NewUpserter(store, inner, utils.NewLogger(false))
	u.now = now

	saved, err := u.SavePrices(context.Background(), []*models.CottonPrice{
		price("CC Index 3128B", "148.85"),
		price("新疆棉花", "15.62"),
	})
	if err != nil {
		t.Fatalf("partial failure must not surface as error: %v", err)
	}
	if saved != 1 {
		t.Errorf("saved: got %d, want 1", saved)
	}
}

func TestSavePricesAllFailedSurfacesError(t *testing.T) {
	day := time.Date(2024, 10, 21, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return day }
	store := newFakeStore(now)
	store.failWith = errors.New("connection refused")
	u := newTestUpserter(store, now)

	_, err := u.SavePrices(context.Background(), []*models.CottonPrice{
		price("新疆棉花", "100"),
	})
	if err == nil {
		t.Error("total storage failure should surface as error")
	}
}

func TestDayRangeHalfOpen(t *testing.T) {
	at := time.Date(2024, 10, 21, 23, 59, 59, 0, time.UTC)
	from, to := dayRange(at)

	if from != time.Date(2024, 10, 21, 0, 0, 0, 0, time.UTC) {
		t.Errorf("from: got %v", from)
	}
	if to != time.Date(2024, 10, 22, 0, 0, 0, 0, time.UTC) {
		t.Errorf("to: got %v", to)
	}
	if !at.Before(to) || at.Before(from) {
		t.Error("timestamp at end of day should fall inside the window")
	}
}
