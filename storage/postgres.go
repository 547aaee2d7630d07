package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"cotton-crawler/models"
	"cotton-crawler/utils"
)

// PostgresStore persists cotton prices and news to PostgreSQL. The schema
// carries unique indexes on (variety_name, price_day) and (title, news_day),
// so even racing crawl runs cannot produce duplicate day rows — the insert
// paths resolve conflicts in SQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection, waits for the database to come up, and
// runs schema migrations.
func NewPostgresStore(dsn string, logger *utils.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 5, BaseDelay: 2 * time.Second, Logger: logger}
	if err := retry.Do("postgres-ping", db.Ping); err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS cotton_prices (
			id             SERIAL PRIMARY KEY,
			variety_name   TEXT          NOT NULL,
			price          NUMERIC(14,2) NOT NULL,
			change         VARCHAR(32)   NOT NULL DEFAULT '',
			is_positive    BOOLEAN       NOT NULL DEFAULT FALSE,
			volume         BIGINT        NOT NULL DEFAULT 0,
			high           NUMERIC(14,2) NOT NULL DEFAULT 0,
			low            NUMERIC(14,2) NOT NULL DEFAULT 0,
			avg_price      NUMERIC(14,2) NOT NULL DEFAULT 0,
			history_volume BIGINT        NOT NULL DEFAULT 0,
			unit           VARCHAR(32)   NOT NULL DEFAULT '',
			is_fallback    BOOLEAN       NOT NULL DEFAULT FALSE,
			price_day      DATE          NOT NULL DEFAULT ((NOW() AT TIME ZONE 'UTC')::date),
			created_at     TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			updated_at     TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_prices_variety_day
			ON cotton_prices(variety_name, price_day);
		CREATE INDEX IF NOT EXISTS idx_prices_created ON cotton_prices(created_at);

		CREATE TABLE IF NOT EXISTS news (
			id           SERIAL PRIMARY KEY,
			category     TEXT        NOT NULL DEFAULT '',
			title        TEXT        NOT NULL,
			content      TEXT        NOT NULL DEFAULT '',
			image_url    TEXT        NOT NULL DEFAULT '',
			published_at TIMESTAMPTZ NOT NULL,
			is_fallback  BOOLEAN     NOT NULL DEFAULT FALSE,
			news_day     DATE        NOT NULL DEFAULT ((NOW() AT TIME ZONE 'UTC')::date),
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_news_title_day ON news(title, news_day);
		CREATE INDEX IF NOT EXISTS idx_news_published ON news(published_at);
	`)
	return err
}

// FindPriceInRange returns the id of today's row for variety, if any.
func (ps *PostgresStore) FindPriceInRange(ctx context.Context, variety string, from, to time.Time) (int64, bool, error) {
	var id int64
	err := ps.db.QueryRowContext(ctx, `
		SELECT id FROM cotton_prices
		WHERE variety_name = $1 AND created_at >= $2 AND created_at < $3
		LIMIT 1
	`, variety, from, to).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("postgres: find price: %w", err)
	}
	return id, true, nil
}

// InsertPrice inserts a new day row. A conflicting concurrent insert for the
// same (variety, day) collapses into an update of that row.
func (ps *PostgresStore) InsertPrice(ctx context.Context, p *models.CottonPrice) error {
	_, err := ps.db.ExecContext(ctx, `
		INSERT INTO cotton_prices
			(variety_name, price, change, is_positive, volume, high, low,
			 avg_price, history_volume, unit, is_fallback)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (variety_name, price_day) DO UPDATE SET
			price = EXCLUDED.price,
			change = EXCLUDED.change,
			is_positive = EXCLUDED.is_positive,
			volume = EXCLUDED.volume,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			avg_price = EXCLUDED.avg_price,
			history_volume = EXCLUDED.history_volume,
			unit = EXCLUDED.unit,
			is_fallback = EXCLUDED.is_fallback,
			updated_at = NOW()
	`, p.VarietyName, p.Price, p.Change, p.IsPositive, p.Volume,
		p.High, p.Low, p.AvgPrice, p.HistoryVolume, p.Unit, p.IsFallback)
	if err != nil {
		return fmt.Errorf("postgres: insert price: %w", err)
	}
	return nil
}

// UpdatePrice replaces the mutable fields of an existing day row.
func (ps *PostgresStore) UpdatePrice(ctx context.Context, id int64, p *models.CottonPrice) error {
	_, err := ps.db.ExecContext(ctx, `
		UPDATE cotton_prices SET
			price = $1, change = $2, is_positive = $3, volume = $4,
			high = $5, low = $6, avg_price = $7, history_volume = $8,
			unit = $9, is_fallback = $10, updated_at = NOW()
		WHERE id = $11
	`, p.Price, p.Change, p.IsPositive, p.Volume, p.High, p.Low,
		p.AvgPrice, p.HistoryVolume, p.Unit, p.IsFallback, id)
	if err != nil {
		return fmt.Errorf("postgres: update price %d: %w", id, err)
	}
	return nil
}

// NewsExistsInRange reports whether a news row with this title landed today.
func (ps *PostgresStore) NewsExistsInRange(ctx context.Context, title string, from, to time.Time) (bool, error) {
	var exists bool
	err := ps.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM news
			WHERE title = $1 AND created_at >= $2 AND created_at < $3
		)
	`, title, from, to).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: news exists: %w", err)
	}
	return exists, nil
}

// InsertNews inserts a news row; a same-day title conflict is dropped, first
// writer wins.
func (ps *PostgresStore) InsertNews(ctx context.Context, n *models.News) error {
	_, err := ps.db.ExecContext(ctx, `
		INSERT INTO news (category, title, content, image_url, published_at, is_fallback)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (title, news_day) DO NOTHING
	`, n.Category, n.Title, n.Content, n.ImageURL, n.PublishedAt, n.IsFallback)
	if err != nil {
		return fmt.Errorf("postgres: insert news: %w", err)
	}
	return nil
}

// LatestPrices returns the most recent row per variety.
func (ps *PostgresStore) LatestPrices(ctx context.Context) ([]*models.CottonPrice, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT DISTINCT ON (variety_name)
			id, variety_name, price, change, is_positive, volume, high, low,
			avg_price, history_volume, unit, is_fallback, created_at, updated_at
		FROM cotton_prices
		ORDER BY variety_name, created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: latest prices: %w", err)
	}
	defer rows.Close()
	return scanPrices(rows)
}

// PriceHistory returns a variety's rows over the trailing days window,
// oldest first.
func (ps *PostgresStore) PriceHistory(ctx context.Context, variety string, days int) ([]*models.CottonPrice, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT id, variety_name, price, change, is_positive, volume, high, low,
			avg_price, history_volume, unit, is_fallback, created_at, updated_at
		FROM cotton_prices
		WHERE variety_name = $1 AND created_at >= NOW() - make_interval(days => $2)
		ORDER BY created_at
	`, variety, days)
	if err != nil {
		return nil, fmt.Errorf("postgres: price history: %w", err)
	}
	defer rows.Close()
	return scanPrices(rows)
}

// ListNews returns the newest items, optionally filtered by category.
func (ps *PostgresStore) ListNews(ctx context.Context, category string, limit int) ([]*models.News, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT id, category, title, content, image_url, published_at, is_fallback, created_at
		FROM news
		WHERE $1 = '' OR category = $1
		ORDER BY published_at DESC
		LIMIT $2
	`, category, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list news: %w", err)
	}
	defer rows.Close()

	var items []*models.News
	for rows.Next() {
		n := &models.News{}
		if err := rows.Scan(&n.ID, &n.Category, &n.Title, &n.Content,
			&n.ImageURL, &n.PublishedAt, &n.IsFallback, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan news: %w", err)
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func scanPrices(rows *sql.Rows) ([]*models.CottonPrice, error) {
	var prices []*models.CottonPrice
	for rows.Next() {
		p := &models.CottonPrice{}
		if err := rows.Scan(&p.ID, &p.VarietyName, &p.Price, &p.Change,
			&p.IsPositive, &p.Volume, &p.High, &p.Low, &p.AvgPrice,
			&p.HistoryVolume, &p.Unit, &p.IsFallback, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan price: %w", err)
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// Close closes the underlying connection pool.
func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
