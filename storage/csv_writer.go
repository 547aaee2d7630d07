package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"cotton-crawler/models"
)

// CSVWriter captures the raw candidates of a crawl run to a CSV file before
// normalization, as an audit trail of what the extractors actually saw.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"source", "variety_name", "price_text", "change", "is_positive",
		"volume", "history_volume", "is_fallback", "scraped_at",
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRawPrices appends the raw price candidates of one sweep.
func (c *CSVWriter) WriteRawPrices(prices []*models.RawPrice) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range prices {
		row := []string{
			p.Source,
			p.VarietyName,
			p.PriceText,
			p.Change,
			strconv.FormatBool(p.IsPositive),
			strconv.FormatInt(p.Volume, 10),
			strconv.FormatInt(p.HistoryVolume, 10),
			strconv.FormatBool(p.IsFallback),
			p.ScrapedAt.Format(time.RFC3339),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
