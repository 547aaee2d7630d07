// Package crawler orchestrates the crawl run: every enabled source pipeline
// (fetch → extract) executes concurrently, results are aggregated and
// normalized, and prices and news are persisted in parallel fan-outs.
package crawler

import (
	"context"
	"errors"
	"sync"
	"time"

	"cotton-crawler/config"
	"cotton-crawler/extract"
	"cotton-crawler/models"
	"cotton-crawler/services"
	"cotton-crawler/storage"
	"cotton-crawler/utils"
)

// PageFetcher renders one URL to markup.
type PageFetcher interface {
	Fetch(url string) (string, error)
}

// Persister applies the day-scoped write policy to a batch of records.
type Persister interface {
	SavePrices(ctx context.Context, prices []*models.CottonPrice) (int, error)
	SaveNews(ctx context.Context, items []*models.News) (int, error)
}

// Summary reports how many records one run persisted.
type Summary struct {
	Prices int `json:"prices"`
	News   int `json:"news"`
}

// Crawler runs the full ingestion pipeline.
type Crawler struct {
	sources     []config.Source
	fetcher     PageFetcher
	normalizer  *services.Normalizer
	persister   Persister
	logger      *utils.Logger
	concurrency int
	csv         *storage.CSVWriter
}

// New creates a Crawler. csv may be nil to disable raw capture.
func New(sources []config.Source, fetcher PageFetcher, normalizer *services.Normalizer,
	persister Persister, csv *storage.CSVWriter, maxConcurrency int, logger *utils.Logger) *Crawler {
	return &Crawler{
		sources:     sources,
		fetcher:     fetcher,
		normalizer:  normalizer,
		persister:   persister,
		logger:      logger,
		concurrency: maxConcurrency,
		csv:         csv,
	}
}

// Run executes one crawl. Source pipelines are independent: a fetch or parse
// failure in one reduces that source to its fallback dataset and the others
// proceed untouched. Only a storage-layer failure during the persistence
// fan-outs surfaces as an error.
func (c *Crawler) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	c.logger.Info("[crawler] Starting crawl — %d sources", len(c.sources))

	var (
		mu        sync.Mutex
		rawPrices []*models.RawPrice
		rawNews   []*models.RawNews
	)
	titles := utils.NewStringSet()

	// a fresh pool per run keeps overlapping Run calls independent
	pool := utils.NewWorkerPool(c.concurrency)

	for _, src := range c.sources {
		if !src.Enabled {
			c.logger.Debug("[crawler] Source %q disabled, skipping", src.Name)
			continue
		}
		src := src

		pool.Submit(func() {
			markup := c.fetch(src)

			switch src.Kind {
			case "prices":
				ex, err := extract.PricesFor(src.Name)
				if err != nil {
					c.logger.Error("[crawler] %v", err)
					return
				}
				prices := ex.Prices(markup)
				now := time.Now()
				for _, p := range prices {
					p.ScrapedAt = now
				}
				mu.Lock()
				rawPrices = append(rawPrices, prices...)
				mu.Unlock()
				c.logger.Info("[crawler] %s: %d price candidates", src.Name, len(prices))

			case "news":
				ex, err := extract.NewsFor(src.Name)
				if err != nil {
					c.logger.Error("[crawler] %v", err)
					return
				}
				var kept []*models.RawNews
				for _, n := range ex.News(markup) {
					// first source to claim a title this run wins
					if titles.Add(n.Title) {
						kept = append(kept, n)
					}
				}
				mu.Lock()
				rawNews = append(rawNews, kept...)
				mu.Unlock()
				c.logger.Info("[crawler] %s: %d news candidates", src.Name, len(kept))

			default:
				c.logger.Error("[crawler] Source %q has unknown kind %q", src.Name, src.Kind)
			}
		})
	}
	pool.Wait()

	if c.csv != nil {
		if err := c.csv.WriteRawPrices(rawPrices); err != nil {
			c.logger.Warn("[crawler] Raw CSV capture failed: %v", err)
		}
	}

	prices := c.normalizer.Prices(rawPrices)
	news := c.normalizer.News(rawNews)
	c.logger.Info("[crawler] Normalized %d prices, %d news items", len(prices), len(news))

	summary, err := c.persist(ctx, prices, news)
	if err != nil {
		return nil, err
	}

	c.logger.Info("[crawler] Crawl done in %v — saved %d prices, %d news",
		time.Since(start), summary.Prices, summary.News)
	return summary, nil
}

// fetch renders the source page; failures degrade to empty markup, which the
// extractor's fallback policy absorbs.
func (c *Crawler) fetch(src config.Source) string {
	markup, err := c.fetcher.Fetch(src.URL)
	if err != nil {
		c.logger.Warn("[crawler] %s fetch failed, using fallback data: %v", src.Name, err)
		return ""
	}
	return markup
}

// persist writes prices and news concurrently; each batch is serial
// record-by-record inside the persister.
func (c *Crawler) persist(ctx context.Context, prices []*models.CottonPrice, news []*models.News) (*Summary, error) {
	var (
		wg             sync.WaitGroup
		savedP, savedN int
		errP, errN     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		savedP, errP = c.persister.SavePrices(ctx, prices)
	}()
	go func() {
		defer wg.Done()
		savedN, errN = c.persister.SaveNews(ctx, news)
	}()
	wg.Wait()

	if err := errors.Join(errP, errN); err != nil {
		return nil, err
	}
	return &Summary{Prices: savedP, News: savedN}, nil
}
