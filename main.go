package main

import (
	"context"
	"flag"
	"os"

	"github.com/shopspring/decimal"

	"cotton-crawler/config"
	"cotton-crawler/crawler"
	"cotton-crawler/fetcher"
	"cotton-crawler/server"
	"cotton-crawler/services"
	"cotton-crawler/storage"
	"cotton-crawler/utils"
)

func init() {
	// API consumers read price fields as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

func main() {
	once := flag.Bool("once", false, "run a single crawl and exit instead of serving HTTP")
	flag.Parse()

	cfg := config.Load()
	logger := utils.NewLogger(cfg.Debug)

	logger.Info("=== Cotton Market Crawler starting ===")

	sources, err := config.LoadSources(cfg.SourcesPath)
	if err != nil {
		logger.Error("Failed to load source registry: %v", err)
		os.Exit(1)
	}
	logger.Info("Config — sources: %d | concurrency: %d | fetch timeout: %dms",
		len(sources), cfg.MaxConcurrency, cfg.FetchTimeoutMs)

	store, err := storage.NewPostgresStore(cfg.DSN(), logger)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		logger.Error("Make sure the database is running: docker compose up -d")
		os.Exit(1)
	}
	defer store.Close()

	var csv *storage.CSVWriter
	if cfg.CSVOutputPath != "" {
		csv, err = storage.NewCSVWriter(cfg.CSVOutputPath)
		if err != nil {
			logger.Error("Failed to create raw-capture CSV writer: %v", err)
			os.Exit(1)
		}
		defer csv.Close()
	}

	fetch := fetcher.New(cfg, logger)
	defer fetch.Close()

	normalizer := services.NewNormalizer(logger, sources)
	upserter := storage.NewUpserter(store, store, logger)
	crawl := crawler.New(sources, fetch, normalizer, upserter, csv, cfg.MaxConcurrency, logger)

	if *once {
		summary, err := crawl.Run(context.Background())
		if err != nil {
			logger.Error("Crawl failed: %v", err)
			os.Exit(1)
		}
		logger.Info("Saved %d price records and %d news items", summary.Prices, summary.News)
		return
	}

	overview := services.NewOverviewService(store, logger)
	srv := server.New(crawl, store, overview, logger)

	if err := srv.ListenAndServe(cfg.ServerAddr); err != nil {
		logger.Error("Server stopped: %v", err)
		os.Exit(1)
	}
}
