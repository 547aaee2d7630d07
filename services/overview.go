package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"cotton-crawler/models"
	"cotton-crawler/storage"
	"cotton-crawler/utils"
)

// OverviewService computes a market summary over the latest stored rows.
type OverviewService struct {
	store  storage.Reader
	logger *utils.Logger
}

// NewOverviewService creates an OverviewService backed by the given reader.
func NewOverviewService(store storage.Reader, logger *utils.Logger) *OverviewService {
	return &OverviewService{store: store, logger: logger}
}

// Generate builds the overview from the latest price row per variety and the
// newest headlines. The average mixes per-kg and per-ton quotes as stored;
// it is indicative only.
func (s *OverviewService) Generate(ctx context.Context) (*models.MarketOverview, error) {
	prices, err := s.store.LatestPrices(ctx)
	if err != nil {
		return nil, fmt.Errorf("overview: %w", err)
	}

	report := s.fromPrices(prices)

	news, err := s.store.ListNews(ctx, "", 10)
	if err != nil {
		return nil, fmt.Errorf("overview: %w", err)
	}
	report.NewsCount = len(news)

	return report, nil
}

func (s *OverviewService) fromPrices(prices []*models.CottonPrice) *models.MarketOverview {
	report := &models.MarketOverview{
		TotalVarieties: len(prices),
		GeneratedAt:    time.Now(),
	}
	if len(prices) == 0 {
		return report
	}

	sum := decimal.Zero
	top := prices[0]

	for _, p := range prices {
		if p.IsPositive {
			report.RisingCount++
		} else {
			report.FallingCount++
		}
		if p.IsFallback {
			report.FallbackCount++
		}
		sum = sum.Add(p.Price)
		if p.Price.GreaterThan(top.Price) {
			top = p
		}
	}

	report.AveragePrice = sum.Div(decimal.NewFromInt(int64(len(prices)))).Round(2)
	report.TopVariety = top.VarietyName
	report.TopPrice = top.Price
	return report
}
