// Package server exposes the crawl trigger and the read-side query endpoints.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"cotton-crawler/crawler"
	"cotton-crawler/services"
	"cotton-crawler/storage"
	"cotton-crawler/utils"
)

const (
	defaultNewsLimit  = 20
	maxNewsLimit      = 100
	defaultHistoryDay = 30
)

// CrawlRunner runs one crawl to completion.
type CrawlRunner interface {
	Run(ctx context.Context) (*crawler.Summary, error)
}

// response is the JSON envelope every endpoint answers with.
type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

// Server wires the HTTP endpoints.
type Server struct {
	runner   CrawlRunner
	store    storage.Reader
	overview *services.OverviewService
	logger   *utils.Logger
}

// New creates a Server.
func New(runner CrawlRunner, store storage.Reader, overview *services.OverviewService, logger *utils.Logger) *Server {
	return &Server{runner: runner, store: store, overview: overview, logger: logger}
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/crawl", s.handleCrawl)
	mux.HandleFunc("/api/prices", s.handlePrices)
	mux.HandleFunc("/api/prices/history", s.handleHistory)
	mux.HandleFunc("/api/news", s.handleNews)
	mux.HandleFunc("/api/overview", s.handleOverview)
	return mux
}

// ListenAndServe blocks serving on addr.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // a crawl run happens inside the request
	}
	s.logger.Info("[server] Listening on %s", addr)
	return srv.ListenAndServe()
}

// handleCrawl triggers a full crawl run. GET and POST behave identically so
// both schedulers and manual calls work.
func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		s.writeJSON(w, http.StatusMethodNotAllowed, response{
			Success: false, Error: "method not allowed",
		})
		return
	}

	s.logger.Info("[server] Crawl triggered via %s", r.Method)

	summary, err := s.runner.Run(r.Context())
	if err != nil {
		s.logger.Error("[server] Crawl failed: %v", err)
		s.writeJSON(w, http.StatusInternalServerError, response{
			Success: false,
			Error:   "Failed to crawl data",
			Details: err.Error(),
		})
		return
	}

	s.writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Successfully crawled and saved " + strconv.Itoa(summary.Prices) +
			" price records and " + strconv.Itoa(summary.News) + " news items",
		Data: summary,
	})
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	prices, err := s.store.LatestPrices(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, response{Success: true, Data: prices})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	variety := r.URL.Query().Get("variety")
	if variety == "" {
		s.writeJSON(w, http.StatusBadRequest, response{
			Success: false, Error: "variety parameter is required",
		})
		return
	}

	days := defaultHistoryDay
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}

	history, err := s.store.PriceHistory(r.Context(), variety, days)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, response{Success: true, Data: history})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	limit := defaultNewsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxNewsLimit {
			limit = n
		}
	}

	news, err := s.store.ListNews(r.Context(), category, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, response{Success: true, Data: news})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	report, err := s.overview.Generate(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, response{Success: true, Data: report})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.logger.Error("[server] %v", err)
	s.writeJSON(w, http.StatusInternalServerError, response{
		Success: false,
		Error:   "query failed",
		Details: err.Error(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("[server] Encode response: %v", err)
	}
}
