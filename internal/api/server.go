// Package api exposes the dashboard data over HTTP: the watchlist with
// display-formatted fields, render-ready price charts, and coin search.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arvindri2005/Crypto-Tracker/internal/chart"
	"github.com/arvindri2005/Crypto-Tracker/internal/coingecko"
	"github.com/arvindri2005/Crypto-Tracker/internal/format"
	"github.com/arvindri2005/Crypto-Tracker/internal/search"
	"github.com/arvindri2005/Crypto-Tracker/internal/watchlist"
)

const searchTimeout = 10 * time.Second

// ChartSource is the price-history capability the server needs from the
// market-data API.
type ChartSource interface {
	GetCoinMarketChart(ctx context.Context, id string, rangeDays int) (*coingecko.MarketChart, error)
}

type Server struct {
	store     *watchlist.Store
	charts    ChartSource
	searcher  *search.Searcher
	maxPoints int
	logger    *logrus.Logger
}

func NewServer(store *watchlist.Store, charts ChartSource, searcher *search.Searcher, maxPoints int, logger *logrus.Logger) *Server {
	if maxPoints <= 0 {
		maxPoints = chart.DefaultMaxPoints
	}
	return &Server{
		store:     store,
		charts:    charts,
		searcher:  searcher,
		maxPoints: maxPoints,
		logger:    logger,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/watchlist", s.handleWatchlist)
	mux.HandleFunc("POST /api/watchlist/{id}", s.handleWatchlistAdd)
	mux.HandleFunc("DELETE /api/watchlist/{id}", s.handleWatchlistRemove)
	mux.HandleFunc("GET /api/coins/{id}/chart", s.handleChart)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	return mux
}

func (s *Server) StartServer(port string) *http.Server {
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		s.logger.WithField("port", port).Info("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("API server failed")
		}
	}()

	return server
}

// WatchlistRow is one watchlist entry with display-formatted fields
// alongside the raw price for sorting.
type WatchlistRow struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Symbol    string  `json:"symbol"`
	Image     string  `json:"image"`
	Price     string  `json:"price"`
	PriceRaw  float64 `json:"price_raw"`
	Change24h string  `json:"change_24h"`
	MarketCap string  `json:"market_cap"`
}

type WatchlistResponse struct {
	Phase    string         `json:"phase"`
	Fetching bool           `json:"fetching"`
	Error    string         `json:"error,omitempty"`
	IDs      []string       `json:"ids"`
	Coins    []WatchlistRow `json:"coins"`
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	phase, fetching, fetchErr := s.store.State()

	coins := s.store.Coins()
	rows := make([]WatchlistRow, 0, len(coins))
	for _, c := range coins {
		rows = append(rows, toRow(c))
	}

	resp := WatchlistResponse{
		Phase:    phase.String(),
		Fetching: fetching,
		IDs:      s.store.IDs(),
		Coins:    rows,
	}
	if fetchErr != nil {
		resp.Error = fetchErr.Error()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatchlistAdd(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing coin id"})
		return
	}

	s.store.Add(id, nil)
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "watched": true})
}

func (s *Server) handleWatchlistRemove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.store.Remove(id)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "watched": false})
}

// ChartPoint is one render-ready point with its axis tick label.
type ChartPoint struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
	Label string    `json:"label"`
}

type ChartResponse struct {
	Coin     string       `json:"coin"`
	Days     int          `json:"days"`
	Points   []ChartPoint `json:"points"`
	AxisLow  float64      `json:"axis_low"`
	AxisHigh float64      `json:"axis_high"`
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	days, ok := parseDays(r.URL.Query().Get("days"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid days parameter"})
		return
	}

	raw, err := s.charts.GetCoinMarketChart(r.Context(), id, days)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sampled := chart.Downsample(raw.Prices, s.maxPoints)
	display := chart.ToDisplayPoints(sampled)
	low, high := chart.AxisDomain(display)

	points := make([]ChartPoint, 0, len(display))
	for _, p := range display {
		points = append(points, ChartPoint{
			Time:  p.Time,
			Price: p.Price,
			Label: chart.BucketLabel(days, p.Time),
		})
	}

	writeJSON(w, http.StatusOK, ChartResponse{
		Coin:     id,
		Days:     days,
		Points:   points,
		AxisLow:  low,
		AxisHigh: high,
	})
}

type SearchResponse struct {
	Query string                     `json:"query"`
	Coins []coingecko.CoinSearchItem `json:"coins"`
}

// handleSearch feeds the query through the debounced searcher and waits for
// its result. Rapid-fire requests collapse the same way keystrokes do: a
// superseded request times out instead of delivering a stale result.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	done := make(chan search.Result, 1)
	cancel := s.searcher.Subscribe(func(res search.Result) {
		if res.Query == query {
			select {
			case done <- res:
			default:
			}
		}
	})
	defer cancel()

	s.searcher.Query(query)

	select {
	case res := <-done:
		if res.Err != nil {
			s.writeError(w, res.Err)
			return
		}
		writeJSON(w, http.StatusOK, SearchResponse{Query: query, Coins: res.Coins})
	case <-time.After(searchTimeout):
		writeJSON(w, http.StatusGatewayTimeout, errorResponse{Error: "search superseded or timed out"})
	case <-r.Context().Done():
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var apiErr *coingecko.APIError
	if errors.As(err, &apiErr) {
		writeJSON(w, apiErr.StatusCode, errorResponse{Error: apiErr.Message})
		return
	}
	s.logger.WithError(err).Error("API request failed")
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func toRow(c coingecko.CoinMarket) WatchlistRow {
	maxFrac := 2
	if c.CurrentPrice < 1 {
		maxFrac = 6
	}
	change := c.PriceChangePercentage24h
	marketCap := c.MarketCap

	return WatchlistRow{
		ID:        c.ID,
		Name:      c.Name,
		Symbol:    c.Symbol,
		Image:     c.Image,
		Price:     format.Currency(c.CurrentPrice, maxFrac),
		PriceRaw:  c.CurrentPrice,
		Change24h: format.Percentage(&change),
		MarketCap: format.MarketCap(&marketCap),
	}
}

func parseDays(raw string) (int, bool) {
	switch raw {
	case "", "7":
		return 7, true
	case "max":
		return coingecko.RangeMax, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 {
		return 0, false
	}
	return days, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
