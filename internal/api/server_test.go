package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arvindri2005/Crypto-Tracker/internal/coingecko"
	"github.com/arvindri2005/Crypto-Tracker/internal/search"
	"github.com/arvindri2005/Crypto-Tracker/internal/storage"
	"github.com/arvindri2005/Crypto-Tracker/internal/watchlist"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// MockMarketSource is a mock type for the watchlist MarketSource
type MockMarketSource struct {
	mock.Mock
}

func (m *MockMarketSource) GetCoinsMarkets(ctx context.Context, ids []string) ([]coingecko.CoinMarket, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]coingecko.CoinMarket), args.Error(1)
}

// MockChartSource is a mock type for ChartSource
type MockChartSource struct {
	mock.Mock
}

func (m *MockChartSource) GetCoinMarketChart(ctx context.Context, id string, rangeDays int) (*coingecko.MarketChart, error) {
	args := m.Called(ctx, id, rangeDays)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coingecko.MarketChart), args.Error(1)
}

type fakeSearchSource struct {
	coins []coingecko.CoinSearchItem
}

func (f fakeSearchSource) SearchCoins(ctx context.Context, query string) (*coingecko.SearchResult, error) {
	return &coingecko.SearchResult{Coins: f.coins}, nil
}

func newTestServer(t *testing.T, store *watchlist.Store, charts ChartSource, searchSource search.SearchSource) *httptest.Server {
	t.Helper()
	searcher := search.NewSearcher(searchSource, newTestLogger(), 10*time.Millisecond)
	t.Cleanup(searcher.Close)
	server := NewServer(store, charts, searcher, 400, newTestLogger())
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestWatchlistEndpoints_AddListRemove(t *testing.T) {
	t.Parallel()

	store := watchlist.New(storage.NewMemoryStore(), new(MockMarketSource), newTestLogger())
	ts := newTestServer(t, store, new(MockChartSource), fakeSearchSource{})

	// Add via the API.
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/watchlist/bitcoin", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, store.Contains("bitcoin"))

	// List reflects membership even before any snapshot exists.
	resp, err = http.Get(ts.URL + "/api/watchlist")
	require.NoError(t, err)
	list := decode[WatchlistResponse](t, resp)
	assert.Equal(t, []string{"bitcoin"}, list.IDs)
	assert.Empty(t, list.Coins)
	assert.Equal(t, "not_started", list.Phase)

	// Remove via the API.
	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/api/watchlist/bitcoin", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, store.Contains("bitcoin"))
}

func TestWatchlistEndpoint_FormattedRows(t *testing.T) {
	t.Parallel()

	store := watchlist.New(storage.NewMemoryStore(), new(MockMarketSource), newTestLogger())
	store.Add("bitcoin", &coingecko.CoinMarket{
		ID:                       "bitcoin",
		Name:                     "Bitcoin",
		Symbol:                   "btc",
		CurrentPrice:             65000,
		MarketCap:                1_280_000_000_000,
		PriceChangePercentage24h: -1.2,
	})
	store.Add("shiba-inu", &coingecko.CoinMarket{
		ID:           "shiba-inu",
		Name:         "Shiba Inu",
		Symbol:       "shib",
		CurrentPrice: 0.004532,
		MarketCap:    7_250_000,
	})

	ts := newTestServer(t, store, new(MockChartSource), fakeSearchSource{})

	resp, err := http.Get(ts.URL + "/api/watchlist")
	require.NoError(t, err)
	list := decode[WatchlistResponse](t, resp)

	require.Len(t, list.Coins, 2)
	assert.Equal(t, "$65,000.00", list.Coins[0].Price)
	assert.Equal(t, "-1.20%", list.Coins[0].Change24h)
	assert.Equal(t, "$1.28T", list.Coins[0].MarketCap)

	// Sub-dollar prices keep extra precision.
	assert.Equal(t, "$0.004532", list.Coins[1].Price)
	assert.Equal(t, "$7.25M", list.Coins[1].MarketCap)
}

func TestChartEndpoint_DownsamplesAndComputesAxis(t *testing.T) {
	t.Parallel()

	prices := make([]coingecko.PricePoint, 1000)
	base := int64(1_700_000_000_000)
	for i := range prices {
		prices[i] = coingecko.PricePoint{Timestamp: base + int64(i)*60_000, Price: 100 + float64(i%50)}
	}

	charts := new(MockChartSource)
	charts.On("GetCoinMarketChart", mock.Anything, "bitcoin", 7).
		Return(&coingecko.MarketChart{Prices: prices}, nil)

	store := watchlist.New(storage.NewMemoryStore(), new(MockMarketSource), newTestLogger())
	ts := newTestServer(t, store, charts, fakeSearchSource{})

	resp, err := http.Get(ts.URL + "/api/coins/bitcoin/chart?days=7")
	require.NoError(t, err)
	chartResp := decode[ChartResponse](t, resp)

	assert.LessOrEqual(t, len(chartResp.Points), 401)
	require.NotEmpty(t, chartResp.Points)

	// The most recent price survives downsampling.
	last := chartResp.Points[len(chartResp.Points)-1]
	assert.Equal(t, prices[len(prices)-1].Price, last.Price)

	assert.Less(t, chartResp.AxisLow, chartResp.AxisHigh)
	assert.Equal(t, "Nov 14", chartResp.Points[0].Label)
	charts.AssertExpectations(t)
}

func TestChartEndpoint_MaxRange(t *testing.T) {
	t.Parallel()

	charts := new(MockChartSource)
	charts.On("GetCoinMarketChart", mock.Anything, "bitcoin", coingecko.RangeMax).
		Return(&coingecko.MarketChart{Prices: []coingecko.PricePoint{}}, nil)

	store := watchlist.New(storage.NewMemoryStore(), new(MockMarketSource), newTestLogger())
	ts := newTestServer(t, store, charts, fakeSearchSource{})

	resp, err := http.Get(ts.URL + "/api/coins/bitcoin/chart?days=max")
	require.NoError(t, err)
	chartResp := decode[ChartResponse](t, resp)

	// No data is an explicit empty state with the default axis, not an error.
	assert.Empty(t, chartResp.Points)
	assert.Equal(t, 0.0, chartResp.AxisLow)
	assert.Equal(t, 1.0, chartResp.AxisHigh)
}

func TestChartEndpoint_RateLimitedPassesThrough(t *testing.T) {
	t.Parallel()

	charts := new(MockChartSource)
	charts.On("GetCoinMarketChart", mock.Anything, "bitcoin", 7).
		Return(nil, &coingecko.APIError{StatusCode: http.StatusTooManyRequests, Message: "rate limited"})

	store := watchlist.New(storage.NewMemoryStore(), new(MockMarketSource), newTestLogger())
	ts := newTestServer(t, store, charts, fakeSearchSource{})

	resp, err := http.Get(ts.URL + "/api/coins/bitcoin/chart?days=7")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestChartEndpoint_InvalidDays(t *testing.T) {
	t.Parallel()

	store := watchlist.New(storage.NewMemoryStore(), new(MockMarketSource), newTestLogger())
	ts := newTestServer(t, store, new(MockChartSource), fakeSearchSource{})

	resp, err := http.Get(ts.URL + "/api/coins/bitcoin/chart?days=soon")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchEndpoint(t *testing.T) {
	t.Parallel()

	source := fakeSearchSource{coins: []coingecko.CoinSearchItem{{ID: "bitcoin", Name: "Bitcoin"}}}
	store := watchlist.New(storage.NewMemoryStore(), new(MockMarketSource), newTestLogger())
	ts := newTestServer(t, store, new(MockChartSource), source)

	resp, err := http.Get(ts.URL + "/api/search?query=bitcoin")
	require.NoError(t, err)
	searchResp := decode[SearchResponse](t, resp)

	assert.Equal(t, "bitcoin", searchResp.Query)
	require.Len(t, searchResp.Coins, 1)
	assert.Equal(t, "bitcoin", searchResp.Coins[0].ID)
}
