package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const BaseURL = "https://api.coingecko.com/api/v3"

// RangeMax is the sentinel passed to GetCoinMarketChart to request the
// entire available history instead of a fixed day count.
const RangeMax = 0

type Config struct {
	BaseURL string
	APIKey  string
}

type Client struct {
	client *resty.Client
	logger *logrus.Logger
}

func New(config Config, logger *logrus.Logger) *Client {
	client := resty.New()

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
	}

	client.SetBaseURL(baseURL)
	client.SetTimeout(30 * time.Second)
	client.SetRetryCount(3)
	client.SetRetryWaitTime(1 * time.Second)
	client.SetHeader("Accept", "application/json")

	if config.APIKey != "" {
		client.SetHeader("x-cg-demo-api-key", config.APIKey)
	}

	return &Client{
		client: client,
		logger: logger,
	}
}

func (c *Client) get(ctx context.Context, endpoint string, params map[string]string, out any) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(endpoint)
	if err != nil {
		c.logger.WithError(err).WithField("endpoint", endpoint).Error("CoinGecko request failed")
		return fmt.Errorf("failed to fetch %s: %w", endpoint, err)
	}

	if resp.IsError() {
		apiErr := newAPIError(resp.StatusCode(), resp.Body())
		c.logger.WithFields(logrus.Fields{
			"endpoint": endpoint,
			"status":   resp.StatusCode(),
			"message":  apiErr.Message,
		}).Error("CoinGecko API error")
		return apiErr
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to unmarshal %s response: %w", endpoint, err)
	}

	return nil
}

// SearchCoins queries /search. A blank query short-circuits to an empty
// result without a network call.
func (c *Client) SearchCoins(ctx context.Context, query string) (*SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return &SearchResult{Coins: []CoinSearchItem{}}, nil
	}

	var result SearchResult
	if err := c.get(ctx, "/search", map[string]string{"query": query}, &result); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"query": query,
		"hits":  len(result.Coins),
	}).Debug("Search completed")
	return &result, nil
}

// GetCoinsMarkets fetches market rows for the given coin ids. An empty id
// list short-circuits to an empty slice without a network call.
func (c *Client) GetCoinsMarkets(ctx context.Context, ids []string) ([]CoinMarket, error) {
	if len(ids) == 0 {
		return []CoinMarket{}, nil
	}

	var markets []CoinMarket
	params := map[string]string{
		"vs_currency": "usd",
		"ids":         strings.Join(ids, ","),
		"order":       "market_cap_desc",
		"per_page":    "250",
		"page":        "1",
		"sparkline":   "false",
	}
	if err := c.get(ctx, "/coins/markets", params, &markets); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"requested": len(ids),
		"received":  len(markets),
	}).Debug("Fetched coin markets")
	return markets, nil
}

func (c *Client) GetCoinDetails(ctx context.Context, id string) (*CoinDetails, error) {
	var details CoinDetails
	params := map[string]string{
		"localization":   "false",
		"tickers":        "false",
		"market_data":    "true",
		"community_data": "false",
		"developer_data": "false",
		"sparkline":      "false",
	}
	if err := c.get(ctx, "/coins/"+id, params, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// GetCoinMarketChart fetches the price series for a coin. rangeDays <= 0
// (RangeMax) requests the entire available history.
func (c *Client) GetCoinMarketChart(ctx context.Context, id string, rangeDays int) (*MarketChart, error) {
	days := "max"
	if rangeDays > 0 {
		days = strconv.Itoa(rangeDays)
	}

	var chart MarketChart
	params := map[string]string{
		"vs_currency": "usd",
		"days":        days,
	}
	if err := c.get(ctx, "/coins/"+id+"/market_chart", params, &chart); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"coin_id": id,
		"days":    days,
		"points":  len(chart.Prices),
	}).Debug("Fetched market chart")
	return &chart, nil
}

func (c *Client) GetTrendingCoins(ctx context.Context) (*TrendingResult, error) {
	var trending TrendingResult
	if err := c.get(ctx, "/search/trending", nil, &trending); err != nil {
		return nil, err
	}
	return &trending, nil
}

func (c *Client) GetTopCoins(ctx context.Context, perPage int) ([]CoinMarket, error) {
	if perPage <= 0 {
		perPage = 10
	}

	var markets []CoinMarket
	params := map[string]string{
		"vs_currency": "usd",
		"order":       "market_cap_desc",
		"per_page":    strconv.Itoa(perPage),
		"page":        "1",
		"sparkline":   "false",
	}
	if err := c.get(ctx, "/coins/markets", params, &markets); err != nil {
		return nil, err
	}
	return markets, nil
}

// Ping checks API reachability; used by the health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	var out map[string]any
	return c.get(ctx, "/ping", nil, &out)
}
