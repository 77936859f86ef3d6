package coingecko

import (
	"encoding/json"
	"fmt"
)

// PricePoint is one entry of a market chart series. CoinGecko delivers it as
// a two-element array: [timestampMillis, price].
type PricePoint struct {
	Timestamp int64
	Price     float64
}

func (p *PricePoint) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("failed to unmarshal price point: %w", err)
	}
	p.Timestamp = int64(pair[0])
	p.Price = pair[1]
	return nil
}

func (p PricePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{float64(p.Timestamp), p.Price})
}

// CoinMarket is one row of the /coins/markets response.
type CoinMarket struct {
	ID                           string   `json:"id"`
	Symbol                       string   `json:"symbol"`
	Name                         string   `json:"name"`
	Image                        string   `json:"image"`
	CurrentPrice                 float64  `json:"current_price"`
	MarketCap                    float64  `json:"market_cap"`
	MarketCapRank                int      `json:"market_cap_rank"`
	FullyDilutedValuation        *float64 `json:"fully_diluted_valuation"`
	TotalVolume                  float64  `json:"total_volume"`
	High24h                      float64  `json:"high_24h"`
	Low24h                       float64  `json:"low_24h"`
	PriceChange24h               float64  `json:"price_change_24h"`
	PriceChangePercentage24h     float64  `json:"price_change_percentage_24h"`
	MarketCapChange24h           float64  `json:"market_cap_change_24h"`
	MarketCapChangePercentage24h float64  `json:"market_cap_change_percentage_24h"`
	CirculatingSupply            float64  `json:"circulating_supply"`
	TotalSupply                  *float64 `json:"total_supply"`
	MaxSupply                    *float64 `json:"max_supply"`
	ATH                          float64  `json:"ath"`
	ATHChangePercentage          float64  `json:"ath_change_percentage"`
	ATHDate                      string   `json:"ath_date"`
	ATL                          float64  `json:"atl"`
	ATLChangePercentage          float64  `json:"atl_change_percentage"`
	ATLDate                      string   `json:"atl_date"`
	LastUpdated                  string   `json:"last_updated"`
}

// CoinDetails is the /coins/{id} response, trimmed to the fields the
// dashboard renders.
type CoinDetails struct {
	ID          string `json:"id"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Image       Image  `json:"image"`
	Description struct {
		En string `json:"en"`
	} `json:"description"`
	MarketData MarketData `json:"market_data"`
	Links      Links      `json:"links"`
}

type Image struct {
	Thumb string `json:"thumb"`
	Small string `json:"small"`
	Large string `json:"large"`
}

type MarketData struct {
	CurrentPrice                       map[string]float64 `json:"current_price"`
	PriceChangePercentage24hInCurrency map[string]float64 `json:"price_change_percentage_24h_in_currency"`
	TotalVolume                        map[string]float64 `json:"total_volume"`
	MarketCap                          map[string]float64 `json:"market_cap"`
	CirculatingSupply                  float64            `json:"circulating_supply"`
	TotalSupply                        *float64           `json:"total_supply"`
	MaxSupply                          *float64           `json:"max_supply"`
	High24h                            map[string]float64 `json:"high_24h"`
	Low24h                             map[string]float64 `json:"low_24h"`
}

type Links struct {
	Homepage     []string `json:"homepage"`
	SubredditURL string   `json:"subreddit_url"`
	TwitterName  string   `json:"twitter_screen_name"`
}

// CoinSearchItem is one hit of the /search response.
type CoinSearchItem struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	APISymbol     string `json:"api_symbol"`
	Symbol        string `json:"symbol"`
	MarketCapRank *int   `json:"market_cap_rank"`
	Thumb         string `json:"thumb"`
	Large         string `json:"large"`
}

type SearchResult struct {
	Coins []CoinSearchItem `json:"coins"`
}

// TrendingCoinItem wraps one trending coin; the API nests the payload
// under an "item" key.
type TrendingCoinItem struct {
	Item struct {
		ID            string  `json:"id"`
		CoinID        int     `json:"coin_id"`
		Name          string  `json:"name"`
		Symbol        string  `json:"symbol"`
		MarketCapRank int     `json:"market_cap_rank"`
		Thumb         string  `json:"thumb"`
		Small         string  `json:"small"`
		Large         string  `json:"large"`
		Slug          string  `json:"slug"`
		PriceBTC      float64 `json:"price_btc"`
		Score         int     `json:"score"`
	} `json:"item"`
}

type TrendingResult struct {
	Coins []TrendingCoinItem `json:"coins"`
}

// MarketChart is the /coins/{id}/market_chart response.
type MarketChart struct {
	Prices       []PricePoint `json:"prices"`
	MarketCaps   []PricePoint `json:"market_caps"`
	TotalVolumes []PricePoint `json:"total_volumes"`
}
