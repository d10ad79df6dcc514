package gateway

import "github.com/shopspring/decimal"

// WatchlistResponse is the body of GET /api/watchlist.
type WatchlistResponse struct {
	Stocks      []StockPrice `json:"stocks"`
	LastUpdated string       `json:"last_updated"`
}

// StockPrice is the latest daily bar for one watchlist symbol.
type StockPrice struct {
	Ticker        string          `json:"ticker"`
	Open          decimal.Decimal `json:"open"`
	Close         decimal.Decimal `json:"close"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Volume        decimal.Decimal `json:"volume"`
	Date          string          `json:"date"` // YYYY-MM-DD
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
}

// StockDetails is the body of GET /api/stock/{ticker}.
type StockDetails struct {
	Ticker      string          `json:"ticker"`
	Name        string          `json:"name"`
	MarketCap   decimal.Decimal `json:"market_cap"`
	Description string          `json:"description"`
	Sector      string          `json:"sector"`
	Employees   int64           `json:"employees"`
	Website     string          `json:"website"`
}

// ChartResponse is the body of GET /api/stock/{ticker}/chart.
type ChartResponse struct {
	Ticker string       `json:"ticker"`
	Period string       `json:"period"`
	Data   []ChartPoint `json:"data"`
}

type ChartPoint struct {
	Date   string          `json:"date"`
	Open   decimal.Decimal `json:"open"`
	Close  decimal.Decimal `json:"close"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Volume decimal.Decimal `json:"volume"`
}

// SystemStatus is the body of GET /api/system-status: named sub-statuses
// such as "dataIngestion" or "aiAgent".
type SystemStatus map[string]string
