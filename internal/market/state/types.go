package state

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the latest known snapshot for a symbol. A refresh replaces it
// wholesale; fields are never merged across refreshes.
type Quote struct {
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
	Open          decimal.Decimal `json:"open"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Volume        decimal.Decimal `json:"volume"`
	AsOf          string          `json:"asOf"` // trading date, YYYY-MM-DD
}

// LatestPrice is the ticker-tape view derived from the same refresh as Quote.
type LatestPrice struct {
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
	Volume        decimal.Decimal `json:"volume"`
}

// Detail is descriptive metadata for a symbol, fetched on demand.
type Detail struct {
	Symbol      string          `json:"symbol"`
	Name        string          `json:"name"`
	MarketCap   decimal.Decimal `json:"marketCap"`
	Description string          `json:"description"`
	Sector      string          `json:"sector"`
	Employees   int64           `json:"employees"`
	Website     string          `json:"website"`
}

// Point is one OHLCV bar of a chart series.
type Point struct {
	Date   string          `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

// Series is a symbol's chart history, tagged with the period it was fetched for.
type Series struct {
	Period Period  `json:"period"`
	Points []Point `json:"points"`
}

// Sentiment classifies a signal or insight.
type Sentiment string

const (
	Bullish Sentiment = "bullish"
	Bearish Sentiment = "bearish"
	Neutral Sentiment = "neutral"
)

// EventStatus is open-ended; active and pending are the common values.
type EventStatus string

const (
	StatusActive  EventStatus = "active"
	StatusPending EventStatus = "pending"
	StatusClosed  EventStatus = "closed"
)

// Signal is an immutable trading signal event.
type Signal struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Sentiment  Sentiment       `json:"type"`
	Status     EventStatus     `json:"status"`
	Price      decimal.Decimal `json:"price"`
	Confidence float64         `json:"confidence"`
	Reason     string          `json:"reason,omitempty"`
	At         time.Time       `json:"timestamp"`
}

// Insight is an immutable analysis note.
type Insight struct {
	ID         string      `json:"id"`
	Symbol     string      `json:"symbol,omitempty"`
	Sentiment  Sentiment   `json:"type"`
	Status     EventStatus `json:"status"`
	Title      string      `json:"title"`
	Body       string      `json:"body,omitempty"`
	Confidence float64     `json:"confidence"`
	At         time.Time   `json:"timestamp"`
}

// Status holds named sub-statuses of the backend pipeline.
type Status struct {
	Components  map[string]string `json:"components"`
	LastUpdated time.Time         `json:"lastUpdated"`
}

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

type Preferences struct {
	AutoRefresh   bool  `json:"autoRefresh"`
	Notifications bool  `json:"notifications"`
	Theme         Theme `json:"theme"`
}

// PreferencesPatch is a partial Preferences; nil fields are left unchanged.
type PreferencesPatch struct {
	AutoRefresh   *bool  `json:"autoRefresh,omitempty"`
	Notifications *bool  `json:"notifications,omitempty"`
	Theme         *Theme `json:"theme,omitempty"`
}

// Voice holds last-write-wins assistant session fields.
type Voice struct {
	Transcript string `json:"transcript"`
	Response   string `json:"response"`
	Listening  bool   `json:"listening"`
}
