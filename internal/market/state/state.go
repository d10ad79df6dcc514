// Package state holds the session's market state, the closed set of
// transitions that change it, and the single-writer store that applies them.
package state

import "strings"

const (
	SignalLimit  = 50
	InsightLimit = 20
)

// NormalizeSymbol is the canonical form of a ticker: trimmed and upper case.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Watchlist is the ordered list of symbols on display. Duplicates are the
// caller's responsibility.
type Watchlist []string

// DefaultWatchlist is loaded at session start.
var DefaultWatchlist = Watchlist{
	"DE", "APPL", "AMD", "DELL", "FIG", "UBER", "MRVL",
	"CSCO", "VICI", "PUBM", "AVD", "PDSB", "QQQ", "VOO",
}

// Contains reports whether symbol is on the list.
func (w Watchlist) Contains(symbol string) bool {
	for _, s := range w {
		if s == symbol {
			return true
		}
	}
	return false
}

// State is the whole application state. Values are never mutated once
// published by a Store; the reducer builds a new State for every change.
type State struct {
	Watchlist    Watchlist              `json:"watchlist"`
	Quotes       map[string]Quote       `json:"marketData"`
	LatestPrices map[string]LatestPrice `json:"latestPrices"`
	Details      map[string]Detail      `json:"stockDetails"`
	Charts       map[string]Series      `json:"chartData"`
	Period       Period                 `json:"period"`
	Signals      Bounded[Signal]        `json:"signals"`
	Insights     Bounded[Insight]       `json:"aiInsights"`
	Status       Status                 `json:"systemStatus"`
	Preferences  Preferences            `json:"preferences"`
	Voice        Voice                  `json:"voice"`
}

// Initial returns the fixed session-start state.
func Initial() State {
	wl := make(Watchlist, len(DefaultWatchlist))
	copy(wl, DefaultWatchlist)

	return State{
		Watchlist:    wl,
		Quotes:       map[string]Quote{},
		LatestPrices: map[string]LatestPrice{},
		Details:      map[string]Detail{},
		Charts:       map[string]Series{},
		Period:       DefaultPeriod,
		Signals:      NewBounded[Signal](SignalLimit),
		Insights:     NewBounded[Insight](InsightLimit),
		Status: Status{
			Components: map[string]string{
				"dataIngestion": "idle",
				"aiAgent":       "idle",
				"voiceService":  "idle",
			},
		},
		Preferences: Preferences{
			AutoRefresh:   true,
			Notifications: true,
			Theme:         ThemeDark,
		},
	}
}

// ChartFor returns the cached series for symbol only if it was fetched for
// the currently selected period.
func (s State) ChartFor(symbol string) (Series, bool) {
	ser, ok := s.Charts[symbol]
	if !ok || ser.Period != s.Period {
		return Series{}, false
	}
	return ser, true
}
