package scheduler

import (
	"context"
	"fmt"

	"tradesync/internal/market/state"
	"tradesync/pkg/gateway"
)

const (
	QuotesName = "quotes"
	StatusName = "status"
)

// Dispatcher is the store's write side.
type Dispatcher interface {
	Dispatch(a state.Action) state.State
	DispatchIf(ok func(state.State) bool, actions ...state.Action) (state.State, bool)
}

// QuoteJob fetches the watchlist snapshot and feeds set-quotes and the
// derived set-latest-prices view.
func QuoteJob(gw gateway.Gateway, d Dispatcher) Job {
	return func(ctx context.Context) error {
		resp, err := gw.Watchlist(ctx)
		if err != nil {
			return fmt.Errorf("fetch watchlist: %w", err)
		}
		// Stopped or closed while the request was in flight.
		if err := ctx.Err(); err != nil {
			return err
		}

		// A response that lands after autoRefresh was switched off is discarded.
		quotes, latest := ToQuotes(resp)
		d.DispatchIf(autoRefreshOn,
			state.Action{Kind: state.SetQuotes, Payload: quotes},
			state.Action{Kind: state.SetLatestPrices, Payload: latest},
		)
		return nil
	}
}

func autoRefreshOn(s state.State) bool { return s.Preferences.AutoRefresh }

// StatusJob fetches system status and feeds update-status.
func StatusJob(gw gateway.Gateway, d Dispatcher) Job {
	return func(ctx context.Context) error {
		st, err := gw.Status(ctx)
		if err != nil {
			return fmt.Errorf("fetch status: %w", err)
		}
		d.Dispatch(state.Action{Kind: state.UpdateStatus, Payload: map[string]string(st)})
		return nil
	}
}

// ToQuotes converts a watchlist snapshot into quote and latest-price maps.
func ToQuotes(resp *gateway.WatchlistResponse) (map[string]state.Quote, map[string]state.LatestPrice) {
	quotes := make(map[string]state.Quote, len(resp.Stocks))
	latest := make(map[string]state.LatestPrice, len(resp.Stocks))

	for _, s := range resp.Stocks {
		quotes[s.Ticker] = state.Quote{
			Price:         s.Close,
			Change:        s.Change,
			ChangePercent: s.ChangePercent,
			Open:          s.Open,
			High:          s.High,
			Low:           s.Low,
			Volume:        s.Volume,
			AsOf:          s.Date,
		}
		latest[s.Ticker] = state.LatestPrice{
			Price:         s.Close,
			Change:        s.Change,
			ChangePercent: s.ChangePercent,
			Volume:        s.Volume,
		}
	}
	return quotes, latest
}
