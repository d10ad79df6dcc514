// Package gateway is the client side of the remote market data provider.
package gateway

import (
	"context"
	"errors"
	"fmt"
)

// Gateway is the read/write contract of the remote data provider. All calls
// may fail transiently; callers drop the result and retry on their own
// schedule.
type Gateway interface {
	Watchlist(ctx context.Context) (*WatchlistResponse, error)
	Detail(ctx context.Context, ticker string) (*StockDetails, error)
	Chart(ctx context.Context, ticker, period string) (*ChartResponse, error)
	Status(ctx context.Context) (SystemStatus, error)
	AddSymbol(ctx context.Context, ticker string) error
	RemoveSymbol(ctx context.Context, ticker string) error
}

// ErrMalformed marks a response that decoded but violates the contract.
var ErrMalformed = errors.New("malformed response")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway error: status %d: %s", e.Code, e.Body)
}

// Validate rejects a snapshot with any unidentifiable row, so that a bad
// payload is dropped whole rather than partially applied.
func (r *WatchlistResponse) Validate() error {
	for i, s := range r.Stocks {
		if s.Ticker == "" {
			return fmt.Errorf("%w: stocks[%d] has no ticker", ErrMalformed, i)
		}
	}
	return nil
}

func (r *ChartResponse) Validate() error {
	for i, p := range r.Data {
		if p.Date == "" {
			return fmt.Errorf("%w: data[%d] has no date", ErrMalformed, i)
		}
	}
	return nil
}
