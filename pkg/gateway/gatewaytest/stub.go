// Package gatewaytest provides a programmable Gateway for tests.
package gatewaytest

import (
	"context"
	"errors"
	"sync"

	"tradesync/pkg/gateway"
)

var ErrUnavailable = errors.New("gateway unavailable")

// Stub is a Gateway whose responses are set per call. Unset functions fail
// with ErrUnavailable. Calls are counted per method.
type Stub struct {
	WatchlistFn    func(ctx context.Context) (*gateway.WatchlistResponse, error)
	DetailFn       func(ctx context.Context, ticker string) (*gateway.StockDetails, error)
	ChartFn        func(ctx context.Context, ticker, period string) (*gateway.ChartResponse, error)
	StatusFn       func(ctx context.Context) (gateway.SystemStatus, error)
	AddSymbolFn    func(ctx context.Context, ticker string) error
	RemoveSymbolFn func(ctx context.Context, ticker string) error

	mu    sync.Mutex
	calls map[string]int
}

func (s *Stub) record(method string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[method]++
}

// Calls returns how many times method was invoked.
func (s *Stub) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func (s *Stub) Watchlist(ctx context.Context) (*gateway.WatchlistResponse, error) {
	s.record("Watchlist")
	if s.WatchlistFn == nil {
		return nil, ErrUnavailable
	}
	return s.WatchlistFn(ctx)
}

func (s *Stub) Detail(ctx context.Context, ticker string) (*gateway.StockDetails, error) {
	s.record("Detail")
	if s.DetailFn == nil {
		return nil, ErrUnavailable
	}
	return s.DetailFn(ctx, ticker)
}

func (s *Stub) Chart(ctx context.Context, ticker, period string) (*gateway.ChartResponse, error) {
	s.record("Chart")
	if s.ChartFn == nil {
		return nil, ErrUnavailable
	}
	return s.ChartFn(ctx, ticker, period)
}

func (s *Stub) Status(ctx context.Context) (gateway.SystemStatus, error) {
	s.record("Status")
	if s.StatusFn == nil {
		return nil, ErrUnavailable
	}
	return s.StatusFn(ctx)
}

func (s *Stub) AddSymbol(ctx context.Context, ticker string) error {
	s.record("AddSymbol")
	if s.AddSymbolFn == nil {
		return ErrUnavailable
	}
	return s.AddSymbolFn(ctx, ticker)
}

func (s *Stub) RemoveSymbol(ctx context.Context, ticker string) error {
	s.record("RemoveSymbol")
	if s.RemoveSymbolFn == nil {
		return ErrUnavailable
	}
	return s.RemoveSymbolFn(ctx, ticker)
}

var _ gateway.Gateway = (*Stub)(nil)
