// Package ondemand loads per-symbol detail and chart history when a symbol
// is brought into focus.
package ondemand

import (
	"context"
	"fmt"
	"time"

	"tradesync/internal/clock"
	"tradesync/internal/market/state"
	"tradesync/internal/metrics"
	"tradesync/pkg/gateway"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DetailSource = "detail"
	ChartSource  = "chart"
)

// Store is the part of the state store the fetcher needs.
type Store interface {
	State() state.State
	Dispatch(a state.Action) state.State
}

// Fetcher issues detail and chart requests for one symbol at a time. Requests
// are neither coalesced nor cancelled when superseded; every success is
// dispatched when it arrives, and the store keeps a chart already valid for
// the selected period over a late one fetched for an older period.
type Fetcher struct {
	gw      gateway.Gateway
	store   Store
	clock   clock.Clock
	logger  *zap.Logger
	metrics *metrics.Registry
	timeout time.Duration
}

type Option func(*Fetcher)

func WithClock(c clock.Clock) Option { return func(f *Fetcher) { f.clock = c } }
func WithLogger(l *zap.Logger) Option { return func(f *Fetcher) { f.logger = l } }
func WithMetrics(m *metrics.Registry) Option { return func(f *Fetcher) { f.metrics = m } }

// WithTimeout bounds requests started by Trigger.
func WithTimeout(d time.Duration) Option { return func(f *Fetcher) { f.timeout = d } }

func NewFetcher(gw gateway.Gateway, store Store, opts ...Option) *Fetcher {
	f := &Fetcher{
		gw:      gw,
		store:   store,
		clock:   clock.Real{},
		logger:  zap.NewNop(),
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch requests detail and chart history for symbol concurrently, using the
// period selected at call time. The two requests fail independently: a
// failure of one never discards the other. The returned error is the first
// failure, if any.
func (f *Fetcher) Fetch(ctx context.Context, symbol string) error {
	period := f.store.State().Period

	var g errgroup.Group
	g.Go(func() error {
		return f.fetchDetail(ctx, symbol)
	})
	g.Go(func() error {
		return f.fetchChart(ctx, symbol, period)
	})
	return g.Wait()
}

// Trigger runs Fetch in the background, detached from any caller context.
func (f *Fetcher) Trigger(symbol string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
		defer cancel()
		_ = f.Fetch(ctx, symbol)
	}()
}

func (f *Fetcher) fetchDetail(ctx context.Context, symbol string) error {
	started := f.clock.Now()
	resp, err := f.gw.Detail(ctx, symbol)
	f.observe(DetailSource, started, err)
	if err != nil {
		f.logger.Warn("detail fetch failed", zap.String("symbol", symbol), zap.Error(err))
		return fmt.Errorf("fetch detail %s: %w", symbol, err)
	}

	f.store.Dispatch(state.Action{
		Kind:    state.SetDetails,
		Payload: map[string]state.Detail{symbol: ToDetail(symbol, resp)},
	})
	return nil
}

func (f *Fetcher) fetchChart(ctx context.Context, symbol string, period state.Period) error {
	started := f.clock.Now()
	resp, err := f.gw.Chart(ctx, symbol, string(period))
	f.observe(ChartSource, started, err)
	if err != nil {
		f.logger.Warn("chart fetch failed",
			zap.String("symbol", symbol),
			zap.String("period", string(period)),
			zap.Error(err))
		return fmt.Errorf("fetch chart %s/%s: %w", symbol, period, err)
	}

	f.store.Dispatch(state.Action{
		Kind:    state.SetChart,
		Payload: map[string]state.Series{symbol: ToSeries(period, resp)},
	})
	return nil
}

func (f *Fetcher) observe(source string, started time.Time, err error) {
	if f.metrics == nil {
		return
	}
	f.metrics.ObserveFetch(source, f.clock.Now().Sub(started), err)
}

// ToDetail converts a gateway detail response keyed under symbol.
func ToDetail(symbol string, d *gateway.StockDetails) state.Detail {
	return state.Detail{
		Symbol:      symbol,
		Name:        d.Name,
		MarketCap:   d.MarketCap,
		Description: d.Description,
		Sector:      d.Sector,
		Employees:   d.Employees,
		Website:     d.Website,
	}
}

// ToSeries converts a chart response and tags it with the requested period,
// regardless of what the response claims.
func ToSeries(period state.Period, c *gateway.ChartResponse) state.Series {
	points := make([]state.Point, 0, len(c.Data))
	for _, p := range c.Data {
		points = append(points, state.Point{
			Date:   p.Date,
			Open:   p.Open,
			High:   p.High,
			Low:    p.Low,
			Close:  p.Close,
			Volume: p.Volume,
		})
	}
	return state.Series{Period: period, Points: points}
}
