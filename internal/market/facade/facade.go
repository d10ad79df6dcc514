// Package facade is the UI's entry point into the market state: one method per
// transition plus the operations that trigger gateway calls.
package facade

import (
	"context"
	"fmt"
	"sync"

	"tradesync/internal/clock"
	"tradesync/internal/market/state"
	"tradesync/pkg/gateway"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the state store as seen by the facade.
type Store interface {
	State() state.State
	Dispatch(a state.Action) state.State
}

// Fetcher starts a detached detail and chart load for a symbol.
type Fetcher interface {
	Trigger(symbol string)
}

type Facade struct {
	store   Store
	fetcher Fetcher
	gw      gateway.Gateway
	clock   clock.Clock
	logger  *zap.Logger

	mu      sync.Mutex
	focused string
}

type Option func(*Facade)

func WithClock(c clock.Clock) Option { return func(f *Facade) { f.clock = c } }
func WithLogger(l *zap.Logger) Option { return func(f *Facade) { f.logger = l } }

func New(store Store, fetcher Fetcher, gw gateway.Gateway, opts ...Option) *Facade {
	f := &Facade{
		store:   store,
		fetcher: fetcher,
		gw:      gw,
		clock:   clock.Real{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Snapshot returns the current state. Treat it as read-only.
func (f *Facade) Snapshot() state.State {
	return f.store.State()
}

func (f *Facade) dispatch(kind state.Kind, payload any) state.State {
	return f.store.Dispatch(state.Action{Kind: kind, Payload: payload})
}

func (f *Facade) SetQuotes(q map[string]state.Quote) state.State {
	return f.dispatch(state.SetQuotes, q)
}

func (f *Facade) SetLatestPrices(p map[string]state.LatestPrice) state.State {
	return f.dispatch(state.SetLatestPrices, p)
}

func (f *Facade) SetDetails(d map[string]state.Detail) state.State {
	return f.dispatch(state.SetDetails, d)
}

func (f *Facade) SetChart(c map[string]state.Series) state.State {
	return f.dispatch(state.SetChart, c)
}

func (f *Facade) UpdateStatus(patch map[string]string) state.State {
	return f.dispatch(state.UpdateStatus, patch)
}

func (f *Facade) UpdatePreferences(patch state.PreferencesPatch) state.State {
	return f.dispatch(state.UpdatePreferences, patch)
}

func (f *Facade) SetVoiceTranscript(s string) state.State {
	return f.dispatch(state.SetVoiceTranscript, s)
}

func (f *Facade) SetVoiceResponse(s string) state.State {
	return f.dispatch(state.SetVoiceResponse, s)
}

func (f *Facade) SetListening(on bool) state.State {
	return f.dispatch(state.SetListening, on)
}

// AddSignal records sig, assigning an ID and timestamp when missing.
func (f *Facade) AddSignal(sig state.Signal) state.Signal {
	if sig.ID == "" {
		sig.ID = uuid.NewString()
	}
	if sig.At.IsZero() {
		sig.At = f.clock.Now()
	}
	f.dispatch(state.AppendSignal, sig)
	return sig
}

// AddInsight records in, assigning an ID and timestamp when missing.
func (f *Facade) AddInsight(in state.Insight) state.Insight {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.At.IsZero() {
		in.At = f.clock.Now()
	}
	f.dispatch(state.AppendInsight, in)
	return in
}

// FocusSymbol marks symbol as the one on display and loads its detail and
// chart for the current period in the background.
func (f *Facade) FocusSymbol(symbol string) {
	symbol = state.NormalizeSymbol(symbol)
	if symbol == "" {
		return
	}
	f.mu.Lock()
	f.focused = symbol
	f.mu.Unlock()

	f.fetcher.Trigger(symbol)
}

// Focused returns the symbol last passed to FocusSymbol.
func (f *Facade) Focused() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.focused
}

// SetPeriod selects the chart period. Cached series for other periods stay
// in state but are no longer returned by ChartFor; the focused symbol is
// re-fetched right away and others are loaded on their next focus.
func (f *Facade) SetPeriod(p state.Period) error {
	if !p.IsValid() {
		return fmt.Errorf("set period: invalid period %q", p)
	}
	prev := f.store.State().Period
	f.dispatch(state.SetPeriod, p)
	if prev == p {
		return nil
	}

	if sym := f.Focused(); sym != "" {
		f.logger.Debug("period changed, refetching focused symbol",
			zap.String("symbol", sym), zap.String("period", string(p)))
		f.fetcher.Trigger(sym)
	}
	return nil
}

// AddSymbol adds symbol on the gateway and, once accepted, to the local
// watchlist.
func (f *Facade) AddSymbol(ctx context.Context, symbol string) error {
	symbol = state.NormalizeSymbol(symbol)
	if symbol == "" {
		return fmt.Errorf("add symbol: empty symbol")
	}
	if err := f.gw.AddSymbol(ctx, symbol); err != nil {
		f.logger.Warn("add symbol rejected", zap.String("symbol", symbol), zap.Error(err))
		return fmt.Errorf("add symbol %s: %w", symbol, err)
	}
	f.dispatch(state.AddSymbol, symbol)
	return nil
}

// RemoveSymbol removes symbol on the gateway and, once accepted, from the
// local watchlist. Cached quotes, details and charts are kept.
func (f *Facade) RemoveSymbol(ctx context.Context, symbol string) error {
	symbol = state.NormalizeSymbol(symbol)
	if symbol == "" {
		return fmt.Errorf("remove symbol: empty symbol")
	}
	if err := f.gw.RemoveSymbol(ctx, symbol); err != nil {
		f.logger.Warn("remove symbol rejected", zap.String("symbol", symbol), zap.Error(err))
		return fmt.Errorf("remove symbol %s: %w", symbol, err)
	}
	f.dispatch(state.RemoveSymbol, symbol)
	return nil
}
