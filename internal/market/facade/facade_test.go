package facade

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tradesync/internal/clock"
	"tradesync/internal/market/state"
	"tradesync/pkg/gateway/gatewaytest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 6, 14, 9, 30, 0, 0, time.UTC)

type recordingFetcher struct {
	mu      sync.Mutex
	symbols []string
}

func (r *recordingFetcher) Trigger(symbol string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.symbols = append(r.symbols, symbol)
}

func (r *recordingFetcher) triggered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.symbols...)
}

func newFacade(gw *gatewaytest.Stub) (*Facade, *state.Store, *recordingFetcher) {
	c := clock.NewFake(epoch)
	store := state.NewStore(c, state.Initial())
	rf := &recordingFetcher{}
	return New(store, rf, gw, WithClock(c)), store, rf
}

// go test -v --run TestFacadePassThrough
func TestFacadePassThrough(t *testing.T) {
	f, _, _ := newFacade(&gatewaytest.Stub{})

	f.SetQuotes(map[string]state.Quote{"A": {Price: decimal.NewFromInt(10)}})
	f.SetQuotes(map[string]state.Quote{"B": {Price: decimal.NewFromInt(20)}})
	f.SetLatestPrices(map[string]state.LatestPrice{"A": {Price: decimal.NewFromInt(10)}})
	f.SetDetails(map[string]state.Detail{"A": {Symbol: "A", Name: "Alpha"}})
	f.SetChart(map[string]state.Series{"A": {Period: state.Period1Month}})
	f.UpdateStatus(map[string]string{"aiAgent": "running"})
	off := false
	f.UpdatePreferences(state.PreferencesPatch{Notifications: &off})
	f.SetVoiceTranscript("show me AMD")
	f.SetVoiceResponse("AMD is up 2%")
	st := f.SetListening(true)

	assert.Len(t, st.Quotes, 2)
	assert.Contains(t, st.LatestPrices, "A")
	assert.Equal(t, "Alpha", st.Details["A"].Name)
	assert.Contains(t, st.Charts, "A")
	assert.Equal(t, "running", st.Status.Components["aiAgent"])
	assert.Equal(t, epoch, st.Status.LastUpdated)
	assert.False(t, st.Preferences.Notifications)
	assert.True(t, st.Preferences.AutoRefresh)
	assert.Equal(t, state.Voice{Transcript: "show me AMD", Response: "AMD is up 2%", Listening: true}, st.Voice)
	assert.Equal(t, st.Voice, f.Snapshot().Voice)
}

// go test -v --run TestFacadeAddSignalAssignsIdentity
func TestFacadeAddSignalAssignsIdentity(t *testing.T) {
	f, _, _ := newFacade(&gatewaytest.Stub{})

	sig := f.AddSignal(state.Signal{Symbol: "AMD", Sentiment: state.Bullish, Status: state.StatusActive})
	assert.NotEmpty(t, sig.ID)
	assert.Equal(t, epoch, sig.At)

	kept := f.AddSignal(state.Signal{ID: "fixed", At: epoch.Add(-time.Hour)})
	assert.Equal(t, "fixed", kept.ID)
	assert.Equal(t, epoch.Add(-time.Hour), kept.At)

	in := f.AddInsight(state.Insight{Title: "Momentum building"})
	assert.NotEmpty(t, in.ID)

	st := f.Snapshot()
	require.Equal(t, 2, st.Signals.Len())
	head, ok := st.Signals.Head()
	require.True(t, ok)
	assert.Equal(t, "fixed", head.ID)
	assert.Equal(t, sig.ID, st.Signals.Items()[1].ID)
	assert.Equal(t, 1, st.Insights.Len())
}

// go test -v --run TestFacadeFocusAndPeriod
func TestFacadeFocusAndPeriod(t *testing.T) {
	f, store, rf := newFacade(&gatewaytest.Stub{})

	// No focus yet: a period change only updates state.
	require.NoError(t, f.SetPeriod(state.Period3Months))
	assert.Empty(t, rf.triggered())

	f.FocusSymbol(" amd ")
	assert.Equal(t, "AMD", f.Focused())
	assert.Equal(t, []string{"AMD"}, rf.triggered())

	// Selecting the same period is not a change.
	require.NoError(t, f.SetPeriod(state.Period3Months))
	assert.Len(t, rf.triggered(), 1)

	require.NoError(t, f.SetPeriod(state.Period1Year))
	assert.Equal(t, []string{"AMD", "AMD"}, rf.triggered())
	assert.Equal(t, state.Period1Year, store.State().Period)

	err := f.SetPeriod(state.Period("2w"))
	require.Error(t, err)
	assert.Equal(t, state.Period1Year, store.State().Period)
}

// go test -v --run TestFacadeWatchlistWrites
func TestFacadeWatchlistWrites(t *testing.T) {
	var added, removed []string
	gw := &gatewaytest.Stub{
		AddSymbolFn: func(ctx context.Context, ticker string) error {
			added = append(added, ticker)
			return nil
		},
		RemoveSymbolFn: func(ctx context.Context, ticker string) error {
			removed = append(removed, ticker)
			return nil
		},
	}
	f, _, _ := newFacade(gw)
	f.SetQuotes(map[string]state.Quote{"AMD": {Price: decimal.NewFromInt(150)}})

	require.NoError(t, f.AddSymbol(context.Background(), "nvda"))
	require.NoError(t, f.RemoveSymbol(context.Background(), "AMD"))

	st := f.Snapshot()
	assert.Equal(t, []string{"NVDA"}, added)
	assert.Equal(t, []string{"AMD"}, removed)
	assert.True(t, st.Watchlist.Contains("NVDA"))
	assert.False(t, st.Watchlist.Contains("AMD"))
	assert.Contains(t, st.Quotes, "AMD", "removal keeps caches")
}

// go test -v --run TestFacadeWatchlistWriteRejected
func TestFacadeWatchlistWriteRejected(t *testing.T) {
	rejected := errors.New("ticker not found")
	gw := &gatewaytest.Stub{
		AddSymbolFn: func(ctx context.Context, ticker string) error { return rejected },
	}
	f, _, _ := newFacade(gw)
	before := f.Snapshot().Watchlist

	err := f.AddSymbol(context.Background(), "ZZZZ")
	require.ErrorIs(t, err, rejected)
	assert.Equal(t, before, f.Snapshot().Watchlist)

	err = f.RemoveSymbol(context.Background(), "AMD")
	require.ErrorIs(t, err, gatewaytest.ErrUnavailable)
	assert.True(t, f.Snapshot().Watchlist.Contains("AMD"))

	require.Error(t, f.AddSymbol(context.Background(), "  "))
	assert.Equal(t, 1, gw.Calls("AddSymbol"), "blank symbols never reach the gateway")
}
