package state

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quote(price int64) Quote {
	return Quote{Price: decimal.NewFromInt(price), AsOf: "2024-06-14"}
}

// go test -v --run TestReduceSetQuotesMerges
func TestReduceSetQuotesMerges(t *testing.T) {
	s := Initial()
	s.Watchlist = Watchlist{"A", "B"}

	s = Reduce(s, Action{Kind: SetQuotes, Payload: map[string]Quote{"A": quote(10)}})
	s = Reduce(s, Action{Kind: SetQuotes, Payload: map[string]Quote{"B": quote(20)}})

	require.Len(t, s.Quotes, 2)
	assert.True(t, s.Quotes["A"].Price.Equal(decimal.NewFromInt(10)))
	assert.True(t, s.Quotes["B"].Price.Equal(decimal.NewFromInt(20)))

	// A later refresh replaces the whole snapshot for the symbols it returns.
	s = Reduce(s, Action{Kind: SetQuotes, Payload: map[string]Quote{"A": {Price: decimal.NewFromInt(11)}}})
	assert.True(t, s.Quotes["A"].Price.Equal(decimal.NewFromInt(11)))
	assert.Empty(t, s.Quotes["A"].AsOf, "snapshot fields are not merged across refreshes")
	assert.True(t, s.Quotes["B"].Price.Equal(decimal.NewFromInt(20)))
}

// go test -v --run TestReduceDoesNotMutateInput
func TestReduceDoesNotMutateInput(t *testing.T) {
	before := Initial()
	before = Reduce(before, Action{Kind: SetQuotes, Payload: map[string]Quote{"A": quote(1)}})

	after := Reduce(before, Action{Kind: SetQuotes, Payload: map[string]Quote{"B": quote(2)}})
	after = Reduce(after, Action{Kind: AddSymbol, Payload: "ZZZ"})
	after = Reduce(after, Action{Kind: UpdateStatus, Payload: map[string]string{"aiAgent": "busy"}, At: time.Unix(10, 0)})

	assert.Len(t, before.Quotes, 1)
	assert.NotContains(t, before.Watchlist, "ZZZ")
	assert.Equal(t, "idle", before.Status.Components["aiAgent"])
	assert.Len(t, after.Quotes, 2)
}

// go test -v --run TestReduceIsDeterministic
func TestReduceIsDeterministic(t *testing.T) {
	base := Initial()
	at := time.Date(2024, 6, 14, 15, 0, 0, 0, time.UTC)

	actions := []Action{
		{Kind: SetQuotes, Payload: map[string]Quote{"AMD": quote(150)}},
		{Kind: SetChart, Payload: map[string]Series{"AMD": {Period: Period1Month}}},
		{Kind: AppendSignal, Payload: Signal{ID: "s1", Sentiment: Bullish, At: at}},
		{Kind: UpdateStatus, Payload: map[string]string{"dataIngestion": "running"}, At: at},
		{Kind: UpdatePreferences, Payload: PreferencesPatch{Theme: ptr(ThemeLight)}},
		{Kind: SetListening, Payload: true},
		{Kind: RemoveSymbol, Payload: "DE"},
	}
	for _, a := range actions {
		t.Run(string(a.Kind), func(t *testing.T) {
			assert.Equal(t, Reduce(base, a), Reduce(base, a))
		})
	}
}

// go test -v --run TestReduceUnknownKind
func TestReduceUnknownKind(t *testing.T) {
	s := Initial()
	got := Reduce(s, Action{Kind: "explode", Payload: 42})
	assert.Equal(t, s, got)

	// Same maps, not copies.
	assert.Equal(t, fmt.Sprintf("%p", s.Quotes), fmt.Sprintf("%p", got.Quotes))
}

// go test -v --run TestReduceWrongPayloadIsNoop
func TestReduceWrongPayloadIsNoop(t *testing.T) {
	s := Initial()
	for _, a := range []Action{
		{Kind: SetQuotes, Payload: "not a map"},
		{Kind: SetPeriod, Payload: Period("2w")},
		{Kind: AppendSignal, Payload: &Signal{}},
		{Kind: UpdatePreferences, Payload: nil},
		{Kind: SetListening, Payload: "yes"},
		{Kind: AddSymbol, Payload: ""},
	} {
		assert.Equal(t, s, Reduce(s, a), "kind %s", a.Kind)
	}
}

// go test -v --run TestReduceSignalsBounded
func TestReduceSignalsBounded(t *testing.T) {
	s := Initial()
	for i := 1; i <= 51; i++ {
		s = Reduce(s, Action{Kind: AppendSignal, Payload: Signal{ID: fmt.Sprintf("s%d", i)}})
		require.LessOrEqual(t, s.Signals.Len(), SignalLimit)
	}

	items := s.Signals.Items()
	require.Len(t, items, 50)
	assert.Equal(t, "s51", items[0].ID)
	assert.Equal(t, "s50", items[1].ID)
	assert.Equal(t, "s2", items[49].ID)
}

// go test -v --run TestReduceInsightsBounded
func TestReduceInsightsBounded(t *testing.T) {
	s := Initial()
	for i := 1; i <= 45; i++ {
		s = Reduce(s, Action{Kind: AppendInsight, Payload: Insight{ID: fmt.Sprintf("i%d", i)}})
		require.LessOrEqual(t, s.Insights.Len(), InsightLimit)
	}
	head, ok := s.Insights.Head()
	require.True(t, ok)
	assert.Equal(t, "i45", head.ID)
	assert.Equal(t, "i26", s.Insights.Items()[19].ID)
}

// go test -v --run TestReduceUpdateStatus
func TestReduceUpdateStatus(t *testing.T) {
	t0 := time.Date(2024, 6, 14, 15, 0, 0, 0, time.UTC)
	s := Initial()

	s = Reduce(s, Action{Kind: UpdateStatus, Payload: map[string]string{"dataIngestion": "running"}, At: t0})
	assert.Equal(t, "running", s.Status.Components["dataIngestion"])
	assert.Equal(t, "idle", s.Status.Components["aiAgent"])
	assert.Equal(t, t0, s.Status.LastUpdated)

	// Empty patch still stamps the time.
	s = Reduce(s, Action{Kind: UpdateStatus, Payload: map[string]string{}, At: t0.Add(time.Second)})
	assert.Equal(t, t0.Add(time.Second), s.Status.LastUpdated)

	// Never moves backwards.
	s = Reduce(s, Action{Kind: UpdateStatus, Payload: map[string]string{"aiAgent": "busy"}, At: t0})
	assert.Equal(t, t0.Add(time.Second), s.Status.LastUpdated)
	assert.Equal(t, "busy", s.Status.Components["aiAgent"])
}

// go test -v --run TestReducePreferences
func TestReducePreferences(t *testing.T) {
	s := Initial()
	s = Reduce(s, Action{Kind: UpdatePreferences, Payload: PreferencesPatch{AutoRefresh: ptr(false)}})

	assert.False(t, s.Preferences.AutoRefresh)
	assert.True(t, s.Preferences.Notifications)
	assert.Equal(t, ThemeDark, s.Preferences.Theme)
}

// go test -v --run TestReduceVoice
func TestReduceVoice(t *testing.T) {
	s := Initial()
	s = Reduce(s, Action{Kind: SetVoiceTranscript, Payload: "what is AMD doing"})
	s = Reduce(s, Action{Kind: SetVoiceResponse, Payload: "up 2%"})
	s = Reduce(s, Action{Kind: SetListening, Payload: true})
	s = Reduce(s, Action{Kind: SetVoiceTranscript, Payload: "thanks"})

	assert.Equal(t, Voice{Transcript: "thanks", Response: "up 2%", Listening: true}, s.Voice)
}

// go test -v --run TestReduceWatchlistKeepsCaches
func TestReduceWatchlistKeepsCaches(t *testing.T) {
	s := Initial()
	s.Watchlist = Watchlist{"A", "B", "A"}
	s = Reduce(s, Action{Kind: SetQuotes, Payload: map[string]Quote{"A": quote(1), "B": quote(2)}})
	s = Reduce(s, Action{Kind: SetDetails, Payload: map[string]Detail{"B": {Name: "Bravo"}}})

	s = Reduce(s, Action{Kind: RemoveSymbol, Payload: "A"})
	assert.Equal(t, Watchlist{"B"}, s.Watchlist)
	assert.Contains(t, s.Quotes, "B")
	assert.Equal(t, "Bravo", s.Details["B"].Name)

	s = Reduce(s, Action{Kind: AddSymbol, Payload: "C"})
	assert.Equal(t, Watchlist{"B", "C"}, s.Watchlist)
	assert.Len(t, s.Quotes, 2)
}

// go test -v --run TestChartForPeriodChange
func TestChartForPeriodChange(t *testing.T) {
	s := Initial()
	require.Equal(t, Period1Month, s.Period)

	s = Reduce(s, Action{Kind: SetChart, Payload: map[string]Series{
		"X": {Period: Period1Month, Points: []Point{{Date: "2024-06-14"}}},
	}})
	_, ok := s.ChartFor("X")
	require.True(t, ok)

	s = Reduce(s, Action{Kind: SetPeriod, Payload: Period1Year})
	_, ok = s.ChartFor("X")
	assert.False(t, ok, "series fetched for 1m must not be valid under 1y")

	s = Reduce(s, Action{Kind: SetChart, Payload: map[string]Series{
		"X": {Period: Period1Year, Points: []Point{{Date: "2023-06-14"}}},
	}})
	ser, ok := s.ChartFor("X")
	require.True(t, ok)
	assert.Equal(t, "2023-06-14", ser.Points[0].Date)
}

func ptr[T any](v T) *T { return &v }

// go test -v --run TestReduceStaleChartKeepsCurrent
func TestReduceStaleChartKeepsCurrent(t *testing.T) {
	s := Reduce(Initial(), Action{Kind: SetPeriod, Payload: Period1Year})
	s = Reduce(s, Action{Kind: SetChart, Payload: map[string]Series{
		"UBER": {Period: Period1Year, Points: []Point{{Date: "2023-06-14"}}},
	}})

	// A late 1m response must not replace the 1y series.
	s = Reduce(s, Action{Kind: SetChart, Payload: map[string]Series{
		"UBER": {Period: Period1Month, Points: []Point{{Date: "2024-05-14"}}},
		"LYFT": {Period: Period1Month},
	}})
	ser, ok := s.ChartFor("UBER")
	require.True(t, ok)
	assert.Equal(t, Period1Year, ser.Period)
	assert.Equal(t, Period1Month, s.Charts["LYFT"].Period, "no current series to keep")

	// Stale series still replace other stale series.
	s = Reduce(s, Action{Kind: SetChart, Payload: map[string]Series{"LYFT": {Period: Period5Days}}})
	assert.Equal(t, Period5Days, s.Charts["LYFT"].Period)
}

// go test -v --run TestReduceZeroStateAppends
func TestReduceZeroStateAppends(t *testing.T) {
	var s State
	for i := range SignalLimit + 3 {
		s = Reduce(s, Action{Kind: AppendSignal, Payload: Signal{ID: fmt.Sprint(i)}})
	}
	s = Reduce(s, Action{Kind: AppendInsight, Payload: Insight{ID: "i1"}})

	assert.Equal(t, SignalLimit, s.Signals.Len())
	assert.Equal(t, SignalLimit, s.Signals.Limit())
	head, ok := s.Signals.Head()
	require.True(t, ok)
	assert.Equal(t, fmt.Sprint(SignalLimit+2), head.ID)
	assert.Equal(t, 1, s.Insights.Len())
	assert.Equal(t, InsightLimit, s.Insights.Limit())
}
