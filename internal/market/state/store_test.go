package state

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"tradesync/internal/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// go test -v --run TestStoreDispatchStampsTime
func TestStoreDispatchStampsTime(t *testing.T) {
	start := time.Date(2024, 6, 14, 15, 0, 0, 0, time.UTC)
	c := clock.NewFake(start)
	s := NewStore(c, Initial())

	s.Dispatch(Action{Kind: UpdateStatus, Payload: map[string]string{"aiAgent": "thinking"}})
	assert.Equal(t, start, s.State().Status.LastUpdated)

	c.Advance(10 * time.Second)
	s.Dispatch(Action{Kind: UpdateStatus, Payload: map[string]string{}})
	assert.Equal(t, start.Add(10*time.Second), s.State().Status.LastUpdated)
}

// go test -v --run TestStoreWatchers
func TestStoreWatchers(t *testing.T) {
	s := NewStore(clock.Real{}, Initial())

	var kinds []Kind
	cancel := s.Watch(func(prev, next State, a Action) {
		kinds = append(kinds, a.Kind)
		if a.Kind == SetListening {
			assert.False(t, prev.Voice.Listening)
			assert.True(t, next.Voice.Listening)
		}
	})

	s.Dispatch(Action{Kind: SetListening, Payload: true})
	s.Dispatch(Action{Kind: SetVoiceTranscript, Payload: "hi"})
	cancel()
	s.Dispatch(Action{Kind: SetVoiceResponse, Payload: "hello"})

	assert.Equal(t, []Kind{SetListening, SetVoiceTranscript}, kinds)
	assert.Equal(t, "hello", s.State().Voice.Response)
}

// go test -v --run TestStoreDispatchIf
func TestStoreDispatchIf(t *testing.T) {
	s := NewStore(clock.Real{}, Initial())
	listening := func(st State) bool { return st.Voice.Listening }

	_, applied := s.DispatchIf(listening, Action{Kind: SetVoiceTranscript, Payload: "dropped"})
	assert.False(t, applied)
	assert.Empty(t, s.State().Voice.Transcript)

	var kinds []Kind
	s.Watch(func(prev, next State, a Action) { kinds = append(kinds, a.Kind) })
	s.Dispatch(Action{Kind: SetListening, Payload: true})

	st, applied := s.DispatchIf(listening,
		Action{Kind: SetVoiceTranscript, Payload: "show me AMD"},
		Action{Kind: SetVoiceResponse, Payload: "AMD is up"},
	)
	require.True(t, applied)
	assert.Equal(t, Voice{Transcript: "show me AMD", Response: "AMD is up", Listening: true}, st.Voice)
	assert.Equal(t, []Kind{SetListening, SetVoiceTranscript, SetVoiceResponse}, kinds)
}

// go test -v --run TestStoreConcurrentDispatch
func TestStoreConcurrentDispatch(t *testing.T) {
	s := NewStore(clock.Real{}, Initial())

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Dispatch(Action{Kind: AppendSignal, Payload: Signal{ID: "x"}})
			_ = s.State().Signals.Len()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, SignalLimit, s.State().Signals.Len())
}

// go test -v --run TestStateJSON
func TestStateJSON(t *testing.T) {
	st := Reduce(Initial(), Action{Kind: AppendSignal, Payload: Signal{ID: "s1", Sentiment: Bullish}})

	b, err := json.Marshal(st)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Len(t, out["signals"], 1)
	assert.Equal(t, []any{}, out["aiInsights"])
	assert.Equal(t, "1m", out["period"])
}
