package archive

import (
	"context"
	"sync"
	"testing"
	"time"

	"tradesync/internal/clock"
	"tradesync/internal/market/state"
	"tradesync/pkg/storage/postgres"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var epoch = time.Date(2024, 6, 14, 9, 30, 0, 0, time.UTC)

type memorySink struct {
	mu       sync.Mutex
	signals  []*postgres.SignalRecord
	insights []*postgres.InsightRecord
	cutoff   time.Time
}

func (m *memorySink) InsertSignal(ctx context.Context, r *postgres.SignalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals = append(m.signals, r)
	return nil
}

func (m *memorySink) InsertInsight(ctx context.Context, r *postgres.InsightRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insights = append(m.insights, r)
	return nil
}

func (m *memorySink) DeleteEventsBefore(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cutoff = before
	return 3, nil
}

// go test -v --run TestArchiverExportsAppends
func TestArchiverExportsAppends(t *testing.T) {
	store := state.NewStore(clock.NewFake(epoch), state.Initial())
	sink := &memorySink{}
	a := New(sink, zaptest.NewLogger(t))
	detach := a.Attach(store)

	store.Dispatch(state.Action{Kind: state.AppendSignal, Payload: state.Signal{ID: "s1", Symbol: "AMD", At: epoch}})
	store.Dispatch(state.Action{Kind: state.AppendInsight, Payload: state.Insight{ID: "i1", Title: "Rotation", At: epoch}})
	// Rejected by the reducer, so not archived.
	store.Dispatch(state.Action{Kind: state.AppendSignal, Payload: "not a signal"})
	// Unrelated transitions are ignored.
	store.Dispatch(state.Action{Kind: state.SetListening, Payload: true})
	// Missing ID fails conversion and is skipped.
	store.Dispatch(state.Action{Kind: state.AppendSignal, Payload: state.Signal{Symbol: "DELL"}})

	detach()
	store.Dispatch(state.Action{Kind: state.AppendSignal, Payload: state.Signal{ID: "s2"}})
	a.Close()

	require.Len(t, sink.signals, 1)
	assert.Equal(t, "s1", sink.signals[0].EventID)
	require.Len(t, sink.insights, 1)
	assert.Equal(t, "Rotation", sink.insights[0].Title)

	// Close is idempotent and later events are ignored.
	a.Close()
	a.enqueue(state.Signal{ID: "late"})
}

// go test -v --run TestPruneJob
func TestPruneJob(t *testing.T) {
	sink := &memorySink{}
	job := PruneJob(sink, clock.NewFake(epoch), 30*24*time.Hour, zaptest.NewLogger(t))

	require.NoError(t, job(context.Background()))
	assert.Equal(t, epoch.Add(-30*24*time.Hour), sink.cutoff)
}
