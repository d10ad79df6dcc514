// Package archive exports signals and insights to Postgres as they are
// recorded. The export is write-only: the session never reads it back.
package archive

import (
	"context"
	"errors"
	"sync"
	"time"

	"tradesync/internal/clock"
	"tradesync/internal/market/state"
	"tradesync/pkg/storage/postgres"

	"go.uber.org/zap"
)

const (
	queueSize     = 256
	insertTimeout = 2 * time.Second
)

// Sink is the archive storage.
type Sink interface {
	InsertSignal(ctx context.Context, record *postgres.SignalRecord) error
	InsertInsight(ctx context.Context, record *postgres.InsightRecord) error
	DeleteEventsBefore(ctx context.Context, before time.Time) (int64, error)
}

// Watchable is the store's observer side.
type Watchable interface {
	Watch(w state.Watcher) (cancel func())
}

// Archiver queues every newly recorded signal and insight and inserts them
// from a single background worker, so dispatch never waits on the database.
type Archiver struct {
	sink   Sink
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
	queue  chan any
	done   chan struct{}
}

func New(sink Sink, logger *zap.Logger) *Archiver {
	a := &Archiver{
		sink:   sink,
		logger: logger,
		queue:  make(chan any, queueSize),
		done:   make(chan struct{}),
	}
	go a.worker()
	return a
}

// Attach starts archiving transitions applied to store.
func (a *Archiver) Attach(store Watchable) (detach func()) {
	return store.Watch(func(prev, next state.State, act state.Action) {
		// The reducer prepends exactly the payloads that type-check.
		switch act.Kind {
		case state.AppendSignal:
			if s, ok := act.Payload.(state.Signal); ok {
				a.enqueue(s)
			}
		case state.AppendInsight:
			if in, ok := act.Payload.(state.Insight); ok {
				a.enqueue(in)
			}
		}
	})
}

// Close stops accepting events and waits for the queue to drain.
func (a *Archiver) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		<-a.done
		return
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()
	<-a.done
}

func (a *Archiver) enqueue(ev any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	select {
	case a.queue <- ev:
	default:
		a.logger.Warn("archive queue full, event dropped")
	}
}

func (a *Archiver) worker() {
	defer close(a.done)
	for ev := range a.queue {
		if err := a.insert(ev); err != nil {
			if errors.Is(err, postgres.ErrDuplicate) {
				a.logger.Debug("event already archived", zap.Error(err))
				continue
			}
			a.logger.Warn("failed to archive event", zap.Error(err))
		}
	}
}

func (a *Archiver) insert(ev any) error {
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	switch e := ev.(type) {
	case state.Signal:
		rec, err := postgres.ToSignalRecord(e)
		if err != nil {
			return err
		}
		return a.sink.InsertSignal(ctx, rec)
	case state.Insight:
		rec, err := postgres.ToInsightRecord(e)
		if err != nil {
			return err
		}
		return a.sink.InsertInsight(ctx, rec)
	}
	return nil
}

// PruneJob deletes archived events older than retention, measured on c.
func PruneJob(sink Sink, c clock.Clock, retention time.Duration, logger *zap.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		cutoff := c.Now().Add(-retention)
		n, err := sink.DeleteEventsBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		logger.Info("archive pruned", zap.Int64("deleted", n), zap.Time("before", cutoff))
		return nil
	}
}
