package scheduler

import (
	"tradesync/internal/market/state"

	"go.uber.org/zap"
)

// Watchable is the store's observer side.
type Watchable interface {
	State() state.State
	Watch(w state.Watcher) (cancel func())
}

// GateOnAutoRefresh keeps s running exactly while the autoRefresh preference
// is on: it starts s now if enabled, and starts or stops it on every change.
// Re-enabling runs an immediate fetch. The returned func detaches the gate.
func GateOnAutoRefresh(store Watchable, s *Scheduler, logger *zap.Logger) (detach func()) {
	if store.State().Preferences.AutoRefresh {
		s.Start()
	}

	return store.Watch(func(prev, next state.State, a state.Action) {
		was, is := prev.Preferences.AutoRefresh, next.Preferences.AutoRefresh
		if was == is {
			return
		}
		if is {
			logger.Info("auto refresh enabled", zap.String("scheduler", s.Name()))
			s.Start()
			return
		}
		logger.Info("auto refresh disabled", zap.String("scheduler", s.Name()))
		s.Stop()
	})
}
