package state

import (
	"sync"
	"sync/atomic"

	"tradesync/internal/clock"
)

// Watcher observes every applied transition. It runs on the dispatching
// goroutine, after the new state is published, and must not call Dispatch
// synchronously.
type Watcher func(prev, next State, a Action)

// Store owns the session state. Dispatch is the only way to change it;
// applications are serialized so no two transitions interleave, while reads
// never block on a pending network call.
type Store struct {
	clock clock.Clock

	dispatchMu sync.Mutex
	current    atomic.Pointer[State]

	watchMu  sync.RWMutex
	nextID   int
	watchers map[int]Watcher
	order    []int
}

func NewStore(c clock.Clock, initial State) *Store {
	s := &Store{
		clock:    c,
		watchers: make(map[int]Watcher),
	}
	s.current.Store(&initial)
	return s
}

// State returns the current state. The value must be treated as read-only.
func (s *Store) State() State {
	return *s.current.Load()
}

// Dispatch applies a through the reducer and returns the resulting state.
func (s *Store) Dispatch(a Action) State {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	return s.apply(a)
}

// DispatchIf applies actions in order only if ok holds for the current state.
// The check and the applications happen under one hold of the dispatch lock,
// so no other transition can land in between.
func (s *Store) DispatchIf(ok func(State) bool, actions ...Action) (State, bool) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	cur := *s.current.Load()
	if !ok(cur) {
		return cur, false
	}
	for _, a := range actions {
		cur = s.apply(a)
	}
	return cur, true
}

// apply must be called with dispatchMu held.
func (s *Store) apply(a Action) State {
	if a.At.IsZero() {
		a.At = s.clock.Now()
	}

	prev := *s.current.Load()
	next := Reduce(prev, a)
	s.current.Store(&next)

	for _, w := range s.snapshotWatchers() {
		w(prev, next, a)
	}
	return next
}

// Watch registers w and returns a function that removes it.
func (s *Store) Watch(w Watcher) (cancel func()) {
	s.watchMu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = w
	s.order = append(s.order, id)
	s.watchMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.watchMu.Lock()
			defer s.watchMu.Unlock()
			delete(s.watchers, id)
			for i, x := range s.order {
				if x == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (s *Store) snapshotWatchers() []Watcher {
	s.watchMu.RLock()
	defer s.watchMu.RUnlock()
	out := make([]Watcher, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.watchers[id])
	}
	return out
}
