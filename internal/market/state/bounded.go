package state

import "encoding/json"

// Bounded is an immutable most-recent-first sequence holding at most Limit
// items. Prepend is the only insertion point and truncates from the tail, so
// the length bound holds for every value ever produced.
type Bounded[T any] struct {
	items []T
	limit int
}

func NewBounded[T any](limit int) Bounded[T] {
	if limit <= 0 {
		panic("state: bounded limit must be positive")
	}
	return Bounded[T]{limit: limit}
}

// Prepend returns a new sequence with v at the head. The receiver is not
// modified. A zero Bounded holds nothing and ignores inserts.
func (b Bounded[T]) Prepend(v T) Bounded[T] {
	if b.limit <= 0 {
		return b
	}
	n := min(len(b.items)+1, b.limit)
	out := make([]T, n)
	out[0] = v
	copy(out[1:], b.items)
	return Bounded[T]{items: out, limit: b.limit}
}

func (b Bounded[T]) Len() int   { return len(b.items) }
func (b Bounded[T]) Limit() int { return b.limit }

// Head returns the most recent item.
func (b Bounded[T]) Head() (T, bool) {
	if len(b.items) == 0 {
		var zero T
		return zero, false
	}
	return b.items[0], true
}

// Items returns a copy, most recent first.
func (b Bounded[T]) Items() []T {
	out := make([]T, len(b.items))
	copy(out, b.items)
	return out
}

func (b Bounded[T]) MarshalJSON() ([]byte, error) {
	if b.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(b.items)
}
