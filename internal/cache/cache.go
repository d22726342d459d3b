// Package cache is the pass cache: a generic current/previous slot pair
// per memoized pass, matching spec.md §4.4's invalidation discipline
// (`parse` clears every current slot but keeps previous as a seed for the
// next incremental recomputation). Grounded in the "keep a stale copy to
// seed recomputation" idea of standardbeagle-lci's
// internal/cache/metrics_cache.go, but stripped down to just that idea:
// that cache is a TTL/LRU/sync.Map content cache built for a
// different concern (bounding memory across many files' parse results by
// wall-clock age), which doesn't fit a pass cache keyed by dependency
// order rather than by content hash — see DESIGN.md. This package rebuilds
// the two-slot discipline from scratch against original_source's
// database.rs `prev_X`/`X` field-pair convention instead.
package cache

import "sync"

// Slot is the memoization cell for one pass result: current (valid or
// empty) and previous (the most recent non-empty value, used to seed
// recomputation). Safe for concurrent use.
type Slot[T any] struct {
	mu       sync.Mutex
	current  *T
	previous *T
}

// Request returns the slot's current value, computing it via compute if
// absent. compute receives the previous value by mutable reference (a
// fresh zero value if there is none yet) so a pass can mutate its prior
// result in place rather than always building one from scratch — spec.md
// §4.4 rule 2's "pass it by mutable reference to the pass function
// alongside inputs". The computed result is stored into both current and
// previous as a shared copy (matching the Rust original's refcounted
// sharing: both fields hold the same pointer).
func (s *Slot[T]) Request(compute func(prev *T) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		return *s.current
	}
	var prev T
	if s.previous != nil {
		prev = *s.previous
	}
	result := compute(&prev)
	s.current = &result
	s.previous = &result
	return result
}

// Peek returns the current value without computing it.
func (s *Slot[T]) Peek() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		var zero T
		return zero, false
	}
	return *s.current, true
}

// Invalidate clears current, keeping previous as the next Request's
// recomputation seed — what `parse` does to every pass slot (spec.md §4.4
// rule 1).
func (s *Slot[T]) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// ClearAll drops both slots, as if Request had never been called.
// Database.Close does not call it.
func (s *Slot[T]) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.previous = nil
}
