// Package segment implements the Segment Set — spec.md §4.2 — the database's
// file I/O orchestration, splitting, identity, and logical ordering layer.
package segment

import (
	"sort"

	"github.com/marnix/metamath-knife/internal/types"
)

// Order maintains a total order over live SegmentIDs using a dense float64
// key per id, the naive order-maintenance structure spec.md §9 explicitly
// sanctions ("a list with a dense-integer key rebuilt on overflow"). New ids
// are inserted between two existing ones by bisecting their keys; if the
// bisection would lose float64 precision, every key is renumbered (spread
// out evenly) before the insert is retried — SPEC_FULL.md's resolution of
// the "when to globally renumber" open question: lazily, on demonstrated
// need, never on a schedule.
type Order struct {
	keys map[types.SegmentID]float64
	next types.SegmentID
}

// NewOrder returns an empty Order.
func NewOrder() *Order {
	return &Order{keys: make(map[types.SegmentID]float64), next: 1}
}

const (
	orderLo = -1e18
	orderHi = 1e18
)

// Compare returns -1, 0, or 1 according to a's position relative to b's.
func (o *Order) Compare(a, b types.SegmentID) int {
	ka, kb := o.keys[a], o.keys[b]
	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	default:
		return 0
	}
}

// InsertBetween allocates a fresh SegmentID positioned strictly between prev
// and next in the order. Pass the zero SegmentID for prev or next to mean
// "the very beginning" / "the very end" respectively.
func (o *Order) InsertBetween(prev, next types.SegmentID) types.SegmentID {
	lo, hi := orderLo, orderHi
	if prev != 0 {
		lo = o.keys[prev]
	}
	if next != 0 {
		hi = o.keys[next]
	}
	mid := lo + (hi-lo)/2
	if mid <= lo || mid >= hi {
		o.renumber()
		lo, hi = orderLo, orderHi
		if prev != 0 {
			lo = o.keys[prev]
		}
		if next != 0 {
			hi = o.keys[next]
		}
		mid = lo + (hi-lo)/2
	}
	id := o.next
	o.next++
	o.keys[id] = mid
	return id
}

// Remove drops id from the order. Future InsertBetween calls referencing it
// will treat it as absent (key 0), so callers must not do that.
func (o *Order) Remove(id types.SegmentID) {
	delete(o.keys, id)
}

// clone returns an independent copy of o, for Set.Clone's copy-on-write
// support: mutating the clone's Order must never affect o's.
func (o *Order) clone() *Order {
	keys := make(map[types.SegmentID]float64, len(o.keys))
	for id, key := range o.keys {
		keys[id] = key
	}
	return &Order{keys: keys, next: o.next}
}

// renumber spreads every currently-live id evenly across the full key range,
// preserving their relative order, then lets subsequent bisections regain
// floating-point headroom. Invalidates no caller-visible state beyond the
// raw key values: Compare results for all pairs are unchanged.
func (o *Order) renumber() {
	type kv struct {
		id  types.SegmentID
		key float64
	}
	ordered := make([]kv, 0, len(o.keys))
	for id, key := range o.keys {
		ordered = append(ordered, kv{id, key})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].key < ordered[j].key })

	n := len(ordered)
	if n == 0 {
		return
	}
	step := (orderHi - orderLo) / float64(n+1)
	for i, e := range ordered {
		o.keys[e.id] = orderLo + step*float64(i+1)
	}
}
