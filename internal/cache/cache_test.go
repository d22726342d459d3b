package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestComputesOnceThenReturnsCurrent(t *testing.T) {
	var s Slot[int]
	calls := 0
	compute := func(prev *int) int {
		calls++
		return *prev + 1
	}

	assert.Equal(t, 1, s.Request(compute))
	assert.Equal(t, 1, s.Request(compute))
	assert.Equal(t, 1, calls, "second Request must reuse current without recomputing")
}

func TestInvalidateKeepsPreviousAsSeed(t *testing.T) {
	var s Slot[int]
	s.Request(func(prev *int) int { return *prev + 1 })
	s.Invalidate()

	_, ok := s.Peek()
	assert.False(t, ok, "current must be empty right after Invalidate")

	got := s.Request(func(prev *int) int { return *prev + 1 })
	assert.Equal(t, 2, got, "recomputation must have seeded from the previous value, not a zero value")
}

func TestClearAllDropsBothSlots(t *testing.T) {
	var s Slot[int]
	s.Request(func(prev *int) int { return *prev + 5 })
	s.ClearAll()

	got := s.Request(func(prev *int) int { return *prev + 1 })
	assert.Equal(t, 1, got, "after ClearAll, recomputation must start from a zero value")
}

func TestRequestSharesOneCopyBetweenCurrentAndPrevious(t *testing.T) {
	type payload struct{ n int }
	var s Slot[*payload]
	s.Request(func(prev **payload) *payload { return &payload{n: 7} })

	cur, ok := s.Peek()
	require.True(t, ok)
	s.Invalidate()
	got := s.Request(func(prev **payload) *payload { return *prev })
	assert.Same(t, cur, got, "previous must be the same shared value current held before invalidation")
}
