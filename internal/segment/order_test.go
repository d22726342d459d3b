package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderInsertBetweenPreservesRelativeOrder(t *testing.T) {
	o := NewOrder()
	a := o.InsertBetween(0, 0)
	c := o.InsertBetween(a, 0)
	assert.Equal(t, -1, o.Compare(a, c))

	b := o.InsertBetween(a, c)
	assert.Equal(t, -1, o.Compare(a, b))
	assert.Equal(t, -1, o.Compare(b, c))
	assert.Equal(t, 1, o.Compare(c, a))
}

func TestOrderRenumberPreservesOrderAfterManyInserts(t *testing.T) {
	o := NewOrder()
	first := o.InsertBetween(0, 0)
	last := o.InsertBetween(first, 0)

	prev := first
	for i := 0; i < 200; i++ {
		mid := o.InsertBetween(prev, last)
		assert.Equal(t, -1, o.Compare(prev, mid))
		assert.Equal(t, -1, o.Compare(mid, last))
		prev = mid
	}
}

func TestOrderRemove(t *testing.T) {
	o := NewOrder()
	a := o.InsertBetween(0, 0)
	o.Remove(a)
	b := o.InsertBetween(0, 0)
	assert.NotEqual(t, a, b)
}
