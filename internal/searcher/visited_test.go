package searcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisitedSet_Basic(t *testing.T) {
	v := NewVisitedSet(64)
	ids := []uint32{0, 1, 63, 64, 100, 1000}

	for _, id := range ids {
		assert.False(t, v.Visited(id), "slot %d visited too early", id)
	}
	for _, id := range ids {
		assert.True(t, v.Visit(id))
	}
	for _, id := range ids {
		assert.True(t, v.Visited(id))
	}

	assert.False(t, v.Visited(2))
	assert.False(t, v.Visit(0))
	assert.Equal(t, len(ids), v.Len())
}

func TestVisitedSet_Reset(t *testing.T) {
	v := NewVisitedSet(10)
	v.Visit(5)
	v.Visit(128)

	v.Reset()

	assert.False(t, v.Visited(5))
	assert.False(t, v.Visited(128))
	assert.Equal(t, 0, v.Len())
}

func TestVisitedSet_EnsureCapacity(t *testing.T) {
	v := NewVisitedSet(1)
	v.EnsureCapacity(4096)
	assert.False(t, v.Visited(4095))
	assert.Equal(t, 0, v.Len())
	assert.True(t, v.Visit(4095))
}
