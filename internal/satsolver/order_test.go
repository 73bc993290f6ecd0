package satsolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aig-verify/combeq/internal/lit"
)

func TestOrderHeapPopsHighestActivityFirst(t *testing.T) {
	act := []float64{0.5, 3.0, 1.0, 2.0}
	h := NewOrderHeap(act)
	h.Grow(4)
	for v := 0; v < 4; v++ {
		h.Insert(lit.Var(v))
	}

	v, ok := h.PopMax()
	require.True(t, ok)
	assert.Equal(t, lit.Var(1), v)

	v, ok = h.PopMax()
	require.True(t, ok)
	assert.Equal(t, lit.Var(3), v)
}

func TestOrderHeapIncreasePriorityReheapifies(t *testing.T) {
	act := []float64{1.0, 1.0}
	h := NewOrderHeap(act)
	h.Grow(2)
	h.Insert(lit.Var(0))
	h.Insert(lit.Var(1))

	act[1] = 5.0
	h.IncreasePriority(lit.Var(1))

	v, ok := h.PopMax()
	require.True(t, ok)
	assert.Equal(t, lit.Var(1), v)
}

func TestOrderHeapRebuildOnlyActiveVars(t *testing.T) {
	act := []float64{1, 2, 3}
	h := NewOrderHeap(act)
	h.Grow(3)
	h.Rebuild([]lit.Var{0, 2})

	assert.True(t, h.Contains(0))
	assert.False(t, h.Contains(1))
	assert.True(t, h.Contains(2))
}
