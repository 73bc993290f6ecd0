package aig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aig-verify/combeq/internal/lit"
)

func TestAndTrivialSimplifications(t *testing.T) {
	s := NewStore()
	a := s.FreshInput()

	assert.Equal(t, lit.ConstFalseEdge, s.And(a, lit.ConstFalseEdge))
	assert.Equal(t, a, s.And(a, lit.ConstTrueEdge))
	assert.Equal(t, a, s.And(lit.ConstTrueEdge, a))
	assert.Equal(t, a, s.And(a, a))
	assert.Equal(t, lit.ConstFalseEdge, s.And(a, a.Not()))
}

func TestAndHashConsing(t *testing.T) {
	s := NewStore()
	a := s.FreshInput()
	b := s.FreshInput()

	e1 := s.And(a, b)
	e2 := s.And(a, b)
	e3 := s.And(b, a) // same pair, swapped argument order
	assert.Equal(t, e1, e2)
	assert.Equal(t, e1, e3)

	before := s.NumNodes()
	s.And(a, b)
	assert.Equal(t, before, s.NumNodes(), "repeated And must not allocate a new node")
}

func TestAndLevelIsMaxOfFaninsPlusOne(t *testing.T) {
	s := NewStore()
	a := s.FreshInput()
	b := s.FreshInput()
	c := s.FreshInput()
	ab := s.And(a, b)
	abc := s.And(ab, c)
	assert.Equal(t, 2, s.Level(abc))
}

func TestSubstituteCollapsesFanout(t *testing.T) {
	s := NewStore()
	a := s.FreshInput()
	b := s.FreshInput()
	ab := s.And(a, b)
	root := s.And(ab, a) // a ∧ b ∧ a == a ∧ b, so after substitution this collapses

	s.Substitute(ab.Node(), a) // pretend FRAIG proved (a∧b) ≡ a
	resolved := s.Resolve(root)
	assert.NoError(t, s.CheckInvariants())
	// whatever root now resolves to, it must resolve to a fixpoint (no
	// further rep redirection possible) and to the same node on repeat.
	assert.Equal(t, resolved, s.Resolve(resolved))
}

func TestCompactDropsUnreachableNodes(t *testing.T) {
	s := NewStore()
	a := s.FreshInput()
	b := s.FreshInput()
	c := s.FreshInput()
	_ = s.And(a, b) // dangling, never used as a root or PO
	keep := s.And(a, c)
	s.AddOutput(keep)

	before := s.NumNodes()
	remap := s.Compact([]lit.Edge{keep})
	assert.Less(t, s.NumNodes(), before)
	assert.NotEqual(t, NodeNull, remap[keep.Node()])
}

func TestCheckInvariantsCleanStore(t *testing.T) {
	s := NewStore()
	a := s.FreshInput()
	b := s.FreshInput()
	s.And(a, b)
	require.NoError(t, s.CheckInvariants())
}
