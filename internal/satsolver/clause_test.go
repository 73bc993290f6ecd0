package satsolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aig-verify/combeq/internal/lit"
)

func TestClauseMemAllocAndGet(t *testing.T) {
	m := NewClauseMem(4)
	lits := []lit.Lit{lit.Var(0).Pos(), lit.Var(1).Neg()}
	ref := m.Alloc(lits, false)
	assert.Equal(t, lits, m.Get(ref))
	assert.Equal(t, 2, m.Size(ref))
	assert.False(t, m.Learnt(ref))
}

func TestClauseMemProtectedLBD(t *testing.T) {
	m := NewClauseMem(4)
	ref := m.Alloc([]lit.Lit{lit.Var(0).Pos()}, true)
	m.SetLBD(ref, protectedLBD)
	assert.True(t, m.Protected(ref))

	ref2 := m.Alloc([]lit.Lit{lit.Var(1).Pos()}, true)
	m.SetLBD(ref2, protectedLBD+1)
	assert.False(t, m.Protected(ref2))
}

func TestClauseMemCompactRemapsSurvivors(t *testing.T) {
	m := NewClauseMem(4)
	a := m.Alloc([]lit.Lit{lit.Var(0).Pos()}, false)
	b := m.Alloc([]lit.Lit{lit.Var(1).Pos()}, false)
	c := m.Alloc([]lit.Lit{lit.Var(2).Pos()}, false)
	m.Free(b)

	remap := m.Compact([]CRef{a, b, c})
	require.Equal(t, CRefNull, remap[b])
	assert.Equal(t, []lit.Lit{lit.Var(0).Pos()}, m.Get(remap[a]))
	assert.Equal(t, []lit.Lit{lit.Var(2).Pos()}, m.Get(remap[c]))
}
