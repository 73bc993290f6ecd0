package satsolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aig-verify/combeq/internal/lit"
)

func newVars(s *Solver, n int) []lit.Var {
	vs := make([]lit.Var, n)
	for i := range vs {
		vs[i] = s.NewVariable()
	}
	return vs
}

func TestAddClauseTautologyIsNoOp(t *testing.T) {
	s := New()
	vs := newVars(s, 2)
	ok := s.AddClause([]lit.Lit{vs[0].Pos(), vs[1].Pos(), vs[0].Neg()})
	require.True(t, ok)
	assert.True(t, s.ok)
	assert.Empty(t, s.clauseRefs)
}

func TestAddClauseDuplicateLiteralsCollapsed(t *testing.T) {
	s := New()
	vs := newVars(s, 1)
	ok := s.AddClause([]lit.Lit{vs[0].Pos(), vs[0].Pos()})
	require.True(t, ok)
	assert.Equal(t, int8(lTrue), s.assign[vs[0]])
}

func TestAddClauseEmptyIsUnsat(t *testing.T) {
	s := New()
	ok := s.AddClause(nil)
	assert.False(t, ok)
	assert.False(t, s.ok)
}

func TestSolveUnitPropagationChain(t *testing.T) {
	s := New()
	vs := newVars(s, 3)
	require.True(t, s.AddClause([]lit.Lit{vs[0].Pos()}))
	require.True(t, s.AddClause([]lit.Lit{vs[0].Neg(), vs[1].Pos()}))
	require.True(t, s.AddClause([]lit.Lit{vs[1].Neg(), vs[2].Pos()}))

	res := s.Solve(context.Background(), Budget{})
	require.Equal(t, Sat, res)
	assert.True(t, s.Model(vs[0]))
	assert.True(t, s.Model(vs[1]))
	assert.True(t, s.Model(vs[2]))
}

func TestSolveSimpleUnsat(t *testing.T) {
	s := New()
	vs := newVars(s, 1)
	require.True(t, s.AddClause([]lit.Lit{vs[0].Pos()}))
	require.False(t, s.AddClause([]lit.Lit{vs[0].Neg()})) // contradicts the unit at level 0

	res := s.Solve(context.Background(), Budget{})
	assert.Equal(t, Unsat, res)
}

func TestSolvePigeonholeTwoIntoOneIsUnsat(t *testing.T) {
	// Two pigeons, one hole: p0 ∨ p1 is false given both can't occupy the
	// same hole simultaneously when each pigeon must be placed and at
	// most one pigeon may take the hole.
	s := New()
	vs := newVars(s, 2)
	require.True(t, s.AddClause([]lit.Lit{vs[0].Pos()})) // pigeon 0 placed
	require.True(t, s.AddClause([]lit.Lit{vs[1].Pos()})) // pigeon 1 placed
	require.False(t, s.AddClause([]lit.Lit{vs[0].Neg(), vs[1].Neg()})) // not both: both literals already false at level 0

	res := s.Solve(context.Background(), Budget{})
	assert.Equal(t, Unsat, res)
}

func TestSolveRespectsAssumptions(t *testing.T) {
	s := New()
	vs := newVars(s, 2)
	require.True(t, s.AddClause([]lit.Lit{vs[0].Pos(), vs[1].Pos()}))

	s.Assume(vs[0].Neg())
	res := s.Solve(context.Background(), Budget{})
	require.Equal(t, Sat, res)
	assert.True(t, s.Model(vs[1]))

	s.Assume(vs[0].Neg(), vs[1].Neg())
	res = s.Solve(context.Background(), Budget{})
	assert.Equal(t, Unsat, res)
}

func TestSolveConflictDrivenLearning(t *testing.T) {
	// A small unsatisfiable instance with no unit clause, so nothing is
	// refuted at level 0 and the solver must decide, hit a conflict and
	// learn: (a∨b∨c) ∧ (¬a∨b) ∧ (¬b∨c) ∧ (¬b∨¬c) ∧ (¬c∨a). b implies both
	// c and ¬c, so ¬b; then ¬a and ¬c, and the first clause fails.
	s := New()
	vs := newVars(s, 3)
	a, b, c := vs[0], vs[1], vs[2]
	require.True(t, s.AddClause([]lit.Lit{a.Pos(), b.Pos(), c.Pos()}))
	require.True(t, s.AddClause([]lit.Lit{a.Neg(), b.Pos()}))
	require.True(t, s.AddClause([]lit.Lit{b.Neg(), c.Pos()}))
	require.True(t, s.AddClause([]lit.Lit{b.Neg(), c.Neg()}))
	require.True(t, s.AddClause([]lit.Lit{c.Neg(), a.Pos()}))

	res := s.Solve(context.Background(), Budget{})
	assert.Equal(t, Unsat, res)
	assert.NotEmpty(t, s.ConflictClause())
}

func TestBudgetMaxConflictsReturnsUndetermined(t *testing.T) {
	s := New()
	// An odd cycle of XOR/XNOR constraints (v0≠v1, v1≠v2, v2≠v3, v0=v3):
	// unsatisfiable, with no unit clause, so the first conflict comes only
	// after a decision. A one-conflict budget stops the search right after
	// that conflict, before the proof can be finished.
	vs := newVars(s, 4)
	require.True(t, s.AddClause([]lit.Lit{vs[0].Pos(), vs[1].Pos()}))
	require.True(t, s.AddClause([]lit.Lit{vs[0].Neg(), vs[1].Neg()}))
	require.True(t, s.AddClause([]lit.Lit{vs[1].Pos(), vs[2].Pos()}))
	require.True(t, s.AddClause([]lit.Lit{vs[1].Neg(), vs[2].Neg()}))
	require.True(t, s.AddClause([]lit.Lit{vs[2].Pos(), vs[3].Pos()}))
	require.True(t, s.AddClause([]lit.Lit{vs[2].Neg(), vs[3].Neg()}))
	require.True(t, s.AddClause([]lit.Lit{vs[0].Pos(), vs[3].Neg()}))
	require.True(t, s.AddClause([]lit.Lit{vs[0].Neg(), vs[3].Pos()}))

	res := s.Solve(context.Background(), Budget{MaxConflicts: 1})
	assert.Equal(t, Undetermined, res)
}

func TestSimplifyRemovesSatisfiedClauses(t *testing.T) {
	s := New()
	vs := newVars(s, 2)
	require.True(t, s.AddClause([]lit.Lit{vs[0].Pos(), vs[1].Pos()}))
	require.True(t, s.AddClause([]lit.Lit{vs[0].Pos()}))
	require.True(t, s.propagate() == CRefNull)
	require.True(t, s.Simplify())
	assert.Empty(t, s.clauseRefs)
}
