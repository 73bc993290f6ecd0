package cnf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aig-verify/combeq/internal/aig"
	"github.com/aig-verify/combeq/internal/lit"
	"github.com/aig-verify/combeq/internal/satsolver"
)

func TestBuilderEncodesSimpleAnd(t *testing.T) {
	store := aig.NewStore()
	a := store.FreshInput()
	b := store.FreshInput()
	and := store.And(a, b)

	solver := satsolver.New()
	builder := NewBuilder(store, solver)
	out := builder.LitOf(and)

	solver.AddClause([]lit.Lit{out})
	res := solver.Solve(context.Background(), satsolver.Budget{})
	require.Equal(t, satsolver.Sat, res)
	assert.True(t, solver.Value(builder.LitOf(a)))
	assert.True(t, solver.Value(builder.LitOf(b)))
}

func TestBuilderCachesRepeatedEdges(t *testing.T) {
	store := aig.NewStore()
	a := store.FreshInput()
	b := store.FreshInput()
	and1 := store.And(a, b)
	and2 := store.And(a, b) // structurally identical: hash-consed to and1

	solver := satsolver.New()
	builder := NewBuilder(store, solver)
	l1 := builder.LitOf(and1)
	l2 := builder.LitOf(and2)
	assert.Equal(t, l1, l2)
}

func TestBuilderMultiInputConjunctionUnsatWhenForcedFalse(t *testing.T) {
	store := aig.NewStore()
	a := store.FreshInput()
	b := store.FreshInput()
	c := store.FreshInput()
	abc := store.And(store.And(a, b), c)

	solver := satsolver.New()
	builder := NewBuilder(store, solver)
	out := builder.LitOf(abc)

	solver.AddClause([]lit.Lit{a})
	solver.AddClause([]lit.Lit{b})
	solver.AddClause([]lit.Lit{c})
	solver.AddClause([]lit.Lit{out.Not()})

	res := solver.Solve(context.Background(), satsolver.Budget{})
	assert.Equal(t, satsolver.Unsat, res)
}
