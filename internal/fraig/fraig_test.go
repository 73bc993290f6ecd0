package fraig

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aig-verify/combeq/internal/aig"
	"github.com/aig-verify/combeq/internal/lit"
)

// TestRunMergesStructurallyDifferentButEquivalentNodes builds two
// structurally distinct AND-trees over the same three inputs that compute
// the same function ((a∧b)∧c vs a∧(b∧c)) and checks FRAIG merges them.
func TestRunMergesStructurallyDifferentButEquivalentNodes(t *testing.T) {
	store := aig.NewStore()
	a := store.FreshInput()
	b := store.FreshInput()
	c := store.FreshInput()

	left := store.And(store.And(a, b), c)
	right := store.And(a, store.And(b, c))
	require.NotEqual(t, left, right, "test setup: these must be distinct nodes pre-FRAIG")

	store.AddOutput(left)
	store.AddOutput(right)

	eng := NewEngine(store)
	res, err := eng.Run(context.Background(), []lit.Edge{left, right}, Config{NPatsRandom: 8})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Merges, 1)

	resolvedLeft := store.Resolve(left)
	resolvedRight := store.Resolve(right)
	assert.Equal(t, resolvedLeft.Node(), resolvedRight.Node())
}

func TestRunLeavesDistinctFunctionsUnmerged(t *testing.T) {
	store := aig.NewStore()
	a := store.FreshInput()
	b := store.FreshInput()

	and := store.And(a, b)
	or := store.And(a.Not(), b.Not()).Not() // De Morgan: a OR b

	store.AddOutput(and)
	store.AddOutput(or)

	eng := NewEngine(store)
	res, err := eng.Run(context.Background(), []lit.Edge{and, or}, Config{NPatsRandom: 16})
	require.NoError(t, err)

	resolvedAnd := store.Resolve(and)
	resolvedOr := store.Resolve(or)
	assert.NotEqual(t, resolvedAnd.Node(), resolvedOr.Node())
	_ = res
}
