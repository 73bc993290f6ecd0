package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aig-verify/combeq/internal/aig"
	"github.com/aig-verify/combeq/internal/lit"
)

func TestBalanceReducesDepthOfSkewedChain(t *testing.T) {
	store := aig.NewStore()
	a := store.FreshInput()
	b := store.FreshInput()
	c := store.FreshInput()
	d := store.FreshInput()

	// a skewed right-leaning chain: ((a & b) & c) & d, level 3.
	chain := store.And(store.And(store.And(a, b), c), d)
	store.AddOutput(chain)
	require.Equal(t, 3, store.Level(chain))

	Balance(store, []lit.Edge{chain}, Config{})

	resolved := store.Resolve(chain)
	assert.LessOrEqual(t, store.Level(resolved), 2)
	require.NoError(t, store.CheckInvariants())
}

func TestRewriteCollapsesRedundantAndOfOr(t *testing.T) {
	store := aig.NewStore()
	a := store.FreshInput()
	b := store.FreshInput()

	// a & (a | b) == a, a classic absorption identity.
	or := store.And(a.Not(), b.Not()).Not()
	node := store.And(a, or)
	store.AddOutput(node)

	Rewrite(store, []lit.Edge{node}, Config{})

	resolved := store.Resolve(node)
	assert.Equal(t, store.Resolve(a), resolved)
	require.NoError(t, store.CheckInvariants())
}

func TestRewriteLeavesMinimalAndUnchanged(t *testing.T) {
	store := aig.NewStore()
	a := store.FreshInput()
	b := store.FreshInput()
	node := store.And(a, b)
	store.AddOutput(node)

	before := store.NumNodes()
	Rewrite(store, []lit.Edge{node}, Config{})
	assert.Equal(t, before, store.NumNodes())
}

func TestRefactorResynthesizesSmallCone(t *testing.T) {
	store := aig.NewStore()
	a := store.FreshInput()
	b := store.FreshInput()
	c := store.FreshInput()

	// (a&b) | (a&c) == a & (b|c). Shannon factoring rebuilds this cone
	// with as many new AND nodes as it already has, so Refactor keeps the
	// original; the pass must still terminate and leave the store valid.
	ab := store.And(a, b)
	ac := store.And(a, c)
	or := store.And(ab.Not(), ac.Not()).Not()
	store.AddOutput(or)
	before := store.NumNodes()

	res := Refactor(store, []lit.Edge{or}, Config{})
	assert.LessOrEqual(t, res.NodesAfter-before, 10)
	require.NoError(t, store.CheckInvariants())
}

func TestGatherConeStopsAtBudget(t *testing.T) {
	store := aig.NewStore()
	inputs := make([]lit.Edge, 6)
	for i := range inputs {
		inputs[i] = store.FreshInput()
	}
	n := inputs[0]
	for i := 1; i < len(inputs); i++ {
		n = store.And(n, inputs[i])
	}
	store.AddOutput(n)

	leaves := gatherCone(store, n.Node(), 4)
	assert.LessOrEqual(t, len(leaves), 4) // an expansion that would exceed the budget is not taken
}

func TestCanonicalizeGroupsNPNEquivalentFunctions(t *testing.T) {
	and2 := varPattern[0] & varPattern[1] & mask(2)
	or2 := ^(^varPattern[0] & ^varPattern[1]) & mask(2)

	c1, _, _, _ := canonicalize(and2, 2)
	c2, _, _, _ := canonicalize(or2, 2)
	assert.Equal(t, c1, c2)

	xor2 := (varPattern[0] ^ varPattern[1]) & mask(2)
	c3, _, _, _ := canonicalize(xor2, 2)
	assert.NotEqual(t, c1, c3)
}
