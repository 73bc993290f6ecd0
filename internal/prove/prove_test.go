package prove

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aig-verify/combeq/internal/aig"
	"github.com/aig-verify/combeq/internal/lit"
	"github.com/aig-verify/combeq/internal/satsolver"
)

// miterXor builds the standard equivalence-checking miter: an edge that is
// true exactly where a and b disagree.
func miterXor(store *aig.Store, a, b lit.Edge) lit.Edge {
	nab := store.And(a, b)
	nor := store.And(a.Not(), b.Not())
	orab := nor.Not()
	return store.And(orab, nab.Not())
}

func TestProveFindsStructurallyDifferentButEquivalentNetworksEqual(t *testing.T) {
	store := aig.NewStore()
	a := store.FreshInput()
	b := store.FreshInput()
	c := store.FreshInput()

	left := store.And(store.And(a, b), c)
	right := store.And(a, store.And(b, c))
	miter := miterXor(store, left, right)
	store.AddOutput(miter)

	res, err := Prove(context.Background(), store, miter, Config{ItersMax: 2})
	require.NoError(t, err)
	assert.Equal(t, Equivalent, res.Verdict)
}

func TestProveFindsDifferingNetworksAndLiftsCounterexample(t *testing.T) {
	store := aig.NewStore()
	a := store.FreshInput()
	b := store.FreshInput()

	and := store.And(a, b)
	or := store.And(a.Not(), b.Not()).Not() // a OR b, not equivalent to AND
	miter := miterXor(store, and, or)
	store.AddOutput(miter)

	res, err := Prove(context.Background(), store, miter, Config{ItersMax: 2})
	require.NoError(t, err)
	require.Equal(t, Differs, res.Verdict)
	require.Len(t, res.Counterexample, 2)

	// a=0,b=1 and a=1,b=0 both distinguish AND from OR; either is a valid
	// witness, so just check it actually does.
	aVal, bVal := res.Counterexample[0], res.Counterexample[1]
	assert.NotEqual(t, aVal && bVal, aVal || bVal)
}

func TestProveRespectsGlobalBacktrackLimit(t *testing.T) {
	store := aig.NewStore()
	a := store.FreshInput()
	b := store.FreshInput()
	c := store.FreshInput()

	left := store.And(store.And(a, b), c)
	right := store.And(a, store.And(b, c))
	miter := miterXor(store, left, right)
	store.AddOutput(miter)

	res, err := Prove(context.Background(), store, miter, Config{
		ItersMax:            1,
		TotalBacktrackLimit: 1,
		UseRewriting:        false,
		UseFraiging:         false,
	})
	require.NoError(t, err)
	// With rewriting and FRAIG off, every conflict is spent by a SAT call
	// whose budget is capped by what remains of the global limit, so the
	// run never exceeds it, whatever the verdict.
	assert.LessOrEqual(t, res.Stats.Conflicts, int64(1))
}

func TestGlobalBudgetCapShrinksToRemaining(t *testing.T) {
	gb := newGlobalBudget(Config{TotalBacktrackLimit: 100})
	assert.Equal(t, int64(100), gb.cap(1000))
	gb.absorb(satsolver.Stats{Conflicts: 80})
	assert.Equal(t, int64(20), gb.cap(1000))
	assert.False(t, gb.exhausted())
	gb.absorb(satsolver.Stats{Conflicts: 20})
	assert.True(t, gb.exhausted())
}

func TestGlobalBudgetUnlimitedWhenZero(t *testing.T) {
	gb := newGlobalBudget(Config{})
	assert.Equal(t, int64(500), gb.cap(500))
	gb.absorb(satsolver.Stats{Conflicts: 1_000_000})
	assert.False(t, gb.exhausted())
}
