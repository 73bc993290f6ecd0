package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aig-verify/combeq/internal/aig"
	"github.com/aig-verify/combeq/internal/lit"
)

// TestLookupRecoversExactFunctionNotJustAnNPNSibling checks that lookup's
// build reconstructs the candidate's own function, not merely some other
// member of its NPN class, for a candidate that is an NPN sibling of a
// table recipe rather than the recipe's own literal realization.
func TestLookupRecoversExactFunctionNotJustAnNPNSibling(t *testing.T) {
	// b & ~c & a: same NPN class as the table's "a & b & c" recipe, but a
	// genuinely different function (negated middle input permuted around).
	tt := tt3(func(a, b, c bool) bool { return b && !c && a })

	cost, build, ok := lookup(tt, 3)
	require.True(t, ok)
	assert.Equal(t, 2, cost) // AND3 realization costs 2 And() calls

	store := aig.NewStore()
	leaves := make([]lit.Edge, 3)
	ids := make([]lit.NodeID, 3)
	for i := range leaves {
		leaves[i] = store.FreshInput()
		ids[i] = leaves[i].Node()
	}
	out := build(store, leaves)

	got := evalCone(store, out, ids)
	assert.Equal(t, tt, got, "reconstructed function must equal the candidate's own truth table")
}

// TestLookupRecoversExactFunctionForMux checks the same property against
// the 3-input multiplexer recipe with a permuted, partly negated input
// order.
func TestLookupRecoversExactFunctionForMux(t *testing.T) {
	// "if c then a else ~b", a permutation/negation of the table's
	// canonical "if in[0] then in[1] else in[2]" mux.
	tt := tt3(func(a, b, c bool) bool {
		if c {
			return a
		}
		return !b
	})

	_, build, ok := lookup(tt, 3)
	require.True(t, ok)

	store := aig.NewStore()
	leaves := make([]lit.Edge, 3)
	ids := make([]lit.NodeID, 3)
	for i := range leaves {
		leaves[i] = store.FreshInput()
		ids[i] = leaves[i].Node()
	}
	out := build(store, leaves)

	got := evalCone(store, out, ids)
	assert.Equal(t, tt, got)
}

// tt3 evaluates fn against the standard 3-variable minterm ordering used
// throughout this package (bit i of the minterm index is variable i).
func tt3(fn func(a, b, c bool) bool) word {
	var tt word
	for m := 0; m < 8; m++ {
		a := m&1 != 0
		b := (m>>1)&1 != 0
		c := (m>>2)&1 != 0
		if fn(a, b, c) {
			tt |= 1 << uint(m)
		}
	}
	return tt
}
