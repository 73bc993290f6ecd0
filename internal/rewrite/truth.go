package rewrite

import "github.com/aig-verify/combeq/internal/aig"
import "github.com/aig-verify/combeq/internal/lit"

// word holds a local truth table over at most maxVars boolean variables, one
// bit per minterm (bit m of word is the function's output on minterm m,
// variable i's value being bit i of m).
type word uint64

// maxVars bounds every local function this package evaluates: cut-based
// rewrite minimizes down from a 4-leaf cut, and refactor gathers cones of
// up to MaxConeLeaves leaves but leaves unchanged any cone whose leaf count
// exceeds maxVars (spec.md §4.10's "refactor... truth table for <=6
// leaves" and the rewrite table's scoped-down 2/3-input class list both
// fit comfortably under 6).
const maxVars = 6

// varPattern[i] is the standard truth-table pattern for variable i: bit m
// set wherever variable i is 1 in minterm m.
var varPattern = [maxVars]word{
	0xAAAAAAAAAAAAAAAA & mask(maxVars),
	0xCCCCCCCCCCCCCCCC & mask(maxVars),
	0xF0F0F0F0F0F0F0F0 & mask(maxVars),
	0xFF00FF00FF00FF00 & mask(maxVars),
	0xFFFF0000FFFF0000 & mask(maxVars),
	0xFFFFFFFF00000000 & mask(maxVars),
}

func mask(nVars int) word {
	if nVars >= 64 {
		return ^word(0)
	}
	return (word(1) << (word(1) << uint(nVars))) - 1
}

// evalCone computes the local truth table of root's function in terms of
// leaves (in the given order), memoizing node evaluations across the cone.
// Nodes outside the leaf set are evaluated by recursing into their fanins;
// leaves contribute a fixed varPattern entry.
func evalCone(store *aig.Store, root lit.Edge, leaves []lit.NodeID) word {
	leafIdx := make(map[lit.NodeID]int, len(leaves))
	for i, id := range leaves {
		leafIdx[id] = i
	}
	m := mask(len(leaves))
	memo := make(map[lit.NodeID]word, 16)
	var ev func(e lit.Edge) word
	ev = func(e lit.Edge) word {
		id := e.Node()
		if i, ok := leafIdx[id]; ok {
			v := varPattern[i] & m
			if e.Inverted() {
				v = ^v & m
			}
			return v
		}
		if v, ok := memo[id]; ok {
			if e.Inverted() {
				return ^v & m
			}
			return v
		}
		n := store.Node(id)
		var v word
		switch n.Kind {
		case aig.KindConst:
			v = m
		case aig.KindAnd:
			v = ev(n.In0) & ev(n.In1)
		default:
			v = 0
		}
		memo[id] = v
		if e.Inverted() {
			return ^v & m
		}
		return v
	}
	return ev(root) & m
}

// minimizeSupport drops leaves the function does not actually depend on,
// returning the reduced leaf list and the function re-expressed over it.
func minimizeSupport(leaves []lit.NodeID, tt word) ([]lit.NodeID, word) {
	kept := make([]lit.NodeID, 0, len(leaves))
	keptMask := make([]int, 0, len(leaves))
	for i := range leaves {
		if depends(tt, i, len(leaves)) {
			keptMask = append(keptMask, i)
		}
	}
	if len(keptMask) == len(leaves) {
		return leaves, tt
	}
	for _, i := range keptMask {
		kept = append(kept, leaves[i])
	}
	return kept, project(tt, keptMask, len(leaves))
}

// depends reports whether tt (over nVars variables) varies with variable i.
func depends(tt word, i, nVars int) bool {
	for m := 0; m < (1 << uint(nVars)); m++ {
		if (m>>uint(i))&1 == 1 {
			continue
		}
		m1 := m | (1 << uint(i))
		if bit(tt, m) != bit(tt, m1) {
			return true
		}
	}
	return false
}

func bit(w word, i int) word { return (w >> uint(i)) & 1 }

// project re-expresses tt (over the full original variable set) as a
// function of only the variables named by keptIdx, in their given order.
func project(tt word, keptIdx []int, origVars int) word {
	var out word
	n := len(keptIdx)
	for m := 0; m < (1 << uint(n)); m++ {
		var orig int
		for j, idx := range keptIdx {
			if (m>>uint(j))&1 == 1 {
				orig |= 1 << uint(idx)
			}
		}
		if bit(tt, orig) == 1 {
			out |= 1 << uint(m)
		}
	}
	_ = origVars
	return out
}
