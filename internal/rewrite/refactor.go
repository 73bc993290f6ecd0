package rewrite

import (
	"github.com/aig-verify/combeq/internal/aig"
	"github.com/aig-verify/combeq/internal/lit"
)

// Refactor extracts, for every AND node reachable from roots, a cone of up
// to cfg.MaxConeLeaves leaves and, when that cone's support is small
// enough to hold a local truth table (at most maxVars leaves), resynthesizes
// it via recursive Shannon cofactoring — the AIG analogue of reducing a
// node's local BDD — replacing the node if the result costs fewer AND
// nodes (spec.md §4.10 "refactor"). Cones wider than the truth-table
// budget are left untouched, per the documented failure semantics:
// refactoring degrades to a no-op once it runs out of local budget.
func Refactor(store *aig.Store, roots []lit.Edge, cfg Config) Result {
	cfg = cfg.withDefaults()
	before := store.NumNodes()

	for _, id := range store.DFSTopological(roots) {
		n := store.Node(id)
		if n.Kind != aig.KindAnd {
			continue
		}

		leaves := gatherCone(store, id, cfg.MaxConeLeaves)
		if len(leaves) < 2 || len(leaves) > maxVars {
			continue
		}

		root := lit.MakeEdge(id, false)
		tt := evalCone(store, root, leaves)
		oldCost := coneSize(store, id, leaves)

		leafEdges := make([]lit.Edge, len(leaves))
		for i, l := range leaves {
			leafEdges[i] = lit.MakeEdge(l, false)
		}

		attemptStart := store.NumNodes()
		replacement := factorShannon(store, leafEdges, tt, len(leaves))
		newCost := store.NumNodes() - attemptStart

		if newCost >= oldCost {
			continue // replacement nodes are unreferenced and swept by a later Compact
		}
		if replacement.Node() == id {
			continue
		}
		if cfg.LevelPreserving && store.Level(replacement) > n.Level {
			continue
		}
		store.Substitute(id, replacement)
	}

	res := Result{NodesBefore: before, NodesAfter: store.NumNodes()}
	cfg.Log.WithField("saved", res.Saved()).Debug("rewrite: refactor pass done")
	return res
}

// gatherCone grows a leaf frontier outward from root by repeatedly
// expanding the highest-level AND node currently in the frontier into its
// two fanins, stopping once no AND node remains to expand or the next
// expansion would exceed maxLeaves (spec.md §4.10's 10-16 leaf cone).
func gatherCone(store *aig.Store, root lit.NodeID, maxLeaves int) []lit.NodeID {
	frontier := []lit.NodeID{root}
	for {
		idx := -1
		for i, id := range frontier {
			if store.Node(id).Kind != aig.KindAnd {
				continue
			}
			if idx == -1 || store.Node(id).Level > store.Node(frontier[idx]).Level {
				idx = i
			}
		}
		if idx == -1 {
			break
		}
		n := store.Node(frontier[idx])
		next := append([]lit.NodeID{}, frontier[:idx]...)
		next = append(next, frontier[idx+1:]...)
		next = appendUnique(next, n.In0.Node())
		next = appendUnique(next, n.In1.Node())
		if len(next) > maxLeaves {
			break
		}
		frontier = next
	}
	return frontier
}

func appendUnique(ids []lit.NodeID, id lit.NodeID) []lit.NodeID {
	for _, x := range ids {
		if x == id {
			return ids
		}
	}
	return append(ids, id)
}

// factorShannon synthesizes tt (a function of leaves[0..nVars-1]) by
// recursively cofactoring on the first variable it still depends on and
// combining the two sub-results with the standard multiplexer identity
// ite(x, hi, lo) = ~(~(x&hi) & ~(~x&lo)), built entirely from And/Not so
// every intermediate stays hash-consed in store.
func factorShannon(store *aig.Store, leaves []lit.Edge, tt word, nVars int) lit.Edge {
	m := mask(nVars)
	tt &= m
	if tt == 0 {
		return lit.ConstFalseEdge
	}
	if tt == m {
		return lit.ConstTrueEdge
	}
	v := 0
	for ; v < nVars; v++ {
		if depends(tt, v, nVars) {
			break
		}
	}
	lo := restrict(tt, v, 0, nVars)
	hi := restrict(tt, v, 1, nVars)
	loEdge := factorShannon(store, leaves, lo, nVars)
	hiEdge := factorShannon(store, leaves, hi, nVars)
	if loEdge == hiEdge {
		return loEdge
	}
	x := leaves[v]
	t1 := store.And(x, hiEdge)
	t2 := store.And(x.Not(), loEdge)
	return store.And(t1.Not(), t2.Not()).Not()
}

// restrict returns tt with variable i forced to value b, still expressed
// over the full nVars-wide minterm space (the result no longer depends on
// i, by construction).
func restrict(tt word, i, b, nVars int) word {
	var out word
	limit := 1 << uint(nVars)
	for m := 0; m < limit; m++ {
		mm := m
		if (mm>>uint(i))&1 != b {
			mm ^= 1 << uint(i)
		}
		out |= bit(tt, mm) << uint(m)
	}
	return out
}
