package rewrite

import (
	"github.com/aig-verify/combeq/internal/aig"
	"github.com/aig-verify/combeq/internal/lit"
)

// Rewrite sweeps every AND node reachable from roots once, in topological
// order: for each node it enumerates cuts up to cfg.MaxCutLeaves leaves,
// minimizes each cut's support, and looks the reduced function up in the
// NPN class table, replacing the node with the cheapest table hit that
// saves at least one node over the cut's current realization (spec.md
// §4.10 "rewrite"). A cut whose minimized support collapses to zero or one
// variable is replaced directly with a constant or a (possibly inverted)
// buffer, without consulting the table.
func Rewrite(store *aig.Store, roots []lit.Edge, cfg Config) Result {
	cfg = cfg.withDefaults()
	before := store.NumNodes()

	for _, id := range store.DFSTopological(roots) {
		n := store.Node(id)
		if n.Kind != aig.KindAnd {
			continue
		}
		replacement, ok := bestRewrite(store, id, cfg)
		if !ok {
			continue
		}
		if cfg.LevelPreserving && store.Level(replacement) > n.Level {
			continue
		}
		store.Substitute(id, replacement)
	}

	res := Result{NodesBefore: before, NodesAfter: store.NumNodes()}
	cfg.Log.WithField("saved", res.Saved()).Debug("rewrite: cut rewrite pass done")
	return res
}

func bestRewrite(store *aig.Store, id lit.NodeID, cfg Config) (lit.Edge, bool) {
	cuts := enumerateCuts(store, id, cfg.MaxCutLeaves)

	var bestEdge lit.Edge
	bestGain := 0
	found := false

	for _, c := range cuts {
		if len(c.leaves) < 2 {
			continue
		}
		tt := evalCone(store, lit.MakeEdge(id, false), c.leaves)
		leaves, tt := minimizeSupport(c.leaves, tt)
		oldCost := coneSize(store, id, leaves)

		if len(leaves) <= 1 {
			edge := constOrBuffer(leaves, tt)
			if gain := oldCost; gain > bestGain {
				bestGain, bestEdge, found = gain, edge, true
			}
			continue
		}
		if len(leaves) > 3 {
			continue
		}
		cost, build, ok := lookup(tt, len(leaves))
		if !ok {
			continue
		}
		gain := oldCost - cost
		if gain > bestGain {
			leafEdges := make([]lit.Edge, len(leaves))
			for i, l := range leaves {
				leafEdges[i] = lit.MakeEdge(l, false)
			}
			bestGain, bestEdge, found = gain, build(store, leafEdges), true
		}
	}

	return bestEdge, found
}

// constOrBuffer builds the replacement edge for a cut whose function does
// not depend on more than one of its leaves.
func constOrBuffer(leaves []lit.NodeID, tt word) lit.Edge {
	if len(leaves) == 0 {
		if tt&1 != 0 {
			return lit.ConstTrueEdge
		}
		return lit.ConstFalseEdge
	}
	e := lit.MakeEdge(leaves[0], false)
	if tt == 1 {
		return e.Not()
	}
	return e
}

// coneSize counts the AND nodes strictly between root and leaves
// (inclusive of root), i.e. how many nodes the current realization of
// root's function within this cut costs.
func coneSize(store *aig.Store, root lit.NodeID, leaves []lit.NodeID) int {
	leafSet := make(map[lit.NodeID]bool, len(leaves))
	for _, l := range leaves {
		leafSet[l] = true
	}
	visited := make(map[lit.NodeID]bool)
	count := 0
	var walk func(id lit.NodeID)
	walk = func(id lit.NodeID) {
		if visited[id] || leafSet[id] {
			return
		}
		visited[id] = true
		n := store.Node(id)
		if n.Kind != aig.KindAnd {
			return
		}
		count++
		walk(n.In0.Node())
		walk(n.In1.Node())
	}
	walk(root)
	return count
}
