package rewrite

import (
	"sort"

	"github.com/aig-verify/combeq/internal/aig"
	"github.com/aig-verify/combeq/internal/lit"
)

// cut is a candidate set of leaf nodes whose values fully determine the
// local function at some AIG node (spec.md §4.10 "enumerate small (<=4
// leaf) cuts").
type cut struct {
	leaves []lit.NodeID
}

// enumerateCuts computes cuts of root with at most maxLeaves leaves,
// merging the fanin cuts of a KindAnd node pairwise: a node's cuts are its
// own trivial single-node cut plus unions of one fanin cut with one of the
// other's that stay within the leaf bound, taken in fanin-cut order until
// the node holds 8 cuts; further unions are not enumerated. Cuts are
// memoized per node so a shared sub-DAG is enumerated once.
func enumerateCuts(store *aig.Store, root lit.NodeID, maxLeaves int) []cut {
	memo := make(map[lit.NodeID][]cut)
	var rec func(id lit.NodeID) []cut
	rec = func(id lit.NodeID) []cut {
		if cs, ok := memo[id]; ok {
			return cs
		}
		trivial := cut{leaves: []lit.NodeID{id}}
		n := store.Node(id)
		if n.Kind != aig.KindAnd {
			cs := []cut{trivial}
			memo[id] = cs
			return cs
		}
		cs := []cut{trivial}
		for _, a := range rec(n.In0.Node()) {
			for _, b := range rec(n.In1.Node()) {
				merged, ok := unionLeaves(a.leaves, b.leaves, maxLeaves)
				if !ok {
					continue
				}
				cs = append(cs, cut{leaves: merged})
				if len(cs) >= 8 {
					break
				}
			}
			if len(cs) >= 8 {
				break
			}
		}
		memo[id] = cs
		return cs
	}
	return rec(root)
}

func unionLeaves(a, b []lit.NodeID, maxLeaves int) ([]lit.NodeID, bool) {
	set := make(map[lit.NodeID]struct{}, len(a)+len(b))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		set[id] = struct{}{}
	}
	if len(set) > maxLeaves {
		return nil, false
	}
	out := make([]lit.NodeID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, true
}
