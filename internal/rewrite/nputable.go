package rewrite

import "github.com/aig-verify/combeq/internal/aig"
import "github.com/aig-verify/combeq/internal/lit"

// npnClass is one precomputed optimal realization, keyed by the NPN
// canonical form of the function it builds. The table intentionally
// covers only the handful of 2- and 3-variable classes that show up
// routinely inside a 4-leaf cut after support minimization (AND/OR,
// XOR, 3-input AND/OR, a 3-input multiplexer, and 3-input parity) —
// a small, representative subset rather than the ~222 4-variable NPN
// classes a full ABC-style rewrite table carries, per the scoped-down
// decision recorded for this component.
type npnClass struct {
	nVars int
	build func(s *aig.Store, in []lit.Edge) lit.Edge
	cost  int // And() calls build performs, used for the gain check

	// permInv, negIn, negOut record this recipe's own canonicalization
	// transform (permInv is the inverse of the perm canonicalize returned
	// for it), so lookup can compose it with the candidate's transform
	// instead of applying only the candidate's half and silently landing
	// on an NPN sibling of the recipe's function.
	permInv []int
	negIn   uint8
	negOut  bool
}

type npnKey struct {
	nVars int
	tt    word
}

var npnTable map[npnKey]npnClass

func init() {
	npnTable = make(map[npnKey]npnClass)
	register(2, func(s *aig.Store, in []lit.Edge) lit.Edge {
		return s.And(in[0], in[1])
	})
	register(2, func(s *aig.Store, in []lit.Edge) lit.Edge {
		return buildXor(s, in[0], in[1])
	})
	register(3, func(s *aig.Store, in []lit.Edge) lit.Edge {
		return s.And(s.And(in[0], in[1]), in[2])
	})
	register(3, func(s *aig.Store, in []lit.Edge) lit.Edge {
		// if in[0] then in[1] else in[2]
		hi := s.And(in[0], in[1])
		lo := s.And(in[0].Not(), in[2])
		return s.And(hi.Not(), lo.Not()).Not()
	})
	register(3, func(s *aig.Store, in []lit.Edge) lit.Edge {
		return buildXor(s, buildXor(s, in[0], in[1]), in[2])
	})
}

// buildXor realizes a XOR b as (a|b) & ~(a&b), the standard 3-And-node
// AIG xor built purely from And and Not.
func buildXor(s *aig.Store, a, b lit.Edge) lit.Edge {
	nab := s.And(a, b)
	nor := s.And(a.Not(), b.Not())
	orab := nor.Not()
	return s.And(orab, nab.Not())
}

// register computes the truth table a recipe realizes (by evaluating it
// symbolically against the standard variable patterns) and files it under
// that table's own NPN canonical form, so lookup() only ever needs to
// canonicalize the candidate function once.
func register(nVars int, build func(s *aig.Store, in []lit.Edge) lit.Edge) {
	probe := aig.NewStore()
	in := make([]lit.Edge, nVars)
	for i := range in {
		in[i] = probe.FreshInput()
	}
	before := probe.NumNodes()
	out := build(probe, in)
	cost := probe.NumNodes() - before
	ids := make([]lit.NodeID, nVars)
	for i, e := range in {
		ids[i] = e.Node()
	}
	tt := evalCone(probe, out, ids)
	canon, perm, negIn, negOut := canonicalize(tt, nVars)
	npnTable[npnKey{nVars: nVars, tt: canon}] = npnClass{
		nVars:   nVars,
		build:   build,
		cost:    cost,
		permInv: invertPerm(perm),
		negIn:   negIn,
		negOut:  negOut,
	}
}

// invertPerm returns the permutation q with q[perm[v]] = v.
func invertPerm(perm []int) []int {
	inv := make([]int, len(perm))
	for v, p := range perm {
		inv[p] = v
	}
	return inv
}

// lookup finds a table entry NPN-equivalent to (leaves, tt) and, if found,
// returns a function that builds the replacement edge from the actual
// (unpermuted, unnegated) leaf edges.
//
// Both the candidate function tt and the recipe's own function land on the
// same canonical table, but by two generally different transforms —
// canonicalize(tt) for the candidate, and whatever canonicalize(recipe)
// found back in register(). Recovering the candidate's exact function
// means composing the candidate's transform with the *inverse* of the
// recipe's, not applying the candidate's transform alone and feeding the
// result straight into the recipe's build (which recovers only an
// NPN-equivalent sibling, not the candidate itself).
func lookup(tt word, nVars int) (cost int, build func(s *aig.Store, leaves []lit.Edge) lit.Edge, ok bool) {
	canon, perm, negIn, negOut := canonicalize(tt, nVars)
	entry, found := npnTable[npnKey{nVars: nVars, tt: canon}]
	if !found {
		return 0, nil, false
	}
	return entry.cost, func(s *aig.Store, leaves []lit.Edge) lit.Edge {
		transformed := make([]lit.Edge, nVars)
		for w := 0; w < nVars; w++ {
			v := entry.permInv[w]
			e := leaves[perm[v]]
			if negIn&(1<<uint(v)) != 0 {
				e = e.Not()
			}
			if entry.negIn&(1<<uint(v)) != 0 {
				e = e.Not()
			}
			transformed[w] = e
		}
		out := entry.build(s, transformed)
		if negOut != entry.negOut {
			out = out.Not()
		}
		return out
	}, true
}
