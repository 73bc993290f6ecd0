// Package cnf builds an incremental Tseitin CNF encoding of AIG cones
// (C9), caching one solver variable per structurally distinct node so
// repeated or overlapping cones across calls never re-encode. Grounded on
// the teacher's litMapping cache pattern
// (pkg/controller/registry/resolver/solver/lit_mapping.go's
// map[z.Lit]Variable), adapted from "constraint identifier -> SAT literal"
// to "AIG node -> SAT variable".
package cnf

import (
	"github.com/aig-verify/combeq/internal/aig"
	"github.com/aig-verify/combeq/internal/lit"
	"github.com/aig-verify/combeq/internal/satsolver"
)

// Builder incrementally translates AIG edges into CNF literals over a
// shared Solver, emitting Tseitin clauses for each newly visited gate
// exactly once.
type Builder struct {
	store  *aig.Store
	solver *satsolver.Solver

	varOf    map[lit.NodeID]lit.Var
	constVar lit.Var
}

// NewBuilder creates a Builder writing clauses into solver for nodes drawn
// from store. A single constant-true variable is allocated and forced by a
// unit clause so KindConst nodes encode for free.
func NewBuilder(store *aig.Store, solver *satsolver.Solver) *Builder {
	b := &Builder{
		store:  store,
		solver: solver,
		varOf:  make(map[lit.NodeID]lit.Var),
	}
	b.constVar = solver.NewVariable()
	solver.AddClause([]lit.Lit{b.constVar.Pos()})
	b.varOf[store.ConstTrue().Node()] = b.constVar
	return b
}

// LitOf returns the solver literal for e, encoding its cone on demand. e is
// first resolved through the store's substitution chain so that nodes made
// equivalent by FRAIG share one variable.
func (b *Builder) LitOf(e lit.Edge) lit.Lit {
	e = b.store.Resolve(e)
	id := e.Node()
	v, ok := b.varOf[id]
	if !ok {
		v = b.encode(id)
	}
	m := v.Pos()
	if e.Inverted() {
		m = m.Not()
	}
	return m
}

// encode allocates a variable for id and, for AND gates, emits the
// defining clauses for the node and every single-fanout AND ancestor it
// absorbs into one multi-input conjunction (spec.md §4.9's "denser
// clauses" for multi-input ANDs). Returns id's variable.
func (b *Builder) encode(id lit.NodeID) lit.Var {
	if v, ok := b.varOf[id]; ok {
		return v
	}
	node := b.store.Node(id)
	switch node.Kind {
	case aig.KindConst:
		b.varOf[id] = b.constVar
		return b.constVar
	case aig.KindPI:
		v := b.solver.NewVariable()
		b.varOf[id] = v
		return v
	case aig.KindPO:
		// A PO has no Boolean value of its own; callers encode its root
		// edge directly via LitOf, never the PO node id.
		v := b.encode(node.In0.Node())
		b.varOf[id] = v
		return v
	}

	leaves := b.gatherConjunctionLeaves(id)
	outVar := b.solver.NewVariable()
	b.varOf[id] = outVar // cache before recursing: guards against cyclic misuse
	outLit := outVar.Pos()

	leafLits := make([]lit.Lit, len(leaves))
	for i, e := range leaves {
		leafLits[i] = b.LitOf(e)
	}

	// out -> leaf_i, for every leaf.
	for _, ll := range leafLits {
		b.solver.AddClause([]lit.Lit{outLit.Not(), ll})
	}
	// (leaf_1 ∧ ... ∧ leaf_n) -> out, as one clause.
	big := make([]lit.Lit, 0, len(leafLits)+1)
	big = append(big, outLit)
	for _, ll := range leafLits {
		big = append(big, ll.Not())
	}
	b.solver.AddClause(big)

	return outVar
}

// gatherConjunctionLeaves walks id's fanin, absorbing any non-inverted AND
// child that is used nowhere else (fanout 1) and not already encoded, so a
// chain of 2-input ANDs collapses into a single flat conjunction before
// Tseitin clauses are emitted.
func (b *Builder) gatherConjunctionLeaves(id lit.NodeID) []lit.Edge {
	var leaves []lit.Edge
	stack := []lit.Edge{lit.MakeEdge(id, false)}
	first := true
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := b.store.Node(e.Node())
		absorb := first || (!e.Inverted() && n.Kind == aig.KindAnd &&
			b.store.Fanout(e.Node()) == 1 && !b.isEncoded(e.Node()))
		first = false
		if absorb && n.Kind == aig.KindAnd {
			stack = append(stack, n.In0, n.In1)
			continue
		}
		leaves = append(leaves, e)
	}
	return leaves
}

func (b *Builder) isEncoded(id lit.NodeID) bool {
	_, ok := b.varOf[id]
	return ok
}

// Reset drops all cached variables and rebinds the builder to solver as
// NewBuilder does: it allocates a fresh constant-true variable in solver
// and adds its unit clause there.
func (b *Builder) Reset(store *aig.Store, solver *satsolver.Solver) {
	*b = *NewBuilder(store, solver)
}
