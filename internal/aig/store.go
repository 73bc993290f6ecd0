// Package aig implements the hash-consed two-input AND-inverter graph store
// (C6): structural hashing, trivial simplification, topological levels, and
// in-place node substitution with transitive collapse.
package aig

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/aig-verify/combeq/internal/lit"
)

// Kind classifies a Node.
type Kind uint8

const (
	// KindConst is the single distinguished constant-one node at index 0.
	KindConst Kind = iota
	// KindPI is a primary input: no fan-in.
	KindPI
	// KindAnd is a two-input AND gate.
	KindAnd
	// KindPO is a primary-output driver: one fan-in, no fanout of its own.
	KindPO
)

// Node is one arena entry: a primary input, an AND gate, or a PO driver.
type Node struct {
	Kind  Kind
	In0   lit.Edge // unused for KindPI
	In1   lit.Edge // unused for KindPI, KindPO
	Level int

	fanout int
	next   lit.NodeID // structural-hash chain, or constant PI-list chain

	rep       lit.NodeID // equivalence representative; NodeNull if canonical
	repInvert bool       // whether this node equals the complement of rep
	choice    lit.NodeID // next node in this node's choice chain, NodeNull if none
}

// NodeNull is the sentinel "no node" id.
const NodeNull = lit.NodeID(^uint32(0))

// Store is the hash-consed AIG arena.
type Store struct {
	nodes []Node
	hash  map[fanKey]lit.NodeID

	pis []lit.NodeID
	pos []lit.NodeID
}

type fanKey struct {
	a, b lit.Edge
}

// NewStore creates an empty store with the constant-one node at index 0.
func NewStore() *Store {
	s := &Store{
		nodes: make([]Node, 1, 256),
		hash:  make(map[fanKey]lit.NodeID, 256),
	}
	s.nodes[0] = Node{Kind: KindConst}
	return s
}

// ConstTrue returns the canonical edge for the constant-1 function.
func (s *Store) ConstTrue() lit.Edge { return lit.ConstTrueEdge }

// NumNodes returns the number of arena slots in use (including the constant).
func (s *Store) NumNodes() int { return len(s.nodes) }

// Node returns the node stored at id. Panics on an out-of-range id, which
// indicates an internal bug rather than a runtime error (spec.md §7).
func (s *Store) Node(id lit.NodeID) *Node { return &s.nodes[id] }

// FreshInput allocates a new primary input and returns its positive edge.
func (s *Store) FreshInput() lit.Edge {
	id := lit.NodeID(len(s.nodes))
	s.nodes = append(s.nodes, Node{Kind: KindPI})
	s.pis = append(s.pis, id)
	return lit.MakeEdge(id, false)
}

// AddOutput registers root as a primary output and returns its driver node id.
func (s *Store) AddOutput(root lit.Edge) lit.NodeID {
	id := lit.NodeID(len(s.nodes))
	s.nodes = append(s.nodes, Node{Kind: KindPO, In0: root, Level: s.Level(root)})
	s.bumpFanout(root.Node())
	s.pos = append(s.pos, id)
	return id
}

// Inputs returns the primary-input node ids in creation order.
func (s *Store) Inputs() []lit.NodeID { return s.pis }

// Outputs returns the primary-output node ids in creation order.
func (s *Store) Outputs() []lit.NodeID { return s.pos }

// Level returns the topological level of the node an edge points to.
func (s *Store) Level(e lit.Edge) int { return s.nodes[e.Node()].Level }

// canonicalOrder returns (a, b) in the store's canonical input order: by
// node arena index first, then inversion flag as a tiebreak (spec.md §3).
func canonicalOrder(a, b lit.Edge) (lit.Edge, lit.Edge) {
	if a.Node() > b.Node() || (a.Node() == b.Node() && a.Inverted() && !b.Inverted()) {
		return b, a
	}
	return a, b
}

// And returns the edge representing a AND b, performing trivial
// simplification and structural hashing (spec.md §4.6, invariants §3).
func (s *Store) And(a, b lit.Edge) lit.Edge {
	// any input = const 0 -> const 0
	if a == lit.ConstFalseEdge || b == lit.ConstFalseEdge {
		return lit.ConstFalseEdge
	}
	// any input = const 1 -> other input
	if a == lit.ConstTrueEdge {
		return b
	}
	if b == lit.ConstTrueEdge {
		return a
	}
	// a == b -> a
	if a == b {
		return a
	}
	// a == ~b -> const 0
	if a == b.Not() {
		return lit.ConstFalseEdge
	}

	a, b = canonicalOrder(a, b)
	key := fanKey{a, b}
	if id, ok := s.hash[key]; ok {
		return lit.MakeEdge(id, false)
	}

	id := lit.NodeID(len(s.nodes))
	lvl := s.nodes[a.Node()].Level
	if bl := s.nodes[b.Node()].Level; bl > lvl {
		lvl = bl
	}
	s.nodes = append(s.nodes, Node{
		Kind:  KindAnd,
		In0:   a,
		In1:   b,
		Level: lvl + 1,
	})
	s.hash[key] = id
	s.bumpFanout(a.Node())
	s.bumpFanout(b.Node())
	return lit.MakeEdge(id, false)
}

func (s *Store) bumpFanout(id lit.NodeID) { s.nodes[id].fanout++ }

func (s *Store) dropFanout(id lit.NodeID) {
	if s.nodes[id].fanout > 0 {
		s.nodes[id].fanout--
	}
}

// Fanout returns the current fanout count of a node.
func (s *Store) Fanout(id lit.NodeID) int { return s.nodes[id].fanout }

// Resolve follows e's node's equivalence-representative chain (if any) to
// its canonical node, composing inversion along the way. Callers that walk
// the graph after a Substitute should resolve edges they already hold.
func (s *Store) Resolve(e lit.Edge) lit.Edge { return s.resolveEdge(e) }

// ChoiceNext returns the next node in id's choice chain, or NodeNull if id
// is the last (or only) member (spec.md §3's "next-choice" pointer).
func (s *Store) ChoiceNext(id lit.NodeID) lit.NodeID { return s.nodes[id].choice }

// LinkChoice inserts n at the head of rep's choice chain (spec.md §6
// "choicing": kept separate from substitution so a downstream consumer can
// still pick among functionally-equivalent implementations of rep).
func (s *Store) LinkChoice(rep, n lit.NodeID) {
	s.nodes[n].choice = s.nodes[rep].choice
	s.nodes[rep].choice = n
}

// Representative follows the equivalence-representative chain of id to its
// canonical node (spec.md §3: "representative chain terminates at a node
// with null representative").
func (s *Store) Representative(id lit.NodeID) lit.NodeID {
	for s.nodes[id].rep != NodeNull {
		id = s.nodes[id].rep
	}
	return id
}

// DFSTopological returns the node ids reachable from roots, in a
// topological order (fan-ins before fanouts).
func (s *Store) DFSTopological(roots []lit.Edge) []lit.NodeID {
	visited := make([]bool, len(s.nodes))
	var order []lit.NodeID
	var visit func(id lit.NodeID)
	visit = func(id lit.NodeID) {
		if visited[id] {
			return
		}
		visited[id] = true
		n := &s.nodes[id]
		switch n.Kind {
		case KindAnd:
			visit(n.In0.Node())
			visit(n.In1.Node())
		case KindPO:
			visit(n.In0.Node())
		}
		order = append(order, id)
	}
	for _, r := range roots {
		visit(s.resolveEdge(r).Node())
	}
	return order
}

// Substitute replaces every fanout reference to old with newEdge (oriented
// the same way old's positive edge was), updating the structural-hash keys
// of affected fanouts, and repeats transitively if that update causes a
// fanout to collide with an existing node (spec.md §4.6).
func (s *Store) Substitute(old lit.NodeID, newEdge lit.Edge) {
	s.setRep(old, newEdge)
	work := []lit.NodeID{old}
	for len(work) > 0 {
		cur := work[len(work)-1]
		work = work[:len(work)-1]
		repl := s.resolveEdge(lit.MakeEdge(cur, false))
		for id := lit.NodeID(1); id < lit.NodeID(len(s.nodes)); id++ {
			n := &s.nodes[id]
			if n.Kind != KindAnd {
				continue
			}
			changed := false
			a, b := n.In0, n.In1
			if a.Node() == cur {
				a = xorInvert(repl, a.Inverted())
				changed = true
			}
			if b.Node() == cur {
				b = xorInvert(repl, b.Inverted())
				changed = true
			}
			if !changed {
				continue
			}
			s.removeHashEntry(id)
			collapsed, collapseEdge := s.simplifyPair(a, b)
			if collapsed {
				s.dropFanout(n.In0.Node())
				s.dropFanout(n.In1.Node())
				s.setRep(id, collapseEdge)
				work = append(work, id)
				continue
			}
			a2, b2 := canonicalOrder(a, b)
			n.In0, n.In1 = a2, b2
			n.Level = 1 + max(s.nodes[a2.Node()].Level, s.nodes[b2.Node()].Level)
			s.bumpFanout(a2.Node())
			s.bumpFanout(b2.Node())
			key := fanKey{a2, b2}
			if other, ok := s.hash[key]; ok && other != id {
				s.setRep(id, lit.MakeEdge(other, false))
				work = append(work, id)
				continue
			}
			s.hash[key] = id
		}
		for _, po := range s.pos {
			n := &s.nodes[po]
			if n.In0.Node() == cur {
				n.In0 = xorInvert(repl, n.In0.Inverted())
			}
		}
	}
}

// setRep records that id's function equals newEdge's, tracking polarity
// separately from the choice-chain field (which is reserved for FRAIG's
// equivalence-class bookkeeping, spec.md §3).
func (s *Store) setRep(id lit.NodeID, newEdge lit.Edge) {
	s.nodes[id].rep = newEdge.Node()
	s.nodes[id].repInvert = newEdge.Inverted()
}

// simplifyPair applies the same trivial simplifications as And to an
// already-existing node being rewired, returning (true, edge) if the pair
// collapses to a single existing edge instead of a genuine 2-input AND.
func (s *Store) simplifyPair(a, b lit.Edge) (bool, lit.Edge) {
	switch {
	case a == lit.ConstFalseEdge || b == lit.ConstFalseEdge:
		return true, lit.ConstFalseEdge
	case a == lit.ConstTrueEdge:
		return true, b
	case b == lit.ConstTrueEdge:
		return true, a
	case a == b:
		return true, a
	case a == b.Not():
		return true, lit.ConstFalseEdge
	default:
		return false, lit.Edge(0)
	}
}

func (s *Store) removeHashEntry(id lit.NodeID) {
	n := &s.nodes[id]
	if n.Kind != KindAnd {
		return
	}
	a, b := canonicalOrder(n.In0, n.In1)
	key := fanKey{a, b}
	if cur, ok := s.hash[key]; ok && cur == id {
		delete(s.hash, key)
	}
}

// resolveEdge follows a node's representative chain, composing inversion.
func (s *Store) resolveEdge(e lit.Edge) lit.Edge {
	id := e.Node()
	inv := e.Inverted()
	for s.nodes[id].rep != NodeNull {
		if s.nodes[id].repInvert {
			inv = !inv
		}
		id = s.nodes[id].rep
	}
	return lit.MakeEdge(id, inv)
}

func xorInvert(e lit.Edge, extra bool) lit.Edge {
	if extra {
		return e.Not()
	}
	return e
}

// Compact rebuilds the arena in topological order from the given roots,
// discarding unreachable and dead (representative-redirected, zero-fanout)
// nodes, and returns the old->new id remap table (spec.md §4.6; folds in
// the dangling-node sweep described by original_source's abcSweep.c).
func (s *Store) Compact(roots []lit.Edge) (remap []lit.NodeID) {
	order := s.DFSTopological(roots)
	remap = make([]lit.NodeID, len(s.nodes))
	for i := range remap {
		remap[i] = NodeNull
	}
	newNodes := make([]Node, 1, len(order)+1)
	newNodes[0] = Node{Kind: KindConst}
	remap[0] = 0

	newHash := make(map[fanKey]lit.NodeID, len(order))
	for _, id := range order {
		if id == 0 {
			continue
		}
		n := s.nodes[id]
		switch n.Kind {
		case KindPI:
			nid := lit.NodeID(len(newNodes))
			remap[id] = nid
			newNodes = append(newNodes, Node{Kind: KindPI})
		case KindAnd:
			a := remapEdge(remap, n.In0)
			b := remapEdge(remap, n.In1)
			a, b = canonicalOrder(a, b)
			nid := lit.NodeID(len(newNodes))
			remap[id] = nid
			lvl := newNodes[a.Node()].Level
			if bl := newNodes[b.Node()].Level; bl > lvl {
				lvl = bl
			}
			newNodes = append(newNodes, Node{Kind: KindAnd, In0: a, In1: b, Level: lvl + 1})
			newHash[fanKey{a, b}] = nid
			newNodes[a.Node()].fanout++
			newNodes[b.Node()].fanout++
		}
	}
	newPIs := make([]lit.NodeID, 0, len(s.pis))
	for _, id := range s.pis {
		if r := remap[id]; r != NodeNull {
			newPIs = append(newPIs, r)
		}
	}
	newPOs := make([]lit.NodeID, 0, len(s.pos))
	for _, id := range s.pos {
		n := s.nodes[id]
		a := remapEdge(remap, n.In0)
		nid := lit.NodeID(len(newNodes))
		remap[id] = nid
		newNodes = append(newNodes, Node{Kind: KindPO, In0: a, Level: newNodes[a.Node()].Level})
		newNodes[a.Node()].fanout++
		newPOs = append(newPOs, nid)
	}

	s.nodes = newNodes
	s.hash = newHash
	s.pis = newPIs
	s.pos = newPOs
	return remap
}

func remapEdge(remap []lit.NodeID, e lit.Edge) lit.Edge {
	nid := remap[e.Node()]
	if nid == NodeNull {
		panic(fmt.Sprintf("aig: compact: dangling reference to node %d", e.Node()))
	}
	return lit.MakeEdge(nid, e.Inverted())
}

// CheckInvariants is a diagnostic, not used on any hot path: it verifies the
// invariants of spec.md §3 hold and aggregates every violation found
// instead of stopping at the first (useful in tests and fuzzing).
func (s *Store) CheckInvariants() error {
	var result *multierror.Error
	seen := make(map[fanKey]lit.NodeID, len(s.nodes))
	for id := 1; id < len(s.nodes); id++ {
		n := s.nodes[id]
		if n.Kind != KindAnd {
			continue
		}
		if n.In0.Node() >= lit.NodeID(id) || n.In1.Node() >= lit.NodeID(id) {
			result = multierror.Append(result, errors.Errorf("node %d: fan-in does not have strictly smaller index", id))
		}
		a, b := canonicalOrder(n.In0, n.In1)
		if a != n.In0 || b != n.In1 {
			result = multierror.Append(result, errors.Errorf("node %d: inputs not in canonical order", id))
		}
		if n.In0 == lit.ConstFalseEdge || n.In1 == lit.ConstFalseEdge {
			result = multierror.Append(result, errors.Errorf("node %d: constant-zero input not simplified away", id))
		}
		if n.In0 == n.In1.Not() {
			result = multierror.Append(result, errors.Errorf("node %d: complementary inputs not simplified away", id))
		}
		if n.In0 == n.In1 {
			result = multierror.Append(result, errors.Errorf("node %d: identical inputs not simplified away", id))
		}
		wantLevel := 1 + max(s.nodes[n.In0.Node()].Level, s.nodes[n.In1.Node()].Level)
		if n.Level != wantLevel {
			result = multierror.Append(result, errors.Errorf("node %d: level %d, want %d", id, n.Level, wantLevel))
		}
		key := fanKey{a, b}
		if other, ok := seen[key]; ok {
			result = multierror.Append(result, errors.Errorf("nodes %d and %d: duplicate structural hash key", other, id))
		} else {
			seen[key] = lit.NodeID(id)
		}
	}
	return result.ErrorOrNil()
}
