// Package lit defines the bit-packed literal and variable encodings shared
// by the CNF/SAT layer and the AIG edge representation. Both encodings pack
// a sign/inversion flag into the low bit of a uint32, but they index into
// different spaces (a CNF variable space vs. an AIG node arena) and are kept
// as distinct types so the two are never accidentally interchanged.
package lit

import "fmt"

// Var is a Boolean variable in a CNF formula.
type Var uint32

// VarNull is the sentinel for "no variable".
const VarNull = Var(^uint32(0))

// Pos returns the positive literal of v.
func (v Var) Pos() Lit { return Lit(v << 1) }

// Neg returns the negative literal of v.
func (v Var) Neg() Lit { return Lit((v << 1) | 1) }

func (v Var) String() string { return fmt.Sprintf("v%d", uint32(v)) }

// Lit is a signed literal: the low bit is the sign, the remaining bits
// index a Var. LitNull represents "undefined" (spec.md §3).
type Lit uint32

// LitNull is the reserved "undefined" literal.
const LitNull = Lit(^uint32(0))

// Var returns the variable underlying m.
func (m Lit) Var() Var { return Var(m >> 1) }

// Sign returns -1 if m is negative, 1 if m is positive.
func (m Lit) Sign() int8 {
	if m&1 != 0 {
		return -1
	}
	return 1
}

// IsPos reports whether m is the positive literal of its variable.
func (m Lit) IsPos() bool { return m&1 == 0 }

// Not returns the complement of m.
func (m Lit) Not() Lit { return m ^ 1 }

// IsNull reports whether m is the undefined literal.
func (m Lit) IsNull() bool { return m == LitNull }

// Dimacs renders m in DIMACS integer form (1-based, negative for negated).
func (m Lit) Dimacs() int {
	v := int(m.Var()) + 1
	if !m.IsPos() {
		v = -v
	}
	return v
}

func (m Lit) String() string {
	if m.IsNull() {
		return "lit(null)"
	}
	if m.IsPos() {
		return fmt.Sprintf("%s", m.Var())
	}
	return fmt.Sprintf("-%s", m.Var())
}

// NodeID indexes a node in an AIG arena (internal/aig.Store).
type NodeID uint32

func (n NodeID) String() string { return fmt.Sprintf("n%d", uint32(n)) }

// Edge is a reference to an AIG node paired with an inversion flag: the low
// bit is the invert flag, the remaining bits are a NodeID. Edge(0) is the
// distinguished constant-one edge; its complement is constant zero.
type Edge uint32

// ConstTrueEdge is the distinguished constant-one edge (node 0, not inverted).
const ConstTrueEdge = Edge(0)

// MakeEdge packs a node id and inversion flag into an Edge.
func MakeEdge(n NodeID, inverted bool) Edge {
	e := Edge(n) << 1
	if inverted {
		e |= 1
	}
	return e
}

// Node returns the node id referenced by e.
func (e Edge) Node() NodeID { return NodeID(e >> 1) }

// Inverted reports whether e negates its node's output.
func (e Edge) Inverted() bool { return e&1 != 0 }

// Not returns the complement of e.
func (e Edge) Not() Edge { return e ^ 1 }

// ConstFalseEdge is the complement of the constant-one edge.
var ConstFalseEdge = Edge(ConstTrueEdge).Not()

func (e Edge) String() string {
	if e.Inverted() {
		return fmt.Sprintf("~%s", e.Node())
	}
	return e.Node().String()
}
