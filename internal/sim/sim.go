// Package sim implements the AIG simulator (C7): parallel 32-bit-word
// simulation vectors per node, random-pattern assignment, counterexample
// pattern appending, and phase-normalized fingerprinting for equivalence
// class bucketing.
package sim

import (
	"encoding/binary"
	"math/rand"

	"github.com/cespare/xxhash/v2"

	"github.com/aig-verify/combeq/internal/aig"
	"github.com/aig-verify/combeq/internal/lit"
)

// Vectors holds one simulation-vector (a slice of 32-bit words) per node.
type Vectors struct {
	store *aig.Store
	words [][]uint32
	rng   *rand.Rand
}

// New creates a Vectors for store, with each node's vector initially empty.
func New(store *aig.Store) *Vectors {
	return &Vectors{
		store: store,
		words: make([][]uint32, store.NumNodes()),
		rng:   rand.New(rand.NewSource(1)),
	}
}

func (v *Vectors) ensureCap() {
	if n := v.store.NumNodes(); len(v.words) < n {
		grown := make([][]uint32, n)
		copy(grown, v.words)
		v.words = grown
	}
}

// NumWords returns the current simulation-vector length in words.
func (v *Vectors) NumWords() int {
	if len(v.words) == 0 {
		return 0
	}
	return len(v.words[0])
}

// Vector returns the current simulation vector of a node.
func (v *Vectors) Vector(id lit.NodeID) []uint32 { return v.words[id] }

// SetRandomPatterns assigns nWords words of uniformly random bits to every
// primary input and evaluates, in topological order, the AND/PO nodes
// reachable from the store's outputs (spec.md §4.7); other nodes are not
// evaluated.
func (v *Vectors) SetRandomPatterns(nWords int) {
	v.ensureCap()
	for _, id := range v.store.Inputs() {
		word := make([]uint32, nWords)
		for i := range word {
			word[i] = v.rng.Uint32()
		}
		v.words[id] = word
	}
	v.evaluateAll()
}

// AppendPattern extends by one word the vector of every primary input and
// of every AND/PO node reachable from the store's outputs, computed from
// the given per-PI boolean values (spec.md §4.7).
// piValues must have exactly len(store.Inputs()) entries.
func (v *Vectors) AppendPattern(piValues []bool) {
	v.ensureCap()
	inputs := v.store.Inputs()
	for i, id := range inputs {
		var word uint32
		if i < len(piValues) && piValues[i] {
			word = ^uint32(0)
		}
		v.words[id] = append(v.words[id], word)
	}
	v.evaluateIncremental()
}

func (v *Vectors) evaluateAll() {
	v.evaluateFrom(v.store.DFSTopological(v.allRoots()))
}

func (v *Vectors) evaluateIncremental() {
	v.ensureCap()
	order := v.store.DFSTopological(v.allRoots())
	for _, id := range order {
		n := v.store.Node(id)
		switch n.Kind {
		case aig.KindAnd:
			a := v.edgeLastWord(n.In0)
			b := v.edgeLastWord(n.In1)
			v.words[id] = append(v.words[id], a&b)
		case aig.KindPO:
			v.words[id] = append(v.words[id], v.edgeLastWord(n.In0))
		}
	}
}

func (v *Vectors) edgeLastWord(e lit.Edge) uint32 {
	w := v.words[e.Node()]
	last := w[len(w)-1]
	if e.Inverted() {
		return ^last
	}
	return last
}

func (v *Vectors) evaluateFrom(order []lit.NodeID) {
	v.ensureCap()
	for _, id := range order {
		n := v.store.Node(id)
		switch n.Kind {
		case aig.KindAnd:
			a := v.edgeVec(n.In0)
			b := v.edgeVec(n.In1)
			out := make([]uint32, len(a))
			for i := range out {
				out[i] = a[i] & b[i]
			}
			v.words[id] = out
		case aig.KindPO:
			v.words[id] = append([]uint32(nil), v.edgeVec(n.In0)...)
		}
	}
}

func (v *Vectors) edgeVec(e lit.Edge) []uint32 {
	src := v.words[e.Node()]
	if !e.Inverted() {
		return src
	}
	out := make([]uint32, len(src))
	for i, w := range src {
		out[i] = ^w
	}
	return out
}

func (v *Vectors) allRoots() []lit.Edge {
	pos := v.store.Outputs()
	roots := make([]lit.Edge, len(pos))
	for i, id := range pos {
		roots[i] = lit.MakeEdge(id, false)
	}
	return roots
}

// Fingerprint hashes a node's simulation vector to a 64-bit bucket key,
// treating the vector and its bitwise complement as identical (phase
// normalization), and reports the phase bit separately: phase is true if
// the vector was complemented to reach canonical form (spec.md §4.7).
func (v *Vectors) Fingerprint(id lit.NodeID) (key uint64, phase bool) {
	return FingerprintVector(v.words[id])
}

// FingerprintVector computes the phase-normalized fingerprint of an
// arbitrary simulation vector.
func FingerprintVector(vec []uint32) (key uint64, phase bool) {
	if len(vec) == 0 {
		return 0, false
	}
	// Canonical phase: the vector whose first word's low bit is 0.
	phase = vec[0]&1 != 0
	buf := make([]byte, 4*len(vec))
	for i, w := range vec {
		if phase {
			w = ^w
		}
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return xxhash.Sum64(buf), phase
}
