package main

import (
	"os"

	"github.com/pkg/errors"

	"github.com/aig-verify/combeq/internal/aig"
	"github.com/aig-verify/combeq/internal/aiger"
	"github.com/aig-verify/combeq/internal/lit"
)

// readAIG opens and parses path as a combinational AIGER network.
func readAIG(path string) (*aig.Store, []lit.Edge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "combeq: open %s", path)
	}
	defer f.Close()

	store, roots, err := aiger.ReadMiter(f)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "combeq: parse %s", path)
	}
	return store, roots, nil
}

// writeAIG creates (or truncates) path and serializes store's roots into it.
func writeAIG(path string, store *aig.Store, roots []lit.Edge) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "combeq: create %s", path)
	}
	defer f.Close()

	if err := aiger.WriteAIG(f, store, roots); err != nil {
		return errors.Wrapf(err, "combeq: write %s", path)
	}
	return nil
}

// buildMiter reconstructs both single-output networks over one shared
// store (so their primary inputs alias rather than duplicate) and returns
// the edge that is true exactly where they disagree. Both networks must
// declare the same number of primary inputs and exactly one output,
// matching spec.md §6's combinational-miter input contract.
func buildMiter(storeA *aig.Store, rootsA []lit.Edge, storeB *aig.Store, rootsB []lit.Edge) (*aig.Store, lit.Edge, error) {
	if len(rootsA) != 1 || len(rootsB) != 1 {
		return nil, 0, errors.New("combeq: prove expects single-output networks")
	}
	if len(storeA.Inputs()) != len(storeB.Inputs()) {
		return nil, 0, errors.Errorf("combeq: input count mismatch (%d vs %d)", len(storeA.Inputs()), len(storeB.Inputs()))
	}

	dst := aig.NewStore()
	shared := make([]lit.Edge, len(storeA.Inputs()))
	for i := range shared {
		shared[i] = dst.FreshInput()
	}

	outA := rebuild(dst, storeA, shared, rootsA[0])
	outB := rebuild(dst, storeB, shared, rootsB[0])

	nab := dst.And(outA, outB)
	nor := dst.And(outA.Not(), outB.Not())
	orab := nor.Not()
	miter := dst.And(orab, nab.Not())
	dst.AddOutput(miter)
	return dst, miter, nil
}

// rebuild replays src's transitive fan-in of root into dst, mapping src's
// primary inputs to the corresponding entries of piEdges (already created
// in dst) in input-declaration order.
func rebuild(dst *aig.Store, src *aig.Store, piEdges []lit.Edge, root lit.Edge) lit.Edge {
	mapped := make(map[lit.NodeID]lit.Edge)
	piIndex := make(map[lit.NodeID]int, len(src.Inputs()))
	for i, id := range src.Inputs() {
		piIndex[id] = i
	}

	for _, id := range src.DFSTopological([]lit.Edge{root}) {
		n := src.Node(id)
		switch n.Kind {
		case aig.KindConst:
			mapped[id] = dst.ConstTrue()
		case aig.KindPI:
			mapped[id] = piEdges[piIndex[id]]
		case aig.KindAnd:
			a := resolveMapped(mapped, n.In0)
			b := resolveMapped(mapped, n.In1)
			mapped[id] = dst.And(a, b)
		case aig.KindPO:
			mapped[id] = resolveMapped(mapped, n.In0)
		}
	}

	resolved := src.Resolve(root)
	out := mapped[resolved.Node()]
	if resolved.Inverted() {
		out = out.Not()
	}
	return out
}

func resolveMapped(mapped map[lit.NodeID]lit.Edge, e lit.Edge) lit.Edge {
	out := mapped[e.Node()]
	if e.Inverted() {
		out = out.Not()
	}
	return out
}
