// Package aiger implements the binary AIGER-compatible reader/writer: a
// header line naming (M, I, L, O, A), the primary-output literals as
// decimal lines, then the AND-gate fanin pairs as variable-length
// delta-encoded bytes in topological order. Grounded on the published
// AIGER binary format and on the streaming, line-oriented parsing style of
// original_source/abc/src/sat/xsat/xsatCnfReader.c (read a header line,
// then decode the body incrementally rather than building an intermediate
// parse tree).
package aiger

import (
	"bufio"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/aig-verify/combeq/internal/aig"
	"github.com/aig-verify/combeq/internal/lit"
)

const magic = "aig"

// header holds the five counts named on an AIGER "aig M I L O A" line.
type header struct {
	maxVar  int
	inputs  int
	latches int
	outputs int
	ands    int
}

// ReadMiter parses a combinational AIGER network: latches must be 0 (a
// network with latches has not been miter-built and is rejected outright,
// per the "malformed input" error kind). Returns the reconstructed store
// and the edges of its primary outputs, in file order.
func ReadMiter(r io.Reader) (*aig.Store, []lit.Edge, error) {
	br := bufio.NewReader(r)

	h, err := readHeader(br)
	if err != nil {
		return nil, nil, errors.Wrap(err, "aiger: header")
	}
	if h.latches != 0 {
		return nil, nil, errors.Errorf("aiger: latch count %d > 0, not a combinational miter", h.latches)
	}
	if h.maxVar != h.inputs+h.ands {
		return nil, nil, errors.Errorf("aiger: M=%d does not equal I+A=%d", h.maxVar, h.inputs+h.ands)
	}

	outLits := make([]int, h.outputs)
	for i := 0; i < h.outputs; i++ {
		v, err := readDecimalLine(br)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "aiger: output literal %d", i)
		}
		outLits[i] = v
	}

	store := aig.NewStore()

	// varEdge[v] is the edge for AIGER variable v; index 0 is the constant.
	varEdge := make([]lit.Edge, h.maxVar+1)
	varEdge[0] = lit.ConstTrueEdge

	for i := 1; i <= h.inputs; i++ {
		varEdge[i] = store.FreshInput()
	}

	var errs error
	for i := 0; i < h.ands; i++ {
		d0, err := readDelta(br)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "aiger: AND gate %d delta0", i)
		}
		d1, err := readDelta(br)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "aiger: AND gate %d delta1", i)
		}
		v := h.inputs + 1 + i
		lhs := v * 2
		rhs0 := lhs - d0
		rhs1 := rhs0 - d1
		if rhs0 >= lhs || rhs1 > rhs0 {
			errs = multierror.Append(errs, errors.Errorf("aiger: AND gate %d is not in topological order", i))
			continue
		}
		a, aok := litToEdge(varEdge, rhs0)
		b, bok := litToEdge(varEdge, rhs1)
		if !aok || !bok {
			errs = multierror.Append(errs, errors.Errorf("aiger: AND gate %d references an undefined variable", i))
			continue
		}
		varEdge[v] = store.And(a, b)
	}
	if errs != nil {
		return nil, nil, errs
	}

	roots := make([]lit.Edge, h.outputs)
	for i, l := range outLits {
		e, ok := litToEdge(varEdge, l)
		if !ok {
			return nil, nil, errors.Errorf("aiger: output %d references an undefined variable", i)
		}
		roots[i] = e
		store.AddOutput(e)
	}

	return store, roots, nil
}

func litToEdge(varEdge []lit.Edge, l int) (lit.Edge, bool) {
	v := l / 2
	if v < 0 || v >= len(varEdge) {
		return lit.Edge(0), false
	}
	e := varEdge[v]
	if l%2 != 0 {
		e = e.Not()
	}
	return e, true
}

func readHeader(br *bufio.Reader) (header, error) {
	line, err := br.ReadString('\n')
	if err != nil && line == "" {
		return header{}, errors.Wrap(err, "reading header line")
	}
	var h header
	var tag string
	n, err := fmt.Sscanf(line, "%s %d %d %d %d %d", &tag, &h.maxVar, &h.inputs, &h.latches, &h.outputs, &h.ands)
	if err != nil || n != 6 {
		return header{}, errors.Errorf("malformed header %q", line)
	}
	if tag != magic {
		return header{}, errors.Errorf("unrecognized format tag %q, want %q", tag, magic)
	}
	return h, nil
}

func readDecimalLine(br *bufio.Reader) (int, error) {
	line, err := br.ReadString('\n')
	if err != nil && line == "" {
		return 0, err
	}
	var v int
	if _, err := fmt.Sscanf(line, "%d", &v); err != nil {
		return 0, errors.Errorf("malformed decimal line %q", line)
	}
	return v, nil
}

// readDelta decodes one AIGER variable-length unsigned integer: 7 bits per
// byte, low-to-high, continuation in the top bit.
func readDelta(br *bufio.Reader) (int, error) {
	var x uint64
	var shift uint
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		x |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
	}
	return int(x), nil
}

// writeDelta encodes x with the same scheme readDelta decodes.
func writeDelta(w *bufio.Writer, x uint64) error {
	for {
		b := byte(x & 0x7f)
		x >>= 7
		if x != 0 {
			b |= 0x80
		}
		if err := w.WriteByte(b); err != nil {
			return err
		}
		if x == 0 {
			return nil
		}
	}
}

// WriteAIG serializes store restricted to the transitive fan-in of roots
// in the same binary form ReadMiter reads, with every discovered
// equivalence already resolved (WriteAIG calls store.Resolve on every
// edge it writes, so a node merged away by the FRAIG engine never appears
// in the output).
func WriteAIG(w io.Writer, store *aig.Store, roots []lit.Edge) error {
	order := store.DFSTopological(roots)

	ands := make([]lit.NodeID, 0, len(order))
	for _, id := range order {
		if store.Node(id).Kind == aig.KindAnd {
			ands = append(ands, id)
		}
	}

	varOf := make(map[lit.NodeID]int, len(order)+1)
	varOf[store.ConstTrue().Node()] = 0
	next := 1
	for _, id := range store.Inputs() {
		varOf[id] = next
		next++
	}
	for _, id := range ands {
		varOf[id] = next
		next++
	}

	bw := bufio.NewWriter(w)
	maxVar := len(store.Inputs()) + len(ands)
	if _, err := fmt.Fprintf(bw, "%s %d %d %d %d %d\n", magic, maxVar, len(store.Inputs()), 0, len(roots), len(ands)); err != nil {
		return errors.Wrap(err, "aiger: write header")
	}

	for _, root := range roots {
		resolved := store.Resolve(root)
		l := edgeToLit(varOf, resolved)
		if _, err := fmt.Fprintf(bw, "%d\n", l); err != nil {
			return errors.Wrap(err, "aiger: write output literal")
		}
	}

	for _, id := range ands {
		n := store.Node(id)
		lhs := varOf[id] * 2
		a := edgeToLit(varOf, store.Resolve(n.In0))
		b := edgeToLit(varOf, store.Resolve(n.In1))
		rhs0, rhs1 := a, b
		if rhs0 < rhs1 {
			rhs0, rhs1 = rhs1, rhs0
		}
		if err := writeDelta(bw, uint64(lhs-rhs0)); err != nil {
			return errors.Wrap(err, "aiger: write AND gate delta0")
		}
		if err := writeDelta(bw, uint64(rhs0-rhs1)); err != nil {
			return errors.Wrap(err, "aiger: write AND gate delta1")
		}
	}

	return errors.Wrap(bw.Flush(), "aiger: flush")
}

func edgeToLit(varOf map[lit.NodeID]int, e lit.Edge) int {
	l := varOf[e.Node()] * 2
	if e.Inverted() {
		l++
	}
	return l
}
