package satsolver

import "github.com/aig-verify/combeq/internal/lit"

// OrderHeap is the variable-order binary max-heap (C3), keyed on a
// per-variable activity score owned by the Solver. Grounded on gini's
// Guess heap (internal/xo/guess.go): a slice-backed heap plus a parallel
// position index so VSIDS bumps can call IncreasePriority directly instead
// of re-scanning.
type OrderHeap struct {
	heap     []lit.Var
	pos      []int // heap index of var, or -1 if not present
	activity []float64
}

// NewOrderHeap creates an order heap reading activity scores from act
// (shared with the solver, never copied).
func NewOrderHeap(act []float64) *OrderHeap {
	return &OrderHeap{
		heap:     make([]lit.Var, 0, len(act)),
		pos:      make([]int, len(act)),
		activity: act,
	}
}

// Grow extends the position table to cover nVars variables.
func (h *OrderHeap) Grow(nVars int) {
	for len(h.pos) < nVars {
		h.pos = append(h.pos, -1)
	}
}

// Contains reports whether v is currently in the heap.
func (h *OrderHeap) Contains(v lit.Var) bool { return h.pos[v] != -1 }

// Insert adds v to the heap if it is not already present.
func (h *OrderHeap) Insert(v lit.Var) {
	if h.Contains(v) {
		return
	}
	h.pos[v] = len(h.heap)
	h.heap = append(h.heap, v)
	h.siftUp(h.pos[v])
}

// IncreasePriority re-heapifies around v after its activity has increased,
// using its cached heap position rather than scanning.
func (h *OrderHeap) IncreasePriority(v lit.Var) {
	if p := h.pos[v]; p != -1 {
		h.siftUp(p)
	}
}

// PopMax removes and returns the variable with highest activity. Returns
// (0, false) if the heap is empty.
func (h *OrderHeap) PopMax() (lit.Var, bool) {
	if len(h.heap) == 0 {
		return 0, false
	}
	top := h.heap[0]
	last := len(h.heap) - 1
	h.swap(0, last)
	h.pos[top] = -1
	h.heap = h.heap[:last]
	if last > 0 {
		h.siftDown(0)
	}
	return top, true
}

// Rebuild clears and reinserts exactly the given active variables, in the
// order given, then re-heapifies (used after Simplify removes variables
// permanently from consideration).
func (h *OrderHeap) Rebuild(activeVars []lit.Var) {
	h.heap = h.heap[:0]
	for i := range h.pos {
		h.pos[i] = -1
	}
	for _, v := range activeVars {
		h.pos[v] = len(h.heap)
		h.heap = append(h.heap, v)
	}
	for i := len(h.heap)/2 - 1; i >= 0; i-- {
		h.siftDown(i)
	}
}

func (h *OrderHeap) less(i, j int) bool {
	return h.activity[h.heap[i]] > h.activity[h.heap[j]]
}

func (h *OrderHeap) swap(i, j int) {
	h.heap[i], h.heap[j] = h.heap[j], h.heap[i]
	h.pos[h.heap[i]] = i
	h.pos[h.heap[j]] = j
}

func (h *OrderHeap) siftUp(j int) {
	for j > 0 {
		i := (j - 1) / 2
		if !h.less(j, i) {
			return
		}
		h.swap(i, j)
		j = i
	}
}

func (h *OrderHeap) siftDown(i int) {
	n := len(h.heap)
	for {
		l, r := 2*i+1, 2*i+2
		largest := i
		if l < n && h.less(l, largest) {
			largest = l
		}
		if r < n && h.less(r, largest) {
			largest = r
		}
		if largest == i {
			return
		}
		h.swap(i, largest)
		i = largest
	}
}
