package satsolver

import "github.com/aig-verify/combeq/internal/lit"

// Watch is an entry in a per-literal watch list: the clause in which the
// negation of the indexing literal is watched, plus a cached "blocker"
// literal used as a cheap already-satisfied check during propagation
// (spec.md §3, §4.2).
type Watch struct {
	Ref     CRef
	Blocker lit.Lit
	Binary  bool
}

// Watches is the per-literal watcher-list structure (C2).
type Watches struct {
	lists [][]Watch
}

// NewWatches creates watch lists sized for nLits literals.
func NewWatches(nLits int) *Watches {
	return &Watches{lists: make([][]Watch, nLits)}
}

// Grow ensures the watch lists can index literals up to nLits-1.
func (w *Watches) Grow(nLits int) {
	if len(w.lists) >= nLits {
		return
	}
	grown := make([][]Watch, nLits)
	copy(grown, w.lists)
	w.lists = grown
}

// Push appends a watcher to lit l's list.
func (w *Watches) Push(l lit.Lit, watcher Watch) {
	w.lists[l] = append(w.lists[l], watcher)
}

// List returns the mutable watch list for literal l. The caller may
// rewrite entries in place (used by propagation when a watch is replaced)
// and must call SetList with the possibly-shortened result.
func (w *Watches) List(l lit.Lit) []Watch { return w.lists[l] }

// SetList installs a (possibly shortened, in-place-rewritten) watch list
// for literal l.
func (w *Watches) SetList(l lit.Lit, ws []Watch) { w.lists[l] = ws }

// Remove deletes the first watcher referencing ref from l's list. Linear in
// list length — used only on clause deletion, never in the hot propagation
// loop (spec.md §4.2).
func (w *Watches) Remove(l lit.Lit, ref CRef) {
	ws := w.lists[l]
	for i, watcher := range ws {
		if watcher.Ref == ref {
			w.lists[l] = append(ws[:i], ws[i+1:]...)
			return
		}
	}
}

// Shrink truncates l's watch list to its first n entries.
func (w *Watches) Shrink(l lit.Lit, n int) { w.lists[l] = w.lists[l][:n] }
