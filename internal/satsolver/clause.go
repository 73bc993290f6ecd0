package satsolver

import (
	"math"

	"github.com/aig-verify/combeq/internal/lit"
)

// CRef is an opaque handle into the clause memory (C1). Callers never see
// a raw pointer or index into the backing storage — only this handle,
// which remains valid until a Compact rewrites it (spec.md §9).
type CRef uint32

const (
	// CRefNull means "no clause" (e.g. an unassigned variable's reason).
	CRefNull = CRef(math.MaxUint32)
	// CRefDecision is the reason sentinel for a branched (not propagated)
	// assignment.
	CRefDecision = CRef(math.MaxUint32 - 1)
)

type clauseRecord struct {
	lits      []lit.Lit
	learnt    bool
	deleted   bool
	protected bool // LBD <= protectedLBD, never removed by reduce (spec.md §9)
	activity  float32
	lbd       int
}

// ClauseMem is the clause-memory allocator (C1): it hands out CRef handles
// for clauses whose size is known at allocation time, frees clauses lazily
// (accumulating wasted space), and compacts in place on request, rewriting
// every outstanding handle via the returned remap.
//
// Unlike the teacher's flat word-addressed heap (gini's CDat, a single
// []z.Lit arena with hand-rolled clause framing), this stores one
// clauseRecord per handle in a slice. It keeps the same external contract
// — geometric growth, a wasted-word counter, compaction with handle remap
// — in a representation that doesn't need manual offset arithmetic, which
// is the idiomatic Go rendition of the same allocator.
type ClauseMem struct {
	records []clauseRecord
	free    []CRef // tombstoned slots, reused by subsequent Alloc calls
	wasted  int
	bumpInc float32
}

// NewClauseMem creates an empty clause memory with capacity hint cap.
func NewClauseMem(cap int) *ClauseMem {
	if cap < 16 {
		cap = 16
	}
	return &ClauseMem{
		records: make([]clauseRecord, 0, cap),
		bumpInc: 1,
	}
}

// Alloc reserves storage for a clause and returns its handle. lits is
// copied; the caller's slice is not retained. A freed slot is reused ahead
// of growing the backing slice, the same way Free lazily reclaims it.
func (m *ClauseMem) Alloc(lits []lit.Lit, learnt bool) CRef {
	rec := clauseRecord{
		lits:   append([]lit.Lit(nil), lits...),
		learnt: learnt,
	}
	if n := len(m.free); n > 0 {
		ref := m.free[n-1]
		m.free = m.free[:n-1]
		m.records[ref] = rec
		return ref
	}
	ref := CRef(len(m.records))
	m.records = append(m.records, rec)
	return ref
}

// Get returns the literals of the clause referenced by ref. The returned
// slice must not be retained across a Compact.
func (m *ClauseMem) Get(ref CRef) []lit.Lit { return m.records[ref].lits }

// SetLits overwrites the literals of ref in place (same or smaller length),
// used by propagation's watch-swap and by clause minimization.
func (m *ClauseMem) SetLits(ref CRef, lits []lit.Lit) { m.records[ref].lits = lits }

// Size returns the number of literals in the clause.
func (m *ClauseMem) Size(ref CRef) int { return len(m.records[ref].lits) }

// Learnt reports whether ref is a learnt clause.
func (m *ClauseMem) Learnt(ref CRef) bool { return m.records[ref].learnt }

// LBD returns the literal-blocks-distance of a learnt clause.
func (m *ClauseMem) LBD(ref CRef) int { return m.records[ref].lbd }

// SetLBD sets the LBD of a learnt clause and updates its "protected-forever"
// flag per the spec.md §9 open question: clauses with LBD <= protectedLBD
// (2) are never deleted by reduce. frozenLBD is a separate constant, used
// only by reduceLearnts' special increment.
func (m *ClauseMem) SetLBD(ref CRef, lbd int) {
	m.records[ref].lbd = lbd
	m.records[ref].protected = lbd <= protectedLBD
}

// Protected reports whether a clause is permanently exempt from reduction.
func (m *ClauseMem) Protected(ref CRef) bool { return m.records[ref].protected }

// Activity returns a learnt clause's activity score.
func (m *ClauseMem) Activity(ref CRef) float32 { return m.records[ref].activity }

// Bump increases a learnt clause's activity, rescaling all activities (and
// reporting that it did so) if the bumped value overflows a soft limit.
func (m *ClauseMem) Bump(ref CRef) (rescaled bool) {
	r := &m.records[ref]
	if !r.learnt {
		return false
	}
	r.activity += m.bumpInc
	if r.activity > 1e30 {
		for i := range m.records {
			m.records[i].activity *= 1e-30
		}
		m.bumpInc *= 1e-30
		rescaled = true
	}
	return rescaled
}

// Decay increases the clause-activity bump increment geometrically.
func (m *ClauseMem) Decay(decay float32) { m.bumpInc /= decay }

// Free marks a clause for deletion, accumulates its size into the
// wasted-words counter, and pushes its slot onto the free list so the next
// Alloc reuses it instead of growing the backing slice; the slot's record
// is not actually cleared until that reuse (or a Compact, whichever comes
// first).
func (m *ClauseMem) Free(ref CRef) {
	r := &m.records[ref]
	if r.deleted {
		return
	}
	r.deleted = true
	m.wasted += len(r.lits) + clauseOverheadWords
	r.lits = nil
	m.free = append(m.free, ref)
}

// Deleted reports whether a clause has been freed.
func (m *ClauseMem) Deleted(ref CRef) bool { return m.records[ref].deleted }

// clauseOverheadWords approximates the header cost of a clause (learnt
// flag, activity, LBD, size) the way the teacher's CDat reserves 3
// literal-sized words of header per clause.
const clauseOverheadWords = 3

// CompactReady reports whether accumulated waste justifies a compaction
// pass, mirroring gini's CDat.CompactReady: waste is worth reclaiming once
// it exceeds half of everything allocated.
func (m *ClauseMem) CompactReady() bool {
	total := 0
	for _, r := range m.records {
		total += len(r.lits) + clauseOverheadWords
	}
	return m.wasted > 0 && total/2 < m.wasted
}

// Compact drops every deleted clause, rewriting the handles of all
// surviving clauses in `live` (in the same order) into a remap table the
// caller must apply to every outstanding CRef (trail reasons, watch lists,
// clause lists) — spec.md §4.1, §9.
func (m *ClauseMem) Compact(live []CRef) map[CRef]CRef {
	remap := make(map[CRef]CRef, len(live))
	newRecords := make([]clauseRecord, 0, len(live))
	for _, ref := range live {
		if m.records[ref].deleted {
			remap[ref] = CRefNull
			continue
		}
		remap[ref] = CRef(len(newRecords))
		newRecords = append(newRecords, m.records[ref])
	}
	m.records = newRecords
	m.free = nil
	m.wasted = 0
	return remap
}
