// Package satsolver implements the CDCL SAT solver (C5) and its supporting
// data structures: clause memory (C1), watcher lists (C2), the variable
// order heap (C3), and the bounded running queue (C4). The design is
// grounded on the vendored github.com/irifrance/gini solver
// (internal/xo/{cdat,watch,guess,s,derive,cgc}.go) found in the teacher
// repository's dependency tree, renamed to this spec's vocabulary.
package satsolver

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aig-verify/combeq/internal/lit"
)

// Result is the outcome of a Solve call.
type Result int8

const (
	Unsat        Result = -1
	Undetermined Result = 0
	Sat          Result = 1
)

func (r Result) String() string {
	switch r {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "undetermined"
	}
}

const (
	lUndef int8 = 0
	lTrue  int8 = 1
	lFalse int8 = -1

	// protectedLBD clauses are never deleted by reduce (spec.md §9's
	// "protected-forever" mechanism, distinct from frozenLBD below).
	protectedLBD = 2
	// frozenLBD bounds the LBD of the surviving learnt clauses that
	// reduceLearnts counts toward its special increment; it exempts no
	// clause from a reduction pass.
	frozenLBD = 30

	varActivityRescaleLimit = 1e100
	varActivityDefaultInc   = 1.0

	restartLBDQueueLen   = 50
	restartTrailQueueLen = 5000
	restartK             = 0.8
	restartR             = 1.4
	restartBlockMinConfl = 10000

	firstReduceBudget = 2000
	reduceBudgetIncr  = 300
)

// Budget bounds a single Solve call: a conflict count and/or wall-clock
// deadline. A zero value means "unlimited".
type Budget struct {
	MaxConflicts int64
	Deadline     time.Time
}

func (b Budget) exceeded(conflicts int64) bool {
	if b.MaxConflicts > 0 && conflicts >= b.MaxConflicts {
		return true
	}
	if !b.Deadline.IsZero() && time.Now().After(b.Deadline) {
		return true
	}
	return false
}

// Solver is a CDCL solver with watched-literal propagation, 1-UIP conflict
// analysis and clause minimization, VSIDS decisions, LBD-based restarts,
// and LBD/activity-based learnt-clause reduction (spec.md §4.5).
type Solver struct {
	nVars int

	assign []int8
	level  []int
	reason []CRef
	seen   []bool

	varActivity []float64
	varIncr     float64
	varDecay    float64
	polarity    []int8

	trail    []lit.Lit
	trailLim []int
	qhead    int

	watches *Watches
	clauses *ClauseMem
	order   *OrderHeap

	clauseRefs []CRef // original (non-learnt) clauses
	learnts    []CRef

	clauseDecay float32

	conflicts    int64
	decisions    int64
	propagations int64
	restarts     int64
	learntCount  int64

	lbdSum   int64
	lbdQueue *RunningQueue

	trailQueue *RunningQueue

	luby             *lubyGen
	restartStopwatch int

	nextReduceAt int64

	simplifiedTrailLen int

	assumptions []lit.Lit

	ok    bool
	model []bool

	lastConflict []lit.Lit

	log *logrus.Entry

	// lbdStamp/lbdStampGen give O(1) "have I seen this decision level
	// already in this LBD computation" checks without per-conflict
	// allocation: a level counts iff its stamp equals the current
	// generation.
	lbdStamp    []int
	lbdStampGen int

	// minStamp/minStampGen serve the same purpose for clause minimization's
	// recursive redundancy check (analyze.go).
	minStamp    []int8 // 0 = unknown this generation, 1 = redundant, -1 = not redundant
	minStampGen []int
	minGen      int
}

// Option configures a Solver at construction time.
type Option func(*Solver)

// WithLogger attaches a structured logger used for verbose per-restart and
// per-reduce statistics (spec.md §6 "verbose"). A nil logger installs a
// discard logger instead of leaving s.log nil, since reduceLearnts and
// maybeRestart log unconditionally.
func WithLogger(l *logrus.Entry) Option {
	if l == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		l = logrus.NewEntry(discard)
	}
	return func(s *Solver) { s.log = l }
}

// New creates an empty Solver.
func New(opts ...Option) *Solver {
	s := &Solver{
		varIncr:      varActivityDefaultInc,
		varDecay:     0.95,
		clauseDecay:  0.999,
		clauses:      NewClauseMem(1024),
		watches:      NewWatches(0),
		lbdQueue:     NewRunningQueue(restartLBDQueueLen),
		trailQueue:   NewRunningQueue(restartTrailQueueLen),
		luby:         newLubyGen(),
		nextReduceAt: firstReduceBudget,
		ok:           true,
		log:          logrus.NewEntry(logrus.StandardLogger()),
	}
	s.order = NewOrderHeap(s.varActivity)
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewVariable allocates a fresh variable.
func (s *Solver) NewVariable() lit.Var {
	v := lit.Var(s.nVars)
	s.nVars++
	s.growTo(s.nVars)
	s.order.Insert(v)
	return v
}

func (s *Solver) growTo(n int) {
	for len(s.assign) < n {
		s.assign = append(s.assign, lUndef)
		s.level = append(s.level, -1)
		s.reason = append(s.reason, CRefNull)
		s.seen = append(s.seen, false)
		s.varActivity = append(s.varActivity, 0)
		s.polarity = append(s.polarity, lFalse)
		s.lbdStamp = append(s.lbdStamp, -1)
		s.minStamp = append(s.minStamp, 0)
		s.minStampGen = append(s.minStampGen, -1)
	}
	s.order.activity = s.varActivity
	s.order.Grow(n)
	s.watches.Grow(2 * n)
}

func (s *Solver) currentLevel() int { return len(s.trailLim) }

func (s *Solver) valueLit(m lit.Lit) int8 {
	a := s.assign[m.Var()]
	if a == lUndef {
		return lUndef
	}
	if m.IsPos() {
		return a
	}
	return -a
}

func (s *Solver) enqueue(m lit.Lit, reason CRef) {
	v := m.Var()
	if m.IsPos() {
		s.assign[v] = lTrue
	} else {
		s.assign[v] = lFalse
	}
	s.level[v] = s.currentLevel()
	s.reason[v] = reason
	s.trail = append(s.trail, m)
}

func (s *Solver) newDecisionLevel() { s.trailLim = append(s.trailLim, len(s.trail)) }

func (s *Solver) cancelUntil(target int) {
	if s.currentLevel() <= target {
		return
	}
	for c := len(s.trail) - 1; c >= s.trailLim[target]; c-- {
		v := s.trail[c].Var()
		if s.trail[c].IsPos() {
			s.polarity[v] = lTrue
		} else {
			s.polarity[v] = lFalse
		}
		s.assign[v] = lUndef
		s.reason[v] = CRefNull
		if !s.order.Contains(v) {
			s.order.Insert(v)
		}
	}
	s.trail = s.trail[:s.trailLim[target]]
	s.trailLim = s.trailLim[:target]
	s.qhead = len(s.trail)
}

// AddClause adds a clause after tautology elimination and duplicate-literal
// removal (spec.md §4.5). Returns false iff the solver is (or becomes)
// permanently UNSAT.
func (s *Solver) AddClause(lits []lit.Lit) bool {
	if !s.ok {
		return false
	}
	ls := append([]lit.Lit(nil), lits...)
	sort.Slice(ls, func(i, j int) bool { return ls[i] < ls[j] })
	j := 0
	for i := range ls {
		if j > 0 && ls[i] == ls[j-1] {
			continue
		}
		ls[j] = ls[i]
		j++
	}
	ls = ls[:j]
	for i := 1; i < len(ls); i++ {
		if ls[i].Var() == ls[i-1].Var() {
			return true // tautology: x ∨ ¬x ∨ ... is trivially satisfiable
		}
	}

	if s.currentLevel() == 0 {
		filtered := ls[:0]
		for _, m := range ls {
			switch s.valueLit(m) {
			case lTrue:
				return true // clause already satisfied at level 0
			case lFalse:
				continue // literal already false at level 0: drop it
			default:
				filtered = append(filtered, m)
			}
		}
		ls = filtered
	}

	switch len(ls) {
	case 0:
		s.ok = false
		return false
	case 1:
		v := s.valueLit(ls[0])
		if v == lFalse {
			s.ok = false
			return false
		}
		if v == lUndef {
			s.enqueue(ls[0], CRefNull)
			if confl := s.propagate(); confl != CRefNull {
				s.ok = false
				return false
			}
		}
		return true
	default:
		ref := s.clauses.Alloc(ls, false)
		s.clauseRefs = append(s.clauseRefs, ref)
		s.attachClause(ref, ls)
		return true
	}
}

func (s *Solver) attachClause(ref CRef, lits []lit.Lit) {
	binary := len(lits) == 2
	s.watches.Push(lits[0].Not(), Watch{Ref: ref, Blocker: lits[1], Binary: binary})
	s.watches.Push(lits[1].Not(), Watch{Ref: ref, Blocker: lits[0], Binary: binary})
}

func (s *Solver) detachClause(ref CRef) {
	lits := s.clauses.Get(ref)
	s.watches.Remove(lits[0].Not(), ref)
	s.watches.Remove(lits[1].Not(), ref)
}

// Assume records a literal to be assumed true for the next Solve call
// (spec.md §4.8's incremental SAT use by the FRAIG engine).
func (s *Solver) Assume(lits ...lit.Lit) { s.assumptions = append(s.assumptions, lits...) }

// propagate dequeues literals from the propagation queue and scans their
// watcher lists, following the standard two-watched-literal scheme
// (spec.md §4.5 step 1). Returns CRefNull if propagation reaches fixpoint
// without conflict, or the conflicting clause handle.
func (s *Solver) propagate() CRef {
	confl := CRefNull
	for s.qhead < len(s.trail) {
		p := s.trail[s.qhead]
		s.qhead++
		s.propagations++
		ws := s.watches.List(p)
		i, j := 0, 0
		n := len(ws)
	scan:
		for i < n {
			w := ws[i]
			if s.valueLit(w.Blocker) == lTrue {
				ws[j] = w
				i++
				j++
				continue
			}
			ref := w.Ref
			if w.Binary {
				// Binary clauses have no third literal to search for a
				// replacement watch: the blocker already false means the
				// other literal must become true or the clause conflicts.
				ws[j] = w
				i++
				j++
				if s.valueLit(w.Blocker) == lFalse {
					confl = ref
					s.qhead = len(s.trail)
					for ; i < n; i++ {
						ws[j] = ws[i]
						j++
					}
					break scan
				}
				s.enqueue(w.Blocker, ref)
				continue
			}
			cl := s.clauses.Get(ref)
			falseLit := p.Not()
			if cl[0] == falseLit {
				cl[0], cl[1] = cl[1], cl[0]
			}
			first := cl[0]
			newWatch := Watch{Ref: ref, Blocker: first, Binary: w.Binary}
			if first != w.Blocker && s.valueLit(first) == lTrue {
				ws[j] = newWatch
				i++
				j++
				continue
			}
			for k := 2; k < len(cl); k++ {
				if s.valueLit(cl[k]) != lFalse {
					cl[1], cl[k] = cl[k], cl[1]
					s.clauses.SetLits(ref, cl)
					s.watches.Push(cl[1].Not(), Watch{Ref: ref, Blocker: first, Binary: w.Binary})
					i++
					continue scan
				}
			}
			// no replacement watch found
			ws[j] = newWatch
			j++
			i++
			if s.valueLit(first) == lFalse {
				confl = ref
				s.qhead = len(s.trail)
				for ; i < n; i++ {
					ws[j] = ws[i]
					j++
				}
				break scan
			}
			s.enqueue(first, ref)
		}
		s.watches.SetList(p, ws[:j])
		if confl != CRefNull {
			break
		}
	}
	return confl
}

// Solve runs the main CDCL search loop until a verdict or budget exhaustion
// (spec.md §4.5). Accumulated assumptions from Assume are consumed first.
func (s *Solver) Solve(ctx context.Context, budget Budget) Result {
	if !s.ok {
		return Unsat
	}
	s.cancelUntil(0)
	assumeLevel := 0
	for _, a := range s.assumptions {
		switch s.valueLit(a) {
		case lFalse:
			s.assumptions = s.assumptions[:0]
			return Unsat
		case lUndef:
			s.newDecisionLevel()
			s.enqueue(a, CRefDecision)
			assumeLevel++
			if confl := s.propagate(); confl != CRefNull {
				s.assumptions = s.assumptions[:0]
				s.lastConflict = append([]lit.Lit(nil), s.clauses.Get(confl)...)
				return Unsat
			}
		}
	}
	s.assumptions = s.assumptions[:0]

	// budget.MaxConflicts bounds conflicts made during *this* call, not the
	// solver's lifetime total: callers that reuse one Solver across many
	// incremental Solve calls (the FRAIG engine, the prove driver) each
	// hand it a fresh per-call budget, which would be meaningless against
	// a counter that only ever grows.
	startConflicts := s.conflicts

	for {
		if ctx.Err() != nil || budget.exceeded(s.conflicts-startConflicts) {
			return Undetermined
		}

		confl := s.propagate()
		if confl != CRefNull {
			if s.currentLevel() <= assumeLevel {
				s.lastConflict = append([]lit.Lit(nil), s.clauses.Get(confl)...)
				return Unsat
			}
			s.conflicts++
			learnt, backtrackLevel, lbd := s.analyze(confl)
			if backtrackLevel < assumeLevel {
				backtrackLevel = assumeLevel
			}
			s.cancelUntil(backtrackLevel)
			s.lastConflict = learnt
			if len(learnt) == 1 {
				s.enqueue(learnt[0], CRefNull)
			} else {
				ref := s.clauses.Alloc(learnt, true)
				s.clauses.SetLBD(ref, lbd)
				s.attachClause(ref, learnt)
				s.learnts = append(s.learnts, ref)
				s.learntCount++
				s.enqueue(learnt[0], ref)
			}
			s.lbdSum += int64(lbd)
			s.lbdQueue.Push(uint64(lbd))
			s.trailQueue.Push(uint64(len(s.trail)))
			s.decayVarActivity()
			s.clauses.Decay(s.clauseDecay)
			s.restartStopwatch--
			continue
		}

		if s.maybeRestart() {
			continue
		}

		if s.conflicts >= s.nextReduceAt {
			s.reduceLearnts()
		}

		if s.currentLevel() == 0 && len(s.trail) > s.simplifiedTrailLen {
			if !s.Simplify() {
				return Unsat
			}
		}

		v, ok := s.pickBranchVar()
		if !ok {
			s.extractModel()
			return Sat
		}
		s.decisions++
		s.newDecisionLevel()
		m := v.Pos()
		if s.polarity[v] == lFalse {
			m = v.Neg()
		}
		s.enqueue(m, CRefDecision)
	}
}

func (s *Solver) maybeRestart() bool {
	if s.restartStopwatch > 0 {
		return false
	}
	if !s.lbdQueue.IsFull() {
		s.restartStopwatch = s.luby.next() * 32
		return false
	}
	globalAvg := 0.0
	if s.conflicts > 0 {
		globalAvg = float64(s.lbdSum) / float64(s.conflicts)
	}
	if s.lbdQueue.Average()*restartK <= globalAvg {
		s.restartStopwatch = s.luby.next() * 32
		return false
	}
	if s.conflicts > restartBlockMinConfl && float64(len(s.trail)) > restartR*s.trailQueue.Average() {
		// blocked: trail is unusually long, let search continue
		s.restartStopwatch = s.luby.next() * 32
		return false
	}
	s.restarts++
	s.cancelUntil(0)
	s.lbdQueue.Clear()
	s.restartStopwatch = s.luby.next() * 32
	s.log.WithFields(logrus.Fields{"restarts": s.restarts, "conflicts": s.conflicts}).Debug("sat: restart")
	return true
}

func (s *Solver) pickBranchVar() (lit.Var, bool) {
	for {
		v, ok := s.order.PopMax()
		if !ok {
			return 0, false
		}
		if s.assign[v] == lUndef {
			return v, true
		}
	}
}

func (s *Solver) extractModel() {
	s.model = make([]bool, s.nVars)
	for v := 0; v < s.nVars; v++ {
		s.model[v] = s.assign[v] == lTrue
	}
}

// Model returns v's value in the most recent satisfying assignment.
func (s *Solver) Model(v lit.Var) bool { return s.model[v] }

// Value reports m's truth value in the most recent satisfying assignment.
func (s *Solver) Value(m lit.Lit) bool {
	val := s.model[m.Var()]
	if !m.IsPos() {
		val = !val
	}
	return val
}

// ConflictClause returns the clause responsible for the most recent Unsat
// verdict (spec.md §4.5 accessors).
func (s *Solver) ConflictClause() []lit.Lit { return s.lastConflict }

// NVars returns the number of variables allocated so far.
func (s *Solver) NVars() int { return s.nVars }

// Stats reports cumulative solver activity, for callers (the prove driver,
// in particular) that track global budgets across many Solve calls and for
// the verbose per-iteration line spec.md §6 asks for.
type Stats struct {
	Conflicts    int64
	Decisions    int64
	Propagations int64
	Restarts     int64
	Learnts      int64
}

// Stats returns the solver's cumulative counters.
func (s *Solver) Stats() Stats {
	return Stats{
		Conflicts:    s.conflicts,
		Decisions:    s.decisions,
		Propagations: s.propagations,
		Restarts:     s.restarts,
		Learnts:      s.learntCount,
	}
}

// Simplify propagates at level 0, drops satisfied original clauses, and
// rebuilds the variable heap over the remaining unassigned variables
// (spec.md §4.5 step 6). Must only be called at decision level 0.
func (s *Solver) Simplify() bool {
	if s.currentLevel() != 0 {
		panic("satsolver: Simplify called above decision level 0")
	}
	if confl := s.propagate(); confl != CRefNull {
		s.ok = false
		return false
	}
	live := s.clauseRefs[:0]
	for _, ref := range s.clauseRefs {
		if s.clauses.Deleted(ref) {
			continue
		}
		if s.clauseSatisfiedAtRoot(ref) {
			s.detachClause(ref)
			s.clauses.Free(ref)
			continue
		}
		live = append(live, ref)
	}
	s.clauseRefs = live

	active := make([]lit.Var, 0, s.nVars)
	for v := 0; v < s.nVars; v++ {
		if s.assign[v] == lUndef {
			active = append(active, lit.Var(v))
		}
	}
	s.order.Rebuild(active)
	s.simplifiedTrailLen = len(s.trail)
	return true
}

func (s *Solver) clauseSatisfiedAtRoot(ref CRef) bool {
	for _, m := range s.clauses.Get(ref) {
		if s.valueLit(m) == lTrue {
			return true
		}
	}
	return false
}

func (s *Solver) decayVarActivity() { s.varIncr /= s.varDecay }

func (s *Solver) bumpVarActivity(v lit.Var) {
	s.varActivity[v] += s.varIncr
	if s.varActivity[v] > varActivityRescaleLimit {
		for i := range s.varActivity {
			s.varActivity[i] *= 1e-100
		}
		s.varIncr *= 1e-100
	}
	s.order.IncreasePriority(v)
}

// reduceLearnts implements spec.md §4.5 step 5: sort learnt clauses by
// (binary first, then ascending LBD, then descending activity), delete the
// worst half, skipping protected (LBD<=2), in-use, and binary clauses, then
// compact the clause memory.
func (s *Solver) reduceLearnts() {
	locked := make(map[CRef]bool, len(s.trail))
	for _, m := range s.trail {
		if r := s.reason[m.Var()]; r != CRefNull && r != CRefDecision {
			locked[r] = true
		}
	}

	learnts := append([]CRef(nil), s.learnts...)
	sort.Slice(learnts, func(i, j int) bool {
		a, b := learnts[i], learnts[j]
		aBin, bBin := s.clauses.Size(a) == 2, s.clauses.Size(b) == 2
		if aBin != bBin {
			return aBin
		}
		aLbd, bLbd := s.clauses.LBD(a), s.clauses.LBD(b)
		if aLbd != bLbd {
			return aLbd < bLbd
		}
		return s.clauses.Activity(a) > s.clauses.Activity(b)
	})

	limit := len(learnts) / 2
	removed := 0
	survivorsSmallLBD := 0
	kept := make([]CRef, 0, len(learnts))
	for i, ref := range learnts {
		if i < len(learnts)-limit {
			kept = append(kept, ref) // better half of the best-first order
			continue
		}
		if s.clauses.Protected(ref) || locked[ref] || s.clauses.Size(ref) == 2 {
			kept = append(kept, ref)
			continue
		}
		s.detachClause(ref)
		s.clauses.Free(ref)
		removed++
	}
	for _, ref := range kept {
		if s.clauses.LBD(ref) <= frozenLBD {
			survivorsSmallLBD++
		}
	}
	s.learnts = kept

	// "special increment" (spec.md §4.5 step 5, §9): if the surviving
	// learnt database is still mostly low-LBD, grow the increment so the
	// next reduction comes later.
	increment := int64(reduceBudgetIncr)
	if len(kept) > 0 && survivorsSmallLBD*2 > len(kept) {
		increment += reduceBudgetIncr / 2
	}
	s.nextReduceAt = s.conflicts + firstReduceBudget + increment*int64(len(s.learnts))/1000

	s.log.WithFields(logrus.Fields{"removed": removed, "kept": len(kept)}).Debug("sat: reduced learnt clauses")

	if s.clauses.CompactReady() {
		s.compactClauses()
	}
}

func (s *Solver) compactClauses() {
	live := make([]CRef, 0, len(s.clauseRefs)+len(s.learnts))
	live = append(live, s.clauseRefs...)
	live = append(live, s.learnts...)
	remap := s.clauses.Compact(live)

	for i, ref := range s.clauseRefs {
		s.clauseRefs[i] = remap[ref]
	}
	for i, ref := range s.learnts {
		s.learnts[i] = remap[ref]
	}
	for v := range s.reason {
		if r := s.reason[v]; r != CRefNull && r != CRefDecision {
			if nr, ok := remap[r]; ok {
				s.reason[v] = nr
			}
		}
	}
	for l := 0; l < len(s.watches.lists); l++ {
		ws := s.watches.lists[l]
		for i := range ws {
			if nr, ok := remap[ws[i].Ref]; ok {
				ws[i].Ref = nr
			}
		}
	}
}
