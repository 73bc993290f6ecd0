package satsolver

import "github.com/aig-verify/combeq/internal/lit"

// analyze performs first-UIP conflict analysis starting from the
// conflicting clause confl, then minimizes the learnt clause via
// self-subsumption (recursive redundancy checking against the implication
// graph; there is no separate binary-resolution minimization pass), and
// computes its LBD (spec.md §4.5 step 3). Grounded on gini's
// internal/xo/derive.go.
//
// Returns the learnt clause (asserting literal first), the backtrack
// level, and the clause's LBD.
func (s *Solver) analyze(confl CRef) ([]lit.Lit, int, int) {
	curLevel := s.currentLevel()
	pending := 0
	p := lit.LitNull
	learnt := []lit.Lit{lit.LitNull} // placeholder for the asserting literal
	idx := len(s.trail) - 1

	for {
		s.clauses.Bump(confl)
		for _, q := range s.clauses.Get(confl) {
			if q == p {
				continue
			}
			v := q.Var()
			if s.seen[v] {
				continue
			}
			if s.level[v] == 0 {
				continue // level-0 literals are unconditionally true negations; never learnt
			}
			s.seen[v] = true
			s.bumpVarActivity(v)
			if s.level[v] >= curLevel {
				pending++
			} else {
				learnt = append(learnt, q)
			}
		}

		for !s.seen[s.trail[idx].Var()] {
			idx--
		}
		p = s.trail[idx]
		pv := p.Var()
		s.seen[pv] = false
		pending--
		idx--
		if pending <= 0 {
			break
		}
		confl = s.reason[pv]
	}
	learnt[0] = p.Not()

	learnt = s.minimizeClause(learnt)

	lbd := s.computeLBD(learnt)

	backtrackLevel := 0
	if len(learnt) > 1 {
		maxIdx := 1
		maxLevel := s.level[learnt[1].Var()]
		for i := 2; i < len(learnt); i++ {
			if lv := s.level[learnt[i].Var()]; lv > maxLevel {
				maxLevel = lv
				maxIdx = i
			}
		}
		learnt[1], learnt[maxIdx] = learnt[maxIdx], learnt[1]
		backtrackLevel = maxLevel
	}

	for _, m := range learnt {
		s.seen[m.Var()] = false
	}

	return learnt, backtrackLevel, lbd
}

// computeLBD counts the number of distinct decision levels represented in
// lits, using a generation-stamped array so no per-call allocation or
// clearing is needed (spec.md §4.3's Literal Blocks Distance).
func (s *Solver) computeLBD(lits []lit.Lit) int {
	s.lbdStampGen++
	gen := s.lbdStampGen
	count := 0
	for _, m := range lits {
		lv := s.level[m.Var()]
		if s.lbdStamp[lv] != gen {
			s.lbdStamp[lv] = gen
			count++
		}
	}
	return count
}

// minimizeClause drops literals from a freshly derived learnt clause that
// are redundant: implied by other literals already in the clause via the
// implication graph (self-subsumption), checked by recursively walking
// reasons (spec.md §4.5 step 3). learnt[0], the asserting literal, is never
// removed.
func (s *Solver) minimizeClause(learnt []lit.Lit) []lit.Lit {
	s.minGen++
	out := learnt[:1]
	for i := 1; i < len(learnt); i++ {
		m := learnt[i]
		if s.reason[m.Var()] == CRefNull || s.reason[m.Var()] == CRefDecision {
			out = append(out, m)
			continue
		}
		if !s.litRedundant(m) {
			out = append(out, m)
		}
	}
	return out
}

// litRedundant reports whether m's assignment is implied purely by other
// literals already marked seen (i.e. already in or subsumed into the
// learnt clause), via a DFS over reason clauses. Memoized per solver-wide
// generation in minStamp/minStampGen to avoid exponential re-walks across
// sibling calls within the same minimizeClause invocation.
func (s *Solver) litRedundant(m lit.Lit) bool {
	gen := s.minGen

	type frame struct {
		lits []lit.Lit
		i    int
	}
	stack := []frame{{lits: s.clauses.Get(s.reason[m.Var()])}}
	path := []lit.Var{m.Var()}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.i >= len(top.lits) {
			stack = stack[:len(stack)-1]
			continue
		}
		q := top.lits[top.i]
		top.i++
		qv := q.Var()
		if s.seen[qv] || s.level[qv] == 0 {
			continue
		}
		if s.minStampGen[qv] == gen && s.minStamp[qv] == 1 {
			continue
		}
		if s.minStampGen[qv] == gen && s.minStamp[qv] == -1 {
			s.unwindMinimize(path, gen)
			return false
		}
		if s.reason[qv] == CRefNull || s.reason[qv] == CRefDecision {
			s.unwindMinimize(path, gen)
			return false
		}
		path = append(path, qv)
		stack = append(stack, frame{lits: s.clauses.Get(s.reason[qv])})
	}

	for _, v := range path {
		s.minStampGen[v] = gen
		s.minStamp[v] = 1
	}
	return true
}

func (s *Solver) unwindMinimize(path []lit.Var, gen int) {
	for _, v := range path {
		s.minStampGen[v] = gen
		s.minStamp[v] = -1
	}
}
