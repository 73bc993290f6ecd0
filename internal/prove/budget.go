package prove

import "github.com/aig-verify/combeq/internal/satsolver"

// globalBudget tracks conflicts spent across every SAT invocation a Prove
// call makes, directly or via a nested fraig.Engine, against
// Config.TotalBacktrackLimit (spec.md §6's run-wide cap, distinct from any
// single call's own per-call limit). A zero limit means unlimited, the
// same convention satsolver.Budget uses.
type globalBudget struct {
	limit int64
	used  int64
}

func newGlobalBudget(cfg Config) *globalBudget {
	return &globalBudget{limit: cfg.TotalBacktrackLimit}
}

// cap shrinks a requested per-call budget to whatever remains of the
// global limit, leaving it untouched when unlimited or when more than the
// request remains.
func (g *globalBudget) cap(requested int64) int64 {
	if g.limit <= 0 {
		return requested
	}
	remaining := g.limit - g.used
	if remaining <= 0 {
		return 0
	}
	if requested <= 0 || requested > remaining {
		return remaining
	}
	return requested
}

// absorb folds one solver's cumulative conflict count into the running
// total. Every caller hands absorb the Stats of a solver it just created
// (runSat's own solver, or a fraig.Engine's internal solver scoped to one
// Run call), so that count is already exactly the conflicts spent since
// the last absorb and can be added directly.
func (g *globalBudget) absorb(s satsolver.Stats) {
	g.used += s.Conflicts
}

func (g *globalBudget) exhausted() bool {
	return g.limit > 0 && g.used >= g.limit
}

func (g *globalBudget) stats() satsolver.Stats {
	return satsolver.Stats{Conflicts: g.used}
}
