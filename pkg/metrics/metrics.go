// Package metrics declares the prometheus instrumentation surface for a
// prove run: solver activity (conflicts, decisions, restarts, learnt
// clauses), FRAIG merges, and rewrite node-count deltas. Grounded on
// pkg/metrics/metrics.go's package-level gauge/counter declarations
// registered via Register().
package metrics

import "github.com/prometheus/client_golang/prometheus"

// To add new metrics:
// 1. Declare the collector below.
// 2. Register it in Register().
// 3. Update it from the component that owns the underlying count.
var (
	SolverConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "combeq_solver_conflicts_total",
			Help: "Monotonic count of CDCL conflicts across all Solve calls",
		},
	)

	SolverDecisions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "combeq_solver_decisions_total",
			Help: "Monotonic count of CDCL branching decisions",
		},
	)

	SolverRestarts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "combeq_solver_restarts_total",
			Help: "Monotonic count of Luby-scheduled restarts",
		},
	)

	SolverLearnts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "combeq_solver_learnt_clauses",
			Help: "Current count of learnt clauses kept after the last reduce pass",
		},
	)

	FraigMerges = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "combeq_fraig_merges_total",
			Help: "Monotonic count of nodes substituted by a confirmed FRAIG equivalence",
		},
	)

	FraigUnresolvedPairs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "combeq_fraig_unresolved_pairs_total",
			Help: "Monotonic count of candidate pairs left undetermined by a per-pair budget",
		},
	)

	RewriteNodesSaved = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "combeq_rewrite_nodes_saved",
			Help: "AND-node count removed by the most recent balance/rewrite/refactor pass",
		},
	)

	ProveIterations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "combeq_prove_iterations",
			Help: "Iteration count the most recent Prove call consumed before reaching a verdict",
		},
	)
)

// Register adds every collector above to the default prometheus registry.
// Safe to call once per process; a second call panics via MustRegister,
// matching the teacher's own registration contract.
func Register() {
	prometheus.MustRegister(SolverConflicts)
	prometheus.MustRegister(SolverDecisions)
	prometheus.MustRegister(SolverRestarts)
	prometheus.MustRegister(SolverLearnts)
	prometheus.MustRegister(FraigMerges)
	prometheus.MustRegister(FraigUnresolvedPairs)
	prometheus.MustRegister(RewriteNodesSaved)
	prometheus.MustRegister(ProveIterations)
}

// ObserveSolverStats folds a cumulative solver snapshot into the counters
// above. Counters can only increase, so callers must pass the delta since
// their own last observation, not a raw running total.
func ObserveSolverStats(conflictsDelta, decisionsDelta, restartsDelta int64, learntsNow int64) {
	if conflictsDelta > 0 {
		SolverConflicts.Add(float64(conflictsDelta))
	}
	if decisionsDelta > 0 {
		SolverDecisions.Add(float64(decisionsDelta))
	}
	if restartsDelta > 0 {
		SolverRestarts.Add(float64(restartsDelta))
	}
	SolverLearnts.Set(float64(learntsNow))
}
