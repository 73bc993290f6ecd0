// Package fraig implements the functionally-reduced AIG engine (C8):
// random simulation, fingerprint bucketing, incremental-SAT confirmation
// or refutation of candidate equivalences, counterexample-driven
// re-simulation, and a final substitution pass. Grounded on
// original_source/abc/src/base/abci/abcFraig.c's bucket-by-signature,
// SAT-confirm/refute loop and on its choicing variant for
// Config.Choicing.
package fraig

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/aig-verify/combeq/internal/aig"
	"github.com/aig-verify/combeq/internal/cnf"
	"github.com/aig-verify/combeq/internal/lit"
	"github.com/aig-verify/combeq/internal/satsolver"
	"github.com/aig-verify/combeq/internal/sim"
)

// Config mirrors spec.md §6's FRAIG-specific option table.
type Config struct {
	NPatsRandom int  // random simulation words at session start (default 32)
	NPatsDyna   int  // length of the counterexample history kept in dynaPatterns, 0 = none; simulation vectors are not trimmed
	BTLimit     int64 // per-candidate conflict budget
	DoSparse    bool  // also test singleton-bucket nodes against the constants
	Choicing    bool  // preserve equivalence chains instead of discarding
	Log         *logrus.Entry
}

func (c Config) withDefaults() Config {
	if c.NPatsRandom <= 0 {
		c.NPatsRandom = 32
	}
	if c.BTLimit <= 0 {
		c.BTLimit = 5000
	}
	if c.Log == nil {
		c.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	return c
}

// Result reports what a Run pass accomplished.
type Result struct {
	Merges  int
	Failed  int // pairs left unresolved by a per-candidate budget exhaustion
}

// Engine owns one FRAIG session's simulation vectors and incremental SAT
// state, scoped to a single Run call's transitive fan-in (spec.md §4.8's
// "concurrency model: single-threaded... shared incremental SAT state is
// monotonically extended within one FRAIG session").
type Engine struct {
	store   *aig.Store
	vecs    *sim.Vectors
	solver  *satsolver.Solver
	builder *cnf.Builder

	dynaPatterns [][]bool
}

// SolverStats reports the cumulative activity of the engine's internal
// incremental solver, for callers (the prove driver) that track a global
// conflict budget across every SAT invocation a Run performs internally.
func (e *Engine) SolverStats() satsolver.Stats { return e.solver.Stats() }

// NewEngine creates a fresh session over store.
func NewEngine(store *aig.Store) *Engine {
	solver := satsolver.New()
	return &Engine{
		store:   store,
		vecs:    sim.New(store),
		solver:  solver,
		builder: cnf.NewBuilder(store, solver),
	}
}

// Run executes spec.md §4.8 steps 1-4 over the cone reachable from roots,
// substituting every non-representative node in a class with its
// representative and returning the count of merges performed.
func (e *Engine) Run(ctx context.Context, roots []lit.Edge, cfg Config) (Result, error) {
	cfg = cfg.withDefaults()
	e.vecs.SetRandomPatterns(cfg.NPatsRandom)

	order := e.store.DFSTopological(roots)
	result := Result{}

	for {
		buckets := e.bucket(order)
		progressed := false

		for _, class := range buckets {
			if len(class) < 2 {
				// A singleton bucket is a node whose function looked unique
				// under simulation. do_sparse asks those to be tested
				// against the constants too, on the chance simulation
				// missed that the node is actually a stuck-at function;
				// skipping that is the default, cheaper behavior (spec.md
				// §4.8's sparsity policy).
				if cfg.DoSparse && len(class) == 1 {
					if ctx.Err() != nil {
						return result, ctx.Err()
					}
					outcome, constEdge, err := e.trySparseConst(ctx, class[0], cfg)
					if err != nil {
						return result, err
					}
					switch outcome {
					case outcomeEquivalent:
						e.store.Substitute(class[0], constEdge)
						result.Merges++
						progressed = true
					case outcomeDistinguished:
						progressed = true
					case outcomeUndetermined:
						result.Failed++
					}
				}
				continue
			}
			sort.Slice(class, func(i, j int) bool {
				return e.store.Node(class[i]).Level < e.store.Node(class[j]).Level
			})
			rep := class[0]

			for _, n := range class[1:] {
				if ctx.Err() != nil {
					return result, ctx.Err()
				}
				outcome, err := e.resolvePair(ctx, rep, n, cfg)
				if err != nil {
					return result, err
				}
				switch outcome {
				case outcomeEquivalent:
					e.mergeNode(n, rep, cfg.Choicing)
					result.Merges++
					progressed = true
				case outcomeDistinguished:
					progressed = true // a new pattern was learned; re-bucket
				case outcomeUndetermined:
					result.Failed++
				}
			}
		}

		if !progressed {
			break
		}
		order = e.store.DFSTopological(roots)
	}

	return result, nil
}

type pairOutcome int

const (
	outcomeUndetermined pairOutcome = iota
	outcomeEquivalent
	outcomeDistinguished
)

// resolvePair builds the miter CNF for n XOR rep over their shared
// transitive fan-in and dispatches it to the incremental solver
// (spec.md §4.8 step 3).
func (e *Engine) resolvePair(ctx context.Context, rep, n lit.NodeID, cfg Config) (pairOutcome, error) {
	repEdge := lit.MakeEdge(rep, false)
	nEdge := lit.MakeEdge(n, e.phaseMismatch(n, rep))

	repLit := e.builder.LitOf(repEdge)
	nLit := e.builder.LitOf(nEdge)

	xorVar := e.encodeXor(repLit, nLit)
	e.solver.Assume(xorVar)

	budget := satsolver.Budget{MaxConflicts: cfg.BTLimit}
	res := e.solver.Solve(ctx, budget)

	switch res {
	case satsolver.Unsat:
		return outcomeEquivalent, nil
	case satsolver.Sat:
		e.recordCounterexample(cfg)
		return outcomeDistinguished, nil
	default:
		return outcomeUndetermined, nil
	}
}

// trySparseConst tests a singleton-bucket node n against both constants by
// asking the solver whether n can ever be true and whether it can ever be
// false. If exactly one is impossible, n is a stuck-at function and the
// constant edge it equals is returned.
func (e *Engine) trySparseConst(ctx context.Context, n lit.NodeID, cfg Config) (pairOutcome, lit.Edge, error) {
	nLit := e.builder.LitOf(lit.MakeEdge(n, false))
	budget := satsolver.Budget{MaxConflicts: cfg.BTLimit}

	e.solver.Assume(nLit)
	switch e.solver.Solve(ctx, budget) {
	case satsolver.Unsat:
		return outcomeEquivalent, lit.ConstFalseEdge, nil
	case satsolver.Sat:
		e.recordCounterexample(cfg)
	default:
		return outcomeUndetermined, lit.Edge(0), nil
	}

	e.solver.Assume(nLit.Not())
	switch e.solver.Solve(ctx, budget) {
	case satsolver.Unsat:
		return outcomeEquivalent, lit.ConstTrueEdge, nil
	case satsolver.Sat:
		e.recordCounterexample(cfg)
		return outcomeDistinguished, lit.Edge(0), nil
	default:
		return outcomeUndetermined, lit.Edge(0), nil
	}
}

// encodeXor returns a fresh literal equal to a XOR b, via two implications
// each way (the standard 4-clause XOR Tseitin encoding).
func (e *Engine) encodeXor(a, b lit.Lit) lit.Lit {
	v := e.solver.NewVariable()
	m := v.Pos()
	e.solver.AddClause([]lit.Lit{m.Not(), a, b})
	e.solver.AddClause([]lit.Lit{m.Not(), a.Not(), b.Not()})
	e.solver.AddClause([]lit.Lit{m, a.Not(), b})
	e.solver.AddClause([]lit.Lit{m, a, b.Not()})
	return m
}

// recordCounterexample extracts the current model's PI assignment and
// appends it as a new simulation pattern (spec.md §4.8's
// counterexample-pattern tracking). Every counterexample adds one word to
// the simulation vectors; no word is ever dropped from them. When
// NPatsDyna > 0 the assignment is also kept in dynaPatterns, which holds
// only the latest NPatsDyna entries and is not read anywhere else.
func (e *Engine) recordCounterexample(cfg Config) {
	inputs := e.store.Inputs()
	piVals := make([]bool, 0, len(inputs))
	for _, id := range inputs {
		edge := lit.MakeEdge(id, false)
		l := e.builder.LitOf(edge)
		piVals = append(piVals, e.solver.Value(l))
	}
	e.vecs.AppendPattern(piVals)

	if cfg.NPatsDyna > 0 {
		e.dynaPatterns = append(e.dynaPatterns, piVals)
		if len(e.dynaPatterns) > cfg.NPatsDyna {
			e.dynaPatterns = e.dynaPatterns[len(e.dynaPatterns)-cfg.NPatsDyna:]
		}
	}
}

// bucket groups every node in order by phase-normalized simulation
// fingerprint (spec.md §4.8 step 2).
func (e *Engine) bucket(order []lit.NodeID) map[uint64][]lit.NodeID {
	buckets := make(map[uint64][]lit.NodeID)
	for _, id := range order {
		if e.store.Node(id).Kind != aig.KindAnd {
			continue
		}
		key, _ := e.vecs.Fingerprint(id)
		buckets[key] = append(buckets[key], id)
	}
	return buckets
}

// mergeNode substitutes n with rep (choosing rep's polarity so the edge
// phases line up with the sat/unsat assumption just confirmed), optionally
// preserving n on rep's choice chain (spec.md §3, §6 "choicing").
func (e *Engine) mergeNode(n, rep lit.NodeID, choicing bool) {
	repEdge := lit.MakeEdge(rep, e.phaseMismatch(n, rep))
	e.store.Substitute(n, repEdge)
	if choicing {
		e.linkChoice(rep, n)
	}
}

// phaseMismatch reports whether n's canonical simulation phase differs
// from rep's, meaning the substitution edge must be inverted to preserve
// n's original polarity.
func (e *Engine) phaseMismatch(n, rep lit.NodeID) bool {
	_, nPhase := e.vecs.Fingerprint(n)
	_, repPhase := e.vecs.Fingerprint(rep)
	return nPhase != repPhase
}

func (e *Engine) linkChoice(rep, n lit.NodeID) {
	e.store.LinkChoice(rep, n)
}
