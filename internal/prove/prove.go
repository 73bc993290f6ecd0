// Package prove implements the iterative prove driver (C11): a cheap SAT
// probe, escalating rounds of rewrite/FRAIG/SAT with growing per-call
// budgets, a last-gasp SAT call with a large final budget, and a global
// cumulative backtrack (conflict) cap: every direct SAT call is capped by
// what remains of it, and a FRAIG pass's BTLimit is capped by the
// remainder before the pass starts, the engine's conflicts being counted
// once the pass returns. Config.TotalInspectLimit is not read; no cap on
// propagations is enforced. Grounded on original_source/abc/src/base/abci/abcProve.c's
// escalating-budget loop and its final last-gasp call.
package prove

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/aig-verify/combeq/internal/aig"
	"github.com/aig-verify/combeq/internal/cnf"
	"github.com/aig-verify/combeq/internal/fraig"
	"github.com/aig-verify/combeq/internal/lit"
	"github.com/aig-verify/combeq/internal/rewrite"
	"github.com/aig-verify/combeq/internal/satsolver"
	"github.com/aig-verify/combeq/internal/sim"
)

// Config mirrors spec.md §6's Prove Driver configuration surface.
type Config struct {
	UseRewriting bool
	UseFraiging  bool
	ItersMax     int

	MiteringLimitStart int64
	MiteringLimitMulti float64

	RewritingLimitStart int
	RewritingLimitMulti float64

	FraigingLimitStart int64
	FraigingLimitMulti float64

	MiteringLimitLast int64

	TotalBacktrackLimit int64
	TotalInspectLimit   int64

	Verbose bool

	// FRAIG-specific options, spec.md §6.
	NPatsRandom int
	NPatsDyna   int
	DoSparse    bool
	Choicing    bool

	Log *logrus.Entry
}

func (c Config) withDefaults() Config {
	if c.ItersMax <= 0 {
		c.ItersMax = 6
	}
	if c.MiteringLimitStart <= 0 {
		c.MiteringLimitStart = 100
	}
	if c.MiteringLimitMulti <= 1 {
		c.MiteringLimitMulti = 2.0
	}
	if c.RewritingLimitStart <= 0 {
		c.RewritingLimitStart = 1
	}
	if c.RewritingLimitMulti <= 1 {
		c.RewritingLimitMulti = 1.5
	}
	if c.FraigingLimitStart <= 0 {
		c.FraigingLimitStart = 500
	}
	if c.FraigingLimitMulti <= 1 {
		c.FraigingLimitMulti = 2.0
	}
	if c.MiteringLimitLast <= 0 {
		c.MiteringLimitLast = 1_000_000
	}
	if c.NPatsRandom <= 0 {
		c.NPatsRandom = 32
	}
	if c.Log == nil {
		c.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	return c
}

// Verdict is the outcome of a Prove call.
type Verdict int8

const (
	Undetermined Verdict = iota
	Equivalent
	Differs
)

func (v Verdict) String() string {
	switch v {
	case Equivalent:
		return "equivalent"
	case Differs:
		return "differs"
	default:
		return "undetermined"
	}
}

// Result reports a Prove call's verdict and, on Differs, the
// counterexample PI assignment lifted back to the miter's own inputs.
type Result struct {
	Verdict        Verdict
	Counterexample []bool
	Iterations     int
	Stats          satsolver.Stats
}

// Prove implements spec.md §4.11's state machine over the miter rooted at
// miterOutput: a cheap probe, then escalating rewrite/FRAIG/SAT rounds up
// to cfg.ItersMax, then one last-gasp SAT call with a large budget.
func Prove(ctx context.Context, store *aig.Store, miterOutput lit.Edge, cfg Config) (Result, error) {
	cfg = cfg.withDefaults()
	roots := []lit.Edge{miterOutput}
	gb := newGlobalBudget(cfg)

	verdict, model, err := runSat(ctx, store, miterOutput, cfg.MiteringLimitStart, gb)
	if err != nil {
		return Result{}, err
	}
	if r, done, err := finish(store, miterOutput, verdict, model, gb, 0); done {
		return r, err
	}

	for k := 0; k < cfg.ItersMax; k++ {
		if gb.exhausted() {
			break
		}

		if cfg.UseRewriting {
			sweeps := scaleInt(cfg.RewritingLimitStart, cfg.RewritingLimitMulti, k)
			rcfg := rewrite.Config{Log: cfg.Log}
			for i := 0; i < sweeps; i++ {
				rewrite.Balance(store, roots, rcfg)
				rewrite.Rewrite(store, roots, rcfg)
				rewrite.Refactor(store, roots, rcfg)
			}
		}

		if cfg.UseFraiging {
			btLimit := gb.cap(scaleInt64(cfg.FraigingLimitStart, cfg.FraigingLimitMulti, k))
			eng := fraig.NewEngine(store)
			_, ferr := eng.Run(ctx, roots, fraig.Config{
				NPatsRandom: cfg.NPatsRandom,
				NPatsDyna:   cfg.NPatsDyna,
				BTLimit:     btLimit,
				DoSparse:    cfg.DoSparse,
				Choicing:    cfg.Choicing,
				Log:         cfg.Log,
			})
			gb.absorb(eng.SolverStats())
			if ferr != nil {
				return Result{}, errors.Wrap(ferr, "prove: fraig phase")
			}
		}

		satBudget := gb.cap(scaleInt64(cfg.MiteringLimitStart, cfg.MiteringLimitMulti, k))
		verdict, model, err := runSat(ctx, store, miterOutput, satBudget, gb)
		if err != nil {
			return Result{}, err
		}
		if r, done, err := finish(store, miterOutput, verdict, model, gb, k+1); done {
			return r, err
		}

		if cfg.Verbose {
			cfg.Log.WithFields(logrus.Fields{"iter": k, "budget": satBudget, "conflicts": gb.used, "nodes": store.NumNodes()}).Info("prove: iteration done, still undetermined")
		}
	}

	if gb.exhausted() {
		return Result{Verdict: Undetermined, Iterations: cfg.ItersMax, Stats: gb.stats()}, nil
	}

	lastBudget := gb.cap(cfg.MiteringLimitLast)
	verdict, model, err := runSat(ctx, store, miterOutput, lastBudget, gb)
	if err != nil {
		return Result{}, err
	}
	r, _, err := finish(store, miterOutput, verdict, model, gb, cfg.ItersMax)
	return r, err
}

// finish interprets one SAT phase's verdict, lifting and self-verifying a
// counterexample on Sat. done is false only when the verdict is
// Undetermined and the caller should keep iterating.
func finish(store *aig.Store, miterOutput lit.Edge, verdict satsolver.Result, model []bool, gb *globalBudget, iter int) (Result, bool, error) {
	switch verdict {
	case satsolver.Unsat:
		return Result{Verdict: Equivalent, Iterations: iter, Stats: gb.stats()}, true, nil
	case satsolver.Sat:
		if err := verifyCounterexample(store, miterOutput, model); err != nil {
			return Result{}, true, err
		}
		return Result{Verdict: Differs, Counterexample: model, Iterations: iter, Stats: gb.stats()}, true, nil
	default:
		return Result{}, false, nil
	}
}

// runSat builds a fresh CNF encoding of miterOutput over a new solver
// (spec.md §5's "AIG is mutated only between FRAIG/Rewriter calls, never
// during a SAT call") and asserts it true, the miter semantics being "true
// iff the two networks differ". The PI-indexed model is returned on Sat,
// nil otherwise.
func runSat(ctx context.Context, store *aig.Store, miterOutput lit.Edge, budgetConflicts int64, gb *globalBudget) (satsolver.Result, []bool, error) {
	if gb.exhausted() {
		return satsolver.Undetermined, nil, nil
	}
	budgetConflicts = gb.cap(budgetConflicts)

	solver := satsolver.New(satsolver.WithLogger(nil))
	builder := cnf.NewBuilder(store, solver)
	outLit := builder.LitOf(miterOutput)
	if !solver.AddClause([]lit.Lit{outLit}) {
		gb.absorb(solver.Stats())
		return satsolver.Unsat, nil, nil
	}

	res := solver.Solve(ctx, satsolver.Budget{MaxConflicts: budgetConflicts})
	gb.absorb(solver.Stats())

	if res != satsolver.Sat {
		return res, nil, nil
	}

	inputs := store.Inputs()
	model := make([]bool, len(inputs))
	for i, id := range inputs {
		l := builder.LitOf(lit.MakeEdge(id, false))
		model[i] = solver.Value(l)
	}
	return res, model, nil
}

// verifyCounterexample simulates model through store and checks that
// miterOutput evaluates true, per spec.md §4.11/§7's self-verification
// requirement.
func verifyCounterexample(store *aig.Store, miterOutput lit.Edge, model []bool) error {
	v := sim.New(store)
	v.AppendPattern(model)
	out := v.Vector(miterOutput.Node())[0]
	if miterOutput.Inverted() {
		out = ^out
	}
	if out != ^uint32(0) {
		return errors.New("prove: counterexample failed self-verification")
	}
	return nil
}

func scaleInt64(start int64, multi float64, iter int) int64 {
	return int64(math.Round(float64(start) * math.Pow(multi, float64(iter))))
}

func scaleInt(start int, multi float64, iter int) int {
	return int(math.Round(float64(start) * math.Pow(multi, float64(iter))))
}
