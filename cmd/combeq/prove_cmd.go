package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aig-verify/combeq/internal/prove"
	"github.com/aig-verify/combeq/pkg/logging"
)

func newProveCmd() *cobra.Command {
	var (
		useRewriting bool
		useFraiging  bool
		itersMax     int
		btLimit      int64
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "prove <a.aig> <b.aig>",
		Short: "Check combinational equivalence of two AIGER networks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			storeA, rootsA, err := readAIG(args[0])
			if err != nil {
				return exitWith(exitInternalError, err)
			}
			storeB, rootsB, err := readAIG(args[1])
			if err != nil {
				return exitWith(exitInternalError, err)
			}

			store, miter, err := buildMiter(storeA, rootsA, storeB, rootsB)
			if err != nil {
				return exitWith(exitInternalError, err)
			}

			res, err := prove.Prove(context.Background(), store, miter, prove.Config{
				UseRewriting:        useRewriting,
				UseFraiging:         useFraiging,
				ItersMax:            itersMax,
				TotalBacktrackLimit: btLimit,
				Verbose:             verbose,
				Log:                 logging.New("prove"),
			})
			if err != nil {
				return exitWith(exitInternalError, err)
			}

			switch res.Verdict {
			case prove.Equivalent:
				fmt.Fprintln(cmd.OutOrStdout(), "equivalent")
				return exitWith(exitEquivalent, nil)
			case prove.Differs:
				fmt.Fprintln(cmd.OutOrStdout(), "differs")
				for i, bit := range res.Counterexample {
					fmt.Fprintf(cmd.OutOrStdout(), "pi[%d]=%t\n", i, bit)
				}
				return exitWith(exitDiffers, nil)
			default:
				fmt.Fprintln(cmd.OutOrStdout(), "undetermined")
				return exitWith(exitUndetermined, nil)
			}
		},
	}

	cmd.Flags().BoolVar(&useRewriting, "rewrite", true, "enable the structural rewriter each iteration")
	cmd.Flags().BoolVar(&useFraiging, "fraig", true, "enable the FRAIG engine each iteration")
	cmd.Flags().IntVar(&itersMax, "iters-max", 6, "iteration count before the last-gasp SAT call")
	cmd.Flags().Int64Var(&btLimit, "total-backtrack-limit", 0, "global conflict cap across all SAT work (0 = unlimited)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "emit a per-iteration stats line")

	return cmd
}

// exitStatusErr carries an exit code alongside the underlying error so
// main can translate it without cobra printing its own usage banner for
// verdicts that aren't failures (e.g. "undetermined").
type exitStatusErr struct {
	code int
	err  error
}

func (e *exitStatusErr) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *exitStatusErr) Unwrap() error { return e.err }

func exitWith(code int, err error) error {
	if code == exitEquivalent && err == nil {
		return nil
	}
	return &exitStatusErr{code: code, err: err}
}
