package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/aig-verify/combeq/internal/aiger"
	"github.com/aig-verify/combeq/internal/cnf"
	"github.com/aig-verify/combeq/internal/lit"
	"github.com/aig-verify/combeq/internal/satsolver"
	"github.com/aig-verify/combeq/pkg/logging"
)

func newSatCmd() *cobra.Command {
	var maxConflicts int64

	cmd := &cobra.Command{
		Use:   "sat <in.aig>",
		Short: "Run the CDCL solver standalone over a single AIG cone's output literal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return exitWith(exitInternalError, errors.Wrap(err, "combeq sat: open"))
			}
			defer f.Close()

			store, roots, err := aiger.ReadMiter(f)
			if err != nil {
				return exitWith(exitInternalError, errors.Wrap(err, "combeq sat: parse"))
			}
			if len(roots) != 1 {
				return exitWith(exitInternalError, errors.New("combeq sat: expects a single-output network"))
			}

			solver := satsolver.New(satsolver.WithLogger(logging.New("satsolver")))
			builder := cnf.NewBuilder(store, solver)
			outLit := builder.LitOf(roots[0])
			solver.AddClause([]lit.Lit{outLit})

			res := solver.Solve(context.Background(), satsolver.Budget{MaxConflicts: maxConflicts})
			switch res {
			case satsolver.Sat:
				fmt.Fprintln(cmd.OutOrStdout(), "SAT")
				for i, id := range store.Inputs() {
					l := builder.LitOf(lit.MakeEdge(id, false))
					fmt.Fprintf(cmd.OutOrStdout(), "pi[%d]=%t\n", i, solver.Value(l))
				}
				return exitWith(exitDiffers, nil)
			case satsolver.Unsat:
				fmt.Fprintln(cmd.OutOrStdout(), "UNSAT")
				return exitWith(exitEquivalent, nil)
			default:
				fmt.Fprintln(cmd.OutOrStdout(), "UNDETERMINED")
				return exitWith(exitUndetermined, nil)
			}
		},
	}

	cmd.Flags().Int64Var(&maxConflicts, "max-conflicts", 0, "conflict budget (0 = unlimited)")
	return cmd
}
