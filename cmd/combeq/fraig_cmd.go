package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/aig-verify/combeq/internal/fraig"
	"github.com/aig-verify/combeq/pkg/logging"
)

func newFraigCmd() *cobra.Command {
	var (
		nPatsRandom int
		btLimit     int64
		choicing    bool
	)

	cmd := &cobra.Command{
		Use:   "fraig <in.aig> <out.aig>",
		Short: "Run the FRAIG engine standalone and write the reduced network",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, roots, err := readAIG(args[0])
			if err != nil {
				return exitWith(exitInternalError, err)
			}

			eng := fraig.NewEngine(store)
			res, err := eng.Run(context.Background(), roots, fraig.Config{
				NPatsRandom: nPatsRandom,
				BTLimit:     btLimit,
				Choicing:    choicing,
				Log:         logging.New("fraig"),
			})
			if err != nil {
				return exitWith(exitInternalError, errors.Wrap(err, "combeq fraig: run"))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "merges=%d unresolved=%d\n", res.Merges, res.Failed)

			if err := writeAIG(args[1], store, roots); err != nil {
				return exitWith(exitInternalError, err)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&nPatsRandom, "n-pats-random", 32, "random simulation words at session start")
	cmd.Flags().Int64Var(&btLimit, "bt-limit", 5000, "per-candidate conflict budget")
	cmd.Flags().BoolVar(&choicing, "choicing", false, "preserve equivalence chains instead of discarding")

	return cmd
}
