package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aig-verify/combeq/internal/rewrite"
	"github.com/aig-verify/combeq/pkg/logging"
)

func newRewriteCmd() *cobra.Command {
	var levelPreserving bool

	cmd := &cobra.Command{
		Use:   "rewrite <in.aig> <out.aig>",
		Short: "Run a balance/rewrite/refactor pass standalone and write the result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, roots, err := readAIG(args[0])
			if err != nil {
				return exitWith(exitInternalError, err)
			}

			cfg := rewrite.Config{LevelPreserving: levelPreserving, Log: logging.New("rewrite")}
			before := store.NumNodes()
			rewrite.Balance(store, roots, cfg)
			rewrite.Rewrite(store, roots, cfg)
			rewrite.Refactor(store, roots, cfg)
			fmt.Fprintf(cmd.OutOrStdout(), "nodes %d -> %d\n", before, store.NumNodes())

			if err := writeAIG(args[1], store, roots); err != nil {
				return exitWith(exitInternalError, err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&levelPreserving, "level-preserving", false, "reject rewrites that would increase a node's topological level")
	return cmd
}
