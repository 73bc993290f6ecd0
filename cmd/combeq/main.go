// Command combeq is the CLI entry point: prove two AIGER networks
// equivalent, or run one core component (sat/fraig/rewrite) in isolation.
// Grounded on cmd/operator-cli/main.go's cobra root command and debug-flag
// PreRunE wiring.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aig-verify/combeq/pkg/logging"
)

func main() {
	var debug bool

	rootCmd := &cobra.Command{
		Use:           "combeq",
		Short:         "combeq",
		Long:          `combeq checks combinational equivalence of AIGER networks via structural hashing, FRAIG, and CDCL SAT.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.Configure(debug)
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newProveCmd())
	rootCmd.AddCommand(newSatCmd())
	rootCmd.AddCommand(newFraigCmd())
	rootCmd.AddCommand(newRewriteCmd())

	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitStatusErr
		if errors.As(err, &exitErr) {
			if exitErr.err != nil {
				fmt.Fprintln(os.Stderr, exitErr.err.Error())
			}
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(exitInternalError)
	}
}

// Exit codes per the documented external interface: 0 equivalent, 1
// counterexample produced, 2 undetermined/aborted, >=10 internal error.
const (
	exitEquivalent    = 0
	exitDiffers       = 1
	exitUndetermined  = 2
	exitInternalError = 10
)
