// Command bigfivectl is the operator CLI: offline scoring, free code
// issuance and archetype coverage checks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-bigfive/internal/config"
	"github.com/mind-engage/mindengage-bigfive/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type app struct {
	cfg config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}
	var verbose bool
	root := &cobra.Command{
		Use:           "bigfivectl",
		Short:         "Operate the Big Five quiz service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			a.cfg = cfg
			if verbose {
				l, err := logging.New(false, "debug")
				if err != nil {
					return err
				}
				a.log = l
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")
	root.AddCommand(newScoreCmd(a), newFreeCodeCmd(a), newArchetypesCmd(a))
	return root
}
