// Command eptactl runs backend operations against a freshly seeded store
// without starting the HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cli carries the global flags and the logger shared by subcommands.
type cli struct {
	verbose  bool
	fixtures string
	logger   *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "eptactl",
		Short: "ePTA backend operations from the command line",
		Long: `eptactl loads the ePTA fixture data set into memory and runs a single
backend operation against it, printing the result as JSON.

Changes are not persisted; every invocation starts from the fixtures.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if c.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			c.logger, err = config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().StringVar(&c.fixtures, "fixtures", "", "Fixture source: embedded or postgres (default from FIXTURE_SOURCE)")

	root.AddCommand(c.usersCmd())
	root.AddCommand(c.clearanceCmd())
	root.AddCommand(c.dashboardCmd())
	root.AddCommand(c.exportCmd())
	return root
}
