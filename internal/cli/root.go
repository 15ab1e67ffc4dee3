// Package cli implements animedexctl, the offline companion to the animedex API:
// it trains model files, publishes catalogs to Redis and runs ad-hoc discovery.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/animedex/internal/logger"
	"github.com/kailas-cloud/animedex/internal/version"
)

type rootOptions struct {
	verbose bool
	logger  *zap.Logger
}

// NewRootCmd builds the animedexctl command tree.
func NewRootCmd() *cobra.Command {
	ro := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "animedexctl",
		Short: "Train, publish and query animedex catalogs",
		Long: `animedexctl works with anime catalogs outside the API server.

It vectorises CSV or SQLite catalogs into model files the server can start from,
publishes catalogs to Redis and runs discovery requests from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.String(),
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			l, err := logger.NewCLI(ro.verbose)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			ro.logger = l
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if ro.logger != nil {
				_ = ro.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&ro.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newTrainCmd(ro),
		newPublishCmd(ro),
		newDiscoverCmd(ro),
		newInspectCmd(ro),
	)
	return cmd
}

func (ro *rootOptions) log() *zap.Logger {
	if ro.logger == nil {
		return zap.NewNop()
	}
	return ro.logger
}
