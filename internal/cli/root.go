// Package cli implements the framesim command tree.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/petrijr/framecoro/internal/logging"
)

type rootOptions struct {
	debug     bool
	logLevel  string
	logFormat string

	logger *slog.Logger
}

// NewRootCmd creates the root cobra command for framesim.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "framesim",
		Short: "Drive framecoro routines through a simulated frame loop",
		Long: "framesim runs a small world of routines through the scheduler's\n" +
			"primary update, secondary update and post-render passes and reports\n" +
			"what happened. Statistics can be kept in a SQLite file for later inspection.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.debug {
				opts.logLevel = "debug"
			}
			level, err := logging.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			opts.logger = logging.NewLoggerWithWriter(level, opts.logFormat, cmd.ErrOrStderr())
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newRunCmd(opts),
		newStatsCmd(opts),
	)
	return root
}
