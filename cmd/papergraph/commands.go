package main

import (
	"github.com/spf13/cobra"

	"github.com/alaris-labs/papergraph/internal/config"
	"github.com/alaris-labs/papergraph/pkg/logger"
	"github.com/alaris-labs/papergraph/pkg/logger/console"
)

type cliOptions struct {
	cfg     config.Config
	debug   bool
	logJSON bool
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:           "papergraph",
		Short:         "Turn research papers into a concept graph",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.cfg = config.Load()
			logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
				Debug:  opts.debug || opts.cfg.Debug,
				JSON:   opts.logJSON || opts.cfg.LogJSON,
				Prefix: "papergraph",
				Output: cmd.ErrOrStderr(),
			}))
		},
	}
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "log as JSON lines")

	rootCmd.AddCommand(newIngestCmd(opts))
	rootCmd.AddCommand(newMigrateCmd(opts))
	return rootCmd
}
