package main

import (
	"github.com/spf13/cobra"

	"github.com/alaris-labs/papergraph/internal/db"
)

func newMigrateCmd(opts *cliOptions) *cobra.Command {
	var down bool
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.cfg.RequireDatabase(); err != nil {
				return err
			}
			if dir == "" {
				dir = opts.cfg.MigrationsPath
			}
			return db.Migrate(db.MigrateParams{
				DatabaseURL: opts.cfg.DatabaseURL,
				Dir:         dir,
				Down:        down,
			})
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "roll back all migrations")
	cmd.Flags().StringVar(&dir, "dir", "", "read migrations from this directory instead of the embedded set")
	return cmd
}
