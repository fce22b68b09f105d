package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

type migrator interface {
	Migrate(ctx context.Context) error
}

func newMigrateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				m, ok := a.store.(migrator)
				if !ok {
					fmt.Fprintf(cmd.OutOrStdout(), "Driver %s has no schema\n", a.cfg.Database.Driver)
					return nil
				}
				if err := m.Migrate(cmd.Context()); err != nil {
					return fmt.Errorf("migrating: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Schema up to date")
				return nil
			})
		},
	}
}
