package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/partida-dev/partida/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	return newRootCommand(openStore)
}

func newRootCommand(open StoreOpener) *cobra.Command {
	opts := &options{open: open}

	rootCmd := &cobra.Command{
		Use:     "partida",
		Short:   "Multi-tenant double-entry bookkeeping",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", defaultConfigFile, "configuration file")
	flags.Int64VarP(&opts.tenant, "tenant", "t", 0, "tenant id")
	flags.Int64Var(&opts.user, "user", 0, "author id recorded on new entries")

	rootCmd.AddCommand(
		newInitCommand(),
		newMigrateCommand(opts),
		newServeCommand(opts),
		newTenantCommand(opts),
		newAccountCommand(opts),
		newEntryCommand(opts),
		newReportCommand(opts),
	)

	return rootCmd
}

func requireTenant(opts *options) error {
	if opts.tenant <= 0 {
		return fmt.Errorf("--tenant is required")
	}
	return nil
}
