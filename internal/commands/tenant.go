package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTenantCommand(opts *options) *cobra.Command {
	tenantCmd := &cobra.Command{
		Use:   "tenant",
		Short: "Tenant operations",
	}
	tenantCmd.AddCommand(newTenantProvisionCommand(opts))
	return tenantCmd
}

func newTenantProvisionCommand(opts *options) *cobra.Command {
	var template string

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Fill an empty chart of accounts from a template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTenantApp(cmd, opts, func(a *app) error {
				name := template
				if name == "" {
					name = a.cfg.Ledger.ChartTemplate
				}
				accts, err := a.accounts.Provision(cmd.Context(), a.tenant, name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Provisioned %d accounts from %s for tenant %d\n", len(accts), name, a.tenant)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&template, "template", "", "chart template (defaults to ledger.chart_template)")

	return cmd
}
