package commands

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/partida-dev/partida/internal/accounts"
	"github.com/partida-dev/partida/internal/classify"
	"github.com/partida-dev/partida/internal/model"
)

func newAccountCommand(opts *options) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Chart of accounts",
	}
	accountCmd.AddCommand(
		newAccountAddCommand(opts),
		newAccountListCommand(opts),
		newAccountDeleteCommand(opts),
		newAccountImportCommand(opts),
		newAccountExportCommand(opts),
	)
	return accountCmd
}

func newAccountAddCommand(opts *options) *cobra.Command {
	var d accounts.Draft

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d.Name = args[0]
			return withTenantApp(cmd, opts, func(a *app) error {
				acct, err := a.accounts.CreateAccount(cmd.Context(), a.tenant, d)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added account %d %s\n", acct.ID, acct.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&d.Category, "category", "", "category text")
	cmd.Flags().StringVar(&d.Subcategory, "subcategory", "", "subcategory text")

	return cmd
}

func subcategoryCode(a model.Account) string {
	if a.SubcategoryCode == nil {
		return "-"
	}
	return *a.SubcategoryCode
}

func newAccountListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTenantApp(cmd, opts, func(a *app) error {
				accts, err := a.accounts.List(cmd.Context(), a.tenant)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tSUBCATEGORY\tCODE\tSIDE\tBUCKET")
				for _, acct := range accts {
					class := classify.Account(acct)
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
						acct.ID, acct.Name, acct.Category, acct.Subcategory, subcategoryCode(acct), class.Side, class.Bucket)
				}
				return w.Flush()
			})
		},
	}
}

func newAccountDeleteCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an account without journal lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid account id %q", args[0])
			}
			return withTenantApp(cmd, opts, func(a *app) error {
				if err := a.accounts.DeleteAccount(cmd.Context(), a.tenant, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted account %d\n", id)
				return nil
			})
		},
	}
}

func newAccountImportCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import accounts from CSV, all or nothing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			drafts, err := accounts.ReadAccounts(f)
			if err != nil {
				return err
			}
			return withTenantApp(cmd, opts, func(a *app) error {
				accts, err := a.accounts.Import(cmd.Context(), a.tenant, drafts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d accounts\n", len(accts))
				return nil
			})
		},
	}
}

func newAccountExportCommand(opts *options) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export accounts as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTenantApp(cmd, opts, func(a *app) error {
				accts, err := a.accounts.List(cmd.Context(), a.tenant)
				if err != nil {
					return err
				}
				w, closeFn, err := output(cmd, out)
				if err != nil {
					return err
				}
				if err := accounts.WriteAccounts(w, accts); err != nil {
					_ = closeFn()
					return err
				}
				return closeFn()
			})
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")

	return cmd
}
