package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/partida-dev/partida/internal/id"
	"github.com/partida-dev/partida/internal/model"
	"github.com/partida-dev/partida/internal/report"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
)

type reportOptions struct {
	*options
	from   string
	to     string
	format string
}

func (o *reportOptions) period() (model.Period, error) {
	return model.ParsePeriod(o.from, o.to)
}

func newReportCommand(opts *options) *cobra.Command {
	ro := &reportOptions{options: opts}

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Financial statements",
	}
	flags := reportCmd.PersistentFlags()
	flags.StringVar(&ro.from, "from", "", "first date (inclusive)")
	flags.StringVar(&ro.to, "to", "", "last date (inclusive)")
	flags.StringVarP(&ro.format, "format", "f", formatTable, "output format (table, json, csv)")

	reportCmd.AddCommand(
		newTrialBalanceCommand(ro),
		newLedgerCommand(ro),
		newStatementCommand(ro, "income", "Income statement", func(a *app, w io.Writer, b report.Bundle) error {
			return printIncome(a, w, b.Income)
		}),
		newStatementCommand(ro, "balance-sheet", "Balance sheet", func(a *app, w io.Writer, b report.Bundle) error {
			return printBalanceSheet(a, w, b.Balance)
		}),
		newStatementCommand(ro, "equity", "Balances grouped by category", func(a *app, w io.Writer, b report.Bundle) error {
			return printEquity(a, w, b.Equity)
		}),
		newStatementCommand(ro, "ratios", "Financial ratios", func(_ *app, w io.Writer, b report.Bundle) error {
			return printRatios(w, b.Ratios)
		}),
		newReportExportCommand(ro),
	)
	return reportCmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTrialBalanceCommand(ro *reportOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trial-balance",
		Short: "Trial balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := ro.period()
			if err != nil {
				return err
			}
			return withTenantApp(cmd, ro.options, func(a *app) error {
				tb, err := a.reports.TrialBalance(cmd.Context(), a.tenant, period)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch ro.format {
				case formatJSON:
					return writeJSON(out, tb)
				case formatCSV:
					return report.WriteTrialBalanceCSV(out, tb)
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
				fmt.Fprintln(w, "ID\tACCOUNT\tDEBIT\tCREDIT\t")
				for _, r := range tb.Rows {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t\n", r.AccountID, r.Name, a.amount(r.Debit), a.amount(r.Credit))
				}
				fmt.Fprintf(w, "\tTOTAL\t%s\t%s\t\n", a.amount(tb.TotalDebit), a.amount(tb.TotalCredit))
				if err := w.Flush(); err != nil {
					return err
				}
				if !tb.Balanced {
					fmt.Fprintln(out, "WARNING: trial balance does not balance")
				}
				return nil
			})
		},
	}
}

func newLedgerCommand(ro *reportOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ledger <account_id>",
		Short: "Movements and running balance of one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid account id %q", args[0])
			}
			period, err := ro.period()
			if err != nil {
				return err
			}
			return withTenantApp(cmd, ro.options, func(a *app) error {
				l, err := a.reports.AccountLedger(cmd.Context(), a.tenant, accountID, period)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch ro.format {
				case formatJSON:
					return writeJSON(out, l)
				case formatCSV:
					return report.WriteLedgerCSV(out, l)
				}
				fmt.Fprintf(out, "%s (%s, %s)\n", l.Account.Name, l.Class.Bucket, l.Class.Side)
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "DATE\tENTRY\tMEMO\tDEBIT\tCREDIT\tBALANCE")
				for _, m := range l.Movements {
					debit, credit := "", ""
					if !m.Debit.IsZero() {
						debit = a.amount(m.Debit)
					}
					if !m.Credit.IsZero() {
						credit = a.amount(m.Credit)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						m.Date.Format(model.DateFormat), id.FormatEntryRef(m.EntryNumber), m.Memo, debit, credit, a.amount(m.Balance))
				}
				fmt.Fprintf(w, "\t\tCLOSING\t\t\t%s\n", a.amount(l.Closing))
				return w.Flush()
			})
		},
	}
}

type printFunc func(a *app, w io.Writer, b report.Bundle) error

// newStatementCommand builds a report subcommand that prints one part of
// the bundle, or the part as JSON with --format json.
func newStatementCommand(ro *reportOptions, use, short string, render printFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := ro.period()
			if err != nil {
				return err
			}
			return withTenantApp(cmd, ro.options, func(a *app) error {
				b, err := a.reports.All(cmd.Context(), a.tenant, period)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch ro.format {
				case formatTable:
					return render(a, out, b)
				case formatJSON:
					return writeJSON(out, statementPart(use, b))
				default:
					return fmt.Errorf("format %q is not supported by %s", ro.format, use)
				}
			})
		},
	}
}

func statementPart(use string, b report.Bundle) any {
	switch use {
	case "income":
		return b.Income
	case "balance-sheet":
		return b.Balance
	case "equity":
		return b.Equity
	case "ratios":
		return b.Ratios
	}
	return b
}

func printIncome(a *app, out io.Writer, is report.IncomeStatement) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "REVENUE\t")
	for _, l := range is.RevenueLines {
		fmt.Fprintf(w, "  %s\t%s\n", l.Name, a.amount(l.Amount))
	}
	fmt.Fprintf(w, "Total revenue\t%s\n", a.amount(is.Revenue))
	fmt.Fprintln(w, "EXPENSES\t")
	for _, l := range is.ExpenseLines {
		fmt.Fprintf(w, "  %s\t%s\n", l.Name, a.amount(l.Amount))
	}
	fmt.Fprintf(w, "Total expenses\t%s\n", a.amount(is.Expense))
	fmt.Fprintf(w, "Cost of sales\t%s\n", a.amount(is.CostOfSales))
	fmt.Fprintf(w, "PROFIT\t%s\n", a.amount(is.Profit))
	return w.Flush()
}

func printBalanceSheet(a *app, out io.Writer, bs report.BalanceSheet) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Assets\t%s\n", a.amount(bs.Assets))
	fmt.Fprintf(w, "Liabilities\t%s\n", a.amount(bs.Liabilities))
	fmt.Fprintf(w, "Equity\t%s\n", a.amount(bs.Equity))
	fmt.Fprintf(w, "Profit\t%s\n", a.amount(bs.Profit))
	fmt.Fprintf(w, "Liabilities + equity + profit\t%s\n", a.amount(bs.Check))
	fmt.Fprintf(w, "Balanced\t%t\n", bs.Balanced)
	return w.Flush()
}

func printEquity(a *app, out io.Writer, es report.EquityStatement) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tSUBCATEGORY\tAMOUNT")
	for _, g := range es.Groups {
		fmt.Fprintf(w, "%s\t%s\t%s\n", g.Category, g.Subcategory, a.amount(g.Amount))
	}
	fmt.Fprintf(w, "TOTAL\t\t%s\n", a.amount(es.Total))
	return w.Flush()
}

func printRatios(out io.Writer, r report.Ratios) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Liquidity\t%s\n", r.Liquidity)
	fmt.Fprintf(w, "Solvency\t%s\n", r.Solvency)
	fmt.Fprintf(w, "Leverage\t%s\n", r.Leverage)
	fmt.Fprintf(w, "Cost ratio\t%s\n", r.CostRatio)
	fmt.Fprintf(w, "Return\t%s\n", r.Return)
	return w.Flush()
}

func newReportExportCommand(ro *reportOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every statement to an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := ro.period()
			if err != nil {
				return err
			}
			return withTenantApp(cmd, ro.options, func(a *app) error {
				b, err := a.reports.All(cmd.Context(), a.tenant, period)
				if err != nil {
					return err
				}
				w, closeFn, err := output(cmd, out)
				if err != nil {
					return err
				}
				if err := report.WriteWorkbook(w, b); err != nil {
					_ = closeFn()
					return err
				}
				if err := closeFn(); err != nil {
					return err
				}
				if out != "" && out != "-" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", out)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "output file")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
