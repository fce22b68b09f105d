package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/partida-dev/partida/internal/id"
	"github.com/partida-dev/partida/internal/journal"
	"github.com/partida-dev/partida/internal/model"
)

func newEntryCommand(opts *options) *cobra.Command {
	entryCmd := &cobra.Command{
		Use:   "entry",
		Short: "Journal entries",
	}
	entryCmd.AddCommand(
		newEntryAddCommand(opts),
		newEntryListCommand(opts),
		newEntryDeleteCommand(opts),
		newEntryImportCommand(opts),
		newEntryExportCommand(opts),
	)
	return entryCmd
}

// parseLine parses "<account_id>:<side>:<amount>".
func parseLine(s string) (model.LineDraft, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return model.LineDraft{}, fmt.Errorf("invalid line %q: want account:side:amount", s)
	}
	accountID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return model.LineDraft{}, fmt.Errorf("invalid account id in line %q", s)
	}
	return model.LineDraft{AccountID: accountID, Side: parts[1], Amount: parts[2]}, nil
}

func newEntryAddCommand(opts *options) *cobra.Command {
	var date, memo, docRef string
	var lines []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Post a balanced entry",
		Example: `  partida entry add -t 1 --date 2024-01-01 --memo "Aporte inicial" \
    --line 1:debit:1000 --line 9:credit:1000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := model.EntryDraft{
				TenantID: model.TenantID(opts.tenant),
				Memo:     memo,
				DocRef:   docRef,
				AuthorID: opts.user,
			}
			if date != "" {
				parsed, err := time.Parse(model.DateFormat, date)
				if err != nil {
					return fmt.Errorf("invalid --date %q: want %s", date, model.DateFormat)
				}
				d.Date = parsed
			}
			for _, l := range lines {
				ld, err := parseLine(l)
				if err != nil {
					return err
				}
				d.Lines = append(d.Lines, ld)
			}

			return withTenantApp(cmd, opts, func(a *app) error {
				e, err := a.journal.CreateEntry(cmd.Context(), d)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Posted entry %s (id %d)\n", id.FormatEntryRef(e.Number), e.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", time.Now().Format(model.DateFormat), "entry date")
	cmd.Flags().StringVar(&memo, "memo", "", "description")
	cmd.Flags().StringVar(&docRef, "doc-ref", "", "supporting document reference")
	cmd.Flags().StringArrayVar(&lines, "line", nil, "line as account:side:amount (repeatable)")

	return cmd
}

func newEntryListCommand(opts *options) *cobra.Command {
	var from, to string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := model.ParsePeriod(from, to)
			if err != nil {
				return err
			}
			return withTenantApp(cmd, opts, func(a *app) error {
				entries, err := a.journal.List(cmd.Context(), a.tenant, period, limit)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NUMBER\tDATE\tMEMO\tACCOUNT\tDEBIT\tCREDIT")
				for _, e := range entries {
					ref := id.FormatEntryRef(e.Number)
					for i, l := range e.Lines {
						debit, credit := "", ""
						if l.Side == model.SideDebit {
							debit = a.amount(l.Amount)
						} else {
							credit = a.amount(l.Amount)
						}
						fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
							id.FormatLineRef(ref, i), e.Date.Format(model.DateFormat), e.Memo, l.AccountID, debit, credit)
					}
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first date (inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "last date (inclusive)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries, 0 for all")

	return cmd
}

func newEntryDeleteCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entry and its lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entryID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid entry id %q", args[0])
			}
			return withTenantApp(cmd, opts, func(a *app) error {
				if err := a.journal.DeleteEntry(cmd.Context(), a.tenant, entryID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry %d\n", entryID)
				return nil
			})
		},
	}
}

func newEntryImportCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import entries from CSV; numbers are reassigned",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			rows, err := journal.ReadRows(f)
			if err != nil {
				return err
			}
			return withTenantApp(cmd, opts, func(a *app) error {
				entries, err := a.journal.Import(cmd.Context(), journal.DraftsFromRows(a.tenant, a.user, rows))
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries\n", len(entries))
				return err
			})
		},
	}
}

func newEntryExportCommand(opts *options) *cobra.Command {
	var from, to, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export entries as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := model.ParsePeriod(from, to)
			if err != nil {
				return err
			}
			return withTenantApp(cmd, opts, func(a *app) error {
				entries, err := a.journal.List(cmd.Context(), a.tenant, period, 0)
				if err != nil {
					return err
				}
				w, closeFn, err := output(cmd, out)
				if err != nil {
					return err
				}
				if err := journal.WriteRows(w, journal.RowsFromEntries(entries)); err != nil {
					_ = closeFn()
					return err
				}
				return closeFn()
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first date (inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "last date (inclusive)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")

	return cmd
}
