package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/partida-dev/partida/internal/ledger"
	"github.com/partida-dev/partida/internal/model"
)

// TrialBalanceHeader is the CSV header of a trial balance export.
var TrialBalanceHeader = []string{"account_id", "name", "category", "subcategory", "gross_debit", "gross_credit", "debit", "credit"}

// LedgerHeader is the CSV header of an account ledger export.
var LedgerHeader = []string{"date", "entry_number", "memo", "debit", "credit", "balance"}

func amount(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.StringFixed(2)
}

// WriteTrialBalanceCSV writes the rows of tb followed by a totals row.
func WriteTrialBalanceCSV(w io.Writer, tb TrialBalance) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TrialBalanceHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, r := range tb.Rows {
		rec := []string{
			strconv.FormatInt(r.AccountID, 10),
			r.Name,
			r.Category,
			r.Subcategory,
			r.GrossDebit.StringFixed(2),
			r.GrossCredit.StringFixed(2),
			amount(r.Debit),
			amount(r.Credit),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	if err := cw.Write([]string{"", "Total", "", "", "", "", tb.TotalDebit.StringFixed(2), tb.TotalCredit.StringFixed(2)}); err != nil {
		return fmt.Errorf("writing totals: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// WriteLedgerCSV writes an account's movements; the running balance column
// keeps its sign.
func WriteLedgerCSV(w io.Writer, l ledger.AccountLedger) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(LedgerHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, m := range l.Movements {
		rec := []string{
			m.Date.Format(model.DateFormat),
			strconv.FormatInt(m.EntryNumber, 10),
			m.Memo,
			amount(m.Debit),
			amount(m.Credit),
			m.Balance.StringFixed(2),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
