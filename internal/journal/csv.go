package journal

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/partida-dev/partida/internal/id"
	"github.com/partida-dev/partida/internal/model"
)

// Header is the CSV header for journal exports.
const Header = "line_ref,date,account_id,side,amount,memo,doc_ref"

const (
	numFields  = 7
	colLineRef = 0
	colDate    = 1
	colAcctID  = 2
	colSide    = 3
	colAmount  = 4
	colMemo    = 5
	colDocRef  = 6
)

// Row is one journal line as it appears in a CSV file.
type Row struct {
	LineRef   string
	Date      time.Time
	AccountID int64
	Side      string
	Amount    string
	Memo      string
	DocRef    string
}

// RowsFromEntries flattens entries into CSV rows, one per line, referenced
// as "<number><letter>". Rows are written in ascending entry number so a
// re-import keeps the original order.
func RowsFromEntries(entries []model.Entry) []Row {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b model.Entry) int { return cmp.Compare(a.Number, b.Number) })

	var rows []Row
	for _, e := range sorted {
		ref := id.FormatEntryRef(e.Number)
		for i, l := range e.Lines {
			rows = append(rows, Row{
				LineRef:   id.FormatLineRef(ref, i),
				Date:      e.Date,
				AccountID: l.AccountID,
				Side:      string(l.Side),
				Amount:    l.Amount.StringFixed(2),
				Memo:      e.Memo,
				DocRef:    e.DocRef,
			})
		}
	}
	return rows
}

// DraftsFromRows groups rows by entry reference, in order of first
// appearance. The entry header is taken from the group's first row. The
// numbers in the file are not kept; imported entries are renumbered.
func DraftsFromRows(tenant model.TenantID, author int64, rows []Row) []model.EntryDraft {
	index := make(map[string]int)
	var drafts []model.EntryDraft
	for _, r := range rows {
		g := id.EntryGroup(r.LineRef)
		i, seen := index[g]
		if !seen {
			i = len(drafts)
			index[g] = i
			drafts = append(drafts, model.EntryDraft{
				TenantID: tenant,
				Date:     r.Date,
				Memo:     r.Memo,
				DocRef:   r.DocRef,
				AuthorID: author,
			})
		}
		drafts[i].Lines = append(drafts[i].Lines, model.LineDraft{
			AccountID: r.AccountID,
			Side:      r.Side,
			Amount:    r.Amount,
		})
	}
	return drafts
}

// ReadRows reads all rows from a journal CSV reader.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading journal CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var rows []Row
	for i, rec := range records[1:] {
		row, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteRows writes rows to a journal CSV writer (including header).
func WriteRows(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range rows {
		if err := cw.Write(MarshalRow(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRow converts a Row to a CSV record.
func MarshalRow(r Row) []string {
	rec := make([]string, numFields)
	rec[colLineRef] = r.LineRef
	rec[colDate] = r.Date.Format(model.DateFormat)
	rec[colAcctID] = strconv.FormatInt(r.AccountID, 10)
	rec[colSide] = r.Side
	rec[colAmount] = r.Amount
	rec[colMemo] = r.Memo
	rec[colDocRef] = r.DocRef
	return rec
}

// UnmarshalRow converts a CSV record to a Row. Side and amount are kept as
// text so the validator reports them like any other submission.
func UnmarshalRow(record []string) (Row, error) {
	if len(record) != numFields {
		return Row{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	if _, err := id.ParseEntryRef(record[colLineRef]); err != nil {
		return Row{}, err
	}

	date, err := time.Parse(model.DateFormat, record[colDate])
	if err != nil {
		return Row{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	accountID, err := strconv.ParseInt(record[colAcctID], 10, 64)
	if err != nil {
		return Row{}, fmt.Errorf("parsing account_id %q: %w", record[colAcctID], err)
	}

	return Row{
		LineRef:   record[colLineRef],
		Date:      date,
		AccountID: accountID,
		Side:      record[colSide],
		Amount:    record[colAmount],
		Memo:      record[colMemo],
		DocRef:    record[colDocRef],
	}, nil
}
