package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/partida-dev/partida/internal/model"
)

const (
	numFields  = 6
	colID      = 0
	colName    = 1
	colCat     = 2
	colSubcat  = 3
	colCatCode = 4
	colSubCode = 5
)

// Header is the CSV header for chart-of-accounts files.
var Header = []string{"account_id", "name", "category", "subcategory", "category_code", "subcategory_code"}

// ReadAccounts reads a chart-of-accounts CSV. Ids and codes in the file are
// informational; importing recreates both.
func ReadAccounts(r io.Reader) ([]Draft, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var drafts []Draft
	for i, rec := range records[1:] {
		d, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

// WriteAccounts writes a chart-of-accounts CSV.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colID] = strconv.FormatInt(acct.ID, 10)
	row[colName] = acct.Name
	row[colCat] = acct.Category
	row[colSubcat] = acct.Subcategory
	if acct.CategoryCode != nil {
		row[colCatCode] = strconv.Itoa(*acct.CategoryCode)
	}
	if acct.SubcategoryCode != nil {
		row[colSubCode] = *acct.SubcategoryCode
	}
	return row
}

// UnmarshalAccount converts a CSV row to a Draft.
func UnmarshalAccount(record []string) (Draft, error) {
	if len(record) != numFields {
		return Draft{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	if record[colID] != "" {
		if _, err := strconv.ParseInt(record[colID], 10, 64); err != nil {
			return Draft{}, fmt.Errorf("parsing account_id %q: %w", record[colID], err)
		}
	}
	return Draft{
		Name:        record[colName],
		Category:    record[colCat],
		Subcategory: record[colSubcat],
	}, nil
}
