package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is a balanced journal transaction: a header plus at least two lines.
type Entry struct {
	ID       int64
	TenantID TenantID
	Number   int64 // per-tenant sequence, never reused
	Date     time.Time
	Memo     string
	DocRef   string
	AuthorID int64
	Lines    []Line
}

// Line is one debit or credit movement against one account.
type Line struct {
	ID        int64
	EntryID   int64
	AccountID int64
	Side      Side
	Amount    decimal.Decimal // positive, scale 2
}

// Totals returns the debit and credit sums of the entry's lines.
func (e Entry) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		if l.Side == SideDebit {
			debit = debit.Add(l.Amount)
		} else {
			credit = credit.Add(l.Amount)
		}
	}
	return debit, credit
}

// LineDraft is an unvalidated line as submitted by a caller.
type LineDraft struct {
	AccountID int64
	Side      string
	Amount    string
}

// EntryDraft is an unvalidated entry as submitted by a caller.
type EntryDraft struct {
	TenantID TenantID
	Date     time.Time
	Memo     string
	DocRef   string
	AuthorID int64
	Lines    []LineDraft
}

// PostedLine is a committed line joined with its entry header, as the ledger
// replays it.
type PostedLine struct {
	LineID      int64
	EntryID     int64
	EntryNumber int64
	Date        time.Time
	Memo        string
	AccountID   int64
	Side        Side
	Amount      decimal.Decimal
}
