package api

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/partida-dev/partida/internal/classify"
	"github.com/partida-dev/partida/internal/ledger"
	"github.com/partida-dev/partida/internal/model"
)

// AccountView is the JSON form of an account.
type AccountView struct {
	ID              int64        `json:"id"`
	Name            string       `json:"name"`
	Category        string       `json:"category"`
	Subcategory     string       `json:"subcategory"`
	CategoryCode    *int         `json:"category_code"`
	SubcategoryCode *string      `json:"subcategory_code"`
	NormalSide      model.Side   `json:"normal_side"`
	Bucket          model.Bucket `json:"bucket"`
}

func accountView(a model.Account) AccountView {
	class := classify.Account(a)
	return AccountView{
		ID:              a.ID,
		Name:            a.Name,
		Category:        a.Category,
		Subcategory:     a.Subcategory,
		CategoryCode:    a.CategoryCode,
		SubcategoryCode: a.SubcategoryCode,
		NormalSide:      class.Side,
		Bucket:          class.Bucket,
	}
}

// LineView is the JSON form of an entry line.
type LineView struct {
	ID        int64           `json:"id"`
	AccountID int64           `json:"account_id"`
	Side      model.Side      `json:"side"`
	Amount    decimal.Decimal `json:"amount"`
}

// EntryView is the JSON form of an entry.
type EntryView struct {
	ID       int64      `json:"id"`
	Number   int64      `json:"number"`
	Date     string     `json:"date"`
	Memo     string     `json:"memo"`
	DocRef   string     `json:"doc_ref"`
	AuthorID int64      `json:"author_id"`
	Lines    []LineView `json:"lines"`
}

func entryView(e model.Entry) EntryView {
	v := EntryView{
		ID:       e.ID,
		Number:   e.Number,
		Date:     e.Date.Format(model.DateFormat),
		Memo:     e.Memo,
		DocRef:   e.DocRef,
		AuthorID: e.AuthorID,
		Lines:    make([]LineView, len(e.Lines)),
	}
	for i, l := range e.Lines {
		v.Lines[i] = LineView{ID: l.ID, AccountID: l.AccountID, Side: l.Side, Amount: l.Amount}
	}
	return v
}

// MovementView is the JSON form of one ledger row.
type MovementView struct {
	Date        string          `json:"date"`
	EntryNumber int64           `json:"entry_number"`
	Memo        string          `json:"memo"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

// LedgerView is the JSON form of an account ledger.
type LedgerView struct {
	Account   AccountView     `json:"account"`
	Movements []MovementView  `json:"movements"`
	Closing   decimal.Decimal `json:"closing_balance"`
}

func ledgerView(l ledger.AccountLedger) LedgerView {
	v := LedgerView{
		Account:   accountView(l.Account),
		Movements: make([]MovementView, len(l.Movements)),
		Closing:   l.Closing,
	}
	for i, m := range l.Movements {
		v.Movements[i] = MovementView{
			Date:        m.Date.Format(model.DateFormat),
			EntryNumber: m.EntryNumber,
			Memo:        m.Memo,
			Debit:       m.Debit,
			Credit:      m.Credit,
			Balance:     m.Balance,
		}
	}
	return v
}

// AmountText accepts an amount as a JSON string or number and keeps its
// text, so malformed amounts are reported by the validator.
type AmountText string

// UnmarshalJSON implements json.Unmarshaler.
func (a *AmountText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = AmountText(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if _, err := strconv.ParseFloat(string(b), 64); err != nil {
		return err
	}
	*a = AmountText(b)
	return nil
}
