package gormstore

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/partida-dev/partida/internal/model"
)

type accountRecord struct {
	ID              int64   `gorm:"primaryKey;autoIncrement"`
	TenantID        int64   `gorm:"not null;uniqueIndex:idx_accounts_tenant_name,priority:1"`
	NameKey         string  `gorm:"size:120;not null;uniqueIndex:idx_accounts_tenant_name,priority:2"` // lower(trim(name))
	Name            string  `gorm:"size:120;not null"`
	Category        string  `gorm:"size:120"`
	Subcategory     string  `gorm:"size:120"`
	CategoryCode    *int    `gorm:"column:category_code"`
	SubcategoryCode *string `gorm:"size:8;column:subcategory_code"`
}

func (accountRecord) TableName() string {
	return "accounts"
}

type entryRecord struct {
	ID       int64        `gorm:"primaryKey;autoIncrement"`
	TenantID int64        `gorm:"not null;uniqueIndex:idx_entries_tenant_number,priority:1"`
	Number   int64        `gorm:"not null;uniqueIndex:idx_entries_tenant_number,priority:2"`
	Date     time.Time    `gorm:"type:date;not null;index"`
	Memo     string       `gorm:"size:255"`
	DocRef   string       `gorm:"size:120"`
	AuthorID int64        `gorm:"not null;default:0"`
	Lines    []lineRecord `gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE"`
}

func (entryRecord) TableName() string {
	return "entries"
}

type lineRecord struct {
	ID        int64           `gorm:"primaryKey;autoIncrement"`
	EntryID   int64           `gorm:"not null;index"`
	AccountID int64           `gorm:"not null;index"`
	Account   *accountRecord  `gorm:"foreignKey:AccountID;constraint:OnDelete:RESTRICT"`
	Side      string          `gorm:"size:6;not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

func (lineRecord) TableName() string {
	return "entry_lines"
}

// sequenceRecord holds the per-tenant high-water mark of entry numbers. Its
// row is locked for the duration of an entry insert.
type sequenceRecord struct {
	TenantID   int64 `gorm:"primaryKey;autoIncrement:false"`
	LastNumber int64 `gorm:"not null;default:0"`
}

func (sequenceRecord) TableName() string {
	return "tenant_sequences"
}

type postedRow struct {
	LineID      int64
	EntryID     int64
	EntryNumber int64
	Date        time.Time
	Memo        string
	AccountID   int64
	Side        string
	Amount      decimal.Decimal
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func fromAccount(a model.Account) accountRecord {
	return accountRecord{
		ID:              a.ID,
		TenantID:        int64(a.TenantID),
		NameKey:         nameKey(a.Name),
		Name:            a.Name,
		Category:        a.Category,
		Subcategory:     a.Subcategory,
		CategoryCode:    a.CategoryCode,
		SubcategoryCode: a.SubcategoryCode,
	}
}

func (r accountRecord) toModel() model.Account {
	return model.Account{
		ID:              r.ID,
		TenantID:        model.TenantID(r.TenantID),
		Name:            r.Name,
		Category:        r.Category,
		Subcategory:     r.Subcategory,
		CategoryCode:    r.CategoryCode,
		SubcategoryCode: r.SubcategoryCode,
	}
}

func fromEntry(e model.Entry) entryRecord {
	rec := entryRecord{
		ID:       e.ID,
		TenantID: int64(e.TenantID),
		Number:   e.Number,
		Date:     model.Day(e.Date),
		Memo:     e.Memo,
		DocRef:   e.DocRef,
		AuthorID: e.AuthorID,
		Lines:    make([]lineRecord, len(e.Lines)),
	}
	for i, l := range e.Lines {
		rec.Lines[i] = lineRecord{
			AccountID: l.AccountID,
			Side:      string(l.Side),
			Amount:    l.Amount,
		}
	}
	return rec
}

func (r entryRecord) toModel() model.Entry {
	e := model.Entry{
		ID:       r.ID,
		TenantID: model.TenantID(r.TenantID),
		Number:   r.Number,
		Date:     model.Day(r.Date),
		Memo:     r.Memo,
		DocRef:   r.DocRef,
		AuthorID: r.AuthorID,
		Lines:    make([]model.Line, len(r.Lines)),
	}
	for i, l := range r.Lines {
		e.Lines[i] = model.Line{
			ID:        l.ID,
			EntryID:   l.EntryID,
			AccountID: l.AccountID,
			Side:      model.Side(l.Side),
			Amount:    l.Amount,
		}
	}
	return e
}

func (r postedRow) toModel() model.PostedLine {
	return model.PostedLine{
		LineID:      r.LineID,
		EntryID:     r.EntryID,
		EntryNumber: r.EntryNumber,
		Date:        model.Day(r.Date),
		Memo:        r.Memo,
		AccountID:   r.AccountID,
		Side:        model.Side(r.Side),
		Amount:      r.Amount,
	}
}
