// Package store defines the persistence contract the bookkeeping services
// rely on. Every method is scoped by tenant; no query aggregates across
// tenants.
package store

import (
	"context"
	"errors"

	"github.com/partida-dev/partida/internal/model"
)

var (
	// ErrNotFound is returned when a tenant has no row with the given id.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateNumber is returned when (tenant, number) is already taken.
	ErrDuplicateNumber = errors.New("duplicate entry number")
	// ErrDuplicateName is returned when a tenant already has an account with
	// the same case-insensitive name.
	ErrDuplicateName = errors.New("duplicate account name")
	// ErrAccountInUse is returned when deleting an account referenced by lines.
	ErrAccountInUse = errors.New("account referenced by journal lines")
	// ErrUnknownAccount is returned when a line references an account the
	// tenant does not own at commit time.
	ErrUnknownAccount = errors.New("unknown account")
	// ErrTxConflict is returned when the database aborted the transaction on a
	// lock conflict. The whole transaction may be retried.
	ErrTxConflict = errors.New("transaction lock conflict")
)

// LineFilter selects posted lines for replay.
type LineFilter struct {
	Period    model.Period
	AccountID int64 // 0 selects every account
}

// Reader is the read side of the store.
type Reader interface {
	ListAccounts(ctx context.Context, tenant model.TenantID) ([]model.Account, error)
	GetAccount(ctx context.Context, tenant model.TenantID, id int64) (model.Account, error)
	// AccountsByID resolves many ids in one lookup. Ids the tenant does not
	// own are absent from the result.
	AccountsByID(ctx context.Context, tenant model.TenantID, ids []int64) (map[int64]model.Account, error)
	GetEntry(ctx context.Context, tenant model.TenantID, id int64) (model.Entry, error)
	// ListEntries returns entries with their lines, newest first.
	ListEntries(ctx context.Context, tenant model.TenantID, period model.Period, limit int) ([]model.Entry, error)
	// PostedLines returns lines ordered by entry date, entry number, line id.
	PostedLines(ctx context.Context, tenant model.TenantID, filter LineFilter) ([]model.PostedLine, error)
}

// Tx is a read-write unit of work. Nothing written through a Tx is visible
// to other readers until the enclosing WithTx returns nil.
type Tx interface {
	Reader
	// LastEntryNumber returns the highest number ever assigned to the tenant,
	// including numbers of deleted entries.
	LastEntryNumber(ctx context.Context, tenant model.TenantID) (int64, error)
	// InsertEntry stores the entry and its lines and fills in their ids.
	InsertEntry(ctx context.Context, e *model.Entry) error
	DeleteEntry(ctx context.Context, tenant model.TenantID, id int64) error
	// InsertAccount stores the account and fills in its id.
	InsertAccount(ctx context.Context, a *model.Account) error
	DeleteAccount(ctx context.Context, tenant model.TenantID, id int64) error
	CountAccountLines(ctx context.Context, tenant model.TenantID, accountID int64) (int64, error)
}

// Store is a transactional bookkeeping store.
type Store interface {
	Reader
	// WithTx runs fn in one all-or-nothing transaction. If fn returns an
	// error nothing it wrote becomes visible.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}
