package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/partida-dev/partida/internal/model"
)

// Memory is an in-process Store.
//
// Transactions are optimistic: fn runs against a private snapshot without
// holding the lock, and the recorded writes are replayed against the live
// state at commit. Uniqueness of (tenant, number), the sequence high-water
// mark, account name uniqueness and the account-in-use guard are re-checked
// during replay, so a transaction that raced another one fails with the same
// sentinel errors a SQL backstop would produce.
type Memory struct {
	mu    sync.RWMutex
	state *memState
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{state: newMemState()}
}

type memState struct {
	accounts    map[int64]model.Account
	entries     map[int64]model.Entry
	lastNumber  map[model.TenantID]int64
	nextAccount int64
	nextEntry   int64
	nextLine    int64
}

func newMemState() *memState {
	return &memState{
		accounts:   make(map[int64]model.Account),
		entries:    make(map[int64]model.Entry),
		lastNumber: make(map[model.TenantID]int64),
	}
}

func (s *memState) clone() *memState {
	c := &memState{
		accounts:    make(map[int64]model.Account, len(s.accounts)),
		entries:     make(map[int64]model.Entry, len(s.entries)),
		lastNumber:  make(map[model.TenantID]int64, len(s.lastNumber)),
		nextAccount: s.nextAccount,
		nextEntry:   s.nextEntry,
		nextLine:    s.nextLine,
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	for k, v := range s.lastNumber {
		c.lastNumber[k] = v
	}
	return c
}

func cloneEntry(e model.Entry) model.Entry {
	lines := make([]model.Line, len(e.Lines))
	copy(lines, e.Lines)
	e.Lines = lines
	return e
}

func (s *memState) insertEntry(e *model.Entry) error {
	if e.Number <= s.lastNumber[e.TenantID] {
		return ErrDuplicateNumber
	}
	for _, other := range s.entries {
		if other.TenantID == e.TenantID && other.Number == e.Number {
			return ErrDuplicateNumber
		}
	}
	for _, l := range e.Lines {
		a, ok := s.accounts[l.AccountID]
		if !ok || a.TenantID != e.TenantID {
			return ErrUnknownAccount
		}
	}
	s.nextEntry++
	e.ID = s.nextEntry
	for i := range e.Lines {
		s.nextLine++
		e.Lines[i].ID = s.nextLine
		e.Lines[i].EntryID = e.ID
	}
	s.entries[e.ID] = cloneEntry(*e)
	s.lastNumber[e.TenantID] = e.Number
	return nil
}

func (s *memState) deleteEntry(tenant model.TenantID, id int64) error {
	e, ok := s.entries[id]
	if !ok || e.TenantID != tenant {
		return ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

func (s *memState) insertAccount(a *model.Account) error {
	name := strings.ToLower(strings.TrimSpace(a.Name))
	for _, other := range s.accounts {
		if other.TenantID == a.TenantID && strings.ToLower(strings.TrimSpace(other.Name)) == name {
			return ErrDuplicateName
		}
	}
	s.nextAccount++
	a.ID = s.nextAccount
	s.accounts[a.ID] = *a
	return nil
}

func (s *memState) deleteAccount(tenant model.TenantID, id int64) error {
	a, ok := s.accounts[id]
	if !ok || a.TenantID != tenant {
		return ErrNotFound
	}
	if s.countAccountLines(tenant, id) > 0 {
		return ErrAccountInUse
	}
	delete(s.accounts, id)
	return nil
}

func (s *memState) countAccountLines(tenant model.TenantID, accountID int64) int64 {
	var n int64
	for _, e := range s.entries {
		if e.TenantID != tenant {
			continue
		}
		for _, l := range e.Lines {
			if l.AccountID == accountID {
				n++
			}
		}
	}
	return n
}

func (s *memState) lastEntryNumber(tenant model.TenantID) int64 {
	last := s.lastNumber[tenant]
	for _, e := range s.entries {
		if e.TenantID == tenant && e.Number > last {
			last = e.Number
		}
	}
	return last
}

func (s *memState) listAccounts(tenant model.TenantID) []model.Account {
	var out []model.Account
	for _, a := range s.accounts {
		if a.TenantID == tenant {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memState) getAccount(tenant model.TenantID, id int64) (model.Account, error) {
	a, ok := s.accounts[id]
	if !ok || a.TenantID != tenant {
		return model.Account{}, ErrNotFound
	}
	return a, nil
}

func (s *memState) accountsByID(tenant model.TenantID, ids []int64) map[int64]model.Account {
	out := make(map[int64]model.Account, len(ids))
	for _, id := range ids {
		if a, ok := s.accounts[id]; ok && a.TenantID == tenant {
			out[id] = a
		}
	}
	return out
}

func (s *memState) getEntry(tenant model.TenantID, id int64) (model.Entry, error) {
	e, ok := s.entries[id]
	if !ok || e.TenantID != tenant {
		return model.Entry{}, ErrNotFound
	}
	return cloneEntry(e), nil
}

func (s *memState) listEntries(tenant model.TenantID, period model.Period, limit int) []model.Entry {
	var out []model.Entry
	for _, e := range s.entries {
		if e.TenantID == tenant && period.Contains(e.Date) {
			out = append(out, cloneEntry(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].Number > out[j].Number
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *memState) postedLines(tenant model.TenantID, filter LineFilter) []model.PostedLine {
	var out []model.PostedLine
	for _, e := range s.entries {
		if e.TenantID != tenant || !filter.Period.Contains(e.Date) {
			continue
		}
		for _, l := range e.Lines {
			if filter.AccountID != 0 && l.AccountID != filter.AccountID {
				continue
			}
			out = append(out, model.PostedLine{
				LineID:      l.ID,
				EntryID:     e.ID,
				EntryNumber: e.Number,
				Date:        e.Date,
				Memo:        e.Memo,
				AccountID:   l.AccountID,
				Side:        l.Side,
				Amount:      l.Amount,
			})
		}
	}
	SortPostedLines(out)
	return out
}

// SortPostedLines orders lines by entry date, entry number and line id.
func SortPostedLines(lines []model.PostedLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.EntryNumber != b.EntryNumber {
			return a.EntryNumber < b.EntryNumber
		}
		return a.LineID < b.LineID
	})
}

// Reader implementation on the live state.

func (m *Memory) ListAccounts(_ context.Context, tenant model.TenantID) ([]model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.listAccounts(tenant), nil
}

func (m *Memory) GetAccount(_ context.Context, tenant model.TenantID, id int64) (model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.getAccount(tenant, id)
}

func (m *Memory) AccountsByID(_ context.Context, tenant model.TenantID, ids []int64) (map[int64]model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.accountsByID(tenant, ids), nil
}

func (m *Memory) GetEntry(_ context.Context, tenant model.TenantID, id int64) (model.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.getEntry(tenant, id)
}

func (m *Memory) ListEntries(_ context.Context, tenant model.TenantID, period model.Period, limit int) ([]model.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.listEntries(tenant, period, limit), nil
}

func (m *Memory) PostedLines(_ context.Context, tenant model.TenantID, filter LineFilter) ([]model.PostedLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.postedLines(tenant, filter), nil
}

// WithTx runs fn against a snapshot and replays its writes on success.
func (m *Memory) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.RLock()
	snap := m.state.clone()
	m.mu.RUnlock()

	tx := &memTx{state: snap}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.state.clone()
	for _, op := range tx.ops {
		if err := op(next); err != nil {
			return err
		}
	}
	m.state = next
	return nil
}

type memTx struct {
	state *memState
	ops   []func(*memState) error
}

func (t *memTx) ListAccounts(_ context.Context, tenant model.TenantID) ([]model.Account, error) {
	return t.state.listAccounts(tenant), nil
}

func (t *memTx) GetAccount(_ context.Context, tenant model.TenantID, id int64) (model.Account, error) {
	return t.state.getAccount(tenant, id)
}

func (t *memTx) AccountsByID(_ context.Context, tenant model.TenantID, ids []int64) (map[int64]model.Account, error) {
	return t.state.accountsByID(tenant, ids), nil
}

func (t *memTx) GetEntry(_ context.Context, tenant model.TenantID, id int64) (model.Entry, error) {
	return t.state.getEntry(tenant, id)
}

func (t *memTx) ListEntries(_ context.Context, tenant model.TenantID, period model.Period, limit int) ([]model.Entry, error) {
	return t.state.listEntries(tenant, period, limit), nil
}

func (t *memTx) PostedLines(_ context.Context, tenant model.TenantID, filter LineFilter) ([]model.PostedLine, error) {
	return t.state.postedLines(tenant, filter), nil
}

func (t *memTx) LastEntryNumber(_ context.Context, tenant model.TenantID) (int64, error) {
	return t.state.lastEntryNumber(tenant), nil
}

func (t *memTx) CountAccountLines(_ context.Context, tenant model.TenantID, accountID int64) (int64, error) {
	return t.state.countAccountLines(tenant, accountID), nil
}

func (t *memTx) InsertEntry(_ context.Context, e *model.Entry) error {
	if err := t.state.insertEntry(e); err != nil {
		return err
	}
	t.ops = append(t.ops, func(s *memState) error { return s.insertEntry(e) })
	return nil
}

func (t *memTx) DeleteEntry(_ context.Context, tenant model.TenantID, id int64) error {
	if err := t.state.deleteEntry(tenant, id); err != nil {
		return err
	}
	t.ops = append(t.ops, func(s *memState) error { return s.deleteEntry(tenant, id) })
	return nil
}

func (t *memTx) InsertAccount(_ context.Context, a *model.Account) error {
	if err := t.state.insertAccount(a); err != nil {
		return err
	}
	t.ops = append(t.ops, func(s *memState) error { return s.insertAccount(a) })
	return nil
}

func (t *memTx) DeleteAccount(_ context.Context, tenant model.TenantID, id int64) error {
	if err := t.state.deleteAccount(tenant, id); err != nil {
		return err
	}
	t.ops = append(t.ops, func(s *memState) error { return s.deleteAccount(tenant, id) })
	return nil
}
