// Package ledger replays posted journal lines into running balances.
//
// Lines are always replayed in (entry date, entry number, line id) order. A
// line on the account's normal side adds to its balance and a line on the
// opposite side subtracts, so a positive balance is a normal balance.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/partida-dev/partida/internal/classify"
	"github.com/partida-dev/partida/internal/model"
	"github.com/partida-dev/partida/internal/store"
)

// Movement is one line of an account ledger.
type Movement struct {
	Date        time.Time
	EntryID     int64
	EntryNumber int64
	Memo        string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Balance     decimal.Decimal // after this line
}

// AccountLedger is the movement history of one account.
type AccountLedger struct {
	Account   model.Account
	Class     classify.Classification
	Movements []Movement
	Closing   decimal.Decimal
}

// Position is the accumulated state of one account over a period.
type Position struct {
	Account model.Account
	Class   classify.Classification
	Debit   decimal.Decimal // gross debit movement
	Credit  decimal.Decimal // gross credit movement
	Balance decimal.Decimal // signed by the account's normal side
}

// Aggregator reads posted lines from a store and replays them.
type Aggregator struct {
	store store.Reader
}

// NewAggregator creates an Aggregator.
func NewAggregator(r store.Reader) *Aggregator {
	return &Aggregator{store: r}
}

// Movements returns the ledger of one account within period.
func (a *Aggregator) Movements(ctx context.Context, tenant model.TenantID, accountID int64, period model.Period) (AccountLedger, error) {
	acct, err := a.store.GetAccount(ctx, tenant, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return AccountLedger{}, &model.NotFoundError{Resource: "account", ID: accountID}
	}
	if err != nil {
		return AccountLedger{}, fmt.Errorf("loading account %d: %w", accountID, err)
	}

	lines, err := a.store.PostedLines(ctx, tenant, store.LineFilter{Period: period, AccountID: accountID})
	if err != nil {
		return AccountLedger{}, fmt.Errorf("loading lines: %w", err)
	}

	class := classify.Account(acct)
	moves := Replay(class.Side, lines)
	closing := decimal.Zero
	if len(moves) > 0 {
		closing = moves[len(moves)-1].Balance
	}
	return AccountLedger{Account: acct, Class: class, Movements: moves, Closing: closing}, nil
}

// Positions returns one position per account of the tenant, including
// accounts without movement, ordered by account id.
func (a *Aggregator) Positions(ctx context.Context, tenant model.TenantID, period model.Period) ([]Position, error) {
	accts, err := a.store.ListAccounts(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	lines, err := a.store.PostedLines(ctx, tenant, store.LineFilter{Period: period})
	if err != nil {
		return nil, fmt.Errorf("loading lines: %w", err)
	}
	return Accumulate(accts, lines), nil
}

// Balances returns the signed balance of every account within period.
func (a *Aggregator) Balances(ctx context.Context, tenant model.TenantID, period model.Period) (map[int64]decimal.Decimal, error) {
	positions, err := a.Positions(ctx, tenant, period)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]decimal.Decimal, len(positions))
	for _, p := range positions {
		out[p.Account.ID] = p.Balance
	}
	return out, nil
}

// Replay accumulates the lines of one account whose normal side is side.
// Lines must already be in replay order.
func Replay(side model.Side, lines []model.PostedLine) []Movement {
	moves := make([]Movement, 0, len(lines))
	balance := decimal.Zero
	for _, l := range lines {
		m := Movement{
			Date:        l.Date,
			EntryID:     l.EntryID,
			EntryNumber: l.EntryNumber,
			Memo:        l.Memo,
			Debit:       decimal.Zero,
			Credit:      decimal.Zero,
		}
		if l.Side == model.SideDebit {
			m.Debit = l.Amount
		} else {
			m.Credit = l.Amount
		}
		balance = apply(balance, side, l)
		m.Balance = balance
		moves = append(moves, m)
	}
	return moves
}

// Accumulate folds lines into per-account positions without keeping history.
// Lines of accounts missing from accts are ignored.
func Accumulate(accts []model.Account, lines []model.PostedLine) []Position {
	positions := make([]Position, len(accts))
	byID := make(map[int64]*Position, len(accts))
	for i, acct := range accts {
		positions[i] = Position{
			Account: acct,
			Class:   classify.Account(acct),
			Debit:   decimal.Zero,
			Credit:  decimal.Zero,
			Balance: decimal.Zero,
		}
		byID[acct.ID] = &positions[i]
	}

	for _, l := range lines {
		p, ok := byID[l.AccountID]
		if !ok {
			continue
		}
		if l.Side == model.SideDebit {
			p.Debit = p.Debit.Add(l.Amount)
		} else {
			p.Credit = p.Credit.Add(l.Amount)
		}
		p.Balance = apply(p.Balance, p.Class.Side, l)
	}

	sort.Slice(positions, func(i, j int) bool { return positions[i].Account.ID < positions[j].Account.ID })
	return positions
}

func apply(balance decimal.Decimal, normal model.Side, l model.PostedLine) decimal.Decimal {
	if l.Side == normal {
		return balance.Add(l.Amount)
	}
	return balance.Sub(l.Amount)
}
