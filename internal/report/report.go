// Package report derives financial statements from ledger positions.
//
// Every statement is a pure function of the positions of one tenant over one
// period; the Builder only adds the single read that produces them.
package report

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/partida-dev/partida/internal/classify"
	"github.com/partida-dev/partida/internal/ledger"
	"github.com/partida-dev/partida/internal/model"
)

// Tolerance is the largest trial-balance difference still reported as
// balanced.
var Tolerance = decimal.New(5, -3)

// ratioPlaces is the scale ratios are rounded to.
const ratioPlaces = 4

// TrialBalanceRow is one account of the trial balance.
type TrialBalanceRow struct {
	AccountID   int64           `json:"account_id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory"`
	Bucket      model.Bucket    `json:"bucket"`
	NormalSide  model.Side      `json:"normal_side"`
	GrossDebit  decimal.Decimal `json:"gross_debit"`
	GrossCredit decimal.Decimal `json:"gross_credit"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// TrialBalance lists every account, sorted by name. Accounts without
// movement show zero in both columns.
type TrialBalance struct {
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
	Balanced    bool              `json:"balanced"`
}

// StatementLine is one account's contribution to a statement total.
type StatementLine struct {
	AccountID int64           `json:"account_id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
}

// IncomeStatement summarises revenue and expense.
type IncomeStatement struct {
	Revenue      decimal.Decimal `json:"revenue"`
	Expense      decimal.Decimal `json:"expense"`
	CostOfSales  decimal.Decimal `json:"cost_of_sales"`
	Profit       decimal.Decimal `json:"profit"`
	RevenueLines []StatementLine `json:"revenue_lines"`
	ExpenseLines []StatementLine `json:"expense_lines"`
}

// BalanceSheet reports asset, liability and equity totals. Check is
// liabilities + equity + profit and is not forced to equal Assets.
type BalanceSheet struct {
	Assets      decimal.Decimal `json:"assets"`
	Liabilities decimal.Decimal `json:"liabilities"`
	Equity      decimal.Decimal `json:"equity"`
	Profit      decimal.Decimal `json:"profit"`
	Check       decimal.Decimal `json:"check_total"`
	Balanced    bool            `json:"balanced"`
}

// EquityGroup is one (category, subcategory) group of the position statement.
type EquityGroup struct {
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory"`
	Amount      decimal.Decimal `json:"amount"`
	Accounts    []StatementLine `json:"accounts"`
}

// EquityStatement groups every account by category and subcategory.
type EquityStatement struct {
	Groups []EquityGroup   `json:"groups"`
	Total  decimal.Decimal `json:"total"`
}

// Ratio is a quotient that is undefined when its denominator is zero.
type Ratio struct {
	Value   decimal.Decimal
	Defined bool
}

// Divide returns num/den, or an undefined Ratio when den is zero.
func Divide(num, den decimal.Decimal) Ratio {
	if den.IsZero() {
		return Ratio{}
	}
	return Ratio{Value: num.DivRound(den, ratioPlaces), Defined: true}
}

func (r Ratio) String() string {
	if !r.Defined {
		return "undefined"
	}
	return r.Value.StringFixed(ratioPlaces)
}

// MarshalJSON encodes an undefined ratio as null.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// Ratios are the financial ratios derived from the statements.
type Ratios struct {
	Liquidity Ratio `json:"liquidity"`
	Solvency  Ratio `json:"solvency"`
	Leverage  Ratio `json:"leverage"`
	CostRatio Ratio `json:"cost_ratio"`
	Return    Ratio `json:"return_ratio"`
}

// Bundle holds every statement computed from one set of positions.
type Bundle struct {
	Period  model.Period    `json:"-"`
	Trial   TrialBalance    `json:"trial_balance"`
	Income  IncomeStatement `json:"income_statement"`
	Balance BalanceSheet    `json:"balance_sheet"`
	Equity  EquityStatement `json:"equity_statement"`
	Ratios  Ratios          `json:"ratios"`
}

// BuildTrialBalance splits each balance into the debit or credit column.
// A balance on the normal side lands in the normal column; a negative one
// lands in the opposite column as a positive amount.
func BuildTrialBalance(positions []ledger.Position) TrialBalance {
	tb := TrialBalance{TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	for _, p := range positions {
		row := TrialBalanceRow{
			AccountID:   p.Account.ID,
			Name:        p.Account.Name,
			Category:    p.Account.Category,
			Subcategory: p.Account.Subcategory,
			Bucket:      p.Class.Bucket,
			NormalSide:  p.Class.Side,
			GrossDebit:  p.Debit,
			GrossCredit: p.Credit,
			Debit:       decimal.Zero,
			Credit:      decimal.Zero,
		}
		column := p.Class.Side
		if p.Balance.IsNegative() {
			column = column.Opposite()
		}
		if column == model.SideDebit {
			row.Debit = p.Balance.Abs()
		} else {
			row.Credit = p.Balance.Abs()
		}
		tb.TotalDebit = tb.TotalDebit.Add(row.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(row.Credit)
		tb.Rows = append(tb.Rows, row)
	}

	sort.SliceStable(tb.Rows, func(i, j int) bool {
		a, b := strings.ToLower(tb.Rows[i].Name), strings.ToLower(tb.Rows[j].Name)
		if a != b {
			return a < b
		}
		return tb.Rows[i].AccountID < tb.Rows[j].AccountID
	})
	tb.Balanced = tb.TotalDebit.Sub(tb.TotalCredit).Abs().LessThan(Tolerance)
	return tb
}

// BuildIncomeStatement totals the revenue and expense buckets.
func BuildIncomeStatement(positions []ledger.Position) IncomeStatement {
	is := IncomeStatement{
		Revenue:     decimal.Zero,
		Expense:     decimal.Zero,
		CostOfSales: decimal.Zero,
	}
	for _, p := range positions {
		line := StatementLine{AccountID: p.Account.ID, Name: p.Account.Name, Amount: p.Balance}
		switch p.Class.Bucket {
		case model.BucketRevenue:
			is.Revenue = is.Revenue.Add(p.Balance)
			is.RevenueLines = append(is.RevenueLines, line)
		case model.BucketExpense:
			is.Expense = is.Expense.Add(p.Balance)
			is.ExpenseLines = append(is.ExpenseLines, line)
			if classify.IsCostOfSales(p.Account) {
				is.CostOfSales = is.CostOfSales.Add(p.Balance)
			}
		}
	}
	is.Profit = is.Revenue.Sub(is.Expense)
	return is
}

// BuildBalanceSheet totals the asset, liability and equity buckets.
func BuildBalanceSheet(positions []ledger.Position, profit decimal.Decimal) BalanceSheet {
	bs := BalanceSheet{
		Assets:      decimal.Zero,
		Liabilities: decimal.Zero,
		Equity:      decimal.Zero,
		Profit:      profit,
	}
	for _, p := range positions {
		switch p.Class.Bucket {
		case model.BucketAsset:
			bs.Assets = bs.Assets.Add(p.Balance)
		case model.BucketLiability:
			bs.Liabilities = bs.Liabilities.Add(p.Balance)
		case model.BucketEquity:
			bs.Equity = bs.Equity.Add(p.Balance)
		}
	}
	bs.Check = bs.Liabilities.Add(bs.Equity).Add(profit)
	bs.Balanced = bs.Check.Equal(bs.Assets)
	return bs
}

// BuildEquityStatement groups accounts by category and subcategory compared
// case-insensitively. Each group shows the text of its first account and
// the sum of its members' absolute balances.
func BuildEquityStatement(positions []ledger.Position) EquityStatement {
	type key struct{ cat, sub string }
	index := make(map[key]int)
	var groups []EquityGroup
	var keys []key

	total := decimal.Zero
	for _, p := range positions {
		k := key{strings.ToUpper(strings.TrimSpace(p.Account.Category)), strings.ToUpper(strings.TrimSpace(p.Account.Subcategory))}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			keys = append(keys, k)
			groups = append(groups, EquityGroup{
				Category:    p.Account.Category,
				Subcategory: p.Account.Subcategory,
				Amount:      decimal.Zero,
			})
		}
		amount := p.Balance.Abs()
		groups[i].Amount = groups[i].Amount.Add(amount)
		groups[i].Accounts = append(groups[i].Accounts, StatementLine{AccountID: p.Account.ID, Name: p.Account.Name, Amount: amount})
		total = total.Add(amount)
	}

	order := make([]int, len(groups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ka, kb := keys[order[a]], keys[order[b]]
		if ka.cat != kb.cat {
			return ka.cat < kb.cat
		}
		return ka.sub < kb.sub
	})

	es := EquityStatement{Total: total, Groups: make([]EquityGroup, len(groups))}
	for i, gi := range order {
		es.Groups[i] = groups[gi]
	}
	return es
}

// BuildRatios derives the ratios from the statements and the current
// subsets of the positions.
func BuildRatios(positions []ledger.Position, is IncomeStatement, bs BalanceSheet) Ratios {
	currentAssets, currentLiabilities := decimal.Zero, decimal.Zero
	for _, p := range positions {
		switch {
		case classify.IsCurrentAsset(p.Account):
			currentAssets = currentAssets.Add(p.Balance)
		case classify.IsCurrentLiability(p.Account):
			currentLiabilities = currentLiabilities.Add(p.Balance)
		}
	}
	return Ratios{
		Liquidity: Divide(currentAssets, currentLiabilities),
		Solvency:  Divide(bs.Assets, bs.Liabilities),
		Leverage:  Divide(bs.Liabilities, bs.Equity),
		CostRatio: Divide(is.CostOfSales, is.Revenue),
		Return:    Divide(is.Profit, bs.Equity),
	}
}

// Build computes every statement from one set of positions.
func Build(positions []ledger.Position, period model.Period) Bundle {
	is := BuildIncomeStatement(positions)
	bs := BuildBalanceSheet(positions, is.Profit)
	return Bundle{
		Period:  period,
		Trial:   BuildTrialBalance(positions),
		Income:  is,
		Balance: bs,
		Equity:  BuildEquityStatement(positions),
		Ratios:  BuildRatios(positions, is, bs),
	}
}

// PositionSource produces ledger positions for a tenant.
type PositionSource interface {
	Positions(ctx context.Context, tenant model.TenantID, period model.Period) ([]ledger.Position, error)
}

// LedgerSource produces one account's movements.
type LedgerSource interface {
	Movements(ctx context.Context, tenant model.TenantID, accountID int64, period model.Period) (ledger.AccountLedger, error)
}

// Builder reads positions once per call and derives statements from them.
type Builder struct {
	positions PositionSource
	ledgers   LedgerSource
}

// NewBuilder creates a Builder over an aggregator.
func NewBuilder(agg *ledger.Aggregator) *Builder {
	return &Builder{positions: agg, ledgers: agg}
}

func (b *Builder) load(ctx context.Context, tenant model.TenantID, period model.Period) ([]ledger.Position, error) {
	return b.positions.Positions(ctx, tenant, period)
}

// TrialBalance returns the tenant's trial balance for period.
func (b *Builder) TrialBalance(ctx context.Context, tenant model.TenantID, period model.Period) (TrialBalance, error) {
	ps, err := b.load(ctx, tenant, period)
	if err != nil {
		return TrialBalance{}, err
	}
	return BuildTrialBalance(ps), nil
}

// AccountLedger returns one account's movements and closing balance.
func (b *Builder) AccountLedger(ctx context.Context, tenant model.TenantID, accountID int64, period model.Period) (ledger.AccountLedger, error) {
	return b.ledgers.Movements(ctx, tenant, accountID, period)
}

// IncomeStatement returns the tenant's income statement for period.
func (b *Builder) IncomeStatement(ctx context.Context, tenant model.TenantID, period model.Period) (IncomeStatement, error) {
	ps, err := b.load(ctx, tenant, period)
	if err != nil {
		return IncomeStatement{}, err
	}
	return BuildIncomeStatement(ps), nil
}

// BalanceSheet returns the tenant's balance sheet for period.
func (b *Builder) BalanceSheet(ctx context.Context, tenant model.TenantID, period model.Period) (BalanceSheet, error) {
	ps, err := b.load(ctx, tenant, period)
	if err != nil {
		return BalanceSheet{}, err
	}
	return BuildBalanceSheet(ps, BuildIncomeStatement(ps).Profit), nil
}

// EquityStatement returns the tenant's grouped position statement.
func (b *Builder) EquityStatement(ctx context.Context, tenant model.TenantID, period model.Period) (EquityStatement, error) {
	ps, err := b.load(ctx, tenant, period)
	if err != nil {
		return EquityStatement{}, err
	}
	return BuildEquityStatement(ps), nil
}

// Ratios returns the tenant's financial ratios for period.
func (b *Builder) Ratios(ctx context.Context, tenant model.TenantID, period model.Period) (Ratios, error) {
	ps, err := b.load(ctx, tenant, period)
	if err != nil {
		return Ratios{}, err
	}
	is := BuildIncomeStatement(ps)
	return BuildRatios(ps, is, BuildBalanceSheet(ps, is.Profit)), nil
}

// All returns every statement computed from a single read.
func (b *Builder) All(ctx context.Context, tenant model.TenantID, period model.Period) (Bundle, error) {
	ps, err := b.load(ctx, tenant, period)
	if err != nil {
		return Bundle{}, err
	}
	return Build(ps, period), nil
}
