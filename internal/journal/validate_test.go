package journal

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partida-dev/partida/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func draft(lines ...model.LineDraft) model.EntryDraft {
	return model.EntryDraft{
		TenantID: 1,
		Date:     date(2024, 3, 1),
		Memo:     "venta contado",
		Lines:    lines,
	}
}

func debit(account int64, amount string) model.LineDraft {
	return model.LineDraft{AccountID: account, Side: "debit", Amount: amount}
}

func credit(account int64, amount string) model.LineDraft {
	return model.LineDraft{AccountID: account, Side: "credit", Amount: amount}
}

// mockAccounts implements AccountResolver for testing.
type mockAccounts struct {
	accounts map[int64]model.Account
	calls    int
}

func (m *mockAccounts) AccountsByID(_ context.Context, tenant model.TenantID, ids []int64) (map[int64]model.Account, error) {
	m.calls++
	out := make(map[int64]model.Account)
	for _, id := range ids {
		if a, ok := m.accounts[id]; ok && a.TenantID == tenant {
			out[id] = a
		}
	}
	return out, nil
}

func newMockAccounts(tenant model.TenantID, ids ...int64) *mockAccounts {
	m := &mockAccounts{accounts: make(map[int64]model.Account)}
	for _, id := range ids {
		m.accounts[id] = model.Account{ID: id, TenantID: tenant}
	}
	return m
}

func TestValidate_Balanced(t *testing.T) {
	lines, err := Validate(draft(debit(1, "100.00"), credit(2, "100.00")))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, model.SideDebit, lines[0].Side)
	assert.True(t, lines[0].Amount.Equal(dec("100")))
	assert.Equal(t, model.SideCredit, lines[1].Side)
}

func TestValidate_SplitLines(t *testing.T) {
	lines, err := Validate(draft(
		debit(1, "0.10"),
		debit(1, "0.20"),
		credit(2, "0.30"),
	))
	require.NoError(t, err)
	assert.Len(t, lines, 3)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		draft model.EntryDraft
		rule  string
		line  int
	}{
		{"single line", draft(debit(1, "100")), model.RuleMinLines, -1},
		{"no lines", draft(), model.RuleMinLines, -1},
		{"unbalanced", draft(debit(1, "50.00"), credit(2, "30.00")), model.RuleUnbalanced, -1},
		{"zero amount", draft(debit(1, "0"), credit(2, "0")), model.RuleAmountPositive, 0},
		{"negative amount", draft(debit(1, "-10"), credit(2, "10")), model.RuleAmountPositive, 0},
		{"malformed amount", draft(debit(1, "10"), credit(2, "ten")), model.RuleAmountFormat, 1},
		{"three decimals", draft(debit(1, "10.005"), credit(2, "10.005")), model.RuleAmountScale, 0},
		{"uppercase side", draft(debit(1, "10"), model.LineDraft{AccountID: 2, Side: "Credit", Amount: "10"}), model.RuleSide, 1},
		{"spanish side", draft(debit(1, "10"), model.LineDraft{AccountID: 2, Side: "haber", Amount: "10"}), model.RuleSide, 1},
		{"missing account", draft(debit(0, "10"), credit(2, "10")), model.RuleRequired, 0},
		{"exponent notation", draft(debit(1, "1e300000000"), credit(2, "1e300000000")), model.RuleAmountFormat, 0},
		{"small exponent", draft(debit(1, "1E2"), credit(2, "100")), model.RuleAmountFormat, 0},
		{"eleven integer digits", draft(debit(1, "12345678901.00"), credit(2, "12345678901.00")), model.RuleAmountRange, 0},
		{"fifteen integer digits", draft(debit(1, "10"), credit(2, "123456789012345.00")), model.RuleAmountRange, 1},
		{"overlong text", draft(debit(1, "1."+strings.Repeat("0", 40)), credit(2, "1")), model.RuleAmountFormat, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := Validate(tt.draft)
			assert.Nil(t, lines)
			var verrs model.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			require.True(t, verrs.Has(tt.rule), "want rule %s in %v", tt.rule, verrs)
			found := false
			for _, ve := range verrs {
				if ve.Rule == tt.rule && ve.Line == tt.line {
					found = true
				}
			}
			assert.True(t, found, "want rule %s on line %d", tt.rule, tt.line)
		})
	}
}

func TestValidate_AmountBounds(t *testing.T) {
	lines, err := Validate(draft(debit(1, "9999999999.99"), credit(2, "9999999999.99")))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.True(t, lines[0].Amount.Equal(dec("9999999999.99")))

	lines, err = Validate(draft(debit(1, " +100.000 "), credit(2, "100")))
	require.NoError(t, err)
	assert.Equal(t, "100.00", lines[0].Amount.StringFixed(2))

	_, err = Validate(draft(debit(1, "10000000000"), credit(2, "10000000000")))
	var verrs model.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has(model.RuleAmountRange))
}

func TestValidate_MissingDate(t *testing.T) {
	d := draft(debit(1, "10"), credit(2, "10"))
	d.Date = time.Time{}
	_, err := Validate(d)
	var verrs model.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has(model.RuleRequired))
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	_, err := Validate(draft(debit(1, "abc"), model.LineDraft{AccountID: 2, Side: "x", Amount: "-1"}))
	var verrs model.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has(model.RuleAmountFormat))
	assert.True(t, verrs.Has(model.RuleSide))
	assert.True(t, verrs.Has(model.RuleAmountPositive))
	assert.False(t, verrs.Has(model.RuleUnbalanced), "sums are skipped when a line is invalid")
}

func TestCheckAccounts(t *testing.T) {
	accts := newMockAccounts(1, 1, 2)
	accts.accounts[3] = model.Account{ID: 3, TenantID: 2}

	lines, err := Validate(draft(debit(1, "10"), debit(1, "5"), credit(2, "15")))
	require.NoError(t, err)
	require.NoError(t, CheckAccounts(context.Background(), accts, 1, lines))
	assert.Equal(t, 1, accts.calls, "accounts are resolved in one lookup")

	lines, err = Validate(draft(debit(1, "10"), credit(3, "10")))
	require.NoError(t, err)
	err = CheckAccounts(context.Background(), accts, 1, lines)
	var rerr *model.ReferenceError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 1, rerr.Line)
	assert.Equal(t, int64(3), rerr.AccountID)
	assert.Equal(t, model.TenantID(1), rerr.TenantID)
}
