package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/partida-dev/partida/internal/accounts"
	"github.com/partida-dev/partida/internal/config"
	"github.com/partida-dev/partida/internal/journal"
	"github.com/partida-dev/partida/internal/ledger"
	"github.com/partida-dev/partida/internal/model"
	"github.com/partida-dev/partida/internal/report"
	"github.com/partida-dev/partida/internal/store"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	st := store.NewMemory()
	retry := config.RetryConfig{
		InitialInterval: time.Millisecond,
		MaxInterval:     10 * time.Millisecond,
		MaxElapsed:      5 * time.Second,
	}
	return NewRouter(config.ServerConfig{Mode: gin.TestMode}, zerolog.Nop(), Services{
		Accounts: accounts.NewService(st, zerolog.Nop()),
		Journal:  journal.NewService(st, zerolog.Nop(), retry),
		Reports:  report.NewBuilder(ledger.NewAggregator(st)),
	})
}

func do(t *testing.T, r http.Handler, method, path string, tenant int64, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tenant > 0 {
		req.Header.Set(HeaderTenant, fmt.Sprint(tenant))
		req.Header.Set(HeaderUser, "7")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []FieldError    `json:"errors"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func createAccount(t *testing.T, r http.Handler, tenant int64, name, category, subcategory string) AccountView {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/v1/accounts", tenant, CreateAccountRequest{
		Name: name, Category: category, Subcategory: subcategory,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var a AccountView
	decode(t, w, &a)
	return a
}

func entryBody(date string, lines ...map[string]any) map[string]any {
	return map[string]any{"date": date, "memo": "test", "lines": lines}
}

func line(accountID int64, side string, amount any) map[string]any {
	return map[string]any{"account_id": accountID, "side": side, "amount": amount}
}

func TestTenantHeaderRequired(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/accounts", 0, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/healthz", 0, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAccounts(t *testing.T) {
	r := newTestRouter(t)

	cash := createAccount(t, r, 1, "Caja", "Activo", "Activo Corriente")
	assert.Equal(t, model.SideDebit, cash.NormalSide)
	assert.Equal(t, model.BucketAsset, cash.Bucket)
	require.NotNil(t, cash.SubcategoryCode)
	assert.Equal(t, "1.1", *cash.SubcategoryCode)

	w := do(t, r, http.MethodPost, "/api/v1/accounts", 1, CreateAccountRequest{Name: "Caja", Category: "Activo"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/accounts", 1, CreateAccountRequest{Name: " "})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/accounts/%d", cash.ID), 2, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "other tenants cannot see the account")

	w = do(t, r, http.MethodGet, "/api/v1/accounts", 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []AccountView
	decode(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Caja", list[0].Name)

	w = do(t, r, http.MethodGet, "/api/v1/accounts/abc", 1, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/accounts/%d", cash.ID), 1, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/accounts/%d", cash.ID), 1, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProvision(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/accounts/provision", 1, ProvisionRequest{})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created []AccountView
	decode(t, w, &created)
	tmpl, ok := accounts.Template(accounts.DefaultTemplate, 1)
	require.True(t, ok)
	assert.Len(t, created, len(tmpl))

	w = do(t, r, http.MethodPost, "/api/v1/accounts/provision", 1, ProvisionRequest{})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/accounts/provision", 2, ProvisionRequest{Template: "nope"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	env := decode(t, w, nil)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, model.RuleTemplate, env.Errors[0].Rule)

	w = do(t, r, http.MethodGet, "/api/v1/accounts/export", 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), strings.Join(accounts.Header, ","))
}

func TestEntries(t *testing.T) {
	r := newTestRouter(t)
	cash := createAccount(t, r, 1, "Caja", "Activo", "Activo Corriente")
	capital := createAccount(t, r, 1, "Capital Social", "Patrimonio Neto", "Capital")

	w := do(t, r, http.MethodPost, "/api/v1/entries", 1, entryBody("2024-01-01",
		line(cash.ID, "debit", "1000.00"),
		line(capital.ID, "credit", 1000),
	))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var e EntryView
	decode(t, w, &e)
	assert.Equal(t, int64(1), e.Number)
	assert.Equal(t, "2024-01-01", e.Date)
	assert.Equal(t, int64(7), e.AuthorID)
	require.Len(t, e.Lines, 2)
	assert.True(t, e.Lines[1].Amount.Equal(decimal.NewFromInt(1000)))

	w = do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/entries/%d", e.ID), 1, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/entries/%d", e.ID), 2, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/entries?from=2024-01-01&to=2024-01-31", 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []EntryView
	decode(t, w, &list)
	assert.Len(t, list, 1)

	w = do(t, r, http.MethodGet, "/api/v1/entries/export", 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "000001a")

	w = do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/entries/%d", e.ID), 1, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/entries/%d", e.ID), 1, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateEntry_Rejections(t *testing.T) {
	r := newTestRouter(t)
	cash := createAccount(t, r, 1, "Caja", "Activo", "Activo Corriente")
	capital := createAccount(t, r, 1, "Capital Social", "Patrimonio Neto", "Capital")
	foreign := createAccount(t, r, 2, "Banco", "Activo", "Activo Corriente")

	tests := []struct {
		name   string
		body   map[string]any
		status int
		rule   string
	}{
		{
			name:   "unbalanced",
			body:   entryBody("2024-01-01", line(cash.ID, "debit", "100"), line(capital.ID, "credit", "90")),
			status: http.StatusUnprocessableEntity,
			rule:   model.RuleUnbalanced,
		},
		{
			name:   "bad date",
			body:   entryBody("01/02/2024", line(cash.ID, "debit", "100"), line(capital.ID, "credit", "100")),
			status: http.StatusUnprocessableEntity,
			rule:   model.RuleDate,
		},
		{
			name:   "single line",
			body:   entryBody("2024-01-01", line(cash.ID, "debit", "100")),
			status: http.StatusUnprocessableEntity,
			rule:   model.RuleMinLines,
		},
		{
			name:   "negative amount",
			body:   entryBody("2024-01-01", line(cash.ID, "debit", "-5"), line(capital.ID, "credit", "-5")),
			status: http.StatusUnprocessableEntity,
			rule:   model.RuleAmountPositive,
		},
		{
			name:   "exponent amount",
			body:   entryBody("2024-01-01", line(cash.ID, "debit", "1e300000000"), line(capital.ID, "credit", "1e300000000")),
			status: http.StatusUnprocessableEntity,
			rule:   model.RuleAmountFormat,
		},
		{
			name:   "amount over column range",
			body:   entryBody("2024-01-01", line(cash.ID, "debit", "123456789012345.00"), line(capital.ID, "credit", "123456789012345.00")),
			status: http.StatusUnprocessableEntity,
			rule:   model.RuleAmountRange,
		},
		{
			name:   "foreign account",
			body:   entryBody("2024-01-01", line(foreign.ID, "debit", "100"), line(capital.ID, "credit", "100")),
			status: http.StatusUnprocessableEntity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/v1/entries", 1, tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.rule == "" {
				return
			}
			env := decode(t, w, nil)
			rules := make([]string, len(env.Errors))
			for i, fe := range env.Errors {
				rules[i] = fe.Rule
			}
			assert.Contains(t, rules, tt.rule)
		})
	}

	w := do(t, r, http.MethodGet, "/api/v1/entries", 1, nil)
	var list []EntryView
	decode(t, w, &list)
	assert.Empty(t, list, "rejected entries are never stored")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/entries", bytes.NewBufferString("{"))
	req.Header.Set(HeaderTenant, "1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReports(t *testing.T) {
	r := newTestRouter(t)
	cash := createAccount(t, r, 1, "Caja", "Activo", "Activo Corriente")
	capital := createAccount(t, r, 1, "Capital Social", "Patrimonio Neto", "Capital")
	sales := createAccount(t, r, 1, "Ventas", "Ingresos", "Ingresos (o Ventas)")

	for _, body := range []map[string]any{
		entryBody("2024-01-01", line(cash.ID, "debit", "1000"), line(capital.ID, "credit", "1000")),
		entryBody("2024-02-01", line(cash.ID, "debit", "250.50"), line(sales.ID, "credit", "250.50")),
	} {
		w := do(t, r, http.MethodPost, "/api/v1/entries", 1, body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := do(t, r, http.MethodGet, "/api/v1/reports/trial-balance", 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tb report.TrialBalance
	decode(t, w, &tb)
	assert.True(t, tb.Balanced)
	assert.True(t, tb.TotalDebit.Equal(decimal.RequireFromString("1250.50")))
	assert.Len(t, tb.Rows, 3)

	w = do(t, r, http.MethodGet, "/api/v1/reports/trial-balance?to=2024-01-31", 1, nil)
	tb = report.TrialBalance{}
	decode(t, w, &tb)
	require.Len(t, tb.Rows, 3)
	assert.Equal(t, "Ventas", tb.Rows[2].Name)
	assert.True(t, tb.Rows[2].Debit.IsZero())
	assert.True(t, tb.Rows[2].Credit.IsZero())
	assert.True(t, tb.TotalCredit.Equal(decimal.RequireFromString("1000")))

	w = do(t, r, http.MethodGet, "/api/v1/reports/trial-balance?format=csv", 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), strings.Join(report.TrialBalanceHeader, ","))

	w = do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/reports/ledger/%d", cash.ID), 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var l LedgerView
	decode(t, w, &l)
	require.Len(t, l.Movements, 2)
	assert.True(t, l.Closing.Equal(decimal.RequireFromString("1250.5")))

	w = do(t, r, http.MethodGet, "/api/v1/reports/ledger/999", 1, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/reports/income", 1, nil)
	var is report.IncomeStatement
	decode(t, w, &is)
	assert.True(t, is.Profit.Equal(decimal.RequireFromString("250.5")))

	w = do(t, r, http.MethodGet, "/api/v1/reports/balance-sheet", 1, nil)
	var bs report.BalanceSheet
	decode(t, w, &bs)
	assert.True(t, bs.Balanced)

	w = do(t, r, http.MethodGet, "/api/v1/reports/equity", 1, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/reports/ratios", 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ratios map[string]any
	decode(t, w, &ratios)
	assert.Nil(t, ratios["liquidity"], "no current liabilities")

	w = do(t, r, http.MethodGet, "/api/v1/reports/income?from=bad", 1, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestReportExport(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/reports/export", 3, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "reports-3.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Trial Balance")
}

func TestAmountText(t *testing.T) {
	var v struct {
		A AmountText `json:"a"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"12.50"}`), &v))
	assert.Equal(t, AmountText("12.50"), v.A)
	require.NoError(t, json.Unmarshal([]byte(`{"a":12.5}`), &v))
	assert.Equal(t, AmountText("12.5"), v.A)
	assert.Error(t, json.Unmarshal([]byte(`{"a":true}`), &v))
}
