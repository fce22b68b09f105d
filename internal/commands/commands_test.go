package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/partida-dev/partida/internal/config"
	"github.com/partida-dev/partida/internal/model"
	"github.com/partida-dev/partida/internal/store"
)

// run executes the CLI against st and returns stdout and stderr.
func run(t *testing.T, st store.Store, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand(func(*config.Config, zerolog.Logger) (store.Store, io.Closer, error) {
		return st, io.NopCloser(nil), nil
	})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// workspace writes a memory-driver config in USD and returns its path.
func workspace(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "partida.yaml")
	_, _, err := run(t, store.NewMemory(), "init", path, "--driver", "memory", "--currency", "USD")
	require.NoError(t, err)
	return path
}

func accountID(t *testing.T, st store.Store, tenant model.TenantID, name string) int64 {
	t.Helper()
	accts, err := st.ListAccounts(context.Background(), tenant)
	require.NoError(t, err)
	for _, a := range accts {
		if a.Name == name {
			return a.ID
		}
	}
	t.Fatalf("account %q not found", name)
	return 0
}

func TestRequiresTenant(t *testing.T) {
	cfg := workspace(t)
	_, _, err := run(t, store.NewMemory(), "--config", cfg, "account", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--tenant")
}

func TestMigrate_Memory(t *testing.T) {
	cfg := workspace(t)
	out, _, err := run(t, store.NewMemory(), "--config", cfg, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "has no schema")
}

func TestWorkflow(t *testing.T) {
	cfg := workspace(t)
	st := store.NewMemory()
	dir := t.TempDir()
	cli := func(args ...string) string {
		t.Helper()
		out, _, err := run(t, st, append([]string{"--config", cfg, "--tenant", "1", "--user", "9"}, args...)...)
		require.NoError(t, err, "partida %v", args)
		return out
	}

	out := cli("tenant", "provision")
	assert.Contains(t, out, "Provisioned 17 accounts from ar_basico")

	out = cli("account", "list")
	assert.Contains(t, out, "Caja")
	assert.Contains(t, out, "asset")

	cash := accountID(t, st, 1, "Caja")
	capital := accountID(t, st, 1, "Capital Social")
	sales := accountID(t, st, 1, "Ventas")

	out = cli("entry", "add", "--date", "2024-01-01", "--memo", "Aporte",
		"--line", fmt.Sprintf("%d:debit:1000", cash),
		"--line", fmt.Sprintf("%d:credit:1000.00", capital))
	assert.Contains(t, out, "Posted entry 000001")

	cli("entry", "add", "--date", "2024-02-10", "--memo", "Venta",
		"--line", fmt.Sprintf("%d:debit:250.50", cash),
		"--line", fmt.Sprintf("%d:credit:250.50", sales))

	out = cli("entry", "list")
	assert.Contains(t, out, "000002a")
	assert.Contains(t, out, "$1,000.00")

	out = cli("report", "trial-balance")
	assert.Contains(t, out, "$1,250.50")
	assert.NotContains(t, out, "WARNING")

	out = cli("report", "trial-balance", "--to", "2024-01-31", "--format", "csv")
	assert.Contains(t, out, "account_id,name")
	assert.Contains(t, out, fmt.Sprintf("%d,Ventas,", sales), "accounts without movement are listed")
	assert.Contains(t, out, ",0.00,0.00,,")

	out = cli("report", "ledger", fmt.Sprint(cash))
	assert.Contains(t, out, "CLOSING")
	assert.Contains(t, out, "$1,250.50")

	out = cli("report", "income")
	assert.Contains(t, out, "PROFIT")
	assert.Contains(t, out, "$250.50")

	out = cli("report", "balance-sheet")
	assert.Contains(t, out, "true")

	out = cli("report", "ratios")
	assert.Contains(t, out, "undefined", "no current liabilities")

	out = cli("report", "equity", "--format", "json")
	assert.Contains(t, out, `"groups"`)

	xlsx := filepath.Join(dir, "reports.xlsx")
	cli("report", "export", "-o", xlsx)
	f, err := excelize.OpenFile(xlsx)
	require.NoError(t, err)
	assert.Contains(t, f.GetSheetList(), "Balance Sheet")
	require.NoError(t, f.Close())

	csvPath := filepath.Join(dir, "entries.csv")
	cli("entry", "export", "--to", "2024-01-31", "-o", csvPath)
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "000001a")

	out = cli("entry", "import", csvPath)
	assert.Contains(t, out, "Imported 1 entries")

	entries, err := st.ListEntries(context.Background(), 1, model.Period{}, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	imported := entries[1]
	assert.Equal(t, int64(3), imported.Number, "imported entries are renumbered")
	assert.Equal(t, "Aporte", imported.Memo)
	assert.Equal(t, int64(9), imported.AuthorID)

	cli("entry", "delete", fmt.Sprint(imported.ID))
	_, _, err = run(t, st, "--config", cfg, "--tenant", "1", "entry", "delete", fmt.Sprint(imported.ID))
	var nf *model.NotFoundError
	require.True(t, errors.As(err, &nf))
}

func TestEntryAdd_Rejected(t *testing.T) {
	cfg := workspace(t)
	st := store.NewMemory()
	_, _, err := run(t, st, "--config", cfg, "--tenant", "1", "tenant", "provision")
	require.NoError(t, err)
	cash := accountID(t, st, 1, "Caja")
	capital := accountID(t, st, 1, "Capital Social")

	_, _, err = run(t, st, "--config", cfg, "--tenant", "1", "entry", "add",
		"--line", fmt.Sprintf("%d:debit:100", cash),
		"--line", fmt.Sprintf("%d:credit:90", capital))
	var verrs model.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.True(t, verrs.Has(model.RuleUnbalanced))

	_, _, err = run(t, st, "--config", cfg, "--tenant", "1", "entry", "add", "--line", "x:debit:1")
	require.Error(t, err)

	_, _, err = run(t, st, "--config", cfg, "--tenant", "1", "account", "delete", fmt.Sprint(cash))
	require.NoError(t, err, "the rejected entry left no lines behind")
}

func TestAccountImportExport(t *testing.T) {
	cfg := workspace(t)
	st := store.NewMemory()
	dir := t.TempDir()

	_, _, err := run(t, st, "--config", cfg, "--tenant", "2", "account", "add", "Banco", "--category", "Activo", "--subcategory", "Activo Corriente")
	require.NoError(t, err)

	path := filepath.Join(dir, "accounts.csv")
	_, _, err = run(t, st, "--config", cfg, "--tenant", "2", "account", "export", "-o", path)
	require.NoError(t, err)

	out, _, err := run(t, st, "--config", cfg, "--tenant", "3", "account", "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 accounts")

	accts, err := st.ListAccounts(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, accts, 1)
	assert.Equal(t, "Banco", accts[0].Name)
	require.NotNil(t, accts[0].SubcategoryCode)
	assert.Equal(t, "1.1", *accts[0].SubcategoryCode)
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		in      string
		want    model.LineDraft
		wantErr bool
	}{
		{in: "3:debit:100.50", want: model.LineDraft{AccountID: 3, Side: "debit", Amount: "100.50"}},
		{in: "3:credit:", want: model.LineDraft{AccountID: 3, Side: "credit"}},
		{in: "3:debit", wantErr: true},
		{in: "abc:debit:1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLine(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$1,234.50", formatAmount(decimal.RequireFromString("1234.5"), "USD"))
	assert.Equal(t, "$0.00", formatAmount(decimal.Zero, "USD"))
	assert.Equal(t, "12.30", formatAmount(decimal.RequireFromString("12.3"), "ZZZ"))
}
