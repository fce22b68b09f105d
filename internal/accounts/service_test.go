package accounts

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partida-dev/partida/internal/model"
	"github.com/partida-dev/partida/internal/store"
)

func newTestService() (*Service, *store.Memory) {
	st := store.NewMemory()
	return NewService(st, zerolog.Nop()), st
}

func TestCreateAccount(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	a, err := svc.CreateAccount(ctx, 1, Draft{Name: "  Caja ", Category: "Activo", Subcategory: "Activo Corriente"})
	require.NoError(t, err)
	assert.NotZero(t, a.ID)
	assert.Equal(t, "Caja", a.Name)
	require.NotNil(t, a.CategoryCode)
	assert.Equal(t, 1, *a.CategoryCode)
	require.NotNil(t, a.SubcategoryCode)
	assert.Equal(t, "1.1", *a.SubcategoryCode)

	got, err := svc.Get(ctx, 1, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = svc.Get(ctx, 2, a.ID)
	var nf *model.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestCreateAccount_NoCodes(t *testing.T) {
	svc, _ := newTestService()
	a, err := svc.CreateAccount(context.Background(), 1, Draft{Name: "Varios"})
	require.NoError(t, err)
	assert.Nil(t, a.CategoryCode)
	assert.Nil(t, a.SubcategoryCode)
}

func TestCreateAccount_NameRequired(t *testing.T) {
	svc, st := newTestService()
	_, err := svc.CreateAccount(context.Background(), 1, Draft{Name: "   ", Category: "Activo"})
	var verrs model.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has(model.RuleRequired))
	assert.Equal(t, "name", verrs[0].Field)

	accts, err := st.ListAccounts(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, accts)
}

func TestCreateAccount_DuplicateName(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.CreateAccount(ctx, 1, Draft{Name: "Caja"})
	require.NoError(t, err)

	_, err = svc.CreateAccount(ctx, 1, Draft{Name: "CAJA"})
	var cerr *model.ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, model.ConflictDuplicateName, cerr.Kind)
	assert.False(t, cerr.Retryable())

	// Names are scoped by tenant.
	_, err = svc.CreateAccount(ctx, 2, Draft{Name: "Caja"})
	require.NoError(t, err)
}

func TestDeleteAccount_InUse(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()

	caja, err := svc.CreateAccount(ctx, 1, Draft{Name: "Caja", Category: "Activo"})
	require.NoError(t, err)
	ventas, err := svc.CreateAccount(ctx, 1, Draft{Name: "Ventas", Category: "Ingresos"})
	require.NoError(t, err)

	e := model.Entry{
		TenantID: 1,
		Number:   1,
		Lines: []model.Line{
			{AccountID: caja.ID, Side: model.SideDebit, Amount: decimal.NewFromInt(100)},
			{AccountID: ventas.ID, Side: model.SideCredit, Amount: decimal.NewFromInt(100)},
		},
	}
	require.NoError(t, st.WithTx(ctx, func(tx store.Tx) error { return tx.InsertEntry(ctx, &e) }))

	err = svc.DeleteAccount(ctx, 1, caja.ID)
	var cerr *model.ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, model.ConflictInUse, cerr.Kind)

	require.NoError(t, st.WithTx(ctx, func(tx store.Tx) error { return tx.DeleteEntry(ctx, 1, e.ID) }))
	require.NoError(t, svc.DeleteAccount(ctx, 1, caja.ID))

	err = svc.DeleteAccount(ctx, 1, caja.ID)
	var nf *model.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "account", nf.Resource)
}

func TestDeleteAccount_OtherTenant(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	a, err := svc.CreateAccount(ctx, 1, Draft{Name: "Caja"})
	require.NoError(t, err)

	var nf *model.NotFoundError
	require.ErrorAs(t, svc.DeleteAccount(ctx, 2, a.ID), &nf)

	accts, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, accts, 1)
}

func TestProvision(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	accts, err := svc.Provision(ctx, 1, "ar_basico")
	require.NoError(t, err)
	tmpl, _ := Template("ar_basico", 1)
	require.Len(t, accts, len(tmpl))
	for _, a := range accts {
		assert.NotZero(t, a.ID)
		assert.NotNil(t, a.CategoryCode, a.Name)
		assert.NotNil(t, a.SubcategoryCode, a.Name)
	}

	listed, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, listed, len(tmpl))

	_, err = svc.Provision(ctx, 1, "us_basic")
	var cerr *model.ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, model.ConflictProvisioned, cerr.Kind)

	_, err = svc.Provision(ctx, 2, "us_basic")
	require.NoError(t, err)
}

func TestProvision_UnknownTemplate(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Provision(context.Background(), 1, "fr_pcg")
	var verrs model.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has(model.RuleTemplate))
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	accts, err := svc.Import(ctx, 1, []Draft{
		{Name: "Caja", Category: "Activo"},
		{Name: "Ventas", Category: "Ingresos"},
	})
	require.NoError(t, err)
	require.Len(t, accts, 2)
	assert.NotZero(t, accts[1].ID)

	_, err = svc.Import(ctx, 1, []Draft{{Name: "Banco"}, {Name: "caja"}})
	var cerr *model.ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, model.ConflictDuplicateName, cerr.Kind)

	listed, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, listed, 2, "a failed import creates nothing")

	_, err = svc.Import(ctx, 1, []Draft{{Name: "Banco"}, {Name: ""}})
	var verrs model.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, 1, verrs[0].Line)
}
