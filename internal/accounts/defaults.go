package accounts

import (
	"sort"

	"github.com/partida-dev/partida/internal/model"
)

// DefaultTemplate is the chart new tenants receive when none is named.
const DefaultTemplate = "ar_basico"

// TemplateAccount is one row of a chart template.
type TemplateAccount struct {
	Name        string
	Category    string
	Subcategory string
}

var templates = map[string][]TemplateAccount{
	"ar_basico": {
		{"Caja", "Activo", "Activo Corriente"},
		{"Banco Cuenta Corriente", "Activo", "Activo Corriente"},
		{"Deudores por Ventas", "Activo", "Activo Corriente"},
		{"Mercaderías", "Activo", "Activo Corriente"},
		{"Rodados", "Activo", "Activo No Corriente"},
		{"Muebles y Útiles", "Activo", "Activo No Corriente"},
		{"Proveedores", "Pasivo", "Pasivo Corriente"},
		{"Sueldos a Pagar", "Pasivo", "Pasivo Corriente"},
		{"Préstamos Bancarios", "Pasivo", "Pasivo No Corriente"},
		{"Capital Social", "Patrimonio Neto", "Capital"},
		{"Resultados Acumulados", "Patrimonio Neto", "Resultados Acumulados"},
		{"Ventas", "Ingresos", "Ingresos (o Ventas)"},
		{"Intereses Ganados", "Ingresos", "Otros Ingresos"},
		{"Costo de Mercaderías Vendidas", "Egresos", "Costos"},
		{"Sueldos y Jornales", "Egresos", "Gastos de Administración"},
		{"Publicidad", "Egresos", "Gastos de Comercialización"},
		{"Intereses Perdidos", "Egresos", "Gastos Financieros"},
	},
	"us_basic": {
		{"Cash", "Assets", "Current Assets"},
		{"Accounts Receivable", "Assets", "Current Assets"},
		{"Inventory", "Assets", "Current Assets"},
		{"Equipment", "Assets", "Non-current Assets"},
		{"Accounts Payable", "Liabilities", "Current Liabilities"},
		{"Long-term Debt", "Liabilities", "Non-current Liabilities"},
		{"Owner's Capital", "Equity", "Capital"},
		{"Retained Earnings", "Equity", "Retained Earnings"},
		{"Sales Revenue", "Revenue", "Operating Revenue"},
		{"Interest Income", "Revenue", "Other Income"},
		{"Cost of Goods Sold", "Expenses", "Cost of Goods Sold"},
		{"Salaries", "Expenses", "Administrative Expenses"},
		{"Advertising", "Expenses", "Selling Expenses"},
		{"Interest Expense", "Expenses", "Financial Expenses"},
	},
}

// Template returns the accounts of a named chart template for tenant.
// Codes are left for the caller to derive.
func Template(name string, tenant model.TenantID) ([]model.Account, bool) {
	rows, ok := templates[name]
	if !ok {
		return nil, false
	}
	out := make([]model.Account, len(rows))
	for i, r := range rows {
		out[i] = model.Account{
			TenantID:    tenant,
			Name:        r.Name,
			Category:    r.Category,
			Subcategory: r.Subcategory,
		}
	}
	return out, true
}

// TemplateNames lists the available chart templates.
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for n := range templates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
