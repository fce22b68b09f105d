// Package classify maps free-text account labels to a normal side, a
// statement bucket and the category/subcategory codes of the chart.
//
// Matching is a keyword heuristic over lowercase text. Rules are evaluated
// top-down and the first match wins; anything unmatched is debit-normal and
// unclassified.
package classify

import (
	"strings"

	"github.com/partida-dev/partida/internal/model"
)

// Classification is the derived statement placement of an account.
type Classification struct {
	Side   model.Side
	Bucket model.Bucket
}

type bucketRule struct {
	keywords []string
	bucket   model.Bucket
	side     model.Side
	code     int
}

var (
	assetWords     = []string{"asset", "cash", "bank", "receivable", "inventory", "activo", "caja", "banco", "cobrar", "deudores", "inventario"}
	liabilityWords = []string{"liabilit", "payable", "debt", "obligation", "pasivo", "pagar", "deuda", "proveedores", "acreedores"}
	equityWords    = []string{"equity", "capital", "patrimonio", "resultados acumulados", "resultados del ejercicio", "retained"}
	revenueWords   = []string{"revenue", "sales", "income", "ingreso", "venta"}
	expenseWords   = []string{"expense", "cost", "costo", "gasto", "egreso"}
)

var bucketRules = []bucketRule{
	{assetWords, model.BucketAsset, model.SideDebit, 1},
	{liabilityWords, model.BucketLiability, model.SideCredit, 2},
	{equityWords, model.BucketEquity, model.SideCredit, 3},
	{revenueWords, model.BucketRevenue, model.SideCredit, 4},
	{expenseWords, model.BucketExpense, model.SideDebit, 5},
}

// Classify derives the normal side and bucket from category and subcategory.
func Classify(category, subcategory string) Classification {
	text := normalize(category + " " + subcategory)
	for _, r := range bucketRules {
		if containsAny(text, r.keywords) {
			return Classification{Side: r.side, Bucket: r.bucket}
		}
	}
	return Classification{Side: model.SideDebit, Bucket: model.BucketUnclassified}
}

// Account is Classify applied to an account's labels.
func Account(a model.Account) Classification {
	return Classify(a.Category, a.Subcategory)
}

// subRule matches when every group has at least one keyword in the text.
type subRule struct {
	code   string
	groups [][]string
}

var (
	nonCurrentWords = []string{"no corriente", "non-current", "non current", "noncurrent", "long-term", "long term"}
	currentWords    = []string{"corriente", "current"}
)

var subcategoryRules = []subRule{
	{"1.2", [][]string{assetWords, nonCurrentWords}},
	{"1.1", [][]string{assetWords, currentWords}},
	{"1.3", [][]string{assetWords}},
	{"2.2", [][]string{liabilityWords, nonCurrentWords}},
	{"2.1", [][]string{liabilityWords, currentWords}},
	{"2.3", [][]string{liabilityWords}},
	{"3.1", [][]string{{"capital"}}},
	{"3.2", [][]string{{"resultados acumulados", "retained"}}},
	{"3.3", [][]string{{"resultados del ejercicio", "current year", "period result"}}},
	{"4.2", [][]string{{"otros ingresos", "other income"}}},
	{"4.1", [][]string{revenueWords}},
	{"5.2", [][]string{{"administraci", "administrative"}}},
	{"5.3", [][]string{{"comercializaci", "selling", "marketing"}}},
	{"5.4", [][]string{{"financier", "financial", "interest"}}},
	{"5.1", [][]string{{"cost", "costo", "egreso"}}},
}

// AssignCodes maps category text to a numeric code (1 asset … 5 expense)
// and category plus subcategory text to a decimal sub-code such as "1.1".
// Either result is nil when no keyword matches.
func AssignCodes(category, subcategory string) (*int, *string) {
	var catCode *int
	cat := normalize(category)
	for _, r := range bucketRules {
		if containsAny(cat, r.keywords) {
			c := r.code
			catCode = &c
			break
		}
	}

	if strings.TrimSpace(subcategory) == "" {
		return catCode, nil
	}
	text := normalize(category + " " + subcategory)
	for _, r := range subcategoryRules {
		if matchAll(text, r.groups) {
			s := r.code
			return catCode, &s
		}
	}
	return catCode, nil
}

// SubcategoryCode returns the sub-code without the category code.
func SubcategoryCode(category, subcategory string) string {
	_, sub := AssignCodes(category, subcategory)
	if sub == nil {
		return ""
	}
	return *sub
}

// IsCurrentAsset reports whether the account belongs to the current-asset
// subset used by the liquidity ratio.
func IsCurrentAsset(a model.Account) bool {
	return SubcategoryCode(a.Category, a.Subcategory) == "1.1"
}

// IsCurrentLiability reports whether the account belongs to the
// current-liability subset used by the liquidity ratio.
func IsCurrentLiability(a model.Account) bool {
	return SubcategoryCode(a.Category, a.Subcategory) == "2.1"
}

// IsCostOfSales reports whether an expense account is broken out as cost of
// goods sold.
func IsCostOfSales(a model.Account) bool {
	return Account(a).Bucket == model.BucketExpense && strings.Contains(a.Label(), "cost")
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func matchAll(text string, groups [][]string) bool {
	for _, g := range groups {
		if !containsAny(text, g) {
			return false
		}
	}
	return true
}
