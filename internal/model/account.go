package model

import "strings"

// TenantID identifies a company whose books are isolated from every other.
type TenantID int64

// Bucket classifies accounts into financial statement sections.
type Bucket string

const (
	BucketAsset        Bucket = "asset"
	BucketLiability    Bucket = "liability"
	BucketEquity       Bucket = "equity"
	BucketRevenue      Bucket = "revenue"
	BucketExpense      Bucket = "expense"
	BucketUnclassified Bucket = "unclassified"
)

// Side is one of the two columns of a double entry.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// ParseSide accepts exactly "debit" or "credit".
func ParseSide(s string) (Side, bool) {
	switch Side(s) {
	case SideDebit, SideCredit:
		return Side(s), true
	}
	return "", false
}

// Opposite returns the other column.
func (s Side) Opposite() Side {
	if s == SideDebit {
		return SideCredit
	}
	return SideDebit
}

// Account represents one row of a tenant's chart of accounts.
//
// Category and Subcategory are authoritative. CategoryCode and
// SubcategoryCode are derived from them when the account is created and are
// nil when no keyword matched.
type Account struct {
	ID              int64
	TenantID        TenantID
	Name            string
	Category        string
	Subcategory     string
	CategoryCode    *int
	SubcategoryCode *string
}

// Label returns every free-text field of the account, lowercased.
func (a Account) Label() string {
	return strings.ToLower(a.Name + " " + a.Category + " " + a.Subcategory)
}
