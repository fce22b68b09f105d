package model

import (
	"fmt"
	"strings"
)

// Validation rules reported in ValidationError.Rule.
const (
	RuleMinLines       = "min_lines"
	RuleAmountFormat   = "amount_format"
	RuleAmountPositive = "amount_positive"
	RuleAmountScale    = "amount_scale"
	RuleAmountRange    = "amount_range"
	RuleSide           = "side"
	RuleUnbalanced     = "unbalanced"
	RuleRequired       = "required"
	RuleDate           = "date"
	RuleTemplate       = "template"
)

// ValidationError is a caller-fixable problem with submitted data.
// Line is the zero-based line index, or -1 for entry-level problems.
type ValidationError struct {
	Line    int
	Field   string
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Line < 0 {
		return fmt.Sprintf("%s [%s]: %s", e.Field, e.Rule, e.Message)
	}
	return fmt.Sprintf("line %d %s [%s]: %s", e.Line, e.Field, e.Rule, e.Message)
}

// ValidationErrors collects every violation found in one submission.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Has reports whether any violation matches rule.
func (v ValidationErrors) Has(rule string) bool {
	for _, e := range v {
		if e.Rule == rule {
			return true
		}
	}
	return false
}

// ReferenceError reports an account that does not exist for the tenant.
type ReferenceError struct {
	Line      int
	AccountID int64
	TenantID  TenantID
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("line %d: account %d not found for tenant %d", e.Line, e.AccountID, e.TenantID)
}

// ConflictKind tells apart the situations that produce a ConflictError.
type ConflictKind string

const (
	ConflictSequence      ConflictKind = "sequence"
	ConflictDuplicateName ConflictKind = "duplicate_name"
	ConflictInUse         ConflictKind = "in_use"
	ConflictProvisioned   ConflictKind = "provisioned"
)

// ConflictError reports a write that collided with existing state.
type ConflictError struct {
	Kind    ConflictKind
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict (%s): %s", e.Kind, e.Message)
}

// Retryable reports whether resubmitting the same input may succeed.
func (e *ConflictError) Retryable() bool {
	return e.Kind == ConflictSequence
}

// NotFoundError reports a missing entry or account within a tenant.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}
