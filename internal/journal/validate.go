package journal

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/partida-dev/partida/internal/model"
)

// minLines is the fewest lines a balanced entry can have.
const minLines = 2

// maxAmountText bounds the submitted amount text before it is parsed.
const maxAmountText = 32

// amountPattern is plain fixed-point notation. Exponents are rejected.
var amountPattern = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]+)?$`)

// maxAmount is the first value too large for a decimal(12,2) column.
var maxAmount = decimal.New(1, 10)

// AccountResolver looks up many accounts of one tenant at once.
type AccountResolver interface {
	AccountsByID(ctx context.Context, tenant model.TenantID, ids []int64) (map[int64]model.Account, error)
}

// Validate checks a draft without touching storage and returns the parsed
// lines. Every violation found is reported in one model.ValidationErrors.
func Validate(d model.EntryDraft) ([]model.Line, error) {
	var errs model.ValidationErrors

	if d.Date.IsZero() {
		errs = append(errs, &model.ValidationError{
			Line:    -1,
			Field:   "date",
			Rule:    model.RuleRequired,
			Message: "entry date is required",
		})
	}
	if len(d.Lines) < minLines {
		errs = append(errs, &model.ValidationError{
			Line:    -1,
			Field:   "lines",
			Rule:    model.RuleMinLines,
			Message: fmt.Sprintf("entry needs at least %d lines, got %d", minLines, len(d.Lines)),
		})
	}

	lines := make([]model.Line, 0, len(d.Lines))
	debit, credit := decimal.Zero, decimal.Zero
	linesOK := true
	for i, ld := range d.Lines {
		line, lineErrs := validateLine(i, ld)
		if len(lineErrs) > 0 {
			errs = append(errs, lineErrs...)
			linesOK = false
			continue
		}
		lines = append(lines, line)
		if line.Side == model.SideDebit {
			debit = debit.Add(line.Amount)
		} else {
			credit = credit.Add(line.Amount)
		}
	}

	// Sums are only meaningful once every line parsed.
	if linesOK && len(d.Lines) >= minLines {
		if !debit.Equal(credit) || !debit.IsPositive() {
			errs = append(errs, &model.ValidationError{
				Line:    -1,
				Field:   "lines",
				Rule:    model.RuleUnbalanced,
				Message: fmt.Sprintf("debits (%s) != credits (%s)", debit.StringFixed(2), credit.StringFixed(2)),
			})
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return lines, nil
}

func validateLine(i int, ld model.LineDraft) (model.Line, model.ValidationErrors) {
	var errs model.ValidationErrors

	if ld.AccountID <= 0 {
		errs = append(errs, &model.ValidationError{
			Line:    i,
			Field:   "account_id",
			Rule:    model.RuleRequired,
			Message: "account is required",
		})
	}

	side, ok := model.ParseSide(ld.Side)
	if !ok {
		errs = append(errs, &model.ValidationError{
			Line:    i,
			Field:   "side",
			Rule:    model.RuleSide,
			Message: fmt.Sprintf("side must be %q or %q, got %q", model.SideDebit, model.SideCredit, ld.Side),
		})
	}

	amount, err := parseAmount(ld.Amount)
	switch {
	case err != nil:
		errs = append(errs, &model.ValidationError{
			Line:    i,
			Field:   "amount",
			Rule:    model.RuleAmountFormat,
			Message: fmt.Sprintf("invalid amount %q", ld.Amount),
		})
	case !amount.IsPositive():
		errs = append(errs, &model.ValidationError{
			Line:    i,
			Field:   "amount",
			Rule:    model.RuleAmountPositive,
			Message: fmt.Sprintf("amount must be positive, got %s", amount),
		})
	case amount.GreaterThanOrEqual(maxAmount):
		errs = append(errs, &model.ValidationError{
			Line:    i,
			Field:   "amount",
			Rule:    model.RuleAmountRange,
			Message: fmt.Sprintf("amount %s exceeds %s", amount, maxAmount.Sub(decimal.New(1, -2)).StringFixed(2)),
		})
	case !amount.Equal(amount.Round(2)):
		errs = append(errs, &model.ValidationError{
			Line:    i,
			Field:   "amount",
			Rule:    model.RuleAmountScale,
			Message: fmt.Sprintf("amount %s has more than 2 decimal places", amount),
		})
	}

	if len(errs) > 0 {
		return model.Line{}, errs
	}
	return model.Line{
		AccountID: ld.AccountID,
		Side:      side,
		Amount:    amount.Round(2),
	}, nil
}

// parseAmount accepts short fixed-point text only, so parsing and rounding
// stay bounded.
func parseAmount(text string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	if len(text) > maxAmountText || !amountPattern.MatchString(text) {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", text)
	}
	return decimal.NewFromString(text)
}

// CheckAccounts resolves every referenced account with a single lookup and
// reports the first line whose account the tenant does not own.
func CheckAccounts(ctx context.Context, r AccountResolver, tenant model.TenantID, lines []model.Line) error {
	ids := make([]int64, 0, len(lines))
	seen := make(map[int64]bool, len(lines))
	for _, l := range lines {
		if !seen[l.AccountID] {
			seen[l.AccountID] = true
			ids = append(ids, l.AccountID)
		}
	}

	found, err := r.AccountsByID(ctx, tenant, ids)
	if err != nil {
		return fmt.Errorf("resolving accounts: %w", err)
	}
	for i, l := range lines {
		if a, ok := found[l.AccountID]; !ok || a.TenantID != tenant {
			return &model.ReferenceError{Line: i, AccountID: l.AccountID, TenantID: tenant}
		}
	}
	return nil
}
