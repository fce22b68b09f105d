package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/partida-dev/partida/internal/classify"
	"github.com/partida-dev/partida/internal/model"
	"github.com/partida-dev/partida/internal/store"
)

// Service manages each tenant's chart of accounts.
type Service struct {
	store store.Store
	log   zerolog.Logger
}

// NewService creates an accounts Service.
func NewService(st store.Store, log zerolog.Logger) *Service {
	return &Service{
		store: st,
		log:   log.With().Str("component", "accounts").Logger(),
	}
}

// Draft is an account as submitted by a caller.
type Draft struct {
	Name        string
	Category    string
	Subcategory string
}

// build validates a draft and derives its codes.
func build(tenant model.TenantID, d Draft) (model.Account, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return model.Account{}, model.ValidationErrors{{
			Line:    -1,
			Field:   "name",
			Rule:    model.RuleRequired,
			Message: "account name is required",
		}}
	}
	a := model.Account{
		TenantID:    tenant,
		Name:        name,
		Category:    strings.TrimSpace(d.Category),
		Subcategory: strings.TrimSpace(d.Subcategory),
	}
	a.CategoryCode, a.SubcategoryCode = classify.AssignCodes(a.Category, a.Subcategory)
	return a, nil
}

func duplicateName(name string) error {
	return &model.ConflictError{
		Kind:    model.ConflictDuplicateName,
		Message: fmt.Sprintf("an account named %q already exists", name),
	}
}

// CreateAccount adds an account to the tenant's chart. Names are unique per
// tenant, ignoring case and surrounding spaces.
func (s *Service) CreateAccount(ctx context.Context, tenant model.TenantID, d Draft) (model.Account, error) {
	a, err := build(tenant, d)
	if err != nil {
		return model.Account{}, err
	}

	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		return tx.InsertAccount(ctx, &a)
	})
	if errors.Is(err, store.ErrDuplicateName) {
		return model.Account{}, duplicateName(a.Name)
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("creating account: %w", err)
	}

	s.log.Info().Int64("tenant", int64(tenant)).Int64("account", a.ID).Str("name", a.Name).Msg("account created")
	return a, nil
}

// DeleteAccount removes an account that no journal line references.
func (s *Service) DeleteAccount(ctx context.Context, tenant model.TenantID, accountID int64) error {
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		return tx.DeleteAccount(ctx, tenant, accountID)
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &model.NotFoundError{Resource: "account", ID: accountID}
	case errors.Is(err, store.ErrAccountInUse):
		return &model.ConflictError{
			Kind:    model.ConflictInUse,
			Message: fmt.Sprintf("account %d is referenced by journal lines", accountID),
		}
	case err != nil:
		return fmt.Errorf("deleting account %d: %w", accountID, err)
	}

	s.log.Info().Int64("tenant", int64(tenant)).Int64("account", accountID).Msg("account deleted")
	return nil
}

// Get returns one account of the tenant.
func (s *Service) Get(ctx context.Context, tenant model.TenantID, accountID int64) (model.Account, error) {
	a, err := s.store.GetAccount(ctx, tenant, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return model.Account{}, &model.NotFoundError{Resource: "account", ID: accountID}
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("loading account %d: %w", accountID, err)
	}
	return a, nil
}

// List returns the tenant's chart in creation order.
func (s *Service) List(ctx context.Context, tenant model.TenantID) ([]model.Account, error) {
	accts, err := s.store.ListAccounts(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return accts, nil
}

// Import creates all drafts in one transaction. Nothing is created if any
// draft is invalid or collides with an existing name.
func (s *Service) Import(ctx context.Context, tenant model.TenantID, drafts []Draft) ([]model.Account, error) {
	accts := make([]model.Account, len(drafts))
	var errs model.ValidationErrors
	for i, d := range drafts {
		a, err := build(tenant, d)
		if err != nil {
			for _, ve := range err.(model.ValidationErrors) {
				ve.Line = i
				errs = append(errs, ve)
			}
			continue
		}
		accts[i] = a
	}
	if len(errs) > 0 {
		return nil, errs
	}

	if err := s.insertAll(ctx, accts); err != nil {
		return nil, err
	}
	s.log.Info().Int64("tenant", int64(tenant)).Int("accounts", len(accts)).Msg("accounts imported")
	return accts, nil
}

// Provision fills an empty tenant's chart from a named template.
func (s *Service) Provision(ctx context.Context, tenant model.TenantID, template string) ([]model.Account, error) {
	accts, ok := Template(template, tenant)
	if !ok {
		return nil, model.ValidationErrors{{
			Line:    -1,
			Field:   "template",
			Rule:    model.RuleTemplate,
			Message: fmt.Sprintf("unknown chart template %q (available: %s)", template, strings.Join(TemplateNames(), ", ")),
		}}
	}
	for i := range accts {
		accts[i].CategoryCode, accts[i].SubcategoryCode = classify.AssignCodes(accts[i].Category, accts[i].Subcategory)
	}

	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		existing, err := tx.ListAccounts(ctx, tenant)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return &model.ConflictError{
				Kind:    model.ConflictProvisioned,
				Message: fmt.Sprintf("tenant %d already has %d accounts", tenant, len(existing)),
			}
		}
		for i := range accts {
			if err := tx.InsertAccount(ctx, &accts[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, store.ErrDuplicateName) {
		// A concurrent provision won the race.
		return nil, &model.ConflictError{
			Kind:    model.ConflictProvisioned,
			Message: fmt.Sprintf("tenant %d was provisioned concurrently", tenant),
		}
	}
	if err != nil {
		var cerr *model.ConflictError
		if errors.As(err, &cerr) {
			return nil, err
		}
		return nil, fmt.Errorf("provisioning tenant %d: %w", tenant, err)
	}

	s.log.Info().Int64("tenant", int64(tenant)).Str("template", template).Int("accounts", len(accts)).Msg("tenant provisioned")
	return accts, nil
}

func (s *Service) insertAll(ctx context.Context, accts []model.Account) error {
	var dup string
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		for i := range accts {
			if err := tx.InsertAccount(ctx, &accts[i]); err != nil {
				if errors.Is(err, store.ErrDuplicateName) {
					dup = accts[i].Name
				}
				return err
			}
		}
		return nil
	})
	if errors.Is(err, store.ErrDuplicateName) {
		return duplicateName(dup)
	}
	if err != nil {
		return fmt.Errorf("importing accounts: %w", err)
	}
	return nil
}
