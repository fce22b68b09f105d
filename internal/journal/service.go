package journal

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/partida-dev/partida/internal/config"
	"github.com/partida-dev/partida/internal/model"
	"github.com/partida-dev/partida/internal/store"
)

// Service provides business logic for journal entries.
type Service struct {
	store store.Store
	log   zerolog.Logger
	retry config.RetryConfig
}

// NewService creates a journal Service. Zero retry bounds fall back to the
// backoff package defaults.
func NewService(st store.Store, log zerolog.Logger, retry config.RetryConfig) *Service {
	return &Service{
		store: st,
		log:   log.With().Str("component", "journal").Logger(),
		retry: retry,
	}
}

// retryable reports errors that a fresh insert transaction may not hit again.
func retryable(err error) bool {
	return errors.Is(err, store.ErrDuplicateNumber) ||
		errors.Is(err, store.ErrUnknownAccount) ||
		errors.Is(err, store.ErrTxConflict)
}

func (s *Service) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if s.retry.InitialInterval > 0 {
		b.InitialInterval = s.retry.InitialInterval
	}
	if s.retry.MaxInterval > 0 {
		b.MaxInterval = s.retry.MaxInterval
	}
	if s.retry.MaxElapsed > 0 {
		b.MaxElapsedTime = s.retry.MaxElapsed
	}
	return backoff.WithContext(b, ctx)
}

// CreateEntry validates the draft, assigns the tenant's next entry number and
// stores the entry with its lines in one transaction. Validation failures
// are returned before any write. A transaction that loses a numbering race
// is retried from the account check onwards until the retry budget runs out,
// after which a *model.ConflictError is returned.
func (s *Service) CreateEntry(ctx context.Context, d model.EntryDraft) (model.Entry, error) {
	lines, err := Validate(d)
	if err != nil {
		return model.Entry{}, err
	}

	var created model.Entry
	attempt := 0
	op := func() error {
		attempt++
		e, err := s.insert(ctx, d, lines)
		switch {
		case retryable(err):
			s.log.Debug().
				Int64("tenant", int64(d.TenantID)).
				Int("attempt", attempt).
				Err(err).
				Msg("sequence conflict, retrying")
			return err
		case err != nil:
			return backoff.Permanent(err)
		}
		created = e
		return nil
	}

	if err := backoff.Retry(op, s.backOff(ctx)); err != nil {
		if retryable(err) {
			s.log.Warn().Int64("tenant", int64(d.TenantID)).Int("attempts", attempt).Msg("giving up on entry number")
			return model.Entry{}, &model.ConflictError{
				Kind:    model.ConflictSequence,
				Message: fmt.Sprintf("could not assign an entry number after %d attempts", attempt),
			}
		}
		return model.Entry{}, err
	}

	s.log.Info().
		Int64("tenant", int64(created.TenantID)).
		Int64("entry", created.ID).
		Int64("number", created.Number).
		Msg("entry created")
	return created, nil
}

func (s *Service) insert(ctx context.Context, d model.EntryDraft, lines []model.Line) (model.Entry, error) {
	var e model.Entry
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		if err := CheckAccounts(ctx, tx, d.TenantID, lines); err != nil {
			return err
		}
		number, err := NextNumber(ctx, tx, d.TenantID)
		if err != nil {
			return err
		}

		e = model.Entry{
			TenantID: d.TenantID,
			Number:   number,
			Date:     model.Day(d.Date),
			Memo:     d.Memo,
			DocRef:   d.DocRef,
			AuthorID: d.AuthorID,
			Lines:    make([]model.Line, len(lines)),
		}
		copy(e.Lines, lines)
		return tx.InsertEntry(ctx, &e)
	})
	if err != nil {
		return model.Entry{}, err
	}
	return e, nil
}

// DeleteEntry removes an entry and all its lines. Its number is not reused.
func (s *Service) DeleteEntry(ctx context.Context, tenant model.TenantID, entryID int64) error {
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		return tx.DeleteEntry(ctx, tenant, entryID)
	})
	if errors.Is(err, store.ErrNotFound) {
		return &model.NotFoundError{Resource: "entry", ID: entryID}
	}
	if err != nil {
		return fmt.Errorf("deleting entry %d: %w", entryID, err)
	}
	s.log.Info().Int64("tenant", int64(tenant)).Int64("entry", entryID).Msg("entry deleted")
	return nil
}

// Get returns one entry with its lines.
func (s *Service) Get(ctx context.Context, tenant model.TenantID, entryID int64) (model.Entry, error) {
	e, err := s.store.GetEntry(ctx, tenant, entryID)
	if errors.Is(err, store.ErrNotFound) {
		return model.Entry{}, &model.NotFoundError{Resource: "entry", ID: entryID}
	}
	if err != nil {
		return model.Entry{}, fmt.Errorf("loading entry %d: %w", entryID, err)
	}
	return e, nil
}

// List returns the tenant's entries within period, newest first. A limit of
// zero or less returns all of them.
func (s *Service) List(ctx context.Context, tenant model.TenantID, period model.Period, limit int) ([]model.Entry, error) {
	entries, err := s.store.ListEntries(ctx, tenant, period, limit)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return entries, nil
}

// Import creates each draft in order through CreateEntry. It stops at the
// first failure and returns the entries created before it.
func (s *Service) Import(ctx context.Context, drafts []model.EntryDraft) ([]model.Entry, error) {
	created := make([]model.Entry, 0, len(drafts))
	for i, d := range drafts {
		e, err := s.CreateEntry(ctx, d)
		if err != nil {
			return created, fmt.Errorf("importing entry %d: %w", i+1, err)
		}
		created = append(created, e)
	}
	return created, nil
}
