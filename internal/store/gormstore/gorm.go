// Package gormstore implements store.Store on MySQL through gorm.
//
// Entry numbering locks the tenant's tenant_sequences row for the whole
// insert transaction, and the unique index on (tenant_id, number) backs it
// up. Duplicate-key errors are translated to store.ErrDuplicateNumber, and
// deadlocks or lock wait timeouts to store.ErrTxConflict, so the journal
// service can retry.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/partida-dev/partida/internal/config"
	"github.com/partida-dev/partida/internal/logging"
	"github.com/partida-dev/partida/internal/model"
	"github.com/partida-dev/partida/internal/store"
)

// Store is a gorm-backed store.Store.
type Store struct {
	querier
}

var _ store.Store = (*Store)(nil)

// Open connects to MySQL and configures the connection pool.
func Open(cfg config.DatabaseConfig, log zerolog.Logger) (*Store, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logging.GormLevel(log.GetLevel())),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return New(db), nil
}

// New wraps an open gorm handle.
func New(db *gorm.DB) *Store {
	return &Store{querier{db: db}}
}

// Migrate creates or updates the bookkeeping tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(
		&accountRecord{},
		&entryRecord{},
		&lineRecord{},
		&sequenceRecord{},
	); err != nil {
		return fmt.Errorf("migrating: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithTx runs fn inside one database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&gormTx{querier{db: db}})
	})
	return lockConflict(err)
}

// MySQL error numbers for a transaction rolled back by the lock manager.
const (
	errLockDeadlock    = 1213
	errLockWaitTimeout = 1205
)

// lockConflict maps deadlocks and lock wait timeouts to store.ErrTxConflict.
func lockConflict(err error) error {
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) && (myErr.Number == errLockDeadlock || myErr.Number == errLockWaitTimeout) {
		return fmt.Errorf("%w: %s", store.ErrTxConflict, myErr.Message)
	}
	return err
}

type querier struct {
	db *gorm.DB
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}

func (q querier) ListAccounts(ctx context.Context, tenant model.TenantID) ([]model.Account, error) {
	var recs []accountRecord
	if err := q.db.WithContext(ctx).Where("tenant_id = ?", int64(tenant)).Order("id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	out := make([]model.Account, len(recs))
	for i, r := range recs {
		out[i] = r.toModel()
	}
	return out, nil
}

func (q querier) GetAccount(ctx context.Context, tenant model.TenantID, id int64) (model.Account, error) {
	var rec accountRecord
	if err := q.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", int64(tenant), id).Take(&rec).Error; err != nil {
		return model.Account{}, notFound(err)
	}
	return rec.toModel(), nil
}

func (q querier) AccountsByID(ctx context.Context, tenant model.TenantID, ids []int64) (map[int64]model.Account, error) {
	out := make(map[int64]model.Account, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var recs []accountRecord
	if err := q.db.WithContext(ctx).Where("tenant_id = ? AND id IN ?", int64(tenant), ids).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("resolving accounts: %w", err)
	}
	for _, r := range recs {
		out[r.ID] = r.toModel()
	}
	return out, nil
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

func (q querier) GetEntry(ctx context.Context, tenant model.TenantID, id int64) (model.Entry, error) {
	var rec entryRecord
	err := q.db.WithContext(ctx).
		Preload("Lines", orderedLines).
		Where("tenant_id = ? AND id = ?", int64(tenant), id).
		Take(&rec).Error
	if err != nil {
		return model.Entry{}, notFound(err)
	}
	return rec.toModel(), nil
}

func periodScope(column string, p model.Period) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !p.From.IsZero() {
			db = db.Where(column+" >= ?", model.Day(p.From))
		}
		if !p.To.IsZero() {
			db = db.Where(column+" <= ?", model.Day(p.To))
		}
		return db
	}
}

func (q querier) ListEntries(ctx context.Context, tenant model.TenantID, period model.Period, limit int) ([]model.Entry, error) {
	db := q.db.WithContext(ctx).
		Preload("Lines", orderedLines).
		Where("tenant_id = ?", int64(tenant)).
		Scopes(periodScope("date", period)).
		Order("date DESC, number DESC")
	if limit > 0 {
		db = db.Limit(limit)
	}
	var recs []entryRecord
	if err := db.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	out := make([]model.Entry, len(recs))
	for i, r := range recs {
		out[i] = r.toModel()
	}
	return out, nil
}

func (q querier) PostedLines(ctx context.Context, tenant model.TenantID, filter store.LineFilter) ([]model.PostedLine, error) {
	db := q.db.WithContext(ctx).
		Table("entry_lines AS l").
		Select("l.id AS line_id, l.entry_id, e.number AS entry_number, e.date, e.memo, l.account_id, l.side, l.amount").
		Joins("JOIN entries AS e ON e.id = l.entry_id").
		Where("e.tenant_id = ?", int64(tenant)).
		Scopes(periodScope("e.date", filter.Period))
	if filter.AccountID != 0 {
		db = db.Where("l.account_id = ?", filter.AccountID)
	}
	var rows []postedRow
	if err := db.Order("e.date ASC, e.number ASC, l.id ASC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading lines: %w", err)
	}
	out := make([]model.PostedLine, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

type gormTx struct {
	querier
}

// LastEntryNumber locks the tenant's sequence row, creating it on first use.
func (t *gormTx) LastEntryNumber(ctx context.Context, tenant model.TenantID) (int64, error) {
	db := t.db.WithContext(ctx)

	var seq sequenceRecord
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ?", int64(tenant)).
		Take(&seq).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		seq = sequenceRecord{TenantID: int64(tenant)}
		if err := db.Create(&seq).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return 0, store.ErrDuplicateNumber
			}
			return 0, fmt.Errorf("creating sequence: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("locking sequence: %w", err)
	}

	var maxNumber int64
	if err := db.Model(&entryRecord{}).
		Where("tenant_id = ?", int64(tenant)).
		Select("COALESCE(MAX(number), 0)").
		Scan(&maxNumber).Error; err != nil {
		return 0, fmt.Errorf("reading max entry number: %w", err)
	}
	return max(seq.LastNumber, maxNumber), nil
}

func (t *gormTx) InsertEntry(ctx context.Context, e *model.Entry) error {
	db := t.db.WithContext(ctx)

	ids := make([]int64, 0, len(e.Lines))
	seen := make(map[int64]bool, len(e.Lines))
	for _, l := range e.Lines {
		if !seen[l.AccountID] {
			seen[l.AccountID] = true
			ids = append(ids, l.AccountID)
		}
	}
	var owned int64
	if err := db.Model(&accountRecord{}).
		Where("tenant_id = ? AND id IN ?", int64(e.TenantID), ids).
		Count(&owned).Error; err != nil {
		return fmt.Errorf("checking accounts: %w", err)
	}
	if owned != int64(len(ids)) {
		return store.ErrUnknownAccount
	}

	rec := fromEntry(*e)
	if err := db.Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return store.ErrDuplicateNumber
		}
		return fmt.Errorf("inserting entry: %w", err)
	}

	seq := sequenceRecord{TenantID: int64(e.TenantID), LastNumber: e.Number}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_number"}),
	}).Create(&seq).Error; err != nil {
		return fmt.Errorf("advancing sequence: %w", err)
	}

	e.ID = rec.ID
	for i := range e.Lines {
		e.Lines[i].ID = rec.Lines[i].ID
		e.Lines[i].EntryID = rec.ID
	}
	return nil
}

func (t *gormTx) DeleteEntry(ctx context.Context, tenant model.TenantID, id int64) error {
	db := t.db.WithContext(ctx)

	var rec entryRecord
	if err := db.Where("tenant_id = ? AND id = ?", int64(tenant), id).Take(&rec).Error; err != nil {
		return notFound(err)
	}
	if err := db.Where("entry_id = ?", rec.ID).Delete(&lineRecord{}).Error; err != nil {
		return fmt.Errorf("deleting lines: %w", err)
	}
	if err := db.Delete(&entryRecord{}, rec.ID).Error; err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}
	return nil
}

func (t *gormTx) InsertAccount(ctx context.Context, a *model.Account) error {
	rec := fromAccount(*a)
	if err := t.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return store.ErrDuplicateName
		}
		return fmt.Errorf("inserting account: %w", err)
	}
	a.ID = rec.ID
	return nil
}

func (t *gormTx) DeleteAccount(ctx context.Context, tenant model.TenantID, id int64) error {
	db := t.db.WithContext(ctx)

	var rec accountRecord
	if err := db.Where("tenant_id = ? AND id = ?", int64(tenant), id).Take(&rec).Error; err != nil {
		return notFound(err)
	}
	n, err := t.CountAccountLines(ctx, tenant, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return store.ErrAccountInUse
	}
	if err := db.Delete(&accountRecord{}, rec.ID).Error; err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	return nil
}

func (t *gormTx) CountAccountLines(ctx context.Context, tenant model.TenantID, accountID int64) (int64, error) {
	var n int64
	err := t.db.WithContext(ctx).
		Table("entry_lines AS l").
		Joins("JOIN entries AS e ON e.id = l.entry_id").
		Where("e.tenant_id = ? AND l.account_id = ?", int64(tenant), accountID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("counting lines: %w", err)
	}
	return n, nil
}
