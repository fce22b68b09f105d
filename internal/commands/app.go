package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/Rhymond/go-money"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/partida-dev/partida/internal/accounts"
	"github.com/partida-dev/partida/internal/config"
	"github.com/partida-dev/partida/internal/journal"
	"github.com/partida-dev/partida/internal/ledger"
	"github.com/partida-dev/partida/internal/logging"
	"github.com/partida-dev/partida/internal/model"
	"github.com/partida-dev/partida/internal/report"
	"github.com/partida-dev/partida/internal/store"
	"github.com/partida-dev/partida/internal/store/gormstore"
)

const defaultConfigFile = "partida.yaml"

// StoreOpener opens the store selected by the configuration.
type StoreOpener func(cfg *config.Config, log zerolog.Logger) (store.Store, io.Closer, error)

type options struct {
	configPath string
	tenant     int64
	user       int64
	open       StoreOpener
}

// app is the wiring one command invocation works with.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	store    store.Store
	accounts *accounts.Service
	journal  *journal.Service
	reports  *report.Builder
	tenant   model.TenantID
	user     int64

	closers []io.Closer
}

func openStore(cfg *config.Config, log zerolog.Logger) (store.Store, io.Closer, error) {
	if cfg.Database.Driver == config.DriverMemory {
		return store.NewMemory(), io.NopCloser(nil), nil
	}
	s, err := gormstore.Open(cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}
	return s, s, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigFile {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.Load("")
		}
	}
	return config.Load(path)
}

// newApp loads the configuration and opens the store. Logs go to logOut
// unless the configuration names a file.
func newApp(opts *options, logOut io.Writer) (*app, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	log, logCloser, err := logging.NewWriter(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}
	st, stCloser, err := opts.open(cfg, log)
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return &app{
		cfg:      cfg,
		log:      log,
		store:    st,
		accounts: accounts.NewService(st, log),
		journal:  journal.NewService(st, log, cfg.Ledger.Retry),
		reports:  report.NewBuilder(ledger.NewAggregator(st)),
		tenant:   model.TenantID(opts.tenant),
		user:     opts.user,
		closers:  []io.Closer{stCloser, logCloser},
	}, nil
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// withApp runs fn with an app whose logs go to the command's stderr.
func withApp(cmd *cobra.Command, opts *options, fn func(a *app) error) error {
	a, err := newApp(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// withTenantApp is withApp for commands scoped to one tenant.
func withTenantApp(cmd *cobra.Command, opts *options, fn func(a *app) error) error {
	if err := requireTenant(opts); err != nil {
		return err
	}
	return withApp(cmd, opts, fn)
}

// formatAmount renders d in the configured currency, falling back to a
// plain two-decimal string for codes go-money does not know.
func formatAmount(d decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return d.StringFixed(2)
	}
	minor := d.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), cur.Code).Display()
}

func (a *app) amount(d decimal.Decimal) string {
	return formatAmount(d, a.cfg.Ledger.Currency)
}

// output returns the file named by path, or the command's stdout when path
// is empty or "-".
func output(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, f.Close, nil
}
