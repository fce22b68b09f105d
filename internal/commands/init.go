package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/partida-dev/partida/internal/accounts"
	"github.com/partida-dev/partida/internal/config"
)

type initOptions struct {
	driver   string
	dsn      string
	currency string
	template string
	force    bool
}

func newInitCommand() *cobra.Command {
	var o initOptions

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default partida.yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigFile
			if len(args) > 0 {
				path = args[0]
			}

			absPath, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			if err := runInit(absPath, o); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", absPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&o.driver, "driver", config.DriverMySQL, "database driver (mysql, memory)")
	cmd.Flags().StringVar(&o.dsn, "dsn", "", "database DSN")
	cmd.Flags().StringVar(&o.currency, "currency", "", "display currency code")
	cmd.Flags().StringVar(&o.template, "template", "", "default chart template")
	cmd.Flags().BoolVar(&o.force, "force", false, "overwrite an existing file")

	return cmd
}

func runInit(path string, o initOptions) error {
	if !o.force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("checking %s: %w", path, err)
		}
	}

	cfg := config.Default()
	cfg.Database.Driver = o.driver
	if o.dsn != "" {
		cfg.Database.DSN = o.dsn
	}
	if o.currency != "" {
		cfg.Ledger.Currency = o.currency
	}
	if o.template != "" {
		if _, ok := accounts.Template(o.template, 0); !ok {
			return fmt.Errorf("unknown chart template %q (have %v)", o.template, accounts.TemplateNames())
		}
		cfg.Ledger.ChartTemplate = o.template
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return config.Save(path, cfg)
}
