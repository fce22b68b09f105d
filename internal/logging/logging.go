// Package logging builds the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"github.com/partida-dev/partida/internal/config"
)

// New returns a JSON logger writing to stdout, or to cfg.File when set. A
// file name without extension gets a date suffix and ".log". The returned
// closer releases the file.
func New(cfg config.LogConfig) (zerolog.Logger, io.Closer, error) {
	return NewWriter(cfg, os.Stdout)
}

// NewWriter is New with a different default target.
func NewWriter(cfg config.LogConfig, out io.Writer) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	target := out
	var closer io.Closer = io.NopCloser(nil)
	if cfg.File != "" {
		path := cfg.File
		if filepath.Ext(path) == "" {
			path = path + time.Now().Format("-2006-01-02") + ".log"
		}
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o664)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("opening log file: %w", err)
		}
		target = file
		closer = file
	}

	return zerolog.New(target).Level(level).With().Timestamp().Logger(), closer, nil
}

// GormLevel maps a zerolog level onto gorm's SQL logger level.
func GormLevel(level zerolog.Level) gormlogger.LogLevel {
	switch {
	case level <= zerolog.DebugLevel:
		return gormlogger.Info
	case level <= zerolog.WarnLevel:
		return gormlogger.Warn
	case level <= zerolog.ErrorLevel:
		return gormlogger.Error
	default:
		return gormlogger.Silent
	}
}
