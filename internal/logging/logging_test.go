package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"

	"github.com/partida-dev/partida/internal/config"
)

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partida.log")
	log, closer, err := New(config.LogConfig{Level: "debug", File: path})
	require.NoError(t, err)

	log.Info().Int64("tenant", 7).Msg("entry created")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tenant":7`)
	assert.Contains(t, string(data), `"message":"entry created"`)
	assert.Equal(t, zerolog.DebugLevel, log.GetLevel())
}

func TestNew_DatedFile(t *testing.T) {
	base := filepath.Join(t.TempDir(), "partida")
	_, closer, err := New(config.LogConfig{Level: "info", File: base})
	require.NoError(t, err)
	require.NoError(t, closer.Close())

	matches, err := filepath.Glob(base + "-*.log")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestNew_BadLevel(t *testing.T) {
	_, _, err := New(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, GormLevel(zerolog.DebugLevel))
	assert.Equal(t, gormlogger.Warn, GormLevel(zerolog.InfoLevel))
	assert.Equal(t, gormlogger.Error, GormLevel(zerolog.ErrorLevel))
	assert.Equal(t, gormlogger.Silent, GormLevel(zerolog.Disabled))
}

func TestNewWriter(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := NewWriter(config.LogConfig{Level: "warn"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	log.Info().Msg("dropped")
	log.Warn().Msg("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"message":"kept"`)
}
