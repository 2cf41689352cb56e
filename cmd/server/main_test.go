package main

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/reshetovitsme/squad-bot/internal/shared/errors"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel(" WARN "))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestNewLogger_WritesFile(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(slog.LevelWarn, &buf)

	logger.Info("dropped")
	logger.Warn("kept", "channel_id", "123")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
	assert.Contains(t, buf.String(), `"channel_id":"123"`)
}

func TestRun_ReturnsConfigError(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TOKEN", "")

	err := run()

	assert.ErrorContains(t, err, errors.ErrMissingBotToken.Error())
}

func TestRun_ReturnsLogFileError(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("TOKEN", "test-token")
	t.Setenv("LOG_FILE", filepath.Join(dir, "missing", "bot.log"))

	err := run()

	assert.ErrorContains(t, err, "opening log file")
}
