package logger

import (
	"bytes"
	"log"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"user-management/internal/core/config"
)

func newBufferLogger(t *testing.T, level string) (*zap.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, cleanup := buildLogger(Options{Level: level, JSON: true, Out: zapcore.AddSync(&buf)})
	t.Cleanup(cleanup)
	return l, &buf
}

func TestBuildLogger_LevelFilter(t *testing.T) {
	l, buf := newBufferLogger(t, "warn")
	l.Info("hidden")
	l.Warn("shown", zap.String("k", "v"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":"v"`)
}

func TestBuildLogger_BadLevelFallsBackToInfo(t *testing.T) {
	l, buf := newBufferLogger(t, "loud")
	l.Debug("debug line")
	l.Info("info line")
	assert.NotContains(t, buf.String(), "debug line")
	assert.Contains(t, buf.String(), "info line")
}

func TestToWriter(t *testing.T) {
	l, buf := newBufferLogger(t, "info")
	w := ToWriter(l, zapcore.InfoLevel)
	n, err := w.Write([]byte("[GIN-debug] route registered\r\n"))
	require.NoError(t, err)
	assert.Equal(t, len("[GIN-debug] route registered\r\n"), n)
	assert.Contains(t, buf.String(), `"msg":"[GIN-debug] route registered"`)
}

func TestRedirectStdLog(t *testing.T) {
	l, buf := newBufferLogger(t, "info")
	undo := RedirectStdLog(l, zapcore.WarnLevel)
	log.Print("legacy line")
	undo()
	assert.True(t, strings.Contains(buf.String(), "legacy line"))
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestFromConfig_Rotate(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")
	l, cleanup := FromConfig(config.Log{
		Level: "info",
		JSON:  true,
		File:  config.LogFile{Enable: true, Filename: file, MaxSizeMB: 1},
	})
	defer cleanup()
	l.Info("to file")
	assert.FileExists(t, file)
}
