package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevels(t *testing.T) {
	ctx := context.Background()

	prodLogger := New(EnvProd)
	assert.False(t, prodLogger.Enabled(ctx, slog.LevelDebug))
	assert.True(t, prodLogger.Enabled(ctx, slog.LevelInfo))

	devLogger := New(EnvDev)
	assert.True(t, devLogger.Enabled(ctx, slog.LevelDebug))

	localLogger := New(EnvLocal)
	assert.True(t, localLogger.Enabled(ctx, slog.LevelDebug))

	unknown := New("staging")
	assert.False(t, unknown.Enabled(ctx, slog.LevelDebug))
}

func TestFormats(t *testing.T) {
	var buf bytes.Buffer
	newWithWriter(EnvDev, &buf).Info("hello", slog.String("component", "test"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "test", rec["component"])

	buf.Reset()
	newWithWriter(EnvLocal, &buf).Debug("pretty")
	assert.True(t, strings.Contains(buf.String(), "msg=pretty"))
}

func TestDiscard(t *testing.T) {
	assert.False(t, Discard().Enabled(context.Background(), slog.LevelError))
}
