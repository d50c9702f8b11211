package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel("warn"))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel(" WARNING "))
	assert.Equal(t, slog.LevelError, ParseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("bogus"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel(""))
}

func TestCLIHandler_Output(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCLIHandler(&buf, slog.LevelInfo))

	logger.Info("loading groups", "a", "healthy", "b", "bipolar")
	out := buf.String()
	assert.Contains(t, out, "loading groups")
	assert.Contains(t, out, "a=healthy")
	assert.Contains(t, out, "b=bipolar")

	// below level: suppressed
	buf.Reset()
	logger.Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestCLIHandler_Levels(t *testing.T) {
	h := NewCLIHandler(&bytes.Buffer{}, slog.LevelWarn)
	ctx := context.Background()
	assert.False(t, h.Enabled(ctx, slog.LevelInfo))
	assert.True(t, h.Enabled(ctx, slog.LevelWarn))
	assert.True(t, h.Enabled(ctx, slog.LevelError))
}

func TestCLIHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCLIHandler(&buf, slog.LevelInfo))

	logger.With("run", 7).WithGroup("eval").Info("done")
	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, "[eval]")
	assert.Contains(t, out, "run=7")
}
