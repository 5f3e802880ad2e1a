package utils

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriterLogger(&buf, slog.LevelInfo)
	log.Debug("hidden")
	log.Info("committed", "rev", "abcd1234")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `msg="[vcs] committed"`)
	assert.Contains(t, buf.String(), "rev=abcd1234")
}

func TestDefaultArgs(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriterLogger(&buf, slog.LevelDebug)
	ctx := WithDefaultArgs(context.Background(), "item", "x1")
	ctx = WithDefaultArgs(ctx, "theirs", "r2")
	log.WarnCtx(ctx, "skipped", "kind", "notesAdded")
	line := buf.String()
	assert.Contains(t, line, "kind=notesAdded")
	assert.Contains(t, line, "item=x1")
	assert.Contains(t, line, "theirs=r2")
}
