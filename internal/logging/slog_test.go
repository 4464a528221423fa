package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestLogger(t *testing.T, level slog.Level) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelDebug)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()
	for _, want := range []string{
		"level=DEBUG msg=dbg a=1",
		"level=INFO msg=inf b=2",
		"level=WARN msg=wrn c=3",
		"level=ERROR msg=err d=4",
	} {
		assert.Contains(t, out, want)
	}
}

func TestSlogLogger_BelowLevelIsDropped(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelWarn)

	log.Info(context.Background(), "queued offline", "id", 3)

	assert.Empty(t, buf.String())
}

func TestSlogLogger_WithAndContextFields(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelInfo)

	ctx := ContextWith(context.Background(), "trigger", "reconnect")
	ctx = ContextWith(ctx, "batch_id", "b-1")
	log.With("device_id", "tablet-7").Info(ctx, "sync batch accepted", "items", 2)

	assert.Contains(t, buf.String(), "device_id=tablet-7 trigger=reconnect batch_id=b-1 items=2")
}

func TestNewSlogLogger_NilFallsBackToDefault(t *testing.T) {
	assert.Same(t, slog.Default(), NewSlogLogger(nil).Slog())
}

func TestContextWith_DoesNotLeakBetweenBranches(t *testing.T) {
	base := ContextWith(context.Background(), "trigger", "reconnect")
	a := ContextWith(base, "hook", "sync")
	b := ContextWith(base, "hook", "refresh")

	assert.Equal(t, []any{"trigger", "reconnect"}, Fields(base))
	assert.Equal(t, []any{"trigger", "reconnect", "hook", "sync"}, Fields(a))
	assert.Equal(t, []any{"trigger", "reconnect", "hook", "refresh"}, Fields(b))
	assert.Same(t, base, ContextWith(base))
}
