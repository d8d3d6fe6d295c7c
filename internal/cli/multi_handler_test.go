package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMultiLevelHandlerRoutesByLevel(t *testing.T) {
	var stderrBuf, fileBuf bytes.Buffer
	logger := slog.New(NewMultiLevelHandler(
		slog.NewTextHandler(&stderrBuf, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewTextHandler(&fileBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	))

	logger.Debug("reading RiDat samples")
	logger.Info("decoded RiDat file")
	logger.Warn("decode catalog unavailable")
	logger.Error("command failed")

	stderr := stderrBuf.String()
	assert.NotContains(t, stderr, "reading RiDat samples")
	assert.NotContains(t, stderr, "decoded RiDat file")
	assert.Contains(t, stderr, "decode catalog unavailable")
	assert.Contains(t, stderr, "command failed")

	file := fileBuf.String()
	for _, msg := range []string{"reading RiDat samples", "decoded RiDat file", "decode catalog unavailable", "command failed"} {
		assert.Contains(t, file, msg)
	}
}

func TestMultiLevelHandlerEnabled(t *testing.T) {
	ctx := context.Background()
	h := NewMultiLevelHandler(
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)

	assert.False(t, h.Enabled(ctx, slog.LevelDebug))
	assert.True(t, h.Enabled(ctx, slog.LevelInfo))
	assert.True(t, h.Enabled(ctx, slog.LevelError))

	assert.False(t, NewMultiLevelHandler().Enabled(ctx, slog.LevelError))
}

func TestMultiLevelHandlerAttrsAndGroups(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiLevelHandler(
		slog.NewTextHandler(&a, nil),
		slog.NewTextHandler(&b, nil),
	)

	logger := slog.New(h.WithAttrs([]slog.Attr{slog.String("path", "run.RiDat")}).WithGroup("decode"))
	logger.Info("done", "samples", 2)

	for _, buf := range []*bytes.Buffer{&a, &b} {
		assert.Contains(t, buf.String(), "path=run.RiDat")
		assert.Contains(t, buf.String(), "decode.samples=2")
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestMultiLevelHandlerKeepsGoingAfterFailure(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiLevelHandler(
		failingHandler{slog.NewTextHandler(&bytes.Buffer{}, nil)},
		slog.NewTextHandler(&buf, nil),
	)

	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "still logged", 0))
	assert.EqualError(t, err, "disk full")
	assert.Contains(t, buf.String(), "still logged")
}
