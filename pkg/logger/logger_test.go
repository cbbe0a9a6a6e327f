package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := configure(&buf, "production")
	t.Cleanup(func() { configure(&bytes.Buffer{}, "local") })

	log.Debug("hidden")
	log.Info("purchase created", "purchase_id", "p1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "purchase created", line["msg"])
	assert.Equal(t, "p1", line["purchase_id"])
}

func TestWithCtxFallsBackToBase(t *testing.T) {
	assert.Same(t, L, WithCtx(context.Background()))

	tagged := L.With("request_id", "abc")
	ctx := InjectLogger(context.Background(), tagged)
	assert.Same(t, tagged, WithCtx(ctx))
}

type countingHandler struct {
	n *int
}

func (c countingHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (c countingHandler) Handle(context.Context, slog.Record) error { *c.n++; return nil }
func (c countingHandler) WithAttrs([]slog.Attr) slog.Handler        { return c }
func (c countingHandler) WithGroup(string) slog.Handler             { return c }

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b int
	log := slog.New(NewMultiHandler(countingHandler{&a}, countingHandler{&b}))
	log.With("k", "v").Info("x")
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, LevelFor(201))
	assert.Equal(t, slog.LevelWarn, LevelFor(404))
	assert.Equal(t, slog.LevelError, LevelFor(500))
}
