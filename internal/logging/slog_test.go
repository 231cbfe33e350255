package logging

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

func TestSlogLogger_TextLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewText(&buf, slog.LevelDebug)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()
	for _, s := range []string{
		"level=DEBUG", "msg=dbg", "a=1",
		"level=INFO", "msg=inf", "b=2",
		"level=WARN", "msg=wrn", "c=3",
		"level=ERROR", "msg=err", "d=4",
	} {
		assert.Contains(t, out, s)
	}
}

func TestSlogLogger_LevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewText(&buf, slog.LevelInfo)

	log.Debug(context.Background(), "hidden")
	assert.Empty(t, buf.String())
}

func TestSlogLogger_JSONWith(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSON(&buf, slog.LevelInfo).With("module", "http_server")

	log.Info(context.Background(), "request", "status", 200)

	line := strings.TrimSpace(buf.String())
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &rec))
	assert.Equal(t, "request", rec["msg"])
	assert.Equal(t, "http_server", rec["module"])
	assert.EqualValues(t, 200, rec["status"])
}
