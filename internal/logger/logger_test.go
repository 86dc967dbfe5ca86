package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Msg       string `json:"msg"`
	Level     string `json:"level"`
	RequestID string `json:"request_id"`
	Error     string `json:"error"`
	Source    struct {
		File string `json:"file"`
	} `json:"source"`
}

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	InitWithWriter("production", &buf)
	t.Cleanup(func() { InitWithWriter("test", io.Discard) })
	return &buf
}

func records(t *testing.T, buf *bytes.Buffer) []record {
	t.Helper()
	var out []record
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var r record
		require.NoError(t, json.Unmarshal([]byte(line), &r), line)
		out = append(out, r)
	}
	return out
}

func TestHelpersReportCallerSource(t *testing.T) {
	buf := capture(t)
	ctx := WithRequestID(context.Background(), "req-1")

	Info("plain")
	CtxWarn(ctx, "with context")
	CtxWithError(ctx, "failed", errors.New("boom"))
	WorkerLog("cleanup", "purge", nil)

	got := records(t, buf)
	require.Len(t, got, 4)
	for _, r := range got {
		assert.Equal(t, "logger_test.go", filepath.Base(r.Source.File), r.Msg)
	}
	assert.Equal(t, "req-1", got[1].RequestID)
	assert.Equal(t, "WARN", got[1].Level)
	assert.Equal(t, "boom", got[2].Error)
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t)

	Debug("hidden")
	CtxDebug(context.Background(), "hidden too")
	assert.Empty(t, buf.String(), "production logs start at info")

	Error("shown")
	assert.Len(t, records(t, buf), 1)
}
