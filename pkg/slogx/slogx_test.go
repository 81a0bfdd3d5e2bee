package slogx

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		require.Equal(t, want, parseLevel(in), in)
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	require.Equal(t, slog.Default(), FromContext(context.Background()))
}

func TestWithUserID(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := WithUserID(WithContext(context.Background(), base), "user-123")
	FromContext(ctx).Info("hello")

	require.Contains(t, buf.String(), `"user_id":"user-123"`)
}

func TestNewWritesRotatedFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "vault.log")
	logger := New(Config{Service: "vault", Env: "test", Level: "info", Format: "json", File: path})
	logger.Info("written to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "written to file")
}
