package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formkit/pkg/logger"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json by default", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf))
		log.Info("hello")

		entry := decodeEntry(t, buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "hello", entry["msg"])
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithFormat(logger.FormatText))
		log.Info("hello")
		assert.Contains(t, buf.String(), "level=INFO")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("level filters records", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithLevel(slog.LevelWarn))
		log.Info("dropped")
		assert.Empty(t, buf.String())
	})

	t.Run("static attributes", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithAttr(slog.String("svc", "test")))
		log.Info("msg")
		assert.Equal(t, "test", decodeEntry(t, buf)["svc"])
	})

	t.Run("context extractors", func(t *testing.T) {
		t.Parallel()
		type key struct{}
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithContextExtractors(nil, func(ctx context.Context) (slog.Attr, bool) {
				if v, ok := ctx.Value(key{}).(string); ok {
					return slog.String("id", v), true
				}
				return slog.Attr{}, false
			}),
		)
		ctx := context.WithValue(context.Background(), key{}, "42")
		log.With(slog.String("a", "b")).InfoContext(ctx, "msg")

		entry := decodeEntry(t, buf)
		assert.Equal(t, "42", entry["id"])
		assert.Equal(t, "b", entry["a"])
	})
}

func TestWithEnvironment(t *testing.T) {
	t.Parallel()

	t.Run("production uses json at info", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithEnvironment("production", "formkit"), logger.WithOutput(buf))
		log.Debug("hidden")
		log.Info("shown")

		entry := decodeEntry(t, buf)
		assert.Equal(t, "shown", entry["msg"])
		assert.Equal(t, "formkit", entry["service"])
		assert.Equal(t, "production", entry["env"])
	})

	t.Run("unknown falls back to development", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithEnvironment("", "formkit"), logger.WithOutput(buf))
		log.Debug("visible")
		assert.Contains(t, buf.String(), "env=development")
		assert.Contains(t, buf.String(), "msg=visible")
	})
}

func TestWithFormatPanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() {
		logger.New(logger.WithFormat(logger.Format("xml")))
	})
}

func TestNoop(t *testing.T) {
	t.Parallel()
	log := logger.Noop()
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}

func TestAttrs(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")
	assert.Equal(t, "error", logger.Error(err).Key)
	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
	assert.True(t, logger.Filename("").Equal(slog.Attr{}))
	assert.True(t, logger.RequestID("").Equal(slog.Attr{}))
	assert.True(t, logger.ClientIP("").Equal(slog.Attr{}))

	tests := []struct {
		attr slog.Attr
		key  string
		want any
	}{
		{logger.Field("avatar"), "field", "avatar"},
		{logger.Filename("a.png"), "filename", "a.png"},
		{logger.Form("profile"), "form", "profile"},
		{logger.Bytes(1024), "bytes", int64(1024)},
		{logger.Count(3), "parts", int64(3)},
		{logger.Fields(2), "fields", int64(2)},
		{logger.Status(413), "status", int64(413)},
		{logger.Component("decoder"), "component", "decoder"},
		{logger.RequestID("abc"), "request_id", "abc"},
		{logger.ClientIP("203.0.113.7"), "client_ip", "203.0.113.7"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.key, tt.attr.Key)
			assert.Equal(t, tt.want, tt.attr.Value.Any())
		})
	}
}
