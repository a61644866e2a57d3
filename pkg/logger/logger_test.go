package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hermeshr/tenancy/pkg/logger"
)

type ctxKey struct{}

func tenantFromContext(ctx context.Context) (slog.Attr, bool) {
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return logger.Tenant(id), true
	}
	return slog.Attr{}, false
}

func decode(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("defaults to json at info", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf))
		log.Debug("hidden")
		log.Info("migrated", logger.Schema("tenant_acme"))

		entries := decode(t, buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "INFO", entries[0]["level"])
		assert.Equal(t, "tenant_acme", entries[0]["schema"])
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithFormat(logger.FormatText))
		log.Info("migrated", logger.Count("applied", 2))
		assert.Contains(t, buf.String(), "applied=2")
	})

	t.Run("invalid format panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			logger.New(logger.WithFormat(logger.Format("xml")))
		})
	})

	t.Run("static attributes", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithAttr(slog.String("region", "eu")))
		log.Info("msg")
		assert.Equal(t, "eu", decode(t, buf)[0]["region"])
	})

	t.Run("level by name", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithLevelName("warn"))
		log.Info("hidden")
		log.Warn("shown")
		require.Len(t, decode(t, buf), 1)

		buf.Reset()
		log = logger.New(logger.WithOutput(buf), logger.WithLevelName("loud"))
		log.Info("kept default level")
		require.Len(t, decode(t, buf), 1)
	})
}

func TestWithEnvironment(t *testing.T) {
	t.Parallel()

	t.Run("development", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(logger.WithEnvironment("development", "tenantd"), logger.WithOutput(buf))
		log.Debug("msg")

		out := buf.String()
		assert.Contains(t, out, "level=DEBUG")
		assert.Contains(t, out, "service=tenantd")
		assert.Contains(t, out, "env=development")
	})

	t.Run("production", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(logger.WithEnvironment("prod", "tenantd"), logger.WithOutput(buf))
		log.Debug("hidden")
		log.Info("msg")

		entries := decode(t, buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "production", entries[0]["env"])
		assert.Equal(t, "tenantd", entries[0]["service"])
	})

	t.Run("later level overrides environment", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithEnvironment("production", ""),
			logger.WithLevelName("debug"),
			logger.WithOutput(buf),
		)
		log.Debug("msg")
		entries := decode(t, buf)
		require.Len(t, entries, 1)
		assert.NotContains(t, entries[0], "service")
	})
}

func TestContextExtractors(t *testing.T) {
	t.Parallel()

	t.Run("adds attributes from context", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithContextExtractors(tenantFromContext))

		log.InfoContext(context.WithValue(context.Background(), ctxKey{}, "acme"), "bound")
		log.InfoContext(context.Background(), "unbound")

		entries := decode(t, buf)
		require.Len(t, entries, 2)
		assert.Equal(t, "acme", entries[0]["tenant_id"])
		assert.NotContains(t, entries[1], "tenant_id")
	})

	t.Run("does not repeat keys bound with With", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithContextExtractors(tenantFromContext)).
			With(logger.Tenant("acme"))

		log.InfoContext(context.WithValue(context.Background(), ctxKey{}, "acme"), "bound")
		assert.Equal(t, 1, strings.Count(buf.String(), `"tenant_id"`))
	})

	t.Run("does not repeat keys on the record", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithContextExtractors(tenantFromContext))

		log.InfoContext(context.WithValue(context.Background(), ctxKey{}, "acme"), "bound", logger.Tenant("beta"))
		assert.Equal(t, 1, strings.Count(buf.String(), `"tenant_id"`))
		assert.Equal(t, "beta", decode(t, buf)[0]["tenant_id"])
	})

	t.Run("nil extractors are ignored", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithContextExtractors(nil))
		assert.NotPanics(t, func() { log.InfoContext(context.Background(), "msg") })
	})
}

func TestSetAsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	buf := &bytes.Buffer{}
	logger.SetAsDefault(logger.New(logger.WithOutput(buf)))
	slog.Info("default")
	assert.Equal(t, "default", decode(t, buf)[0]["msg"])
}

func TestAttrs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "error", logger.Error(errors.New("boom")).Key)
	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))

	assert.Equal(t, logger.KeyTenant, logger.Tenant("acme").Key)
	assert.True(t, logger.Tenant("").Equal(slog.Attr{}))
	assert.True(t, logger.RequestID("").Equal(slog.Attr{}))
	assert.True(t, logger.MessageID("").Equal(slog.Attr{}))

	assert.Equal(t, []string{"tenant_a", "tenant_b"}, logger.Schemas([]string{"tenant_a", "tenant_b"}).Value.Any())
	assert.Equal(t, 1500*time.Millisecond, logger.Duration(1500*time.Millisecond).Value.Duration())
}
