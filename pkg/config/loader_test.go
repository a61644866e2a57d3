package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hermeshr/tenancy/pkg/config"
	"github.com/hermeshr/tenancy/pkg/migrate"
	"github.com/hermeshr/tenancy/pkg/tenant"
)

type sampleConfig struct {
	Name  string `env:"SAMPLE_NAME" envDefault:"default"`
	Count int    `env:"SAMPLE_COUNT" envDefault:"1"`
}

type requiredConfig struct {
	Value string `env:"SAMPLE_REQUIRED,required"`
}

func TestLoad(t *testing.T) {
	t.Run("nil pointer", func(t *testing.T) {
		assert.ErrorIs(t, config.Load[sampleConfig](nil), config.ErrNilPointer)
	})

	t.Run("parses and caches per type", func(t *testing.T) {
		config.Reset()
		t.Setenv("SAMPLE_NAME", "first")

		var cfg sampleConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "first", cfg.Name)
		assert.Equal(t, 1, cfg.Count)

		t.Setenv("SAMPLE_NAME", "second")
		var again sampleConfig
		require.NoError(t, config.Load(&again))
		assert.Equal(t, "first", again.Name)

		config.Reset()
		require.NoError(t, config.Load(&again))
		assert.Equal(t, "second", again.Name)
	})

	t.Run("missing required variable", func(t *testing.T) {
		config.Reset()
		os.Unsetenv("SAMPLE_REQUIRED")

		var cfg requiredConfig
		assert.ErrorIs(t, config.Load(&cfg), config.ErrParsingConfig)
	})

	t.Run("must load panics", func(t *testing.T) {
		config.Reset()
		os.Unsetenv("SAMPLE_REQUIRED")

		assert.Panics(t, func() {
			var cfg requiredConfig
			config.MustLoad(&cfg)
		})
	})
}

func TestTenancy(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		config.Reset()

		var cfg config.Tenancy
		require.NoError(t, config.Load(&cfg))

		assert.True(t, cfg.Enabled)
		assert.Equal(t, "tenant_", cfg.SchemaPrefix)
		assert.False(t, cfg.AllowDrop)
		assert.Equal(t, migrate.PolicyContinue, cfg.StartupMigrationPolicy)
		assert.Equal(t, tenant.FailFast, cfg.FallbackStrategy)
		assert.Equal(t, []string{"/healthz", "/readyz", "/metrics"}, cfg.ExcludePaths)
		assert.Equal(t, "tenantId", cfg.TenantClaim)
		assert.Equal(t, []string{"tenant", "org", "organization"}, cfg.AltTenantClaims)
	})

	t.Run("overrides", func(t *testing.T) {
		config.Reset()
		t.Setenv("MT_STARTUP_MIGRATION_POLICY", "ISOLATE")
		t.Setenv("MT_FALLBACK_STRATEGY", "allow_default")
		t.Setenv("MT_DEFAULT_TENANT_ID", "public")
		t.Setenv("MT_EXCLUDE_PATHS", "/internal/**")

		var cfg config.Tenancy
		require.NoError(t, config.Load(&cfg))

		assert.Equal(t, migrate.PolicyIsolate, cfg.StartupMigrationPolicy)
		assert.Equal(t, tenant.AllowDefault, cfg.FallbackStrategy)
		assert.Equal(t, "public", cfg.DefaultTenantID)
		assert.Equal(t, []string{"/internal/**"}, cfg.ExcludePaths)
	})

	t.Run("invalid policy", func(t *testing.T) {
		config.Reset()
		t.Setenv("MT_STARTUP_MIGRATION_POLICY", "retry")

		var cfg config.Tenancy
		assert.ErrorIs(t, config.Load(&cfg), config.ErrParsingConfig)
	})

	t.Run("empty prefix", func(t *testing.T) {
		config.Reset()
		t.Setenv("MT_SCHEMA_PREFIX", " ")

		var cfg config.Tenancy
		assert.ErrorIs(t, config.Load(&cfg), config.ErrInvalidConfig)
	})
}
