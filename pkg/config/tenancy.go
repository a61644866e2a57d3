package config

import (
	"errors"
	"strings"

	"github.com/hermeshr/tenancy/pkg/migrate"
	"github.com/hermeshr/tenancy/pkg/tenant"
)

// Tenancy holds the multi-tenancy settings.
type Tenancy struct {
	Enabled         bool   `env:"MT_ENABLED" envDefault:"true"`
	DefaultTenantID string `env:"MT_DEFAULT_TENANT_ID"`
	SchemaPrefix    string `env:"MT_SCHEMA_PREFIX" envDefault:"tenant_"`
	AllowDrop       bool   `env:"MT_ALLOW_DROP" envDefault:"false"`

	MigrationsEnabled       bool           `env:"MT_MIGRATIONS_ENABLED" envDefault:"true"`
	MigrationsPath          string         `env:"MT_TENANT_MIGRATIONS_PATH" envDefault:"migrations/tenant"`
	MigrationsTable         string         `env:"MT_MIGRATIONS_TABLE" envDefault:"schema_migrations"`
	StartupMigrationEnabled bool           `env:"MT_STARTUP_MIGRATION_ENABLED" envDefault:"true"`
	StartupMigrationPolicy  migrate.Policy `env:"MT_STARTUP_MIGRATION_POLICY" envDefault:"continue"`
	// MigrationLockTimeout and MigrationLockAttempts bound the wait for a
	// schema's advisory lock: one attempt every MigrationLockTimeout seconds.
	MigrationLockTimeout  uint64 `env:"MT_MIGRATION_LOCK_TIMEOUT" envDefault:"5"`
	MigrationLockAttempts uint64 `env:"MT_MIGRATION_LOCK_ATTEMPTS" envDefault:"60"`

	FallbackStrategy tenant.FallbackStrategy `env:"MT_FALLBACK_STRATEGY" envDefault:"FAIL_FAST"`
	ExcludePaths     []string                `env:"MT_EXCLUDE_PATHS" envSeparator:"," envDefault:"/healthz,/readyz,/metrics"`
	SecurityLogging  bool                    `env:"MT_SECURITY_LOGGING" envDefault:"false"`
	TenantClaim      string                  `env:"MT_TENANT_CLAIM" envDefault:"tenantId"`
	AltTenantClaims  []string                `env:"MT_TENANT_CLAIM_ALTERNATIVES" envSeparator:"," envDefault:"tenant,org,organization"`
}

// Validate rejects settings that cannot work.
func (t *Tenancy) Validate() error {
	var errs []error
	if strings.TrimSpace(t.SchemaPrefix) == "" {
		errs = append(errs, errors.New("MT_SCHEMA_PREFIX must not be empty"))
	}
	if strings.TrimSpace(t.MigrationsTable) == "" {
		errs = append(errs, errors.New("MT_MIGRATIONS_TABLE must not be empty"))
	}
	if t.MigrationLockAttempts == 0 {
		errs = append(errs, errors.New("MT_MIGRATION_LOCK_ATTEMPTS must be positive"))
	}
	return errors.Join(errs...)
}
