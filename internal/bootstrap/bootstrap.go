// Package bootstrap assembles the database side of the tenancy stack from
// configuration for the tenantd and tenantctl commands.
package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hermeshr/tenancy/pkg/config"
	"github.com/hermeshr/tenancy/pkg/logger"
	"github.com/hermeshr/tenancy/pkg/migrate"
	"github.com/hermeshr/tenancy/pkg/pg"
	"github.com/hermeshr/tenancy/pkg/requestid"
	"github.com/hermeshr/tenancy/pkg/schema"
	"github.com/hermeshr/tenancy/pkg/tenant"
)

// Config is the configuration shared by both commands.
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`
	Postgres pg.Config
	Tenancy  config.Tenancy
}

func (c *Config) Validate() error {
	return c.Tenancy.Validate()
}

// NewLogger builds the process logger. Every record written inside a unit
// of work carries its tenant id and request id.
func NewLogger(cfg Config, service string) *slog.Logger {
	return logger.New(
		logger.WithEnvironment(cfg.Env, service),
		logger.WithLevelName(cfg.LogLevel),
		logger.WithContextExtractors(tenant.LoggerExtractor(), requestid.LoggerExtractor()),
	)
}

// Stack is the connected schema administration and migration stack.
type Stack struct {
	Pool         *pgxpool.Pool
	Naming       schema.Naming
	Admin        *schema.Admin
	Engine       *migrate.GooseEngine
	Runner       *migrate.Runner
	Availability *migrate.Availability
	Metrics      *migrate.Metrics
}

// Open connects to Postgres and wires the admin, engine and runner.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (*Stack, error) {
	pool, err := pg.Connect(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}

	t := cfg.Tenancy
	naming := schema.NewNaming(t.SchemaPrefix)
	admin := schema.NewAdmin(pool, naming,
		schema.WithAllowDrop(t.AllowDrop),
		schema.WithLogger(log),
	)

	if _, err := os.Stat(t.MigrationsPath); err != nil && t.MigrationsEnabled {
		pool.Close()
		return nil, errors.Join(migrate.ErrEngineFailed, err)
	}
	engine := migrate.NewGooseEngine(pool.Config().ConnConfig, os.DirFS(t.MigrationsPath),
		migrate.WithVersionTable(t.MigrationsTable),
		migrate.WithLockTimeout(t.MigrationLockTimeout, t.MigrationLockAttempts),
		migrate.WithEngineLogger(log),
	)

	availability := migrate.NewAvailability()
	metrics := migrate.NewMetrics()
	runner := migrate.NewRunner(admin, engine,
		migrate.WithMigrations(t.MigrationsEnabled),
		migrate.WithAvailability(availability),
		migrate.WithMetrics(metrics),
		migrate.WithLogger(log),
	)

	return &Stack{
		Pool:         pool,
		Naming:       naming,
		Admin:        admin,
		Engine:       engine,
		Runner:       runner,
		Availability: availability,
		Metrics:      metrics,
	}, nil
}

// Reconciler returns the startup reconciler configured by cfg.
func (s *Stack) Reconciler(cfg config.Tenancy, log *slog.Logger) *migrate.Reconciler {
	return migrate.NewReconciler(s.Admin, s.Runner,
		migrate.WithStartupMigration(cfg.StartupMigrationEnabled),
		migrate.WithPolicy(cfg.StartupMigrationPolicy),
		migrate.WithReconcilerLogger(log),
	)
}

func (s *Stack) Close() {
	s.Pool.Close()
}
