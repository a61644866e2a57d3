package migrate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hermeshr/tenancy/pkg/logger"
	"github.com/hermeshr/tenancy/pkg/schema"
)

// SchemaAdmin is the subset of *schema.Admin used by the runner.
type SchemaAdmin interface {
	Naming() schema.Naming
	CreateSchema(ctx context.Context, name string) error
	DropSchema(ctx context.Context, name string) error
	SchemaExists(ctx context.Context, name string) (bool, error)
	ListTenantSchemas(ctx context.Context) ([]string, error)
}

// SchemaResult is the outcome of migrating one schema in a batch.
type SchemaResult struct {
	Schema   string
	Duration time.Duration
	Err      error
}

// BatchResult aggregates a batch run. Results are in input order.
type BatchResult struct {
	Succeeded int
	Failed    int
	Results   []SchemaResult
}

// Err joins the errors of every failed schema, or returns nil.
func (b BatchResult) Err() error {
	var errs []error
	for _, r := range b.Results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}

// FailedSchemas returns the names of the schemas that failed.
func (b BatchResult) FailedSchemas() []string {
	var names []string
	for _, r := range b.Results {
		if r.Err != nil {
			names = append(names, r.Schema)
		}
	}
	return names
}

// Runner provisions tenant schemas and migrates them forward.
type Runner struct {
	admin        SchemaAdmin
	engine       Engine
	enabled      bool
	availability *Availability
	metrics      *Metrics
	log          *slog.Logger
}

// RunnerOption configures the Runner.
type RunnerOption func(*Runner)

// WithMigrations toggles the migration engine. When disabled, schemas are
// still created but no migrations run.
func WithMigrations(enabled bool) RunnerOption {
	return func(r *Runner) { r.enabled = enabled }
}

// WithAvailability makes the runner clear a tenant's isolation once its
// schema migrates successfully.
func WithAvailability(a *Availability) RunnerOption {
	return func(r *Runner) { r.availability = a }
}

// WithMetrics records migration metrics.
func WithMetrics(m *Metrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// WithLogger sets the runner logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

func NewRunner(admin SchemaAdmin, engine Engine, opts ...RunnerOption) *Runner {
	r := &Runner{
		admin:   admin,
		engine:  engine,
		enabled: true,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Availability returns the availability tracker, if any.
func (r *Runner) Availability() *Availability { return r.availability }

// InitializeTenantSchema creates the tenant's schema and applies every
// migration to it. Any failure is returned wrapped in ErrMigrationFailed;
// the tenant must not be treated as ready in that case.
func (r *Runner) InitializeTenantSchema(ctx context.Context, tenantID string) error {
	naming := r.admin.Naming()
	if err := naming.Validate(tenantID); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	name := naming.SchemaName(tenantID)
	log := r.log.With(logger.Tenant(tenantID), logger.Schema(name))

	log.InfoContext(ctx, "Initializing tenant schema")

	if err := r.admin.CreateSchema(ctx, name); err != nil {
		log.ErrorContext(ctx, "Failed to create tenant schema", logger.Error(err))
		return errors.Join(ErrMigrationFailed, err)
	}

	if err := r.migrate(ctx, log, tenantID, name); err != nil {
		return err
	}

	log.InfoContext(ctx, "Tenant schema initialized")
	return nil
}

// RunMigrationOnly migrates an existing schema. A missing schema is logged
// and skipped; provisioning is InitializeTenantSchema's job.
func (r *Runner) RunMigrationOnly(ctx context.Context, schemaName string) error {
	log := r.log.With(logger.Schema(schemaName))

	exists, err := r.admin.SchemaExists(ctx, schemaName)
	if err != nil {
		log.ErrorContext(ctx, "Failed to check schema existence", logger.Error(err))
		return errors.Join(ErrMigrationFailed, err)
	}
	if !exists {
		log.WarnContext(ctx, "Schema does not exist, skipping migration")
		r.metrics.observeRun(LabelSkipped, 0, 0)
		return nil
	}

	tenantID, _ := r.admin.Naming().TenantID(schemaName)
	return r.migrate(ctx, log, tenantID, schemaName)
}

// IsMigrationRequired reports whether the schema has pending migrations.
// When the engine cannot tell, it reports true together with the error.
func (r *Runner) IsMigrationRequired(ctx context.Context, schemaName string) (bool, error) {
	pending, err := r.engine.Pending(ctx, schemaName)
	if err != nil {
		r.log.WarnContext(ctx, "Failed to check pending migrations",
			logger.Schema(schemaName),
			logger.Error(err),
		)
		return true, errors.Join(ErrMigrationFailed, err)
	}
	return pending > 0, nil
}

// RunMigrationsForSchemas migrates each schema in order. A failing schema
// is recorded and never stops the rest of the batch.
func (r *Runner) RunMigrationsForSchemas(ctx context.Context, names []string) BatchResult {
	result := BatchResult{Results: make([]SchemaResult, 0, len(names))}

	for _, name := range names {
		start := time.Now()
		err := r.RunMigrationOnly(ctx, name)

		result.Results = append(result.Results, SchemaResult{
			Schema:   name,
			Duration: time.Since(start),
			Err:      err,
		})
		if err != nil {
			result.Failed++
			continue
		}
		result.Succeeded++
	}

	r.log.InfoContext(ctx, "Batch migration finished",
		logger.Count("total", len(names)),
		logger.Count("succeeded", result.Succeeded),
		logger.Count("failed", result.Failed),
	)
	return result
}

// DropTenantSchema removes the tenant's schema. It fails with
// schema.ErrDropNotAllowed unless dropping is enabled on the admin.
func (r *Runner) DropTenantSchema(ctx context.Context, tenantID string) error {
	naming := r.admin.Naming()
	if err := naming.Validate(tenantID); err != nil {
		return err
	}
	name := naming.SchemaName(tenantID)

	if err := r.admin.DropSchema(ctx, name); err != nil {
		return err
	}
	r.availability.MarkAvailable(tenantID)
	r.metrics.setUnavailable(len(r.availability.Tenants()))
	return nil
}

// LogMigrationInfo logs the applied and pending migrations of a schema.
func (r *Runner) LogMigrationInfo(ctx context.Context, schemaName string) {
	st, err := r.engine.Status(ctx, schemaName)
	if err != nil {
		r.log.WarnContext(ctx, "Failed to read migration status",
			logger.Schema(schemaName),
			logger.Error(err),
		)
		return
	}
	r.log.InfoContext(ctx, "Migration status",
		logger.Schema(schemaName),
		slog.Int64("version", st.Version),
		logger.Count("applied", st.Applied),
		logger.Count("pending", st.Pending),
	)
}

func (r *Runner) migrate(ctx context.Context, log *slog.Logger, tenantID, name string) error {
	if !r.enabled {
		log.DebugContext(ctx, "Migrations disabled, skipping")
		r.metrics.observeRun(LabelSkipped, 0, 0)
		return nil
	}

	start := time.Now()
	applied, err := r.engine.Up(ctx, name)
	elapsed := time.Since(start)
	if err != nil {
		r.metrics.observeRun(LabelFailure, applied, elapsed)
		log.ErrorContext(ctx, "Schema migration failed",
			logger.Count("applied", applied),
			logger.Duration(elapsed),
			logger.Error(err),
		)
		return errors.Join(ErrMigrationFailed, err)
	}

	r.metrics.observeRun(LabelSuccess, applied, elapsed)
	if r.availability.Unavailable(tenantID) {
		r.availability.MarkAvailable(tenantID)
		r.metrics.setUnavailable(len(r.availability.Tenants()))
		log.InfoContext(ctx, "Tenant available again after successful migration")
	}

	log.InfoContext(ctx, "Schema migrated",
		logger.Count("applied", applied),
		logger.Duration(elapsed),
	)
	return nil
}
