package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hermeshr/tenancy/pkg/logger"
)

// Policy decides what a failed startup migration means for the process.
type Policy string

const (
	// PolicyContinue logs failures and serves every tenant anyway. Default.
	PolicyContinue Policy = "continue"
	// PolicyIsolate keeps serving, but rejects requests for tenants whose
	// schema failed to migrate until a later migration succeeds.
	PolicyIsolate Policy = "isolate"
	// PolicyAbort fails startup when any schema failed to migrate.
	PolicyAbort Policy = "abort"
)

// ParsePolicy parses a policy name, case-insensitively. Empty means
// PolicyContinue.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyContinue, nil
	case PolicyContinue, PolicyIsolate, PolicyAbort:
		return p, nil
	}
	return "", errors.Join(ErrInvalidPolicy, fmt.Errorf("unknown policy %q", s))
}

// UnmarshalText lets configuration loaders parse the policy directly.
func (p *Policy) UnmarshalText(text []byte) error {
	v, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Reconciler brings every existing tenant schema up to date once, late in
// process startup. Schemas are migrated sequentially.
type Reconciler struct {
	admin   SchemaAdmin
	runner  *Runner
	enabled bool
	policy  Policy
	log     *slog.Logger
}

// ReconcilerOption configures the Reconciler.
type ReconcilerOption func(*Reconciler)

// WithStartupMigration toggles the reconciler. Disabled, Run does nothing.
func WithStartupMigration(enabled bool) ReconcilerOption {
	return func(r *Reconciler) { r.enabled = enabled }
}

// WithPolicy sets the startup failure policy.
func WithPolicy(p Policy) ReconcilerOption {
	return func(r *Reconciler) {
		if p != "" {
			r.policy = p
		}
	}
}

// WithReconcilerLogger sets the reconciler logger.
func WithReconcilerLogger(l *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if l != nil {
			r.log = l
		}
	}
}

// NewReconciler creates a reconciler. PolicyIsolate requires the runner to
// be built WithAvailability; without it failures are only logged.
func NewReconciler(admin SchemaAdmin, runner *Runner, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		admin:   admin,
		runner:  runner,
		enabled: true,
		policy:  PolicyContinue,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run lists every tenant schema, logs its pending status and migrates the
// batch. Only PolicyAbort turns failures into a returned error.
func (r *Reconciler) Run(ctx context.Context) (BatchResult, error) {
	if !r.enabled {
		r.log.DebugContext(ctx, "Startup migration disabled")
		return BatchResult{}, nil
	}

	log := r.log.With(logger.Strategy(string(r.policy)))

	names, err := r.admin.ListTenantSchemas(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list tenant schemas", logger.Error(err))
		if r.policy == PolicyAbort {
			return BatchResult{}, errors.Join(ErrStartupMigrationFailed, err)
		}
		return BatchResult{}, nil
	}

	log.InfoContext(ctx, "Reconciling tenant schemas", logger.Count("schemas", len(names)))

	for _, name := range names {
		r.runner.LogMigrationInfo(ctx, name)
	}

	result := r.runner.RunMigrationsForSchemas(ctx, names)
	if result.Failed == 0 {
		return result, nil
	}

	failed := result.FailedSchemas()
	log.ErrorContext(ctx, "Startup migration failed for some tenant schemas",
		logger.Schemas(failed),
		logger.Error(result.Err()),
	)

	switch r.policy {
	case PolicyAbort:
		return result, errors.Join(ErrStartupMigrationFailed, result.Err())

	case PolicyIsolate:
		r.isolate(ctx, result)
	}
	return result, nil
}

func (r *Reconciler) isolate(ctx context.Context, result BatchResult) {
	avail := r.runner.Availability()
	if avail == nil {
		r.log.WarnContext(ctx, "Isolation policy configured without availability tracking")
		return
	}

	naming := r.admin.Naming()
	for _, res := range result.Results {
		if res.Err == nil {
			continue
		}
		if id, ok := naming.TenantID(res.Schema); ok {
			avail.MarkUnavailable(id, res.Err)
			r.log.WarnContext(ctx, "Tenant isolated until its schema migrates",
				logger.Tenant(id),
				logger.Schema(res.Schema),
			)
		}
	}
	r.runner.metrics.setUnavailable(len(avail.Tenants()))
}
