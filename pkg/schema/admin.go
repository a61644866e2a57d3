package schema

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hermeshr/tenancy/pkg/logger"
)

// Querier is the subset of *pgxpool.Pool used for schema administration.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Admin creates, drops and discovers tenant schemas.
// Schema existence is the only record of which tenants are provisioned.
type Admin struct {
	db        Querier
	naming    Naming
	allowDrop bool
	log       *slog.Logger
}

// AdminOption configures an Admin.
type AdminOption func(*Admin)

// WithAllowDrop enables DropSchema. Disabled by default.
func WithAllowDrop(allow bool) AdminOption {
	return func(a *Admin) { a.allowDrop = allow }
}

// WithLogger sets the logger used by Admin.
func WithLogger(l *slog.Logger) AdminOption {
	return func(a *Admin) {
		if l != nil {
			a.log = l
		}
	}
}

// NewAdmin returns an Admin operating on db.
func NewAdmin(db Querier, naming Naming, opts ...AdminOption) *Admin {
	a := &Admin{
		db:     db,
		naming: naming,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Naming returns the naming convention used by the admin.
func (a *Admin) Naming() Naming { return a.naming }

// CreateSchema creates the schema if it does not exist yet.
func (a *Admin) CreateSchema(ctx context.Context, name string) error {
	if err := a.naming.ValidateSchemaName(name); err != nil {
		return err
	}

	if _, err := a.db.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+quote(name)); err != nil {
		return errors.Join(ErrCreateFailed, err)
	}

	a.log.InfoContext(ctx, "Schema created", logger.Schema(name))
	return nil
}

// DropSchema removes the schema and everything in it.
// Returns ErrDropNotAllowed unless the admin was built WithAllowDrop(true).
func (a *Admin) DropSchema(ctx context.Context, name string) error {
	if !a.allowDrop {
		a.log.WarnContext(ctx, "Refusing to drop schema, drop is disabled", logger.Schema(name))
		return ErrDropNotAllowed
	}
	if err := a.naming.ValidateSchemaName(name); err != nil {
		return err
	}

	if _, err := a.db.Exec(ctx, "DROP SCHEMA IF EXISTS "+quote(name)+" CASCADE"); err != nil {
		return errors.Join(ErrDropFailed, err)
	}

	a.log.InfoContext(ctx, "Schema dropped", logger.Schema(name))
	return nil
}

// SchemaExists reports whether a schema with the given name exists.
func (a *Admin) SchemaExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := a.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)",
		name,
	).Scan(&exists)
	if err != nil {
		return false, errors.Join(ErrLookupFailed, err)
	}
	return exists, nil
}

// ListTenantSchemas returns every schema that follows the naming convention,
// sorted by name.
func (a *Admin) ListTenantSchemas(ctx context.Context) ([]string, error) {
	prefix := a.naming.Prefix()

	// LIKE would treat "_" in the prefix as a wildcard, so compare the prefix literally.
	rows, err := a.db.Query(ctx,
		"SELECT schema_name FROM information_schema.schemata WHERE left(schema_name, $2) = $1 ORDER BY schema_name",
		prefix, len(prefix),
	)
	if err != nil {
		return nil, errors.Join(ErrLookupFailed, err)
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.Join(ErrLookupFailed, err)
	}

	result := make([]string, 0, len(names))
	for _, name := range names {
		if a.naming.IsTenantSchema(name) {
			result = append(result, name)
		}
	}
	return result, nil
}

func quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
