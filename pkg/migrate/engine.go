package migrate

import (
	"context"
	"errors"
	"hash/crc64"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
	"github.com/pressly/goose/v3/lock"

	"github.com/hermeshr/tenancy/pkg/logger"
	"github.com/hermeshr/tenancy/pkg/pg"
)

// DefaultVersionTable is the per-schema bookkeeping table.
const DefaultVersionTable = "schema_migrations"

// Engine applies versioned migrations to exactly one schema.
type Engine interface {
	// Up applies all pending migrations in version order and returns how
	// many were applied.
	Up(ctx context.Context, schemaName string) (int, error)
	// Pending returns the number of migrations not yet applied.
	Pending(ctx context.Context, schemaName string) (int, error)
	// Status describes the migration state of the schema.
	Status(ctx context.Context, schemaName string) (Status, error)
}

// Status is the migration state of one schema.
type Status struct {
	Schema  string `json:"schema"`
	Version int64  `json:"version"`
	Applied int    `json:"applied"`
	Pending int    `json:"pending"`
}

// GooseEngine runs goose migrations against one schema at a time. Each
// operation uses a dedicated connection whose search_path is the target
// schema, so the version table and every unqualified object in the
// migrations land in that schema. A session advisory lock keyed by the
// schema serializes concurrent runs across processes.
type GooseEngine struct {
	connConfig *pgx.ConnConfig
	fsys       fs.FS
	table      string
	lockPeriod uint64
	lockTries  uint64
	log        *slog.Logger
}

// EngineOption configures the GooseEngine.
type EngineOption func(*GooseEngine)

// WithVersionTable sets the name of the per-schema version table.
func WithVersionTable(name string) EngineOption {
	return func(e *GooseEngine) {
		if name != "" {
			e.table = name
		}
	}
}

// WithLockTimeout sets how often (seconds) and how many times the engine
// retries acquiring the schema lock.
func WithLockTimeout(periodSeconds, attempts uint64) EngineOption {
	return func(e *GooseEngine) {
		if periodSeconds > 0 && attempts > 0 {
			e.lockPeriod = periodSeconds
			e.lockTries = attempts
		}
	}
}

// WithEngineLogger sets the logger receiving goose output.
func WithEngineLogger(l *slog.Logger) EngineOption {
	return func(e *GooseEngine) {
		if l != nil {
			e.log = l
		}
	}
}

// NewGooseEngine creates an engine reading migrations from fsys. connConfig
// is usually the pool's pool.Config().ConnConfig; it is copied per schema.
func NewGooseEngine(connConfig *pgx.ConnConfig, fsys fs.FS, opts ...EngineOption) *GooseEngine {
	e := &GooseEngine{
		connConfig: connConfig,
		fsys:       fsys,
		table:      DefaultVersionTable,
		lockPeriod: 5,
		lockTries:  60,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *GooseEngine) Up(ctx context.Context, schemaName string) (int, error) {
	p, err := e.provider(schemaName)
	if err != nil || p == nil {
		return 0, err
	}
	defer p.Close()

	results, err := p.Up(ctx)
	if err != nil {
		return len(results), errors.Join(ErrEngineFailed, err)
	}
	return len(results), nil
}

func (e *GooseEngine) Pending(ctx context.Context, schemaName string) (int, error) {
	st, err := e.Status(ctx, schemaName)
	return st.Pending, err
}

func (e *GooseEngine) Status(ctx context.Context, schemaName string) (Status, error) {
	st := Status{Schema: schemaName}

	p, err := e.provider(schemaName)
	if err != nil || p == nil {
		return st, err
	}
	defer p.Close()

	migrations, err := p.Status(ctx)
	if err != nil {
		return st, errors.Join(ErrEngineFailed, err)
	}
	for _, m := range migrations {
		switch m.State {
		case goose.StatePending:
			st.Pending++
		case goose.StateApplied:
			st.Applied++
			if m.Source != nil && m.Source.Version > st.Version {
				st.Version = m.Source.Version
			}
		}
	}
	return st, nil
}

// provider returns nil without error when there are no migrations at all.
func (e *GooseEngine) provider(schemaName string) (*goose.Provider, error) {
	cc := e.connConfig.Copy()
	if cc.RuntimeParams == nil {
		cc.RuntimeParams = make(map[string]string)
	}
	cc.RuntimeParams["search_path"] = pgx.Identifier{schemaName}.Sanitize()

	store, err := database.NewStore(database.DialectPostgres, e.table)
	if err != nil {
		return nil, errors.Join(ErrEngineFailed, err)
	}
	locker, err := lock.NewPostgresSessionLocker(
		lock.WithLockID(LockID(schemaName)),
		lock.WithLockTimeout(e.lockPeriod, e.lockTries),
	)
	if err != nil {
		return nil, errors.Join(ErrEngineFailed, err)
	}

	db := stdlib.OpenDB(*cc)
	p, err := goose.NewProvider("", db, e.fsys,
		goose.WithStore(store),
		goose.WithSessionLocker(locker),
		goose.WithDisableGlobalRegistry(true),
		goose.WithLogger(pg.GooseLogger(e.log, logger.Schema(schemaName))),
	)
	if err != nil {
		_ = db.Close()
		if errors.Is(err, goose.ErrNoMigrations) {
			return nil, nil
		}
		return nil, errors.Join(ErrEngineFailed, err)
	}
	return p, nil
}

var lockTable = crc64.MakeTable(crc64.ECMA)

// LockID derives the advisory lock id used while migrating schemaName.
func LockID(schemaName string) int64 {
	return int64(crc64.Checksum([]byte("tenancy:"+schemaName), lockTable))
}
