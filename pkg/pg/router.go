package pg

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hermeshr/tenancy/pkg/logger"
	"github.com/hermeshr/tenancy/pkg/schema"
	"github.com/hermeshr/tenancy/pkg/tenant"
)

// DefaultResetTimeout bounds the search_path reset performed on release.
const DefaultResetTimeout = 2 * time.Second

const (
	showSearchPathSQL  = "SHOW search_path"
	resetSearchPathSQL = "RESET search_path"
	currentSchemaSQL   = "SELECT current_schema()"
)

// errSchemaMissing deliberately omits the schema name.
var errSchemaMissing = errors.New("target schema does not exist")

// PoolConn is a connection checked out of the shared pool.
type PoolConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	// Release returns the connection to the pool.
	Release()
	// Discard closes the connection so it is never handed out again.
	Discard(ctx context.Context)
}

// Connector checks connections out of the shared pool.
type Connector interface {
	Acquire(ctx context.Context) (PoolConn, error)
}

// FromPool adapts a pgx pool into a Connector.
func FromPool(pool *pgxpool.Pool) Connector {
	return poolConnector{pool: pool}
}

type poolConnector struct {
	pool *pgxpool.Pool
}

func (p poolConnector) Acquire(ctx context.Context) (PoolConn, error) {
	c, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return poolConn{Conn: c}, nil
}

type poolConn struct {
	*pgxpool.Conn
}

func (c poolConn) Discard(ctx context.Context) {
	_ = c.Hijack().Close(ctx)
}

// Router hands out pooled connections bound to the schema of the tenant
// active in the caller's context. The pool itself has no tenant affinity;
// every checkout sets the schema explicitly.
type Router struct {
	connector    Connector
	naming       schema.Naming
	enabled      bool
	verify       bool
	resetTimeout time.Duration
	metrics      *Metrics
	log          *slog.Logger
}

// RouterOption configures the Router.
type RouterOption func(*Router)

// WithRouting toggles schema routing. A disabled router hands out neutral
// connections only.
func WithRouting(enabled bool) RouterOption {
	return func(r *Router) { r.enabled = enabled }
}

// WithSchemaVerification makes Acquire check that the tenant schema is the
// active one after switching. Enabled by default; PostgreSQL silently skips
// missing schemas in search_path.
func WithSchemaVerification(verify bool) RouterOption {
	return func(r *Router) { r.verify = verify }
}

// WithResetTimeout bounds the search_path reset on release.
func WithResetTimeout(d time.Duration) RouterOption {
	return func(r *Router) {
		if d > 0 {
			r.resetTimeout = d
		}
	}
}

// WithMetrics records routing metrics.
func WithMetrics(m *Metrics) RouterOption {
	return func(r *Router) { r.metrics = m }
}

// WithLogger sets the router logger.
func WithLogger(l *slog.Logger) RouterOption {
	return func(r *Router) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRouter creates a router over connector.
func NewRouter(connector Connector, naming schema.Naming, opts ...RouterOption) *Router {
	r := &Router{
		connector:    connector,
		naming:       naming,
		enabled:      true,
		verify:       true,
		resetTimeout: DefaultResetTimeout,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Acquire checks out a connection for the unit of work in ctx. Without a
// tenant, or in non-tenant mode, the connection uses the default schema.
// With a tenant, the tenant schema is put first on the search_path; if that
// fails the connection is closed and ErrSchemaSwitchFailed is returned.
//
// The connection is counted as bound in the context's scope until Release,
// which blocks tenant switches on this unit of work in the meantime.
func (r *Router) Acquire(ctx context.Context) (*Conn, error) {
	scope, _ := tenant.ScopeFromContext(ctx)

	var tenantID string
	if r.enabled {
		if id, err := tenant.Current(ctx); err == nil {
			tenantID = id
		}
	}

	start := time.Now()

	if tenantID == "" {
		pc, err := r.connector.Acquire(ctx)
		if err != nil {
			return nil, errors.Join(ErrAcquireFailed, err)
		}
		r.metrics.observeAcquire(LabelNeutral, start)
		return newConn(r, pc, scope, "", ""), nil
	}

	name := r.naming.SchemaName(tenantID)
	if err := r.naming.Validate(tenantID); err != nil {
		r.metrics.observeSwitch(err)
		r.log.ErrorContext(ctx, "Refusing to route connection", logger.Tenant(tenantID), logger.Error(err))
		return nil, errors.Join(ErrSchemaSwitchFailed, err)
	}

	pc, err := r.connector.Acquire(ctx)
	if err != nil {
		return nil, errors.Join(ErrAcquireFailed, err)
	}

	err = r.switchSchema(ctx, pc, name)
	r.metrics.observeSwitch(err)
	if err != nil {
		r.log.ErrorContext(ctx, "Schema switch failed, discarding connection",
			logger.Tenant(tenantID),
			logger.Schema(name),
			logger.Error(err),
		)
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.resetTimeout)
		pc.Discard(dctx)
		cancel()
		return nil, errors.Join(ErrSchemaSwitchFailed, err)
	}

	r.metrics.observeAcquire(LabelTenant, start)
	return newConn(r, pc, scope, tenantID, name), nil
}

// WithConn runs fn with a routed connection and releases it afterwards.
func (r *Router) WithConn(ctx context.Context, fn func(ctx context.Context, conn *Conn) error) error {
	conn, err := r.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release(ctx)

	return fn(ctx, conn)
}

// WithTx runs fn in a transaction on a routed connection. The transaction
// is committed when fn returns nil and rolled back when it fails or panics.
func (r *Router) WithTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	return r.WithConn(ctx, func(ctx context.Context, conn *Conn) error {
		tx, err := conn.Begin(ctx)
		if err != nil {
			return err
		}

		defer func() {
			if p := recover(); p != nil {
				_ = tx.Rollback(context.WithoutCancel(ctx))
				panic(p)
			}
		}()

		if err := fn(ctx, tx); err != nil {
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !IsTxClosedError(rbErr) {
				return errors.Join(err, rbErr)
			}
			return err
		}

		return tx.Commit(ctx)
	})
}

func (r *Router) switchSchema(ctx context.Context, pc PoolConn, name string) error {
	var current string
	if err := pc.QueryRow(ctx, showSearchPathSQL).Scan(&current); err != nil {
		return err
	}

	if _, err := pc.Exec(ctx, "SET search_path TO "+r.searchPath(name, current)); err != nil {
		return err
	}

	if !r.verify {
		return nil
	}

	var active *string
	if err := pc.QueryRow(ctx, currentSchemaSQL).Scan(&active); err != nil {
		return err
	}
	if active == nil || *active != name {
		return errSchemaMissing
	}
	return nil
}

// searchPath puts name first and keeps every non-tenant element of the
// current path, dropping stale tenant schemas.
func (r *Router) searchPath(name, current string) string {
	path := []string{pgx.Identifier{name}.Sanitize()}
	for _, elem := range strings.Split(current, ",") {
		elem = strings.TrimSpace(elem)
		if elem == "" || r.naming.IsTenantSchema(unquoteIdent(elem)) {
			continue
		}
		path = append(path, elem)
	}
	return strings.Join(path, ", ")
}

// release resets the search_path and returns pc to the pool. A connection
// that cannot be reset is discarded.
func (r *Router) release(ctx context.Context, pc PoolConn, name string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.resetTimeout)
	defer cancel()

	_, err := pc.Exec(ctx, resetSearchPathSQL)
	r.metrics.observeReset(err)
	if err != nil {
		r.log.WarnContext(ctx, "Discarding connection, search_path reset failed",
			logger.Schema(name),
			logger.Error(err),
		)
		pc.Discard(ctx)
		return
	}
	pc.Release()
}

func unquoteIdent(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	return s
}
