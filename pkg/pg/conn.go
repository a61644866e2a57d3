package pg

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hermeshr/tenancy/pkg/tenant"
)

// Conn is a pooled connection routed by the Router. It must be released
// exactly once; further calls to Release are no-ops.
type Conn struct {
	router   *Router
	scope    *tenant.Scope
	tenantID string
	schema   string

	mu   sync.Mutex
	conn PoolConn
}

func newConn(r *Router, pc PoolConn, scope *tenant.Scope, tenantID, schemaName string) *Conn {
	if scope != nil {
		scope.BindConn()
	}
	return &Conn{
		router:   r,
		scope:    scope,
		tenantID: tenantID,
		schema:   schemaName,
		conn:     pc,
	}
}

// TenantID returns the tenant the connection is routed for, or "" for a
// neutral connection.
func (c *Conn) TenantID() string { return c.tenantID }

// Schema returns the tenant schema at the head of the search_path, or ""
// for a neutral connection.
func (c *Conn) Schema() string { return c.schema }

func (c *Conn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	pc, err := c.active()
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return pc.Exec(ctx, sql, args...)
}

func (c *Conn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	pc, err := c.active()
	if err != nil {
		return nil, err
	}
	return pc.Query(ctx, sql, args...)
}

func (c *Conn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	pc, err := c.active()
	if err != nil {
		return errRow{err: err}
	}
	return pc.QueryRow(ctx, sql, args...)
}

// Begin starts a transaction. The unit of work cannot switch tenants until
// the transaction is committed or rolled back.
func (c *Conn) Begin(ctx context.Context) (*Tx, error) {
	pc, err := c.active()
	if err != nil {
		return nil, err
	}

	tx, err := pc.Begin(ctx)
	if err != nil {
		return nil, err
	}

	if c.scope != nil {
		c.scope.BeginTx()
	}
	return &Tx{Tx: tx, scope: c.scope}, nil
}

// Release resets the connection and returns it to the pool. The reset runs
// even when ctx is already cancelled.
func (c *Conn) Release(ctx context.Context) {
	c.mu.Lock()
	pc := c.conn
	c.conn = nil
	c.mu.Unlock()

	if pc == nil {
		return
	}
	if c.scope != nil {
		defer c.scope.UnbindConn()
	}
	c.router.release(ctx, pc, c.schema)
}

func (c *Conn) active() (PoolConn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil, ErrConnReleased
	}
	return c.conn, nil
}

// Tx is a transaction on a routed connection.
type Tx struct {
	pgx.Tx
	scope *tenant.Scope
	once  sync.Once
}

// Commit commits the transaction and ends its tracking in the scope.
func (t *Tx) Commit(ctx context.Context) error {
	defer t.end()
	return t.Tx.Commit(ctx)
}

// Rollback rolls back the transaction and ends its tracking in the scope.
func (t *Tx) Rollback(ctx context.Context) error {
	defer t.end()
	return t.Tx.Rollback(ctx)
}

func (t *Tx) end() {
	t.once.Do(func() {
		if t.scope != nil {
			t.scope.EndTx()
		}
	})
}

type errRow struct {
	err error
}

func (r errRow) Scan(...any) error { return r.err }
