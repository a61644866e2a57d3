// Package pg provides the PostgreSQL layer shared by all tenants: one
// pgx connection pool, a Router that binds every checked-out connection to
// the schema of the tenant active in the caller's context, and helpers to
// bootstrap the pool and the shared (non-tenant) migrations.
//
// # Routing
//
// The pool has no tenant affinity. On every checkout the Router reads the
// tenant from the context, puts its schema at the head of the search_path
// (keeping the non-tenant elements already present) and verifies the schema
// is active. A connection that cannot be switched is closed instead of
// being returned to the pool. On release the search_path is reset; if that
// fails, the connection is closed as well.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	router := pg.NewRouter(pg.FromPool(pool), schema.NewNaming("tenant_"))
//
//	err = router.WithTx(ctx, func(ctx context.Context, tx *pg.Tx) error {
//		_, err := tx.Exec(ctx, "INSERT INTO employees (name) VALUES ($1)", name)
//		return err
//	})
//
// While a routed connection or transaction is open, the unit of work cannot
// switch tenants: tenant.Run and Scope.Set fail with
// tenant.ErrInvariantViolation.
//
// # Configuration
//
// Config is populated from PG_* environment variables. With
// PG_RESET_ON_RELEASE (default true) Connect also installs a pool hook that
// resets the search_path of connections returned outside the Router.
package pg
