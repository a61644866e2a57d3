package migrate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hermeshr/tenancy/pkg/migrate"
	"github.com/hermeshr/tenancy/pkg/schema"
)

func newMocks() (*MockAdmin, *MockEngine) {
	return &MockAdmin{naming: schema.NewNaming("")}, &MockEngine{}
}

func TestRunner_InitializeTenantSchema(t *testing.T) {
	t.Parallel()

	t.Run("creates schema then applies migrations", func(t *testing.T) {
		t.Parallel()

		admin, engine := newMocks()
		created := admin.On("CreateSchema", mock.Anything, "tenant_acme").Return(nil)
		engine.On("Up", mock.Anything, "tenant_acme").Return(3, nil).NotBefore(created)

		r := migrate.NewRunner(admin, engine)
		require.NoError(t, r.InitializeTenantSchema(context.Background(), "acme"))

		admin.AssertExpectations(t)
		engine.AssertExpectations(t)
	})

	t.Run("invalid tenant id touches nothing", func(t *testing.T) {
		t.Parallel()

		admin, engine := newMocks()
		r := migrate.NewRunner(admin, engine)

		err := r.InitializeTenantSchema(context.Background(), "bad id")
		assert.ErrorIs(t, err, migrate.ErrMigrationFailed)
		assert.ErrorIs(t, err, schema.ErrInvalidTenantID)
		admin.AssertNotCalled(t, "CreateSchema", mock.Anything, mock.Anything)
	})

	t.Run("create failure propagates", func(t *testing.T) {
		t.Parallel()

		admin, engine := newMocks()
		boom := errors.New("permission denied")
		admin.On("CreateSchema", mock.Anything, "tenant_acme").Return(boom)

		r := migrate.NewRunner(admin, engine)
		err := r.InitializeTenantSchema(context.Background(), "acme")
		assert.ErrorIs(t, err, migrate.ErrMigrationFailed)
		assert.ErrorIs(t, err, boom)
		engine.AssertNotCalled(t, "Up", mock.Anything, mock.Anything)
	})

	t.Run("engine failure propagates", func(t *testing.T) {
		t.Parallel()

		admin, engine := newMocks()
		boom := errors.New("syntax error at or near")
		admin.On("CreateSchema", mock.Anything, "tenant_acme").Return(nil)
		engine.On("Up", mock.Anything, "tenant_acme").Return(1, boom)

		m := migrate.NewMetrics()
		r := migrate.NewRunner(admin, engine, migrate.WithMetrics(m))
		err := r.InitializeTenantSchema(context.Background(), "acme")
		assert.ErrorIs(t, err, migrate.ErrMigrationFailed)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.SchemaMigrations.WithLabelValues(migrate.LabelFailure)))
	})

	t.Run("migrations disabled only creates schema", func(t *testing.T) {
		t.Parallel()

		admin, engine := newMocks()
		admin.On("CreateSchema", mock.Anything, "tenant_acme").Return(nil)

		r := migrate.NewRunner(admin, engine, migrate.WithMigrations(false))
		require.NoError(t, r.InitializeTenantSchema(context.Background(), "acme"))
		engine.AssertNotCalled(t, "Up", mock.Anything, mock.Anything)
	})
}

func TestRunner_RunMigrationOnly(t *testing.T) {
	t.Parallel()

	t.Run("missing schema is a no-op", func(t *testing.T) {
		t.Parallel()

		admin, engine := newMocks()
		admin.On("SchemaExists", mock.Anything, "tenant_ghost").Return(false, nil)

		r := migrate.NewRunner(admin, engine)
		require.NoError(t, r.RunMigrationOnly(context.Background(), "tenant_ghost"))
		engine.AssertNotCalled(t, "Up", mock.Anything, mock.Anything)
		admin.AssertNotCalled(t, "CreateSchema", mock.Anything, mock.Anything)
	})

	t.Run("migrates existing schema", func(t *testing.T) {
		t.Parallel()

		admin, engine := newMocks()
		admin.On("SchemaExists", mock.Anything, "tenant_acme").Return(true, nil)
		engine.On("Up", mock.Anything, "tenant_acme").Return(0, nil)

		r := migrate.NewRunner(admin, engine)
		require.NoError(t, r.RunMigrationOnly(context.Background(), "tenant_acme"))
		engine.AssertExpectations(t)
	})

	t.Run("existence check failure", func(t *testing.T) {
		t.Parallel()

		admin, engine := newMocks()
		admin.On("SchemaExists", mock.Anything, "tenant_acme").Return(false, errors.New("conn refused"))

		r := migrate.NewRunner(admin, engine)
		assert.ErrorIs(t, r.RunMigrationOnly(context.Background(), "tenant_acme"), migrate.ErrMigrationFailed)
	})

	t.Run("success restores availability", func(t *testing.T) {
		t.Parallel()

		admin, engine := newMocks()
		admin.On("SchemaExists", mock.Anything, "tenant_acme").Return(true, nil)
		engine.On("Up", mock.Anything, "tenant_acme").Return(1, nil)

		avail := migrate.NewAvailability()
		avail.MarkUnavailable("acme", errors.New("previous failure"))

		r := migrate.NewRunner(admin, engine, migrate.WithAvailability(avail))
		require.NoError(t, r.RunMigrationOnly(context.Background(), "tenant_acme"))
		assert.False(t, avail.Unavailable("acme"))
	})
}

func TestRunner_IsMigrationRequired(t *testing.T) {
	t.Parallel()

	admin, engine := newMocks()
	engine.On("Pending", mock.Anything, "tenant_acme").Return(2, nil)
	engine.On("Pending", mock.Anything, "tenant_beta").Return(0, nil)
	engine.On("Pending", mock.Anything, "tenant_gamma").Return(0, errors.New("lock timeout"))

	r := migrate.NewRunner(admin, engine)

	required, err := r.IsMigrationRequired(context.Background(), "tenant_acme")
	require.NoError(t, err)
	assert.True(t, required)

	required, err = r.IsMigrationRequired(context.Background(), "tenant_beta")
	require.NoError(t, err)
	assert.False(t, required)

	required, err = r.IsMigrationRequired(context.Background(), "tenant_gamma")
	assert.ErrorIs(t, err, migrate.ErrMigrationFailed)
	assert.True(t, required)

	engine.AssertNotCalled(t, "Up", mock.Anything, mock.Anything)
}

func TestRunner_RunMigrationsForSchemas(t *testing.T) {
	t.Parallel()

	admin, engine := newMocks()
	boom := errors.New("relation already exists")
	admin.On("SchemaExists", mock.Anything, mock.Anything).Return(true, nil)
	engine.On("Up", mock.Anything, "tenant_s1").Return(0, boom)
	engine.On("Up", mock.Anything, "tenant_s2").Return(2, nil)
	engine.On("Up", mock.Anything, "tenant_s3").Return(0, nil)

	r := migrate.NewRunner(admin, engine)
	result := r.RunMigrationsForSchemas(context.Background(), []string{"tenant_s1", "tenant_s2", "tenant_s3"})

	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Results, 3)
	assert.Equal(t, "tenant_s1", result.Results[0].Schema)
	assert.ErrorIs(t, result.Results[0].Err, boom)
	assert.Equal(t, "tenant_s2", result.Results[1].Schema)
	assert.NoError(t, result.Results[1].Err)
	assert.Equal(t, []string{"tenant_s1"}, result.FailedSchemas())
	assert.ErrorIs(t, result.Err(), boom)

	engine.AssertExpectations(t)
}

func TestRunner_DropTenantSchema(t *testing.T) {
	t.Parallel()

	t.Run("drops and clears availability", func(t *testing.T) {
		t.Parallel()

		admin, engine := newMocks()
		admin.On("DropSchema", mock.Anything, "tenant_acme").Return(nil)

		avail := migrate.NewAvailability()
		avail.MarkUnavailable("acme", nil)

		r := migrate.NewRunner(admin, engine, migrate.WithAvailability(avail))
		require.NoError(t, r.DropTenantSchema(context.Background(), "acme"))
		assert.False(t, avail.Unavailable("acme"))
	})

	t.Run("drop disabled", func(t *testing.T) {
		t.Parallel()

		admin, engine := newMocks()
		admin.On("DropSchema", mock.Anything, "tenant_acme").Return(schema.ErrDropNotAllowed)

		r := migrate.NewRunner(admin, engine)
		assert.ErrorIs(t, r.DropTenantSchema(context.Background(), "acme"), schema.ErrDropNotAllowed)
	})
}

func TestRunner_LogMigrationInfo(t *testing.T) {
	t.Parallel()

	admin, engine := newMocks()
	engine.On("Status", mock.Anything, "tenant_acme").Return(migrate.Status{Schema: "tenant_acme", Version: 3, Applied: 3}, nil)
	engine.On("Status", mock.Anything, "tenant_beta").Return(migrate.Status{}, errors.New("timeout"))

	r := migrate.NewRunner(admin, engine)
	r.LogMigrationInfo(context.Background(), "tenant_acme")
	r.LogMigrationInfo(context.Background(), "tenant_beta")

	engine.AssertExpectations(t)
}
