package tenant_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hermeshr/tenancy/pkg/tenant"
)

func TestScope(t *testing.T) {
	t.Parallel()

	t.Run("new scope is unset", func(t *testing.T) {
		t.Parallel()

		s := tenant.NewScope()
		assert.Equal(t, tenant.StateUnset, s.State())
		assert.False(t, s.HasContext())
		assert.False(t, s.IsNonTenant())

		_, err := s.Current()
		assert.ErrorIs(t, err, tenant.ErrNoTenantContext)
	})

	t.Run("set binds tenant", func(t *testing.T) {
		t.Parallel()

		s := tenant.NewScope()
		require.NoError(t, s.Set("acme"))

		id, err := s.Current()
		require.NoError(t, err)
		assert.Equal(t, "acme", id)
		assert.True(t, s.HasContext())
		assert.Equal(t, tenant.StateTenant, s.State())
	})

	t.Run("blank id is ignored", func(t *testing.T) {
		t.Parallel()

		s := tenant.NewScope()
		require.NoError(t, s.Set("   "))
		assert.False(t, s.HasContext())

		require.NoError(t, s.Set("acme"))
		require.NoError(t, s.Set(""))
		id, err := s.Current()
		require.NoError(t, err)
		assert.Equal(t, "acme", id)
	})

	t.Run("non-tenant has context but no id", func(t *testing.T) {
		t.Parallel()

		s := tenant.NewScope()
		require.NoError(t, s.SetNonTenant())
		assert.True(t, s.HasContext())
		assert.True(t, s.IsNonTenant())

		_, err := s.Current()
		assert.ErrorIs(t, err, tenant.ErrNoTenantContext)
	})

	t.Run("clear resets to unset", func(t *testing.T) {
		t.Parallel()

		s := tenant.NewScope()
		require.NoError(t, s.Set("acme"))
		s.Clear()

		assert.False(t, s.HasContext())
		_, err := s.Current()
		assert.ErrorIs(t, err, tenant.ErrNoTenantContext)
	})

	t.Run("switch refused while connection bound", func(t *testing.T) {
		t.Parallel()

		s := tenant.NewScope()
		require.NoError(t, s.Set("acme"))
		s.BindConn()

		assert.ErrorIs(t, s.Set("beta"), tenant.ErrInvariantViolation)
		assert.ErrorIs(t, s.SetNonTenant(), tenant.ErrInvariantViolation)
		assert.NoError(t, s.Set("acme"), "re-setting the same tenant is not a change")

		s.UnbindConn()
		assert.NoError(t, s.Set("beta"))
	})

	t.Run("switch refused while transaction active", func(t *testing.T) {
		t.Parallel()

		s := tenant.NewScope()
		s.BeginTx()
		assert.ErrorIs(t, s.Set("acme"), tenant.ErrInvariantViolation)

		s.EndTx()
		s.EndTx() // extra end does not underflow
		conns, txs := s.Bound()
		assert.Zero(t, conns)
		assert.Zero(t, txs)
		assert.NoError(t, s.Set("acme"))
	})
}

func TestContextHelpers(t *testing.T) {
	t.Parallel()

	t.Run("context without scope", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		_, ok := tenant.ScopeFromContext(ctx)
		assert.False(t, ok)
		assert.False(t, tenant.HasContext(ctx))
		assert.False(t, tenant.IsNonTenant(ctx))

		_, err := tenant.Current(ctx)
		assert.ErrorIs(t, err, tenant.ErrNoTenantContext)
	})

	t.Run("context with scope", func(t *testing.T) {
		t.Parallel()

		s := tenant.NewScope()
		require.NoError(t, s.Set("acme"))
		ctx := tenant.WithScope(context.Background(), s)

		got, ok := tenant.ScopeFromContext(ctx)
		require.True(t, ok)
		assert.Same(t, s, got)

		id, err := tenant.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, "acme", id)
	})

	t.Run("logger extractor", func(t *testing.T) {
		t.Parallel()

		extract := tenant.LoggerExtractor()

		_, ok := extract(context.Background())
		assert.False(t, ok)

		s := tenant.NewScope()
		require.NoError(t, s.Set("acme"))
		attr, ok := extract(tenant.WithScope(context.Background(), s))
		require.True(t, ok)
		assert.Equal(t, "tenant_id", attr.Key)
		assert.Equal(t, "acme", attr.Value.String())
	})
}

func TestIdentifierSource(t *testing.T) {
	t.Parallel()

	src := tenant.NewIdentifierSource()
	assert.True(t, src.ValidateExistingSessions())
	assert.Equal(t, "", src.ResolveCurrentTenant(context.Background()))

	s := tenant.NewScope()
	ctx := tenant.WithScope(context.Background(), s)
	require.NoError(t, s.SetNonTenant())
	assert.Equal(t, "", src.ResolveCurrentTenant(ctx))

	s.Clear()
	require.NoError(t, s.Set("acme"))
	assert.Equal(t, "acme", src.ResolveCurrentTenant(ctx))
}
