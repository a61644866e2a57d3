package migrate_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hermeshr/tenancy/pkg/migrate"
	"github.com/hermeshr/tenancy/pkg/schema"
)

// MockAdmin is a mock implementation of migrate.SchemaAdmin.
type MockAdmin struct {
	mock.Mock
	naming schema.Naming
}

func (m *MockAdmin) Naming() schema.Naming { return m.naming }

func (m *MockAdmin) CreateSchema(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockAdmin) DropSchema(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockAdmin) SchemaExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockAdmin) ListTenantSchemas(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockEngine is a mock implementation of migrate.Engine.
type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Up(ctx context.Context, schemaName string) (int, error) {
	args := m.Called(ctx, schemaName)
	return args.Int(0), args.Error(1)
}

func (m *MockEngine) Pending(ctx context.Context, schemaName string) (int, error) {
	args := m.Called(ctx, schemaName)
	return args.Int(0), args.Error(1)
}

func (m *MockEngine) Status(ctx context.Context, schemaName string) (migrate.Status, error) {
	args := m.Called(ctx, schemaName)
	return args.Get(0).(migrate.Status), args.Error(1)
}
