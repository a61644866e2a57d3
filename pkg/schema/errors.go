package schema

import "errors"

var (
	ErrInvalidTenantID   = errors.New("schema: invalid tenant identifier")
	ErrInvalidSchemaName = errors.New("schema: invalid schema name")
	ErrDropNotAllowed    = errors.New("schema: dropping schemas is disabled")
	ErrCreateFailed      = errors.New("schema: failed to create schema")
	ErrDropFailed        = errors.New("schema: failed to drop schema")
	ErrLookupFailed      = errors.New("schema: failed to look up schemas")
)
