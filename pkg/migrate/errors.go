package migrate

import "errors"

var (
	// ErrMigrationFailed wraps any failure to provision or migrate one schema.
	ErrMigrationFailed = errors.New("migrate: schema migration failed")
	// ErrStartupMigrationFailed is returned by the Reconciler under PolicyAbort.
	ErrStartupMigrationFailed = errors.New("migrate: startup migration failed")
	ErrInvalidPolicy          = errors.New("migrate: invalid startup migration policy")
	ErrEngineFailed           = errors.New("migrate: migration engine failed")
)
