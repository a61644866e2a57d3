package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

var (
	ErrFailedToOpenDBConnection = errors.New("pg: failed to open connection pool")
	ErrHealthcheckFailed        = errors.New("pg: database unreachable")
	ErrFailedToParseDBConfig    = errors.New("pg: invalid connection string")
	ErrFailedToApplyMigrations  = errors.New("pg: failed to apply shared migrations")
	ErrMigrationsDirNotFound    = errors.New("pg: shared migrations directory not found")
	ErrMigrationPathNotProvided = errors.New("pg: shared migrations path not set")

	// ErrSchemaSwitchFailed is returned when a connection could not be bound
	// to the tenant schema. The message never names the schema.
	ErrSchemaSwitchFailed = errors.New("failed to switch connection to tenant schema")
	ErrAcquireFailed      = errors.New("failed to acquire connection")
	ErrConnReleased       = errors.New("connection already released")
)

// IsTxClosedError reports whether err comes from using a transaction that
// was already committed or rolled back.
func IsTxClosedError(err error) bool {
	return err != nil && errors.Is(err, pgx.ErrTxClosed)
}
