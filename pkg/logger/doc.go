// Package logger builds the slog loggers used across the tenancy packages
// and holds the shared attribute helpers.
//
// New wraps a text or JSON handler so that every registered ContextExtractor
// runs when a record is written with a context. The services register
// tenant.LoggerExtractor and requestid.LoggerExtractor, so records emitted
// inside a unit of work carry tenant_id and request_id without each call
// site adding them.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment(os.Getenv("APP_ENV"), "tenantd"),
//	    logger.WithContextExtractors(tenant.LoggerExtractor(), requestid.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "schema migrated",
//	    logger.Schema("tenant_acme"),
//	    logger.Count("applied", 3),
//	)
//
// Attribute helpers such as Error, Tenant and Schema keep key names
// consistent across packages.
package logger
