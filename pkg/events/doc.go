// Package events consumes tenant lifecycle events from a Redis stream.
//
// TENANT_CREATED provisions the tenant schema and then runs the registered
// after-create hooks bound to the new tenant, for example to create the
// tenant's initial administrator. TENANT_DELETED drops the schema when
// dropping is enabled.
//
//	stream := events.NewRedisStream(client, cfg.Events)
//	handler := events.NewHandler(runner, events.WithAfterCreate(createAdmin))
//	consumer, err := events.NewConsumer(stream, binder, handler)
//	go consumer.Run(ctx)
//
// Every entry is its own unit of work started non-tenant through the
// binder. It is acknowledged only after the handler succeeded; failed
// entries stay pending and are reclaimed later. Entries that can never
// succeed (malformed, unknown type, invalid tenant, drop disabled) are
// logged and acknowledged.
package events
