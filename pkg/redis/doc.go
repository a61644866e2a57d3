// Package redis connects to Redis and wraps the stream commands used to
// deliver tenant lifecycle events.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	if err := redis.EnsureGroup(ctx, client, "tenant-events", "tenancy"); err != nil {
//		return err
//	}
//	msgs, err := redis.ReadGroup(ctx, client, "tenant-events", "tenancy", "worker-1", ">", 10, 5*time.Second)
//
// Healthcheck adapts a client to the readiness probe signature used by
// httpserver. All errors wrap the go-redis cause with errors.Join.
package redis
