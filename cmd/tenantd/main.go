// Command tenantd hosts the tenancy stack: it reconciles tenant schemas at
// startup, consumes tenant lifecycle events and serves tenant-scoped HTTP
// requests through the schema router.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/hermeshr/tenancy/internal/bootstrap"
	"github.com/hermeshr/tenancy/pkg/auth"
	"github.com/hermeshr/tenancy/pkg/config"
	"github.com/hermeshr/tenancy/pkg/events"
	"github.com/hermeshr/tenancy/pkg/httpserver"
	"github.com/hermeshr/tenancy/pkg/logger"
	"github.com/hermeshr/tenancy/pkg/pg"
	"github.com/hermeshr/tenancy/pkg/redis"
	"github.com/hermeshr/tenancy/pkg/tenant"
)

type serviceConfig struct {
	bootstrap.Config
	HTTP   httpserver.Config
	Redis  redis.Config
	Auth   auth.Config
	Events events.StreamConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("tenantd stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg serviceConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log := bootstrap.NewLogger(cfg.Config, "tenantd")
	logger.SetAsDefault(log)

	stack, err := bootstrap.Open(ctx, cfg.Config, log)
	if err != nil {
		return err
	}
	defer stack.Close()

	if err := pg.Migrate(ctx, stack.Pool, cfg.Postgres, log); err != nil {
		return err
	}

	if _, err := stack.Reconciler(cfg.Tenancy, log).Run(ctx); err != nil {
		return err
	}

	verifier, err := auth.NewVerifier(cfg.Auth)
	if err != nil {
		return err
	}

	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	binder := newBinder(cfg.Tenancy, stack, log)

	routerMetrics := pg.NewMetrics()
	router := pg.NewRouter(pg.FromPool(stack.Pool), stack.Naming,
		pg.WithRouting(cfg.Tenancy.Enabled),
		pg.WithResetTimeout(cfg.Postgres.ResetTimeout),
		pg.WithMetrics(routerMetrics),
		pg.WithLogger(log),
	)

	eventMetrics := events.NewMetrics()
	consumer, err := events.NewConsumer(
		events.NewRedisStream(rdb, cfg.Events),
		binder,
		events.NewHandler(stack.Runner, events.WithHandlerLogger(log)),
		events.WithConsumerMetrics(eventMetrics),
		events.WithConsumerLogger(log),
	)
	if err != nil {
		return err
	}

	handler, err := newHTTPHandler(httpDeps{
		log:      log,
		verifier: verifier,
		binder:   binder,
		router:   router,
		checks: map[string]httpserver.Check{
			"postgres": pg.Healthcheck(stack.Pool),
			"redis":    redis.Healthcheck(rdb),
		},
		collectors: [][]prometheus.Collector{
			routerMetrics.PrometheusCollectors(),
			stack.Metrics.PrometheusCollectors(),
			eventMetrics.PrometheusCollectors(),
		},
	})
	if err != nil {
		return err
	}

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx, handler) })
	g.Go(func() error { return consumer.Run(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newBinder(cfg config.Tenancy, stack *bootstrap.Stack, log *slog.Logger) *tenant.Binder {
	return tenant.NewBinder(
		tenant.WithEnabled(cfg.Enabled),
		tenant.WithResolver(tenant.NewClaimsResolver(auth.IdentitySource, cfg.TenantClaim, cfg.AltTenantClaims...)),
		tenant.WithStrategy(cfg.FallbackStrategy),
		tenant.WithDefaultTenant(cfg.DefaultTenantID),
		tenant.WithExcludePaths(cfg.ExcludePaths...),
		tenant.WithAvailability(stack.Availability),
		tenant.WithSecurityLogging(cfg.SecurityLogging),
		tenant.WithLogger(log),
	)
}
