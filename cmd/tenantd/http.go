package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hermeshr/tenancy/pkg/auth"
	"github.com/hermeshr/tenancy/pkg/httpserver"
	"github.com/hermeshr/tenancy/pkg/logger"
	"github.com/hermeshr/tenancy/pkg/pg"
	"github.com/hermeshr/tenancy/pkg/requestid"
	"github.com/hermeshr/tenancy/pkg/tenant"
)

type httpDeps struct {
	log        *slog.Logger
	verifier   *auth.Verifier
	binder     *tenant.Binder
	router     *pg.Router
	checks     map[string]httpserver.Check
	collectors [][]prometheus.Collector
}

func newHTTPHandler(d httpDeps) (http.Handler, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	for _, group := range d.collectors {
		for _, c := range group {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)

	// Platform endpoints never resolve a tenant.
	r.Group(func(r chi.Router) {
		r.Use(d.binder.Middleware(tenant.Exempt()))
		r.Get("/healthz", httpserver.Liveness())
		r.Get("/readyz", httpserver.Readiness(d.log, 2*time.Second, d.checks))
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(auth.Authenticate(auth.MiddlewareConfig{Verifier: d.verifier, Logger: d.log}))
		r.Use(d.binder.Middleware())
		r.Use(tenant.RequireTenant(nil))

		r.Get("/tenant", tenantInfo(d.router, d.log))
	})

	return r, nil
}

// tenantInfo reports the tenant and schema the request was routed to.
func tenantInfo(router *pg.Router, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var out struct {
			Tenant string `json:"tenant"`
			Schema string `json:"schema"`
		}

		err := router.WithConn(r.Context(), func(ctx context.Context, conn *pg.Conn) error {
			out.Tenant = conn.TenantID()
			return conn.QueryRow(ctx, "SELECT current_schema()").Scan(&out.Schema)
		})
		if err != nil {
			log.ErrorContext(r.Context(), "Failed to query tenant schema", logger.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}
