package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/ulule/limiter/v3"

	annotationhandler "contractdesk/internal/annotation/handler"
	contracthandler "contractdesk/internal/contract/handler"
	"contractdesk/internal/identity"
	partyhandler "contractdesk/internal/party/handler"
	"contractdesk/internal/platform/config"
	"contractdesk/internal/platform/httpserver"
	"contractdesk/internal/platform/metrics"
	"contractdesk/internal/platform/redis"
	dErrors "contractdesk/pkg/domain-errors"
	"contractdesk/pkg/platform/httputil"
	"contractdesk/pkg/platform/middleware/auth"
	"contractdesk/pkg/platform/middleware/metadata"
	"contractdesk/pkg/platform/middleware/ratelimit"
	"contractdesk/pkg/platform/middleware/request"
	"contractdesk/pkg/platform/middleware/requesttime"
	"contractdesk/pkg/platform/middleware/tracing"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Server) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var rdb *redis.Client
	if cfg.RateLimit.Enabled && cfg.RateLimit.Storage == "redis" {
		rdb, err = redis.New(ctx, cfg.RateLimit)
		if err != nil {
			return err
		}
		defer rdb.Close()
	}

	router, err := newRouter(a, rdb)
	if err != nil {
		return err
	}
	srv := httpserver.New(cfg, router)

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("starting contractdesk", "addr", cfg.Addr, "env", cfg.Environment, "postgres", a.db != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func newRouter(a *app, rdb *redis.Client) (http.Handler, error) {
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.New(a.registry)

	r := chi.NewRouter()
	r.Use(request.Recovery(a.log))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(tracing.Middleware)
	r.Use(request.Logger(a.log))
	r.Use(metrics.LatencyMiddleware(httpMetrics))

	r.Get("/healthz", healthHandler(a, rdb))
	r.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	jwt := identity.NewJWTService(a.cfg.JWTSigningKey, a.cfg.JWTIssuer)

	// The limiter runs on both sides of auth over one store: in front it keys
	// by client IP so unauthenticated floods are cut off, behind it by principal.
	var clientLimit, principalLimit func(http.Handler) http.Handler
	if a.cfg.RateLimit.Enabled {
		var store limiter.Store
		if rdb != nil {
			s, err := ratelimit.NewRedisStore(rdb.Client)
			if err != nil {
				return nil, fmt.Errorf("rate limit store: %w", err)
			}
			store = s
		} else {
			store = ratelimit.NewMemoryStore()
		}
		limitCfg := ratelimit.Config{
			Requests: a.cfg.RateLimit.Requests,
			Period:   a.cfg.RateLimit.Period,
			Store:    store,
		}
		clientLimit = ratelimit.Middleware(limitCfg, httpMetrics, a.log)
		principalLimit = ratelimit.Middleware(limitCfg, httpMetrics, a.log)
	}

	r.Group(func(r chi.Router) {
		if clientLimit != nil {
			r.Use(clientLimit)
		}
		r.Use(auth.RequireAuth(identity.NewGate(jwt), a.log))
		if principalLimit != nil {
			r.Use(principalLimit)
		}
		r.Use(request.ContentTypeJSON)

		partyhandler.New(a.parties, a.log).Register(r)
		contracthandler.New(a.contracts, a.log).Register(r)
		annotationhandler.New(a.annotations, a.log).Register(r)
	})
	return r, nil
}

func healthHandler(a *app, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if a.db != nil {
			if err := a.db.PingContext(ctx); err != nil {
				httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "database unavailable"))
				return
			}
		}
		if rdb != nil {
			if err := rdb.Health(ctx); err != nil {
				httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "redis unavailable"))
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
