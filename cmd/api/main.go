package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/storefront/internal/auth"
	"github.com/geocoder89/storefront/internal/config"
	"github.com/geocoder89/storefront/internal/db"
	httpx "github.com/geocoder89/storefront/internal/http"
	"github.com/geocoder89/storefront/internal/observability"
	"github.com/geocoder89/storefront/internal/repo/postgres"
	"github.com/geocoder89/storefront/internal/repo/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.OTELServiceName, cfg.Env, cfg.OTELEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	deps, closeStore, err := openStore(ctx, cfg, prom)
	if err != nil {
		log.Error("store setup failed", "driver", cfg.DBDriver, "err", err)
		os.Exit(1)
	}
	deps.Prom = prom
	deps.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	deps.Tokens = auth.NewManager(cfg.SigningSecret())

	created, err := db.EnsureAdminUser(ctx, deps.Users, cfg, log)
	if err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}
	if created {
		log.Info("admin user created", "username", cfg.AdminUsername)
	}

	// set up routers with the log
	router := httpx.NewRouter(log, deps, cfg)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "driver", cfg.DBDriver, "basePath", cfg.BasePath)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}

		closeStore()
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

// openStore builds the repos for the configured driver. The returned func
// releases the pool or file handle.
func openStore(ctx context.Context, cfg config.Config, prom *observability.Prom) (httpx.Deps, func(), error) {
	switch cfg.DBDriver {
	case "sqlite":
		gdb, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return httpx.Deps{}, nil, err
		}

		return httpx.Deps{
			Users:      sqlite.NewUsersRepo(gdb),
			Categories: sqlite.NewCategoriesRepo(gdb),
			Products:   sqlite.NewProductsRepo(gdb),
			Ping:       sqlite.Pinger(gdb),
		}, func() { _ = sqlite.Close(gdb) }, nil

	default:
		pool, err := db.NewPool(cfg.DBURL, cfg.DBMaxConns)
		if err != nil {
			return httpx.Deps{}, nil, err
		}

		schemaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		if err := db.ApplySchema(schemaCtx, pool); err != nil {
			pool.Close()
			return httpx.Deps{}, nil, err
		}

		return httpx.Deps{
			Users:      postgres.NewUsersRepo(pool, prom),
			Categories: postgres.NewCategoriesRepo(pool, prom),
			Products:   postgres.NewProductsRepo(pool, prom),
			Ping:       pool.Ping,
		}, pool.Close, nil
	}
}
