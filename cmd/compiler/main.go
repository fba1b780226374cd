/*
Compiler is the entry point for the DWH query compiler worker.

It consumes query-compilation requests from a task broker, resolves the
referenced fields against the data catalog, enforces per-identity field
access, joins the underlying warehouse tables, and publishes the
compiled Postgres SQL (or a structured error) back onto the broker.

Usage:

	go run cmd/compiler/main.go

The environment variables are documented on [config.Config].

Startup Sequence:

 1. Logger: initialize structured JSON logging (slog).
 2. Config: load and validate environment variables.
 3. Platform services: the optional service JWT signer and the shared
    outbound HTTP client settings.
 4. Catalog: construct the process-wide metadata catalog, its optional
    Redis L2 cache, and the HTTP clients for the data catalog and IAM.
 5. Wiring: assemble the compiler pipeline and the broker-driven worker.
 6. Server: bind the health/readiness HTTP listener.
 7. Run: drive the broker consume loop until a shutdown signal arrives.

No business logic lives here. This file is strictly for orchestration and
wiring.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/co-codin/query-compiler/internal/accesscheck"
	"github.com/co-codin/query-compiler/internal/broker"
	"github.com/co-codin/query-compiler/internal/catalog"
	"github.com/co-codin/query-compiler/internal/parser"
	"github.com/co-codin/query-compiler/internal/pipeline"
	"github.com/co-codin/query-compiler/internal/platform/config"
	"github.com/co-codin/query-compiler/internal/platform/constants"
	"github.com/co-codin/query-compiler/internal/platform/health"
	"github.com/co-codin/query-compiler/internal/platform/httpclient"
	"github.com/co-codin/query-compiler/internal/platform/httpserver"
	"github.com/co-codin/query-compiler/internal/platform/metrics"
	redisstore "github.com/co-codin/query-compiler/internal/platform/redis"
	"github.com/co-codin/query-compiler/internal/platform/svcauth"
	"github.com/co-codin/query-compiler/internal/worker"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application_startup_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// # 1. Logger
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// # 2. Configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("data_catalog_url", cfg.DataCatalogURL),
		slog.Bool("catalog_cache_enabled", cfg.CatalogCacheEnabled()),
		slog.Bool("service_auth_enabled", cfg.ServiceAuthEnabled()),
	)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// # 3. Service JWT signer (outbound calls to catalog/IAM)
	var tokenSvc *svcauth.TokenService
	if cfg.ServiceAuthEnabled() {
		tokenSvc, err = svcauth.NewTokenService(cfg.ServiceJWTPrivateKeyPath, constants.ServiceAuthIssuer)
		if err != nil {
			return fmt.Errorf("initialize service jwt signer: %w", err)
		}
	}

	httpCfg := httpclient.Config{
		Retries:       cfg.Retries,
		Timeout:       time.Duration(cfg.TimeoutSeconds) * time.Second,
		RetryStatuses: toIntSet(cfg.RetryStatusList),
		RetryMethods:  toStringSet(cfg.RetryMethodList),
		RateLimitRPS:  constants.DefaultCatalogRateLimitRPS,
		RateLimit:     constants.DefaultCatalogRateLimitBurst,
	}

	// # 4. Catalog, optional Redis L2 cache, and the resolver/access-check
	// clients built on top of the shared outbound HTTP client.
	cat := catalog.New(nil)

	var checkCache func() error
	var l2Cache catalog.L2Cache
	if cfg.CatalogCacheEnabled() {
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		l2Cache = catalog.NewRedisCache(rdb)
		checkCache = func() error {
			return redisstore.Ping(context.Background(), rdb)
		}
		defer func() {
			log.Info("closing redis client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis close error", slog.Any("error", cerr))
			}
		}()
	}

	catalogHTTP := httpclient.New(httpCfg, tokenSvc)
	catalogClient := catalog.NewHTTPClient(cfg.DataCatalogURL, catalogHTTP)
	resolver := catalog.NewResolver(cat, catalogClient, l2Cache)

	iamHTTP := httpclient.New(httpCfg, tokenSvc)
	accessChecker := accesscheck.NewChecker(cfg.IAMURL, iamHTTP)

	// # 5. Pipeline and worker wiring
	compiler := &pipeline.Compiler{
		Options: parser.Options{
			AggregationFunctions: cfg.PGAggregationFunctions,
			Operators:            cfg.OperatorFunctions,
		},
		Catalog:  cat,
		Resolver: resolver,
		Access:   accessChecker,
		Logger:   log,
	}

	counters := metrics.New()

	// The broker consumer loop and its connection lifecycle are an external
	// collaborator per SPEC_FULL.md section 1 — this in-process stub is the
	// local-development/testing substitute until a real client is wired in.
	brokerStub := broker.NewInProcess(64)

	driver := &worker.Driver{
		Consumer: brokerStub,
		Producer: brokerStub,
		Compiler: compiler,
		Metrics:  counters,
		Logger:   log,
	}

	// # 6. Health server
	liveness, readiness := health.NewHandlers(health.Dependencies{
		CheckCache: checkCache,
		Metrics:    counters,
	}, log)

	healthSrv := httpserver.New(":"+cfg.HealthPort, log, httpserver.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
	})

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	shutdownErr := make(chan error, 2)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			shutdownErr <- fmt.Errorf("health_server_crash: %w", err)
		}
	}()

	go func() {
		if err := driver.Run(appCtx); err != nil && !errors.Is(err, context.Canceled) {
			shutdownErr <- fmt.Errorf("worker_driver_crash: %w", err)
		}
	}()

	log.Info("query_compiler_running", slog.String("health_port", cfg.HealthPort))

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-shutdownErr:
		return err
	}

	appCancel()
	brokerStub.Close()

	log.Info("shutting_down_health_server", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := healthSrv.Shutdown(constants.ShutdownTimeout); err != nil {
		return fmt.Errorf("health_server_shutdown_failed: %w", err)
	}

	log.Info("graceful_shutdown_complete")
	return nil
}

func toIntSet(values []int) map[int]bool {
	set := make(map[int]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func toStringSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
