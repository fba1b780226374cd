// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package httpserver wires the liveness/readiness probes into a runnable
[http.Server].

The worker's primary transport is the task broker (internal/broker,
internal/worker) — this HTTP surface exists only so container
orchestrators and dashboards have something to poll. Only this package and
cmd/compiler are allowed to import net/http server primitives.
*/
package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/co-codin/query-compiler/internal/platform/constants"
	"github.com/co-codin/query-compiler/internal/platform/middleware"
)

// Handlers groups the HTTP handlers mounted by the server.
type Handlers struct {
	Liveness  http.HandlerFunc
	Readiness http.HandlerFunc
}

// Server wraps the chi router and the [http.Server].
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

// New constructs the chi router with the probe routes and the minimal
// middleware chain this admin surface needs.
func New(addr string, log *slog.Logger, h Handlers) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(log))
	router.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	router.Use(middleware.PanicRecovery(log))
	router.Use(chimw.CleanPath)

	router.Get("/health", h.Liveness)
	router.Get("/ready", h.Readiness)

	return &Server{
		log: log,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// ListenAndServe starts the HTTP server. It blocks until the server is
// closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("health server starting", slog.String("addr", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
