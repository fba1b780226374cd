// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package health implements the observability endpoints for the query compiler
worker.

It provides standard Kubernetes-style probes (liveness, readiness) to monitor
the operational health of the process and its dependencies.

Architecture:

  - Liveness: returns 200 OK as long as the process is running.
  - Readiness: pings Redis (when an L2 cache is configured) and reports the
    worker's compilation counters, so dashboards and orchestrators can see a
    stalled or thrashing worker without scraping logs.
*/
package health

import (
	"log/slog"
	"net/http"

	"github.com/co-codin/query-compiler/internal/platform/constants"
	"github.com/co-codin/query-compiler/internal/platform/metrics"
	"github.com/co-codin/query-compiler/internal/platform/respond"
)

// Dependencies holds the injectable dependency checkers for readiness.
type Dependencies struct {
	// CheckCache performs a shallow ping of the Redis L2 cache. Nil when no
	// cache is configured, in which case the check is skipped entirely.
	CheckCache func() error

	// Metrics reports the worker's in-flight/compiled/failed counters.
	Metrics *metrics.Counters
}

type handler struct {
	deps   Dependencies
	logger *slog.Logger
}

// NewHandlers constructs the liveness and readiness [http.HandlerFunc] pair.
func NewHandlers(deps Dependencies, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	h := &handler{deps: deps, logger: logger}
	return h.liveness, h.readiness
}

// liveness handles GET /health.
func (h *handler) liveness(w http.ResponseWriter, _ *http.Request) {
	respond.OK(w, map[string]string{
		constants.FieldStatus: "ok",
		"app":                 constants.AppName,
		"version":             constants.AppVersion,
	})
}

type checkResult struct {
	Name  string `json:"name"`
	IsOK  bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// readiness handles GET /ready.
func (h *handler) readiness(w http.ResponseWriter, _ *http.Request) {
	results := make([]checkResult, 0, 1)
	isReady := true

	if h.deps.CheckCache != nil {
		result := checkResult{Name: "redis", IsOK: true}
		if err := h.deps.CheckCache(); err != nil {
			result.IsOK = false
			result.Error = err.Error()
			isReady = false
			h.logger.Error("readiness_check_failed",
				slog.String("dependency", "redis"),
				slog.Any("error", err),
			)
		}
		results = append(results, result)
	}

	status := "ready"
	httpStatus := http.StatusOK
	if !isReady {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(httpStatus)
	}

	payload := map[string]any{
		constants.FieldStatus: status,
		"checks":              results,
	}
	if h.deps.Metrics != nil {
		payload["counters"] = h.deps.Metrics.Snapshot()
	}

	respond.OK(w, payload)
}
