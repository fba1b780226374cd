// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package health_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/co-codin/query-compiler/internal/platform/health"
	"github.com/co-codin/query-compiler/internal/platform/metrics"
)

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLiveness_AlwaysReturnsOK(t *testing.T) {
	liveness, _ := health.NewHandlers(health.Dependencies{}, silentLogger())

	rec := httptest.NewRecorder()
	liveness(rec, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, 200, rec.Code)
}

func TestReadiness_NoCacheConfigured_ReportsReady(t *testing.T) {
	_, readiness := health.NewHandlers(health.Dependencies{Metrics: metrics.New()}, silentLogger())

	rec := httptest.NewRecorder()
	readiness(rec, httptest.NewRequest("GET", "/ready", nil))

	assert.Equal(t, 200, rec.Code)

	var body struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body.Data.Status)
}

func TestReadiness_CacheCheckFails_ReportsDegraded(t *testing.T) {
	deps := health.Dependencies{
		CheckCache: func() error { return errors.New("connection refused") },
		Metrics:    metrics.New(),
	}
	_, readiness := health.NewHandlers(deps, silentLogger())

	rec := httptest.NewRecorder()
	readiness(rec, httptest.NewRequest("GET", "/ready", nil))

	assert.Equal(t, 503, rec.Code)

	var body struct {
		Data struct {
			Status string `json:"status"`
			Checks []struct {
				Name  string `json:"name"`
				OK    bool   `json:"ok"`
				Error string `json:"error"`
			} `json:"checks"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Data.Status)
	require.Len(t, body.Data.Checks, 1)
	assert.False(t, body.Data.Checks[0].OK)
	assert.Equal(t, "connection refused", body.Data.Checks[0].Error)
}

func TestReadiness_CacheCheckSucceeds_ReportsReady(t *testing.T) {
	deps := health.Dependencies{
		CheckCache: func() error { return nil },
		Metrics:    metrics.New(),
	}
	_, readiness := health.NewHandlers(deps, silentLogger())

	rec := httptest.NewRecorder()
	readiness(rec, httptest.NewRequest("GET", "/ready", nil))

	assert.Equal(t, 200, rec.Code)
}
