// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/co-codin/query-compiler/internal/platform/constants"
	"github.com/co-codin/query-compiler/internal/platform/ctxutil"
	"github.com/co-codin/query-compiler/internal/platform/middleware"
)

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ctxutil.GetGUID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/x", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(constants.HeaderXRequestID))
}

func TestRequestID_PropagatesIncomingHeader(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ctxutil.GetGUID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set(constants.HeaderXRequestID, "client-supplied-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "client-supplied-id", seen)
	assert.Equal(t, "client-supplied-id", rec.Header().Get(constants.HeaderXRequestID))
}

func TestStructuredLogger_InjectsRequestScopedLogger(t *testing.T) {
	var injected *slog.Logger
	handler := middleware.StructuredLogger(silentLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		injected = ctxutil.GetLogger(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest("GET", "/x", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.NotNil(t, injected)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestPanicRecovery_RecoversAndReturns500(t *testing.T) {
	handler := middleware.PanicRecovery(silentLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest("GET", "/x", nil)
	req = req.WithContext(ctxutil.WithLogger(req.Context(), silentLogger()))
	rec := httptest.NewRecorder()

	assert.NotPanics(t, func() {
		handler.ServeHTTP(rec, req)
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRealIP_PrefersXRealIPHeader(t *testing.T) {
	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set(constants.HeaderXRealIP, "203.0.113.5")
	req.RemoteAddr = "10.0.0.1:4321"

	assert.Equal(t, "203.0.113.5", middleware.RealIP(req))
}

func TestRealIP_FallsBackToXForwardedFor(t *testing.T) {
	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set(constants.HeaderXForwardedFor, "198.51.100.7, 10.0.0.1")
	req.RemoteAddr = "10.0.0.1:4321"

	assert.Equal(t, "198.51.100.7", middleware.RealIP(req))
}

func TestRealIP_FallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest("GET", "/x", nil)
	req.RemoteAddr = "192.0.2.9:4321"

	assert.Equal(t, "192.0.2.9", middleware.RealIP(req))
}
