// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/co-codin/query-compiler/internal/platform/ctxkey"
)

// # Request Tracing

// WithGUID returns a new context with the compilation request's guid attached.
func WithGUID(ctx context.Context, guid string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyGUID, guid)
}

// GetGUID retrieves the guid from the context.
// Returns an empty string if not found.
func GetGUID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyGUID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}
