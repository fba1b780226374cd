// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/co-codin/query-compiler/internal/platform/ctxutil"
)

/*
TestContext_GUID verifies that a compilation request's guid can be
injected and retrieved.
*/
func TestContext_GUID(t *testing.T) {
	ctx := context.Background()
	guid := "test-guid"

	assert.Empty(t, ctxutil.GetGUID(ctx))

	ctx = ctxutil.WithGUID(ctx, guid)
	assert.Equal(t, guid, ctxutil.GetGUID(ctx))
}

/*
TestContext_Logger verifies that a custom logger can be stored in context.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}
