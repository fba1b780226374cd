// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/co-codin/query-compiler/internal/platform/apperr"
)

func TestConstructors_SetExpectedCodeAndStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    *apperr.AppError
		code   string
		status int
	}{
		{"NotFound", apperr.NotFound("Query"), "NOT_FOUND", http.StatusNotFound},
		{"Unauthorized", apperr.Unauthorized("no token"), "UNAUTHORIZED", http.StatusUnauthorized},
		{"Forbidden", apperr.Forbidden("no access"), "FORBIDDEN", http.StatusForbidden},
		{"Conflict", apperr.Conflict("duplicate"), "CONFLICT", http.StatusConflict},
		{"ValidationError", apperr.ValidationError("bad input"), "VALIDATION_ERROR", http.StatusBadRequest},
		{"RateLimited", apperr.RateLimited(5), "RATE_LIMITED", http.StatusTooManyRequests},
		{"Unprocessable", apperr.Unprocessable("bad semantics"), "UNPROCESSABLE", http.StatusUnprocessableEntity},
		{"Internal", apperr.Internal(errors.New("boom")), "INTERNAL_ERROR", http.StatusInternalServerError},
		{"ServiceUnavailable", apperr.ServiceUnavailable("maintenance"), "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, tc.err.Code)
			assert.Equal(t, tc.status, tc.err.HTTPStatus)
		})
	}
}

func TestNotFound_MessageNamesResource(t *testing.T) {
	err := apperr.NotFound("Query")
	assert.Equal(t, "Query not found", err.Error())
}

func TestRateLimited_MessageIncludesRetryAfter(t *testing.T) {
	err := apperr.RateLimited(10)
	assert.Contains(t, err.Error(), "10s")
}

func TestInternal_CauseNotExposedInMessage(t *testing.T) {
	cause := errors.New("leaked sql: SELECT * FROM secrets")
	err := apperr.Internal(cause)

	assert.Equal(t, "An unexpected error occurred", err.Error())
	assert.Same(t, cause, errors.Unwrap(err))
}

func TestIsAppError(t *testing.T) {
	assert.True(t, apperr.IsAppError(apperr.NotFound("x")))
	assert.False(t, apperr.IsAppError(errors.New("plain error")))

	wrapped := fmt.Errorf("context: %w", apperr.Conflict("dup"))
	assert.True(t, apperr.IsAppError(wrapped))
}

func TestAs(t *testing.T) {
	original := apperr.Forbidden("nope")
	wrapped := fmt.Errorf("context: %w", original)

	extracted := apperr.As(wrapped)
	assert.Same(t, original, extracted)

	assert.Nil(t, apperr.As(errors.New("plain")))
}

func TestValidationError_CarriesFieldDetails(t *testing.T) {
	err := apperr.ValidationError("invalid query", apperr.FieldError{Field: "attributes", Message: "required"})
	assert.Len(t, err.Details, 1)
	assert.Equal(t, "attributes", err.Details[0].Field)
}
