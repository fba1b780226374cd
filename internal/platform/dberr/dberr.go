// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr classifies Postgres errors surfaced while executing
// compiled SQL against a real database, for use by the integration test
// harness (internal/platform/postgres, internal/platform/migration). The
// worker itself never runs the SQL it emits, so this classification is
// test-only: it turns a raw driver error into a signal about which stage
// of compilation produced bad SQL.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgError extracts the underlying [*pgconn.PgError], if any.
func PgError(err error) *pgconn.PgError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr
	}
	return nil
}

// IsSyntaxError reports whether err is a Postgres syntax error — almost
// always a sign the emitter produced malformed SQL.
func IsSyntaxError(err error) bool {
	pgErr := PgError(err)
	return pgErr != nil && pgErr.Code == pgerrcode.SyntaxError
}

// IsUnknownIdentifier reports whether err references a table or column
// the emitter named that doesn't exist in the fixture schema, or a bare
// column name that more than one joined table carries (ambiguous column) —
// usually a mismatch between the catalog's physical names and the test
// fixture.
func IsUnknownIdentifier(err error) bool {
	pgErr := PgError(err)
	if pgErr == nil {
		return false
	}
	switch pgErr.Code {
	case pgerrcode.UndefinedColumn, pgerrcode.UndefinedTable, pgerrcode.AmbiguousColumn:
		return true
	}
	return false
}

// IsGroupingError reports whether err is Postgres rejecting a SELECT list
// that references a column not covered by GROUP BY — a sign the emitter's
// group-derivation left an aggregate's sibling field unaccounted for.
func IsGroupingError(err error) bool {
	pgErr := PgError(err)
	return pgErr != nil && pgErr.Code == pgerrcode.GroupingError
}
