// Package cerr defines the centralized error taxonomy for the query
// compiler pipeline.
//
// It plays the same role the teacher's apperr package plays for an HTTP API:
// the parser, join-graph and catalog-lookup failures and access denials are
// [CompilerError] values. Some failures are returned as plain errors: an
// IAM response other than 200 or 403, a failed IAM call, and a failure to
// build a catalog or IAM request. The worker publishes a structured error
// for every failed compilation, plain or not, and rejects a delivery
// outright only when its envelope does not parse.
package cerr

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable identifier for a compiler error.
type Kind string

const (
	KindDeserializeJSONQuery    Kind = "DESERIALIZE_JSON_QUERY"
	KindAttributeConvert        Kind = "ATTRIBUTE_CONVERT"
	KindFilterConvert           Kind = "FILTER_CONVERT"
	KindUnknownAggregationFunc  Kind = "UNKNOWN_AGGREGATION_FUNCTION"
	KindUnknownOperatorFunc     Kind = "UNKNOWN_OPERATOR_FUNCTION"
	KindFilterValueCast         Kind = "FILTER_VALUE_CAST"
	KindNoAttributesInQuery     Kind = "NO_ATTRIBUTES_IN_INPUT_QUERY"
	KindNoAliasMappedValue      Kind = "NO_ALIAS_MAPPED_VALUE"
	KindNoRootTable             Kind = "NO_ROOT_TABLE"
	KindNotOneRootTable         Kind = "NOT_ONE_ROOT_TABLE"
	KindHTTPErrorFromDataCatalog Kind = "HTTP_ERROR_FROM_DATA_CATALOG"
	KindAccessDenied            Kind = "ACCESS_DENIED"
)

// CompilerError is the canonical error type for the query compiler.
//
// The worker logs every failure; for an ACCESS_DENIED error it publishes a
// message naming the denied Fields, and for every other failure the generic
// "Failed to compile".
type CompilerError struct {
	// Kind identifies which of the taxonomy's error families this is.
	Kind Kind
	// Message is safe to include in the structured error published back to
	// the broker.
	Message string
	// Cause is the underlying error, logged but never published.
	Cause error
	// Fields holds the logical field names involved, when applicable
	// (e.g. the denied resources in an AccessDenied error).
	Fields []string
}

func (e *CompilerError) Error() string { return e.Message }

func (e *CompilerError) Unwrap() error { return e.Cause }

// Is reports whether err (or any error in its chain) is a *CompilerError of
// the given Kind.
func Is(err error, kind Kind) bool {
	var ce *CompilerError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Kind == kind
}

// As extracts the *CompilerError from err's chain, or returns nil.
func As(err error) *CompilerError {
	var ce *CompilerError
	if errors.As(err, &ce) {
		return ce
	}
	return nil
}

// # Constructors — one per taxonomy entry in spec section 7.

func DeserializeJSONQuery(rawQuery []byte, cause error) *CompilerError {
	const maxLogBytes = 2048
	snippet := rawQuery
	if len(snippet) > maxLogBytes {
		snippet = snippet[:maxLogBytes]
	}
	return &CompilerError{
		Kind:    KindDeserializeJSONQuery,
		Message: fmt.Sprintf("couldn't deserialize the input json query: %s", string(snippet)),
		Cause:   cause,
	}
}

func AttributeConvert(record any) *CompilerError {
	return &CompilerError{
		Kind:    KindAttributeConvert,
		Message: fmt.Sprintf("couldn't convert record %v to one of Field, Alias, Aggregate", record),
	}
}

func FilterConvert(record any) *CompilerError {
	return &CompilerError{
		Kind:    KindFilterConvert,
		Message: fmt.Sprintf("couldn't convert record %v to one of BooleanFilter, SimpleFilter", record),
	}
}

func UnknownAggregationFunction(function string) *CompilerError {
	return &CompilerError{
		Kind:    KindUnknownAggregationFunc,
		Message: fmt.Sprintf("unknown aggregation function %q", function),
	}
}

func UnknownOperatorFunction(operator string) *CompilerError {
	return &CompilerError{
		Kind:    KindUnknownOperatorFunc,
		Message: fmt.Sprintf("unknown operator function %q", operator),
	}
}

func FilterValueCast(operator string, value any) *CompilerError {
	return &CompilerError{
		Kind:    KindFilterValueCast,
		Message: fmt.Sprintf("couldn't cast filter value %v for operator %q", value, operator),
	}
}

func NoAttributesInInputQuery() *CompilerError {
	return &CompilerError{
		Kind:    KindNoAttributesInQuery,
		Message: "there are no attributes in the input query",
	}
}

func NoAliasMappedValue(alias string) *CompilerError {
	return &CompilerError{
		Kind:    KindNoAliasMappedValue,
		Message: fmt.Sprintf("no alias mapped for %q", alias),
	}
}

func NoRootTable() *CompilerError {
	return &CompilerError{
		Kind:    KindNoRootTable,
		Message: "no root table was created",
	}
}

func NotOneRootTable(roots []string) *CompilerError {
	return &CompilerError{
		Kind:    KindNotOneRootTable,
		Message: fmt.Sprintf("more than one root table was built: %v", roots),
		Fields:  roots,
	}
}

func HTTPErrorFromDataCatalog(url string, status int, body string, cause error) *CompilerError {
	return &CompilerError{
		Kind:    KindHTTPErrorFromDataCatalog,
		Message: fmt.Sprintf("couldn't get attribute data from the data catalog: url=%s status=%d body=%s", url, status, body),
		Cause:   cause,
	}
}

func AccessDenied(deniedFields []string) *CompilerError {
	return &CompilerError{
		Kind:    KindAccessDenied,
		Message: fmt.Sprintf("access denied for %v", deniedFields),
		Fields:  deniedFields,
	}
}
