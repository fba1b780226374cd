// Package parser builds the typed intermediate representation ([ir.Table],
// [ir.Attribute], [ir.Filter] trees) from a request's raw `query` JSON
// subtree.
//
// Every exported entry point returns a fresh [RequestIR] value; nothing is
// kept in package-level state between calls, per the per-request-context
// redesign in SPEC_FULL.md section 9 (the original implementation this is
// ported from accumulates state in process-wide containers and clears them
// at the end of each request — here there is simply nothing to clear).
package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/co-codin/query-compiler/internal/compiler/cerr"
	"github.com/co-codin/query-compiler/internal/ir"
)

var foldOperator = cases.Fold()

// Options carries the configured enumerations that bound which aggregation
// functions and filter operators are accepted, mirroring
// settings.pg_aggregation_functions / settings.operator_functions.
type Options struct {
	AggregationFunctions []string
	Operators            []string
}

func (o Options) allowsAggregation(fn string) bool {
	return ir.IsKnownAggregationFunction(fn, o.AggregationFunctions)
}

func (o Options) normalizeOperator(raw string) (string, bool) {
	norm := foldOperator.String(strings.TrimSpace(raw))
	for _, op := range o.Operators {
		if foldOperator.String(op) == norm {
			return op, true
		}
	}
	return "", false
}

// RequestIR is the fully parsed, request-scoped intermediate representation
// of one query's `query` JSON subtree.
type RequestIR struct {
	Aliases    *ir.AliasMap
	Attributes []ir.Attribute
	Groups     []ir.Attribute
	Filter     ir.Filter
	Having     ir.Filter
	Distinct   bool
}

// LogicalFieldNames returns the deduplicated, order-stable set of logical
// field names referenced anywhere in the parsed query: attributes, groups,
// and every leaf of filter/having. The catalog resolver uses this set to
// compute which entries are missing.
func (r *RequestIR) LogicalFieldNames() []string {
	seen := make(map[string]struct{})
	var names []string
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	for _, attr := range r.Attributes {
		add(attr.FieldID())
	}
	for _, attr := range r.Groups {
		add(attr.FieldID())
	}
	collectFilterFieldNames(r.Filter, add)
	collectFilterFieldNames(r.Having, add)
	return names
}

func collectFilterFieldNames(f ir.Filter, add func(string)) {
	switch v := f.(type) {
	case nil:
		return
	case ir.SimpleFilter:
		add(v.Attr.FieldID())
	case ir.BooleanFilter:
		for _, child := range v.Filters {
			collectFilterFieldNames(child, add)
		}
	}
}

// queryDoc is the raw shape of the `query` JSON subtree, kept as
// json.RawMessage fields so every section can be coerced with its own
// error handling rather than failing the whole decode on one bad section.
type queryDoc struct {
	Distinct   bool              `json:"distinct"`
	Aliases    json.RawMessage   `json:"aliases"`
	Group      []json.RawMessage `json:"group"`
	Filter     json.RawMessage   `json:"filter"`
	Having     json.RawMessage   `json:"having"`
	Attributes []json.RawMessage `json:"attributes"`
}

// Parse decodes raw (the request envelope's `query` field) into a
// RequestIR, implementing SPEC_FULL.md section 4.2 in full: alias binding,
// attribute/group coercion, and filter/having trees.
func Parse(raw json.RawMessage, opts Options) (*RequestIR, error) {
	var doc queryDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, cerr.DeserializeJSONQuery(raw, err)
	}

	aliases, err := parseAliases(doc.Aliases, opts)
	if err != nil {
		return nil, err
	}

	attributes, err := parseAttributeList(doc.Attributes, aliases, opts)
	if err != nil {
		return nil, err
	}
	if len(attributes) == 0 {
		attributes = aliases.Attributes()
	}
	if len(attributes) == 0 {
		return nil, cerr.NoAttributesInInputQuery()
	}

	groups, err := resolveGroups(doc.Group, aliases, opts)
	if err != nil {
		return nil, err
	}

	filter, err := parseFilterSection(doc.Filter, aliases, opts)
	if err != nil {
		return nil, err
	}
	having, err := parseFilterSection(doc.Having, aliases, opts)
	if err != nil {
		return nil, err
	}

	return &RequestIR{
		Aliases:    aliases,
		Attributes: attributes,
		Groups:     groups,
		Filter:     filter,
		Having:     having,
		Distinct:   doc.Distinct,
	}, nil
}

// parseAliases builds the alias map from query.aliases, an object whose
// values are Field/Aggregate records (never alias references themselves —
// an alias cannot point at another alias).
func parseAliases(raw json.RawMessage, opts Options) (*ir.AliasMap, error) {
	aliases := ir.NewAliasMap()
	if len(raw) == 0 {
		return aliases, nil
	}
	names, records, err := decodeOrderedObject(raw)
	if err != nil {
		return nil, cerr.DeserializeJSONQuery(raw, err)
	}
	for _, name := range names {
		attr, err := coerceAttribute(records[name], nil, opts)
		if err != nil {
			return nil, err
		}
		aliases.Set(name, attr)
	}
	return aliases, nil
}

// parseAttributeList coerces each record in a JSON array (the query's
// "attributes" or "group" section) into an Attribute, allowing alias
// references since the alias map already exists by this point.
func parseAttributeList(records []json.RawMessage, aliases *ir.AliasMap, opts Options) ([]ir.Attribute, error) {
	if len(records) == 0 {
		return nil, nil
	}
	out := make([]ir.Attribute, 0, len(records))
	for _, rec := range records {
		attr, err := coerceAttribute(rec, aliases, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, attr)
	}
	return out, nil
}

// resolveGroups implements the open question resolved in SPEC_FULL.md
// section 4.2/9: an explicit, non-empty query.group wins; otherwise the
// group list is derived from every aggregate attribute bound in aliases,
// emitting each one's inner field.
func resolveGroups(explicit []json.RawMessage, aliases *ir.AliasMap, opts Options) ([]ir.Attribute, error) {
	if len(explicit) > 0 {
		return parseAttributeList(explicit, aliases, opts)
	}
	var derived []ir.Attribute
	for _, attr := range aliases.Attributes() {
		if agg, ok := attr.(ir.Aggregate); ok {
			derived = append(derived, agg.Inner)
		}
	}
	return derived, nil
}

type attrRecord struct {
	Alias     *string `json:"alias"`
	Attr      *fieldRecord `json:"attr"`
	Aggregate *aggregateRecord `json:"aggregate"`
}

type fieldRecord struct {
	DBLink  string `json:"db_link"`
	Display *bool  `json:"display"`
}

type aggregateRecord struct {
	Function string `json:"function"`
	DBLink   string `json:"db_link"`
	Display  *bool  `json:"display"`
}

// coerceAttribute implements the record-shape discriminator from
// SPEC_FULL.md section 4.2: alias reference, then field, then aggregate.
// aliases may be nil, in which case alias references are rejected — this
// is the "no alias table exists yet" case used while parsing aliases
// themselves.
func coerceAttribute(raw json.RawMessage, aliases *ir.AliasMap, opts Options) (ir.Attribute, error) {
	var rec attrRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, cerr.AttributeConvert(string(raw))
	}

	if rec.Alias != nil {
		if aliases == nil {
			return nil, cerr.AttributeConvert(string(raw))
		}
		attr, ok := aliases.Get(*rec.Alias)
		if !ok {
			return nil, cerr.NoAliasMappedValue(*rec.Alias)
		}
		return attr, nil
	}

	if rec.Attr != nil && rec.Attr.DBLink != "" {
		return ir.NewField(rec.Attr.DBLink, rec.Attr.Display), nil
	}

	if rec.Aggregate != nil && rec.Aggregate.DBLink != "" {
		if !opts.allowsAggregation(rec.Aggregate.Function) {
			return nil, cerr.UnknownAggregationFunction(rec.Aggregate.Function)
		}
		return ir.Aggregate{
			Function:    rec.Aggregate.Function,
			Inner:       ir.NewField(rec.Aggregate.DBLink, nil),
			DisplayFlag: rec.Aggregate.Display,
		}, nil
	}

	return nil, cerr.AttributeConvert(string(raw))
}

type filterRecord struct {
	Operator string            `json:"operator"`
	Values   []json.RawMessage `json:"values"`
	Alias    *string           `json:"alias"`
	Value    json.RawMessage   `json:"value"`
}

var booleanOperators = map[string]bool{"and": true, "or": true, "not": true}

// parseFilterSection parses an optional filter/having section; an absent
// or null section yields a nil Filter, which the emitter treats as "omit
// this clause".
func parseFilterSection(raw json.RawMessage, aliases *ir.AliasMap, opts Options) (ir.Filter, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	return coerceFilter(raw, aliases, opts)
}

// coerceFilter implements the BooleanFilter-then-SimpleFilter discriminator
// from SPEC_FULL.md section 4.2.
func coerceFilter(raw json.RawMessage, aliases *ir.AliasMap, opts Options) (ir.Filter, error) {
	var rec filterRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, cerr.FilterConvert(string(raw))
	}

	normalizedOp := foldOperator.String(strings.TrimSpace(rec.Operator))

	if booleanOperators[normalizedOp] {
		if len(rec.Values) == 0 || (normalizedOp == "not" && len(rec.Values) != 1) {
			return nil, cerr.FilterConvert(string(raw))
		}
		children := make([]ir.Filter, 0, len(rec.Values))
		for _, child := range rec.Values {
			parsed, err := coerceFilter(child, aliases, opts)
			if err != nil {
				return nil, err
			}
			children = append(children, parsed)
		}
		return ir.BooleanFilter{Operator: normalizedOp, Filters: children}, nil
	}

	if rec.Alias == nil {
		return nil, cerr.FilterConvert(string(raw))
	}

	canonicalOp, ok := opts.normalizeOperator(rec.Operator)
	if !ok {
		return nil, cerr.UnknownOperatorFunction(rec.Operator)
	}

	if aliases == nil {
		return nil, cerr.NoAliasMappedValue(*rec.Alias)
	}
	attr, ok := aliases.Get(*rec.Alias)
	if !ok {
		return nil, cerr.NoAliasMappedValue(*rec.Alias)
	}

	value, err := normalizeFilterValue(canonicalOp, rec.Value)
	if err != nil {
		return nil, err
	}

	return ir.SimpleFilter{Attr: attr, Operator: canonicalOp, Value: value}, nil
}

// normalizeFilterValue shapes a raw JSON value according to the operator
// table in SPEC_FULL.md section 4.2. It validates structural shape only;
// SQL quoting is the emitter's responsibility, done at render time with
// lib/pq so the same normalized value can be rendered for any call site
// (tests included) without re-parsing JSON.
func normalizeFilterValue(operator string, raw json.RawMessage) (any, error) {
	switch operator {
	case ir.OpIsNull, ir.OpIsNotNull:
		return nil, nil
	case ir.OpIn, ir.OpNotIn:
		var values []any
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, cerr.FilterValueCast(operator, string(raw))
		}
		if len(values) == 0 {
			return nil, cerr.FilterValueCast(operator, string(raw))
		}
		return values, nil
	case ir.OpBetween, ir.OpNotBetween:
		var values []any
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, cerr.FilterValueCast(operator, string(raw))
		}
		if len(values) != 2 {
			return nil, cerr.FilterValueCast(operator, string(raw))
		}
		return values, nil
	default:
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, cerr.FilterValueCast(operator, string(raw))
		}
		switch value.(type) {
		case string, float64, bool:
			return value, nil
		default:
			return nil, cerr.FilterValueCast(operator, fmt.Sprintf("%v", value))
		}
	}
}

// decodeOrderedObject walks a JSON object token by token to recover its
// key declaration order, which encoding/json's map decoding discards.
// Order matters here for deterministic, byte-equal SQL across repeated
// compilations of the same request (the idempotence property in
// SPEC_FULL.md section 8) — derived group/attribute lists built by
// iterating aliases must iterate them in the order they were declared.
func decodeOrderedObject(raw json.RawMessage) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected a JSON object")
	}

	var order []string
	records := make(map[string]json.RawMessage)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected a string object key")
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, err
		}
		if _, exists := records[key]; !exists {
			order = append(order, key)
		}
		records[key] = value
	}
	return order, records, nil
}
