package ir

import "github.com/co-codin/query-compiler/pkg/pointer"

// Attribute is any selectable expression in the DSL: a raw field, an
// aggregate over a field, or (resolved at parse time) an alias naming
// either of those. The Alias variant never survives into the IR — a filter
// or group that references an alias is resolved to the Field/Aggregate it
// points to before being placed into the tree — but the alias NAME is
// preserved separately wherever `... as <alias>` rendering is needed.
type Attribute interface {
	// FieldID is the dotted logical name the catalog indexes entries by.
	FieldID() string
	// Display reports whether this attribute is rendered in the SELECT list,
	// as opposed to only being usable for joins/filters. GROUP BY renders
	// every group attribute regardless of Display.
	Display() bool
	// identityKey returns a string unique to this attribute's logical
	// identity. Being unexported, it also restricts Attribute
	// implementations to this package.
	identityKey() string
}

// Field wraps a dotted logical name such as "case.sat.open_date". Its
// physical table/column and type come from the catalog; equality is by
// logical name alone.
type Field struct {
	LogicalName string
	DisplayFlag *bool
}

// NewField builds a Field. A nil display is stored as-is; Display() then
// reports true, so an attribute with no explicit display key is rendered
// in SELECT.
func NewField(logicalName string, display *bool) Field {
	return Field{LogicalName: logicalName, DisplayFlag: display}
}

func (f Field) FieldID() string { return f.LogicalName }

func (f Field) Display() bool {
	return pointer.Fallback(f.DisplayFlag, true)
}

func (f Field) identityKey() string { return "field:" + f.LogicalName }

// Equal reports whether two fields have the same logical identity.
func (f Field) Equal(other Field) bool { return f.LogicalName == other.LogicalName }

// AggregationFunction enumerates the recognized aggregate functions.
type AggregationFunction string

const (
	AggCount AggregationFunction = "count"
	AggAvg   AggregationFunction = "avg"
	AggSum   AggregationFunction = "sum"
	AggMin   AggregationFunction = "min"
	AggMax   AggregationFunction = "max"
)

// IsKnownAggregationFunction reports whether fn is one of the functions in
// allowed (the configured pg_aggregation_functions list).
func IsKnownAggregationFunction(fn string, allowed []string) bool {
	for _, a := range allowed {
		if a == fn {
			return true
		}
	}
	return false
}

// Aggregate wraps a function applied to an inner Field. Equality is
// (Function, Inner).
type Aggregate struct {
	Function    string
	Inner       Field
	DisplayFlag *bool
}

func (a Aggregate) FieldID() string { return a.Inner.LogicalName }

func (a Aggregate) Display() bool {
	return pointer.Fallback(a.DisplayFlag, true)
}

func (a Aggregate) identityKey() string {
	return "aggregate:" + a.Function + ":" + a.Inner.LogicalName
}

// Equal reports whether two aggregates share the same function and inner field.
func (a Aggregate) Equal(other Aggregate) bool {
	return a.Function == other.Function && a.Inner.Equal(other.Inner)
}

// AliasMap is the request-scoped mapping from alias name to the Attribute
// it was bound to, built from query.aliases and cleared implicitly at the
// end of every request by simply going out of scope — see SPEC_FULL.md
// section 4.0's per-request-context note.
type AliasMap struct {
	order []string
	byName map[string]Attribute
}

// NewAliasMap returns an empty alias map.
func NewAliasMap() *AliasMap {
	return &AliasMap{byName: make(map[string]Attribute)}
}

// Set binds name to attr. Re-binding an existing name overwrites its value
// but keeps the name's original position in Names(), matching the
// insertion-order semantics of a JSON object literal with a repeated key.
func (m *AliasMap) Set(name string, attr Attribute) {
	if _, exists := m.byName[name]; !exists {
		m.order = append(m.order, name)
	}
	m.byName[name] = attr
}

// Get resolves an alias by name.
func (m *AliasMap) Get(name string) (Attribute, bool) {
	attr, ok := m.byName[name]
	return attr, ok
}

// Names returns alias names in declaration order.
func (m *AliasMap) Names() []string {
	return m.order
}

// Len returns the number of aliases bound.
func (m *AliasMap) Len() int { return len(m.order) }

// Attributes returns the bound attributes in declaration order — used to
// derive the SELECT attribute set when the query provides no explicit
// "attributes" list (SPEC_FULL.md section 4.2).
func (m *AliasMap) Attributes() []Attribute {
	attrs := make([]Attribute, 0, len(m.order))
	for _, name := range m.order {
		attrs = append(attrs, m.byName[name])
	}
	return attrs
}
