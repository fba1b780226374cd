// Package ir holds the typed intermediate representation the parser builds
// from a query's JSON body: tables, relations, attributes, and filters.
//
// Nodes here are request-scoped values, never held in package-level state —
// see the per-request-context redesign note in SPEC_FULL.md section 9.
package ir

// Relation is a single join edge: it joins Table to RelatedTable on the
// pair of columns (Key, RelatedKey).
//
// Relation has full set semantics (all four fields participate in equality)
// so the join-graph builder can deduplicate joins shared by several
// attributes.
type Relation struct {
	Table       string
	RelatedTable string
	Key         string
	RelatedKey  string
}

// Equal reports whether two relations describe the same join edge.
func (r Relation) Equal(other Relation) bool {
	return r == other
}

// Table describes a physical table and the ancestor chain of joins needed
// to reach it from the query's root table.
//
// Joins[i] joins Joins[i].RelatedTable to Joins[i].Table. A root (unrelated)
// table has an empty Joins slice.
type Table struct {
	PhysicalName string
	Joins        []Relation
}

// Equal reports whether two tables have the same physical name and
// identical join chains.
func (t Table) Equal(other Table) bool {
	if t.PhysicalName != other.PhysicalName {
		return false
	}
	if len(t.Joins) != len(other.Joins) {
		return false
	}
	for i := range t.Joins {
		if t.Joins[i] != other.Joins[i] {
			return false
		}
	}
	return true
}

// Root returns the name of the ultimate ancestor table reached by walking
// Joins to its end, or PhysicalName itself when Joins is empty.
func (t Table) Root() string {
	if len(t.Joins) == 0 {
		return t.PhysicalName
	}
	return t.Joins[len(t.Joins)-1].RelatedTable
}
