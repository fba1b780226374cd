// Package joingraph reconstructs a unique root table and a deduplicated
// join order from the bag of per-attribute relation chains, implementing
// the algorithm in SPEC_FULL.md section 4.5 (unchanged from spec.md),
// ported from original_source's _build_join_hierarchy.
package joingraph

import (
	"github.com/co-codin/query-compiler/internal/compiler/cerr"
	"github.com/co-codin/query-compiler/internal/ir"
)

// Graph is the output of Build: the single root table name and the
// deduplicated, order-preserving list of joins needed to reach every
// attribute's table from it.
type Graph struct {
	RootTable string
	Joins     []ir.Relation
}

// Build implements the reverse-traversal algorithm: for each attribute's
// table, its root is either the table itself (no joins) or the related
// table of its outermost join; every relation chain is walked in reverse
// so outer-most joins are emitted first, matching how SQL must introduce a
// table before it can be referenced, and each relation is included at most
// once regardless of how many attributes share it.
func Build(tables []ir.Table) (Graph, error) {
	roots := make(map[string]struct{})
	seen := make(map[ir.Relation]struct{})
	var joins []ir.Relation

	for _, table := range tables {
		roots[table.Root()] = struct{}{}

		for i := len(table.Joins) - 1; i >= 0; i-- {
			rel := table.Joins[i]
			if _, ok := seen[rel]; ok {
				continue
			}
			seen[rel] = struct{}{}
			joins = append(joins, rel)
		}
	}

	switch len(roots) {
	case 0:
		return Graph{}, cerr.NoRootTable()
	case 1:
		for root := range roots {
			return Graph{RootTable: root, Joins: joins}, nil
		}
	}

	rootNames := make([]string, 0, len(roots))
	for root := range roots {
		rootNames = append(rootNames, root)
	}
	return Graph{}, cerr.NotOneRootTable(rootNames)
}
