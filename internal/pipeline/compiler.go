package pipeline

import (
	"context"
	"log/slog"

	"github.com/co-codin/query-compiler/internal/accesscheck"
	"github.com/co-codin/query-compiler/internal/catalog"
	"github.com/co-codin/query-compiler/internal/emitter"
	"github.com/co-codin/query-compiler/internal/ir"
	"github.com/co-codin/query-compiler/internal/parser"
)

// Catalog is the read-only view of the resolved metadata catalog the
// emitter and access check need; *catalog.Catalog implements it directly.
type Catalog interface {
	Get(name string) (catalog.Entry, bool)
}

// Resolver ensures every attribute referenced by a request has a catalog
// entry before emission proceeds.
type Resolver interface {
	Resolve(ctx context.Context, names []string) error
}

// AccessChecker verifies an identity may read every attribute about to be
// emitted.
type AccessChecker interface {
	Check(ctx context.Context, identityID string, attrs []ir.Attribute, cat accesscheck.Catalog) error
}

// Compiler runs stages 4.2 through 4.6 against an explicit per-request
// value, per SPEC_FULL.md section 4.7. Nothing here is process-global: the
// only shared dependency is the catalog, passed by reference.
type Compiler struct {
	Options  parser.Options
	Catalog  *catalog.Catalog
	Resolver Resolver
	Access   AccessChecker
	Logger   *slog.Logger
}

// Compile runs the full pipeline for one request's query subtree and
// returns the compiled SQL string.
//
// There is no per-request alias/attribute state to clear on exit: the
// RequestIR built by parser.Parse is a local value that is simply dropped
// when Compile returns, satisfying the "clear-on-exit discipline" testable
// property without any explicit teardown step.
func (c *Compiler) Compile(ctx context.Context, identityID string, query []byte) (string, error) {
	requestIR, err := parser.Parse(query, c.Options)
	if err != nil {
		return "", err
	}

	if err := c.Resolver.Resolve(ctx, requestIR.LogicalFieldNames()); err != nil {
		return "", err
	}

	if err := c.Access.Check(ctx, identityID, selectable(requestIR), c.Catalog); err != nil {
		return "", err
	}

	graph, err := emitter.BuildGraph(selectable(requestIR), c.Catalog)
	if err != nil {
		return "", err
	}

	sql, err := emitter.Emit(emitter.Request{
		Attributes: requestIR.Attributes,
		AliasNames: aliasNameIndex(requestIR),
		Distinct:   requestIR.Distinct,
		RootTable:  graph.RootTable,
		Joins:      graph.Joins,
		Filter:     requestIR.Filter,
		Groups:     requestIR.Groups,
		Having:     requestIR.Having,
	}, c.Catalog)
	if err != nil {
		return "", err
	}

	return sql, nil
}

// selectable returns every attribute that participates in join-graph
// construction and the access check: the query's selected attributes, its
// group list, and every leaf attribute referenced by filter/having — an
// alias may be defined and used only inside a filter, never selected or
// grouped on, and its table still needs to be joined in and its resource
// still needs to clear the access check before it can be filtered on.
// Deduplicated by FieldID so a filter reusing a selected attribute doesn't
// produce a duplicate join-graph entry.
func selectable(r *parser.RequestIR) []ir.Attribute {
	seen := make(map[string]struct{})
	all := make([]ir.Attribute, 0, len(r.Attributes)+len(r.Groups))

	add := func(attr ir.Attribute) {
		if _, ok := seen[attr.FieldID()]; ok {
			return
		}
		seen[attr.FieldID()] = struct{}{}
		all = append(all, attr)
	}

	for _, attr := range r.Attributes {
		add(attr)
	}
	for _, attr := range r.Groups {
		add(attr)
	}
	collectFilterAttributes(r.Filter, add)
	collectFilterAttributes(r.Having, add)

	return all
}

// collectFilterAttributes walks a filter tree, calling add for every
// SimpleFilter leaf's attribute.
func collectFilterAttributes(f ir.Filter, add func(ir.Attribute)) {
	switch v := f.(type) {
	case nil:
		return
	case ir.SimpleFilter:
		add(v.Attr)
	case ir.BooleanFilter:
		for _, child := range v.Filters {
			collectFilterAttributes(child, add)
		}
	}
}

// aliasNameIndex builds the identity-key -> alias-name map the emitter uses
// to decide whether to append "as <alias>" to a rendered SELECT expression.
func aliasNameIndex(r *parser.RequestIR) map[string]string {
	index := make(map[string]string)
	for _, name := range r.Aliases.Names() {
		attr, _ := r.Aliases.Get(name)
		switch v := attr.(type) {
		case ir.Field:
			index["field:"+v.LogicalName] = name
		case ir.Aggregate:
			index["aggregate:"+v.Function+":"+v.Inner.LogicalName] = name
		}
	}
	return index
}
