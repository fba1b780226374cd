// Package emitter linearizes the resolved IR into a PostgreSQL SELECT
// statement, implementing SPEC_FULL.md section 4.6. Quoting uses
// github.com/lib/pq's QuoteLiteral, the direct Go analogue of
// original_source's psycopg.sql.quote calls.
package emitter

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/co-codin/query-compiler/internal/catalog"
	"github.com/co-codin/query-compiler/internal/compiler/cerr"
	"github.com/co-codin/query-compiler/internal/ir"
	"github.com/co-codin/query-compiler/internal/joingraph"
	"github.com/co-codin/query-compiler/pkg/slice"
)

// Request bundles everything the emitter needs to build one SQL string.
type Request struct {
	Attributes []ir.Attribute
	AliasNames map[string]string // attribute identity key -> alias name, for "as <alias>"
	Distinct   bool
	RootTable  string
	Joins      []ir.Relation
	Filter     ir.Filter
	Groups     []ir.Attribute
	Having     ir.Filter
}

// Catalog is the read-only view the emitter needs of the resolved catalog:
// physical column names for rendering attributes.
type Catalog interface {
	Get(name string) (catalog.Entry, bool)
}

// Emit renders a Request into a complete SQL string, skipping any clause
// that evaluates to empty, per SPEC_FULL.md section 4.6.
func Emit(req Request, cat Catalog) (string, error) {
	var clauses []string

	selectClause, err := buildSelectClause(req.Attributes, req.Distinct, req.AliasNames, cat)
	if err != nil {
		return "", err
	}
	clauses = append(clauses, selectClause)

	clauses = append(clauses, buildFromClause(req.RootTable, req.Joins))

	if req.Filter != nil {
		whereExpr, err := renderFilter(req.Filter, cat)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, "where", whereExpr)
	}

	if len(req.Groups) > 0 {
		groupClause, err := buildAttributeList(req.Groups, cat)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, "group by", groupClause)
	}

	if req.Having != nil {
		havingExpr, err := renderFilter(req.Having, cat)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, "having", havingExpr)
	}

	return strings.Join(clauses, " "), nil
}

// BuildGraph adapts a resolved attribute list into the join-graph builder's
// input, one ir.Table per attribute.
func BuildGraph(attrs []ir.Attribute, cat Catalog) (joingraph.Graph, error) {
	tables := make([]ir.Table, 0, len(attrs))
	for _, attr := range attrs {
		entry, ok := cat.Get(attr.FieldID())
		if !ok {
			return joingraph.Graph{}, cerr.NoAliasMappedValue(attr.FieldID())
		}
		tables = append(tables, entry.Table)
	}
	return joingraph.Build(tables)
}

func buildSelectClause(attrs []ir.Attribute, distinct bool, aliasNames map[string]string, cat Catalog) (string, error) {
	visible := slice.Filter(attrs, ir.Attribute.Display)
	if len(visible) == 0 {
		return "select " + "*", nil
	}

	rendered := make([]string, 0, len(visible))
	for _, attr := range visible {
		expr, err := renderAttribute(attr, cat)
		if err != nil {
			return "", err
		}
		if alias, ok := aliasNames[identityKey(attr)]; ok && alias != expr {
			expr = expr + " as " + alias
		}
		rendered = append(rendered, expr)
	}

	prefix := "select "
	if distinct {
		prefix = "select distinct "
	}
	return prefix + strings.Join(rendered, ", "), nil
}

func buildAttributeList(attrs []ir.Attribute, cat Catalog) (string, error) {
	rendered := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		expr, err := renderAttribute(attr, cat)
		if err != nil {
			return "", err
		}
		rendered = append(rendered, expr)
	}
	return strings.Join(rendered, ", "), nil
}

func buildFromClause(root string, joins []ir.Relation) string {
	parts := []string{"from " + root}
	for _, rel := range joins {
		parts = append(parts, fmt.Sprintf(
			"join %s on %s.%s = %s.%s",
			rel.Table, rel.RelatedTable, rel.RelatedKey, rel.Table, rel.Key,
		))
	}
	return strings.Join(parts, " ")
}

// renderAttribute renders a Field as a bare physical column name and an
// Aggregate as func(column), per the "bare column names" resolution of the
// column-qualification open question in SPEC_FULL.md section 9.
func renderAttribute(attr ir.Attribute, cat Catalog) (string, error) {
	switch v := attr.(type) {
	case ir.Field:
		entry, ok := cat.Get(v.LogicalName)
		if !ok {
			return "", cerr.NoAliasMappedValue(v.LogicalName)
		}
		return entry.Field, nil
	case ir.Aggregate:
		entry, ok := cat.Get(v.Inner.LogicalName)
		if !ok {
			return "", cerr.NoAliasMappedValue(v.Inner.LogicalName)
		}
		return fmt.Sprintf("%s(%s)", v.Function, entry.Field), nil
	default:
		return "", cerr.AttributeConvert(attr)
	}
}

func identityKey(attr ir.Attribute) string {
	switch v := attr.(type) {
	case ir.Field:
		return "field:" + v.LogicalName
	case ir.Aggregate:
		return "aggregate:" + v.Function + ":" + v.Inner.LogicalName
	default:
		return ""
	}
}

// renderFilter recursively renders a Filter tree, pushing "not" down to the
// leaves via ir.Negate instead of ever emitting a literal NOT prefix.
func renderFilter(f ir.Filter, cat Catalog) (string, error) {
	switch v := f.(type) {
	case ir.SimpleFilter:
		return renderSimpleFilter(v, cat)
	case ir.BooleanFilter:
		if v.Operator == "not" {
			return renderFilter(ir.Negate(v.Filters[0]), cat)
		}
		parts := make([]string, 0, len(v.Filters))
		for _, child := range v.Filters {
			rendered, err := renderFilter(child, cat)
			if err != nil {
				return "", err
			}
			parts = append(parts, "("+rendered+")")
		}
		return strings.Join(parts, " "+v.Operator+" "), nil
	default:
		return "", cerr.FilterConvert(f)
	}
}

func renderSimpleFilter(f ir.SimpleFilter, cat Catalog) (string, error) {
	attrExpr, err := renderAttribute(f.Attr, cat)
	if err != nil {
		return "", err
	}

	if f.Operator == ir.OpIsNull || f.Operator == ir.OpIsNotNull {
		return fmt.Sprintf("%s %s", attrExpr, f.Operator), nil
	}

	valueExpr, err := renderValue(f.Operator, f.Value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s", attrExpr, f.Operator, valueExpr), nil
}

func renderValue(operator string, value any) (string, error) {
	switch operator {
	case ir.OpIn, ir.OpNotIn:
		values, ok := value.([]any)
		if !ok {
			return "", cerr.FilterValueCast(operator, value)
		}
		quoted := make([]string, len(values))
		for i, v := range values {
			quoted[i] = quoteLiteral(v)
		}
		return "(" + strings.Join(quoted, ",") + ")", nil
	case ir.OpBetween, ir.OpNotBetween:
		values, ok := value.([]any)
		if !ok || len(values) != 2 {
			return "", cerr.FilterValueCast(operator, value)
		}
		return fmt.Sprintf("%s and %s", quoteLiteral(values[0]), quoteLiteral(values[1])), nil
	default:
		return quoteLiteral(value), nil
	}
}

func quoteLiteral(value any) string {
	switch v := value.(type) {
	case string:
		return pq.QuoteLiteral(v)
	case float64:
		return pq.QuoteLiteral(fmt.Sprintf("%g", v))
	case bool:
		return pq.QuoteLiteral(fmt.Sprintf("%t", v))
	default:
		return pq.QuoteLiteral(fmt.Sprintf("%v", v))
	}
}
