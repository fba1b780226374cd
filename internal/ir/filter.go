package ir

// Filter is either a SimpleFilter (one attribute, one operator, one value)
// or a BooleanFilter (and/or/not combining child filters). Negation is
// never rendered as SQL "not(...)" — it is pushed down to the leaves by
// Negate, flipping each SimpleFilter's operator and De Morgan-ing the
// boolean combinators, per the emitter design in SPEC_FULL.md section 4.6.
type Filter interface {
	isFilter()
}

// Recognized simple-filter operators, matching the configured
// operator_functions list (SPEC_FULL.md section 6).
const (
	OpLT          = "<"
	OpLTE         = "<="
	OpEQ          = "="
	OpNEQ         = "!="
	OpGT          = ">"
	OpGTE         = ">="
	OpLike        = "like"
	OpNotLike     = "not like"
	OpIn          = "in"
	OpNotIn       = "not in"
	OpBetween     = "between"
	OpNotBetween  = "not between"
	OpIsNull      = "is null"
	OpIsNotNull   = "is not null"
)

// negations maps every operator this package knows about to its logical
// negation. It is intentionally closed: an operator absent from this map
// cannot be negated and Negate will panic, since by the time a Filter tree
// exists every operator has already passed parser validation.
var negations = map[string]string{
	OpLT:         OpGTE,
	OpLTE:        OpGT,
	OpEQ:         OpNEQ,
	OpNEQ:        OpEQ,
	OpGT:         OpLTE,
	OpGTE:        OpLT,
	OpLike:       OpNotLike,
	OpNotLike:    OpLike,
	OpIn:         OpNotIn,
	OpNotIn:      OpIn,
	OpBetween:    OpNotBetween,
	OpNotBetween: OpBetween,
	OpIsNull:     OpIsNotNull,
	OpIsNotNull:  OpIsNull,
}

// NegatableOperator reports whether op has a known negation.
func NegatableOperator(op string) bool {
	_, ok := negations[op]
	return ok
}

// SimpleFilter compares one attribute against a literal value (or, for
// "in"/"between", a slice of literal values) with a single operator.
type SimpleFilter struct {
	Attr     Attribute
	Operator string
	Value    any
}

func (SimpleFilter) isFilter() {}

// Negated returns a copy of f with its operator flipped to its negation.
func (f SimpleFilter) Negated() SimpleFilter {
	negated, ok := negations[f.Operator]
	if !ok {
		panic("ir: no negation known for operator " + f.Operator)
	}
	return SimpleFilter{Attr: f.Attr, Operator: negated, Value: f.Value}
}

// BooleanFilter combines child filters with "and", "or", or "not".
//
// A "not" node always has exactly one child; the parser rejects any other
// shape before it reaches the IR, so Negate does not need to guard against
// it here.
type BooleanFilter struct {
	Operator string
	Filters  []Filter
}

func (BooleanFilter) isFilter() {}

// Negate returns the logical negation of f, pushing "not" down to the
// SimpleFilter leaves instead of leaving it as a wrapping node — this is
// what lets the emitter render every filter without ever emitting a literal
// "not (...)" clause.
func Negate(f Filter) Filter {
	switch v := f.(type) {
	case SimpleFilter:
		return v.Negated()
	case BooleanFilter:
		switch v.Operator {
		case "not":
			// not(not(x)) == x
			return v.Filters[0]
		case "and":
			return BooleanFilter{Operator: "or", Filters: negateAll(v.Filters)}
		case "or":
			return BooleanFilter{Operator: "and", Filters: negateAll(v.Filters)}
		}
	}
	// Unreachable once the parser has validated the tree.
	panic("ir: Negate called on an unrecognized filter shape")
}

func negateAll(filters []Filter) []Filter {
	out := make([]Filter, len(filters))
	for i, f := range filters {
		out[i] = Negate(f)
	}
	return out
}
