package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// CONDITIONS - Single-field predicates
// =============================================================================

// Op identifies the kind of a Cond.
type Op int

const (
	OpEq Op = iota
	OpIn
	OpWithin
	OpCompare
)

// Cmp is a numeric comparison operator.
type Cmp string

const (
	Gt  Cmp = "gt"
	Gte Cmp = "gte"
	Lt  Cmp = "lt"
	Lte Cmp = "lte"
	Eq  Cmp = "eq"
)

// Holds reports whether "a cmp b" is true.
func (c Cmp) Holds(a, b decimal.Decimal) bool {
	switch c {
	case Gt:
		return a.GreaterThan(b)
	case Gte:
		return a.GreaterThanOrEqual(b)
	case Lt:
		return a.LessThan(b)
	case Lte:
		return a.LessThanOrEqual(b)
	case Eq:
		return a.Equal(b)
	}
	return false
}

// Cond is one predicate over one field. Build with FieldEq, In, Within or Compare.
type Cond struct {
	Field     string
	Op        Op
	Value     any
	Values    []any
	Range     Range
	Cmp       Cmp
	Threshold decimal.Decimal
}

// FieldEq matches documents whose field equals v. An array field matches when
// any element equals v.
func FieldEq(field string, v any) Cond {
	return Cond{Field: field, Op: OpEq, Value: v}
}

// In matches documents whose field equals one of values.
func In(field string, values []any) Cond {
	return Cond{Field: field, Op: OpIn, Values: values}
}

// Within matches documents whose normalized timestamp field lies in r.
// Documents with a missing or null timestamp never match.
func Within(field string, r Range) Cond {
	return Cond{Field: field, Op: OpWithin, Range: r}
}

// Compare matches documents whose numeric field satisfies "field cmp threshold".
func Compare(field string, cmp Cmp, threshold decimal.Decimal) Cond {
	return Cond{Field: field, Op: OpCompare, Cmp: cmp, Threshold: threshold}
}

// Match evaluates the condition against d.
func (c Cond) Match(d Document) bool {
	v, ok := d.Get(c.Field)
	switch c.Op {
	case OpEq:
		return ok && equalsOrContains(v, c.Value)
	case OpIn:
		if !ok {
			return false
		}
		for _, want := range c.Values {
			if equalsOrContains(v, want) {
				return true
			}
		}
		return false
	case OpWithin:
		t, ok := d.Time(c.Field)
		return ok && c.Range.Contains(t)
	case OpCompare:
		if !ok {
			return false
		}
		n, ok := ToDecimal(v)
		return ok && c.Cmp.Holds(n, c.Threshold)
	}
	return false
}

func equalsOrContains(v, want any) bool {
	if arr, ok := AsArray(v); ok {
		for _, el := range arr {
			if SameValue(el, want) {
				return true
			}
		}
		return false
	}
	return SameValue(v, want)
}

// =============================================================================
// FILTER - Conjunction of conditions
// =============================================================================

// Filter is a conjunction. The empty Filter matches everything.
type Filter []Cond

// Where builds a Filter from conditions.
func Where(conds ...Cond) Filter { return Filter(conds) }

// And returns a new Filter with extra conditions. f is not modified.
func (f Filter) And(conds ...Cond) Filter {
	out := make(Filter, 0, len(f)+len(conds))
	out = append(out, f...)
	return append(out, conds...)
}

// Match reports whether d satisfies every condition.
func (f Filter) Match(d Document) bool {
	for _, c := range f {
		if !c.Match(d) {
			return false
		}
	}
	return true
}

// Apply returns the matching documents in input order.
func (f Filter) Apply(docs []Document) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if f.Match(d) {
			out = append(out, d)
		}
	}
	return out
}

// DistinctValues returns the distinct values of field in discovery order.
// Array fields contribute each element; absent fields contribute nothing.
func DistinctValues(docs []Document, field string) []any {
	seen := make(map[string]bool)
	var out []any
	add := func(v any) {
		k := ValueKey(v)
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, v)
	}
	for _, d := range docs {
		v, ok := d.Get(field)
		if !ok {
			continue
		}
		if arr, isArr := AsArray(v); isArr {
			for _, el := range arr {
				add(el)
			}
			continue
		}
		add(v)
	}
	return out
}
