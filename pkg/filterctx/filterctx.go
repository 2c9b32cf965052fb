// Package filterctx implements FilterContext (spec.md §4.F): a per-query
// stateful evaluator for hot per-point checks during vector-search
// re-ranking, which decides once at construction whether it can evaluate
// locally or must defer to the external ConditionChecker.
package filterctx

import (
	"github.com/3leaps/payloadindex/pkg/fieldindex"
	"github.com/3leaps/payloadindex/pkg/payload"
)

// ConditionChecker is the reference, non-indexed evaluator of a full filter
// against a single point (spec.md §1, §6) — used for final verification and
// as the fallback path here.
type ConditionChecker interface {
	Check(id payload.PointOffsetType, f *payload.Filter) bool
}

// FieldIndexes resolves the ordered variant list for a key, as currently
// held by the facade's snapshot of field_indexes.
type FieldIndexes func(key payload.Key) ([]fieldindex.FieldIndex, bool)

// Context evaluates one Filter against many points. Fallback is decided
// once at construction and never re-evaluated.
type Context struct {
	filter   *payload.Filter
	checker  ConditionChecker
	indexes  FieldIndexes
	fallback bool
}

// New builds a FilterContext for f. It inspects every primary clause f's
// cardinality estimate would drive an index probe from (obtained here via
// walking f directly, since primary-clause shape is determined by indexing
// state, not by a prior Estimate call) and sets fallback if any field leaf
// is unindexed, or if a HasId/IsEmpty leaf occurs anywhere — those leaves
// have no fast per-point local check.
func New(f *payload.Filter, checker ConditionChecker, indexes FieldIndexes) *Context {
	return &Context{
		filter:   f,
		checker:  checker,
		indexes:  indexes,
		fallback: checkFallback(f, indexes),
	}
}

func checkFallback(f *payload.Filter, indexes FieldIndexes) bool {
	if f.IsEmptyFilter() {
		return false
	}
	for _, group := range [][]payload.Condition{f.Must, f.Should, f.MustNot} {
		for _, c := range group {
			if conditionForcesFallback(c, indexes) {
				return true
			}
		}
	}
	return false
}

func conditionForcesFallback(c payload.Condition, indexes FieldIndexes) bool {
	switch {
	case c.Nested != nil:
		return checkFallback(c.Nested, indexes)
	case c.Field != nil:
		_, ok := indexes(c.Field.Key)
		return !ok
	default:
		// HasId and IsEmpty leaves have no local per-point fast path.
		return true
	}
}

// Check reports whether point p satisfies the filter this Context was built
// for. When fallback is set, it defers to the external ConditionChecker for
// every call; otherwise it resolves each Field leaf via the key's first
// variant's GetValues and evaluates locally (spec.md §4.F).
func (c *Context) Check(p payload.PointOffsetType) bool {
	if c.fallback {
		return c.checker.Check(p, c.filter)
	}
	return evalFilter(c.filter, p, c.indexes)
}

func evalFilter(f *payload.Filter, p payload.PointOffsetType, indexes FieldIndexes) bool {
	if f.IsEmptyFilter() {
		return true
	}
	for _, c := range f.Must {
		if !evalCondition(c, p, indexes) {
			return false
		}
	}
	if len(f.Should) > 0 {
		any := false
		for _, c := range f.Should {
			if evalCondition(c, p, indexes) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	for _, c := range f.MustNot {
		if evalCondition(c, p, indexes) {
			return false
		}
	}
	return true
}

func evalCondition(c payload.Condition, p payload.PointOffsetType, indexes FieldIndexes) bool {
	switch {
	case c.Nested != nil:
		return evalFilter(c.Nested, p, indexes)
	case c.Field != nil:
		return evalField(c.Field, p, indexes)
	default:
		// checkFallback guarantees Must/Should/MustNot never reach here
		// with a HasId or IsEmpty leaf once fallback is false.
		panic("filterctx: non-field leaf reached the index-only evaluation path")
	}
}

// evalField resolves fc via indexes[0] only: spec.md §9 open question #3
// documents this as intentional — when a key has multiple variants, later
// variants are unreachable for value materialization here.
func evalField(fc *payload.FieldCondition, p payload.PointOffsetType, indexes FieldIndexes) bool {
	variants, ok := indexes(fc.Key)
	if !ok || len(variants) == 0 {
		return false
	}
	v, ok := variants[0].GetValues(p)
	if !ok {
		return false
	}
	return payload.CheckFieldCondition(fc, v)
}
