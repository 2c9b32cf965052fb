package estimator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/3leaps/payloadindex/pkg/payload"
)

func exactLeaf(n int) LeafEstimator {
	return func(payload.Condition) payload.CardinalityEstimation {
		return payload.CardinalityEstimation{Min: n, Exp: n, Max: n, PrimaryClauses: []payload.PrimaryCondition{{}}}
	}
}

func TestEstimateEmptyFilterMatchesAllPoints(t *testing.T) {
	est := Estimate(exactLeaf(0), &payload.Filter{}, 100)
	assert.Equal(t, payload.CardinalityEstimation{Min: 100, Exp: 100, Max: 100}, est)
}

func TestEstimateSingleMustLeafPassesThrough(t *testing.T) {
	f := &payload.Filter{Must: []payload.Condition{{Field: &payload.FieldCondition{Key: "a"}}}}
	est := Estimate(exactLeaf(30), f, 100)
	assert.Equal(t, 30, est.Min)
	assert.Equal(t, 30, est.Exp)
	assert.Equal(t, 30, est.Max)
}

func TestEstimateMustCombinesTwoLeavesWithIndependenceAssumption(t *testing.T) {
	total := 100
	leafA := func(payload.Condition) payload.CardinalityEstimation {
		return payload.CardinalityEstimation{Min: 40, Exp: 40, Max: 40}
	}
	calls := 0
	leaf := func(c payload.Condition) payload.CardinalityEstimation {
		calls++
		if calls == 1 {
			return leafA(c)
		}
		return payload.CardinalityEstimation{Min: 50, Exp: 50, Max: 50}
	}
	f := &payload.Filter{Must: []payload.Condition{
		{Field: &payload.FieldCondition{Key: "a"}},
		{Field: &payload.FieldCondition{Key: "b"}},
	}}
	est := Estimate(leaf, f, total)
	// min = max(0, 40+50-100) = 0; max = min(40,50) = 40; exp = 100*0.4*0.5 = 20
	assert.Equal(t, 0, est.Min)
	assert.Equal(t, 40, est.Max)
	assert.Equal(t, 20, est.Exp)
}

func TestEstimateShouldUnionsBounds(t *testing.T) {
	total := 100
	calls := 0
	leaf := func(c payload.Condition) payload.CardinalityEstimation {
		calls++
		if calls == 1 {
			return payload.CardinalityEstimation{Min: 10, Exp: 10, Max: 10, PrimaryClauses: []payload.PrimaryCondition{{}}}
		}
		return payload.CardinalityEstimation{Min: 20, Exp: 20, Max: 20, PrimaryClauses: []payload.PrimaryCondition{{}}}
	}
	f := &payload.Filter{Should: []payload.Condition{
		{Field: &payload.FieldCondition{Key: "a"}},
		{Field: &payload.FieldCondition{Key: "b"}},
	}}
	est := Estimate(leaf, f, total)
	assert.Equal(t, 20, est.Min)
	assert.Equal(t, 30, est.Max)
	assert.Len(t, est.PrimaryClauses, 2, "both Should children contributed a primary clause")
}

func TestEstimateShouldDropsPrimaryClausesWhenOneChildHasNone(t *testing.T) {
	total := 100
	calls := 0
	leaf := func(c payload.Condition) payload.CardinalityEstimation {
		calls++
		if calls == 1 {
			return payload.CardinalityEstimation{Min: 10, Exp: 10, Max: 10, PrimaryClauses: []payload.PrimaryCondition{{}}}
		}
		return payload.Unknown(total)
	}
	f := &payload.Filter{Should: []payload.Condition{
		{Field: &payload.FieldCondition{Key: "indexed"}},
		{Field: &payload.FieldCondition{Key: "unindexed"}},
	}}
	est := Estimate(leaf, f, total)
	assert.Empty(t, est.PrimaryClauses, "one unindexed Should branch forces full scan")
}

func TestEstimateMustNotNegatesBounds(t *testing.T) {
	total := 100
	leaf := exactLeaf(30)
	f := &payload.Filter{MustNot: []payload.Condition{{Field: &payload.FieldCondition{Key: "a"}}}}
	est := Estimate(leaf, f, total)
	assert.Equal(t, 70, est.Min)
	assert.Equal(t, 70, est.Exp)
	assert.Equal(t, 70, est.Max)
	assert.Empty(t, est.PrimaryClauses, "negated clauses cannot drive an index probe")
}

func TestEstimateNestedFilterRecurses(t *testing.T) {
	nested := &payload.Filter{Must: []payload.Condition{{Field: &payload.FieldCondition{Key: "inner"}}}}
	f := &payload.Filter{Must: []payload.Condition{{Nested: nested}}}
	est := Estimate(exactLeaf(15), f, 100)
	assert.Equal(t, 15, est.Min)
	assert.Equal(t, 15, est.Max)
}

func TestEstimateCombinesMustShouldAndMustNot(t *testing.T) {
	total := 100
	calls := 0
	leaf := func(c payload.Condition) payload.CardinalityEstimation {
		calls++
		switch calls {
		case 1: // must
			return payload.CardinalityEstimation{Min: 60, Exp: 60, Max: 60}
		case 2: // should
			return payload.CardinalityEstimation{Min: 10, Exp: 10, Max: 10}
		default: // must_not
			return payload.CardinalityEstimation{Min: 5, Exp: 5, Max: 5}
		}
	}
	f := &payload.Filter{
		Must:    []payload.Condition{{Field: &payload.FieldCondition{Key: "a"}}},
		Should:  []payload.Condition{{Field: &payload.FieldCondition{Key: "b"}}},
		MustNot: []payload.Condition{{Field: &payload.FieldCondition{Key: "c"}}},
	}
	est := Estimate(leaf, f, total)
	assert.LessOrEqual(t, est.Min, est.Exp)
	assert.LessOrEqual(t, est.Exp, est.Max)
	assert.LessOrEqual(t, est.Max, total)
}
