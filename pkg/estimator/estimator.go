// Package estimator implements the recursive CardinalityEstimator
// (spec.md §4.D): it walks a Filter tree, asking a LeafEstimator for each
// Condition leaf's bound, and composes child bounds with interval boolean
// algebra at Must/Should/MustNot nodes.
package estimator

import (
	"github.com/3leaps/payloadindex/pkg/payload"
)

// LeafEstimator estimates a single Condition leaf. Implementations call
// into field indexes (Field), the IdTracker (HasId), and indexed-point
// counts (IsEmpty) — see payloadindex.PayloadIndex.estimateLeaf.
type LeafEstimator func(c payload.Condition) payload.CardinalityEstimation

// Estimate computes the (min, exp, max, primary_clauses) bound for a whole
// filter tree against a collection of totalPoints points.
func Estimate(leaf LeafEstimator, f *payload.Filter, totalPoints int) payload.CardinalityEstimation {
	if f.IsEmptyFilter() {
		return payload.CardinalityEstimation{Min: totalPoints, Exp: totalPoints, Max: totalPoints}
	}

	var (
		haveMust bool
		must     payload.CardinalityEstimation
	)
	for _, c := range f.Must {
		e := estimateCondition(leaf, c, totalPoints)
		if !haveMust {
			must = e
			haveMust = true
		} else {
			must = combineMust(must, e, totalPoints)
		}
	}

	var (
		haveShould bool
		should     payload.CardinalityEstimation
		allPrimary = true
	)
	for _, c := range f.Should {
		e := estimateCondition(leaf, c, totalPoints)
		if len(e.PrimaryClauses) == 0 {
			allPrimary = false
		}
		if !haveShould {
			should = e
			haveShould = true
		} else {
			should = combineShould(should, e, totalPoints)
		}
	}
	if haveShould && !allPrimary {
		should.PrimaryClauses = nil
	}

	var (
		haveMustNot bool
		mustNot     payload.CardinalityEstimation
	)
	for _, c := range f.MustNot {
		e := estimateCondition(leaf, c, totalPoints)
		e = negate(e, totalPoints)
		if !haveMustNot {
			mustNot = e
			haveMustNot = true
		} else {
			mustNot = combineMust(mustNot, e, totalPoints)
		}
	}

	result := payload.CardinalityEstimation{Min: totalPoints, Exp: totalPoints, Max: totalPoints}
	first := true
	for _, part := range []struct {
		have bool
		est  payload.CardinalityEstimation
	}{
		{haveMust, must},
		{haveShould, should},
		{haveMustNot, mustNot},
	} {
		if !part.have {
			continue
		}
		if first {
			result = part.est
			first = false
		} else {
			result = combineMust(result, part.est, totalPoints)
		}
	}

	return result
}

func estimateCondition(leaf LeafEstimator, c payload.Condition, totalPoints int) payload.CardinalityEstimation {
	if c.Nested != nil {
		return Estimate(leaf, c.Nested, totalPoints)
	}
	return leaf(c)
}

// combineMust implements spec.md §4.D's Must interval algebra:
//
//	min  = max(0, a.min + b.min - total)
//	max  = min(a.max, b.max)
//	exp  = total * (a.exp/total) * (b.exp/total)   (independence assumption)
func combineMust(a, b payload.CardinalityEstimation, total int) payload.CardinalityEstimation {
	min := a.Min + b.Min - total
	if min < 0 {
		min = 0
	}
	max := a.Max
	if b.Max < max {
		max = b.Max
	}
	exp := independentExp(a.Exp, b.Exp, total)

	return payload.CardinalityEstimation{
		Min: min, Exp: exp, Max: max,
		PrimaryClauses: append(append([]payload.PrimaryCondition{}, a.PrimaryClauses...), b.PrimaryClauses...),
	}
}

// combineShould implements spec.md §4.D's Should interval algebra:
//
//	min = max(a.min, b.min)
//	max = min(total, a.max + b.max)
//	exp = total * (1 - (1 - a.exp/total)(1 - b.exp/total))
func combineShould(a, b payload.CardinalityEstimation, total int) payload.CardinalityEstimation {
	min := a.Min
	if b.Min > min {
		min = b.Min
	}
	max := a.Max + b.Max
	if max > total {
		max = total
	}
	exp := unionExp(a.Exp, b.Exp, total)

	// primary_clauses union is handled by the caller (Estimate), which
	// zeroes it out unless every Should child contributed a primary.
	return payload.CardinalityEstimation{
		Min: min, Exp: exp, Max: max,
		PrimaryClauses: append(append([]payload.PrimaryCondition{}, a.PrimaryClauses...), b.PrimaryClauses...),
	}
}

// negate implements spec.md §4.D's MustNot transform: {total-max, total-exp,
// total-min}; primary clauses vanish (negated clauses cannot drive index
// probes).
func negate(a payload.CardinalityEstimation, total int) payload.CardinalityEstimation {
	return payload.CardinalityEstimation{
		Min: total - a.Max,
		Exp: total - a.Exp,
		Max: total - a.Min,
	}
}

func independentExp(aExp, bExp, total int) int {
	if total == 0 {
		return 0
	}
	af := float64(aExp) / float64(total)
	bf := float64(bExp) / float64(total)
	return int(float64(total) * af * bf)
}

func unionExp(aExp, bExp, total int) int {
	if total == 0 {
		return 0
	}
	af := float64(aExp) / float64(total)
	bf := float64(bExp) / float64(total)
	return int(float64(total) * (1 - (1-af)*(1-bf)))
}
