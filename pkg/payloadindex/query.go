package payloadindex

import (
	"context"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/3leaps/payloadindex/internal/observability"
	"github.com/3leaps/payloadindex/pkg/estimator"
	"github.com/3leaps/payloadindex/pkg/filterctx"
	"github.com/3leaps/payloadindex/pkg/payload"
)

// EstimateCardinality walks f with the recursive CardinalityEstimator,
// dispatching each leaf to the field index, id tracker, or indexed-point
// count that can bound it (spec.md §4.D, §4.G).
func (p *PayloadIndex) EstimateCardinality(f *payload.Filter) payload.CardinalityEstimation {
	total := p.TotalPoints()
	return estimator.Estimate(p.estimateLeaf, f, total)
}

func (p *PayloadIndex) estimateLeaf(c payload.Condition) payload.CardinalityEstimation {
	total := p.TotalPoints()

	switch {
	case c.Field != nil:
		variants, ok := p.fieldIndexesFor(c.Field.Key)
		if ok {
			for _, v := range variants {
				if est, ok := v.EstimateCardinality(c.Field); ok {
					est.PrimaryClauses = append(est.PrimaryClauses, payload.PrimaryCondition{Condition: c.Field})
					return est
				}
			}
		}
		return payload.Unknown(total)

	case c.HasID != nil:
		ids := map[payload.PointOffsetType]struct{}{}
		for ext := range c.HasID.IDs {
			if id, ok := p.collab.IdTracker.InternalID(ext); ok {
				ids[id] = struct{}{}
			}
		}
		n := len(ids)
		return payload.CardinalityEstimation{
			Min: n, Exp: n, Max: n,
			PrimaryClauses: []payload.PrimaryCondition{{IDs: ids}},
		}

	case c.IsEmpty != nil:
		exp, upper := total/2, total
		if variants, ok := p.fieldIndexesFor(c.IsEmpty.Key); ok {
			indexed := 0
			for _, v := range variants {
				if n := v.CountIndexedPoints(); n > indexed {
					indexed = n
				}
			}
			exp = total - indexed
			upper = exp
		}
		return payload.CardinalityEstimation{
			Min: 0, Exp: exp, Max: upper,
			PrimaryClauses: []payload.PrimaryCondition{{IsEmpty: c.IsEmpty}},
		}

	default:
		panic(observability.NewPlanningInvariantViolation("condition leaf has no Field, HasID, or IsEmpty set"))
	}
}

// QueryPoints runs f's primary clauses through the index-driven executor,
// falling back to a full scan when the filter has no primary clause
// (spec.md §4.E).
func (p *PayloadIndex) QueryPoints(ctx context.Context, f *payload.Filter) []payload.PointOffsetType {
	est := p.EstimateCardinality(f)
	return p.exec.QueryPoints(ctx, f, est.PrimaryClauses, p.TotalPoints())
}

// FilterContext builds a reusable per-query evaluator for f, deciding once
// whether any leaf forces fallback to ConditionChecker (spec.md §4.F).
func (p *PayloadIndex) FilterContext(f *payload.Filter) *filterctx.Context {
	return filterctx.New(f, p.collab.ConditionChecker, p.fieldIndexesFor)
}

// PayloadBlocks enumerates value clusters with at least threshold points for
// key, used by the segment-split planner (spec.md §4.A PayloadBlocks). It
// never returns an error: a field with no index simply yields no blocks.
func (p *PayloadIndex) PayloadBlocks(ctx context.Context, key payload.Key, threshold int) []payload.PayloadBlockCondition {
	if threshold <= 0 {
		threshold = p.blockThreshold
	}
	variants, ok := p.fieldIndexesFor(key)
	if !ok {
		return nil
	}
	var out []payload.PayloadBlockCondition
	for _, v := range variants {
		out = append(out, v.PayloadBlocks(threshold, key)...)
	}

	if p.catalog != nil {
		if err := p.catalog.CachePayloadBlockCount(ctx, p.segmentPath, key, threshold, len(out), p.now()); err != nil {
			p.log.Warn("catalog cache payload block count failed", zapErrField(err))
		}
	}
	return out
}

// IndexedFieldsMatching returns the indexed keys matching a doublestar glob
// pattern (SPEC_FULL.md domain stack summary), e.g. "metadata.**" or
// "tags.*". The order of the returned keys is not defined.
func (p *PayloadIndex) IndexedFieldsMatching(pattern string) ([]payload.Key, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []payload.Key
	for key := range p.cfg.IndexedFields {
		matched, err := doublestar.Match(pattern, key)
		if err != nil {
			return nil, err
		}
		if matched {
			out = append(out, key)
		}
	}
	return out, nil
}
