package fieldindex

import "github.com/3leaps/payloadindex/pkg/payload"

// IntMapIndex is an exact-match / set-membership index over int64 values
// (spec.md §3).
type IntMapIndex struct {
	byValue map[int64]map[payload.PointOffsetType]struct{}
	values  map[payload.PointOffsetType][]int64
}

// NewIntMapIndex returns an empty IntMapIndex ready for Add calls.
func NewIntMapIndex() *IntMapIndex {
	return &IntMapIndex{
		byValue: map[int64]map[payload.PointOffsetType]struct{}{},
		values:  map[payload.PointOffsetType][]int64{},
	}
}

func (idx *IntMapIndex) Variant() string { return "int_map" }

func (idx *IntMapIndex) Add(p payload.PointOffsetType, value any) {
	ints, ok := toInt64Slice(value)
	if !ok {
		return
	}
	idx.values[p] = append(idx.values[p], ints...)
	for _, v := range ints {
		bucket, ok := idx.byValue[v]
		if !ok {
			bucket = map[payload.PointOffsetType]struct{}{}
			idx.byValue[v] = bucket
		}
		bucket[p] = struct{}{}
	}
}

func (idx *IntMapIndex) CountIndexedPoints() int { return len(idx.values) }

// Entries exports the per-point raw values for persistence round-tripping.
func (idx *IntMapIndex) Entries() map[payload.PointOffsetType][]int64 {
	return idx.values
}

// IntMapIndexFromEntries rebuilds an IntMapIndex from a persisted entry map.
func IntMapIndexFromEntries(entries map[payload.PointOffsetType][]int64) *IntMapIndex {
	idx := NewIntMapIndex()
	for p, vs := range entries {
		idx.Add(p, vs)
	}
	return idx
}

func (idx *IntMapIndex) GetValues(p payload.PointOffsetType) (payload.Value, bool) {
	vs, ok := idx.values[p]
	if !ok || len(vs) == 0 {
		return nil, false
	}
	if len(vs) == 1 {
		return vs[0], true
	}
	out := make([]payload.Value, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out, true
}

func (idx *IntMapIndex) candidateValues(fc *payload.FieldCondition) ([]int64, bool) {
	if fc.Match == nil {
		return nil, false
	}
	if fc.Match.Value != nil {
		v, ok := toInt64(fc.Match.Value)
		if !ok {
			return nil, false
		}
		return []int64{v}, true
	}
	var out []int64
	for _, a := range fc.Match.Any {
		v, ok := toInt64(a)
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

func (idx *IntMapIndex) Filter(fc *payload.FieldCondition) (func(yield func(payload.PointOffsetType) bool), bool) {
	wants, ok := idx.candidateValues(fc)
	if !ok {
		return nil, false
	}
	seen := map[payload.PointOffsetType]struct{}{}
	var matched []payload.PointOffsetType
	for _, v := range wants {
		for p := range idx.byValue[v] {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			matched = append(matched, p)
		}
	}
	return sliceIterator(matched), true
}

func (idx *IntMapIndex) EstimateCardinality(fc *payload.FieldCondition) (payload.CardinalityEstimation, bool) {
	stream, ok := idx.Filter(fc)
	if !ok {
		return payload.CardinalityEstimation{}, false
	}
	n := len(IDStream(stream))
	return payload.CardinalityEstimation{
		Min: n, Exp: n, Max: n,
		PrimaryClauses: []payload.PrimaryCondition{{Condition: fc}},
	}, true
}

func (idx *IntMapIndex) PayloadBlocks(threshold int, key payload.Key) []payload.PayloadBlockCondition {
	var out []payload.PayloadBlockCondition
	for v, points := range idx.byValue {
		if len(points) >= threshold {
			vv := v
			out = append(out, payload.PayloadBlockCondition{
				Condition:   payload.FieldCondition{Key: key, Match: &payload.Match{Value: vv}},
				Cardinality: len(points),
			})
		}
	}
	return out
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
