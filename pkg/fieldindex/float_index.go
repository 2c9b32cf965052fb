package fieldindex

import (
	"sort"

	"github.com/3leaps/payloadindex/pkg/payload"
)

// FloatIndex is an ordered range index over float64 values (spec.md §3).
type FloatIndex struct {
	sorted []floatEntry
	values map[payload.PointOffsetType][]float64
}

type floatEntry struct {
	value float64
	point payload.PointOffsetType
}

// NewFloatIndex returns an empty FloatIndex ready for Add calls.
func NewFloatIndex() *FloatIndex {
	return &FloatIndex{values: map[payload.PointOffsetType][]float64{}}
}

func (idx *FloatIndex) Variant() string { return "float" }

func (idx *FloatIndex) Add(p payload.PointOffsetType, value any) {
	floats, ok := toFloat64Slice(value)
	if !ok {
		return
	}
	idx.values[p] = append(idx.values[p], floats...)
	for _, v := range floats {
		idx.sorted = append(idx.sorted, floatEntry{value: v, point: p})
	}
}

// Finalize sorts the internal index after a build pass.
func (idx *FloatIndex) Finalize() {
	sort.Slice(idx.sorted, func(i, j int) bool { return idx.sorted[i].value < idx.sorted[j].value })
}

// Entries exports the per-point raw values for persistence round-tripping.
func (idx *FloatIndex) Entries() map[payload.PointOffsetType][]float64 {
	return idx.values
}

// FloatIndexFromEntries rebuilds a FloatIndex from a persisted entry map.
func FloatIndexFromEntries(entries map[payload.PointOffsetType][]float64) *FloatIndex {
	idx := NewFloatIndex()
	for p, vs := range entries {
		idx.Add(p, vs)
	}
	idx.Finalize()
	return idx
}

func (idx *FloatIndex) CountIndexedPoints() int { return len(idx.values) }

func (idx *FloatIndex) GetValues(p payload.PointOffsetType) (payload.Value, bool) {
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

func (idx *FloatIndex) Filter(fc *payload.FieldCondition) (func(yield func(payload.PointOffsetType) bool), bool) {
	if fc.Range == nil {
		return nil, false
	}
	idx.Finalize()
	lo, hi := rangeBounds(fc.Range)
	var matched []payload.PointOffsetType
	seen := map[payload.PointOffsetType]struct{}{}
	start := sort.Search(len(idx.sorted), func(i int) bool { return idx.sorted[i].value >= lo })
	for i := start; i < len(idx.sorted) && idx.sorted[i].value <= hi; i++ {
		e := idx.sorted[i]
		if !rangeMatchesEntry(fc.Range, e.value) {
			continue
		}
		if _, dup := seen[e.point]; dup {
			continue
		}
		seen[e.point] = struct{}{}
		matched = append(matched, e.point)
	}
	return sliceIterator(matched), true
}

func (idx *FloatIndex) EstimateCardinality(fc *payload.FieldCondition) (payload.CardinalityEstimation, bool) {
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

func (idx *FloatIndex) PayloadBlocks(threshold int, key payload.Key) []payload.PayloadBlockCondition {
	idx.Finalize()
	counts := map[float64]int{}
	for _, e := range idx.sorted {
		counts[e.value]++
	}
	var out []payload.PayloadBlockCondition
	for v, c := range counts {
		if c >= threshold {
			vv := v
			out = append(out, payload.PayloadBlockCondition{
				Condition:   payload.FieldCondition{Key: key, Match: &payload.Match{Value: vv}},
				Cardinality: c,
			})
		}
	}
	return out
}

func toFloat64Slice(value any) ([]float64, bool) {
	switch v := value.(type) {
	case float64:
		return []float64{v}, true
	case float32:
		return []float64{float64(v)}, true
	case int64:
		return []float64{float64(v)}, true
	case int:
		return []float64{float64(v)}, true
	case []float64:
		return v, true
	default:
		return nil, false
	}
}
