package fieldindex

import (
	"sort"

	"github.com/3leaps/payloadindex/pkg/payload"
)

// IntIndex is an ordered range index over int64 values (spec.md §3).
type IntIndex struct {
	// sorted holds (value, point) pairs ordered by value, supporting range
	// scans via binary search.
	sorted []intEntry
	values map[payload.PointOffsetType][]int64
}

type intEntry struct {
	value int64
	point payload.PointOffsetType
}

// NewIntIndex returns an empty IntIndex ready for Add calls.
func NewIntIndex() *IntIndex {
	return &IntIndex{values: map[payload.PointOffsetType][]int64{}}
}

func (idx *IntIndex) Variant() string { return "int" }

func (idx *IntIndex) Add(p payload.PointOffsetType, value any) {
	ints, ok := toInt64Slice(value)
	if !ok {
		return
	}
	if _, seen := idx.values[p]; !seen {
		// First value for p; defer sort until Build-time finalize.
	}
	idx.values[p] = append(idx.values[p], ints...)
	for _, v := range ints {
		idx.sorted = append(idx.sorted, intEntry{value: v, point: p})
	}
}

// Finalize sorts the internal index after a build pass. Safe to call
// multiple times; a no-op on an already-sorted index.
func (idx *IntIndex) Finalize() {
	sort.Slice(idx.sorted, func(i, j int) bool { return idx.sorted[i].value < idx.sorted[j].value })
}

// Entries exports the per-point raw values for persistence round-tripping.
func (idx *IntIndex) Entries() map[payload.PointOffsetType][]int64 {
	return idx.values
}

// IntIndexFromEntries rebuilds an IntIndex from a persisted entry map.
func IntIndexFromEntries(entries map[payload.PointOffsetType][]int64) *IntIndex {
	idx := NewIntIndex()
	for p, vs := range entries {
		idx.Add(p, vs)
	}
	idx.Finalize()
	return idx
}

func (idx *IntIndex) CountIndexedPoints() int { return len(idx.values) }

func (idx *IntIndex) GetValues(p payload.PointOffsetType) (payload.Value, bool) {
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

func (idx *IntIndex) Filter(fc *payload.FieldCondition) (func(yield func(payload.PointOffsetType) bool), bool) {
	if fc.Range == nil {
		return nil, false
	}
	idx.Finalize()
	lo, hi := rangeBounds(fc.Range)
	var matched []payload.PointOffsetType
	seen := map[payload.PointOffsetType]struct{}{}
	start := sort.Search(len(idx.sorted), func(i int) bool { return float64(idx.sorted[i].value) >= lo })
	for i := start; i < len(idx.sorted) && float64(idx.sorted[i].value) <= hi; i++ {
		e := idx.sorted[i]
		if !rangeMatchesEntry(fc.Range, float64(e.value)) {
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

func (idx *IntIndex) EstimateCardinality(fc *payload.FieldCondition) (payload.CardinalityEstimation, bool) {
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

func (idx *IntIndex) PayloadBlocks(threshold int, key payload.Key) []payload.PayloadBlockCondition {
	idx.Finalize()
	counts := map[int64]int{}
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

func toInt64Slice(value any) ([]int64, bool) {
	switch v := value.(type) {
	case int64:
		return []int64{v}, true
	case int:
		return []int64{int64(v)}, true
	case []int64:
		return v, true
	case []int:
		out := make([]int64, len(v))
		for i, x := range v {
			out[i] = int64(x)
		}
		return out, true
	default:
		return nil, false
	}
}

func rangeBounds(r *payload.Range) (lo, hi float64) {
	lo, hi = -1e18, 1e18
	if r.Gt != nil && *r.Gt > lo {
		lo = *r.Gt
	}
	if r.Gte != nil && *r.Gte > lo {
		lo = *r.Gte
	}
	if r.Lt != nil && *r.Lt < hi {
		hi = *r.Lt
	}
	if r.Lte != nil && *r.Lte < hi {
		hi = *r.Lte
	}
	return lo, hi
}

func rangeMatchesEntry(r *payload.Range, v float64) bool {
	if r.Gt != nil && !(v > *r.Gt) {
		return false
	}
	if r.Gte != nil && !(v >= *r.Gte) {
		return false
	}
	if r.Lt != nil && !(v < *r.Lt) {
		return false
	}
	if r.Lte != nil && !(v <= *r.Lte) {
		return false
	}
	return true
}
