package fieldindex

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/3leaps/payloadindex/pkg/payload"
)

// KeywordIndex is an exact-match index over string values (spec.md §3).
type KeywordIndex struct {
	byValue map[string]map[payload.PointOffsetType]struct{}
	values  map[payload.PointOffsetType][]string
}

// NewKeywordIndex returns an empty KeywordIndex ready for Add calls.
func NewKeywordIndex() *KeywordIndex {
	return &KeywordIndex{
		byValue: map[string]map[payload.PointOffsetType]struct{}{},
		values:  map[payload.PointOffsetType][]string{},
	}
}

func (idx *KeywordIndex) Variant() string { return "keyword" }

func (idx *KeywordIndex) Add(p payload.PointOffsetType, value any) {
	strs, ok := toStringSlice(value)
	if !ok {
		return
	}
	idx.values[p] = append(idx.values[p], strs...)
	for _, s := range strs {
		bucket, ok := idx.byValue[s]
		if !ok {
			bucket = map[payload.PointOffsetType]struct{}{}
			idx.byValue[s] = bucket
		}
		bucket[p] = struct{}{}
	}
}

func (idx *KeywordIndex) CountIndexedPoints() int { return len(idx.values) }

// Entries exports the per-point raw values for persistence round-tripping.
func (idx *KeywordIndex) Entries() map[payload.PointOffsetType][]string {
	return idx.values
}

// KeywordIndexFromEntries rebuilds a KeywordIndex from a persisted entry map.
func KeywordIndexFromEntries(entries map[payload.PointOffsetType][]string) *KeywordIndex {
	idx := NewKeywordIndex()
	for p, vs := range entries {
		idx.Add(p, vs)
	}
	return idx
}

func (idx *KeywordIndex) GetValues(p payload.PointOffsetType) (payload.Value, bool) {
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

func (idx *KeywordIndex) candidateValues(fc *payload.FieldCondition) ([]string, bool) {
	if fc.Match == nil {
		return nil, false
	}
	if fc.Match.Value != nil {
		s, ok := fc.Match.Value.(string)
		if !ok {
			return nil, false
		}
		return []string{s}, true
	}
	var out []string
	for _, a := range fc.Match.Any {
		s, ok := a.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func (idx *KeywordIndex) Filter(fc *payload.FieldCondition) (func(yield func(payload.PointOffsetType) bool), bool) {
	wants, ok := idx.candidateValues(fc)
	if !ok {
		return nil, false
	}
	seen := map[payload.PointOffsetType]struct{}{}
	var matched []payload.PointOffsetType
	for _, s := range wants {
		for p := range idx.byValue[s] {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			matched = append(matched, p)
		}
	}
	return sliceIterator(matched), true
}

func (idx *KeywordIndex) EstimateCardinality(fc *payload.FieldCondition) (payload.CardinalityEstimation, bool) {
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

func (idx *KeywordIndex) PayloadBlocks(threshold int, key payload.Key) []payload.PayloadBlockCondition {
	var out []payload.PayloadBlockCondition
	for s, points := range idx.byValue {
		if len(points) >= threshold {
			out = append(out, payload.PayloadBlockCondition{
				Condition:   payload.FieldCondition{Key: key, Match: &payload.Match{Value: s}},
				Cardinality: len(points),
			})
		}
	}
	return out
}

// MatchingValues returns the distinct stored values matching a doublestar
// glob pattern, in no defined order: wildcard value selection rather than
// exact match. PayloadBlocks and PayloadIndex.IndexedFieldsMatching do not
// call it.
func (idx *KeywordIndex) MatchingValues(pattern string) []string {
	var out []string
	for s := range idx.byValue {
		if ok, _ := doublestar.Match(pattern, s); ok {
			out = append(out, s)
		}
	}
	return out
}

func toStringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case string:
		return []string{v}, true
	case []string:
		return v, true
	default:
		return nil, false
	}
}
