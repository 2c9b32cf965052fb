package fieldindex

import "github.com/3leaps/payloadindex/pkg/payload"

// GeoIndex supports radius and bounding-box queries over GeoPoint values
// (spec.md §3). Points are kept in a flat slice; the index is small enough
// in practice (one entry per indexed value) that a linear scan is sound —
// spec.md explicitly does not require a geohash grid here.
type GeoIndex struct {
	entries []geoEntry
	values  map[payload.PointOffsetType][]payload.GeoPoint
}

type geoEntry struct {
	point payload.GeoPoint
	id    payload.PointOffsetType
}

// NewGeoIndex returns an empty GeoIndex ready for Add calls.
func NewGeoIndex() *GeoIndex {
	return &GeoIndex{values: map[payload.PointOffsetType][]payload.GeoPoint{}}
}

func (idx *GeoIndex) Variant() string { return "geo" }

func (idx *GeoIndex) Add(p payload.PointOffsetType, value any) {
	pts, ok := toGeoPointSlice(value)
	if !ok {
		return
	}
	idx.values[p] = append(idx.values[p], pts...)
	for _, pt := range pts {
		idx.entries = append(idx.entries, geoEntry{point: pt, id: p})
	}
}

func (idx *GeoIndex) CountIndexedPoints() int { return len(idx.values) }

// Entries exports the per-point raw values for persistence round-tripping.
func (idx *GeoIndex) Entries() map[payload.PointOffsetType][]payload.GeoPoint {
	return idx.values
}

// GeoIndexFromEntries rebuilds a GeoIndex from a persisted entry map.
func GeoIndexFromEntries(entries map[payload.PointOffsetType][]payload.GeoPoint) *GeoIndex {
	idx := NewGeoIndex()
	for p, vs := range entries {
		idx.Add(p, vs)
	}
	return idx
}

func (idx *GeoIndex) GetValues(p payload.PointOffsetType) (payload.Value, bool) {
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

func (idx *GeoIndex) Filter(fc *payload.FieldCondition) (func(yield func(payload.PointOffsetType) bool), bool) {
	var test func(payload.GeoPoint) bool
	switch {
	case fc.GeoRadius != nil:
		r := fc.GeoRadius
		test = func(p payload.GeoPoint) bool { return payload.CheckGeoRadius(r, p) }
	case fc.GeoBoundingBox != nil:
		b := fc.GeoBoundingBox
		test = func(p payload.GeoPoint) bool { return payload.CheckGeoBoundingBox(b, p) }
	default:
		return nil, false
	}

	seen := map[payload.PointOffsetType]struct{}{}
	var matched []payload.PointOffsetType
	for _, e := range idx.entries {
		if !test(e.point) {
			continue
		}
		if _, dup := seen[e.id]; dup {
			continue
		}
		seen[e.id] = struct{}{}
		matched = append(matched, e.id)
	}
	return sliceIterator(matched), true
}

func (idx *GeoIndex) EstimateCardinality(fc *payload.FieldCondition) (payload.CardinalityEstimation, bool) {
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

// PayloadBlocks is not implemented for geo fields: clustering geo values
// into "fat" blocks requires spatial binning, which is one of the
// per-variant algorithms spec.md explicitly leaves unspecified. Returning
// no blocks is sound (an empty enumeration never misleads the segment-split
// planner, it simply finds nothing to split on for this field).
func (idx *GeoIndex) PayloadBlocks(threshold int, key payload.Key) []payload.PayloadBlockCondition {
	return nil
}

func toGeoPointSlice(value any) ([]payload.GeoPoint, bool) {
	switch v := value.(type) {
	case payload.GeoPoint:
		return []payload.GeoPoint{v}, true
	case []payload.GeoPoint:
		return v, true
	default:
		return nil, false
	}
}
