package payload

import "fmt"

// Value is the canonical in-memory representation FilterContext and the
// reference ConditionChecker test sub-conditions against. It is produced by
// materializing a field index's stored values (spec.md §4.F):
//   - a single value materializes as a scalar (int64, float64, or string)
//   - multiple values materialize as []Value
//   - a GeoPoint materializes as a GeoPoint
type Value = any

// CheckMatch reports whether v satisfies a Match condition.
func CheckMatch(m *Match, v Value) bool {
	if m == nil {
		return false
	}
	if m.Value != nil {
		return anyMatches(v, m.Value)
	}
	for _, want := range m.Any {
		if anyMatches(v, want) {
			return true
		}
	}
	return false
}

func anyMatches(v Value, want any) bool {
	switch vv := v.(type) {
	case []Value:
		for _, elem := range vv {
			if scalarEqual(elem, want) {
				return true
			}
		}
		return false
	default:
		return scalarEqual(v, want)
	}
}

func scalarEqual(a, b any) bool {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf
	}
	as, asok := a.(string)
	bs, bsok := b.(string)
	if asok && bsok {
		return as == bs
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

// CheckRange reports whether v satisfies a Range condition. Non-numeric
// values never satisfy a range.
func CheckRange(r *Range, v Value) bool {
	if r == nil {
		return false
	}
	nums := numericValues(v)
	if len(nums) == 0 {
		return false
	}
	for _, n := range nums {
		if rangeMatchesOne(r, n) {
			return true
		}
	}
	return false
}

func rangeMatchesOne(r *Range, n float64) bool {
	if r.Gt != nil && !(n > *r.Gt) {
		return false
	}
	if r.Gte != nil && !(n >= *r.Gte) {
		return false
	}
	if r.Lt != nil && !(n < *r.Lt) {
		return false
	}
	if r.Lte != nil && !(n <= *r.Lte) {
		return false
	}
	return true
}

func numericValues(v Value) []float64 {
	switch vv := v.(type) {
	case []Value:
		var out []float64
		for _, elem := range vv {
			if f, ok := asFloat(elem); ok {
				out = append(out, f)
			}
		}
		return out
	default:
		if f, ok := asFloat(v); ok {
			return []float64{f}
		}
		return nil
	}
}

// CheckValuesCount reports whether the number of stored values in v
// satisfies a ValuesCount condition. A nil/absent value counts as zero.
func CheckValuesCount(c *ValuesCount, v Value) bool {
	if c == nil {
		return false
	}
	count := 0
	switch vv := v.(type) {
	case nil:
		count = 0
	case []Value:
		count = len(vv)
	default:
		count = 1
	}
	if c.Gt != nil && !(count > *c.Gt) {
		return false
	}
	if c.Gte != nil && !(count >= *c.Gte) {
		return false
	}
	if c.Lt != nil && !(count < *c.Lt) {
		return false
	}
	if c.Lte != nil && !(count <= *c.Lte) {
		return false
	}
	return true
}

// geoPointsOf extracts zero or more GeoPoints from a materialized value.
func geoPointsOf(v Value) []GeoPoint {
	switch vv := v.(type) {
	case GeoPoint:
		return []GeoPoint{vv}
	case []Value:
		var out []GeoPoint
		for _, elem := range vv {
			out = append(out, geoPointsOf(elem)...)
		}
		return out
	default:
		return nil
	}
}

// CheckGeoRadius reports whether v contains a point within the radius.
func CheckGeoRadius(g *GeoRadius, v Value) bool {
	if g == nil {
		return false
	}
	for _, p := range geoPointsOf(v) {
		if haversineMeters(g.Center, p) <= g.Radius {
			return true
		}
	}
	return false
}

// CheckGeoBoundingBox reports whether v contains a point inside the box.
func CheckGeoBoundingBox(b *GeoBoundingBox, v Value) bool {
	if b == nil {
		return false
	}
	for _, p := range geoPointsOf(v) {
		if p.Lat <= b.TopLeft.Lat && p.Lat >= b.BottomRight.Lat &&
			p.Lon >= b.TopLeft.Lon && p.Lon <= b.BottomRight.Lon {
			return true
		}
	}
	return false
}

// CheckFieldCondition reports whether v satisfies any configured
// sub-condition of fc — spec.md §4.F: "A leaf is true iff any configured
// sub-condition holds."
func CheckFieldCondition(fc *FieldCondition, v Value) bool {
	if fc == nil {
		return false
	}
	res := false
	res = res || CheckMatch(fc.Match, v)
	res = res || CheckRange(fc.Range, v)
	res = res || CheckGeoRadius(fc.GeoRadius, v)
	res = res || CheckGeoBoundingBox(fc.GeoBoundingBox, v)
	res = res || CheckValuesCount(fc.ValuesCount, v)
	return res
}

const earthRadiusMeters = 6371000.0

func haversineMeters(a, b GeoPoint) float64 {
	return haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

// String implements fmt.Stringer for debugging test failures.
func (fc FieldCondition) String() string {
	return fmt.Sprintf("FieldCondition{key=%s}", fc.Key)
}
