package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckMatchScalarAndMultiValue(t *testing.T) {
	assert.True(t, CheckMatch(&Match{Value: "red"}, "red"))
	assert.False(t, CheckMatch(&Match{Value: "red"}, "blue"))
	assert.True(t, CheckMatch(&Match{Value: "red"}, []Value{"blue", "red"}))
	assert.True(t, CheckMatch(&Match{Value: int64(5)}, float64(5)), "numeric types compare across representations")
}

func TestCheckMatchAny(t *testing.T) {
	m := &Match{Any: []any{"red", "green"}}
	assert.True(t, CheckMatch(m, "green"))
	assert.False(t, CheckMatch(m, "blue"))
}

func TestCheckMatchNilConditionNeverMatches(t *testing.T) {
	assert.False(t, CheckMatch(nil, "anything"))
}

func TestCheckRangeInclusiveAndExclusiveBounds(t *testing.T) {
	gte, lte := 10.0, 20.0
	r := &Range{Gte: &gte, Lte: &lte}
	assert.True(t, CheckRange(r, 10.0))
	assert.True(t, CheckRange(r, 20.0))
	assert.False(t, CheckRange(r, 9.9))
	assert.False(t, CheckRange(r, 20.1))

	gt := 10.0
	assert.False(t, CheckRange(&Range{Gt: &gt}, 10.0))
	assert.True(t, CheckRange(&Range{Gt: &gt}, 10.1))
}

func TestCheckRangeNonNumericValueNeverMatches(t *testing.T) {
	gte := 0.0
	assert.False(t, CheckRange(&Range{Gte: &gte}, "not a number"))
}

func TestCheckRangeMatchesIfAnyStoredValueQualifies(t *testing.T) {
	lte := 5.0
	assert.True(t, CheckRange(&Range{Lte: &lte}, []Value{int64(10), int64(3)}))
}

func TestCheckValuesCount(t *testing.T) {
	gte := 2
	c := &ValuesCount{Gte: &gte}
	assert.False(t, CheckValuesCount(c, "single"))
	assert.False(t, CheckValuesCount(c, nil))
	assert.True(t, CheckValuesCount(c, []Value{"a", "b"}))
}

func TestCheckGeoRadius(t *testing.T) {
	g := &GeoRadius{Center: GeoPoint{Lat: 0, Lon: 0}, Radius: 200000}
	assert.True(t, CheckGeoRadius(g, GeoPoint{Lat: 1, Lon: 0}))
	assert.False(t, CheckGeoRadius(g, GeoPoint{Lat: 45, Lon: 45}))
}

func TestCheckGeoBoundingBox(t *testing.T) {
	b := &GeoBoundingBox{
		TopLeft:     GeoPoint{Lat: 10, Lon: -10},
		BottomRight: GeoPoint{Lat: -10, Lon: 10},
	}
	assert.True(t, CheckGeoBoundingBox(b, GeoPoint{Lat: 0, Lon: 0}))
	assert.False(t, CheckGeoBoundingBox(b, GeoPoint{Lat: 20, Lon: 0}))
}

func TestCheckFieldConditionIsTrueIfAnySubConditionHolds(t *testing.T) {
	gte := 100.0
	fc := &FieldCondition{
		Key:   "x",
		Match: &Match{Value: "no-match"},
		Range: &Range{Gte: &gte},
	}
	assert.True(t, CheckFieldCondition(fc, 150.0), "Range sub-condition alone should make the leaf true")
	assert.False(t, CheckFieldCondition(fc, 50.0))
}

func TestCheckFieldConditionNilIsFalse(t *testing.T) {
	assert.False(t, CheckFieldCondition(nil, "x"))
}

func TestHaversineKnownDistance(t *testing.T) {
	// London to Paris is roughly 344 km.
	d := haversine(51.5074, -0.1278, 48.8566, 2.3522)
	assert.InDelta(t, 344000, d, 15000)
}

func TestHaversineSamePointIsZero(t *testing.T) {
	assert.Equal(t, 0.0, haversine(10, 20, 10, 20))
}
