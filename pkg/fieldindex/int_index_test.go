package fieldindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/payloadindex/pkg/payload"
)

func TestIntIndexRangeFilter(t *testing.T) {
	idx := NewIntIndex()
	idx.Add(1, int64(10))
	idx.Add(2, int64(20))
	idx.Add(3, int64(30))
	idx.Finalize()

	gte, lte := 15.0, 25.0
	fc := &payload.FieldCondition{Key: "n", Range: &payload.Range{Gte: &gte, Lte: &lte}}

	stream, ok := idx.Filter(fc)
	require.True(t, ok)
	assert.Equal(t, []payload.PointOffsetType{2}, IDStream(stream))
}

func TestIntIndexFilterRejectsNonRangeCondition(t *testing.T) {
	idx := NewIntIndex()
	idx.Add(1, int64(10))
	_, ok := idx.Filter(&payload.FieldCondition{Key: "n", Match: &payload.Match{Value: int64(10)}})
	assert.False(t, ok)
}

func TestIntIndexMultiValuePointDeduplicatesInRangeResult(t *testing.T) {
	idx := NewIntIndex()
	idx.Add(1, []int64{5, 6, 7})
	idx.Finalize()

	gte := 0.0
	fc := &payload.FieldCondition{Range: &payload.Range{Gte: &gte}}
	stream, ok := idx.Filter(fc)
	require.True(t, ok)
	assert.Equal(t, []payload.PointOffsetType{1}, IDStream(stream))
}

func TestIntIndexEstimateCardinalityIsExact(t *testing.T) {
	idx := NewIntIndex()
	idx.Add(1, int64(1))
	idx.Add(2, int64(2))
	idx.Add(3, int64(3))
	idx.Finalize()

	lte := 2.0
	fc := &payload.FieldCondition{Range: &payload.Range{Lte: &lte}}
	est, ok := idx.EstimateCardinality(fc)
	require.True(t, ok)
	assert.Equal(t, 2, est.Min)
	assert.Equal(t, 2, est.Exp)
	assert.Equal(t, 2, est.Max)
	require.Len(t, est.PrimaryClauses, 1)
	assert.Same(t, fc, est.PrimaryClauses[0].Condition)
}

func TestIntIndexCountIndexedPoints(t *testing.T) {
	idx := NewIntIndex()
	assert.Equal(t, 0, idx.CountIndexedPoints())
	idx.Add(1, int64(1))
	idx.Add(1, int64(2)) // second value, same point
	idx.Add(2, int64(3))
	assert.Equal(t, 2, idx.CountIndexedPoints())
}

func TestIntIndexGetValuesScalarVsMultiValue(t *testing.T) {
	idx := NewIntIndex()
	idx.Add(1, int64(7))
	idx.Add(2, []int64{1, 2})

	v, ok := idx.GetValues(1)
	require.True(t, ok)
	assert.Equal(t, int64(7), v)

	v, ok = idx.GetValues(2)
	require.True(t, ok)
	assert.Equal(t, []payload.Value{int64(1), int64(2)}, v)

	_, ok = idx.GetValues(3)
	assert.False(t, ok)
}

func TestIntIndexAddIgnoresWrongShapedValue(t *testing.T) {
	idx := NewIntIndex()
	idx.Add(1, "not an int")
	assert.Equal(t, 0, idx.CountIndexedPoints())
}

func TestIntIndexPayloadBlocksThreshold(t *testing.T) {
	idx := NewIntIndex()
	idx.Add(1, int64(9))
	idx.Add(2, int64(9))
	idx.Add(3, int64(1))

	blocks := idx.PayloadBlocks(2, "n")
	require.Len(t, blocks, 1)
	assert.Equal(t, 2, blocks[0].Cardinality)
	assert.Equal(t, int64(9), blocks[0].Condition.Match.Value)
}

func TestIntIndexEntriesRoundTrip(t *testing.T) {
	idx := NewIntIndex()
	idx.Add(1, int64(5))
	idx.Add(2, []int64{6, 7})

	rebuilt := IntIndexFromEntries(idx.Entries())
	assert.Equal(t, idx.Entries(), rebuilt.Entries())

	v, ok := rebuilt.GetValues(1)
	require.True(t, ok)
	assert.Equal(t, int64(5), v)
}
