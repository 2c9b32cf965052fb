package fieldindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/payloadindex/pkg/payload"
)

func TestIntMapIndexExactMatch(t *testing.T) {
	idx := NewIntMapIndex()
	idx.Add(1, int64(5))
	idx.Add(2, int64(5))
	idx.Add(3, int64(6))

	stream, ok := idx.Filter(&payload.FieldCondition{Match: &payload.Match{Value: int64(5)}})
	require.True(t, ok)
	assert.ElementsMatch(t, []payload.PointOffsetType{1, 2}, IDStream(stream))
}

func TestIntMapIndexMatchAny(t *testing.T) {
	idx := NewIntMapIndex()
	idx.Add(1, int64(5))
	idx.Add(2, int64(6))
	idx.Add(3, int64(7))

	stream, ok := idx.Filter(&payload.FieldCondition{Match: &payload.Match{Any: []any{int64(5), int64(7)}}})
	require.True(t, ok)
	assert.ElementsMatch(t, []payload.PointOffsetType{1, 3}, IDStream(stream))
}

func TestIntMapIndexFilterRejectsNonMatchCondition(t *testing.T) {
	idx := NewIntMapIndex()
	gte := 1.0
	_, ok := idx.Filter(&payload.FieldCondition{Range: &payload.Range{Gte: &gte}})
	assert.False(t, ok)
}

func TestIntMapIndexFilterRejectsStringMatchValue(t *testing.T) {
	idx := NewIntMapIndex()
	idx.Add(1, int64(5))
	_, ok := idx.Filter(&payload.FieldCondition{Match: &payload.Match{Value: "not-an-int"}})
	assert.False(t, ok)
}

func TestIntMapIndexPayloadBlocks(t *testing.T) {
	idx := NewIntMapIndex()
	idx.Add(1, int64(5))
	idx.Add(2, int64(5))
	idx.Add(3, int64(9))

	blocks := idx.PayloadBlocks(2, "n")
	require.Len(t, blocks, 1)
	assert.Equal(t, int64(5), blocks[0].Condition.Match.Value)
	assert.Equal(t, 2, blocks[0].Cardinality)
}

func TestIntMapIndexEntriesRoundTrip(t *testing.T) {
	idx := NewIntMapIndex()
	idx.Add(1, int64(5))
	idx.Add(2, []int64{6, 7})

	rebuilt := IntMapIndexFromEntries(idx.Entries())
	assert.Equal(t, idx.Entries(), rebuilt.Entries())

	stream, ok := rebuilt.Filter(&payload.FieldCondition{Match: &payload.Match{Value: int64(6)}})
	require.True(t, ok)
	assert.Equal(t, []payload.PointOffsetType{2}, IDStream(stream))
}
