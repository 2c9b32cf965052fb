package fieldindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/payloadindex/pkg/payload"
)

func TestFloatIndexRangeFilter(t *testing.T) {
	idx := NewFloatIndex()
	idx.Add(1, 1.5)
	idx.Add(2, 2.5)
	idx.Add(3, 3.5)
	idx.Finalize()

	gt := 2.0
	fc := &payload.FieldCondition{Range: &payload.Range{Gt: &gt}}
	stream, ok := idx.Filter(fc)
	require.True(t, ok)
	assert.ElementsMatch(t, []payload.PointOffsetType{2, 3}, IDStream(stream))
}

func TestFloatIndexAcceptsIntegerValues(t *testing.T) {
	idx := NewFloatIndex()
	idx.Add(1, int64(4))
	idx.Finalize()

	v, ok := idx.GetValues(1)
	require.True(t, ok)
	assert.Equal(t, 4.0, v)
}

func TestFloatIndexPayloadBlocks(t *testing.T) {
	idx := NewFloatIndex()
	idx.Add(1, 1.0)
	idx.Add(2, 1.0)
	idx.Add(3, 2.0)

	blocks := idx.PayloadBlocks(2, "score")
	require.Len(t, blocks, 1)
	assert.Equal(t, 1.0, blocks[0].Condition.Match.Value)
}

func TestFloatIndexEntriesRoundTrip(t *testing.T) {
	idx := NewFloatIndex()
	idx.Add(1, 1.5)
	idx.Add(2, []float64{2.5, 3.5})

	rebuilt := FloatIndexFromEntries(idx.Entries())
	assert.Equal(t, idx.Entries(), rebuilt.Entries())
}
