package visitedpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckAndUpdateVisitedMarksOnFirstSeenOnly(t *testing.T) {
	pool := NewPool(128)
	v := pool.Get(128)

	assert.False(t, v.CheckAndUpdateVisited(5))
	assert.True(t, v.CheckAndUpdateVisited(5))
	assert.False(t, v.CheckAndUpdateVisited(6))
}

func TestCheckAndUpdateVisitedAcrossWordBoundary(t *testing.T) {
	pool := NewPool(8)
	v := pool.Get(256)

	assert.False(t, v.CheckAndUpdateVisited(63))
	assert.False(t, v.CheckAndUpdateVisited(64))
	assert.True(t, v.CheckAndUpdateVisited(63))
	assert.True(t, v.CheckAndUpdateVisited(64))
}

func TestReturnedBitsetIsClearedOnReuse(t *testing.T) {
	pool := NewPool(128)
	v := pool.Get(128)
	v.CheckAndUpdateVisited(10)
	pool.Return(v)

	v2 := pool.Get(128)
	assert.False(t, v2.CheckAndUpdateVisited(10), "a reused bitset must not carry over a prior borrower's bits")
}

func TestGetGrowsBitsetWhenRequestedSizeIsLarger(t *testing.T) {
	pool := NewPool(8)
	v := pool.Get(8)
	v.CheckAndUpdateVisited(5)
	pool.Return(v)

	v2 := pool.Get(1000)
	assert.False(t, v2.CheckAndUpdateVisited(500))
	assert.False(t, v2.CheckAndUpdateVisited(5), "growth allocates a fresh bitset, so stale bits cannot survive")
}
