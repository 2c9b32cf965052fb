// Package visitedpool implements the visited-bitset pool used by the query
// executor for O(1) "seen" tests during id de-duplication (spec.md §5, §9).
// Backed by sync.Pool: Go's standard answer to a short-critical-section,
// concurrency-safe object pool. A Pool is shared only by the callers that
// hold it; PayloadIndex.Open creates a separate Pool for each index.
package visitedpool

import "sync"

// VisitedList is a fixed-size bit array sized to the current vector count.
// Returned bitsets are cleared lazily on re-acquire (spec.md §5): Get zeroes
// every word of a reused bitset, or allocates a fresh one when the requested
// size is larger, so a prior borrower's bits never leak into a new borrower.
type VisitedList struct {
	bits []uint64
	size int
}

func newVisitedList(size int) *VisitedList {
	return &VisitedList{bits: make([]uint64, (size+63)/64), size: size}
}

func (v *VisitedList) ensureSize(size int) {
	if v.size >= size {
		// Large enough already: reuse the words, clearing all of them.
		for i := range v.bits {
			v.bits[i] = 0
		}
		return
	}
	v.bits = make([]uint64, (size+63)/64)
	v.size = size
}

// CheckAndUpdateVisited reports whether id was already visited, marking it
// visited as a side effect — the check-and-set primitive the executor uses
// to drop duplicate ids in O(1) without sorting.
func (v *VisitedList) CheckAndUpdateVisited(id uint32) bool {
	word := id / 64
	bit := uint64(1) << (id % 64)
	was := v.bits[word]&bit != 0
	v.bits[word] |= bit
	return was
}

// Pool is a concurrency-safe pool of VisitedList instances.
type Pool struct {
	pool sync.Pool
}

// NewPool returns a Pool whose New function seeds fresh bitsets at
// initialCapacity bits, matching Config.VisitedPoolInitialCapacity.
func NewPool(initialCapacity int) *Pool {
	p := &Pool{}
	p.pool.New = func() any { return newVisitedList(initialCapacity) }
	return p
}

// Get returns a zero-initialized VisitedList sized to at least size bits.
func (p *Pool) Get(size int) *VisitedList {
	v := p.pool.Get().(*VisitedList)
	v.ensureSize(size)
	return v
}

// Return releases v back to the pool for reuse.
func (p *Pool) Return(v *VisitedList) {
	p.pool.Put(v)
}
