// Package queryexec implements the FilterPlanner + Executor (spec.md §4.E):
// query_points chooses an index-driven or full-scan strategy, deduplicates
// candidate ids from primary clauses via a pooled visited bitset, and
// verifies survivors against the reference ConditionChecker.
package queryexec

import (
	"context"

	"github.com/3leaps/payloadindex/pkg/fieldindex"
	"github.com/3leaps/payloadindex/pkg/payload"
	"github.com/3leaps/payloadindex/pkg/visitedpool"
)

// ConditionChecker is the reference, non-indexed evaluator used both to
// verify index-driven candidates and to run the full-scan fallback.
type ConditionChecker interface {
	Check(id payload.PointOffsetType, f *payload.Filter) bool
}

// AllIDs iterates every point id known to vector storage — the full-scan
// source (spec.md §6's VectorStorage.iter_ids).
type AllIDs func(yield func(payload.PointOffsetType) bool)

// FieldIndexes resolves the ordered variant list for a key.
type FieldIndexes func(key payload.Key) ([]fieldindex.FieldIndex, bool)

// Executor runs query_points against one segment's field indexes.
type Executor struct {
	checker ConditionChecker
	allIDs  AllIDs
	indexes FieldIndexes
	pool    *visitedpool.Pool
}

// New builds an Executor that borrows visited bitsets from pool.
// PayloadIndex.Open creates one pool per PayloadIndex, not one per process.
func New(checker ConditionChecker, allIDs AllIDs, indexes FieldIndexes, pool *visitedpool.Pool) *Executor {
	return &Executor{checker: checker, allIDs: allIDs, indexes: indexes, pool: pool}
}

// QueryPoints evaluates f against totalVectorCount points and returns every
// matching id, deduplicated (spec.md §4.E, §8 invariants 1 and 6).
func (e *Executor) QueryPoints(ctx context.Context, f *payload.Filter, primaryClauses []payload.PrimaryCondition, totalVectorCount int) []payload.PointOffsetType {
	if len(primaryClauses) == 0 {
		return e.fullScan(ctx, f)
	}
	return e.indexDriven(ctx, f, primaryClauses, totalVectorCount)
}

func (e *Executor) fullScan(ctx context.Context, f *payload.Filter) []payload.PointOffsetType {
	var out []payload.PointOffsetType
	e.allIDs(func(id payload.PointOffsetType) bool {
		if ctxDone(ctx) {
			return false
		}
		if e.checker.Check(id, f) {
			out = append(out, id)
		}
		return true
	})
	return out
}

func (e *Executor) indexDriven(ctx context.Context, f *payload.Filter, primaryClauses []payload.PrimaryCondition, totalVectorCount int) []payload.PointOffsetType {
	visited := e.pool.Get(totalVectorCount)
	defer e.pool.Return(visited)

	var out []payload.PointOffsetType
	for _, pc := range primaryClauses {
		if ctxDone(ctx) {
			break
		}
		for _, id := range e.candidateStream(pc) {
			if visited.CheckAndUpdateVisited(id) {
				continue
			}
			if e.checker.Check(id, f) {
				out = append(out, id)
			}
		}
	}
	return out
}

// candidateStream materializes one primary clause's superset id stream.
// Condition clauses delegate to the winning variant; a miss (stale index
// after a concurrent drop_index) falls back to a full scan, which is always
// a sound superset. Ids clauses iterate their id set. IsEmpty clauses have
// no fast positive stream and also fall back to a full scan (spec.md §4.E
// step 3.b).
func (e *Executor) candidateStream(pc payload.PrimaryCondition) []payload.PointOffsetType {
	switch {
	case pc.Condition != nil:
		variants, ok := e.indexes(pc.Condition.Key)
		if ok {
			for _, v := range variants {
				if ids, ok := v.Filter(pc.Condition); ok {
					return fieldindex.IDStream(ids)
				}
			}
		}
		return e.allIDSlice()
	case pc.IDs != nil:
		ids := make([]payload.PointOffsetType, 0, len(pc.IDs))
		for id := range pc.IDs {
			ids = append(ids, id)
		}
		return ids
	default:
		// IsEmpty primary clause: no fast negative index.
		return e.allIDSlice()
	}
}

func (e *Executor) allIDSlice() []payload.PointOffsetType {
	var out []payload.PointOffsetType
	e.allIDs(func(id payload.PointOffsetType) bool {
		out = append(out, id)
		return true
	})
	return out
}

func ctxDone(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
