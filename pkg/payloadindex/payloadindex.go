// Package payloadindex implements the PayloadIndex facade (spec.md §4.G):
// lifecycle operations over a segment's field indexes, wiring together
// IndexPersistence, IndexSelector, the CardinalityEstimator, FilterPlanner +
// Executor, and FilterContext against a set of external collaborators.
package payloadindex

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/3leaps/payloadindex/internal/config"
	"github.com/3leaps/payloadindex/internal/observability"
	"github.com/3leaps/payloadindex/pkg/catalog"
	"github.com/3leaps/payloadindex/pkg/fieldindex"
	"github.com/3leaps/payloadindex/pkg/payload"
	"github.com/3leaps/payloadindex/pkg/persistence"
	"github.com/3leaps/payloadindex/pkg/queryexec"
	"github.com/3leaps/payloadindex/pkg/visitedpool"
)

// PayloadStorage is the canonical per-point payload source (spec.md §6).
// GetValue folds the original's two-step `payload(id).get_value(key)` into
// one call, which is the idiomatic Go shape for this collaborator.
type PayloadStorage interface {
	IterIDs(yield func(payload.PointOffsetType) bool)
	GetValue(id payload.PointOffsetType, key payload.Key) (any, bool)
}

// VectorStorage provides total point count and full id iteration for scans
// (spec.md §6).
type VectorStorage interface {
	IterIDs(yield func(payload.PointOffsetType) bool)
	TotalVectorCount() int
	VectorCount() int
}

// IdTracker maps external ids to internal compact offsets (spec.md §6).
type IdTracker interface {
	InternalID(external any) (payload.PointOffsetType, bool)
}

// ConditionChecker is the reference, non-indexed evaluator of a full filter
// against a single point (spec.md §6) — final verification and fallback.
type ConditionChecker interface {
	Check(id payload.PointOffsetType, f *payload.Filter) bool
}

// Collaborators bundles the four external handles PayloadIndex never owns,
// only borrows for the scope of one operation (spec.md §5).
type Collaborators struct {
	PayloadStorage   PayloadStorage
	VectorStorage    VectorStorage
	IdTracker        IdTracker
	ConditionChecker ConditionChecker
}

// PayloadIndex is the facade over one segment's field indexes.
type PayloadIndex struct {
	mu           sync.RWMutex
	cfg          payload.Config
	fieldIndexes map[payload.Key][]fieldindex.FieldIndex

	collab Collaborators

	store   *persistence.Store
	catalog *catalog.Store
	pool    *visitedpool.Pool
	exec    *queryexec.Executor

	segmentPath      string
	blockThreshold   int
	buildConcurrency int
	buildLimiter     *rate.Limiter

	log *zap.Logger
}

// Open implements struct_payload_index.rs's open(): create the segment
// directory (delegated to the ArtifactStore), load or default the config,
// save a default config if one didn't exist, then load-or-build every
// indexed field's artifact (spec.md §4.C).
func Open(
	ctx context.Context,
	segmentPath string,
	artifacts persistence.ArtifactStore,
	collab Collaborators,
	cfg *config.Config,
	log *zap.Logger,
	cat *catalog.Store,
) (*PayloadIndex, error) {
	if cfg == nil {
		cfg = &config.Config{
			VisitedPoolInitialCapacity:  1024,
			PayloadBlockDefaultThreshold: 1000,
			BuildConcurrency:            4,
			BuildRateBurst:              4,
		}
	}
	if log == nil {
		log = zap.NewNop()
	}

	store := persistence.NewStore(artifacts, log)

	p := &PayloadIndex{
		fieldIndexes:     map[payload.Key][]fieldindex.FieldIndex{},
		collab:           collab,
		store:            store,
		catalog:          cat,
		pool:             visitedpool.NewPool(cfg.VisitedPoolInitialCapacity),
		segmentPath:      segmentPath,
		blockThreshold:   cfg.PayloadBlockDefaultThreshold,
		buildConcurrency: cfg.BuildConcurrency,
		buildLimiter:     rate.NewLimiter(rate.Limit(cfg.BuildConcurrency), cfg.BuildRateBurst),
		log:              log,
	}
	p.exec = queryexec.New(collab.ConditionChecker, collab.VectorStorage.IterIDs, p.fieldIndexesFor, p.pool)

	loadedCfg, err := store.EnsureConfig(ctx)
	if err != nil {
		return nil, observability.PersistenceError("ensure payload config", err)
	}
	p.cfg = loadedCfg

	fieldIndexes, err := p.loadAllFields(ctx, loadedCfg)
	if err != nil {
		return nil, observability.PersistenceError("load payload field indexes", err)
	}
	p.fieldIndexes = fieldIndexes

	return p, nil
}

func (p *PayloadIndex) fieldIndexesFor(key payload.Key) ([]fieldindex.FieldIndex, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	variants, ok := p.fieldIndexes[key]
	return variants, ok
}

// IndexedFields returns a snapshot of the persisted key → schema mapping
// (spec.md §4.G).
func (p *PayloadIndex) IndexedFields() map[payload.Key]payload.SchemaType {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[payload.Key]payload.SchemaType, len(p.cfg.IndexedFields))
	for k, v := range p.cfg.IndexedFields {
		out[k] = v
	}
	return out
}

// TotalPoints delegates to VectorStorage (spec.md §4.G).
func (p *PayloadIndex) TotalPoints() int {
	return p.collab.VectorStorage.TotalVectorCount()
}

func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func (p *PayloadIndex) String() string {
	return fmt.Sprintf("PayloadIndex{segment=%s, fields=%d}", p.segmentPath, len(p.cfg.IndexedFields))
}
