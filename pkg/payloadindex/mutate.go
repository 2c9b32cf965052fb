package payloadindex

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/3leaps/payloadindex/internal/observability"
	"github.com/3leaps/payloadindex/pkg/payload"
)

func zapErrField(err error) zap.Field { return zap.Error(err) }

// SetIndexed builds (or rebuilds, if schemaType changed) the field index for
// key and persists it, following struct_payload_index.rs's set_indexed: the
// config is saved before the artifact so a crash between the two steps is
// recoverable by rebuilding on next open, never leaves a config entry
// pointing at a missing artifact silently accepted (spec.md §4.G,
// property 5 — idempotent no-op when already indexed with the same type).
func (p *PayloadIndex) SetIndexed(ctx context.Context, key payload.Key, schemaType payload.SchemaType) error {
	p.mu.Lock()
	if existing, ok := p.cfg.IndexedFields[key]; ok && existing == schemaType {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	buildID := uuid.New().String()
	startedAt := p.now()
	p.catalogRecordStart(ctx, buildID, key, schemaType, startedAt)

	p.mu.Lock()
	newCfg := p.cfg.Clone()
	newCfg.IndexedFields[key] = schemaType
	p.mu.Unlock()

	if err := p.store.SaveConfig(ctx, newCfg); err != nil {
		p.catalogRecordFinish(ctx, buildID, 0, err)
		return observability.PersistenceError("save payload config", err)
	}

	indexes, err := p.buildField(ctx, key, schemaType)
	if err != nil {
		p.catalogRecordFinish(ctx, buildID, 0, err)
		return observability.PersistenceError("build field index", err)
	}
	if err := p.store.SaveFieldIndex(ctx, key, indexes); err != nil {
		p.catalogRecordFinish(ctx, buildID, 0, err)
		return observability.PersistenceError("save field index artifact", err)
	}

	indexed := 0
	for _, idx := range indexes {
		if n := idx.CountIndexedPoints(); n > indexed {
			indexed = n
		}
	}
	p.catalogRecordFinish(ctx, buildID, indexed, nil)

	p.mu.Lock()
	p.cfg = newCfg
	p.fieldIndexes[key] = indexes
	p.mu.Unlock()

	return nil
}

// DropIndex removes key's index, its artifact, and its config entry. A
// missing key is a no-op (spec.md §7 UnknownField), matching
// struct_payload_index.rs's drop_index.
func (p *PayloadIndex) DropIndex(ctx context.Context, key payload.Key) error {
	p.mu.Lock()
	if _, ok := p.cfg.IndexedFields[key]; !ok {
		p.mu.Unlock()
		return nil
	}
	newCfg := p.cfg.Clone()
	delete(newCfg.IndexedFields, key)
	p.mu.Unlock()

	if err := p.store.SaveConfig(ctx, newCfg); err != nil {
		return observability.PersistenceError("save payload config", err)
	}
	if err := p.store.DropFieldIndex(ctx, key); err != nil {
		return observability.PersistenceError("drop field index artifact", err)
	}

	p.mu.Lock()
	p.cfg = newCfg
	delete(p.fieldIndexes, key)
	p.mu.Unlock()

	return nil
}

func (p *PayloadIndex) now() time.Time { return time.Now() }

func (p *PayloadIndex) catalogRecordStart(ctx context.Context, buildID string, key payload.Key, schemaType payload.SchemaType, startedAt time.Time) {
	if p.catalog == nil {
		return
	}
	if err := p.catalog.RecordBuildStart(ctx, buildID, p.segmentPath, string(key), string(schemaType), "", startedAt); err != nil {
		p.log.Warn("catalog record build start failed", zapErrField(err))
	}
}

func (p *PayloadIndex) catalogRecordFinish(ctx context.Context, buildID string, indexedPoints int, buildErr error) {
	if p.catalog == nil {
		return
	}
	if err := p.catalog.RecordBuildFinish(ctx, buildID, indexedPoints, p.now(), buildErr); err != nil {
		p.log.Warn("catalog record build finish failed", zapErrField(err))
	}
}
