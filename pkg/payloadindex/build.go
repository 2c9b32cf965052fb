package payloadindex

import (
	"context"
	"sync"

	"github.com/3leaps/payloadindex/pkg/fieldindex"
	"github.com/3leaps/payloadindex/pkg/indexselector"
	"github.com/3leaps/payloadindex/pkg/payload"
)

// finalizer is satisfied by field index variants (IntIndex, FloatIndex) that
// need a sort/build step once all points have been Added.
type finalizer interface {
	Finalize()
}

// buildField streams every point's value for field through PayloadStorage
// and folds it into one set of fresh index variants (struct_payload_index.rs
// build_field_index).
func (p *PayloadIndex) buildField(ctx context.Context, field payload.Key, schemaType payload.SchemaType) ([]fieldindex.FieldIndex, error) {
	builders, err := indexselector.Builders(schemaType)
	if err != nil {
		return nil, err
	}

	var buildErr error
	p.collab.PayloadStorage.IterIDs(func(id payload.PointOffsetType) bool {
		if err := ctxErr(ctx); err != nil {
			buildErr = err
			return false
		}
		v, ok := p.collab.PayloadStorage.GetValue(id, field)
		if !ok {
			return true
		}
		for _, b := range builders {
			b.Add(id, v)
		}
		return true
	})
	if buildErr != nil {
		return nil, buildErr
	}

	for _, b := range builders {
		if f, ok := b.(finalizer); ok {
			f.Finalize()
		}
	}
	return builders, nil
}

// loadAllFields loads every configured field's artifact, building it on miss
// or decode failure. Launches are paced by buildLimiter and capped at
// buildConcurrency in flight, bounding the rebuild storm a cold cache with
// many indexed fields would otherwise trigger (SPEC_FULL.md §4.H).
func (p *PayloadIndex) loadAllFields(ctx context.Context, cfg payload.Config) (map[payload.Key][]fieldindex.FieldIndex, error) {
	type result struct {
		key payload.Key
		idx []fieldindex.FieldIndex
		err error
	}

	if len(cfg.IndexedFields) == 0 {
		return map[payload.Key][]fieldindex.FieldIndex{}, nil
	}

	sem := make(chan struct{}, max(1, p.buildConcurrency))
	resCh := make(chan result, len(cfg.IndexedFields))
	var wg sync.WaitGroup

	for key, schemaType := range cfg.IndexedFields {
		key, schemaType := key, schemaType
		if err := p.buildLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			idx, err := p.store.LoadOrBuildFieldIndex(ctx, key, schemaType, p.buildField)
			resCh <- result{key: key, idx: idx, err: err}
		}()
	}
	wg.Wait()
	close(resCh)

	out := make(map[payload.Key][]fieldindex.FieldIndex, len(cfg.IndexedFields))
	for r := range resCh {
		if r.err != nil {
			return nil, r.err
		}
		out[r.key] = r.idx
	}
	return out, nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
