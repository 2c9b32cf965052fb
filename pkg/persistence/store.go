package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/3leaps/payloadindex/pkg/fieldindex"
	"github.com/3leaps/payloadindex/pkg/payload"
)

const (
	configArtifactKey   = "payload_config.json"
	fieldIndexKeyPrefix = "fields/"
	fieldIndexKeySuffix = ".idx"
)

// BuildFunc constructs the field indexes for field from scratch, streaming
// over whatever payload storage the caller wires in. Store calls it only on
// a load-miss, mirroring struct_payload_index.rs's build-on-miss path.
type BuildFunc func(ctx context.Context, field payload.Key, schemaType payload.SchemaType) ([]fieldindex.FieldIndex, error)

// Store implements IndexPersistence (spec.md §4.C): the segment-directory
// layout of one payload_config.json plus one CBOR artifact per indexed
// field, backed by a pluggable ArtifactStore.
type Store struct {
	artifacts ArtifactStore
	log       *zap.Logger
}

// NewStore wraps an ArtifactStore with the payload_config.json / fields/*.idx
// layout. log may be nil, in which case a no-op logger is used.
func NewStore(artifacts ArtifactStore, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{artifacts: artifacts, log: log}
}

func fieldIndexKey(field payload.Key) string {
	return fieldIndexKeyPrefix + string(field) + fieldIndexKeySuffix
}

// LoadConfig returns the persisted config, or a fresh default config if none
// has been saved yet (open() with no config_path.exists() in the teacher).
func (s *Store) LoadConfig(ctx context.Context) (payload.Config, bool, error) {
	data, ok, err := s.artifacts.Read(ctx, configArtifactKey)
	if err != nil {
		return payload.Config{}, false, fmt.Errorf("read payload config: %w", err)
	}
	if !ok {
		return payload.NewConfig(), false, nil
	}
	var cfg payload.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return payload.Config{}, false, fmt.Errorf("decode payload config: %w", err)
	}
	return cfg, true, nil
}

// SaveConfig persists cfg. Config is a small, human-inspectable manifest
// rather than a hot-path artifact, so it is stored as JSON rather than CBOR —
// there is no teacher or pack precedent for a binary format on a file this
// size and shape, and plain JSON keeps `payload_config.json` diffable on disk.
func (s *Store) SaveConfig(ctx context.Context, cfg payload.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode payload config: %w", err)
	}
	if err := s.artifacts.Write(ctx, configArtifactKey, data); err != nil {
		return fmt.Errorf("write payload config: %w", err)
	}
	return nil
}

// EnsureConfig loads the persisted config, or saves and returns a fresh
// default one if none exists yet.
func (s *Store) EnsureConfig(ctx context.Context) (payload.Config, error) {
	cfg, existed, err := s.LoadConfig(ctx)
	if err != nil {
		return payload.Config{}, err
	}
	if !existed {
		if err := s.SaveConfig(ctx, cfg); err != nil {
			return payload.Config{}, err
		}
	}
	return cfg, nil
}

// SaveFieldIndex persists the built indexes for field.
func (s *Store) SaveFieldIndex(ctx context.Context, field payload.Key, indexes []fieldindex.FieldIndex) error {
	bundle, err := EncodeFieldIndexes(indexes)
	if err != nil {
		return fmt.Errorf("encode field index bundle for %q: %w", field, err)
	}
	if err := s.artifacts.Write(ctx, fieldIndexKey(field), bundle); err != nil {
		return fmt.Errorf("write field index for %q: %w", field, err)
	}
	return nil
}

// LoadOrBuildFieldIndex loads field's persisted indexes, or builds and
// persists them via build on a cache miss (struct_payload_index.rs's
// load_or_build_field_index).
func (s *Store) LoadOrBuildFieldIndex(
	ctx context.Context,
	field payload.Key,
	schemaType payload.SchemaType,
	build BuildFunc,
) ([]fieldindex.FieldIndex, error) {
	key := fieldIndexKey(field)
	data, ok, err := s.artifacts.Read(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read field index for %q: %w", field, err)
	}
	if ok {
		s.log.Debug("loading field index", zap.String("field", string(field)), zap.String("artifact", key))
		indexes, decErr := DecodeFieldIndexes(data)
		if decErr != nil {
			s.log.Debug("field index artifact is corrupt, rebuilding",
				zap.String("field", string(field)), zap.Error(decErr))
		} else {
			return indexes, nil
		}
	} else {
		s.log.Debug("field index not found, building", zap.String("field", string(field)), zap.String("artifact", key))
	}

	indexes, err := build(ctx, field, schemaType)
	if err != nil {
		return nil, fmt.Errorf("build field index for %q: %w", field, err)
	}
	if err := s.SaveFieldIndex(ctx, field, indexes); err != nil {
		return nil, err
	}
	return indexes, nil
}

// DropFieldIndex removes field's persisted artifact.
func (s *Store) DropFieldIndex(ctx context.Context, field payload.Key) error {
	if err := s.artifacts.Delete(ctx, fieldIndexKey(field)); err != nil {
		return fmt.Errorf("drop field index for %q: %w", field, err)
	}
	return nil
}
