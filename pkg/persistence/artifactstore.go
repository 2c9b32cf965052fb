// Package persistence implements IndexPersistence (spec.md §4.C): the
// on-disk layout rooted at a segment directory — payload_config.json plus
// one CBOR artifact per indexed field under fields/<key>.idx — and
// load-or-build-on-miss semantics.
package persistence

import "context"

// ArtifactStore abstracts the byte-level storage backend IndexPersistence
// writes segment artifacts to (spec.md §4.J expansion): a local filesystem
// by default, or an S3-compatible bucket for segments mirrored to durable
// object storage.
type ArtifactStore interface {
	// Read returns the bytes stored at key, or ok=false if key is absent.
	Read(ctx context.Context, key string) (data []byte, ok bool, err error)
	// Write stores data at key, creating any needed parent structure.
	Write(ctx context.Context, key string, data []byte) error
	// Delete removes key. It is not an error if key is already absent.
	Delete(ctx context.Context, key string) error
}
