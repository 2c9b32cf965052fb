// Package fieldindex implements the FieldIndex capability contract
// (spec.md §4.A) and the concrete per-type variants: IntIndex, IntMapIndex,
// KeywordIndex, FloatIndex, GeoIndex.
//
// These are deliberately simple data structures. spec.md carves out the
// internal algorithms of each variant as out of scope ("algorithms internal
// to each are not covered") — what matters is that each variant honors the
// capability contract below exactly.
package fieldindex

import "github.com/3leaps/payloadindex/pkg/payload"

// FieldIndex is the uniform capability surface every per-type variant
// implements (spec.md §4.A).
type FieldIndex interface {
	// Variant names which concrete implementation this is, used for the
	// tagged-union on-disk encoding (spec.md §6) and for FilterContext's
	// get_values dispatch.
	Variant() string

	// Filter returns a lazy, monotonically-producing (not necessarily
	// sorted) id stream if this variant can serve fc's condition shape;
	// ok is false otherwise. Within one variant ids are unique, but
	// duplicates may occur across variants for the same key.
	Filter(fc *payload.FieldCondition) (ids func(yield func(payload.PointOffsetType) bool), ok bool)

	// EstimateCardinality returns sound (min, exp, max) bounds over the
	// indexed subset if this variant can estimate fc; ok is false
	// otherwise.
	EstimateCardinality(fc *payload.FieldCondition) (est payload.CardinalityEstimation, ok bool)

	// CountIndexedPoints returns the number of points that had at least
	// one value for this field at build time.
	CountIndexedPoints() int

	// PayloadBlocks enumerates value clusters with at least threshold
	// points sharing a sub-condition on the given key.
	PayloadBlocks(threshold int, key payload.Key) []payload.PayloadBlockCondition

	// GetValues returns the stored values for point p, materialized as a
	// canonical payload.Value (spec.md §4.F value materialization rules),
	// or nil if p has no value in this variant.
	GetValues(p payload.PointOffsetType) (payload.Value, bool)

	// Add indexes one point's field value during a build pass. Values
	// that don't match this variant's expected shape are ignored.
	Add(p payload.PointOffsetType, value any)
}

// IDStream materializes a lazy id function into a slice. Streams are
// finite and non-restartable per spec.md §9.
func IDStream(f func(yield func(payload.PointOffsetType) bool)) []payload.PointOffsetType {
	var out []payload.PointOffsetType
	f(func(id payload.PointOffsetType) bool {
		out = append(out, id)
		return true
	})
	return out
}

func sliceIterator(s []payload.PointOffsetType) func(yield func(payload.PointOffsetType) bool) {
	return func(yield func(payload.PointOffsetType) bool) {
		for _, id := range s {
			if !yield(id) {
				return
			}
		}
	}
}
