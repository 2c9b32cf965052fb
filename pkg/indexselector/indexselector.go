// Package indexselector maps a declared PayloadSchemaType to the ordered
// set of FieldIndex variants that should be built for it (spec.md §4.B).
package indexselector

import (
	"fmt"

	"github.com/3leaps/payloadindex/pkg/fieldindex"
	"github.com/3leaps/payloadindex/pkg/payload"
)

// Builders returns the ordered, freshly-constructed set of FieldIndex
// variants appropriate for schemaType. The ordering fixes which variant
// wins ties during planning (spec.md §4.B): for Integer, range (IntIndex)
// is tried before exact-match (IntMapIndex).
func Builders(schemaType payload.SchemaType) ([]fieldindex.FieldIndex, error) {
	switch schemaType {
	case payload.SchemaInteger:
		return []fieldindex.FieldIndex{
			fieldindex.NewIntIndex(),
			fieldindex.NewIntMapIndex(),
		}, nil
	case payload.SchemaFloat:
		return []fieldindex.FieldIndex{
			fieldindex.NewFloatIndex(),
		}, nil
	case payload.SchemaKeyword:
		return []fieldindex.FieldIndex{
			fieldindex.NewKeywordIndex(),
		}, nil
	case payload.SchemaGeo:
		return []fieldindex.FieldIndex{
			fieldindex.NewGeoIndex(),
		}, nil
	default:
		return nil, fmt.Errorf("indexselector: unsupported schema type %q", schemaType)
	}
}
