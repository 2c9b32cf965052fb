package persistence

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/3leaps/payloadindex/pkg/fieldindex"
	"github.com/3leaps/payloadindex/pkg/payload"
)

// artifactRecord is the on-disk CBOR shape of a single field-index artifact:
// a variant tag plus the raw per-point entries needed to reconstruct it.
// Rust expresses this as a tagged enum (serde's internally-tagged
// FieldIndex); cbor/v2 has no automatic equivalent, so the tag is carried
// explicitly and decoding switches on it by hand.
type artifactRecord struct {
	Variant string          `cbor:"variant"`
	Payload cbor.RawMessage `cbor:"payload"`
}

// artifactBundle wraps one field's variant records with a generation id
// stamped fresh on every rebuild, so a catalog row and its artifact can be
// correlated even when both were written by concurrent SetIndexed calls.
type artifactBundle struct {
	GenerationID string           `cbor:"generation_id"`
	Records      []artifactRecord `cbor:"records"`
}

type intEntries map[payload.PointOffsetType][]int64
type floatEntries map[payload.PointOffsetType][]float64
type keywordEntries map[payload.PointOffsetType][]string
type geoEntries map[payload.PointOffsetType][]payload.GeoPoint

// EncodeFieldIndexes serializes the full Vec<FieldIndex> builder output for
// one field into a single CBOR artifact (one record per index variant the
// field's IndexSelector produced), stamped with a fresh generation id.
func EncodeFieldIndexes(indexes []fieldindex.FieldIndex) ([]byte, error) {
	records := make([]artifactRecord, 0, len(indexes))
	for _, idx := range indexes {
		rec, err := encodeRecord(idx)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	bundle := artifactBundle{GenerationID: uuid.NewString(), Records: records}
	data, err := cbor.Marshal(bundle)
	if err != nil {
		return nil, fmt.Errorf("encode field index bundle: %w", err)
	}
	return data, nil
}

// DecodeFieldIndexes reconstructs the full Vec<FieldIndex> for one field
// from its CBOR artifact bytes.
func DecodeFieldIndexes(data []byte) ([]fieldindex.FieldIndex, error) {
	var bundle artifactBundle
	if err := cbor.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("decode field index bundle: %w", err)
	}
	out := make([]fieldindex.FieldIndex, 0, len(bundle.Records))
	for _, rec := range bundle.Records {
		idx, err := decodeRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, idx)
	}
	return out, nil
}

func encodeRecord(idx fieldindex.FieldIndex) (artifactRecord, error) {
	var payloadBytes []byte
	var err error
	switch v := idx.(type) {
	case *fieldindex.IntIndex:
		payloadBytes, err = cbor.Marshal(intEntries(v.Entries()))
	case *fieldindex.IntMapIndex:
		payloadBytes, err = cbor.Marshal(intEntries(v.Entries()))
	case *fieldindex.FloatIndex:
		payloadBytes, err = cbor.Marshal(floatEntries(v.Entries()))
	case *fieldindex.KeywordIndex:
		payloadBytes, err = cbor.Marshal(keywordEntries(v.Entries()))
	case *fieldindex.GeoIndex:
		payloadBytes, err = cbor.Marshal(geoEntries(v.Entries()))
	default:
		return artifactRecord{}, fmt.Errorf("encode field index: unsupported variant %T", idx)
	}
	if err != nil {
		return artifactRecord{}, fmt.Errorf("encode field index payload: %w", err)
	}
	return artifactRecord{Variant: idx.Variant(), Payload: payloadBytes}, nil
}

func decodeRecord(rec artifactRecord) (fieldindex.FieldIndex, error) {
	switch rec.Variant {
	case "int":
		var entries intEntries
		if err := cbor.Unmarshal(rec.Payload, &entries); err != nil {
			return nil, fmt.Errorf("decode int index payload: %w", err)
		}
		return fieldindex.IntIndexFromEntries(entries), nil
	case "int_map":
		var entries intEntries
		if err := cbor.Unmarshal(rec.Payload, &entries); err != nil {
			return nil, fmt.Errorf("decode int_map index payload: %w", err)
		}
		return fieldindex.IntMapIndexFromEntries(entries), nil
	case "float":
		var entries floatEntries
		if err := cbor.Unmarshal(rec.Payload, &entries); err != nil {
			return nil, fmt.Errorf("decode float index payload: %w", err)
		}
		return fieldindex.FloatIndexFromEntries(entries), nil
	case "keyword":
		var entries keywordEntries
		if err := cbor.Unmarshal(rec.Payload, &entries); err != nil {
			return nil, fmt.Errorf("decode keyword index payload: %w", err)
		}
		return fieldindex.KeywordIndexFromEntries(entries), nil
	case "geo":
		var entries geoEntries
		if err := cbor.Unmarshal(rec.Payload, &entries); err != nil {
			return nil, fmt.Errorf("decode geo index payload: %w", err)
		}
		return fieldindex.GeoIndexFromEntries(entries), nil
	default:
		return nil, fmt.Errorf("decode field index: unknown variant %q", rec.Variant)
	}
}
