package store

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/gob"
	"fmt"
)

// encode serialises a record as gzip-compressed gob.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer

	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(v); err != nil {
		gz.Close()
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip: %w", err)
	}
	return buf.Bytes(), nil
}

// decode is the inverse of encode.
func decode(data []byte, v any) error {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gr.Close()

	if err := gob.NewDecoder(gr).Decode(v); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}

// itob encodes an id as an 8-byte big-endian key so byte order matches
// numeric order.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func btoi(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

// childKey is parent(8) | child(8), used for rows owned by a glyph set or
// experiment so that a prefix scan yields all of them in insertion order.
func childKey(parent, child uint64) []byte {
	k := make([]byte, 16)
	binary.BigEndian.PutUint64(k, parent)
	binary.BigEndian.PutUint64(k[8:], child)
	return k
}

// soundKey is metric | 0 | char1(4) | char2(4).
func soundKey(metric string, c1, c2 rune) []byte {
	k := make([]byte, 0, len(metric)+9)
	k = append(k, metric...)
	k = append(k, 0)
	k = binary.BigEndian.AppendUint32(k, uint32(c1))
	k = binary.BigEndian.AppendUint32(k, uint32(c2))
	return k
}

// correlationKey is glyphSet(8) | shapeMetric | 0 | soundMetric.
func correlationKey(glyphSetID uint64, shapeMetric, soundMetric string) []byte {
	k := itob(glyphSetID)
	k = append(k, shapeMetric...)
	k = append(k, 0)
	k = append(k, soundMetric...)
	return k
}
