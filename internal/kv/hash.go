package kv

import (
	"crypto/sha1"
	"encoding/binary"
	"math"
	"slices"
)

// ComputeSGUID derives the secondary key of row for an index over columns.
//
// The digest covers column values in sorted column-name order, so the
// declared column order of an index never changes its keys. Text values
// are length-prefixed; without that, ("ab","c") and ("a","bc") would
// produce the same key. Columns missing from row are skipped.
func ComputeSGUID(columns []string, row Row) GUID {
	sorted := slices.Clone(columns)
	slices.Sort(sorted)

	h := sha1.New()
	var buf [binary.MaxVarintLen64]byte
	for _, col := range sorted {
		v, ok := row[col]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case Int:
			binary.LittleEndian.PutUint64(buf[:8], uint64(val))
			h.Write(buf[:8])
		case Text:
			n := binary.PutUvarint(buf[:], uint64(len(val)))
			h.Write(buf[:n])
			h.Write([]byte(val))
		case Double:
			binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(float64(val)))
			h.Write(buf[:8])
		case GUID:
			h.Write(val[:])
		}
	}

	var g GUID
	copy(g[:], h.Sum(nil))
	return g
}

// SGUIDs computes the secondary key of row for every index, keyed by index name.
func SGUIDs(indices Indices, row Row) map[string]GUID {
	out := make(map[string]GUID, len(indices))
	for _, ix := range indices {
		out[ix.Name] = ComputeSGUID(ix.Columns, row)
	}
	return out
}
