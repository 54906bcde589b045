package kv

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// GUIDSize is the width of a GUID in bytes (160 bits, the SHA-1 digest size).
const GUIDSize = 20

// GUIDColumn is the implicit primary-key column present in every table.
const GUIDColumn = "GUID"

// GUID is a fixed-width opaque identifier.
//
// Primary rows get random GUIDs; secondary-index keys are SHA-1 digests of
// the indexed column values (see ComputeSGUID). GUIDs are totally ordered
// by their raw bytes, which is the order the storage rings iterate in.
type GUID [GUIDSize]byte

func (GUID) value() {}

// Kind implements Value.
func (GUID) Kind() Kind { return KindGUID }

// MaxGUID is the largest GUID in ring order.
var MaxGUID = func() GUID {
	var g GUID
	for i := range g {
		g[i] = 0xff
	}
	return g
}()

// NewRandomGUID returns a GUID read from the system CSPRNG.
// Panics if the random source fails, which never happens on supported platforms.
func NewRandomGUID() GUID {
	var g GUID
	if _, err := rand.Read(g[:]); err != nil {
		panic(fmt.Sprintf("kv: random GUID: %v", err))
	}
	return g
}

// GUIDFromInt stores v little-endian in the first 8 bytes of a zero GUID.
func GUIDFromInt(v int64) GUID {
	var g GUID
	binary.LittleEndian.PutUint64(g[:8], uint64(v))
	return g
}

// Int returns the little-endian integer held in the first 8 bytes.
func (g GUID) Int() int64 {
	return int64(binary.LittleEndian.Uint64(g[:8]))
}

// Compare orders GUIDs by raw bytes. Returns -1, 0 or +1.
func (g GUID) Compare(other GUID) int {
	return bytes.Compare(g[:], other[:])
}

// Less reports whether g sorts before other.
func (g GUID) Less(other GUID) bool {
	return g.Compare(other) < 0
}

// IsZero reports whether every byte is zero.
func (g GUID) IsZero() bool {
	return g == GUID{}
}

// String renders the GUID as 40 lowercase hex digits.
func (g GUID) String() string {
	return hex.EncodeToString(g[:])
}

// MarshalText implements encoding.TextMarshaler.
func (g GUID) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *GUID) UnmarshalText(text []byte) error {
	parsed, err := ParseGUID(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// ParseGUID parses the 40-digit hex form produced by String.
func ParseGUID(s string) (GUID, error) {
	var g GUID
	if len(s) != 2*GUIDSize {
		return g, fmt.Errorf("parse GUID %q: want %d hex digits, got %d", s, 2*GUIDSize, len(s))
	}
	if _, err := hex.Decode(g[:], []byte(s)); err != nil {
		return g, fmt.Errorf("parse GUID %q: %w", s, err)
	}
	return g, nil
}
