// Package serde provides the byte codecs the typed wrapper (pkg/typedmap)
// needs to turn application-level keys and values into the opaque byte
// strings pkg/diskmap stores. Grounded on TestDiskMap.java's
// IntSerde.getInstance() usage.
package serde

import (
	"encoding/binary"
	"fmt"
)

// Codec encodes a Go value of type T to bytes and back.
type Codec[T any] struct {
	Encode func(T) []byte
	Decode func([]byte) (T, error)
}

// Int64Codec encodes int64s as 8-byte big-endian integers, mirroring
// the original's IntSerde fixed-width integer encoding.
var Int64Codec = Codec[int64]{
	Encode: func(v int64) []byte {
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(v))
		return buf
	},
	Decode: func(b []byte) (int64, error) {
		if len(b) != 8 {
			return 0, fmt.Errorf("serde: int64 codec expects 8 bytes, got %d", len(b))
		}
		return int64(binary.BigEndian.Uint64(b)), nil
	},
}

// StringCodec encodes strings as their raw UTF-8 bytes.
var StringCodec = Codec[string]{
	Encode: func(v string) []byte { return []byte(v) },
	Decode: func(b []byte) (string, error) { return string(b), nil },
}
