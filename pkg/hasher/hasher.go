// Package hasher provides the pluggable 64-bit hash functions used to
// locate a key's bucket and to tag records for fast chain filtering and
// rehash reassignment.
package hasher

import (
	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
)

// Func hashes a key to a 64-bit value. Implementations must be stable:
// the same input always produces the same output, including across
// process restarts, since hashes are persisted inside record chain nodes.
type Func func(key []byte) uint64

// Murmur hashes with MurmurHash3 (x64, 128-bit variant truncated to its
// first 64 bits by the underlying library). This is the default algorithm.
func Murmur(key []byte) uint64 {
	return murmur3.Sum64(key)
}

// XXHash hashes with xxHash64, offered as a faster alternative on inputs
// where Murmur's extra mixing isn't needed.
func XXHash(key []byte) uint64 {
	return xxhash.Sum64(key)
}

// IndexFor returns the bucket index a hash maps to in a table of the
// given length. tableLength must be a power of two.
func IndexFor(hash uint64, tableLength uint64) uint64 {
	return hash & (tableLength - 1)
}
