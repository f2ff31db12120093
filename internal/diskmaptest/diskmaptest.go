// Package diskmaptest holds test-only helpers shared across pkg/diskmap's
// and pkg/typedmap's tests, in the spirit of the
// teacher's test/utils package (GetTempDbFile, GenerateRandomKeyValuePairs).
// EnsureCleanup is this module's own; the teacher's test files call it but
// no definition of it exists anywhere in that repo's tree, so the
// straightforward t.Cleanup wrapper below is original rather than ported.
package diskmaptest

import (
	"math/rand"
	"os"
	"testing"

	"github.com/Valmach/HashMapper/pkg/diskmap"
)

// Salt is a random value in [1, 1000] chosen once per test binary. No
// helper in this package applies it to the data it generates.
var Salt int64 = rand.Int63n(1000) + 1

// EnsureCleanup registers fn to run when t completes, regardless of
// whether t passed, failed, or panicked.
func EnsureCleanup(t *testing.T, fn func()) {
	t.Cleanup(fn)
}

// TempDir creates a fresh directory for a diskmap.Map's backing files
// and arranges for it to be removed once the test finishes.
func TempDir(t *testing.T) string {
	dir, err := os.MkdirTemp("", "diskmap-*")
	if err != nil {
		t.Fatal(err)
	}
	EnsureCleanup(t, func() {
		_ = os.RemoveAll(dir)
	})
	return dir
}

// OpenTemp opens a diskmap.Map rooted at a fresh temporary directory,
// applying opts on top of it, and arranges for the map to be closed and
// its directory removed once the test finishes.
func OpenTemp(t *testing.T, opts diskmap.Options) *diskmap.Map {
	opts.BaseFolderLocation = TempDir(t)
	m, err := diskmap.Open(opts)
	if err != nil {
		t.Fatal(err)
	}
	EnsureCleanup(t, func() {
		_ = m.Close()
	})
	return m
}

// KeyValuePair is a pair of byte-string key and value, as produced by
// GenerateRandomKeyValuePairs.
type KeyValuePair struct {
	Key []byte
	Val []byte
}

// GenerateRandomKeyValuePairs generates n random key-value pairs with
// unique keys, each key and value 8 bytes long. Returns the pairs in
// generation order alongside a map from string(key) to string(val) an
// assertion can check against.
func GenerateRandomKeyValuePairs(n int) ([]KeyValuePair, map[string]string) {
	pairs := make([]KeyValuePair, n)
	answerKey := make(map[string]string, n)
	for i := 0; i < n; i++ {
		var key []byte
		for {
			key = randomBytes(8)
			if _, exists := answerKey[string(key)]; !exists {
				break
			}
		}
		val := randomBytes(8)
		answerKey[string(key)] = string(val)
		pairs[i] = KeyValuePair{Key: key, Val: val}
	}
	return pairs, answerKey
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(rand.Intn(256))
	}
	return b
}
