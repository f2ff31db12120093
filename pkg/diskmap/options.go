// Package diskmap implements the persistent, concurrent, disk-backed hash
// map engine: a fixed-width bucket table (the primary file) paired with a
// variable-size record chain file (the secondary file), composing
// pkg/mapper, pkg/record, pkg/hasher and pkg/stripelock the way
// VarSizeDiskMap.java composes its own mmap/record/lock primitives.
package diskmap

const (
	primaryFileName   = "primary"
	secondaryFileName = "secondary"

	minTableLength = 16
)

// Options configures a Map. All fields are optional; the zero value of
// Options produces sane defaults, mirroring gostonefire.NewFileHashMap's
// style of an options struct with a validated zero value rather than
// package-level constants.
type Options struct {
	// BaseFolderLocation is the directory the map's two files live in.
	// Required.
	BaseFolderLocation string

	// InitialPrimaryFileLength is the desired size, in bytes, of the
	// primary file's logical bucket table on a fresh create. It is
	// rounded up to the next power of two and interpreted as
	// (length / 8) buckets. Zero picks a small default table.
	InitialPrimaryFileLength int64

	// LoadRehashThreshold is the size/tableLength ratio above which a
	// mutating operation initiates a table-doubling rehash. Must be in
	// (0, 1]; zero picks the default.
	LoadRehashThreshold float64

	// LockStripeCount is the number of mutexes in the lock stripe. Must
	// be a positive power of two; zero picks the default. A value larger
	// than the table length found at Open is reduced to that table
	// length, so that all records of one bucket share one mutex.
	LockStripeCount int

	// Hash selects the hash function used to place keys. Defaults to
	// hasher.Murmur.
	Hash HashFunc
}

// HashFunc hashes a key to a 64-bit value. Equivalent to hasher.Func;
// declared locally so callers configuring Options don't need to import
// pkg/hasher just to pick the default.
type HashFunc func(key []byte) uint64

const defaultLoadRehashThreshold = 0.75
const defaultLockStripeCount = 256

func (o Options) withDefaults() Options {
	if o.LoadRehashThreshold <= 0 || o.LoadRehashThreshold > 1 {
		o.LoadRehashThreshold = defaultLoadRehashThreshold
	}
	if o.LockStripeCount <= 0 {
		o.LockStripeCount = defaultLockStripeCount
	}
	if o.Hash == nil {
		o.Hash = defaultHash
	}
	return o
}

// initialTableLength derives the starting bucket count from
// InitialPrimaryFileLength, rounded up to a power of two no smaller than
// minTableLength.
func (o Options) initialTableLength() uint64 {
	buckets := o.InitialPrimaryFileLength / 8
	n := uint64(minTableLength)
	for n < uint64(buckets) {
		n <<= 1
	}
	return n
}
