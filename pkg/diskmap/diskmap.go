package diskmap

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/Valmach/HashMapper/pkg/hasher"
	"github.com/Valmach/HashMapper/pkg/mapper"
	"github.com/Valmach/HashMapper/pkg/record"
	"github.com/Valmach/HashMapper/pkg/stripelock"
)

func defaultHash(key []byte) uint64 { return hasher.Murmur(key) }

// Map is the byte-level, disk-backed hash map engine described by
// SPEC_FULL.md §4.5: a primary bucket table and a secondary record
// chain file, guarded by a fixed lock stripe, with an amortized
// incremental rehash driven by every mutating operation.
//
// Ported directly from VarSizeDiskMap.java's operation bodies; the
// striped-monitor-per-bucket locking becomes a fixed []sync.Mutex
// (pkg/stripelock) and the mmap'd RandomAccessFile becomes
// pkg/mapper's mmap-go-backed region.
type Map struct {
	dir       string
	primary   *mapper.Mapper
	secondary *mapper.Mapper
	stripe    *stripelock.Stripe
	hash      HashFunc

	loadRehashThreshold float64

	size              atomic.Uint64
	tableLength       atomic.Uint64
	secondaryWritePos atomic.Int64
	rehashComplete    atomic.Uint64
	rehashing         atomic.Bool

	// rehashMu serializes the steady->rehashing transition and every
	// amortized step's dispense-and-split, per SPEC_FULL.md §4.6
	// ("rehash-initiate lock"), so steps run one at a time.
	rehashMu sync.Mutex

	closed atomic.Bool
}

// Open creates or opens a disk-backed map rooted at
// opts.BaseFolderLocation, creating the directory and both backing
// files if they don't already exist. If a prior rehash was left
// mid-flight (SPEC_FULL.md §4.6's crash/reopen resumption rule), Open
// drains it before returning.
func Open(opts Options) (*Map, error) {
	if opts.BaseFolderLocation == "" {
		return nil, &UsageError{Reason: "BaseFolderLocation is required"}
	}
	opts = opts.withDefaults()

	if err := os.MkdirAll(opts.BaseFolderLocation, 0o755); err != nil {
		return nil, fmt.Errorf("diskmap: create base folder: %w", err)
	}

	initialTableLength := opts.initialTableLength()

	primary, err := mapper.Open(filepath.Join(opts.BaseFolderLocation, primaryFileName), int64(initialTableLength)*8)
	if err != nil {
		return nil, fmt.Errorf("diskmap: open primary: %w", err)
	}
	secondary, err := mapper.Open(filepath.Join(opts.BaseFolderLocation, secondaryFileName), headerSize)
	if err != nil {
		_ = primary.Close()
		return nil, fmt.Errorf("diskmap: open secondary: %w", err)
	}

	m := &Map{
		dir:                 opts.BaseFolderLocation,
		primary:             primary,
		secondary:           secondary,
		stripe:              stripelock.New(opts.LockStripeCount),
		hash:                opts.Hash,
		loadRehashThreshold: opts.LoadRehashThreshold,
	}

	m.readHeader()

	fresh := m.tableLength.Load() == 0 && m.secondaryWritePos.Load() == 0 &&
		m.size.Load() == 0 && m.rehashComplete.Load() == 0
	if fresh {
		// A brand-new pair of files: the spec's fallback of deriving
		// tableLength from the primary file's physical byte length
		// is unreliable here because pkg/mapper rounds file size up
		// to amortize future grows, so the configured table length is
		// persisted explicitly instead. See DESIGN.md's Open Question
		// decisions.
		m.tableLength.Store(initialTableLength)
		m.secondaryWritePos.Store(headerSize)
		m.writeHeader()
	} else if m.tableLength.Load() == 0 {
		m.tableLength.Store(uint64(m.primary.Size() / 8))
		if m.tableLength.Load() == 0 {
			m.tableLength.Store(minTableLength)
		}
	}
	if m.secondaryWritePos.Load() == 0 {
		m.secondaryWritePos.Store(headerSize)
	}

	if err := primary.Grow(int64(m.tableLength.Load()) * 8); err != nil {
		_ = secondary.Close()
		_ = primary.Close()
		return nil, fmt.Errorf("diskmap: grow primary to table length: %w", err)
	}

	// Resume a rehash that was in progress when the map was last closed
	// (or crashed) before accepting any new operations.
	for m.rehashing.Load() {
		m.stepRehash()
	}

	// Cap the stripe at the table length so that every record of a
	// bucket selects the same mutex. The table only ever doubles, so the
	// cap keeps holding as it grows.
	if tableLength := m.tableLength.Load(); uint64(opts.LockStripeCount) > tableLength {
		m.stripe = stripelock.New(int(tableLength))
	}

	return m, nil
}

// Size returns the number of live entries.
func (m *Map) Size() uint64 {
	return m.size.Load()
}

func (m *Map) idxToPos(idx uint64) int64 {
	return int64(idx) * 8
}

func (m *Map) primaryGet(idx uint64) int64 {
	return int64(m.primary.GetLong(m.idxToPos(idx)))
}

func (m *Map) primaryPut(idx uint64, pos int64) {
	m.primary.PutLong(m.idxToPos(idx), uint64(pos))
}

// readRecord loads the record chain node at pos from the secondary
// file. Per SPEC_FULL.md §7, any position outside the allocated range
// is fatal corruption rather than a value to silently read through.
func (m *Map) readRecord(pos int64) *record.Node {
	if pos < headerSize || pos >= m.secondaryWritePos.Load() {
		panic(&CorruptionError{Reason: fmt.Sprintf(
			"record position %d outside allocated range [%d, %d)",
			pos, headerSize, m.secondaryWritePos.Load())})
	}
	return record.Read(m.secondary, pos)
}

// allocate bumps the shared write cursor by size bytes and grows the
// secondary mapping if the new cursor position exceeds it. Per
// SPEC_FULL.md §4.4, this may run outside the bucket stripe lock: the
// allocated bytes are unreachable garbage until their position is
// published into a chain pointer or bucket slot.
func (m *Map) allocate(size int64) (int64, error) {
	newPos := m.secondaryWritePos.Add(size)
	oldPos := newPos - size
	if newPos > m.secondary.Size() {
		if err := m.secondary.Grow(newPos); err != nil {
			return 0, fmt.Errorf("diskmap: grow secondary: %w", err)
		}
	}
	return oldPos, nil
}

// Get is the byte-level get operation (SPEC_FULL.md §4.5). It performs
// no rehash work; when a rehash is in progress and the target bucket
// hasn't been split yet, it reads through the pre-split (old table
// length) bucket instead of mutating state to force a split.
func (m *Map) Get(key []byte) (val []byte, ok bool) {
	hash := m.hash(key)

	m.stripe.Lock(hash)
	defer m.stripe.Unlock(hash)

	idx := m.readIdxForGet(hash)
	pos := m.primaryGet(idx)
	if pos == 0 {
		return nil, false
	}

	node := m.readRecord(pos)
	for {
		if node.KeyEquals(hash, key) {
			return node.Val, true
		}
		if node.NextRecordPos == 0 {
			return nil, false
		}
		node = m.readRecord(int64(node.NextRecordPos))
	}
}

// readIdxForGet picks the correct bucket index for a read given the
// current (possibly mid-rehash) table state, without driving any
// rehash work itself.
func (m *Map) readIdxForGet(hash uint64) uint64 {
	tableLength := m.tableLength.Load()
	idx := hasher.IndexFor(hash, tableLength)
	if !m.rehashing.Load() {
		return idx
	}
	oldTableLength := tableLength / 2
	oldIdx := hasher.IndexFor(hash, oldTableLength)
	if oldIdx >= m.rehashComplete.Load() {
		// Not split yet: both halves of the new table are still
		// co-located under the pre-split bucket.
		return oldIdx
	}
	return idx
}

// beforeMutate runs the amortized rehash machinery a mutating
// operation must drive before touching its target bucket: it triggers
// a fresh rehash if the load factor warrants one, performs one rehash
// step if a rehash is in progress, then ensures the specific bucket this
// operation will use has already been split (per SPEC_FULL.md §4.6's
// "rehash the partner bucket before operating on it" rule), driving
// additional steps as needed. Returns the resolved bucket index for hash.
func (m *Map) beforeMutate(hash uint64) uint64 {
	m.maybeInitiateRehash()
	m.stepRehash()

	for {
		tableLength := m.tableLength.Load()
		idx := hasher.IndexFor(hash, tableLength)
		if !m.rehashing.Load() {
			return idx
		}
		oldTableLength := tableLength / 2
		if oldTableLength == 0 {
			return idx
		}
		partner := idx
		if idx >= oldTableLength {
			partner = idx - oldTableLength
		}
		if partner < m.rehashComplete.Load() {
			// Partner bucket already split; idx is valid as-is.
			return idx
		}
		// Drive one step forward and recheck; stepRehash always makes
		// progress on rehashComplete or clears rehashing entirely.
		if !m.stepRehash() {
			return idx
		}
	}
}

// Put implements the byte-level put(k, v) operation (§4.5, §6).
func (m *Map) Put(key, val []byte) (prev []byte, hadPrev bool) {
	hash := m.hash(key)
	idx := m.beforeMutate(hash)

	node := record.New(hash, 0, key, val)
	insertPos, err := m.allocate(node.OnDiskSize())
	if err != nil {
		panic(err)
	}

	m.stripe.Lock(hash)
	defer m.stripe.Unlock(hash)

	pos := m.primaryGet(idx)
	if pos == 0 {
		record.Write(m.secondary, insertPos, node)
		m.primaryPut(idx, insertPos)
		m.incrementSize()
		return nil, false
	}

	cur := m.readRecord(pos)
	var prevNode *record.Node
	for {
		if cur.KeyEquals(hash, key) {
			node.NextRecordPos = cur.NextRecordPos
			record.Write(m.secondary, insertPos, node)
			if prevNode == nil {
				m.primaryPut(idx, insertPos)
			} else {
				record.SetNextRecordPos(m.secondary, prevNode.Pos, uint64(insertPos))
			}
			return cur.Val, true
		}
		if cur.NextRecordPos != 0 {
			prevNode = cur
			cur = m.readRecord(int64(cur.NextRecordPos))
			continue
		}
		record.Write(m.secondary, insertPos, node)
		record.SetNextRecordPos(m.secondary, cur.Pos, uint64(insertPos))
		m.incrementSize()
		return nil, false
	}
}

// PutIfAbsent implements putIfAbsent(k, v).
func (m *Map) PutIfAbsent(key, val []byte) (prev []byte, hadPrev bool) {
	hash := m.hash(key)
	idx := m.beforeMutate(hash)

	m.stripe.Lock(hash)
	defer m.stripe.Unlock(hash)

	pos := m.primaryGet(idx)

	node := record.New(hash, 0, key, val)
	if pos == 0 {
		insertPos, err := m.allocate(node.OnDiskSize())
		if err != nil {
			panic(err)
		}
		record.Write(m.secondary, insertPos, node)
		m.primaryPut(idx, insertPos)
		m.incrementSize()
		return nil, false
	}

	cur := m.readRecord(pos)
	for {
		if cur.KeyEquals(hash, key) {
			return cur.Val, true
		}
		if cur.NextRecordPos != 0 {
			cur = m.readRecord(int64(cur.NextRecordPos))
			continue
		}
		insertPos, err := m.allocate(node.OnDiskSize())
		if err != nil {
			panic(err)
		}
		record.Write(m.secondary, insertPos, node)
		record.SetNextRecordPos(m.secondary, cur.Pos, uint64(insertPos))
		m.incrementSize()
		return nil, false
	}
}

// Remove implements remove(k).
func (m *Map) Remove(key []byte) (prev []byte, hadPrev bool) {
	hash := m.hash(key)
	idx := m.beforeMutate(hash)

	m.stripe.Lock(hash)
	defer m.stripe.Unlock(hash)

	pos := m.primaryGet(idx)
	if pos == 0 {
		return nil, false
	}

	cur := m.readRecord(pos)
	var prevNode *record.Node
	for {
		if cur.KeyEquals(hash, key) {
			if prevNode == nil {
				m.primaryPut(idx, int64(cur.NextRecordPos))
			} else {
				record.SetNextRecordPos(m.secondary, prevNode.Pos, cur.NextRecordPos)
			}
			m.decrementSize()
			return cur.Val, true
		}
		if cur.NextRecordPos == 0 {
			return nil, false
		}
		prevNode = cur
		cur = m.readRecord(int64(cur.NextRecordPos))
	}
}

// RemoveIf implements the conditional remove(k, v): removal only
// succeeds if the current value equals v.
func (m *Map) RemoveIf(key, val []byte) bool {
	hash := m.hash(key)
	idx := m.beforeMutate(hash)

	m.stripe.Lock(hash)
	defer m.stripe.Unlock(hash)

	pos := m.primaryGet(idx)
	if pos == 0 {
		return false
	}

	cur := m.readRecord(pos)
	var prevNode *record.Node
	for {
		if cur.KeyEquals(hash, key) && bytes.Equal(cur.Val, val) {
			if prevNode == nil {
				m.primaryPut(idx, int64(cur.NextRecordPos))
			} else {
				record.SetNextRecordPos(m.secondary, prevNode.Pos, cur.NextRecordPos)
			}
			m.decrementSize()
			return true
		}
		if cur.NextRecordPos == 0 {
			return false
		}
		prevNode = cur
		cur = m.readRecord(int64(cur.NextRecordPos))
	}
}

// Replace implements replace(k, v): only writes if k is already
// present, returning the value it replaced.
func (m *Map) Replace(key, val []byte) (prev []byte, hadPrev bool) {
	hash := m.hash(key)
	idx := m.beforeMutate(hash)

	m.stripe.Lock(hash)
	defer m.stripe.Unlock(hash)

	pos := m.primaryGet(idx)
	if pos == 0 {
		return nil, false
	}

	cur := m.readRecord(pos)
	var prevNode *record.Node
	for {
		if cur.KeyEquals(hash, key) {
			node := record.New(hash, cur.NextRecordPos, key, val)
			insertPos, err := m.allocate(node.OnDiskSize())
			if err != nil {
				panic(err)
			}
			record.Write(m.secondary, insertPos, node)
			if prevNode == nil {
				m.primaryPut(idx, insertPos)
			} else {
				record.SetNextRecordPos(m.secondary, prevNode.Pos, uint64(insertPos))
			}
			return cur.Val, true
		}
		if cur.NextRecordPos == 0 {
			return nil, false
		}
		prevNode = cur
		cur = m.readRecord(int64(cur.NextRecordPos))
	}
}

// ReplaceIf implements the conditional replace(k, oldV, newV).
func (m *Map) ReplaceIf(key, oldVal, newVal []byte) bool {
	hash := m.hash(key)
	idx := m.beforeMutate(hash)

	m.stripe.Lock(hash)
	defer m.stripe.Unlock(hash)

	pos := m.primaryGet(idx)
	if pos == 0 {
		return false
	}

	cur := m.readRecord(pos)
	var prevNode *record.Node
	for {
		if cur.KeyEquals(hash, key) && bytes.Equal(cur.Val, oldVal) {
			node := record.New(hash, cur.NextRecordPos, key, newVal)
			insertPos, err := m.allocate(node.OnDiskSize())
			if err != nil {
				panic(err)
			}
			record.Write(m.secondary, insertPos, node)
			if prevNode == nil {
				m.primaryPut(idx, insertPos)
			} else {
				record.SetNextRecordPos(m.secondary, prevNode.Pos, uint64(insertPos))
			}
			return true
		}
		if cur.NextRecordPos == 0 {
			return false
		}
		prevNode = cur
		cur = m.readRecord(int64(cur.NextRecordPos))
	}
}

func (m *Map) incrementSize() {
	m.size.Add(1)
	m.secondary.PutLong(sizeOffset, m.size.Load())
}

func (m *Map) decrementSize() {
	m.size.Add(^uint64(0))
	m.secondary.PutLong(sizeOffset, m.size.Load())
}

// Close flushes the header and unmaps both backing files.
func (m *Map) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	m.writeHeader()
	if err := m.secondary.Close(); err != nil {
		return err
	}
	return m.primary.Close()
}

// Delete closes the map and removes both backing files and the base
// directory if it is left empty.
func (m *Map) Delete() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := m.secondary.Delete(); err != nil {
		return err
	}
	if err := m.primary.Delete(); err != nil {
		return err
	}
	return os.Remove(m.dir)
}
