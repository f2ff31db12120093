package diskmap

import (
	"github.com/Valmach/HashMapper/pkg/cursor"
	"github.com/Valmach/HashMapper/pkg/record"
)

// Iterator produces an unsynchronized, finite walk over every
// reachable (key, value) pair in the map. Per SPEC_FULL.md §4.5/§5 it
// takes no locks itself; the caller must ensure no concurrent mutation
// for the walk to be meaningful, though no single key/value pair can
// ever be torn because records are append-only and never rewritten
// except for their nextRecordPos field.
//
// Ported from VarSizeDiskMap.java's anonymous Iterator: the
// (nextIdx, nextAddr, finished) state machine and advance() step are
// carried over verbatim, generalized to Go's Next()/pull style instead
// of Java's hasNext()/next().
type Iterator struct {
	m        *Map
	nextIdx  uint64
	nextAddr int64
	finished bool

	key []byte
	val []byte
}

// NewIterator starts a walk over m's entries. Not safe to use
// concurrently with mutating operations on m.
func NewIterator(m *Map) *Iterator {
	it := &Iterator{m: m, finished: true}
	tableLength := m.tableLength.Load()
	for it.nextIdx = 0; it.nextIdx < tableLength; it.nextIdx++ {
		addr := m.primaryGet(it.nextIdx)
		if addr != 0 {
			it.nextAddr = addr
			it.finished = false
			break
		}
	}
	return it
}

// Next advances the iterator and reports whether a pair is available.
// Call Key/Val to read it.
func (it *Iterator) Next() bool {
	if it.finished {
		return false
	}
	node := it.m.readRecord(it.nextAddr)
	it.key, it.val = node.Key, node.Val
	it.advance(node)
	return true
}

// Key returns the key of the pair produced by the most recent Next.
func (it *Iterator) Key() []byte { return it.key }

// Val returns the value of the pair produced by the most recent Next.
func (it *Iterator) Val() []byte { return it.val }

// GetEntry returns the pair produced by the most recent Next, so
// Iterator satisfies pkg/cursor.Cursor directly.
func (it *Iterator) GetEntry() (cursor.KV, error) {
	return cursor.KV{Key: it.key, Val: it.val}, nil
}

// Remove is not supported; per SPEC_FULL.md §4.5/§7 it could corrupt
// the map rather than merely fail, so it is refused outright.
func (it *Iterator) Remove() error {
	return ErrIteratorRemoveUnsupported
}

// Close releases no resources; it exists so Iterator satisfies the
// pkg/cursor.Cursor shape used elsewhere in this module.
func (it *Iterator) Close() {}

func (it *Iterator) advance(node *record.Node) {
	if node.NextRecordPos != 0 {
		it.nextAddr = int64(node.NextRecordPos)
		it.finished = false
		return
	}
	tableLength := it.m.tableLength.Load()
	for it.nextIdx = it.nextIdx + 1; it.nextIdx < tableLength; it.nextIdx++ {
		addr := it.m.primaryGet(it.nextIdx)
		if addr != 0 {
			it.nextAddr = addr
			it.finished = false
			return
		}
	}
	it.finished = true
}
