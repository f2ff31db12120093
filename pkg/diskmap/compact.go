package diskmap

import (
	"fmt"
	"os"

	"github.com/bits-and-blooms/bitset"
	"github.com/otiai10/copy"
)

// GarbageReport summarizes how much of the secondary file's allocated
// space is still reachable from the primary table versus dead from
// in-place record superseding (every Put/Replace leaves its old node's
// bytes behind rather than reclaiming them).
type GarbageReport struct {
	AllocatedBytes int64
	ReachableBytes int64
	ReachableNodes uint64
}

// VerifyGarbage walks every bucket chain, marking each reachable node's
// byte range in a bitset sized to the secondary write cursor, then reports how
// much of the allocated region is live versus garbage. It takes no
// locks; callers should hold the map quiescent (e.g. via Compact, or by
// being the only writer) for a meaningful result.
func (m *Map) VerifyGarbage() GarbageReport {
	allocated := m.secondaryWritePos.Load()
	reachable := bitset.New(uint(allocated))

	var report GarbageReport
	tableLength := m.tableLength.Load()
	for idx := uint64(0); idx < tableLength; idx++ {
		pos := m.primaryGet(idx)
		for pos != 0 {
			node := m.readRecord(pos)
			size := node.OnDiskSize()
			for b := pos; b < pos+size; b++ {
				reachable.Set(uint(b))
			}
			report.ReachableBytes += size
			report.ReachableNodes++
			pos = int64(node.NextRecordPos)
		}
	}
	report.AllocatedBytes = allocated - headerSize
	return report
}

// Compact rewrites this map into a fresh pair of backing files
// containing only the live entries, tightly packed, then replaces the
// base folder's contents with the rewritten files by renaming the live
// folder aside and copying the rewritten files into its place; the swap
// is not atomic. It returns a *Map open on the compacted data; the
// receiver is closed and its files deleted as part of the swap.
//
// Grounded on pkg/recovery's snapshot-then-swap-directory pattern
// (copy.Copy into a staging folder, then move it over the live one),
// generalized here to a rewrite-then-swap since the live folder is this
// map's own files rather than a separately maintained recovery log.
func (m *Map) Compact(opts Options) (*Map, error) {
	stagingDir := m.dir + ".compact"
	if err := os.RemoveAll(stagingDir); err != nil {
		return nil, fmt.Errorf("diskmap: compact: clear staging dir: %w", err)
	}

	compactOpts := opts
	compactOpts.BaseFolderLocation = stagingDir
	compactOpts.Hash = m.hash
	fresh, err := Open(compactOpts)
	if err != nil {
		return nil, fmt.Errorf("diskmap: compact: open staging map: %w", err)
	}

	it := NewIterator(m)
	for it.Next() {
		fresh.Put(it.Key(), it.Val())
	}

	if err := fresh.Close(); err != nil {
		return nil, fmt.Errorf("diskmap: compact: close staging map: %w", err)
	}

	liveDir := m.dir
	if err := m.Close(); err != nil {
		return nil, fmt.Errorf("diskmap: compact: close live map: %w", err)
	}
	backupDir := liveDir + ".prev"
	_ = os.RemoveAll(backupDir)
	if err := os.Rename(liveDir, backupDir); err != nil {
		return nil, fmt.Errorf("diskmap: compact: move live dir aside: %w", err)
	}
	if err := copy.Copy(stagingDir, liveDir); err != nil {
		_ = os.Rename(backupDir, liveDir)
		return nil, fmt.Errorf("diskmap: compact: copy staging into place: %w", err)
	}
	_ = os.RemoveAll(stagingDir)
	_ = os.RemoveAll(backupDir)

	reopenOpts := opts
	reopenOpts.BaseFolderLocation = liveDir
	return Open(reopenOpts)
}

// Reorg is an alias for Compact kept for parity with operator tooling
// that refers to the operation by its REPL command name.
func (m *Map) Reorg(opts Options) (*Map, error) {
	return m.Compact(opts)
}
