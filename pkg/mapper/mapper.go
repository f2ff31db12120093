// Package mapper presents a growable memory-mapped region over a single
// file, with offset-addressed integer and byte-slice access that stays
// safe across concurrent grows.
//
// The mmap-go call pattern (Map/Unmap over an *os.File) is the one used by streaming minimal-perfect-hash indexes in this
// codebase's lineage; here the region is read-write and resizable instead
// of immutable, so growing unmaps and remaps under a write lock rather than
// being a one-shot open.
package mapper

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"
)

// Mapper is a thread-safe, growable memory-mapped view of one file.
// Reads and writes take the read lock; Grow takes the write lock, so a
// grow never runs concurrently with an in-flight Get/Put.
type Mapper struct {
	mu   sync.RWMutex
	file *os.File
	mm   mmap.MMap
}

// Open maps the file at path, creating it with an initial size of
// minSize bytes if it doesn't already exist or is smaller than minSize.
// minSize is rounded up to the next power of two no smaller than 4096.
func Open(path string, minSize int64) (*Mapper, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("mapper: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mapper: stat %s: %w", path, err)
	}

	target := roundUpPow2(minSize)
	if info.Size() > target {
		target = info.Size()
	}
	if info.Size() < target {
		if err := f.Truncate(target); err != nil {
			f.Close()
			return nil, fmt.Errorf("mapper: truncate %s: %w", path, err)
		}
	}

	m, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mapper: mmap %s: %w", path, err)
	}

	return &Mapper{file: f, mm: m}, nil
}

// Size returns the current mapped length in bytes.
func (m *Mapper) Size() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.mm))
}

// Grow ensures the mapping covers at least newSize bytes, truncating the
// underlying file and remapping if necessary. It is a no-op if the
// mapping is already large enough.
func (m *Mapper) Grow(newSize int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if int64(len(m.mm)) >= newSize {
		return nil
	}

	target := roundUpPow2(newSize)
	if err := m.file.Truncate(target); err != nil {
		return fmt.Errorf("mapper: grow truncate: %w", err)
	}
	if err := m.mm.Unmap(); err != nil {
		return fmt.Errorf("mapper: grow unmap: %w", err)
	}
	newMM, err := mmap.Map(m.file, mmap.RDWR, 0)
	if err != nil {
		return fmt.Errorf("mapper: grow remap: %w", err)
	}
	m.mm = newMM
	return nil
}

// GetLong reads an 8-byte little-endian unsigned integer at off.
func (m *Mapper) GetLong(off int64) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return binary.LittleEndian.Uint64(m.mm[off : off+8])
}

// PutLong writes an 8-byte little-endian unsigned integer at off.
func (m *Mapper) PutLong(off int64, v uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	binary.LittleEndian.PutUint64(m.mm[off:off+8], v)
}

// GetUint32 reads a 4-byte little-endian unsigned integer at off.
func (m *Mapper) GetUint32(off int64) uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return binary.LittleEndian.Uint32(m.mm[off : off+4])
}

// PutUint32 writes a 4-byte little-endian unsigned integer at off.
func (m *Mapper) PutUint32(off int64, v uint32) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	binary.LittleEndian.PutUint32(m.mm[off:off+4], v)
}

// GetBytes copies length bytes starting at off into a freshly allocated
// slice owned by the caller.
func (m *Mapper) GetBytes(off, length int64) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]byte, length)
	copy(out, m.mm[off:off+length])
	return out
}

// PutBytes writes data starting at off.
func (m *Mapper) PutBytes(off int64, data []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	copy(m.mm[off:off+int64(len(data))], data)
}

// Close flushes and unmaps the region and closes the backing file.
func (m *Mapper) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.mm.Flush(); err != nil {
		return err
	}
	if err := m.mm.Unmap(); err != nil {
		return err
	}
	return m.file.Close()
}

// Delete closes the mapper and removes its backing file.
func (m *Mapper) Delete() error {
	path := m.file.Name()
	if err := m.Close(); err != nil {
		return err
	}
	return os.Remove(path)
}

func roundUpPow2(n int64) int64 {
	if n < 4096 {
		n = 4096
	}
	p := int64(1)
	for p < n {
		p <<= 1
	}
	return p
}
