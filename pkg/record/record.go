// Package record implements the variable-size record chain node codec
// described in SPEC_FULL.md §3/§4.2: each node stores a key's hash, a
// pointer to the next node in its bucket's chain, and length-prefixed
// key/value bytes. This mirrors the WritethruRecordChainNode layout of
// the Java original this module was distilled from, ported to the
// teacher's entry.go New/Marshal/Unmarshal shape.
package record

import (
	"github.com/Valmach/HashMapper/pkg/mapper"
)

const (
	hashOffset    = 0
	nextOffset    = 8
	keyLenOffset  = 16
	headerSize    = 20 // hash(8) + next(8) + keyLen(4), valLen follows the key
)

// Node is an in-memory view of one record chain node. Pos is its offset
// in the secondary file; zero value of Pos is only meaningful for nodes
// not yet allocated.
type Node struct {
	Pos           int64
	Hash          uint64
	NextRecordPos uint64
	Key           []byte
	Val           []byte
}

// Size returns the number of bytes this node occupies on disk.
func Size(keyLen, valLen int) int64 {
	return int64(headerSize) + int64(keyLen) + 4 + int64(valLen)
}

// OnDiskSize returns the number of bytes n occupies on disk.
func (n *Node) OnDiskSize() int64 {
	return Size(len(n.Key), len(n.Val))
}

// New builds a Node with the given fields and a not-yet-assigned position.
func New(hash uint64, next uint64, key, val []byte) *Node {
	return &Node{Hash: hash, NextRecordPos: next, Key: key, Val: val}
}

// Write encodes n into m at pos. Callers must have allocated at least
// n.OnDiskSize() bytes at pos beforehand.
func Write(m *mapper.Mapper, pos int64, n *Node) {
	n.Pos = pos
	m.PutLong(pos+hashOffset, n.Hash)
	m.PutLong(pos+nextOffset, n.NextRecordPos)
	m.PutUint32(pos+keyLenOffset, uint32(len(n.Key)))
	m.PutBytes(pos+headerSize, n.Key)
	valLenOff := pos + headerSize + int64(len(n.Key))
	m.PutUint32(valLenOff, uint32(len(n.Val)))
	m.PutBytes(valLenOff+4, n.Val)
}

// Read decodes the node stored at pos.
func Read(m *mapper.Mapper, pos int64) *Node {
	hash := m.GetLong(pos + hashOffset)
	next := m.GetLong(pos + nextOffset)
	keyLen := m.GetUint32(pos + keyLenOffset)
	key := m.GetBytes(pos+headerSize, int64(keyLen))
	valLenOff := pos + headerSize + int64(keyLen)
	valLen := m.GetUint32(valLenOff)
	val := m.GetBytes(valLenOff+4, int64(valLen))

	return &Node{Pos: pos, Hash: hash, NextRecordPos: next, Key: key, Val: val}
}

// SetNextRecordPos mutates only the next-pointer field of the node
// already written at pos. This is the sole in-place mutation permitted
// on an otherwise append-only secondary file.
func SetNextRecordPos(m *mapper.Mapper, pos int64, next uint64) {
	m.PutLong(pos+nextOffset, next)
}

// KeyEquals reports whether this node's hash and key bytes match.
func (n *Node) KeyEquals(hash uint64, key []byte) bool {
	if n.Hash != hash || len(n.Key) != len(key) {
		return false
	}
	for i := range key {
		if n.Key[i] != key[i] {
			return false
		}
	}
	return true
}
