// Package typedmap wraps pkg/diskmap's byte-string API in a generic,
// strongly-typed facade, mirroring the way TestDiskMap.java layers a
// DiskMap<Integer,Integer> over the byte-oriented engine using
// IntSerde for both key and value encoding.
package typedmap

import (
	"fmt"

	"github.com/Valmach/HashMapper/pkg/diskmap"
	"github.com/Valmach/HashMapper/pkg/serde"
)

// Map is a type-safe view over a diskmap.Map, encoding/decoding every
// key and value through the given codecs.
type Map[K any, V any] struct {
	inner    *diskmap.Map
	keyCodec serde.Codec[K]
	valCodec serde.Codec[V]
}

// New wraps an already-open diskmap.Map with the given codecs.
func New[K any, V any](inner *diskmap.Map, keyCodec serde.Codec[K], valCodec serde.Codec[V]) *Map[K, V] {
	return &Map[K, V]{inner: inner, keyCodec: keyCodec, valCodec: valCodec}
}

// Open opens (or creates) a diskmap.Map at the given options and wraps
// it with the given codecs.
func Open[K any, V any](opts diskmap.Options, keyCodec serde.Codec[K], valCodec serde.Codec[V]) (*Map[K, V], error) {
	inner, err := diskmap.Open(opts)
	if err != nil {
		return nil, err
	}
	return New(inner, keyCodec, valCodec), nil
}

func (m *Map[K, V]) Size() uint64 { return m.inner.Size() }

func (m *Map[K, V]) Get(key K) (V, bool) {
	var zero V
	raw, ok := m.inner.Get(m.keyCodec.Encode(key))
	if !ok {
		return zero, false
	}
	val, err := m.valCodec.Decode(raw)
	if err != nil {
		panic(fmt.Errorf("typedmap: decode value: %w", err))
	}
	return val, true
}

func (m *Map[K, V]) Put(key K, val V) (prev V, hadPrev bool) {
	raw, ok := m.inner.Put(m.keyCodec.Encode(key), m.valCodec.Encode(val))
	if !ok {
		var zero V
		return zero, false
	}
	decoded, err := m.valCodec.Decode(raw)
	if err != nil {
		panic(fmt.Errorf("typedmap: decode value: %w", err))
	}
	return decoded, true
}

func (m *Map[K, V]) PutIfAbsent(key K, val V) (prev V, hadPrev bool) {
	raw, ok := m.inner.PutIfAbsent(m.keyCodec.Encode(key), m.valCodec.Encode(val))
	if !ok {
		var zero V
		return zero, false
	}
	decoded, err := m.valCodec.Decode(raw)
	if err != nil {
		panic(fmt.Errorf("typedmap: decode value: %w", err))
	}
	return decoded, true
}

func (m *Map[K, V]) Remove(key K) (V, bool) {
	var zero V
	raw, ok := m.inner.Remove(m.keyCodec.Encode(key))
	if !ok {
		return zero, false
	}
	val, err := m.valCodec.Decode(raw)
	if err != nil {
		panic(fmt.Errorf("typedmap: decode value: %w", err))
	}
	return val, true
}

func (m *Map[K, V]) RemoveIf(key K, val V) bool {
	return m.inner.RemoveIf(m.keyCodec.Encode(key), m.valCodec.Encode(val))
}

func (m *Map[K, V]) Replace(key K, val V) (prev V, hadPrev bool) {
	raw, ok := m.inner.Replace(m.keyCodec.Encode(key), m.valCodec.Encode(val))
	if !ok {
		var zero V
		return zero, false
	}
	decoded, err := m.valCodec.Decode(raw)
	if err != nil {
		panic(fmt.Errorf("typedmap: decode value: %w", err))
	}
	return decoded, true
}

func (m *Map[K, V]) ReplaceIf(key K, oldVal, newVal V) bool {
	return m.inner.ReplaceIf(m.keyCodec.Encode(key), m.valCodec.Encode(oldVal), m.valCodec.Encode(newVal))
}

// Iterator wraps a diskmap.Iterator, decoding pairs through the codecs.
type Iterator[K any, V any] struct {
	inner    *diskmap.Iterator
	keyCodec serde.Codec[K]
	valCodec serde.Codec[V]
}

func (m *Map[K, V]) NewIterator() *Iterator[K, V] {
	return &Iterator[K, V]{inner: diskmap.NewIterator(m.inner), keyCodec: m.keyCodec, valCodec: m.valCodec}
}

func (it *Iterator[K, V]) Next() bool { return it.inner.Next() }

func (it *Iterator[K, V]) Entry() (K, V, error) {
	var zeroK K
	var zeroV V
	k, err := it.keyCodec.Decode(it.inner.Key())
	if err != nil {
		return zeroK, zeroV, fmt.Errorf("typedmap: decode key: %w", err)
	}
	v, err := it.valCodec.Decode(it.inner.Val())
	if err != nil {
		return zeroK, zeroV, fmt.Errorf("typedmap: decode value: %w", err)
	}
	return k, v, nil
}

func (m *Map[K, V]) Close() error  { return m.inner.Close() }
func (m *Map[K, V]) Delete() error { return m.inner.Delete() }
