package diskmap_test

import (
	"fmt"
	"testing"

	"github.com/Valmach/HashMapper/internal/diskmaptest"
	"github.com/Valmach/HashMapper/pkg/diskmap"
)

func TestIteratorOnEmptyMap(t *testing.T) {
	m := diskmaptest.OpenTemp(t, diskmap.Options{})
	it := diskmap.NewIterator(m)
	if it.Next() {
		t.Fatal("expected no entries from an iterator over an empty map")
	}
}

func TestIteratorVisitsEveryEntryExactlyOnce(t *testing.T) {
	m := diskmaptest.OpenTemp(t, diskmap.Options{InitialPrimaryFileLength: 16 * 8})

	const total = 300
	want := make(map[string]string, total)
	for i := 0; i < total; i++ {
		k := fmt.Sprintf("key-%d", i)
		v := fmt.Sprintf("val-%d", i)
		m.Put([]byte(k), []byte(v))
		want[k] = v
	}

	seen := make(map[string]string, total)
	it := diskmap.NewIterator(m)
	for it.Next() {
		if _, dup := seen[string(it.Key())]; dup {
			t.Fatalf("key %q visited more than once", it.Key())
		}
		seen[string(it.Key())] = string(it.Val())
	}

	if len(seen) != len(want) {
		t.Fatalf("expected %d entries visited, got %d", len(want), len(seen))
	}
	for k, v := range want {
		if seen[k] != v {
			t.Fatalf("expected key %q to hold %q, iterator produced %q", k, v, seen[k])
		}
	}
}

func TestIteratorRemoveUnsupported(t *testing.T) {
	m := diskmaptest.OpenTemp(t, diskmap.Options{})
	m.Put([]byte("k"), []byte("v"))
	it := diskmap.NewIterator(m)
	it.Next()
	if err := it.Remove(); err != diskmap.ErrIteratorRemoveUnsupported {
		t.Fatalf("expected ErrIteratorRemoveUnsupported, got %v", err)
	}
}
