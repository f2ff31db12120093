package typedmap_test

import (
	"testing"

	"github.com/Valmach/HashMapper/internal/diskmaptest"
	"github.com/Valmach/HashMapper/pkg/diskmap"
	"github.com/Valmach/HashMapper/pkg/serde"
	"github.com/Valmach/HashMapper/pkg/typedmap"
)

func openInt64Map(t *testing.T) *typedmap.Map[int64, int64] {
	inner := diskmaptest.OpenTemp(t, diskmap.Options{})
	return typedmap.New(inner, serde.Int64Codec, serde.Int64Codec)
}

func TestTypedMapPutGet(t *testing.T) {
	m := openInt64Map(t)
	m.Put(1, 100)
	val, ok := m.Get(1)
	if !ok || val != 100 {
		t.Fatalf("expected (100, true), got (%d, %v)", val, ok)
	}
	if _, ok := m.Get(2); ok {
		t.Fatal("expected key 2 to be absent")
	}
}

func TestTypedMapPutIfAbsent(t *testing.T) {
	m := openInt64Map(t)
	if _, had := m.PutIfAbsent(1, 100); had {
		t.Fatal("expected first putIfAbsent to report absent")
	}
	prev, had := m.PutIfAbsent(1, 200)
	if !had || prev != 100 {
		t.Fatalf("expected putIfAbsent to report the existing value 100, got %d had=%v", prev, had)
	}
}

func TestTypedMapRemoveAndReplace(t *testing.T) {
	m := openInt64Map(t)
	m.Put(1, 100)

	if !m.ReplaceIf(1, 100, 200) {
		t.Fatal("expected conditional replace to succeed")
	}
	val, _ := m.Get(1)
	if val != 200 {
		t.Fatalf("expected value 200 after replace, got %d", val)
	}

	prev, had := m.Remove(1)
	if !had || prev != 200 {
		t.Fatalf("expected to remove value 200, got %d had=%v", prev, had)
	}
	if m.Size() != 0 {
		t.Fatalf("expected size 0 after removal, got %d", m.Size())
	}
}

func TestTypedMapIterator(t *testing.T) {
	m := openInt64Map(t)
	want := map[int64]int64{1: 10, 2: 20, 3: 30}
	for k, v := range want {
		m.Put(k, v)
	}

	got := make(map[int64]int64, len(want))
	it := m.NewIterator()
	for it.Next() {
		k, v, err := it.Entry()
		if err != nil {
			t.Fatal(err)
		}
		got[k] = v
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("expected key %d to hold %d, got %d", k, v, got[k])
		}
	}
}
