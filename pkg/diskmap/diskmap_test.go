package diskmap_test

import (
	"testing"

	"github.com/Valmach/HashMapper/internal/diskmaptest"
	"github.com/Valmach/HashMapper/pkg/diskmap"
)

func key(n int) []byte { return []byte{byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)} }

func TestGetOnEmptyMap(t *testing.T) {
	m := diskmaptest.OpenTemp(t, diskmap.Options{})
	if _, ok := m.Get(key(1)); ok {
		t.Fatal("expected Get on an empty map to report absent")
	}
	if m.Size() != 0 {
		t.Fatalf("expected size 0, got %d", m.Size())
	}
}

func TestPutThenGet(t *testing.T) {
	m := diskmaptest.OpenTemp(t, diskmap.Options{})
	m.Put(key(1), []byte("one"))
	val, ok := m.Get(key(1))
	if !ok {
		t.Fatal("expected key 1 to be present")
	}
	if string(val) != "one" {
		t.Fatalf("expected value \"one\", got %q", val)
	}
	if m.Size() != 1 {
		t.Fatalf("expected size 1, got %d", m.Size())
	}
}

func TestPutOverwritesAndReturnsPrevious(t *testing.T) {
	m := diskmaptest.OpenTemp(t, diskmap.Options{})
	m.Put(key(1), []byte("one"))
	prev, had := m.Put(key(1), []byte("uno"))
	if !had || string(prev) != "one" {
		t.Fatalf("expected prior value \"one\", got %q had=%v", prev, had)
	}
	val, ok := m.Get(key(1))
	if !ok || string(val) != "uno" {
		t.Fatalf("expected updated value \"uno\", got %q ok=%v", val, ok)
	}
	if m.Size() != 1 {
		t.Fatalf("expected size to stay 1 after an overwrite, got %d", m.Size())
	}
}

func TestPutIfAbsent(t *testing.T) {
	m := diskmaptest.OpenTemp(t, diskmap.Options{})
	_, had := m.PutIfAbsent(key(1), []byte("one"))
	if had {
		t.Fatal("expected first putIfAbsent to report absent")
	}
	prev, had := m.PutIfAbsent(key(1), []byte("uno"))
	if !had || string(prev) != "one" {
		t.Fatalf("expected putIfAbsent to leave the existing value alone, got %q had=%v", prev, had)
	}
	val, _ := m.Get(key(1))
	if string(val) != "one" {
		t.Fatalf("expected value to remain \"one\", got %q", val)
	}
}

func TestRemove(t *testing.T) {
	m := diskmaptest.OpenTemp(t, diskmap.Options{})
	m.Put(key(1), []byte("one"))
	prev, had := m.Remove(key(1))
	if !had || string(prev) != "one" {
		t.Fatalf("expected to remove \"one\", got %q had=%v", prev, had)
	}
	if _, ok := m.Get(key(1)); ok {
		t.Fatal("expected key 1 to be gone after removal")
	}
	if _, had := m.Remove(key(1)); had {
		t.Fatal("expected a second removal of an absent key to report absent")
	}
}

func TestRemoveIf(t *testing.T) {
	m := diskmaptest.OpenTemp(t, diskmap.Options{})
	m.Put(key(1), []byte("one"))
	if m.RemoveIf(key(1), []byte("wrong")) {
		t.Fatal("expected conditional remove to fail on a value mismatch")
	}
	if _, ok := m.Get(key(1)); !ok {
		t.Fatal("expected key 1 to still be present after a failed conditional remove")
	}
	if !m.RemoveIf(key(1), []byte("one")) {
		t.Fatal("expected conditional remove to succeed on a matching value")
	}
}

func TestReplace(t *testing.T) {
	m := diskmaptest.OpenTemp(t, diskmap.Options{})
	if _, had := m.Replace(key(1), []byte("one")); had {
		t.Fatal("expected replace on an absent key to report absent")
	}
	m.Put(key(1), []byte("one"))
	prev, had := m.Replace(key(1), []byte("uno"))
	if !had || string(prev) != "one" {
		t.Fatalf("expected replace to report the old value \"one\", got %q had=%v", prev, had)
	}
	val, _ := m.Get(key(1))
	if string(val) != "uno" {
		t.Fatalf("expected replaced value \"uno\", got %q", val)
	}
}

func TestReplaceIf(t *testing.T) {
	m := diskmaptest.OpenTemp(t, diskmap.Options{})
	m.Put(key(1), []byte("one"))
	if m.ReplaceIf(key(1), []byte("wrong"), []byte("uno")) {
		t.Fatal("expected conditional replace to fail on a value mismatch")
	}
	if !m.ReplaceIf(key(1), []byte("one"), []byte("uno")) {
		t.Fatal("expected conditional replace to succeed on a matching value")
	}
	val, _ := m.Get(key(1))
	if string(val) != "uno" {
		t.Fatalf("expected replaced value \"uno\", got %q", val)
	}
}

// TestFunctionalEquivalence puts 500 random, unique key/value pairs into
// a map that starts at 16 buckets and checks every key against an
// in-memory reference, plus the final size. Only Put is exercised; the
// mixed put/remove/replace/putIfAbsent workload runs in
// cmd/diskmapper_stress.
func TestFunctionalEquivalence(t *testing.T) {
	m := diskmaptest.OpenTemp(t, diskmap.Options{InitialPrimaryFileLength: 16 * 8})
	pairs, answer := diskmaptest.GenerateRandomKeyValuePairs(500)

	for _, p := range pairs {
		m.Put(p.Key, p.Val)
	}
	for k, v := range answer {
		val, ok := m.Get([]byte(k))
		if !ok || string(val) != v {
			t.Fatalf("expected key %x to hold %q, got %q ok=%v", k, v, val, ok)
		}
	}
	if m.Size() != uint64(len(answer)) {
		t.Fatalf("expected size %d, got %d", len(answer), m.Size())
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := diskmaptest.TempDir(t)
	m, err := diskmap.Open(diskmap.Options{BaseFolderLocation: dir})
	if err != nil {
		t.Fatal(err)
	}
	m.Put(key(1), []byte("one"))
	m.Put(key(2), []byte("two"))
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := diskmap.Open(diskmap.Options{BaseFolderLocation: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	if val, ok := reopened.Get(key(1)); !ok || string(val) != "one" {
		t.Fatalf("expected key 1 to survive reopen as \"one\", got %q ok=%v", val, ok)
	}
	if val, ok := reopened.Get(key(2)); !ok || string(val) != "two" {
		t.Fatalf("expected key 2 to survive reopen as \"two\", got %q ok=%v", val, ok)
	}
	if reopened.Size() != 2 {
		t.Fatalf("expected size 2 after reopen, got %d", reopened.Size())
	}
}
