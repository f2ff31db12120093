package diskmap_test

import (
	"fmt"
	"testing"

	"github.com/Valmach/HashMapper/internal/diskmaptest"
	"github.com/Valmach/HashMapper/pkg/diskmap"
)

func TestVerifyGarbageTracksSupersededRecords(t *testing.T) {
	m := diskmaptest.OpenTemp(t, diskmap.Options{})
	m.Put([]byte("k"), []byte("v1"))
	before := m.VerifyGarbage()

	// Overwriting the same key appends a new node rather than reusing
	// the old one's bytes, so allocated should grow while reachable
	// stays proportional to the live entry count.
	m.Put([]byte("k"), []byte("v2"))
	after := m.VerifyGarbage()

	if after.AllocatedBytes <= before.AllocatedBytes {
		t.Fatalf("expected allocated bytes to grow after an overwrite, before=%d after=%d",
			before.AllocatedBytes, after.AllocatedBytes)
	}
	if after.ReachableNodes != 1 {
		t.Fatalf("expected exactly 1 reachable node after an overwrite, got %d", after.ReachableNodes)
	}
}

func TestCompactPreservesEntriesAndReclaimsGarbage(t *testing.T) {
	dir := diskmaptest.TempDir(t)
	opts := diskmap.Options{BaseFolderLocation: dir}
	m, err := diskmap.Open(opts)
	if err != nil {
		t.Fatal(err)
	}

	const total = 200
	want := make(map[string]string, total)
	for i := 0; i < total; i++ {
		k := fmt.Sprintf("key-%d", i)
		v := fmt.Sprintf("val-%d", i)
		m.Put([]byte(k), []byte(v))
		want[k] = v
	}
	// Churn every key once so the pre-compact secondary file carries
	// garbage from the superseded nodes.
	for i := 0; i < total; i++ {
		k := fmt.Sprintf("key-%d", i)
		v := fmt.Sprintf("val-%d-updated", i)
		m.Put([]byte(k), []byte(v))
		want[k] = v
	}

	beforeReport := m.VerifyGarbage()

	compacted, err := m.Compact(opts)
	if err != nil {
		t.Fatal(err)
	}
	defer compacted.Close()

	for k, v := range want {
		got, ok := compacted.Get([]byte(k))
		if !ok || string(got) != v {
			t.Fatalf("expected key %q to hold %q after compact, got %q ok=%v", k, v, got, ok)
		}
	}
	if compacted.Size() != uint64(total) {
		t.Fatalf("expected size %d after compact, got %d", total, compacted.Size())
	}

	afterReport := compacted.VerifyGarbage()
	if afterReport.AllocatedBytes >= beforeReport.AllocatedBytes {
		t.Fatalf("expected compaction to shrink allocated bytes, before=%d after=%d",
			beforeReport.AllocatedBytes, afterReport.AllocatedBytes)
	}
}
