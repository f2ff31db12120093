package hasher_test

import (
	"testing"

	"github.com/Valmach/HashMapper/pkg/hasher"
)

func TestMurmurIsStable(t *testing.T) {
	key := []byte("stable-key")
	first := hasher.Murmur(key)
	second := hasher.Murmur(key)
	if first != second {
		t.Fatalf("expected Murmur to be deterministic, got %d then %d", first, second)
	}
}

func TestXXHashIsStable(t *testing.T) {
	key := []byte("stable-key")
	first := hasher.XXHash(key)
	second := hasher.XXHash(key)
	if first != second {
		t.Fatalf("expected XXHash to be deterministic, got %d then %d", first, second)
	}
}

func TestIndexForStaysWithinTableLength(t *testing.T) {
	tableLength := uint64(16)
	for i := 0; i < 1000; i++ {
		idx := hasher.IndexFor(hasher.Murmur([]byte{byte(i), byte(i >> 8)}), tableLength)
		if idx >= tableLength {
			t.Fatalf("index %d out of range for table length %d", idx, tableLength)
		}
	}
}

func TestIndexForIsBitmask(t *testing.T) {
	if got := hasher.IndexFor(0b10110, 8); got != 0b110 {
		t.Fatalf("expected 0b110, got %b", got)
	}
}
