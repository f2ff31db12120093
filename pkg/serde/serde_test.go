package serde_test

import (
	"testing"

	"github.com/Valmach/HashMapper/pkg/serde"
)

func TestInt64CodecRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 1 << 40, -(1 << 40)} {
		encoded := serde.Int64Codec.Encode(v)
		decoded, err := serde.Int64Codec.Decode(encoded)
		if err != nil {
			t.Fatalf("decode(%d): %v", v, err)
		}
		if decoded != v {
			t.Fatalf("round trip mismatch: want %d, got %d", v, decoded)
		}
	}
}

func TestInt64CodecRejectsWrongLength(t *testing.T) {
	if _, err := serde.Int64Codec.Decode([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected an error decoding a short buffer")
	}
}

func TestStringCodecRoundTrip(t *testing.T) {
	for _, v := range []string{"", "hello", "日本語"} {
		decoded, err := serde.StringCodec.Decode(serde.StringCodec.Encode(v))
		if err != nil {
			t.Fatalf("decode(%q): %v", v, err)
		}
		if decoded != v {
			t.Fatalf("round trip mismatch: want %q, got %q", v, decoded)
		}
	}
}
