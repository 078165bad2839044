package mtrand

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestExpandDeterministic(t *testing.T) {
	var seed [16]byte
	seed[15] = 7

	a := NewExpander(seed).Expand(32)
	b := NewExpander(seed).Expand(32)
	if !bytes.Equal(a, b) {
		t.Fatalf("expansion is not deterministic for a fixed seed")
	}
}

func TestExpandDiffersAcrossSeeds(t *testing.T) {
	var seedA, seedB [16]byte
	seedA[15] = 1
	seedB[15] = 2

	a := NewExpander(seedA).Expand(32)
	b := NewExpander(seedB).Expand(32)
	if bytes.Equal(a, b) {
		t.Fatalf("different seeds produced identical keystreams")
	}
}

func TestExpandLengthExact(t *testing.T) {
	var seed [16]byte
	e := NewExpander(seed)
	for _, n := range []int{0, 1, 4, 5, 17, 32, 100} {
		if got := len(e.Expand(n)); got != n {
			t.Fatalf("Expand(%d) returned %d bytes", n, got)
		}
	}
}

// TestExpandMatchesReferenceVector pins Expand against a literal output
// vector equivalent to CPython's random.Random(7).randbytes(32): a small
// integer seed whose high words are all zero, so init_by_array must be keyed
// with a trimmed one-word key rather than the full four-word buffer.
func TestExpandMatchesReferenceVector(t *testing.T) {
	var seed [16]byte
	seed[15] = 7

	want, err := hex.DecodeString("38b4e652e44da7f2370d9e260e27136550a4a3a6d07f5c0c332f8b1224083fd2")
	if err != nil {
		t.Fatal(err)
	}

	got := NewExpander(seed).Expand(32)
	if !bytes.Equal(got, want) {
		t.Fatalf("Expand(32) for seed=7 = %x, want %x", got, want)
	}
}

func TestExpandIsStreamContinuation(t *testing.T) {
	var seed [16]byte
	seed[14] = 0xAB

	full := NewExpander(seed).Expand(8)
	half := NewExpander(seed).Expand(4)
	if !bytes.Equal(full[:4], half) {
		t.Fatalf("first 4 bytes of an 8-byte expansion must match a direct 4-byte expansion")
	}
}
