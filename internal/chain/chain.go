// Package chain implements the two-sided hash chain ("wind" construction)
// used to derive per-timestamp keys from a forward or backward root.
package chain

import (
	"encoding/binary"

	"lukechampine.com/blake3"
)

// State is a 128-bit chain value, always big-endian.
type State [16]byte

// Chain is the one-step compression + wind abstraction (design note: model as
// an interface so a deployment can swap the PRF without touching call sites).
type Chain interface {
	// Compress computes one chain step: H(section, state) -> state'.
	Compress(state State, section uint8) State
	// Wind repeatedly applies Compress, driven by the bits of target.
	Wind(root State, target uint64) State
	// ExtendFrom continues winding a state already known to sit at position
	// from, advancing it to position to. Only valid when every bit set in
	// from is also set in to and every bit to adds lies below from's lowest
	// set bit (the planner's coverage invariant) — see internal/planner.
	ExtendFrom(state State, from, to uint64) State
}

// blake3Chain implements Chain with a BLAKE3 keyed hash per section.
type blake3Chain struct{}

// New returns the BLAKE3-keyed chain primitive specified for this deployment.
func New() Chain {
	return blake3Chain{}
}

const keySize = 32

// sectionKey zero-extends the one-byte section index to a full BLAKE3 key,
// giving each bit position its own domain-separated hash function.
func sectionKey(section uint8) []byte {
	key := make([]byte, keySize)
	key[0] = section
	return key
}

// Compress computes H = BLAKE3_keyed(key=section, message=state), taking the
// first 16 bytes of the digest as the next 128-bit state.
func (blake3Chain) Compress(state State, section uint8) State {
	h := blake3.New(32, sectionKey(section))
	h.Write(state[:])

	var out State
	sum := h.Sum(nil)
	copy(out[:], sum[:16])
	return out
}

// Wind applies Compress for every set bit of target, from section 63 down to
// 0. The reference construction iterates sections 64..=0, but bit 64 of a
// 64-bit target is always zero, so that top iteration is always a no-op and
// is elided here.
func (c blake3Chain) Wind(root State, target uint64) State {
	state := root
	for section := 63; section >= 0; section-- {
		if target&(1<<uint(section)) != 0 {
			state = c.Compress(state, uint8(section))
		}
	}
	return state
}

// ExtendFrom applies Compress for every bit set in to but not in from,
// scanning from section 63 down to 0, exactly mirroring Wind's direction.
func (c blake3Chain) ExtendFrom(state State, from, to uint64) State {
	for section := 63; section >= 0; section-- {
		bit := uint64(1) << uint(section)
		if to&bit != 0 && from&bit == 0 {
			state = c.Compress(state, uint8(section))
		}
	}
	return state
}

// BytesToState interprets a 16-byte big-endian buffer as a State.
func BytesToState(b []byte) State {
	var s State
	copy(s[:], b)
	return s
}

// Uint128FromParts builds a State from a split 64-bit hi/lo pair, useful for
// tests and for seeding roots from random.Uint64 draws.
func Uint128FromParts(hi, lo uint64) State {
	var s State
	binary.BigEndian.PutUint64(s[:8], hi)
	binary.BigEndian.PutUint64(s[8:], lo)
	return s
}
