// Package devicekeys derives the per-(decoder, channel) sealing keys used to
// encrypt subscription intermediates (C8).
package devicekeys

import (
	"encoding/binary"

	"github.com/satband/satcore/internal/mtrand"
)

// SealingKeySize is the length of the expanded key material: a 16-byte AES
// key followed by a 16-byte IV (K = K0‖K1).
const SealingKeySize = 32

// Seed builds the 128-bit PRNG seed (SystemSecret<<64)|(decoderID<<32)|channel.
func Seed(systemSecret uint64, decoderID, channel uint32) [16]byte {
	var s [16]byte
	binary.BigEndian.PutUint64(s[0:8], systemSecret)
	binary.BigEndian.PutUint32(s[8:12], decoderID)
	binary.BigEndian.PutUint32(s[12:16], channel)
	return s
}

// ChannelSeed derives the 32-byte sealing key for one (decoder, channel)
// pair: bytes drawn from the deterministic seed expander, seeded with
// Seed(systemSecret, decoderID, channel).
func ChannelSeed(systemSecret uint64, decoderID, channel uint32) [SealingKeySize]byte {
	expander := mtrand.NewExpander(Seed(systemSecret, decoderID, channel))
	raw := expander.Expand(SealingKeySize)

	var out [SealingKeySize]byte
	copy(out[:], raw)
	return out
}

// AESKey and AESIV split a channel seed into its AES-OFB key/IV halves.
func AESKey(seed [SealingKeySize]byte) []byte { return seed[:16] }
func AESIV(seed [SealingKeySize]byte) []byte  { return seed[16:] }
