// Package fingerprint renders short, human-readable Base58Check identifiers
// for subscription blobs and decoder images, for CLI and log display only —
// never part of any wire format. Adapted from the Base58Check scheme used for
// Tezos key/address encoding (double-SHA256 checksum, fixed prefix bytes).
package fingerprint

import (
	"crypto/sha256"

	"github.com/mr-tron/base58"
)

// Prefix bytes give every encoded string of a given payload length the same
// leading characters, the same trick Tezos uses for tz1/edpk/edsig prefixes.
var (
	SubscriptionPrefix = []byte{0x5a, 0x8e, 0x3c} // 12-byte payload: "HaXk..."
	ImagePrefix        = []byte{0x5a, 0x8e, 0x91} // 32-byte payload: "228M..."
	PublicKeyPrefix    = []byte{0x5a, 0x8e, 0x50} // 32-byte payload: "228K..."
)

// Encode returns Base58Check(prefix || payload || doubleSHA256(prefix||payload)[0:4]).
func Encode(prefix, payload []byte) string {
	n := len(prefix) + len(payload)
	buf := make([]byte, n+4)
	copy(buf, prefix)
	copy(buf[len(prefix):], payload)

	sum1 := sha256.Sum256(buf[:n])
	sum2 := sha256.Sum256(sum1[:])
	copy(buf[n:], sum2[:4])

	return base58.Encode(buf)
}

// Decode reverses Encode, verifying the checksum and the expected prefix.
func Decode(prefix []byte, s string) ([]byte, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, err
	}
	if len(raw) < len(prefix)+4 {
		return nil, errTooShort
	}
	for i := range prefix {
		if raw[i] != prefix[i] {
			return nil, errBadPrefix
		}
	}
	n := len(raw) - 4
	payload := raw[len(prefix):n]
	check := raw[n:]

	sum1 := sha256.Sum256(raw[:n])
	sum2 := sha256.Sum256(sum1[:])
	for i := 0; i < 4; i++ {
		if check[i] != sum2[i] {
			return nil, errBadChecksum
		}
	}
	return payload, nil
}
