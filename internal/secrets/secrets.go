// Package secrets implements the issuer's secrets generator (C5): a fresh
// SystemSecret, an Ed25519 signing keypair, and per-channel chain roots,
// serialized to the §6 secrets-file JSON shape with the private key
// password-encrypted at rest.
package secrets

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"

	"github.com/satband/satcore/internal/chain"
)

var (
	ErrDuplicateChannel = errors.New("secrets: duplicate channel id")
	ErrUnknownChannel   = errors.New("secrets: channel not present in bundle")
)

// ChannelRoots holds the forward/backward chain roots for one channel.
type ChannelRoots struct {
	Forward  chain.State
	Backward chain.State
}

// Bundle is the in-memory form of a generated secrets set (§4.5).
type Bundle struct {
	Channels     []uint32
	SystemSecret uint64
	Public       ed25519.PublicKey
	Private      ed25519.PrivateKey
	Roots        map[uint32]ChannelRoots
}

// Generate builds a fresh bundle for the given channel list, auto-appending
// channel 0 if it isn't already present. Uses crypto/rand throughout.
func Generate(channels []uint32) (*Bundle, error) {
	seen := make(map[uint32]bool, len(channels)+1)
	full := make([]uint32, 0, len(channels)+1)
	for _, c := range channels {
		if seen[c] {
			return nil, ErrDuplicateChannel
		}
		seen[c] = true
		full = append(full, c)
	}
	if !seen[0] {
		full = append(full, 0)
	}

	systemSecret, err := randUint64()
	if err != nil {
		return nil, err
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	roots := make(map[uint32]ChannelRoots, len(full))
	for _, c := range full {
		fwd, err := randState()
		if err != nil {
			return nil, err
		}
		bwd, err := randState()
		if err != nil {
			return nil, err
		}
		roots[c] = ChannelRoots{Forward: fwd, Backward: bwd}
	}

	return &Bundle{
		Channels:     full,
		SystemSecret: systemSecret,
		Public:       pub,
		Private:      priv,
		Roots:        roots,
	}, nil
}

// ChannelRoots returns the chain roots for channel c, or ErrUnknownChannel.
func (b *Bundle) ChannelRoots(c uint32) (ChannelRoots, error) {
	r, ok := b.Roots[c]
	if !ok {
		return ChannelRoots{}, ErrUnknownChannel
	}
	return r, nil
}

func randUint64() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	return new(big.Int).SetBytes(buf[:]).Uint64(), nil
}

func randState() (chain.State, error) {
	var s chain.State
	if _, err := rand.Read(s[:]); err != nil {
		return s, err
	}
	return s, nil
}

// fileRoots mirrors §6's per-channel `{"forward": int, "backward": int}`
// object, values rendered as decimal strings of 128-bit integers.
type fileRoots struct {
	Forward  string `json:"forward"`
	Backward string `json:"backward"`
}

// file is the on-disk JSON shape of a secrets file (§6).
type file struct {
	Channels     []uint32             `json:"channels"`
	SystemSecret uint64               `json:"systemsecret"`
	Private      string               `json:"private"`
	Public       string               `json:"public"`
	Roots        map[string]fileRoots `json:"-"`
}

// MarshalJSON flattens Roots into top-level per-channel keys, matching §6's
// flat object shape rather than a nested "roots" field.
func (b *Bundle) MarshalJSON(passphrase string) ([]byte, error) {
	privPEM, err := encryptPrivateKey(b.Private, passphrase)
	if err != nil {
		return nil, err
	}
	pubPEM, err := encodePublicKey(b.Public)
	if err != nil {
		return nil, err
	}

	raw := make(map[string]interface{}, len(b.Channels)+4)
	raw["channels"] = b.Channels
	raw["systemsecret"] = b.SystemSecret
	raw["private"] = privPEM
	raw["public"] = pubPEM

	for _, c := range b.Channels {
		r := b.Roots[c]
		raw[channelKey(c)] = fileRoots{
			Forward:  stateToDecimal(r.Forward),
			Backward: stateToDecimal(r.Backward),
		}
	}

	return json.MarshalIndent(raw, "", "  ")
}

// Load parses a secrets file previously produced by MarshalJSON, decrypting
// the private key with the given passphrase.
func Load(raw []byte, passphrase string) (*Bundle, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, err
	}

	var channels []uint32
	if err := json.Unmarshal(top["channels"], &channels); err != nil {
		return nil, err
	}

	var systemSecret uint64
	if err := json.Unmarshal(top["systemsecret"], &systemSecret); err != nil {
		return nil, err
	}

	var privPEM, pubPEM string
	if err := json.Unmarshal(top["private"], &privPEM); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(top["public"], &pubPEM); err != nil {
		return nil, err
	}

	priv, err := decryptPrivateKey(privPEM, passphrase)
	if err != nil {
		return nil, err
	}
	pub, err := decodePublicKey(pubPEM)
	if err != nil {
		return nil, err
	}

	roots := make(map[uint32]ChannelRoots, len(channels))
	for _, c := range channels {
		var fr fileRoots
		if err := json.Unmarshal(top[channelKey(c)], &fr); err != nil {
			return nil, err
		}
		fwd, err := decimalToState(fr.Forward)
		if err != nil {
			return nil, err
		}
		bwd, err := decimalToState(fr.Backward)
		if err != nil {
			return nil, err
		}
		roots[c] = ChannelRoots{Forward: fwd, Backward: bwd}
	}

	return &Bundle{
		Channels:     channels,
		SystemSecret: systemSecret,
		Public:       pub,
		Private:      priv,
		Roots:        roots,
	}, nil
}

func channelKey(c uint32) string {
	return new(big.Int).SetUint64(uint64(c)).String()
}

func stateToDecimal(s chain.State) string {
	return new(big.Int).SetBytes(s[:]).String()
}

func decimalToState(s string) (chain.State, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return chain.State{}, errors.New("secrets: malformed decimal root")
	}
	b := n.Bytes()
	var out chain.State
	copy(out[16-len(b):], b)
	return out, nil
}
