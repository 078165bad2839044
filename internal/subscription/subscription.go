// Package subscription implements the fixed-layout subscription blob: the
// binary format a decoder consumes to reconstruct chain intermediates for a
// (decoder, channel) window without ever holding the channel root.
package subscription

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"errors"

	"lukechampine.com/blake3"

	"github.com/satband/satcore/internal/chain"
	"github.com/satband/satcore/internal/devicekeys"
	"github.com/satband/satcore/internal/fingerprint"
	"github.com/satband/satcore/internal/planner"
)

// Wire layout (big-endian, total 3328 bytes).
const (
	offChannel  = 0
	offStart    = 4
	offEnd      = 12
	offFn       = 20
	offBn       = 21
	offFwdPos   = 22
	offBwdPos   = offFwdPos + 512
	offPadding  = offBwdPos + 512 // 1046
	offFwdCT    = 1280
	offBwdCT    = 2304
	Size        = 3328
	maxAnchors  = planner.MaxAnchors
	posSlotSize = 8
	ctSlotSize  = 16
)

var (
	ErrInvalidWindow      = errors.New("subscription: start > end")
	ErrUnknownChannel     = errors.New("subscription: channel not recognized")
	ErrMalformedSize      = errors.New("subscription: wrong blob size")
	ErrMalformedCount     = errors.New("subscription: anchor count exceeds 64")
	ErrMalformedPositions = errors.New("subscription: positions not sorted or out of window")
	ErrChannelMismatch    = errors.New("subscription: channel does not match expected decoder channel")
)

// EndOfTime is the maximum representable timestamp.
const EndOfTime uint64 = 1<<64 - 1

// Intermediate is a decoded (position, state) anchor, ready for chain
// extension by the decoder.
type Intermediate struct {
	Position uint64
	State    chain.State
}

// Subscription is the parsed, in-memory form of a subscription blob.
type Subscription struct {
	Channel  uint32
	Start    uint64
	End      uint64
	Forward  []Intermediate
	Backward []Intermediate
}

// Build plans and seals a subscription for one (decoder, channel) window.
//
// forwardRoot/backwardRoot are the channel's chain roots (issuer-only
// secrets); systemSecret/decoderID select the sealing key via C8.
func Build(c chain.Chain, channel uint32, start, end uint64, forwardRoot, backwardRoot chain.State, systemSecret uint64, decoderID uint32) ([]byte, error) {
	if start > end {
		return nil, ErrInvalidWindow
	}

	forwardAnchors, err := planner.Plan(c, forwardRoot, start, end)
	if err != nil {
		return nil, err
	}
	backwardAnchors, err := planner.Plan(c, backwardRoot, EndOfTime-end, EndOfTime-start)
	if err != nil {
		return nil, err
	}

	seed := devicekeys.ChannelSeed(systemSecret, decoderID, channel)

	out := make([]byte, Size)
	binary.BigEndian.PutUint32(out[offChannel:], channel)
	binary.BigEndian.PutUint64(out[offStart:], start)
	binary.BigEndian.PutUint64(out[offEnd:], end)
	out[offFn] = byte(len(forwardAnchors))
	out[offBn] = byte(len(backwardAnchors))

	if err := packPositions(out[offFwdPos:offFwdPos+512], forwardAnchors); err != nil {
		return nil, err
	}
	if err := packPositions(out[offBwdPos:offBwdPos+512], backwardAnchors); err != nil {
		return nil, err
	}
	if err := packCiphertexts(out[offFwdCT:offFwdCT+1024], forwardAnchors, seed); err != nil {
		return nil, err
	}
	if err := packCiphertexts(out[offBwdCT:offBwdCT+1024], backwardAnchors, seed); err != nil {
		return nil, err
	}

	return out, nil
}

func packPositions(dst []byte, anchors []planner.Anchor) error {
	if len(anchors) > maxAnchors {
		return ErrMalformedCount
	}
	for i, a := range anchors {
		binary.BigEndian.PutUint64(dst[i*posSlotSize:], a.Position)
	}
	return nil
}

func packCiphertexts(dst []byte, anchors []planner.Anchor, seed [devicekeys.SealingKeySize]byte) error {
	if len(anchors) > maxAnchors {
		return ErrMalformedCount
	}
	for i, a := range anchors {
		ct, err := seal(a.State, seed)
		if err != nil {
			return err
		}
		copy(dst[i*ctSlotSize:(i+1)*ctSlotSize], ct)
	}
	return nil
}

// seal encrypts one 16-byte intermediate as the first block of a fresh
// AES-128-OFB stream. A new cipher.Stream is constructed (same key, same IV)
// for every intermediate — this reuses keystream across intermediates sealed
// under the same seed, a deliberate bit-exact carryover from the reference
// design (see DESIGN.md open question on IV reuse), not a recommended
// construction for new deployments.
func seal(state chain.State, seed [devicekeys.SealingKeySize]byte) ([]byte, error) {
	block, err := aes.NewCipher(devicekeys.AESKey(seed))
	if err != nil {
		return nil, err
	}
	stream := cipher.NewOFB(block, devicekeys.AESIV(seed))

	out := make([]byte, 16)
	stream.XORKeyStream(out, state[:])
	return out, nil
}

// PeekChannel reads the channel id from a subscription blob without
// unsealing it — useful when a transport delivers a blob without
// out-of-band channel context (see internal/decodersim).
func PeekChannel(raw []byte) (uint32, error) {
	if len(raw) != Size {
		return 0, ErrMalformedSize
	}
	return binary.BigEndian.Uint32(raw[offChannel:]), nil
}

// Decode parses a subscription blob, checks that its channel is
// expectedChannel, and unseals it with the key for (systemSecret, decoderID,
// channel). A blob sealed for a different decoder is not detected here: it
// unseals without error to unrelated states.
func Decode(raw []byte, systemSecret uint64, decoderID, expectedChannel uint32) (*Subscription, error) {
	if len(raw) != Size {
		return nil, ErrMalformedSize
	}

	channel := binary.BigEndian.Uint32(raw[offChannel:])
	if channel != expectedChannel {
		return nil, ErrChannelMismatch
	}

	start := binary.BigEndian.Uint64(raw[offStart:])
	end := binary.BigEndian.Uint64(raw[offEnd:])
	if start > end {
		return nil, ErrInvalidWindow
	}

	fn := int(raw[offFn])
	bn := int(raw[offBn])
	if fn > maxAnchors || bn > maxAnchors {
		return nil, ErrMalformedCount
	}

	seed := devicekeys.ChannelSeed(systemSecret, decoderID, channel)

	forward, err := unpack(raw[offFwdPos:offFwdPos+512], raw[offFwdCT:offFwdCT+1024], fn, seed)
	if err != nil {
		return nil, err
	}
	backward, err := unpack(raw[offBwdPos:offBwdPos+512], raw[offBwdCT:offBwdCT+1024], bn, seed)
	if err != nil {
		return nil, err
	}

	if err := validatePositions(forward, start, end); err != nil {
		return nil, err
	}
	if err := validatePositions(backward, EndOfTime-end, EndOfTime-start); err != nil {
		return nil, err
	}

	return &Subscription{Channel: channel, Start: start, End: end, Forward: forward, Backward: backward}, nil
}

func unpack(posSlots, ctSlots []byte, count int, seed [devicekeys.SealingKeySize]byte) ([]Intermediate, error) {
	out := make([]Intermediate, 0, count)
	for i := 0; i < count; i++ {
		pos := binary.BigEndian.Uint64(posSlots[i*posSlotSize:])
		ct := ctSlots[i*ctSlotSize : (i+1)*ctSlotSize]

		block, err := aes.NewCipher(devicekeys.AESKey(seed))
		if err != nil {
			return nil, err
		}
		stream := cipher.NewOFB(block, devicekeys.AESIV(seed))
		var state chain.State
		stream.XORKeyStream(state[:], ct)

		out = append(out, Intermediate{Position: pos, State: state})
	}
	return out, nil
}

func validatePositions(anchors []Intermediate, lo, hi uint64) error {
	for i, a := range anchors {
		if a.Position < lo || a.Position > hi {
			return ErrMalformedPositions
		}
		if i > 0 && a.Position <= anchors[i-1].Position {
			return ErrMalformedPositions
		}
	}
	return nil
}

// Fingerprint renders a short, human-readable, Base58Check-style identifier
// for a subscription blob — for CLI/log display only, never part of the wire
// format itself.
func Fingerprint(raw []byte) string {
	sum := blake3.Sum256(raw)
	return fingerprint.Encode(fingerprint.SubscriptionPrefix, sum[:12])
}
