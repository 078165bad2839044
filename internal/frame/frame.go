// Package frame implements the encoder (C6) and decoder (C7): per-timestamp
// guard derivation from the two-sided chain, frame masking, and Ed25519ph
// signing/verification with channel-bound context.
package frame

import (
	"crypto"
	"crypto/ed25519"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/satband/satcore/internal/chain"
)

// Size is the wire size of an encoded frame: u32 channel + u64 timestamp +
// 64-byte signature + 64-byte ciphertext.
const Size = 4 + 8 + 64 + 64

// FrameLen is the fixed plaintext frame length the guard operates over.
const FrameLen = 64

// MaxPayload is the largest caller-supplied frame payload before padding.
const MaxPayload = 64

// EndOfTime is the maximum representable timestamp.
const EndOfTime uint64 = 1<<64 - 1

// CacheMask isolates the top 44 bits of a timestamp, giving a 20-bit caching
// window the encoder may reuse chain state within.
const CacheMask uint64 = 0xFFFFFFFFFFF00000

var (
	ErrFrameTooLong           = errors.New("frame: payload longer than 64 bytes")
	ErrNonIncreasingTimestamp = errors.New("frame: timestamp must strictly increase")
	ErrMalformedSize          = errors.New("frame: wrong wire size")
	ErrUnknownChannel         = errors.New("frame: no subscription for channel")
	ErrOutOfWindow            = errors.New("frame: timestamp outside subscription window")
	ErrMonotonicityViolation  = errors.New("frame: timestamp not strictly greater than last decoded")
	ErrSignatureInvalid       = errors.New("frame: signature verification failed")
)

// guardConstant is the fixed 512-bit frame-mask constant M (§6), big-endian.
var guardConstant = mustBig("5CF481FFE6F11B408D66FFF23E5AB827B33DE52A2B3CECB41151001328ED091FBE600B23F21FBF327BB013A8267590805548377BAFDEBB6C467AF95F56AF3AE7")

var mod512 = new(big.Int).Lsh(big.NewInt(1), 512)

func mustBig(hexStr string) *big.Int {
	n, ok := new(big.Int).SetString(hexStr, 16)
	if !ok {
		panic("frame: bad guard constant hex")
	}
	return n
}

// guard combines a forward and backward chain state into the 64-byte mask:
// g = (forward XOR backward) * M mod 2^512.
func guard(forward, backward chain.State) [FrameLen]byte {
	var xored [16]byte
	for i := range xored {
		xored[i] = forward[i] ^ backward[i]
	}

	x := new(big.Int).SetBytes(xored[:])
	g := new(big.Int).Mul(x, guardConstant)
	g.Mod(g, mod512)

	var out [FrameLen]byte
	g.FillBytes(out[:])
	return out
}

// padFrame interprets payload as a big-endian integer and renders it as a
// fixed 64-byte big-endian buffer, matching the source's convention of
// treating the frame directly as an integer; the payload ends up
// right-aligned, with zero bytes filling the front.
func padFrame(payload []byte) ([FrameLen]byte, error) {
	if len(payload) > MaxPayload {
		return [FrameLen]byte{}, ErrFrameTooLong
	}
	n := new(big.Int).SetBytes(payload)
	var out [FrameLen]byte
	n.FillBytes(out[:])
	return out, nil
}

func xorBlock(a, b [FrameLen]byte) [FrameLen]byte {
	var out [FrameLen]byte
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}

func channelContext(channel uint32) []byte {
	ctx := make([]byte, 4)
	binary.BigEndian.PutUint32(ctx, channel)
	return ctx
}

// Encoder produces signed, masked frames for one channel, holding the
// private key and the channel's chain roots. Not safe for concurrent use by
// multiple goroutines.
type Encoder struct {
	chain        chain.Chain
	channel      uint32
	forwardRoot  chain.State
	backwardRoot chain.State
	priv         ed25519.PrivateKey

	haveLast bool
	lastT    uint64
	cache    *cacheEntry
}

type cacheEntry struct {
	windowBase uint64
	forward    chain.State
	backward   chain.State
}

// NewEncoder builds an encoder for one channel's roots.
func NewEncoder(c chain.Chain, channel uint32, forwardRoot, backwardRoot chain.State, priv ed25519.PrivateKey) *Encoder {
	return &Encoder{chain: c, channel: channel, forwardRoot: forwardRoot, backwardRoot: backwardRoot, priv: priv}
}

// Encode produces a 140-byte signed frame for payload at timestamp t. t must
// be strictly greater than the timestamp of the previous call.
func (e *Encoder) Encode(payload []byte, t uint64) ([]byte, error) {
	if e.haveLast && t <= e.lastT {
		return nil, ErrNonIncreasingTimestamp
	}

	padded, err := padFrame(payload)
	if err != nil {
		return nil, err
	}

	forward, backward := e.windState(t)
	g := guard(forward, backward)
	ciphertext := xorBlock(g, padded)

	sum := sha512.Sum512(padded[:])
	sig, err := e.priv.Sign(nil, sum[:], &ed25519.Options{Hash: crypto.SHA512, Context: string(channelContext(e.channel))})
	if err != nil {
		return nil, err
	}

	out := make([]byte, Size)
	binary.LittleEndian.PutUint32(out[0:4], e.channel)
	binary.LittleEndian.PutUint64(out[4:12], t)
	copy(out[12:76], sig)
	copy(out[76:140], ciphertext[:])

	e.haveLast = true
	e.lastT = t
	return out, nil
}

// windState returns the forward/backward chain state at t, reusing the
// cached 20-bit window state when t falls in the same window as the last
// call. Purely a local optimization; never observable in the output.
func (e *Encoder) windState(t uint64) (chain.State, chain.State) {
	base := t & CacheMask
	// backBase is (END_OF_TIME - t) masked to the same window. Since base
	// already has its low 20 bits zeroed and END_OF_TIME has them all set,
	// END_OF_TIME - t keeps the same upper bits for every t in the window
	// (the subtraction never borrows past bit 20), so masking END_OF_TIME-t
	// is equivalent to masking END_OF_TIME-base — computed once per window.
	backBase := (EndOfTime - base) & CacheMask

	if e.cache != nil && e.cache.windowBase == base {
		forward := e.chain.ExtendFrom(e.cache.forward, base, t)
		backward := e.chain.ExtendFrom(e.cache.backward, backBase, EndOfTime-t)
		return forward, backward
	}

	cachedForward := e.chain.Wind(e.forwardRoot, base)
	cachedBackward := e.chain.Wind(e.backwardRoot, backBase)
	e.cache = &cacheEntry{windowBase: base, forward: cachedForward, backward: cachedBackward}

	forward := e.chain.ExtendFrom(cachedForward, base, t)
	backward := e.chain.ExtendFrom(cachedBackward, backBase, EndOfTime-t)
	return forward, backward
}

// Anchor is a (position, state) pair drawn from a decoded subscription,
// shaped identically to subscription.Intermediate so callers can pass either
// directly.
type Anchor struct {
	Position uint64
	State    chain.State
}

// Subscription is the decoder-side view of one channel's held window and
// anchor sets, independent of how it was delivered.
type Subscription struct {
	Start, End uint64
	Forward    []Anchor
	Backward   []Anchor
}

// Decoder verifies and unmasks frames against a set of per-channel
// subscriptions and a single issuer public key.
type Decoder struct {
	chain chain.Chain
	pub   ed25519.PublicKey
	subs  map[uint32]*Subscription
	lastT map[uint32]uint64
}

// NewDecoder builds a decoder holding no subscriptions yet.
func NewDecoder(c chain.Chain, pub ed25519.PublicKey) *Decoder {
	return &Decoder{chain: c, pub: pub, subs: make(map[uint32]*Subscription), lastT: make(map[uint32]uint64)}
}

// Subscribe installs or atomically replaces the subscription for a channel.
func (d *Decoder) Subscribe(channel uint32, sub *Subscription) {
	d.subs[channel] = sub
}

// Decode parses, verifies, and unmasks a 140-byte frame, enforcing the §4.8
// checks in order: size, subscription presence, window, monotonicity,
// signature.
func (d *Decoder) Decode(raw []byte) ([]byte, error) {
	if len(raw) != Size {
		return nil, ErrMalformedSize
	}

	channel := binary.LittleEndian.Uint32(raw[0:4])
	t := binary.LittleEndian.Uint64(raw[4:12])
	sig := raw[12:76]
	ciphertext := raw[76:140]

	sub, ok := d.subs[channel]
	if !ok {
		return nil, ErrUnknownChannel
	}
	if t < sub.Start || t > sub.End {
		return nil, ErrOutOfWindow
	}
	if last, seen := d.lastT[channel]; seen && t <= last {
		return nil, ErrMonotonicityViolation
	}

	forward, err := d.extend(sub.Forward, t)
	if err != nil {
		return nil, err
	}
	backward, err := d.extend(sub.Backward, EndOfTime-t)
	if err != nil {
		return nil, err
	}

	g := guard(forward, backward)
	var ct [FrameLen]byte
	copy(ct[:], ciphertext)
	plain := xorBlock(g, ct)

	sum := sha512.Sum512(plain[:])
	opts := &ed25519.Options{Hash: crypto.SHA512, Context: string(channelContext(channel))}
	if err := ed25519.VerifyWithOptions(d.pub, sum[:], sig, opts); err != nil {
		return nil, ErrSignatureInvalid
	}

	d.lastT[channel] = t
	return plain[:], nil
}

// extend finds the anchor with the largest position <= target and winds
// forward to target, per §4.8 step 5.
func (d *Decoder) extend(anchors []Anchor, target uint64) (chain.State, error) {
	var best *Anchor
	for i := range anchors {
		a := anchors[i]
		if a.Position <= target && (best == nil || a.Position > best.Position) {
			best = &anchors[i]
		}
	}
	if best == nil {
		return chain.State{}, ErrOutOfWindow
	}
	return d.chain.ExtendFrom(best.State, best.Position, target), nil
}

// TrimTrailingZeros strips trailing zero bytes from a decoded frame. Only
// meaningful when a length field has been negotiated out-of-band; by default
// frames are fixed 64 bytes and callers should not call this.
func TrimTrailingZeros(frame []byte) []byte {
	i := len(frame)
	for i > 0 && frame[i-1] == 0 {
		i--
	}
	return frame[:i]
}
