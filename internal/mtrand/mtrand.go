// Package mtrand implements the deterministic seed expander used to derive
// per-device, per-channel sealing keys (C8). This is a compatibility
// primitive, not a cryptographic one: call sites depend on it reproducing a
// specific Mersenne Twister output stream bit-for-bit, so it is isolated
// behind the DeterministicSeedExpander interface rather than exposed as a
// general-purpose RNG.
package mtrand

import "encoding/binary"

const (
	n         = 624
	m         = 397
	matrixA   = 0x9908b0df
	upperMask = 0x80000000
	lowerMask = 0x7fffffff
)

// DeterministicSeedExpander expands a fixed-size seed into an arbitrary
// number of deterministic bytes. A future deployment can swap the Mersenne
// Twister implementation here for a real KDF without touching any call site.
type DeterministicSeedExpander interface {
	Expand(n int) []byte
}

// mt19937 is the classic reference Mersenne Twister generator, seeded via
// init_by_array so that multi-word seeds (here, a 128-bit value split into
// four little-endian 32-bit words) mix the same way CPython's random.seed
// does for its reference PRNG.
type mt19937 struct {
	state [n]uint32
	index int
}

func newMT19937(key []uint32) *mt19937 {
	g := &mt19937{}
	g.initByArray(key)
	return g
}

func (g *mt19937) initGenrand(seed uint32) {
	g.state[0] = seed
	for i := 1; i < n; i++ {
		g.state[i] = 1812433253*(g.state[i-1]^(g.state[i-1]>>30)) + uint32(i)
	}
	g.index = n
}

func (g *mt19937) initByArray(key []uint32) {
	g.initGenrand(19650218)
	i, j := 1, 0
	k := n
	if len(key) > k {
		k = len(key)
	}
	for ; k > 0; k-- {
		g.state[i] = (g.state[i] ^ ((g.state[i-1] ^ (g.state[i-1] >> 30)) * 1664525)) + key[j] + uint32(j)
		i++
		j++
		if i >= n {
			g.state[0] = g.state[n-1]
			i = 1
		}
		if j >= len(key) {
			j = 0
		}
	}
	for k = n - 1; k > 0; k-- {
		g.state[i] = (g.state[i] ^ ((g.state[i-1] ^ (g.state[i-1] >> 30)) * 1566083941)) - uint32(i)
		i++
		if i >= n {
			g.state[0] = g.state[n-1]
			i = 1
		}
	}
	g.state[0] = 0x80000000
}

func (g *mt19937) generate() {
	var mag01 = [2]uint32{0, matrixA}
	for i := 0; i < n; i++ {
		y := (g.state[i] & upperMask) | (g.state[(i+1)%n] & lowerMask)
		g.state[i] = g.state[(i+m)%n] ^ (y >> 1) ^ mag01[y&1]
	}
	g.index = 0
}

// next returns the next tempered 32-bit output.
func (g *mt19937) next() uint32 {
	if g.index >= n {
		g.generate()
	}
	y := g.state[g.index]
	g.index++

	y ^= y >> 11
	y ^= (y << 7) & 0x9d2c5680
	y ^= (y << 15) & 0xefc60000
	y ^= y >> 18
	return y
}

// Expander is a DeterministicSeedExpander backed by mt19937.
type Expander struct {
	gen *mt19937
}

// NewExpander seeds a Mersenne Twister from a 128-bit value, matching
// CPython's random.seed(int) keying: the value is split into little-endian
// 32-bit words (low word first), then trimmed to its significant word count
// (high all-zero words dropped, at least one word kept for a zero seed)
// before being handed to init_by_array. Passing the full four words
// unconditionally (as if every seed were 97-128 bits) produces a different
// generator whenever the seed's top word is zero, which is the common case
// for small systemSecret/decoderID/channel combinations.
func NewExpander(seed128 [16]byte) *Expander {
	var full [4]uint32
	// seed128 is stored big-endian (most significant byte first); the words
	// handed to init_by_array must be least-significant-word first.
	for i := 0; i < 4; i++ {
		off := 16 - 4*(i+1)
		full[i] = binary.BigEndian.Uint32(seed128[off : off+4])
	}

	keyused := 1
	for i := 3; i >= 0; i-- {
		if full[i] != 0 {
			keyused = i + 1
			break
		}
	}

	return &Expander{gen: newMT19937(full[:keyused])}
}

// Expand returns the concatenation of consecutive 32-bit draws, each written
// little-endian, truncated/extended to exactly n bytes. n need not be a
// multiple of 4.
func (e *Expander) Expand(n int) []byte {
	out := make([]byte, 0, n+4)
	for len(out) < n {
		var word [4]byte
		binary.LittleEndian.PutUint32(word[:], e.gen.next())
		out = append(out, word[:]...)
	}
	return out[:n]
}
