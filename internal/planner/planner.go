// Package planner selects the minimal set of chain intermediates covering a
// subscription window, per the intermediate-planner algorithm.
package planner

import (
	"errors"

	"github.com/satband/satcore/internal/chain"
)

// ErrInvalidWindow is returned when lo > hi.
var ErrInvalidWindow = errors.New("planner: invalid window (lo > hi)")

// MaxAnchors bounds the number of intermediates a planner run may emit.
const MaxAnchors = 64

// EndOfTime is the maximum representable timestamp.
const EndOfTime uint64 = 1<<64 - 1

// Anchor is a precomputed (position, state) pair a decoder can wind forward
// from without ever learning the chain root.
type Anchor struct {
	Position uint64
	State    chain.State
}

// Plan computes the anchors covering [lo, hi] for the given root, using c to
// derive each anchor's chain state.
//
// lo == 0 always yields exactly one anchor at position 0 holding the root
// itself (the whole chain is reachable from there). Otherwise the planner
// walks forward, at each step advancing to the position obtained by adding
// the lowest set bit of the current position — this is the "turn over the
// lowest bit" rule the reference decoder depends on (an earlier variant
// advanced by a computed high-bit complement instead; that variant is not
// compatible with the decoder's extension step and is not implemented here).
func Plan(c chain.Chain, root chain.State, lo, hi uint64) ([]Anchor, error) {
	if lo > hi {
		return nil, ErrInvalidWindow
	}

	if lo == 0 {
		return []Anchor{{Position: 0, State: root}}, nil
	}

	anchors := make([]Anchor, 0, MaxAnchors)
	p := lo
	for {
		if len(anchors) >= MaxAnchors {
			break
		}
		anchors = append(anchors, Anchor{Position: p, State: c.Wind(root, p)})

		next, ok := nextAnchor(p)
		if !ok || next > hi {
			break
		}
		p = next
	}

	return anchors, nil
}

// nextAnchor returns p plus p's lowest set bit. ok is false for p == 0 (which
// cannot occur here since lo > 0 on every call site) and for any position
// whose advance would overflow uint64 (such as 2^63, or 0xC000000000000000)
// and wrap past EndOfTime instead of legitimately exceeding it.
func nextAnchor(p uint64) (next uint64, ok bool) {
	if p == 0 {
		return 0, false
	}
	lowestBit := p & (-p)
	next = p + lowestBit
	if next < p {
		return 0, false
	}
	return next, true
}
