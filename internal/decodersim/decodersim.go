// Package decodersim is a reference decoder matching the §4.9 state machine:
// Unsubscribed -> Subscribed(start, end, anchors, last_t), with channel 0
// permanently subscribed from construction. It consumes internal/link
// messages and produces decoded frames or silent drops, the concrete
// stand-in for "untrusted decoders with per-device key material" from §1.
package decodersim

import (
	"crypto/ed25519"
	"log/slog"

	"github.com/satband/satcore/internal/chain"
	"github.com/satband/satcore/internal/frame"
	"github.com/satband/satcore/internal/link"
	"github.com/satband/satcore/internal/subscription"
)

// Decoder is a single-threaded decoder instance for one (systemSecret,
// decoderID) identity, holding per-channel subscription state.
type Decoder struct {
	systemSecret uint64
	decoderID    uint32

	frameDecoder *frame.Decoder
	logger       *slog.Logger
}

// New provisions a decoder. emergency is the channel-0 subscription baked
// into the image at build time (§6's emergency.bin); it is installed
// immediately so channel 0 is Subscribed(0, END_OF_TIME, ...) from
// construction, per §4.9.
func New(c chain.Chain, pub ed25519.PublicKey, systemSecret uint64, decoderID uint32, emergency []byte, logger *slog.Logger) (*Decoder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Decoder{
		systemSecret: systemSecret,
		decoderID:    decoderID,
		frameDecoder: frame.NewDecoder(c, pub),
		logger:       logger,
	}

	if err := d.installSubscription(emergency); err != nil {
		return nil, err
	}
	return d, nil
}

// installSubscription parses and unseals a subscription blob for this
// decoder's identity and atomically replaces the channel's prior state. The
// channel is read from the blob itself (PeekChannel): the transport carries
// no out-of-band channel context.
func (d *Decoder) installSubscription(raw []byte) error {
	channel, err := subscription.PeekChannel(raw)
	if err != nil {
		return err
	}
	sub, err := subscription.Decode(raw, d.systemSecret, d.decoderID, channel)
	if err != nil {
		return err
	}

	toAnchors := func(in []subscription.Intermediate) []frame.Anchor {
		out := make([]frame.Anchor, len(in))
		for i, a := range in {
			out[i] = frame.Anchor{Position: a.Position, State: a.State}
		}
		return out
	}

	d.frameDecoder.Subscribe(sub.Channel, &frame.Subscription{
		Start:    sub.Start,
		End:      sub.End,
		Forward:  toAnchors(sub.Forward),
		Backward: toAnchors(sub.Backward),
	})
	return nil
}

// HandleLinkMessage dispatches one reassembled link.PayloadType message: a
// SubscriptionDelivery is installed; a FrameStream is decoded and, on
// success, delivered to onFrame. Failures are dropped silently per §7 — no
// logging beyond debug level, no external signal.
func (d *Decoder) HandleLinkMessage(t link.PayloadType, payload []byte, onFrame func(frame []byte)) {
	switch t {
	case link.PayloadTypeSubscriptionDelivery:
		if err := d.installSubscription(payload); err != nil {
			d.logger.Debug("decodersim: dropping malformed subscription", "err", err)
		}
	case link.PayloadTypeFrameStream:
		plain, err := d.frameDecoder.Decode(payload)
		if err != nil {
			d.logger.Debug("decodersim: dropping frame", "err", err)
			return
		}
		if onFrame != nil {
			onFrame(plain)
		}
	default:
		d.logger.Debug("decodersim: unknown link payload type")
	}
}
