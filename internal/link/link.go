// Package link models §1's decoder serial-I/O boundary: a length-prefixed,
// parity-checked framing protocol carrying SubscriptionDelivery and
// FrameStream payloads between an issuer-side sender and a decoder-side
// receiver. This is explicitly not real serial/USB I/O (out of scope, §1);
// it runs over any io.Reader/io.Writer, in practice net.Pipe or io.Pipe for
// in-process demos and tests.
//
// The framing (wire.go) and stash-based reassembly (stash.go) follow a
// length-prefixed message broker's wire discipline almost unchanged. A
// request/response RPC protocol (accept/retry confirmation, waiter maps,
// worker pool) for bidirectional signing requests does not apply here: this
// domain is simplex push delivery (issuer -> decoder), so that protocol
// layer is dropped in favor of a plain read/dispatch loop with the same
// backoff-on-error discipline a read-loop/write-loop pair would use.
package link

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"
)

const (
	readBufferSize = 64 * 1024

	initialBackoff       = 10 * time.Millisecond
	maxBackoff           = 1 * time.Second
	backoffFactor        = 2
	maxConsecutiveErrors = 10
)

// Handler processes one reassembled message. Errors are logged, never
// propagated back over the link (there is no response channel).
type Handler func(msgType PayloadType, payload []byte)

// Sender frames and writes SubscriptionDelivery/FrameStream payloads.
type Sender struct {
	w io.Writer
}

func NewSender(w io.Writer) *Sender { return &Sender{w: w} }

func (s *Sender) SendSubscription(blob []byte) error {
	return s.send(PayloadTypeSubscriptionDelivery, blob)
}

func (s *Sender) SendFrame(frame []byte) error {
	return s.send(PayloadTypeFrameStream, frame)
}

func (s *Sender) send(t PayloadType, payload []byte) error {
	msg, err := newMessage(t, NewMessageID(), payload)
	if err != nil {
		return err
	}
	_, err = s.w.Write(msg)
	return err
}

// Receiver reads from r, reassembles framed messages, and dispatches them to
// handler. Run blocks until ctx is done or the reader returns a terminal
// error.
type Receiver struct {
	r       io.Reader
	handler Handler
	logger  *slog.Logger
	stash   *stash
}

func NewReceiver(r io.Reader, handler Handler, logger *slog.Logger) *Receiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Receiver{r: r, handler: handler, logger: logger, stash: newStash(logger)}
}

// Run drives the read/reassemble/dispatch loop until ctx is cancelled or a
// read returns an unrecoverable error (including io.EOF).
func (r *Receiver) Run(ctx context.Context) error {
	buf := make([]byte, readBufferSize)
	backoff := initialBackoff
	consecutiveErrors := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := r.r.Read(buf)
		if n > 0 {
			r.stash.Write(buf[:n])
			r.drain()
			backoff = initialBackoff
			consecutiveErrors = 0
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return err
			}
			consecutiveErrors++
			if consecutiveErrors >= maxConsecutiveErrors {
				r.logger.Error("link: too many consecutive read errors, exiting", slog.Any("err", err))
				return err
			}

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= backoffFactor
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
}

func (r *Receiver) drain() {
	for {
		_, pt, payload, err := r.stash.ReadPayload()
		switch {
		case errors.Is(err, ErrNoPayloadFound), errors.Is(err, ErrIncompletePayload):
			return
		case err != nil:
			r.logger.Debug("link: resync after bad payload", slog.Any("err", err))
			continue
		}
		r.handler(pt, payload)
	}
}
