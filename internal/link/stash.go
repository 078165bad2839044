package link

import (
	"bytes"
	"errors"
	"log/slog"
)

// maxMessagePayload bounds a single message's payload; subscription blobs
// (3328 bytes) and frames (140 bytes) are both far under this.
const maxMessagePayload = 1 << 20

// stash buffers partially-received bytes and reassembles framed messages,
// resyncing past garbage on a bad checksum instead of failing the connection.
type stash struct {
	buf    bytes.Buffer
	logger *slog.Logger
}

func newStash(logger *slog.Logger) *stash {
	return &stash{logger: logger}
}

func (s *stash) Write(data []byte) (int, error) {
	return s.buf.Write(data)
}

// ReadPayload extracts one framed message, or an error indicating why none
// is available yet (ErrNoPayloadFound, ErrIncompletePayload) or that the
// stash resynced past bad data (ErrInvalidPayload, ErrInvalidPayloadSize).
func (s *stash) ReadPayload() ([16]byte, PayloadType, []byte, error) {
	var id [16]byte
	data := s.buf.Bytes()

	idx := bytes.IndexByte(data, MagicByte)
	if idx < 0 {
		if drop := s.buf.Len() - (HeaderLen - 1); drop > 0 {
			s.buf.Next(drop)
		}
		return id, PayloadTypeUnknown, nil, ErrNoPayloadFound
	}
	s.buf.Next(idx)
	data = s.buf.Bytes()

	h, err := DecodeHeader(data)
	if err != nil {
		s.buf.Next(1)
		return id, PayloadTypeUnknown, nil, errors.Join(ErrInvalidPayload, err)
	}

	if int(h.Size) > maxMessagePayload {
		s.logger.Warn("link: dropping oversized frame", slog.Int("size", int(h.Size)))
		s.buf.Next(HeaderLen)
		return id, PayloadTypeUnknown, nil, ErrInvalidPayloadSize
	}

	total := HeaderLen + int(h.Size)
	if len(data) < total {
		return id, PayloadTypeUnknown, nil, ErrIncompletePayload
	}

	s.buf.Next(HeaderLen)
	payloadBuf := s.buf.Next(int(h.Size))
	result := make([]byte, h.Size)
	copy(result, payloadBuf)

	return h.ID, h.Type, result, nil
}
