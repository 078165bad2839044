package link

import (
	"crypto/rand"
	"encoding/binary"
)

// Header is the fixed framing header: magic(1) type(1) id(16) size(4) parity(1).
type Header struct {
	Magic byte
	Type  PayloadType
	ID    [16]byte
	Size  uint32
}

const (
	MagicByte = 0x56
	HeaderLen = 1 + 1 + 16 + 4 + 1
)

// PayloadType distinguishes the two message kinds this link carries.
type PayloadType byte

const (
	PayloadTypeUnknown              PayloadType = 0x00
	PayloadTypeSubscriptionDelivery PayloadType = 0x01
	PayloadTypeFrameStream          PayloadType = 0x02
)

func headerParity(b []byte) byte {
	var x byte
	for _, c := range b {
		x ^= c
	}
	return x
}

// DecodeHeader validates magic and parity and returns the parsed header.
func DecodeHeader(src []byte) (Header, error) {
	if len(src) < HeaderLen {
		return Header{}, ErrInvalidHeaderLength
	}
	if src[0] != MagicByte {
		return Header{}, ErrInvalidHeaderBadMagic
	}
	if src[22] != headerParity(src[:22]) {
		return Header{}, ErrInvalidHeaderBadParity
	}

	var h Header
	h.Magic = src[0]
	h.Type = PayloadType(src[1])
	copy(h.ID[:], src[2:18])
	h.Size = binary.LittleEndian.Uint32(src[18:22])
	return h, nil
}

// NewMessageID draws a fresh random correlation id.
func NewMessageID() [16]byte {
	var id [16]byte
	_, _ = rand.Read(id[:])
	return id
}

// newMessage encodes header+payload into one framed buffer.
func newMessage(msgType PayloadType, id [16]byte, payload []byte) ([]byte, error) {
	if len(payload) > int(^uint32(0)) {
		return nil, ErrPayloadTooLarge
	}

	dst := make([]byte, HeaderLen+len(payload))
	dst[0] = MagicByte
	dst[1] = byte(msgType)
	copy(dst[2:18], id[:])
	binary.LittleEndian.PutUint32(dst[18:22], uint32(len(payload)))
	dst[22] = headerParity(dst[:22])
	copy(dst[HeaderLen:], payload)
	return dst, nil
}
