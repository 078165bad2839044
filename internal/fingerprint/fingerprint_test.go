package fingerprint

import (
	"testing"

	"github.com/mr-tron/base58"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	s := Encode(SubscriptionPrefix, payload)

	got, err := Decode(SubscriptionPrefix, s)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("got %x, want %x", got, payload)
	}
}

func TestDecodeRejectsWrongPrefix(t *testing.T) {
	s := Encode(SubscriptionPrefix, []byte{1, 2, 3})
	if _, err := Decode(ImagePrefix, s); err == nil {
		t.Fatalf("expected prefix mismatch error")
	}
}

func TestDecodeRejectsCorruptedChecksum(t *testing.T) {
	s := Encode(ImagePrefix, []byte{9, 9, 9})
	raw, err := base58.Decode(s)
	if err != nil {
		t.Fatal(err)
	}
	raw[len(raw)-1] ^= 0xff
	corrupted := base58.Encode(raw)

	if _, err := Decode(ImagePrefix, corrupted); err == nil {
		t.Fatalf("expected checksum mismatch error")
	}
}

func TestDecodeRejectsTooShort(t *testing.T) {
	s := base58.Encode([]byte{0x5a, 0x8e, 0x3c})
	if _, err := Decode(SubscriptionPrefix, s); err == nil {
		t.Fatalf("expected too-short error")
	}
}
