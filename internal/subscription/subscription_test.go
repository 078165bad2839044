package subscription

import (
	"testing"

	"github.com/satband/satcore/internal/chain"
)

func TestBuildDecodeRoundTrip(t *testing.T) {
	c := chain.New()
	fwd := chain.Uint128FromParts(1, 2)
	bwd := chain.Uint128FromParts(3, 4)

	raw, err := Build(c, 1, 50, 200, fwd, bwd, 0xAABBCCDDEEFF0011, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != Size {
		t.Fatalf("blob size = %d, want %d", len(raw), Size)
	}

	sub, err := Decode(raw, 0xAABBCCDDEEFF0011, 7, 1)
	if err != nil {
		t.Fatal(err)
	}
	if sub.Start != 50 || sub.End != 200 || sub.Channel != 1 {
		t.Fatalf("unexpected header: %+v", sub)
	}
	if len(sub.Forward) == 0 || len(sub.Backward) == 0 {
		t.Fatalf("expected nonempty anchor sets")
	}
}

func TestEmergencyChannelSingleAnchor(t *testing.T) {
	c := chain.New()
	fwd := chain.Uint128FromParts(0, 0)
	bwd := chain.Uint128FromParts(0, 0)

	raw, err := Build(c, 0, 0, EndOfTime, fwd, bwd, 42, 1)
	if err != nil {
		t.Fatal(err)
	}
	sub, err := Decode(raw, 42, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(sub.Forward) != 1 || sub.Forward[0].Position != 0 {
		t.Fatalf("expected one forward anchor at position 0, got %+v", sub.Forward)
	}
	if len(sub.Backward) != 1 || sub.Backward[0].Position != 0 {
		t.Fatalf("expected one backward anchor at position 0, got %+v", sub.Backward)
	}
}

func TestSealingIsolation(t *testing.T) {
	c := chain.New()
	fwd := chain.Uint128FromParts(11, 22)
	bwd := chain.Uint128FromParts(33, 44)

	raw, err := Build(c, 3, 10, 20, fwd, bwd, 999, 5)
	if err != nil {
		t.Fatal(err)
	}

	// Decoder 6 unseals with the wrong key; the decrypted intermediates must
	// not equal what decoder 5 gets (random-looking output).
	good, err := Decode(raw, 999, 5, 3)
	if err != nil {
		t.Fatal(err)
	}
	bad, err := Decode(raw, 999, 6, 3)
	if err == nil {
		if bad.Forward[0].State == good.Forward[0].State {
			t.Fatalf("sealing isolation violated: wrong decoder id decrypted the same state")
		}
	}
}

func TestDecodeRejectsWrongChannel(t *testing.T) {
	c := chain.New()
	raw, err := Build(c, 1, 0, 10, chain.State{}, chain.State{}, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(raw, 1, 1, 2); err != ErrChannelMismatch {
		t.Fatalf("expected ErrChannelMismatch, got %v", err)
	}
}

func TestDecodeRejectsBadSize(t *testing.T) {
	if _, err := Decode(make([]byte, Size-1), 0, 0, 0); err != ErrMalformedSize {
		t.Fatalf("expected ErrMalformedSize, got %v", err)
	}
}

func TestBuildRejectsInvalidWindow(t *testing.T) {
	c := chain.New()
	if _, err := Build(c, 1, 20, 10, chain.State{}, chain.State{}, 0, 0); err != ErrInvalidWindow {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}
