package planner

import (
	"testing"

	"github.com/satband/satcore/internal/chain"
)

func TestPlanInvalidWindow(t *testing.T) {
	c := chain.New()
	if _, err := Plan(c, chain.State{}, 10, 5); err != ErrInvalidWindow {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestPlanFullRangeFromZero(t *testing.T) {
	c := chain.New()
	root := chain.Uint128FromParts(1, 2)

	anchors, err := Plan(c, root, 0, EndOfTime)
	if err != nil {
		t.Fatal(err)
	}
	if len(anchors) != 1 {
		t.Fatalf("expected exactly 1 anchor for lo=0, got %d", len(anchors))
	}
	if anchors[0].Position != 0 || anchors[0].State != root {
		t.Fatalf("anchor at lo=0 must be (0, root), got %+v", anchors[0])
	}
}

func TestPlanMinimalityAndMonotonicity(t *testing.T) {
	c := chain.New()
	root := chain.Uint128FromParts(0xAA, 0xBB)

	lo, hi := uint64(50), uint64(200)
	anchors, err := Plan(c, root, lo, hi)
	if err != nil {
		t.Fatal(err)
	}
	if len(anchors) == 0 || len(anchors) > MaxAnchors {
		t.Fatalf("unexpected anchor count %d", len(anchors))
	}
	if anchors[0].Position != lo {
		t.Fatalf("first anchor must be lo, got %d", anchors[0].Position)
	}
	for i := 1; i < len(anchors); i++ {
		if anchors[i].Position <= anchors[i-1].Position {
			t.Fatalf("anchors not strictly increasing at %d: %d <= %d", i, anchors[i].Position, anchors[i-1].Position)
		}
		if anchors[i].Position > hi {
			t.Fatalf("anchor %d exceeds hi: %d > %d", i, anchors[i].Position, hi)
		}
	}

	// Every t in [lo, hi] must be reachable from some anchor p <= t via wind
	// extension (anchors[k].State wound by (t - anchors[k].Position) must
	// equal wind(root, t)).
	for t := lo; t <= hi; t++ {
		var best *Anchor
		for i := range anchors {
			if anchors[i].Position <= t {
				best = &anchors[i]
			} else {
				break
			}
		}
		if best == nil {
			t.Fatalf("no usable anchor for t=%d", t)
		}
		got := c.Wind(best.State, t-best.Position)
		want := c.Wind(root, t)
		if got != want {
			t.Fatalf("t=%d: extension from anchor %d mismatch: got %x want %x", t, best.Position, got, want)
		}
	}
}

func TestPlanEndOfTimeIsLegal(t *testing.T) {
	c := chain.New()
	root := chain.Uint128FromParts(5, 6)
	if _, err := Plan(c, root, 1, EndOfTime); err != nil {
		t.Fatalf("hi=END_OF_TIME must be legal: %v", err)
	}
}

func TestPlanAnchorBound(t *testing.T) {
	c := chain.New()
	root := chain.Uint128FromParts(7, 8)
	anchors, err := Plan(c, root, 1, EndOfTime)
	if err != nil {
		t.Fatal(err)
	}
	if len(anchors) > MaxAnchors {
		t.Fatalf("planner emitted %d anchors, exceeds cap of %d", len(anchors), MaxAnchors)
	}
	for i := 1; i < len(anchors); i++ {
		if anchors[i].Position <= anchors[i-1].Position {
			t.Fatalf("anchors not strictly increasing at %d: %d <= %d (power-of-two doubling must stop instead of wrapping past 2^63)", i, anchors[i].Position, anchors[i-1].Position)
		}
	}
}
