package main

import (
	"fmt"
	"testing"

	"github.com/satband/satcore/internal/frame"
	"github.com/satband/satcore/internal/planner"
	"github.com/satband/satcore/internal/subscription"
)

func TestClassifyMapsKnownKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"planner invalid window", planner.ErrInvalidWindow, exitInvalidWindow},
		{"subscription invalid window", subscription.ErrInvalidWindow, exitInvalidWindow},
		{"frame unknown channel", frame.ErrUnknownChannel, exitUnknownChannel},
		{"subscription malformed size", subscription.ErrMalformedSize, exitMalformedSubscription},
		{"frame monotonicity", frame.ErrMonotonicityViolation, exitMonotonicityViolation},
		{"frame signature invalid", frame.ErrSignatureInvalid, exitSignatureInvalid},
		{"frame out of window", frame.ErrOutOfWindow, exitOutOfWindow},
		{"unmapped error", fmt.Errorf("boom"), exitIOError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); got != tt.want {
				t.Errorf("classify(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitCodesAreDistinct(t *testing.T) {
	codes := []int{
		exitInvalidWindow, exitUnknownChannel, exitMalformedSubscription,
		exitMonotonicityViolation, exitSignatureInvalid, exitOutOfWindow, exitIOError,
	}
	seen := make(map[int]bool, len(codes))
	for _, c := range codes {
		if seen[c] {
			t.Fatalf("duplicate exit code %d", c)
		}
		seen[c] = true
	}
}
