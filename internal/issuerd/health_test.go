package issuerd

import "testing"

func TestHealthRecordsActivity(t *testing.T) {
	h := NewHealth(0)
	if h.FramesEncoded() != 0 {
		t.Fatalf("expected 0 frames encoded, got %d", h.FramesEncoded())
	}

	h.RecordFrameEncoded()
	h.RecordFrameEncoded()
	if h.FramesEncoded() != 2 {
		t.Fatalf("expected 2 frames encoded, got %d", h.FramesEncoded())
	}
	if h.SecondsSinceActivity() > 1 {
		t.Fatalf("expected near-zero seconds since activity, got %d", h.SecondsSinceActivity())
	}
}

func TestHealthGoroutineLimit(t *testing.T) {
	tight := NewHealth(1)
	if tight.IsHealthy() {
		t.Fatalf("expected unhealthy: test runtime has more than 1 goroutine")
	}

	unlimited := NewHealth(0)
	if !unlimited.IsHealthy() {
		t.Fatalf("expected healthy with no goroutine limit")
	}
}
