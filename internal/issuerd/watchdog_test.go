package issuerd

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestNewWatchdogReturnsNilWithoutSocket(t *testing.T) {
	os.Unsetenv("NOTIFY_SOCKET")

	w := NewWatchdog()
	if w != nil {
		t.Error("NewWatchdog() should return nil when NOTIFY_SOCKET is not set")
	}
}

func TestNilWatchdogMethodsAreNoOps(t *testing.T) {
	var w *Watchdog = nil

	if err := w.Ready(); err != nil {
		t.Errorf("Ready() on nil watchdog should return nil, got %v", err)
	}
	if err := w.Stopping(); err != nil {
		t.Errorf("Stopping() on nil watchdog should return nil, got %v", err)
	}
	if err := w.Ping(); err != nil {
		t.Errorf("Ping() on nil watchdog should return nil, got %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close() on nil watchdog should return nil, got %v", err)
	}

	ctx := context.Background()
	stopFn := w.StartPinger(ctx)
	if stopFn == nil {
		t.Error("StartPinger() on nil watchdog should return a non-nil stop function")
	}
	stopFn()
}

func TestWatchdogIntervalReturnsZeroWithoutEnv(t *testing.T) {
	os.Unsetenv("WATCHDOG_USEC")

	if interval := WatchdogInterval(); interval != 0 {
		t.Errorf("WatchdogInterval() = %v, want 0", interval)
	}
}

func TestWatchdogIntervalParsesCorrectly(t *testing.T) {
	tests := []struct {
		usec     string
		expected time.Duration
	}{
		{"60000000", 30 * time.Second},
		{"30000000", 15 * time.Second},
		{"10000000", 5 * time.Second},
		{"1000000", 500 * time.Millisecond},
		{"0", 0},
		{"", 0},
		{"invalid", 0},
	}

	for _, tt := range tests {
		os.Setenv("WATCHDOG_USEC", tt.usec)
		if interval := WatchdogInterval(); interval != tt.expected {
			t.Errorf("WatchdogInterval() with WATCHDOG_USEC=%q = %v, want %v", tt.usec, interval, tt.expected)
		}
	}

	os.Unsetenv("WATCHDOG_USEC")
}

func TestStartPingerWithZeroIntervalIsNoOp(t *testing.T) {
	os.Unsetenv("WATCHDOG_USEC")

	w := &Watchdog{addr: "/nonexistent/socket"}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopFn := w.StartPinger(ctx)
	if stopFn == nil {
		t.Error("StartPinger() should return a non-nil stop function")
	}
	stopFn()
}

func TestStartPingerPreventsDuplicates(t *testing.T) {
	os.Setenv("WATCHDOG_USEC", "1000000")
	defer os.Unsetenv("WATCHDOG_USEC")

	w := &Watchdog{addr: "/nonexistent/socket"}

	ctx, cancel := context.WithCancel(context.Background())

	stop1 := w.StartPinger(ctx)
	stop2 := w.StartPinger(ctx)

	cancel()

	stop1()
	stop2()
}
