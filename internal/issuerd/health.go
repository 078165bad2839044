// Package issuerd provides the issuer daemon's ambient operational surface:
// health tracking, systemd watchdog integration, and a status-only HTTP API.
// None of it ever touches channel roots, the system secret, or the private
// signing key — it reports shape and counters, never secret material.
package issuerd

import (
	"runtime"
	"sync/atomic"
	"time"
)

// Health tracks issuer daemon liveness with minimal overhead, so it is safe
// to call from the frame-encoding hot path.
//
// Design principles carried over unchanged:
// - Zero allocation on the encoding path (atomic ops only)
// - No locks on the encoding path
// - No I/O on the encoding path
type Health struct {
	lastActivity   atomic.Int64  // Unix timestamp of last encode
	framesEncoded  atomic.Uint64 // total frames encoded across all channels
	goroutineLimit int           // max allowed goroutines, 0 = no limit
}

// NewHealth creates a new health tracker. goroutineLimit is the maximum
// number of goroutines allowed (0 = no limit).
func NewHealth(goroutineLimit int) *Health {
	h := &Health{goroutineLimit: goroutineLimit}
	h.lastActivity.Store(time.Now().Unix())
	return h
}

// RecordFrameEncoded should be called after each successful frame encode.
// Hot path: atomic ops only (~10ns overhead).
func (h *Health) RecordFrameEncoded() {
	h.lastActivity.Store(time.Now().Unix())
	h.framesEncoded.Add(1)
}

// LastActivity returns the time of the last recorded frame encode.
func (h *Health) LastActivity() time.Time {
	return time.Unix(h.lastActivity.Load(), 0)
}

// FramesEncoded returns the total number of frames encoded.
func (h *Health) FramesEncoded() uint64 {
	return h.framesEncoded.Load()
}

// SecondsSinceActivity returns seconds since the last encode.
func (h *Health) SecondsSinceActivity() int64 {
	return time.Now().Unix() - h.lastActivity.Load()
}

// IsHealthy runs off the encoding path; call it from a background poller.
func (h *Health) IsHealthy() bool {
	if h.goroutineLimit > 0 && runtime.NumGoroutine() > h.goroutineLimit {
		return false
	}
	return true
}

// GoroutineCount returns the current number of goroutines.
func (h *Health) GoroutineCount() int {
	return runtime.NumGoroutine()
}
