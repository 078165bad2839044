package main

import (
	"strings"
	"testing"

	"github.com/satband/satcore/internal/issuerd"
)

func TestRenderStatusTableIncludesChannels(t *testing.T) {
	rows := []issuerd.ChannelStatus{
		{Channel: 1, FramesEncoded: 42, LastTimestamp: 1000},
		{Channel: 0, FramesEncoded: 7, LastTimestamp: 5},
	}
	out := renderStatusTable(rows)

	if !strings.Contains(out, "42") || !strings.Contains(out, "1000") {
		t.Fatalf("expected channel 1 counters in table, got:\n%s", out)
	}
	if !strings.Contains(out, "channel") {
		t.Fatalf("expected header row, got:\n%s", out)
	}
}
