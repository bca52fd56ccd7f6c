package timex

import (
	"testing"
	"time"
)

func TestManualAdvance(t *testing.T) {
	m := NewManual()
	start := m.Now()
	m.Sleep(300 * time.Millisecond)
	m.Advance(-time.Second) // ignored
	if got := m.Since(start); got != 300*time.Millisecond {
		t.Fatalf("Since = %v, want 300ms", got)
	}
}

func TestRealSince(t *testing.T) {
	var c Clock = Real{}
	past := c.Now().Add(-time.Second)
	if d := c.Since(past); d < time.Second {
		t.Fatalf("Since = %v, want >= 1s", d)
	}
}
