package model

import (
	"testing"
	"time"
)

func TestParseFluidLevel(t *testing.T) {
	tests := []struct {
		token string
		want  FluidLevel
	}{
		{"FULL", FluidFull},
		{"GOOD", FluidGood},
		{"LOW", FluidLow},
		{"EMPTY", FluidEmpty},
		{"", FluidUnknown},
		{"GARBAGE", FluidUnknown},
	}
	for _, tt := range tests {
		if got := ParseFluidLevel(tt.token); got != tt.want {
			t.Errorf("ParseFluidLevel(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestFleetReachabilityCounterHysteresis(t *testing.T) {
	c := NewFleetReachabilityCounter()
	const id = int64(7)

	// S6: up, down, down, down, down, down, up
	c.Reset(id)
	for i := 0; i < 5; i++ {
		c.Increment(id)
	}
	if c.Streak(id) != 5 {
		t.Fatalf("streak after 5 downs = %d, want 5", c.Streak(id))
	}
	c.Reset(id)
	if c.Streak(id) != 0 {
		t.Fatalf("streak after reset = %d, want 0", c.Streak(id))
	}
}

func TestCommandLogWraparound(t *testing.T) {
	l := NewCommandLog(3)
	for i := 0; i < 5; i++ {
		l.Append(CommandLogEntry{
			Direction: LogSent,
			Timestamp: time.Now(),
			Command:   string(rune('A' + i)),
		})
	}

	snap := l.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot length = %d, want 3", len(snap))
	}
	// Oldest two entries (A, B) should have been evicted; C, D, E remain.
	want := []string{"C", "D", "E"}
	for i, e := range snap {
		if e.Command != want[i] {
			t.Errorf("entry %d = %q, want %q", i, e.Command, want[i])
		}
	}
}

func TestCommandLogBelowCapacity(t *testing.T) {
	l := NewCommandLog(10)
	l.Append(CommandLogEntry{Direction: LogSent, Command: "^SU"})
	l.Append(CommandLogEntry{Direction: LogReceived, Command: "^SU", Response: "Print Status: Ready"})

	snap := l.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot length = %d, want 2", len(snap))
	}
	if snap[0].Direction != LogSent || snap[1].Direction != LogReceived {
		t.Error("entries out of order")
	}
}

func TestRotationString(t *testing.T) {
	if RotationTowerMirrorFlip.String() != "Tower Mirror Flip" {
		t.Errorf("got %q", RotationTowerMirrorFlip.String())
	}
}

func TestAvailabilityInvariant(t *testing.T) {
	m := PrinterMirror{Availability: Offline}
	if m.Availability == Available {
		t.Fatal("offline must not report available")
	}
}
