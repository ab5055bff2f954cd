package engine

import (
	"testing"
	"time"
)

func TestRunnerDrivesDaysAndStops(t *testing.T) {
	r := NewRunner()
	r.Interval = time.Millisecond

	var days []int
	r.OnDay = func(day int) {
		days = append(days, day)
		if day == 3 {
			r.Stop()
		}
	}

	done := make(chan struct{})
	go func() {
		r.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}

	if len(days) != 3 || days[0] != 1 || days[2] != 3 {
		t.Fatalf("days delivered = %v, want [1 2 3]", days)
	}
	if r.Running() {
		t.Error("stopped runner still reports running")
	}
	if r.Day() != 3 {
		t.Errorf("Day() = %d, want 3", r.Day())
	}
}

func TestRunnerSpeedAdjustableWhileRunning(t *testing.T) {
	r := NewRunner()
	r.Interval = time.Millisecond
	if r.Speed() != 1 {
		t.Fatalf("default speed = %v, want 1", r.Speed())
	}

	// Speed changes land from another goroutine mid-run, the way the
	// admin endpoint adjusts a live loop.
	r.OnDay = func(day int) {
		if day >= 2 {
			r.Stop()
		}
	}
	done := make(chan struct{})
	go func() {
		r.Run()
		close(done)
	}()
	r.SetSpeed(100)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}
	if r.Speed() != 100 {
		t.Errorf("speed = %v, want 100", r.Speed())
	}
}
