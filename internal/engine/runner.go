// The day-tick runner. The engine only advances logical days; this loop
// decides real-time pacing for the standalone binary. Library callers can
// drive Cycle.TickDay from their own clock instead.
package engine

import (
	"log/slog"
	"sync"
	"time"
)

// Runner drives day ticks at a configurable speed. Speed and the running
// flag are adjusted from HTTP handlers while the loop runs, so access goes
// through accessors.
type Runner struct {
	Interval time.Duration // Base day interval

	// OnDay fires once per simulated day.
	OnDay func(day int)

	mu      sync.Mutex
	speed   float64 // multiplier: 1.0 = one day per interval, 0 = paused
	running bool
	day     int
}

// NewRunner creates a runner at one simulated day per second.
func NewRunner() *Runner {
	return &Runner{
		Interval: time.Second,
		speed:    1.0,
	}
}

// Speed returns the current speed multiplier.
func (r *Runner) Speed() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.speed
}

// SetSpeed adjusts the pace; 0 pauses the loop without stopping it.
func (r *Runner) SetSpeed(v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.speed = v
}

// Running reports whether the tick loop is active.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Day returns the most recent day the runner delivered.
func (r *Runner) Day() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.day
}

// Run starts the tick loop. Blocks until Stop is called.
func (r *Runner) Run() {
	r.mu.Lock()
	r.running = true
	r.mu.Unlock()
	slog.Info("formation runner started", "speed", r.Speed())

	for r.Running() {
		speed := r.Speed()
		if speed <= 0 {
			// Paused — check again shortly.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		r.mu.Lock()
		r.day++
		day := r.day
		r.mu.Unlock()
		if r.OnDay != nil {
			r.OnDay(day)
		}

		elapsed := time.Since(start)
		target := time.Duration(float64(r.Interval) / speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("formation runner stopped", "day", r.Day())
}

// Stop halts the tick loop after the current day completes.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
}
