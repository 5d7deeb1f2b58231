// Package clock implements the animation clock: a single time source that
// accumulates "played" seconds while playing and freezes while paused.
//
// Every animator samples the clock once per frame. Pausing freezes the phase
// sequence at its current value and resuming continues from there; only
// [Clock.Stop] resets it.
//
//	c := clock.New(clock.DefaultCycle)
//	c.Play()
//	c.Tick(1.0/60, 1.0)
//	phase := c.Phase()
package clock

import "math"

// State is the clock's play state.
type State int

const (
	Idle State = iota
	Playing
	Paused
	Stepping
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Stepping:
		return "stepping"
	}
	return "unknown"
}

const (
	// DefaultCycle is the animation cycle length in seconds.
	DefaultCycle = 4.0

	// MaxDelta caps a single frame's contribution so a long gap between
	// frames (a backgrounded window) does not cause a visual jump.
	MaxDelta = 0.1

	MinSpeed = 0.1
	MaxSpeed = 3.0
)

// Snapshot is an immutable copy of the clock read by frame computation.
type Snapshot struct {
	State   State
	Elapsed float64
	Phase   float64
	Step    int
	Cycle   float64
}

// Clock owns the elapsed-time and step counters. It is not safe for
// concurrent use; the owning frame loop is its only writer.
type Clock struct {
	state   State
	elapsed float64
	step    int
	cycle   float64
}

// New returns an idle clock with the given cycle length. Non-positive or
// non-finite cycles fall back to DefaultCycle.
func New(cycle float64) *Clock {
	if !(cycle > 0) || math.IsInf(cycle, 0) {
		cycle = DefaultCycle
	}
	return &Clock{cycle: cycle}
}

// Play moves the clock to playing from any state.
func (c *Clock) Play() { c.state = Playing }

// Pause freezes a playing clock. It does nothing in any other state.
func (c *Clock) Pause() {
	if c.state == Playing {
		c.state = Paused
	}
}

// Stop returns to idle and resets elapsed time and the step counter.
func (c *Clock) Stop() {
	c.state = Idle
	c.elapsed = 0
	c.step = 0
}

// Step moves to stepping and advances the discrete step counter by one,
// bounded by total-1. Elapsed time is not touched.
func (c *Clock) Step(total int) {
	c.state = Stepping
	if c.step+1 < total {
		c.step++
	}
}

// Tick advances elapsed time by the clamped delta scaled by the clamped
// speed. It only has an effect while playing.
func (c *Clock) Tick(delta, speed float64) {
	if c.state != Playing {
		return
	}
	if !(delta > 0) {
		return
	}
	c.elapsed += math.Min(delta, MaxDelta) * ClampSpeed(speed)
}

// State returns the current play state.
func (c *Clock) State() State { return c.state }

// Elapsed returns accumulated played seconds.
func (c *Clock) Elapsed() float64 { return c.elapsed }

// StepIndex returns the discrete step counter.
func (c *Clock) StepIndex() int { return c.step }

// Cycle returns the cycle length in seconds.
func (c *Clock) Cycle() float64 { return c.cycle }

// Phase returns (elapsed / cycle) mod 1, always in [0,1).
func (c *Clock) Phase() float64 {
	return Phase(c.elapsed, c.cycle)
}

// Snapshot returns a copy of the clock's state.
func (c *Clock) Snapshot() Snapshot {
	return Snapshot{
		State:   c.state,
		Elapsed: c.elapsed,
		Phase:   c.Phase(),
		Step:    c.step,
		Cycle:   c.cycle,
	}
}

// Phase normalizes elapsed seconds into [0,1) for a cycle length.
func Phase(elapsed, cycle float64) float64 {
	if !(cycle > 0) || math.IsNaN(elapsed) || math.IsInf(elapsed, 0) {
		return 0
	}
	p := math.Mod(elapsed/cycle, 1)
	if p < 0 {
		p += 1
	}
	if p >= 1 {
		p = 0
	}
	return p
}

// ClampSpeed bounds a speed multiplier to [MinSpeed, MaxSpeed]. NaN maps to 1.
func ClampSpeed(speed float64) float64 {
	if math.IsNaN(speed) {
		return 1
	}
	return math.Min(math.Max(speed, MinSpeed), MaxSpeed)
}
