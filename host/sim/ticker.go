package sim

import (
	"errors"

	"softpwm/core"
)

// Ticker is a core.TickSource that fires on a virtual Clock
type Ticker struct {
	clock   *Clock
	profile core.TimerProfile

	timer    Timer
	period   uint64 // Tick period in nanoseconds
	counting bool
	armed    bool
	handler  func()

	// Fired counts handler invocations
	Fired uint64
}

// NewTicker creates a virtual tick source for the given timer profile
func NewTicker(clock *Clock, profile core.TimerProfile) *Ticker {
	t := &Ticker{clock: clock, profile: profile}
	t.timer.Handler = t.onTimer
	return t
}

// Profile implements core.TickSource
func (t *Ticker) Profile() core.TimerProfile {
	return t.profile
}

// ConfigureRate implements core.TickSource. Like selecting a prescaler on
// real hardware, it starts the counter.
func (t *Ticker) ConfigureRate(rate core.TickRate) error {
	period := rate.TickPeriodNanos()
	if period == 0 {
		return errors.New("sim: zero tick period")
	}
	t.period = period
	t.counting = true
	t.ResetCounter()
	return nil
}

// ResetCounter implements core.TickSource; the next tick is one period away
func (t *Ticker) ResetCounter() {
	if !t.counting {
		return
	}
	t.clock.Cancel(&t.timer)
	t.timer.WakeTime = t.clock.Now() + t.period
	t.clock.Schedule(&t.timer)
}

// ArmInterrupt implements core.TickSource
func (t *Ticker) ArmInterrupt(handler func()) {
	t.handler = handler
	t.armed = true
}

// DisarmInterrupt implements core.TickSource
func (t *Ticker) DisarmInterrupt() {
	t.armed = false
}

// HaltCounting implements core.TickSource
func (t *Ticker) HaltCounting() {
	t.counting = false
	t.clock.Cancel(&t.timer)
}

// Period returns the tick period in nanoseconds
func (t *Ticker) Period() uint64 {
	return t.period
}

// Counting reports whether the timer clock is running
func (t *Ticker) Counting() bool {
	return t.counting
}

// Armed reports whether the tick interrupt is enabled
func (t *Ticker) Armed() bool {
	return t.armed
}

// onTimer is the clock handler for one tick
func (t *Ticker) onTimer(timer *Timer) uint8 {
	if !t.counting {
		return SF_DONE
	}
	if t.armed && t.handler != nil {
		t.Fired++
		t.handler()
	}
	timer.WakeTime += t.period
	return SF_RESCHEDULE
}
