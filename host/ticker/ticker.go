// Package ticker provides a wall-clock tick source for running the engine
// on a host against real GPIO lines.
package ticker

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"softpwm/core"
)

// Ticker is a core.TickSource backed by a goroutine and time.Ticker.
// Tick resolution is bounded by the host scheduler, so it suits low PWM
// frequencies and bring-up rather than precise waveforms.
type Ticker struct {
	profile core.TimerProfile
	armed   atomic.Bool

	mu      sync.Mutex
	handler func()
	period  time.Duration
	stop    chan struct{}
	done    chan struct{}
	reset   chan struct{}
}

// New creates a tick source that emulates the given timer profile
func New(profile core.TimerProfile) *Ticker {
	return &Ticker{profile: profile}
}

// Profile implements core.TickSource
func (t *Ticker) Profile() core.TimerProfile {
	return t.profile
}

// ConfigureRate implements core.TickSource and starts counting
func (t *Ticker) ConfigureRate(rate core.TickRate) error {
	period := time.Duration(rate.TickPeriodNanos())
	if period <= 0 {
		return errors.New("ticker: zero tick period")
	}

	t.HaltCounting()

	t.mu.Lock()
	t.period = period
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	t.reset = make(chan struct{}, 1)
	go t.run(period, t.stop, t.done, t.reset)
	t.mu.Unlock()
	return nil
}

// ResetCounter implements core.TickSource
func (t *Ticker) ResetCounter() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.reset == nil {
		return
	}
	select {
	case t.reset <- struct{}{}:
	default: // Already pending
	}
}

// ArmInterrupt implements core.TickSource
func (t *Ticker) ArmInterrupt(handler func()) {
	t.mu.Lock()
	t.handler = handler
	t.mu.Unlock()
	t.armed.Store(true)
}

// DisarmInterrupt implements core.TickSource
func (t *Ticker) DisarmInterrupt() {
	t.armed.Store(false)
}

// HaltCounting implements core.TickSource. It returns once the tick
// goroutine has exited, so it must not be called from the handler.
func (t *Ticker) HaltCounting() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done, t.reset = nil, nil, nil
	t.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Period returns the programmed tick period
func (t *Ticker) Period() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.period
}

// Counting reports whether the tick goroutine is running
func (t *Ticker) Counting() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

func (t *Ticker) run(period time.Duration, stop, done, reset chan struct{}) {
	defer close(done)

	tk := time.NewTicker(period)
	defer tk.Stop()

	for {
		select {
		case <-stop:
			return
		case <-reset:
			tk.Reset(period)
		case <-tk.C:
			if !t.armed.Load() {
				continue
			}
			t.mu.Lock()
			h := t.handler
			t.mu.Unlock()
			if h != nil {
				h()
			}
		}
	}
}
