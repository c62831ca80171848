// Software PWM engine
// One periodic tick source is shared by up to MaxChannels outputs. The tick
// fires CycleSteps times per PWM cycle and each tick decides, per channel,
// whether the pin rises, falls or stays.
package core

import "sync/atomic"

// Engine owns the tick source and the channel table.
//
// Engine methods are called from a single main line of control; only the
// tick handler runs concurrently with them.
type Engine struct {
	tick    TickSource
	gpio    GPIODriver
	profile TimerProfile

	// Shared with the tick handler, guarded by the critical section
	channels registry
	counter  uint8  // Shared cycle counter, written only by the tick handler
	ticks    uint64 // Ticks serviced since the engine was created

	// Main line only
	initialized bool
	running     bool
	rate        TickRate

	pinErrors atomic.Uint32
}

// NewEngine creates an engine that drives gpio from tick
func NewEngine(tick TickSource, gpio GPIODriver) *Engine {
	return &Engine{
		tick:    tick,
		gpio:    gpio,
		profile: tick.Profile(),
	}
}

// NewChannel creates a channel bound to pin. The channel does nothing until
// it is initialized or enabled.
func (e *Engine) NewChannel(pin GPIOPin) *Channel {
	return &Channel{engine: e, pin: pin}
}

// configure derives and programs the tick rate. It runs once per engine
// lifetime; later calls keep the rate already in use.
func (e *Engine) configure(frequencyHz uint32) error {
	if e.initialized {
		return nil
	}

	rate, err := e.profile.Compute(frequencyHz)
	if err != nil {
		return err
	}

	if err := e.tick.ConfigureRate(rate); err != nil {
		return err
	}
	e.tick.ResetCounter()

	e.rate = rate
	e.initialized = true

	RecordEvent(EvtConfigure, 0, rate.Reload, rate.Divisor)
	if rate.Saturated {
		RecordEvent(EvtSaturated, 0, frequencyHz, rate.Reload)
		DebugPrintln("[PWM] frequency " + utoa(frequencyHz) + "Hz below timer range, clamped")
	}
	DebugPrintln("[PWM] timer " + e.profile.Name +
		" div=" + utoa(rate.Divisor) +
		" reload=" + utoa(rate.Reload) +
		" pwm_mhz=" + utoa64(rate.PWMMilliHertz()))

	return nil
}

// start arms the tick interrupt
func (e *Engine) start() {
	e.tick.ArmInterrupt(e.Tick)
	e.running = true
	RecordEvent(EvtArm, 0, e.rate.Reload, 0)
}

// restart reprograms a halted tick source with the rate already derived
func (e *Engine) restart() error {
	if err := e.tick.ConfigureRate(e.rate); err != nil {
		return err
	}
	e.tick.ResetCounter()
	e.start()
	return nil
}

// halt disarms the interrupt and stops the timer.
// Must be called outside the critical section.
func (e *Engine) halt() {
	e.tick.DisarmInterrupt()
	e.tick.HaltCounting()
	e.running = false
	RecordEvent(EvtHalt, 0, 0, 0)
	DebugPrintln("[PWM] last channel gone, tick source halted")
}

// enable registers ch and brings the tick source back if it was halted
func (e *Engine) enable(ch *Channel) error {
	state := disableInterrupts()
	ok := e.channels.register(ch)
	restoreInterrupts(state)

	if !ok {
		RecordEvent(EvtRegistryFull, uint32(ch.pin), MaxChannels, 0)
		return ErrRegistryFull
	}
	RecordEvent(EvtEnable, uint32(ch.pin), 0, 0)

	if e.initialized && !e.running {
		return e.restart()
	}
	return nil
}

// disable removes ch; the last one out stops the tick source
func (e *Engine) disable(ch *Channel) {
	state := disableInterrupts()
	empty, found := e.channels.unregister(ch)
	restoreInterrupts(state)

	if !found {
		return
	}
	RecordEvent(EvtDisable, uint32(ch.pin), 0, 0)

	if empty && e.running {
		e.halt()
	}
}

// Reset disables every channel, stops the tick source and forgets the
// derived rate, so the next Initialize may choose a new frequency.
func (e *Engine) Reset() {
	state := disableInterrupts()
	e.channels.reset()
	e.counter = 0
	restoreInterrupts(state)

	if e.running {
		e.halt()
	}
	e.initialized = false
	e.rate = TickRate{}
	RecordEvent(EvtReset, 0, 0, 0)
}

// Initialized reports whether the tick rate has been derived
func (e *Engine) Initialized() bool {
	return e.initialized
}

// Running reports whether the tick interrupt is armed
func (e *Engine) Running() bool {
	return e.running
}

// Rate returns the programmed tick rate
func (e *Engine) Rate() TickRate {
	return e.rate
}

// Profile returns the timer profile of the tick source
func (e *Engine) Profile() TimerProfile {
	return e.profile
}

// Counter returns the shared cycle counter
func (e *Engine) Counter() uint8 {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return e.counter
}

// Ticks returns the number of ticks serviced so far
func (e *Engine) Ticks() uint64 {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return e.ticks
}

// Active returns the number of enabled channels
func (e *Engine) Active() int {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return e.channels.len()
}

// PinErrors returns how many SetPin calls failed inside the tick handler
func (e *Engine) PinErrors() uint32 {
	return e.pinErrors.Load()
}
