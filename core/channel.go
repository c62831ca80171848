package core

import "sync/atomic"

// Channel is one software PWM output bound to a single pin.
//
// The duty cycle is double buffered: Write stores into pending at any time,
// and the tick handler copies pending into committed when a new cycle
// starts. Only committed decides pin transitions.
type Channel struct {
	engine *Engine
	pin    GPIOPin

	committed uint8         // Owned by the tick handler
	pending   atomic.Uint32 // Last value passed to Write
}

// Initialize prepares the channel for output at frequencyHz and enables it.
//
// The first successful call on an engine programs and arms the tick source.
// Later calls keep the frequency already in use. A frequency of zero or
// above MaxFrequency fails with ErrFrequencyOutOfRange and changes nothing,
// as does a pin that cannot be configured.
func (c *Channel) Initialize(frequencyHz uint32) error {
	if frequencyHz == 0 || frequencyHz > MaxFrequency {
		return ErrFrequencyOutOfRange
	}

	e := c.engine

	// The pin comes first so a failure cannot leave the timer armed with
	// no channel to halt it
	if err := e.gpio.ConfigureOutput(c.pin); err != nil {
		return err
	}

	if !e.initialized {
		if err := e.configure(frequencyHz); err != nil {
			return err
		}
		e.start()
	}

	return c.Enable()
}

// Enable claims a registry slot. Returns ErrRegistryFull if none is free;
// the channel stays valid but produces no output.
func (c *Channel) Enable() error {
	return c.engine.enable(c)
}

// Disable stops servicing the channel. The pin keeps its last level.
func (c *Channel) Disable() {
	c.engine.disable(c)
}

// Write sets the duty cycle, 0 (always low) to 255 (always high).
// The new value governs the output from the next cycle boundary.
func (c *Channel) Write(duty uint8) {
	c.pending.Store(uint32(duty))
}

// Close disables the channel and drives the pin low
func (c *Channel) Close() error {
	c.Disable()
	return c.engine.gpio.SetPin(c.pin, false)
}

// Pin returns the output pin
func (c *Channel) Pin() GPIOPin {
	return c.pin
}

// Duty returns the most recently written duty cycle
func (c *Channel) Duty() uint8 {
	return uint8(c.pending.Load())
}

// Committed returns the duty cycle governing the current cycle
func (c *Channel) Committed() uint8 {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return c.committed
}

// Enabled reports whether the channel holds a registry slot
func (c *Channel) Enabled() bool {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return c.engine.channels.contains(c)
}
