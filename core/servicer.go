package core

// Tick is the tick source interrupt handler. It runs CycleSteps times per
// PWM cycle and services every enabled channel.
//
// A channel's pending duty is committed only when the shared counter is 0,
// so a Write never cuts a pulse short part way through a cycle. Duty 0
// keeps the pin low for the whole cycle and 255 keeps it high.
func (e *Engine) Tick() {
	state := enterISR()
	e.service()
	exitISR(state)
}

// service does one tick worth of work. Caller excludes main-line mutation.
func (e *Engine) service() {
	count := e.counter
	slots := &e.channels.slots

	for i := 0; i < MaxChannels; i++ {
		ch := slots[i]
		if ch == nil {
			break
		}

		if count == 0 {
			ch.committed = uint8(ch.pending.Load())
			e.setPin(ch.pin, ch.committed != 0)
		} else if count == ch.committed && ch.committed != 0xFF {
			e.setPin(ch.pin, false)
		}
	}

	// 8 bit counter rolls over to 0 at the cycle boundary
	e.counter = count + 1
	e.ticks++
}

// setPin drives one output from the tick handler
func (e *Engine) setPin(pin GPIOPin, high bool) {
	if err := e.gpio.SetPin(pin, high); err != nil {
		e.pinErrors.Add(1)
	}
}
