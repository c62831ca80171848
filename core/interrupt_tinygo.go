//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts disables interrupts and returns the previous state
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}

// enterISR is a no-op on hardware: the tick handler already runs with the
// timer interrupt masked and cannot be preempted by main-line code.
func enterISR() interrupt.State {
	var s interrupt.State
	return s
}

// exitISR is a no-op on hardware
func exitISR(state interrupt.State) {}
