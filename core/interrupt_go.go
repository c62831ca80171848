//go:build !tinygo

package core

import "sync"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// isrLock stands in for the timer interrupt enable bit on regular Go.
// Tick handlers run while holding it, so a critical section excludes the
// servicer the same way masking the interrupt does on hardware.
var isrLock sync.Mutex

// disableInterrupts enters a critical section against the tick handler
func disableInterrupts() State {
	isrLock.Lock()
	return 0
}

// restoreInterrupts leaves the critical section
func restoreInterrupts(state State) {
	isrLock.Unlock()
}

// enterISR is called by the tick handler before touching shared state.
// Host tick sources call the handler from their own goroutine.
func enterISR() State {
	isrLock.Lock()
	return 0
}

// exitISR ends the tick handler
func exitISR(state State) {
	isrLock.Unlock()
}
