package core

// TickSource is the single periodic timer the engine multiplexes across
// all channels. The engine has exclusive use of it while any channel is
// enabled.
type TickSource interface {
	// Profile describes the timer so the engine can derive a TickRate
	Profile() TimerProfile

	// ConfigureRate programs the prescaler selection and reload value.
	// The tick period is 2 * Divisor * Reload / ClockHz.
	ConfigureRate(rate TickRate) error

	// ResetCounter zeroes the hardware counter
	ResetCounter()

	// ArmInterrupt enables the tick interrupt; handler runs once per tick
	ArmInterrupt(handler func())

	// DisarmInterrupt stops handler invocations
	DisarmInterrupt()

	// HaltCounting stops the timer clock, releasing the hardware
	HaltCounting()
}
