package core

const (
	// MaxFrequency is the highest PWM frequency the engine accepts, in Hz
	MaxFrequency = 300

	// CycleSteps is the number of ticks in one PWM cycle
	CycleSteps = 256
)

// Prescaler is one clock divider option of a hardware timer
type Prescaler struct {
	Divisor uint32 // Clock divisor
	Shift   uint8  // log2(Divisor)
	Select  uint8  // Clock-select code programmed into the timer
}

// TimerProfile describes the timer that drives the tick source
type TimerProfile struct {
	Name       string
	ClockHz    uint32      // Input clock before the prescaler
	Resolution uint32      // Reload values must stay below this
	Prescalers []Prescaler // Ordered smallest divisor first

	// RoundReload rounds the reload to nearest instead of truncating.
	// Needed when the reload is small enough that truncation pushes the
	// PWM frequency above MaxFrequency.
	RoundReload bool
}

// TickRate is the result of programming a timer for a PWM frequency
type TickRate struct {
	Select    uint8  // Prescaler clock-select code
	Divisor   uint32 // Prescaler divisor
	Reload    uint32 // Counter TOP / reload value
	Saturated bool   // Request was out of range and clamped to the slowest rate
	ClockHz   uint32 // Timer input clock
}

// Built-in timer profiles
var (
	// AVRTimer1 is the 16-bit Timer1 of an ATmega328P at 16MHz
	AVRTimer1 = TimerProfile{
		Name:       "avr-timer1",
		ClockHz:    16000000,
		Resolution: 65535,
		Prescalers: []Prescaler{
			{Divisor: 1, Shift: 0, Select: 1},
			{Divisor: 8, Shift: 3, Select: 2},
			{Divisor: 64, Shift: 6, Select: 3},
			{Divisor: 256, Shift: 8, Select: 4},
			{Divisor: 1024, Shift: 10, Select: 5},
		},
	}

	// AVRTimer2 is the 8-bit Timer2 of an ATmega328P at 16MHz
	AVRTimer2 = TimerProfile{
		Name:       "avr-timer2",
		ClockHz:    16000000,
		Resolution: 256,
		Prescalers: []Prescaler{
			{Divisor: 1, Shift: 0, Select: 1},
			{Divisor: 8, Shift: 3, Select: 2},
			{Divisor: 32, Shift: 5, Select: 3},
			{Divisor: 64, Shift: 6, Select: 4},
			{Divisor: 128, Shift: 7, Select: 5},
			{Divisor: 256, Shift: 8, Select: 6},
			{Divisor: 1024, Shift: 10, Select: 7},
		},
	}

	// RP2040Alarm is the 1MHz microsecond timer of the RP2040 driven through
	// ALARM1. At 300Hz the reload is 6.5us, so it rounds rather than truncates.
	RP2040Alarm = TimerProfile{
		Name:       "rp2040-alarm",
		ClockHz:    1000000,
		Resolution: 0xFFFFFFFF,
		Prescalers: []Prescaler{
			{Divisor: 1, Shift: 0, Select: 0},
		},
		RoundReload: true,
	}
)

// ProfileByName returns a built-in timer profile
func ProfileByName(name string) (TimerProfile, bool) {
	switch name {
	case AVRTimer1.Name:
		return AVRTimer1, true
	case AVRTimer2.Name:
		return AVRTimer2, true
	case RP2040Alarm.Name:
		return RP2040Alarm, true
	}
	return TimerProfile{}, false
}

// Compute derives the prescaler and reload value that make the timer tick at
// CycleSteps times frequencyHz.
//
// The timer counts up to the reload value and back down again before the
// tick fires, so the cycle count is halved. If no prescaler keeps the count
// inside the timer resolution the slowest setting is used and the result is
// marked Saturated; that is an approximation, not an error.
func (p TimerProfile) Compute(frequencyHz uint32) (TickRate, error) {
	if frequencyHz == 0 || frequencyHz > MaxFrequency {
		return TickRate{}, ErrFrequencyOutOfRange
	}
	if len(p.Prescalers) == 0 {
		return TickRate{}, ErrNoPrescaler
	}

	cycles := p.ClockHz / (frequencyHz * CycleSteps) / 2
	if p.RoundReload {
		den := frequencyHz * CycleSteps * 2
		cycles = (p.ClockHz + den/2) / den
	}

	rate := TickRate{ClockHz: p.ClockHz}
	found := false
	for _, ps := range p.Prescalers {
		if c := cycles >> ps.Shift; c < p.Resolution {
			rate.Select = ps.Select
			rate.Divisor = ps.Divisor
			rate.Reload = c
			found = true
			break
		}
	}

	if !found {
		last := p.Prescalers[len(p.Prescalers)-1]
		rate.Select = last.Select
		rate.Divisor = last.Divisor
		rate.Reload = p.Resolution - 1
		rate.Saturated = true
	}

	// A zero reload would stop the tick source altogether
	if rate.Reload == 0 {
		rate.Reload = 1
	}

	return rate, nil
}

// TickPeriodNanos returns the time between two ticks in nanoseconds
func (r TickRate) TickPeriodNanos() uint64 {
	if r.ClockHz == 0 {
		return 0
	}
	return 2 * uint64(r.Divisor) * uint64(r.Reload) * 1000000000 / uint64(r.ClockHz)
}

// PWMMilliHertz returns the PWM frequency actually produced, in mHz
func (r TickRate) PWMMilliHertz() uint64 {
	den := 2 * uint64(r.Divisor) * uint64(r.Reload) * CycleSteps
	if den == 0 {
		return 0
	}
	return uint64(r.ClockHz) * 1000 / den
}
