package sim

import (
	"sync"

	"softpwm/core"
)

// Measurement is the last complete PWM period seen on a pin
type Measurement struct {
	Period uint64 // Rise to rise, nanoseconds
	High   uint64 // Rise to fall, nanoseconds
	Level  bool   // Current level
	Valid  bool   // A full period has been observed
}

// DutyPermille returns the high fraction of the period in 1/1000
func (m Measurement) DutyPermille() uint64 {
	if !m.Valid {
		if m.Level {
			return 1000
		}
		return 0
	}
	if m.Period == 0 {
		return 0
	}
	return m.High * 1000 / m.Period
}

type trace struct {
	level    bool
	rose     bool   // A rising edge has been seen
	lastRise uint64 // Time of the last rising edge
	pulse    uint64 // High time of the pulse that started at lastRise
	m        Measurement
}

// Probe is a core.GPIODriver that records edges and measures the waveform
// on every pin. Time comes from the now function, nanoseconds.
type Probe struct {
	now func() uint64

	mu   sync.Mutex
	pins map[core.GPIOPin]*trace
}

// NewProbe creates a probe timestamped by now
func NewProbe(now func() uint64) *Probe {
	return &Probe{
		now:  now,
		pins: make(map[core.GPIOPin]*trace),
	}
}

// ConfigureOutput implements core.GPIODriver
func (p *Probe) ConfigureOutput(pin core.GPIOPin) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.pins[pin]; !exists {
		p.pins[pin] = &trace{}
	}
	return nil
}

// SetPin implements core.GPIODriver
func (p *Probe) SetPin(pin core.GPIOPin, value bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	tr, exists := p.pins[pin]
	if !exists {
		tr = &trace{}
		p.pins[pin] = tr
	}
	if tr.level == value {
		return nil
	}
	tr.level = value
	now := p.now()

	if value {
		if tr.rose {
			tr.m = Measurement{
				Period: now - tr.lastRise,
				High:   tr.pulse,
				Valid:  true,
			}
		}
		tr.rose = true
		tr.lastRise = now
		tr.pulse = 0
	} else if tr.rose {
		tr.pulse = now - tr.lastRise
	}
	return nil
}

// Level returns the current level of pin
func (p *Probe) Level(pin core.GPIOPin) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if tr, exists := p.pins[pin]; exists {
		return tr.level
	}
	return false
}

// Measure returns the last complete period seen on pin
func (p *Probe) Measure(pin core.GPIOPin) Measurement {
	p.mu.Lock()
	defer p.mu.Unlock()
	tr, exists := p.pins[pin]
	if !exists {
		return Measurement{}
	}
	m := tr.m
	m.Level = tr.level
	return m
}

// Reading reports the measured duty in permille and the period in
// nanoseconds, for use as a console meter
func (p *Probe) Reading(pin core.GPIOPin) (permille, periodNs uint64, ok bool) {
	m := p.Measure(pin)
	return m.DutyPermille(), m.Period, m.Valid
}
