package core

import "errors"

// mockGPIO records every pin write
type mockGPIO struct {
	configured map[GPIOPin]bool
	levels     map[GPIOPin]bool
	rises      map[GPIOPin]int
	writes     map[GPIOPin]int
	failPin    GPIOPin
	failing    bool
	badPin     GPIOPin
	badConfig  bool
}

func newMockGPIO() *mockGPIO {
	return &mockGPIO{
		configured: make(map[GPIOPin]bool),
		levels:     make(map[GPIOPin]bool),
		rises:      make(map[GPIOPin]int),
		writes:     make(map[GPIOPin]int),
	}
}

func (m *mockGPIO) ConfigureOutput(pin GPIOPin) error {
	if m.badConfig && pin == m.badPin {
		return errors.New("pin cannot be an output")
	}
	m.configured[pin] = true
	m.levels[pin] = false
	return nil
}

func (m *mockGPIO) SetPin(pin GPIOPin, value bool) error {
	if m.failing && pin == m.failPin {
		return errors.New("pin write failed")
	}
	if value && !m.levels[pin] {
		m.rises[pin]++
	}
	m.levels[pin] = value
	m.writes[pin]++
	return nil
}

// manualTicker is a tick source driven explicitly by the test
type manualTicker struct {
	profile    TimerProfile
	configures int
	resets     int
	halts      int
	armed      bool
	halted     bool
	rate       TickRate
	handler    func()
}

func newManualTicker(profile TimerProfile) *manualTicker {
	return &manualTicker{profile: profile}
}

func (m *manualTicker) Profile() TimerProfile { return m.profile }

func (m *manualTicker) ConfigureRate(rate TickRate) error {
	m.configures++
	m.rate = rate
	m.halted = false
	return nil
}

func (m *manualTicker) ResetCounter() { m.resets++ }

func (m *manualTicker) ArmInterrupt(handler func()) {
	m.handler = handler
	m.armed = true
}

func (m *manualTicker) DisarmInterrupt() { m.armed = false }

func (m *manualTicker) HaltCounting() {
	m.halts++
	m.halted = true
}

// fire delivers n ticks, as long as the interrupt is armed and counting
func (m *manualTicker) fire(n int) {
	for i := 0; i < n; i++ {
		if !m.armed || m.halted || m.handler == nil {
			return
		}
		m.handler()
	}
}

func newTestEngine() (*Engine, *manualTicker, *mockGPIO) {
	ticker := newManualTicker(AVRTimer2)
	gpio := newMockGPIO()
	return NewEngine(ticker, gpio), ticker, gpio
}
