//go:build rp2040

package main

import (
	"errors"
	"machine"

	"softpwm/core"
)

// rpPinCount is the number of user GPIOs, GPIO0-GPIO29
const rpPinCount = 30

var errPinRange = errors.New("gpio out of range")

// RPGPIODriver implements core.GPIODriver for the RP2040.
// SetPin runs in the tick interrupt and does not allocate.
type RPGPIODriver struct{}

// NewRPGPIODriver creates a new RP2040 GPIO driver
func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{}
}

// ConfigureOutput configures a pin as a digital output, initially low
func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	if pin >= rpPinCount {
		return errPinRange
	}
	p := machine.Pin(pin)
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Low()
	return nil
}

// SetPin sets the pin to high (true) or low (false)
func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	if pin >= rpPinCount {
		return errPinRange
	}
	machine.Pin(pin).Set(value)
	return nil
}
