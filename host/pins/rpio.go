package pins

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"

	"softpwm/core"
)

// rpioPins is the number of BCM GPIO lines reachable through /dev/gpiomem
const rpioPins = 54

// RpioDriver drives Raspberry Pi BCM pins through memory mapped registers
type RpioDriver struct{}

// NewRpioDriver maps the GPIO registers
func NewRpioDriver() (*RpioDriver, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("rpio open: %w", err)
	}
	return &RpioDriver{}, nil
}

// ConfigureOutput implements core.GPIODriver
func (d *RpioDriver) ConfigureOutput(pin core.GPIOPin) error {
	if pin >= rpioPins {
		return fmt.Errorf("bcm pin %d out of range", pin)
	}
	p := rpio.Pin(pin)
	p.Output()
	p.Low()
	return nil
}

// SetPin implements core.GPIODriver
func (d *RpioDriver) SetPin(pin core.GPIOPin, value bool) error {
	if pin >= rpioPins {
		return fmt.Errorf("bcm pin %d out of range", pin)
	}
	if value {
		rpio.Pin(pin).High()
	} else {
		rpio.Pin(pin).Low()
	}
	return nil
}

// Close unmaps the GPIO registers
func (d *RpioDriver) Close() error {
	return rpio.Close()
}
