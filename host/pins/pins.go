// Package pins adapts host GPIO libraries to core.GPIODriver.
package pins

import (
	"fmt"

	"softpwm/core"
)

// Driver is a core.GPIODriver that owns host resources
type Driver interface {
	core.GPIODriver

	// Close releases every line the driver claimed
	Close() error
}

// Open returns the driver for a backend name. chip names the gpiochip for
// the cdev backend; periph pins are looked up as GPIO<n>.
func Open(backend, chip string) (Driver, error) {
	switch backend {
	case "cdev":
		return NewCdevDriver(chip), nil
	case "rpio":
		return NewRpioDriver()
	case "periph":
		return NewPeriphDriver("GPIO")
	}
	return nil, fmt.Errorf("unknown gpio backend %q", backend)
}
