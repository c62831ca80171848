package pins

import (
	"fmt"
	"strconv"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"softpwm/core"
)

// PeriphDriver drives pins registered with periph.io by name. Pin numbers
// are looked up as prefix+number, e.g. "GPIO17".
type PeriphDriver struct {
	lookup func(name string) gpio.PinIO
	prefix string

	mu   sync.Mutex
	pins map[core.GPIOPin]gpio.PinIO
}

// NewPeriphDriver initializes the periph.io host drivers
func NewPeriphDriver(prefix string) (*PeriphDriver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	return newPeriphDriver(gpioreg.ByName, prefix), nil
}

func newPeriphDriver(lookup func(string) gpio.PinIO, prefix string) *PeriphDriver {
	if prefix == "" {
		prefix = "GPIO"
	}
	return &PeriphDriver{
		lookup: lookup,
		prefix: prefix,
		pins:   make(map[core.GPIOPin]gpio.PinIO),
	}
}

// ConfigureOutput implements core.GPIODriver
func (d *PeriphDriver) ConfigureOutput(pin core.GPIOPin) error {
	name := d.prefix + strconv.FormatUint(uint64(pin), 10)
	p := d.lookup(name)
	if p == nil {
		return fmt.Errorf("no pin named %s", name)
	}
	if err := p.Out(gpio.Low); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	d.mu.Lock()
	d.pins[pin] = p
	d.mu.Unlock()
	return nil
}

// SetPin implements core.GPIODriver
func (d *PeriphDriver) SetPin(pin core.GPIOPin, value bool) error {
	d.mu.Lock()
	p := d.pins[pin]
	d.mu.Unlock()

	if p == nil {
		return fmt.Errorf("pin %d not configured", pin)
	}
	return p.Out(gpio.Level(value))
}

// Close drives every configured pin low
func (d *PeriphDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var first error
	for pin, p := range d.pins {
		if err := p.Out(gpio.Low); err != nil && first == nil {
			first = err
		}
		delete(d.pins, pin)
	}
	return first
}
