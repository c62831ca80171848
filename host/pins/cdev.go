package pins

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"softpwm/core"
)

// cdevLine is the part of *gpiocdev.Line the driver uses
type cdevLine interface {
	SetValue(value int) error
	Reconfigure(options ...gpiocdev.LineConfigOption) error
	Close() error
}

// CdevDriver drives lines of a Linux gpiochip through the character device
type CdevDriver struct {
	chip string

	mu    sync.Mutex
	lines map[core.GPIOPin]cdevLine
}

// NewCdevDriver creates a driver for chip, e.g. "gpiochip0"
func NewCdevDriver(chip string) *CdevDriver {
	return &CdevDriver{
		chip:  chip,
		lines: make(map[core.GPIOPin]cdevLine),
	}
}

// ConfigureOutput requests the line as an output, initially low
func (d *CdevDriver) ConfigureOutput(pin core.GPIOPin) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.lines[pin]; exists {
		return nil
	}
	line, err := gpiocdev.RequestLine(d.chip, int(pin),
		gpiocdev.AsOutput(0),
		gpiocdev.WithConsumer("softpwm"))
	if err != nil {
		return fmt.Errorf("request %s line %d: %w", d.chip, pin, err)
	}
	d.lines[pin] = line
	return nil
}

// SetPin implements core.GPIODriver
func (d *CdevDriver) SetPin(pin core.GPIOPin, value bool) error {
	d.mu.Lock()
	line := d.lines[pin]
	d.mu.Unlock()

	if line == nil {
		return fmt.Errorf("line %d not configured", pin)
	}
	v := 0
	if value {
		v = 1
	}
	return line.SetValue(v)
}

// Close returns every line to input and releases it
func (d *CdevDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var first error
	for pin, line := range d.lines {
		if err := line.Reconfigure(gpiocdev.AsInput); err != nil && first == nil {
			first = fmt.Errorf("release %s line %d: %w", d.chip, pin, err)
		}
		if err := line.Close(); err != nil && first == nil {
			first = err
		}
		delete(d.lines, pin)
	}
	return first
}
