// Package console is the line oriented command interface to an engine.
// The host tool and the firmware both run it: the host over stdin, the
// firmware over USB serial.
//
// Every command reply ends with a line reading "ok" or "error: <reason>",
// so a remote client knows where a reply stops.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"softpwm/config"
	"softpwm/core"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("bad arguments")
	ErrNoChannel      = errors.New("no channel on pin")
	ErrNoMeter        = errors.New("no meter attached")
)

// Meter measures the waveform on a pin
type Meter interface {
	Reading(pin core.GPIOPin) (permille, periodNs uint64, ok bool)
}

// Handler runs one command. args excludes the command name.
type Handler func(c *Console, args []string) error

type command struct {
	usage   string
	handler Handler
}

// Console interprets commands against one engine
type Console struct {
	engine    *core.Engine
	out       io.Writer
	meter     Meter
	frequency uint32

	channels map[core.GPIOPin]*core.Channel
	commands map[string]command
}

// New creates a console writing replies to out
func New(engine *core.Engine, out io.Writer) *Console {
	c := &Console{
		engine:    engine,
		out:       out,
		frequency: core.MaxFrequency,
		channels:  make(map[core.GPIOPin]*core.Channel),
		commands:  make(map[string]command),
	}
	c.registerBuiltins()
	return c
}

// SetMeter attaches a meter for the probe command
func (c *Console) SetMeter(m Meter) {
	c.meter = m
}

// SetFrequency sets the frequency init uses when none is given
func (c *Console) SetFrequency(hz uint32) {
	c.frequency = hz
}

// Register adds a command. A later registration replaces an earlier one.
func (c *Console) Register(name, usage string, h Handler) {
	c.commands[name] = command{usage: usage, handler: h}
}

// Engine returns the engine the console drives
func (c *Console) Engine() *core.Engine {
	return c.engine
}

// Printf writes formatted output
func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// Channel returns the channel on pin, creating it if needed
func (c *Console) Channel(pin core.GPIOPin) *core.Channel {
	ch, exists := c.channels[pin]
	if !exists {
		ch = c.engine.NewChannel(pin)
		c.channels[pin] = ch
	}
	return ch
}

// Apply brings up every channel of cfg at the configured frequency
func (c *Console) Apply(cfg *config.Config) error {
	c.frequency = cfg.FrequencyHz
	for _, cc := range cfg.Channels {
		ch := c.Channel(core.GPIOPin(cc.Pin))
		if err := ch.Initialize(cfg.FrequencyHz); err != nil {
			return fmt.Errorf("channel %s: %w", cc.Name, err)
		}
		ch.Write(cc.Duty)
	}
	return nil
}

// Exec runs one command line. Blank lines and comments do nothing.
func (c *Console) Exec(line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if len(args) == 0 {
		return nil
	}

	cmd, exists := c.commands[strings.ToLower(args[0])]
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
	return cmd.handler(c, args[1:])
}

// Serve reads command lines from r until EOF, terminating every reply
func (c *Console) Serve(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		c.Reply(c.Exec(scanner.Text()))
	}
	return scanner.Err()
}

// Reply writes the terminating line for a command result
func (c *Console) Reply(err error) {
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "ok")
}

// ParsePin parses a GPIO number
func ParsePin(s string) (core.GPIOPin, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: pin %q", ErrUsage, s)
	}
	return core.GPIOPin(n), nil
}

// ParseDuty parses a raw duty 0..255 or a percentage such as "25%"
func ParseDuty(s string) (uint8, error) {
	if pct, ok := strings.CutSuffix(s, "%"); ok {
		n, err := strconv.ParseUint(pct, 10, 8)
		if err != nil || n > 100 {
			return 0, fmt.Errorf("%w: duty %q", ErrUsage, s)
		}
		return uint8((n*255 + 50) / 100), nil
	}
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: duty %q", ErrUsage, s)
	}
	return uint8(n), nil
}

// lookup returns the existing channel named by args[0]
func (c *Console) lookup(args []string) (*core.Channel, error) {
	if len(args) < 1 {
		return nil, ErrUsage
	}
	pin, err := ParsePin(args[0])
	if err != nil {
		return nil, err
	}
	ch, exists := c.channels[pin]
	if !exists {
		return nil, fmt.Errorf("%w %d", ErrNoChannel, pin)
	}
	return ch, nil
}

// pins returns the known channel pins in ascending order
func (c *Console) pins() []core.GPIOPin {
	pins := make([]core.GPIOPin, 0, len(c.channels))
	for pin := range c.channels {
		pins = append(pins, pin)
	}
	sort.Slice(pins, func(i, j int) bool { return pins[i] < pins[j] })
	return pins
}
