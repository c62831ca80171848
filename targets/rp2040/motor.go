//go:build rp2040

package main

import (
	"machine"
	"strconv"

	"tinygo.org/x/drivers/l293x"

	"softpwm/console"
	"softpwm/core"
)

// PWM_MAX is the top of the soft PWM duty range
const PWM_MAX = 255

// softPWMGroup presents software PWM channels through the same interface
// TinyGo drivers expect from a hardware PWM slice
type softPWMGroup struct {
	con       *console.Console
	frequency uint32
	channels  []*core.Channel
}

var _ l293x.PWM = (*softPWMGroup)(nil)

func newSoftPWMGroup(con *console.Console, frequencyHz uint32) *softPWMGroup {
	return &softPWMGroup{con: con, frequency: frequencyHz}
}

// Configure takes the frequency from config.Period when one is given
func (g *softPWMGroup) Configure(config machine.PWMConfig) error {
	return g.SetPeriod(config.Period)
}

// SetPeriod sets the frequency used by channels initialized afterwards.
// The engine keeps the first frequency it was started with.
func (g *softPWMGroup) SetPeriod(period uint64) error {
	if period == 0 {
		return nil
	}
	hz := 1000000000 / period
	if hz == 0 || hz > core.MaxFrequency {
		return core.ErrFrequencyOutOfRange
	}
	g.frequency = uint32(hz)
	return nil
}

// Channel brings up a soft PWM channel on pin and returns its index
func (g *softPWMGroup) Channel(pin machine.Pin) (uint8, error) {
	for i, ch := range g.channels {
		if ch.Pin() == core.GPIOPin(pin) {
			return uint8(i), nil
		}
	}

	ch := g.con.Channel(core.GPIOPin(pin))
	if err := ch.Initialize(g.frequency); err != nil {
		return 0, err
	}
	g.channels = append(g.channels, ch)
	return uint8(len(g.channels) - 1), nil
}

// ensure re-enables a channel dropped by a console close or reset
func (g *softPWMGroup) ensure(channel uint8) error {
	ch := g.channels[channel]
	if ch.Enabled() {
		return nil
	}
	return ch.Initialize(g.frequency)
}

// Top returns the maximum duty value
func (g *softPWMGroup) Top() uint32 {
	return PWM_MAX
}

// Set writes the duty cycle of a channel
func (g *softPWMGroup) Set(channel uint8, value uint32) {
	if int(channel) >= len(g.channels) {
		return
	}
	if value > PWM_MAX {
		value = PWM_MAX
	}
	g.channels[channel].Write(uint8(value))
}

// motor is an L293x bridge whose enable pin is a soft PWM channel
type motor struct {
	dev l293x.PWMDevice
	spc uint8
}

// motors holds the bridges created by the motor command, by enable pin
var motors = map[machine.Pin]*motor{}

// registerMotorCommand adds "motor <a1> <a2> <en> <speed>" where speed is
// -100..100 percent and the sign selects direction
func registerMotorCommand(con *console.Console, group *softPWMGroup) {
	con.Register("motor", "motor <a1> <a2> <en> <-100..100>", func(c *console.Console, args []string) error {
		if len(args) != 4 {
			return console.ErrUsage
		}
		var pins [3]machine.Pin
		for i := range pins {
			p, err := console.ParsePin(args[i])
			if err != nil {
				return err
			}
			pins[i] = machine.Pin(p)
		}
		speed, err := strconv.Atoi(args[3])
		if err != nil || speed < -100 || speed > 100 {
			return console.ErrUsage
		}

		m, exists := motors[pins[2]]
		if !exists {
			spc, err := group.Channel(pins[2])
			if err != nil {
				return err
			}
			m = &motor{dev: l293x.NewWithSpeed(pins[0], pins[1], spc, group), spc: spc}
			if err := m.dev.Configure(); err != nil {
				return err
			}
			motors[pins[2]] = m
		}
		if err := group.ensure(m.spc); err != nil {
			return err
		}

		switch {
		case speed > 0:
			m.dev.Forward(uint32(speed))
		case speed < 0:
			m.dev.Backward(uint32(-speed))
		default:
			m.dev.Stop()
		}
		c.Printf("motor en=%d duty=%d\n", pins[2], group.channels[m.spc].Duty())
		return nil
	})
}
