package console

import (
	"fmt"
	"sort"
	"strconv"

	"softpwm/core"
)

func (c *Console) registerBuiltins() {
	c.Register("init", "init <pin> [hz]", cmdInit)
	c.Register("enable", "enable <pin>", cmdEnable)
	c.Register("disable", "disable <pin>", cmdDisable)
	c.Register("write", "write <pin> <0-255|NN%>", cmdWrite)
	c.Register("close", "close <pin>", cmdClose)
	c.Register("status", "status", cmdStatus)
	c.Register("probe", "probe <pin>", cmdProbe)
	c.Register("events", "events", cmdEvents)
	c.Register("reset", "reset", cmdReset)
	c.Register("debug", "debug <on|off>", cmdDebug)
	c.Register("help", "help", cmdHelp)
}

func cmdInit(c *Console, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrUsage
	}
	pin, err := ParsePin(args[0])
	if err != nil {
		return err
	}
	freq := c.frequency
	if len(args) == 2 {
		n, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("%w: frequency %q", ErrUsage, args[1])
		}
		freq = uint32(n)
	}
	return c.Channel(pin).Initialize(freq)
}

func cmdEnable(c *Console, args []string) error {
	ch, err := c.lookup(args)
	if err != nil {
		return err
	}
	return ch.Enable()
}

func cmdDisable(c *Console, args []string) error {
	ch, err := c.lookup(args)
	if err != nil {
		return err
	}
	ch.Disable()
	return nil
}

func cmdWrite(c *Console, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	ch, err := c.lookup(args)
	if err != nil {
		return err
	}
	duty, err := ParseDuty(args[1])
	if err != nil {
		return err
	}
	ch.Write(duty)
	return nil
}

func cmdClose(c *Console, args []string) error {
	ch, err := c.lookup(args)
	if err != nil {
		return err
	}
	delete(c.channels, ch.Pin())
	return ch.Close()
}

func cmdStatus(c *Console, args []string) error {
	e := c.engine
	rate := e.Rate()

	c.Printf("timer=%s initialized=%t running=%t active=%d/%d\n",
		e.Profile().Name, e.Initialized(), e.Running(), e.Active(), core.MaxChannels)
	if e.Initialized() {
		mhz := rate.PWMMilliHertz()
		c.Printf("select=%d div=%d reload=%d saturated=%t pwm=%d.%03dHz tick=%dns\n",
			rate.Select, rate.Divisor, rate.Reload, rate.Saturated,
			mhz/1000, mhz%1000, rate.TickPeriodNanos())
	}
	c.Printf("counter=%d ticks=%d pin_errors=%d\n", e.Counter(), e.Ticks(), e.PinErrors())

	for _, pin := range c.pins() {
		ch := c.channels[pin]
		c.Printf("pin %d duty=%d committed=%d enabled=%t\n",
			pin, ch.Duty(), ch.Committed(), ch.Enabled())
	}
	return nil
}

func cmdProbe(c *Console, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	if c.meter == nil {
		return ErrNoMeter
	}
	pin, err := ParsePin(args[0])
	if err != nil {
		return err
	}
	permille, period, ok := c.meter.Reading(pin)
	if !ok {
		c.Printf("pin %d steady duty=%d.%d%%\n", pin, permille/10, permille%10)
		return nil
	}
	c.Printf("pin %d duty=%d.%d%% period=%dns\n", pin, permille/10, permille%10, period)
	return nil
}

func cmdEvents(c *Console, args []string) error {
	for _, evt := range core.Events() {
		c.Printf("%s\n", core.FormatEvent(evt))
	}
	return nil
}

func cmdReset(c *Console, args []string) error {
	c.engine.Reset()
	for pin := range c.channels {
		delete(c.channels, pin)
	}
	return nil
}

func cmdHelp(c *Console, args []string) error {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c.Printf("  %s\n", c.commands[name].usage)
	}
	return nil
}

func cmdDebug(c *Console, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	switch args[0] {
	case "on":
		core.SetDebugEnabled(true)
	case "off":
		core.SetDebugEnabled(false)
	default:
		return ErrUsage
	}
	return nil
}
