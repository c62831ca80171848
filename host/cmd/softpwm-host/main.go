package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"periph.io/x/conn/v3/physic"

	"softpwm/config"
	"softpwm/console"
	"softpwm/core"
	"softpwm/host/mcu"
	"softpwm/host/pins"
	"softpwm/host/sim"
	"softpwm/host/ticker"
)

var (
	configPath = flag.String("config", "", "JSON configuration file")
	backend    = flag.String("backend", "", "GPIO backend: sim, cdev, rpio or periph")
	timer      = flag.String("timer", "", "Timer profile: avr-timer1, avr-timer2 or rp2040-alarm")
	chip       = flag.String("chip", "", "gpiochip for the cdev backend")
	device     = flag.String("device", "", "Serial device of a softpwm board (remote mode)")
	baud       = flag.Int("baud", 0, "Baud rate (ignored for USB CDC)")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")

	frequency physic.Frequency
)

func init() {
	flag.Var(&frequency, "freq", "PWM frequency, e.g. 300Hz")
}

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		core.SetDebugWriter(func(s string) { log.Println(s) })
		core.SetDebugEnabled(true)
	}

	fmt.Println("softpwm host")
	fmt.Println("============")

	if cfg.Device != "" {
		err = runRemote(cfg)
	} else {
		err = runLocal(cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig merges the config file with command line overrides
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			return nil, err
		}
	}

	if *backend != "" {
		cfg.Backend = *backend
	}
	if *timer != "" {
		cfg.Timer = *timer
	}
	if *chip != "" {
		cfg.Chip = *chip
	}
	if *device != "" {
		cfg.Device = *device
	}
	if *baud != 0 {
		cfg.Baud = *baud
	}
	if frequency != 0 {
		if frequency%physic.Hertz != 0 {
			return nil, fmt.Errorf("frequency %s is not a whole number of hertz", frequency)
		}
		cfg.FrequencyHz = uint32(frequency / physic.Hertz)
	}

	return cfg, cfg.Validate()
}

func runLocal(cfg *config.Config) error {
	profile := cfg.Profile()

	var (
		tick core.TickSource
		gpio core.GPIODriver
		con  *console.Console
	)

	if cfg.Backend == "sim" {
		clock := sim.NewClock()
		probe := sim.NewProbe(clock.Now)
		tick, gpio = sim.NewTicker(clock, profile), probe
		con = console.New(core.NewEngine(tick, gpio), os.Stdout)
		con.SetMeter(probe)
		con.Register("advance", "advance <ms>", func(c *console.Console, args []string) error {
			if len(args) != 1 {
				return console.ErrUsage
			}
			ms, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("%w: %q", console.ErrUsage, args[0])
			}
			clock.Advance(ms * uint64(time.Millisecond))
			return nil
		})
	} else {
		drv, err := pins.Open(cfg.Backend, cfg.Chip)
		if err != nil {
			return err
		}
		defer drv.Close()
		tick, gpio = ticker.New(profile), drv
		con = console.New(core.NewEngine(tick, gpio), os.Stdout)
	}

	engine := con.Engine()
	defer engine.Reset()

	if err := con.Apply(cfg); err != nil {
		return err
	}
	con.SetFrequency(cfg.FrequencyHz)

	fmt.Printf("timer %s, backend %s, %d channel(s)\n", profile.Name, cfg.Backend, engine.Active())
	if engine.Initialized() {
		pwm := physic.Frequency(engine.Rate().PWMMilliHertz()) * physic.MilliHertz
		fmt.Printf("PWM frequency %s\n", pwm)
	}
	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")

	return repl(os.Stdin, func(line string) {
		con.Reply(con.Exec(line))
	})
}

func runRemote(cfg *config.Config) error {
	m := mcu.NewMCU()

	fmt.Printf("Connecting to %s...\n", cfg.Device)
	if err := m.Connect(cfg.Device, cfg.Baud); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer m.Close()
	fmt.Println("Connected successfully!")

	for _, cc := range cfg.Channels {
		for _, line := range []string{
			fmt.Sprintf("init %d %d", cc.Pin, cfg.FrequencyHz),
			fmt.Sprintf("write %d %d", cc.Pin, cc.Duty),
		} {
			if _, err := m.Exec(line, 2*time.Second); err != nil {
				return fmt.Errorf("channel %s: %w", cc.Name, err)
			}
		}
	}

	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")

	return repl(os.Stdin, func(line string) {
		body, err := m.Exec(line, 2*time.Second)
		for _, l := range body {
			fmt.Println(l)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	})
}

// repl feeds stdin lines to exec until EOF or quit
func repl(in io.Reader, exec func(line string)) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return nil
		}
		exec(line)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}
