//go:build rp2040

package main

import (
	"machine"
	"time"

	"softpwm/config"
	"softpwm/console"
	"softpwm/core"
)

// msgerrors counts console failures and recovered panics
var msgerrors uint32

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()

	port := usbPort{}
	core.SetDebugWriter(func(s string) {
		port.Write([]byte(s + "\n"))
	})

	cfg := config.Default()
	cfg.Timer = core.RP2040Alarm.Name

	engine := core.NewEngine(newAlarmTicker(), NewRPGPIODriver())
	con := console.New(engine, port)
	if err := con.Apply(cfg); err != nil {
		con.Reply(err)
	}
	registerMotorCommand(con, newSoftPWMGroup(con, cfg.FrequencyHz))
	con.Register("stats", "stats", func(c *console.Console, args []string) error {
		c.Printf("console_errors=%d pin_errors=%d\n", msgerrors, engine.PinErrors())
		return nil
	})

	for {
		serve(con, port)
		time.Sleep(100 * time.Millisecond)
	}
}

// serve runs the console until the reader fails or a command panics
func serve(con *console.Console, port usbPort) {
	defer func() {
		if r := recover(); r != nil {
			msgerrors++
		}
	}()
	if err := con.Serve(port); err != nil {
		msgerrors++
	}
}
