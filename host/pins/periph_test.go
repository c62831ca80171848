package pins

import (
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"softpwm/core"
)

func TestPeriphDriver(t *testing.T) {
	fake := &gpiotest.Pin{N: "GPIO17", Num: 17}
	lookup := func(name string) gpio.PinIO {
		if name == fake.N {
			return fake
		}
		return nil
	}
	d := newPeriphDriver(lookup, "")

	if err := d.SetPin(17, true); err == nil {
		t.Error("SetPin before ConfigureOutput should fail")
	}
	if err := d.ConfigureOutput(4); err == nil {
		t.Error("ConfigureOutput of unknown pin should fail")
	}

	if err := d.ConfigureOutput(17); err != nil {
		t.Fatalf("ConfigureOutput: %v", err)
	}
	if fake.L != gpio.Low {
		t.Errorf("level after configure = %v, want Low", fake.L)
	}

	if err := d.SetPin(17, true); err != nil {
		t.Fatalf("SetPin: %v", err)
	}
	if fake.L != gpio.High {
		t.Errorf("level = %v, want High", fake.L)
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if fake.L != gpio.Low {
		t.Errorf("level after Close = %v, want Low", fake.L)
	}
}

func TestPeriphDriverWithEngine(t *testing.T) {
	fake := &gpiotest.Pin{N: "P1_11", Num: 17}
	d := newPeriphDriver(func(name string) gpio.PinIO {
		if name == "P1_11" {
			return fake
		}
		return nil
	}, "P1_")

	tk := &stepTicker{}
	engine := core.NewEngine(tk, d)
	ch := engine.NewChannel(11)
	if err := ch.Initialize(100); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	ch.Write(2)

	tk.handler() // Counter 0: commit and rise
	if fake.L != gpio.High {
		t.Fatalf("level after cycle start = %v, want High", fake.L)
	}
	tk.handler()
	tk.handler() // Counter 2: fall
	if fake.L != gpio.Low {
		t.Errorf("level after duty elapsed = %v, want Low", fake.L)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("bogus", ""); err == nil {
		t.Error("expected error for unknown backend")
	}
}

// stepTicker hands the tick handler to the test
type stepTicker struct {
	handler func()
}

func (s *stepTicker) Profile() core.TimerProfile       { return core.AVRTimer2 }
func (s *stepTicker) ConfigureRate(core.TickRate) error { return nil }
func (s *stepTicker) ResetCounter()                     {}
func (s *stepTicker) ArmInterrupt(h func())             { s.handler = h }
func (s *stepTicker) DisarmInterrupt()                  {}
func (s *stepTicker) HaltCounting()                     {}
