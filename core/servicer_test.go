package core

import "testing"

// sampleTicks fires n ticks and records the pin level after each one
func sampleTicks(ticker *manualTicker, gpio *mockGPIO, pin GPIOPin, n int) []bool {
	levels := make([]bool, n)
	for i := 0; i < n; i++ {
		ticker.fire(1)
		levels[i] = gpio.levels[pin]
	}
	return levels
}

func TestCycleWaveform(t *testing.T) {
	for _, duty := range []uint8{1, 64, 128, 200, 254} {
		e, ticker, gpio := newTestEngine()
		ch := e.NewChannel(2)
		if err := ch.Initialize(200); err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}
		ch.Write(duty)

		levels := sampleTicks(ticker, gpio, 2, CycleSteps)
		for i, high := range levels {
			want := i < int(duty)
			if high != want {
				t.Errorf("duty %d tick %d: expected high=%v, got %v", duty, i, want, high)
				break
			}
		}
		if ch.Committed() != duty {
			t.Errorf("duty %d: committed %d", duty, ch.Committed())
		}
	}
}

func TestCycleWaveformExtremes(t *testing.T) {
	tests := []struct {
		duty uint8
		high bool
	}{
		{0, false},
		{255, true},
	}

	for _, test := range tests {
		e, ticker, gpio := newTestEngine()
		ch := e.NewChannel(2)
		ch.Initialize(200)
		ch.Write(test.duty)

		// Two cycles so the wrap from 255 to 0 is covered
		levels := sampleTicks(ticker, gpio, 2, 2*CycleSteps)
		for i, high := range levels {
			if high != test.high {
				t.Errorf("duty %d tick %d: expected high=%v", test.duty, i, test.high)
				break
			}
		}
		if test.duty == 255 && gpio.rises[2] != 1 {
			t.Errorf("duty 255 should rise once and never fall, rises=%d", gpio.rises[2])
		}
	}
}

func TestWriteTakesEffectAtCycleBoundary(t *testing.T) {
	e, ticker, gpio := newTestEngine()
	ch := e.NewChannel(6)
	ch.Initialize(200)
	ch.Write(64)

	first := sampleTicks(ticker, gpio, 6, 100)
	ch.Write(200)
	rest := sampleTicks(ticker, gpio, 6, CycleSteps-100)

	cycle := append(first, rest...)
	for i, high := range cycle {
		if want := i < 64; high != want {
			t.Fatalf("tick %d of old cycle: expected high=%v, got %v", i, want, high)
		}
	}
	if ch.Committed() != 64 || ch.Duty() != 200 {
		t.Errorf("expected committed 64 pending 200, got %d/%d", ch.Committed(), ch.Duty())
	}

	next := sampleTicks(ticker, gpio, 6, CycleSteps)
	for i, high := range next {
		if want := i < 200; high != want {
			t.Fatalf("tick %d of new cycle: expected high=%v, got %v", i, want, high)
		}
	}
}

func TestCompactionKeepsServicing(t *testing.T) {
	e, ticker, gpio := newTestEngine()

	chans := make([]*Channel, MaxChannels)
	for i := range chans {
		chans[i] = e.NewChannel(GPIOPin(i + 1))
		if err := chans[i].Initialize(200); err != nil {
			t.Fatalf("Initialize %d failed: %v", i+1, err)
		}
		chans[i].Write(uint8(10 * (i + 1)))
	}
	ticker.fire(CycleSteps)

	chans[1].Disable()
	fresh := e.NewChannel(9)
	if err := fresh.Initialize(200); err != nil {
		t.Fatalf("Initialize of replacement failed: %v", err)
	}
	fresh.Write(50)

	gpio.rises = make(map[GPIOPin]int)
	gpio.writes = make(map[GPIOPin]int)
	ticker.fire(CycleSteps)

	for _, pin := range []GPIOPin{1, 3, 4, 9} {
		if gpio.rises[pin] != 1 || gpio.writes[pin] != 2 {
			t.Errorf("pin %d: expected one rise and two writes, got %d rises %d writes",
				pin, gpio.rises[pin], gpio.writes[pin])
		}
	}
	if gpio.writes[2] != 0 {
		t.Errorf("disabled pin 2 still serviced: %d writes", gpio.writes[2])
	}
}

func TestCounterWraps(t *testing.T) {
	e, ticker, _ := newTestEngine()
	e.NewChannel(1).Initialize(300)

	ticker.fire(CycleSteps - 1)
	if e.Counter() != 255 {
		t.Fatalf("expected counter 255, got %d", e.Counter())
	}
	ticker.fire(1)
	if e.Counter() != 0 {
		t.Errorf("expected counter to wrap to 0, got %d", e.Counter())
	}
	if e.Ticks() != CycleSteps {
		t.Errorf("expected %d ticks, got %d", CycleSteps, e.Ticks())
	}
}

func TestPinErrorsDoNotStopServicing(t *testing.T) {
	e, ticker, gpio := newTestEngine()
	bad := e.NewChannel(1)
	good := e.NewChannel(2)
	bad.Initialize(200)
	good.Initialize(200)
	bad.Write(100)
	good.Write(100)

	gpio.failPin = 1
	gpio.failing = true
	ticker.fire(CycleSteps)

	if e.PinErrors() != 2 {
		t.Errorf("expected 2 pin errors, got %d", e.PinErrors())
	}
	if gpio.rises[2] != 1 {
		t.Errorf("healthy channel not serviced, rises=%d", gpio.rises[2])
	}
}
