package core

import (
	"errors"
	"testing"
)

func TestEnableUpToCapacity(t *testing.T) {
	e, _, _ := newTestEngine()

	for i := 0; i < MaxChannels; i++ {
		ch := e.NewChannel(GPIOPin(i + 1))
		if err := ch.Initialize(200); err != nil {
			t.Fatalf("channel %d: Initialize failed: %v", i+1, err)
		}
	}

	extra := e.NewChannel(GPIOPin(MaxChannels + 1))
	if err := extra.Initialize(200); !errors.Is(err, ErrRegistryFull) {
		t.Errorf("expected ErrRegistryFull, got %v", err)
	}
	if extra.Enabled() {
		t.Error("overflow channel should not be enabled")
	}
	if e.Active() != MaxChannels {
		t.Errorf("expected %d active channels, got %d", MaxChannels, e.Active())
	}
}

func TestInitializeRejectedFrequencyLeavesEngineUntouched(t *testing.T) {
	e, ticker, gpio := newTestEngine()

	first := e.NewChannel(5)
	if err := first.Initialize(MaxFrequency + 1); !errors.Is(err, ErrFrequencyOutOfRange) {
		t.Fatalf("expected ErrFrequencyOutOfRange, got %v", err)
	}
	if e.Initialized() || e.Running() {
		t.Error("engine state changed by a rejected frequency")
	}
	if ticker.configures != 0 || ticker.armed {
		t.Error("tick source touched by a rejected frequency")
	}
	if gpio.configured[5] {
		t.Error("pin configured by a rejected frequency")
	}

	second := e.NewChannel(6)
	if err := second.Initialize(200); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if ticker.configures != 1 || ticker.resets != 1 || !ticker.armed {
		t.Errorf("expected full first-time setup, got configures=%d resets=%d armed=%v",
			ticker.configures, ticker.resets, ticker.armed)
	}
	want, _ := AVRTimer2.Compute(200)
	if e.Rate() != want {
		t.Errorf("expected rate %+v, got %+v", want, e.Rate())
	}
}

func TestInitializeFailedPinLeavesTimerIdle(t *testing.T) {
	e, ticker, gpio := newTestEngine()
	gpio.badPin, gpio.badConfig = 7, true

	bad := e.NewChannel(7)
	if err := bad.Initialize(200); err == nil {
		t.Fatal("expected ConfigureOutput error")
	}
	if e.Initialized() || e.Running() {
		t.Errorf("engine changed by failed pin: initialized=%v running=%v", e.Initialized(), e.Running())
	}
	if ticker.configures != 0 || ticker.armed {
		t.Errorf("tick source touched: configures=%d armed=%v", ticker.configures, ticker.armed)
	}

	ticker.fire(10)
	if e.Ticks() != 0 {
		t.Errorf("expected no ticks after failed Initialize, got %d", e.Ticks())
	}

	good := e.NewChannel(8)
	if err := good.Initialize(200); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if !e.Running() || e.Active() != 1 {
		t.Errorf("expected running engine with 1 channel, got running=%v active=%d", e.Running(), e.Active())
	}
}

func TestLaterInitializeKeepsFrequency(t *testing.T) {
	e, ticker, _ := newTestEngine()

	if err := e.NewChannel(1).Initialize(300); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	rate := e.Rate()

	if err := e.NewChannel(2).Initialize(50); err != nil {
		t.Fatalf("second Initialize failed: %v", err)
	}
	if e.Rate() != rate {
		t.Errorf("rate changed from %+v to %+v", rate, e.Rate())
	}
	if ticker.configures != 1 {
		t.Errorf("expected one timer configuration, got %d", ticker.configures)
	}
}

func TestDisableLastHaltsTickSource(t *testing.T) {
	e, ticker, _ := newTestEngine()
	a := e.NewChannel(1)
	b := e.NewChannel(2)
	a.Initialize(100)
	b.Initialize(100)

	ticker.fire(10)
	a.Disable()
	if !ticker.armed || !e.Running() {
		t.Fatal("tick source stopped while a channel is still enabled")
	}

	b.Disable()
	if ticker.armed || !ticker.halted || e.Running() {
		t.Fatalf("expected halted tick source, armed=%v halted=%v", ticker.armed, ticker.halted)
	}

	before := e.Counter()
	ticks := e.Ticks()
	ticker.fire(50)
	if e.Counter() != before || e.Ticks() != ticks {
		t.Errorf("counter advanced after last disable: %d -> %d", before, e.Counter())
	}
}

func TestEnableAfterHaltRestarts(t *testing.T) {
	e, ticker, gpio := newTestEngine()
	ch := e.NewChannel(4)
	ch.Initialize(100)
	ch.Disable()

	if err := ch.Enable(); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	if !ticker.armed || ticker.halted || !e.Running() {
		t.Fatal("tick source not restarted")
	}
	if ticker.configures != 2 {
		t.Errorf("expected timer reprogrammed, got %d configurations", ticker.configures)
	}

	ch.Write(255)
	ticker.fire(CycleSteps)
	if !gpio.levels[4] {
		t.Error("restarted channel not serviced")
	}
}

func TestEnableBeforeInitialize(t *testing.T) {
	e, ticker, _ := newTestEngine()
	early := e.NewChannel(1)

	if err := early.Enable(); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	if e.Running() || ticker.armed {
		t.Error("tick source armed without a frequency")
	}

	if err := e.NewChannel(2).Initialize(150); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if !early.Enabled() || e.Active() != 2 {
		t.Errorf("expected both channels enabled, active=%d", e.Active())
	}
}

func TestResetAllowsNewFrequency(t *testing.T) {
	e, ticker, _ := newTestEngine()
	ch := e.NewChannel(9)
	ch.Initialize(300)
	ticker.fire(17)

	e.Reset()
	if e.Initialized() || e.Running() || ch.Enabled() {
		t.Fatal("Reset left engine state behind")
	}
	if e.Counter() != 0 {
		t.Errorf("expected counter 0 after reset, got %d", e.Counter())
	}

	if err := ch.Initialize(100); err != nil {
		t.Fatalf("Initialize after reset failed: %v", err)
	}
	if e.Rate().Reload != 39 || e.Rate().Divisor != 8 {
		t.Errorf("expected 100Hz rate, got %+v", e.Rate())
	}
}

func TestCloseDrivesPinLow(t *testing.T) {
	e, ticker, gpio := newTestEngine()
	ch := e.NewChannel(8)
	ch.Initialize(200)
	ch.Write(255)
	ticker.fire(10)

	if !gpio.levels[8] {
		t.Fatal("expected pin high before Close")
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if gpio.levels[8] {
		t.Error("expected pin low after Close")
	}
	if e.Active() != 0 || e.Running() {
		t.Error("Close did not release the engine")
	}
}

func TestEventRing(t *testing.T) {
	ClearEventRing()
	e, _, _ := newTestEngine()
	ch := e.NewChannel(3)
	ch.Initialize(200)
	ch.Disable()

	want := []uint8{EvtConfigure, EvtArm, EvtEnable, EvtDisable, EvtHalt}
	got := Events()
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(got))
	}
	for i, evt := range got {
		if evt.Type != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, EventName(want[i]), EventName(evt.Type))
		}
	}
	if got[2].Pin != 3 {
		t.Errorf("expected enable event for pin 3, got %d", got[2].Pin)
	}

	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})
	DumpEventRing()
	if len(lines) != len(want)+2 {
		t.Errorf("expected %d dump lines, got %d", len(want)+2, len(lines))
	}
}
