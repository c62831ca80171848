//go:build rp2040

package main

import (
	"device/rp"
	"errors"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"

	"softpwm/core"
)

// RP2040 Timer peripheral memory map. ALARM0 belongs to the TinyGo
// runtime, so the tick source uses ALARM1.
const (
	timerBase   = 0x40054000
	timerALARM1 = timerBase + 0x14
	timerARMED  = timerBase + 0x20
	timerRAWL   = timerBase + 0x28
	timerINTR   = timerBase + 0x34
	timerINTE   = timerBase + 0x38

	alarmBit = 1 << 1
)

var (
	regALARM1 = (*volatile.Register32)(unsafe.Pointer(uintptr(timerALARM1)))
	regARMED  = (*volatile.Register32)(unsafe.Pointer(uintptr(timerARMED)))
	regRAWL   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerRAWL)))
	regINTR   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTR)))
	regINTE   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTE)))
)

// alarmTicker is a core.TickSource on the 1MHz microsecond timer.
// There is one ALARM1, so there is one instance.
type alarmTicker struct {
	period   uint32 // Microseconds between ticks
	target   uint32 // Next alarm time
	counting volatile.Register8
	handler  func()
}

var alarm alarmTicker

// newAlarmTicker hooks the ALARM1 interrupt and returns the tick source
func newAlarmTicker() *alarmTicker {
	intr := interrupt.New(rp.IRQ_TIMER_IRQ_1, alarmISR)
	intr.Enable()
	return &alarm
}

// Profile implements core.TickSource
func (a *alarmTicker) Profile() core.TimerProfile {
	return core.RP2040Alarm
}

// ConfigureRate implements core.TickSource. The timer counts
// microseconds, so the period is the reload scaled by the divisor.
func (a *alarmTicker) ConfigureRate(rate core.TickRate) error {
	period := 2 * rate.Divisor * rate.Reload
	if period == 0 {
		return errors.New("zero tick period")
	}

	state := interrupt.Disable()
	a.period = period
	a.counting.Set(1)
	interrupt.Restore(state)

	a.ResetCounter()
	return nil
}

// ResetCounter implements core.TickSource
func (a *alarmTicker) ResetCounter() {
	state := interrupt.Disable()
	if a.counting.Get() != 0 {
		a.target = regRAWL.Get() + a.period
		regALARM1.Set(a.target)
	}
	interrupt.Restore(state)
}

// ArmInterrupt implements core.TickSource
func (a *alarmTicker) ArmInterrupt(handler func()) {
	state := interrupt.Disable()
	a.handler = handler
	regINTR.Set(alarmBit)
	regINTE.SetBits(alarmBit)
	interrupt.Restore(state)
}

// DisarmInterrupt implements core.TickSource
func (a *alarmTicker) DisarmInterrupt() {
	regINTE.ClearBits(alarmBit)
}

// HaltCounting implements core.TickSource
func (a *alarmTicker) HaltCounting() {
	state := interrupt.Disable()
	a.counting.Set(0)
	regARMED.Set(alarmBit) // Write 1 to disarm
	regINTR.Set(alarmBit)
	interrupt.Restore(state)
}

// alarmISR re-arms ALARM1 before running the tick handler so the cadence
// does not drift with handler time
func alarmISR(interrupt.Interrupt) {
	regINTR.Set(alarmBit)

	a := &alarm
	if a.counting.Get() == 0 {
		return
	}

	a.target += a.period
	// Overran a whole period; restart from now rather than wait for wrap
	if int32(a.target-regRAWL.Get()) <= 0 {
		a.target = regRAWL.Get() + a.period
	}
	regALARM1.Set(a.target)

	if a.handler != nil {
		a.handler()
	}
}
