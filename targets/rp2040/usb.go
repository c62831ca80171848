//go:build rp2040

package main

import (
	"machine"
	"time"
)

// InitUSB configures machine.Serial, which is USB CDC on the RP2040
func InitUSB() {
	err := machine.Serial.Configure(machine.UARTConfig{})
	if err != nil {
		return
	}
}

// usbPort is a blocking io.ReadWriter over USB CDC
type usbPort struct{}

// Read waits for at least one byte, then drains what is buffered
func (usbPort) Read(p []byte) (int, error) {
	for machine.Serial.Buffered() == 0 {
		// Yield to avoid a busy loop
		time.Sleep(1 * time.Millisecond)
	}

	n := 0
	for n < len(p) && machine.Serial.Buffered() > 0 {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			return n, err
		}
		p[n] = b
		n++
	}
	return n, nil
}

// Write converts line feeds for terminal programs
func (usbPort) Write(p []byte) (int, error) {
	start := 0
	for i, b := range p {
		if b != '\n' {
			continue
		}
		if _, err := machine.Serial.Write(p[start:i]); err != nil {
			return start, err
		}
		if _, err := machine.Serial.Write([]byte("\r\n")); err != nil {
			return i, err
		}
		start = i + 1
	}
	if start < len(p) {
		if _, err := machine.Serial.Write(p[start:]); err != nil {
			return start, err
		}
	}
	return len(p), nil
}
