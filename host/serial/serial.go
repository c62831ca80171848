package serial

import (
	"io"
)

// Port is the byte stream to a board running the softpwm console.
// Tests substitute an in-memory pipe.
type Port interface {
	io.ReadWriteCloser

	// Flush discards or drains buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate (USB CDC ignores this)
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the console defaults for device
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}
