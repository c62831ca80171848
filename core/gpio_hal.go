package core

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// GPIODriver is the digital output primitive the engine drives.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output.
	// Called once per channel from Initialize.
	ConfigureOutput(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false).
	// Called from the tick handler, so it must not block.
	SetPin(pin GPIOPin, value bool) error
}
