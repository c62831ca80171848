package core

import "errors"

var (
	// ErrFrequencyOutOfRange is returned for a PWM frequency of zero or above MaxFrequency
	ErrFrequencyOutOfRange = errors.New("pwm frequency out of range")

	// ErrRegistryFull is returned when every channel slot is taken
	ErrRegistryFull = errors.New("no free pwm channel slot")

	// ErrNoPrescaler is returned for a timer profile without prescaler options
	ErrNoPrescaler = errors.New("timer profile has no prescalers")
)
