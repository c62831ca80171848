// Package config loads the JSON description of a softpwm setup: which
// timer to emulate, the PWM frequency and the channels to bring up.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"softpwm/core"
)

// Config describes one engine and its channels
type Config struct {
	Timer       string          `json:"timer"`        // Timer profile name, e.g. "avr-timer2"
	FrequencyHz uint32          `json:"frequency_hz"` // PWM frequency, 1..core.MaxFrequency
	Backend     string          `json:"backend"`      // sim, cdev, rpio or periph
	Chip        string          `json:"chip"`         // gpiochip for the cdev backend
	Device      string          `json:"device"`       // Serial device for remote mode
	Baud        int             `json:"baud"`
	Channels    []ChannelConfig `json:"channels"`
}

// ChannelConfig is one output brought up at start
type ChannelConfig struct {
	Name string `json:"name"`
	Pin  uint32 `json:"pin"`
	Duty uint8  `json:"duty"`
}

// Load parses a JSON configuration and fills in defaults
func Load(jsonData []byte) (*Config, error) {
	var cfg Config

	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads and parses a configuration file
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Load(data)
}

// applyDefaults fills in missing configuration values
func applyDefaults(cfg *Config) {
	if cfg.Timer == "" {
		cfg.Timer = core.AVRTimer2.Name
	}
	if cfg.FrequencyHz == 0 {
		cfg.FrequencyHz = core.MaxFrequency
	}
	if cfg.Backend == "" {
		cfg.Backend = "sim"
	}
	if cfg.Chip == "" {
		cfg.Chip = "gpiochip0"
	}
	if cfg.Baud == 0 {
		cfg.Baud = 115200
	}

	for i := range cfg.Channels {
		if cfg.Channels[i].Name == "" {
			cfg.Channels[i].Name = fmt.Sprintf("pwm%d", cfg.Channels[i].Pin)
		}
	}
}

// Validate checks the configuration against what the engine supports
func (c *Config) Validate() error {
	if _, ok := core.ProfileByName(c.Timer); !ok {
		return fmt.Errorf("unknown timer %q", c.Timer)
	}
	if c.FrequencyHz == 0 || c.FrequencyHz > core.MaxFrequency {
		return fmt.Errorf("frequency %dHz: %w", c.FrequencyHz, core.ErrFrequencyOutOfRange)
	}
	switch c.Backend {
	case "sim", "cdev", "rpio", "periph":
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if len(c.Channels) > core.MaxChannels {
		return fmt.Errorf("%d channels configured: %w", len(c.Channels), core.ErrRegistryFull)
	}

	seen := make(map[uint32]string, len(c.Channels))
	for _, ch := range c.Channels {
		if other, dup := seen[ch.Pin]; dup {
			return fmt.Errorf("pin %d used by both %s and %s", ch.Pin, other, ch.Name)
		}
		seen[ch.Pin] = ch.Name
	}
	return nil
}

// Profile returns the timer profile named by the configuration
func (c *Config) Profile() core.TimerProfile {
	p, _ := core.ProfileByName(c.Timer)
	return p
}

// Default returns the configuration used when none is given
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
