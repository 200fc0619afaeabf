// Package config loads domesctl's TOML configuration: known devices, serial
// defaults, and merge options.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/pcesar22/domesctl/internal/trace"
	"github.com/pcesar22/domesctl/internal/transport"
)

type Config struct {
	Names   string         `toml:"names"`  // optional span-name table path
	Beacon  string         `toml:"beacon"` // beacon span name for merge alignment
	Serial  SerialConfig   `toml:"serial"`
	Devices []DeviceConfig `toml:"device"`
}

type SerialConfig struct {
	Baud int `toml:"baud"`
}

// DeviceConfig names one device endpoint. Exactly one of Port or Addr must
// be set.
type DeviceConfig struct {
	Name string `toml:"name"`
	Port string `toml:"port"` // serial port, e.g. /dev/ttyACM0
	Addr string `toml:"addr"` // TCP bridge, e.g. 192.168.1.50:5000
}

// Load reads the config at path. An empty or missing path yields defaults.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return defaults(cfg), nil
			}
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	cfg = defaults(cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaults(cfg Config) Config {
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = transport.DefaultBaud
	}
	if cfg.Beacon == "" {
		cfg.Beacon = trace.DefaultBeaconName
	}
	return cfg
}

func Validate(cfg Config) error {
	seen := make(map[string]bool)
	for i, dev := range cfg.Devices {
		if dev.Name == "" {
			return fmt.Errorf("config: device[%d] missing name", i)
		}
		if seen[dev.Name] {
			return fmt.Errorf("config: duplicate device name %q", dev.Name)
		}
		seen[dev.Name] = true
		if (dev.Port == "") == (dev.Addr == "") {
			return fmt.Errorf("config: device %q must set exactly one of port or addr", dev.Name)
		}
	}
	if cfg.Serial.Baud < 0 {
		return fmt.Errorf("config: invalid baud %d", cfg.Serial.Baud)
	}
	return nil
}
