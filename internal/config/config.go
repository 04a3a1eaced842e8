// Package config loads and persists the driver's JSON configuration
// document, grounded on standalone/config.LoadConfig's
// parse-then-applyDefaults shape: unmarshal whatever is on disk, then
// fill in anything the file omitted so a half-written or pre-v1 config
// file never produces a zero-valued field.
package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/robofocus/alpaca-bridge/internal/focuser"
)

// Server holds HTTP/discovery listener settings (spec.md §6).
type Server struct {
	ListenAddress  string `json:"listen_address"`
	DiscoveryPort  int    `json:"discovery_port"`
	ServerVersion  string `json:"server_version"`
}

// Serial holds the real transport's connection settings.
type Serial struct {
	Port    string `json:"port"`
	BaudRate int   `json:"baud_rate"`
}

// Simulator holds the in-process simulator's seed parameters, used
// when Focuser.UseSimulator is true.
type Simulator struct {
	Firmware         string  `json:"firmware"`
	InitialPosition  int     `json:"initial_position"`
	MaxTravel        int     `json:"max_travel"`
	Backlash         int     `json:"backlash"`
	SpeedStepsPerSec float64 `json:"speed_steps_per_sec"`
	BaseTempCelsius  float64 `json:"base_temp_celsius"`
	TempNoise        float64 `json:"temp_noise"`
	TempDriftPerMin  float64 `json:"temp_drift_per_min"`

	// Seed drives the temperature noise/drift random walk. Fixed at
	// zero by default so repeated runs (and tests) are reproducible;
	// operators running a long-lived simulator for demo purposes can
	// set a non-zero value for varied output.
	Seed int64 `json:"seed"`
}

// Focuser holds the controller's tunables (spec.md §4.2/§5 defaults)
// plus which transport backend to use.
type Focuser struct {
	UseSimulator bool `json:"use_simulator"`

	CommandTimeoutMS         int `json:"command_timeout_ms"`
	IdlePollIntervalMS       int `json:"idle_poll_interval_ms"`
	ActivePollIntervalMS     int `json:"active_poll_interval_ms"`
	HaltSafetyDeadlineMS     int `json:"halt_safety_deadline_ms"`
	SettlingDelayMS          int `json:"settling_delay_ms"`
	TemperatureRefreshMS     int `json:"temperature_refresh_ms"`

	DefaultBacklash  int `json:"default_backlash"`
	DefaultMaxTravel int `json:"default_max_travel"`
	MaxIncrement     int `json:"max_increment"`
	MinPosition      int `json:"min_position"`

	AllowFSBelow2         bool     `json:"allow_fs_below_2"`
	HaltFallbackFirmwares []string `json:"halt_fallback_firmwares"`

	// StepSizeUM is the focuser's physical step size in micrometers,
	// served verbatim by the Alpaca "stepsize" fixed-value endpoint
	// (spec.md §4.3/§6). Robofocus does not report this over the wire;
	// it is a property of the attached focuser mechanics and must be
	// configured by the operator.
	StepSizeUM float64 `json:"step_size_um"`
}

// Logging holds the ambient logging tunables.
type Logging struct {
	Level        string `json:"level"`
	Development  bool   `json:"development"`
	RingCapacity int    `json:"ring_capacity"`
}

// UserSettings is the small, frequently-rewritten document (spec.md
// §6) capturing per-operator preferences that should survive process
// restarts independent of the main config file: last COM port used,
// soft limits, and UI mode preference.
type UserSettings struct {
	LastComPort    string `json:"last_com_port"`
	MaxIncrement   int    `json:"max_increment"`
	MinPosition    int    `json:"min_position"`
	ZeroOffset     int    `json:"zero_offset"`
	PreferredMode  string `json:"preferred_mode"` // "serial" or "simulator"
}

// Config is the top-level persisted document.
type Config struct {
	Server    Server    `json:"server"`
	Serial    Serial    `json:"serial"`
	Focuser   Focuser   `json:"focuser"`
	Simulator Simulator `json:"simulator"`
	Logging   Logging   `json:"logging"`
}

// Load reads and parses the config file at path, applying defaults
// for anything omitted. If path does not exist, Load writes a
// default config there and returns it, mirroring the teacher's
// first-run convenience.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Default()
		if werr := Save(path, cfg); werr != nil {
			return nil, werr
		}
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Save writes cfg to path as indented JSON.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns the out-of-the-box configuration: simulator mode,
// loopback HTTP, and the controller defaults spec.md §4.2/§5 name.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills in anything the document omitted, grounded on
// standalone/config.applyDefaults's field-by-field zero-value check.
func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = "127.0.0.1:11111"
	}
	if cfg.Server.DiscoveryPort == 0 {
		cfg.Server.DiscoveryPort = 32227
	}
	if cfg.Server.ServerVersion == "" {
		cfg.Server.ServerVersion = "1.0.0"
	}

	if cfg.Serial.BaudRate == 0 {
		cfg.Serial.BaudRate = 9600
	}

	if cfg.Focuser.CommandTimeoutMS == 0 {
		cfg.Focuser.CommandTimeoutMS = 5000
	}
	if cfg.Focuser.IdlePollIntervalMS == 0 {
		cfg.Focuser.IdlePollIntervalMS = 5000
	}
	if cfg.Focuser.ActivePollIntervalMS == 0 {
		cfg.Focuser.ActivePollIntervalMS = 100
	}
	if cfg.Focuser.HaltSafetyDeadlineMS == 0 {
		cfg.Focuser.HaltSafetyDeadlineMS = 5000
	}
	if cfg.Focuser.SettlingDelayMS == 0 {
		cfg.Focuser.SettlingDelayMS = 150
	}
	if cfg.Focuser.TemperatureRefreshMS == 0 {
		cfg.Focuser.TemperatureRefreshMS = 3000
	}
	if cfg.Focuser.DefaultMaxTravel == 0 {
		cfg.Focuser.DefaultMaxTravel = 60000
	}
	if cfg.Focuser.MaxIncrement == 0 {
		cfg.Focuser.MaxIncrement = 60000
	}
	if cfg.Focuser.StepSizeUM == 0 {
		cfg.Focuser.StepSizeUM = 5.0
	}
	if !cfg.Focuser.UseSimulator && cfg.Serial.Port == "" {
		// Nothing configured yet and no simulator requested: default
		// to the simulator anyway so the server still starts.
		cfg.Focuser.UseSimulator = true
	}

	if cfg.Simulator.Firmware == "" {
		cfg.Simulator.Firmware = "002100"
	}
	if cfg.Simulator.MaxTravel == 0 {
		cfg.Simulator.MaxTravel = 60000
	}
	if cfg.Simulator.SpeedStepsPerSec == 0 {
		cfg.Simulator.SpeedStepsPerSec = 100
	}
	if cfg.Simulator.BaseTempCelsius == 0 {
		cfg.Simulator.BaseTempCelsius = 15
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.RingCapacity == 0 {
		cfg.Logging.RingCapacity = 500
	}
}

// CommandTimeout and friends translate the millisecond fields a
// JSON-friendly document holds into time.Duration for the focuser
// package's Config.
func (f Focuser) CommandTimeout() time.Duration     { return time.Duration(f.CommandTimeoutMS) * time.Millisecond }
func (f Focuser) IdlePollInterval() time.Duration   { return time.Duration(f.IdlePollIntervalMS) * time.Millisecond }
func (f Focuser) ActivePollInterval() time.Duration { return time.Duration(f.ActivePollIntervalMS) * time.Millisecond }
func (f Focuser) HaltSafetyDeadline() time.Duration { return time.Duration(f.HaltSafetyDeadlineMS) * time.Millisecond }
func (f Focuser) SettlingDelay() time.Duration      { return time.Duration(f.SettlingDelayMS) * time.Millisecond }
func (f Focuser) TemperatureRefreshInterval() time.Duration {
	return time.Duration(f.TemperatureRefreshMS) * time.Millisecond
}

// ToFocuserConfig translates the JSON-friendly document into the
// internal/focuser package's Config.
func (f Focuser) ToFocuserConfig() focuser.Config {
	return focuser.Config{
		CommandTimeout:             f.CommandTimeout(),
		IdlePollInterval:           f.IdlePollInterval(),
		ActivePollInterval:         f.ActivePollInterval(),
		HaltSafetyDeadline:         f.HaltSafetyDeadline(),
		SettlingDelay:              f.SettlingDelay(),
		TemperatureRefreshInterval: f.TemperatureRefreshInterval(),
		DefaultBacklash:            f.DefaultBacklash,
		DefaultMaxTravel:           f.DefaultMaxTravel,
		MaxIncrement:               f.MaxIncrement,
		MinPosition:                f.MinPosition,
		AllowFSBelow2:              f.AllowFSBelow2,
		HaltFallbackFirmwares:      f.HaltFallbackFirmwares,
	}
}
