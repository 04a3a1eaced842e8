package focuser

import "time"

// state holds everything spec.md §3 "Device state (owned by
// controller)" names. Every field is guarded by Controller.mu.
type state struct {
	connected bool

	position       int // raw hardware counts
	target         int // raw, valid only while moving
	moving         bool
	lastPosRefresh time.Time

	firmware    string
	hardwareMax int
	backlash    int // signed, INDI convention

	zeroOffset   int
	maxIncrement int
	minPosition  int

	temperature    float64
	lastTempRefresh time.Time
}

// Config carries the tunables spec.md §4.2/§5 describe as
// "configurable (default ...)", plus the supplemented firmware-fallback
// table from SPEC_FULL.md.
type Config struct {
	// CommandTimeout bounds every serial exchange (spec.md §5,
	// default 5s).
	CommandTimeout time.Duration

	// IdlePollInterval is how long the motion monitor sleeps when
	// nothing is moving (default 5s).
	IdlePollInterval time.Duration

	// ActivePollInterval is how long the motion monitor sleeps
	// between async-byte drains while moving (default 100ms).
	ActivePollInterval time.Duration

	// HaltSafetyDeadline bounds how long Halt waits for the
	// terminating F/FD event before force-clearing moving (default a
	// few seconds).
	HaltSafetyDeadline time.Duration

	// SettlingDelay is the post-motion quiet period before the next
	// command may be issued (default ~150ms).
	SettlingDelay time.Duration

	// TemperatureRefreshInterval bounds how often GetTemperature
	// re-queries hardware rather than serving the cache (default a
	// few seconds).
	TemperatureRefreshInterval time.Duration

	// DefaultBacklash/DefaultMaxTravel/MaxIncrement/MinPosition seed
	// the cache when hardware does not support FL/FB (see Connect).
	DefaultBacklash  int
	DefaultMaxTravel int
	MaxIncrement     int
	MinPosition      int

	// AllowFSBelow2 disables the FS<2 guard for firmwares verified
	// not to need it (spec.md §9 Open Questions).
	AllowFSBelow2 bool

	// HaltFallbackFirmwares lists firmware strings known to ignore
	// FQ; for these, Halt writes a single CR byte instead
	// (SPEC_FULL.md supplemented feature).
	HaltFallbackFirmwares []string
}

// DefaultConfig returns the defaults named throughout spec.md §4-§5.
func DefaultConfig() Config {
	return Config{
		CommandTimeout:             5 * time.Second,
		IdlePollInterval:           5 * time.Second,
		ActivePollInterval:         100 * time.Millisecond,
		HaltSafetyDeadline:         5 * time.Second,
		SettlingDelay:              150 * time.Millisecond,
		TemperatureRefreshInterval: 3 * time.Second,
		DefaultMaxTravel:           60000,
		MaxIncrement:               60000,
		MinPosition:                0,
	}
}
