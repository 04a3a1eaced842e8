// Package logging builds the zap logger the rest of the driver is
// handed explicitly (never a package global, per the teacher's
// constructor-injected-dependency convention), and taps its output
// into a bounded in-memory ring buffer the GUI log view reads from.
// Grounded on the ascomserver reference file's "logger *zap.Logger"
// field convention; zap itself has no home in the teacher's own
// go.mod; amken3d-gopper's CLI logs via bare fmt.Println, which
// SPEC_FULL.md's ambient stack replaces with the structured logging
// the rest of the retrieved pack (ascomserver, gpud) uses throughout.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures logger construction from the persisted
// [logging] config section.
type Options struct {
	Level        string // debug, info, warn, error
	Development  bool
	RingCapacity int // lines retained for the GUI log view; 0 disables
}

// New builds a *zap.Logger plus the ring buffer tailing it. The
// returned RingBuffer is nil when opts.RingCapacity <= 0.
func New(opts Options) (*zap.Logger, *RingBuffer) {
	level := zapcore.InfoLevel
	_ = level.UnmarshalText([]byte(opts.Level))

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(os.Stdout)),
		level,
	)

	var ring *RingBuffer
	core := zapcore.Core(consoleCore)
	if opts.RingCapacity > 0 {
		ring = NewRingBuffer(opts.RingCapacity)
		ringCore := zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderCfg),
			zapcore.AddSync(ring),
			level,
		)
		core = zapcore.NewTee(consoleCore, ringCore)
	}

	logger := zap.New(core)
	if opts.Development {
		logger = logger.WithOptions(zap.Development())
	}
	return logger, ring
}
