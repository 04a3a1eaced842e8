// Package focuser owns the Robofocus device state machine: it
// sequences moves, caches position, and enforces the absolute/halt/
// backlash semantics spec.md §4.2 describes, issuing commands through
// a transport.Port.
package focuser

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/robofocus/alpaca-bridge/internal/transport"
)

// Controller owns device state behind a single mutex so the "no
// concurrent move" and "no interleaved serial exchange" invariants
// (spec.md §3/§5) hold regardless of how many clients call
// simultaneously. Grounded on host/mcu.MCU's connect/own-state/close
// shape and standalone/manager.Manager's Initialize/Start/Stop
// lifecycle, merged into one mutex-guarded type per spec.md §5's
// single controller-wide exclusion primitive.
type Controller struct {
	mu sync.Mutex

	port transport.Port
	cfg  Config
	log  *zap.Logger

	st state

	moveStart    time.Time
	lastAsync    time.Time
	haltDeadline time.Time

	monitorStop chan struct{}
	monitorDone chan struct{}
}

// New returns a Controller bound to port. port may be a real
// transport.SerialTransport or a transport.Simulator; the controller
// never distinguishes between them.
func New(port transport.Port, cfg Config, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		port: port,
		cfg:  cfg,
		log:  log,
		st: state{
			hardwareMax:  cfg.DefaultMaxTravel,
			backlash:     cfg.DefaultBacklash,
			maxIncrement: cfg.MaxIncrement,
			minPosition:  cfg.MinPosition,
		},
	}
}

// Connect opens the transport, performs the handshake, and reads
// firmware-authoritative state (max travel, backlash) before starting
// the motion monitor.
func (c *Controller) Connect(descriptor string, baud int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.port.Connect(descriptor, baud, c.cfg.CommandTimeout); err != nil {
		return wrapError(KindDriverError, "connect", err)
	}

	c.st.connected = true
	c.st.firmware = c.port.Firmware()
	c.st.position = 0
	c.st.lastPosRefresh = time.Time{}

	if reply, err := c.port.Exchange("FL", 0); err == nil {
		c.st.hardwareMax = reply.Value
	} else {
		c.log.Warn("firmware did not answer FL during connect; using configured default",
			zap.Int("default_max", c.cfg.DefaultMaxTravel), zap.Error(err))
	}

	if reply, err := c.port.Exchange("FB", 0); err == nil {
		c.st.backlash = transport.DecodeBacklash(reply.Value)
	} else {
		c.log.Warn("firmware did not answer FB during connect; using configured default",
			zap.Int("default_backlash", c.cfg.DefaultBacklash), zap.Error(err))
	}

	if err := c.refreshPositionLocked(); err != nil {
		c.log.Warn("initial position refresh failed", zap.Error(err))
	}

	c.monitorStop = make(chan struct{})
	c.monitorDone = make(chan struct{})
	go c.runMonitor(c.monitorStop, c.monitorDone)

	return nil
}

// Disconnect refuses while moving (spec.md §4.2) and otherwise closes
// the transport and stops the motion monitor.
func (c *Controller) Disconnect() error {
	c.mu.Lock()
	if c.st.moving {
		c.mu.Unlock()
		return ErrDisconnectWhileMoving
	}
	stop := c.monitorStop
	c.mu.Unlock()

	if stop != nil {
		close(stop)
		<-c.monitorDone
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.monitorStop = nil
	c.monitorDone = nil
	if err := c.port.Disconnect(); err != nil {
		return wrapError(KindDriverError, "disconnect", err)
	}
	c.st = state{
		hardwareMax:  c.cfg.DefaultMaxTravel,
		backlash:     c.cfg.DefaultBacklash,
		maxIncrement: c.st.maxIncrement,
		minPosition:  c.st.minPosition,
		zeroOffset:   c.st.zeroOffset,
	}
	return nil
}

func (c *Controller) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.connected
}

func (c *Controller) Firmware() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.firmware
}

// GetPosition returns the externally reported position
// (raw - zero offset), refreshing from hardware first if the cache is
// stale and nothing is moving.
func (c *Controller) GetPosition() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.st.connected {
		return 0, ErrNotConnected
	}
	if !c.st.moving && time.Since(c.st.lastPosRefresh) > c.cfg.IdlePollInterval {
		if err := c.refreshPositionLocked(); err != nil {
			return 0, wrapError(KindDriverError, "position refresh", err)
		}
	}
	return c.st.position - c.st.zeroOffset, nil
}

// refreshPositionLocked issues the wire-level "report current
// position, do not move" query (FG with value 0) and updates the
// cache. Caller holds c.mu.
func (c *Controller) refreshPositionLocked() error {
	reply, err := c.port.Exchange("FG", 0)
	if err != nil {
		return err
	}
	c.st.position = reply.Value
	c.st.lastPosRefresh = time.Now()
	return nil
}

// GetMax returns the externally reported maximum travel
// (hardware max - zero offset).
func (c *Controller) GetMax() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.st.connected {
		return 0, ErrNotConnected
	}
	return c.st.hardwareMax - c.st.zeroOffset, nil
}

func (c *Controller) IsMoving() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.st.connected {
		return false, ErrNotConnected
	}
	return c.st.moving, nil
}

// GetTemperature refreshes via FT on the configured cadence; callers
// between refreshes share the cached value.
func (c *Controller) GetTemperature() (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.st.connected {
		return 0, ErrNotConnected
	}
	if time.Since(c.st.lastTempRefresh) > c.cfg.TemperatureRefreshInterval {
		reply, err := c.port.Exchange("FT", 0)
		if err != nil {
			return 0, wrapError(KindDriverError, "temperature refresh", err)
		}
		c.st.temperature = transport.DecodeTemperature(reply.Value)
		c.st.lastTempRefresh = time.Now()
	}
	return c.st.temperature, nil
}

// GetBacklash returns the cached signed backlash. Per spec.md §4.2
// "Backlash-query caching", it never touches hardware while moving.
func (c *Controller) GetBacklash() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.st.connected {
		return 0, ErrNotConnected
	}
	if !c.st.moving {
		if reply, err := c.port.Exchange("FB", 0); err == nil {
			c.st.backlash = transport.DecodeBacklash(reply.Value)
		}
		// A failed refresh here is not fatal to the read; the cache
		// still holds the last known-good value.
	}
	return c.st.backlash, nil
}

func (c *Controller) SetBacklash(signed int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.st.connected {
		return ErrNotConnected
	}
	raw, err := transport.EncodeBacklash(signed)
	if err != nil {
		return wrapError(KindInvalidValue, "set backlash", err)
	}
	reply, err := c.port.Exchange("FB", raw)
	if err != nil {
		return wrapError(KindDriverError, "set backlash", err)
	}
	c.st.backlash = transport.DecodeBacklash(reply.Value)
	return nil
}

// Move starts an absolute move to targetLogical. It returns as soon as
// the hardware has acknowledged the goto; completion is observed by
// the motion monitor.
func (c *Controller) Move(targetLogical int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.st.connected {
		return ErrNotConnected
	}
	if c.st.moving {
		return ErrAlreadyMoving
	}

	targetRaw := targetLogical + c.st.zeroOffset
	if targetRaw < c.st.minPosition || targetRaw > c.st.hardwareMax {
		return newError(KindInvalidValue, fmt.Sprintf(
			"target %d (raw %d) outside [%d, %d]", targetLogical, targetRaw, c.st.minPosition, c.st.hardwareMax))
	}
	delta := targetRaw - c.st.position
	if delta < 0 {
		delta = -delta
	}
	if delta > c.st.maxIncrement {
		return newError(KindInvalidValue, fmt.Sprintf(
			"move of %d steps exceeds max increment %d", delta, c.st.maxIncrement))
	}

	if _, err := c.port.Exchange("FG", targetRaw); err != nil {
		return wrapError(KindDriverError, "move", err)
	}

	c.st.moving = true
	c.st.target = targetRaw
	c.haltDeadline = time.Time{}
	c.moveStart = time.Now()
	c.lastAsync = time.Now()
	return nil
}

// Halt issues FQ (or, for firmwares in cfg.HaltFallbackFirmwares, a
// single CR byte fallback per spec.md §9) and returns immediately;
// moving is cleared by the monitor once the terminating event is seen
// or the safety deadline elapses.
func (c *Controller) Halt() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.st.connected {
		return ErrNotConnected
	}

	if c.usesHaltFallbackLocked() {
		// Some older Robofocus firmwares are documented to ignore FQ
		// and expect a bare carriage return instead.
		if err := c.port.HaltRaw(); err != nil {
			return wrapError(KindDriverError, "halt", err)
		}
	} else if _, err := c.port.Exchange("FQ", 0); err != nil {
		return wrapError(KindDriverError, "halt", err)
	}
	c.haltDeadline = time.Now().Add(c.cfg.HaltSafetyDeadline)
	return nil
}

func (c *Controller) usesHaltFallbackLocked() bool {
	for _, fw := range c.cfg.HaltFallbackFirmwares {
		if fw == c.st.firmware {
			return true
		}
	}
	return false
}

// SetZero sets the zero offset so that GetPosition immediately after
// reports logicalValue. Purely local; never touches hardware.
func (c *Controller) SetZero(logicalValue int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.st.connected {
		return ErrNotConnected
	}
	c.st.zeroOffset = c.st.position - logicalValue
	return nil
}

// SyncPosition calls FS on the hardware, respecting the >=2
// constraint (spec.md §3/§8); this is distinct from SetZero, which is
// purely local.
func (c *Controller) SyncPosition(rawValue int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.st.connected {
		return ErrNotConnected
	}
	if rawValue < 2 && !c.cfg.AllowFSBelow2 {
		return newError(KindInvalidValue, fmt.Sprintf("FS value %d below hardware minimum of 2", rawValue))
	}
	reply, err := c.port.Exchange("FS", rawValue)
	if err != nil {
		return wrapError(KindDriverError, "sync position", err)
	}
	c.st.position = reply.Value
	c.st.lastPosRefresh = time.Now()
	return nil
}

// SetMaxTravel writes the new hardware max and reads it back.
func (c *Controller) SetMaxTravel(newMax int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.st.connected {
		return ErrNotConnected
	}
	if newMax <= 0 {
		return newError(KindInvalidValue, "max travel must be positive")
	}
	if _, err := c.port.Exchange("FL", newMax); err != nil {
		return wrapError(KindDriverError, "set max travel", err)
	}
	reply, err := c.port.Exchange("FL", 0)
	if err != nil {
		return wrapError(KindDriverError, "read back max travel", err)
	}
	c.st.hardwareMax = reply.Value
	return nil
}

// SetMaxIncrement and SetMinPosition are purely local soft limits,
// validated against the cached hardware max.
func (c *Controller) SetMaxIncrement(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 0 {
		return newError(KindInvalidValue, "max increment must be >= 0")
	}
	if c.st.hardwareMax > 0 && n > c.st.hardwareMax {
		return newError(KindInvalidValue, "max increment exceeds hardware max")
	}
	c.st.maxIncrement = n
	return nil
}

// ExecuteRaw issues an arbitrary command/value pair directly to the
// transport, bypassing every soft-limit and state-machine check.
// Supplemented per SPEC_FULL.md for diagnostics and firmware features
// this driver does not otherwise model; callers are responsible for
// any consequences to cached state.
func (c *Controller) ExecuteRaw(cmd string, value int) (string, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.st.connected {
		return "", 0, ErrNotConnected
	}
	reply, err := c.port.Exchange(cmd, value)
	if err != nil {
		return "", 0, wrapError(KindDriverError, "execute raw", err)
	}
	return reply.Cmd, reply.Value, nil
}

func (c *Controller) SetMinPosition(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 0 || (c.st.hardwareMax > 0 && n > c.st.hardwareMax) {
		return newError(KindInvalidValue, "min position out of range")
	}
	c.st.minPosition = n
	return nil
}

// runMonitor is the single long-lived motion-monitor task started on
// Connect and stopped on Disconnect, grounded on
// protocol.HostTransport.readLoop's dedicated-goroutine shape.
func (c *Controller) runMonitor(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		c.mu.Lock()
		moving := c.st.moving
		c.mu.Unlock()

		interval := c.cfg.IdlePollInterval
		if moving {
			interval = c.cfg.ActivePollInterval
		}

		select {
		case <-stop:
			return
		case <-time.After(interval):
		}

		c.mu.Lock()
		if c.st.moving {
			c.drainMotionLocked()
		}
		c.mu.Unlock()
	}
}

// drainMotionLocked consumes async status bytes and applies §4.2's
// motion-monitor loop body. Caller holds c.mu.
func (c *Controller) drainMotionLocked() {
	events := c.port.DrainAsync()
	if len(events) > 0 {
		c.lastAsync = time.Now()
	}
	for _, ev := range events {
		switch ev {
		case transport.EventInward:
			c.st.position--
		case transport.EventOutward:
			c.st.position++
		case transport.EventFinished:
			if err := c.refreshPositionLocked(); err != nil {
				c.log.Warn("post-motion position refresh failed", zap.Error(err))
			}
			time.Sleep(c.cfg.SettlingDelay)
			c.st.moving = false
			return
		}
	}

	// Safety net: no status byte for longer than the per-command
	// timeout despite still believing we are moving.
	if time.Since(c.lastAsync) > c.cfg.CommandTimeout {
		if err := c.refreshPositionLocked(); err == nil {
			const tolerance = 2
			delta := c.st.position - c.st.target
			if delta < 0 {
				delta = -delta
			}
			if delta <= tolerance {
				c.st.moving = false
			}
		}
	}

	// Halt's own safety deadline, independent of the async-silence
	// safety net above.
	if !c.haltDeadline.IsZero() && time.Now().After(c.haltDeadline) {
		c.st.moving = false
		c.haltDeadline = time.Time{}
	}
}
