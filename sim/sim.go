// Package sim provides an in-memory GPIO driver with ideal lines.
//
// Every pin has an output latch, an optional external drive and the pull
// configuration applied by Configure. The level seen on the line is resolved
// from those, and each change is checked against the pin's interrupt trigger.
// Handlers run synchronously on the goroutine that caused the change.
package sim

import (
	"sync"

	"gopio/core"
	"gopio/logging"
)

// Op names a driver operation for error injection
type Op uint8

const (
	OpConfigure Op = iota
	OpSetLevel
	OpAddISR
)

type line struct {
	cfg        core.DriverConfig
	configured bool
	latch      core.Level
	external   core.Level
	driven     bool
	level      core.Level // resolved line level
	handler    core.ISR
	arg        any

	writes     int
	configures int
}

// Driver is a simulated GPIO peripheral implementing core.GPIODriver.
type Driver struct {
	mu     sync.Mutex
	lines  [core.PinCount]line
	faults map[Op]error
}

var _ core.GPIODriver = (*Driver)(nil)

// New returns a driver with every line unconfigured and low
func New() *Driver {
	return &Driver{faults: make(map[Op]error)}
}

// Fail makes every following call of op return err, until cleared with a nil err
func (d *Driver) Fail(op Op, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.faults, op)
		return
	}
	d.faults[op] = err
}

// Configure implements core.GPIODriver.
func (d *Driver) Configure(cfg core.DriverConfig) error {
	if cfg.PinBitMask == 0 || cfg.PinBitMask>>core.PinCount != 0 {
		return core.ErrInvalidArg
	}

	d.mu.Lock()
	if err := d.faults[OpConfigure]; err != nil {
		d.mu.Unlock()
		return err
	}
	for _, pin := range cfg.Pins() {
		l := &d.lines[pin]
		l.cfg = cfg
		l.cfg.PinBitMask = pin.Mask()
		l.configured = true
		l.configures++
		l.level = l.resolve()
	}
	d.mu.Unlock()

	logging.Debug(logging.ComponentDriver, "sim configure", "mask", cfg.PinBitMask, "mode", cfg.Mode, "intr", cfg.IntrType)
	return nil
}

// GetLevel implements core.GPIODriver.
func (d *Driver) GetLevel(pin core.PinNumber) core.Level {
	if !pin.Valid() {
		return core.Low
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lines[pin].level
}

// SetLevel implements core.GPIODriver. Like the hardware latch it accepts
// writes to pins in any mode; they only reach the line for outputs.
func (d *Driver) SetLevel(pin core.PinNumber, level core.Level) error {
	if !pin.Valid() || level > core.High {
		return core.ErrInvalidArg
	}
	d.mu.Lock()
	if err := d.faults[OpSetLevel]; err != nil {
		d.mu.Unlock()
		return err
	}
	l := &d.lines[pin]
	l.latch = level
	l.writes++
	d.update(pin) // unlocks
	return nil
}

// AddISRHandler implements core.GPIODriver.
func (d *Driver) AddISRHandler(pin core.PinNumber, handler core.ISR, arg any) error {
	if !pin.Valid() || handler == nil {
		return core.ErrInvalidArg
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.faults[OpAddISR]; err != nil {
		return err
	}
	d.lines[pin].handler = handler
	d.lines[pin].arg = arg
	return nil
}

// Drive applies an external level to the line, as outside circuitry would
func (d *Driver) Drive(pin core.PinNumber, level core.Level) {
	if !pin.Valid() {
		return
	}
	d.mu.Lock()
	l := &d.lines[pin]
	l.external = level
	l.driven = true
	d.update(pin)
}

// Float removes the external drive from the line
func (d *Driver) Float(pin core.PinNumber) {
	if !pin.Valid() {
		return
	}
	d.mu.Lock()
	d.lines[pin].driven = false
	d.update(pin)
}

// Writes returns the number of SetLevel calls that reached pin
func (d *Driver) Writes(pin core.PinNumber) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lines[pin].writes
}

// Configures returns the number of Configure calls that selected pin
func (d *Driver) Configures(pin core.PinNumber) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lines[pin].configures
}

// Config returns the configuration last applied to pin
func (d *Driver) Config(pin core.PinNumber) (core.DriverConfig, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lines[pin].cfg, d.lines[pin].configured
}

// update re-resolves the line and runs the handler if the trigger fires.
// It must be called with d.mu held and releases it.
func (d *Driver) update(pin core.PinNumber) {
	l := &d.lines[pin]
	prev := l.level
	l.level = l.resolve()

	var handler core.ISR
	var arg any
	if l.configured && l.handler != nil && l.cfg.IntrType.Trigger().Fires(prev, l.level) {
		handler, arg = l.handler, l.arg
	}
	d.mu.Unlock()

	if handler != nil {
		handler(arg)
	}
}

func (l *line) resolve() core.Level {
	mode := l.cfg.Mode
	if !l.configured {
		mode = core.ModeDisable
	}
	switch {
	case mode&core.ModeDefOutput != 0 && mode&core.ModeDefOD == 0:
		return l.latch
	case mode&core.ModeDefOD != 0 && l.latch == core.Low:
		return core.Low
	case l.driven:
		return l.external
	case l.configured && l.cfg.PullUpEn:
		return core.High
	default:
		return core.Low
	}
}
