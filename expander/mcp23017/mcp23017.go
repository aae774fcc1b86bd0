// Package mcp23017 implements core.GPIODriver for the 16 pins of an MCP23017
// I2C port expander. Pins 0-7 are port A, 8-15 port B.
//
// The chip has pull-ups only, and its interrupt outputs are not wired to the
// driver, so pull-downs, open-drain outputs and interrupts are not supported.
package mcp23017

import (
	"fmt"
	"sync"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/mcp23017"

	"gopio/core"
	"gopio/logging"
)

// PinCount is the number of expander pins
const PinCount = mcp23017.PinCount

// Driver drives one expander. The chip keeps an output cache, so calls are
// serialized.
type Driver struct {
	mu  sync.Mutex
	dev *mcp23017.Device
}

var _ core.GPIODriver = (*Driver)(nil)

// New probes the expander at addr (0x20-0x27) on bus
func New(bus drivers.I2C, addr uint8) (*Driver, error) {
	dev, err := mcp23017.NewI2C(bus, addr)
	if err != nil {
		return nil, fmt.Errorf("mcp23017 at %#x: %w", addr, err)
	}
	return &Driver{dev: dev}, nil
}

func checkPin(pin core.PinNumber) error {
	if pin >= PinCount {
		return fmt.Errorf("%w: expander has no pin %d", core.ErrInvalidArg, pin)
	}
	return nil
}

// Configure sets the direction and pull-up of every pin of the mask in one
// register update
func (d *Driver) Configure(cfg core.DriverConfig) error {
	pins := cfg.Pins()
	if len(pins) == 0 {
		return core.ErrInvalidArg
	}
	if cfg.PullDownEn || cfg.Mode&core.ModeDefOD != 0 || cfg.IntrType != core.IntrDisable {
		return core.ErrNotSupported
	}

	mode := mcp23017.Input
	if cfg.Mode&core.ModeDefOutput != 0 {
		mode = mcp23017.Output
	}
	if cfg.PullUpEn {
		mode |= mcp23017.Pullup
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	modes := make([]mcp23017.PinMode, PinCount)
	if err := d.dev.GetModes(modes); err != nil {
		return err
	}
	for _, pin := range pins {
		if err := checkPin(pin); err != nil {
			return err
		}
		modes[pin] = mode
	}
	if err := d.dev.SetModes(modes); err != nil {
		return err
	}

	logging.Debug(logging.ComponentDriver, "mcp23017 configure", "mask", cfg.PinBitMask, "mode", mode)
	return nil
}

// GetLevel reads the pin. A bus error is logged and reads as low.
func (d *Driver) GetLevel(pin core.PinNumber) core.Level {
	if checkPin(pin) != nil {
		return core.Low
	}
	d.mu.Lock()
	v, err := d.dev.Pin(int(pin)).Get()
	d.mu.Unlock()
	if err != nil {
		logging.Warn(logging.ComponentDriver, "mcp23017 read failed", "pin", pin, "err", err)
		return core.Low
	}
	return core.LevelOf(v)
}

// SetLevel implements core.GPIODriver.
func (d *Driver) SetLevel(pin core.PinNumber, level core.Level) error {
	if err := checkPin(pin); err != nil {
		return err
	}
	if level > core.High {
		return core.ErrInvalidArg
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dev.Pin(int(pin)).Set(level == core.High)
}

// AddISRHandler always fails: the expander's INTA/INTB lines are not wired.
func (d *Driver) AddISRHandler(pin core.PinNumber, handler core.ISR, arg any) error {
	if handler == nil {
		return core.ErrInvalidArg
	}
	if err := checkPin(pin); err != nil {
		return err
	}
	return core.ErrNotSupported
}
