//go:build tinygo

// Package onchip implements core.GPIODriver for the microcontroller's own
// pins through TinyGo's machine package.
//
// The driver is not synchronized; on the firmware it is only called from the
// main loop, and interrupt handlers only read pins.
package onchip

import (
	"machine"

	"gopio/core"
)

type isr struct {
	fn  core.ISR
	arg any
}

// Driver drives the chip's GPIO bank
type Driver struct {
	latch      uint64
	outputs    uint64
	configured uint64
	intr       [core.PinCount]core.IntrType
	handlers   [core.PinCount]isr
}

var _ core.GPIODriver = (*Driver)(nil)

// New returns a driver with no pin configured
func New() *Driver {
	return &Driver{}
}

func pinMode(cfg core.DriverConfig) (machine.PinMode, error) {
	switch {
	case cfg.Mode&core.ModeDefOD != 0:
		return 0, core.ErrNotSupported
	case cfg.Mode&core.ModeDefOutput != 0:
		return machine.PinOutput, nil
	case cfg.PullUpEn && cfg.PullDownEn:
		return 0, core.ErrNotSupported
	case cfg.PullUpEn:
		return machine.PinInputPullup, nil
	case cfg.PullDownEn:
		return machine.PinInputPulldown, nil
	default:
		return machine.PinInput, nil
	}
}

func pinChange(t core.IntrType) (machine.PinChange, error) {
	switch t {
	case core.IntrPosEdge:
		return machine.PinRising, nil
	case core.IntrNegEdge:
		return machine.PinFalling, nil
	case core.IntrAnyEdge:
		return machine.PinToggle, nil
	case core.IntrDisable:
		return 0, nil
	default:
		return 0, core.ErrNotSupported
	}
}

// Configure implements core.GPIODriver. Open-drain outputs and level
// triggers are not supported.
func (d *Driver) Configure(cfg core.DriverConfig) error {
	pins := cfg.Pins()
	if len(pins) == 0 {
		return core.ErrInvalidArg
	}
	mode, err := pinMode(cfg)
	if err != nil {
		return err
	}
	if _, err := pinChange(cfg.IntrType); err != nil {
		return err
	}

	for _, pin := range pins {
		p := machine.Pin(pin)
		p.Configure(machine.PinConfig{Mode: mode})

		bit := pin.Mask()
		d.configured |= bit
		if mode == machine.PinOutput {
			d.outputs |= bit
			p.Set(d.latch&bit != 0)
		} else {
			d.outputs &^= bit
		}
		d.intr[pin] = cfg.IntrType
		if err := d.arm(pin); err != nil {
			return err
		}
	}
	return nil
}

// GetLevel implements core.GPIODriver.
func (d *Driver) GetLevel(pin core.PinNumber) core.Level {
	if !pin.Valid() {
		return core.Low
	}
	return core.LevelOf(machine.Pin(pin).Get())
}

// SetLevel latches level and drives it on outputs
func (d *Driver) SetLevel(pin core.PinNumber, level core.Level) error {
	if !pin.Valid() || level > core.High {
		return core.ErrInvalidArg
	}
	bit := pin.Mask()
	if level == core.High {
		d.latch |= bit
	} else {
		d.latch &^= bit
	}
	if d.outputs&bit != 0 {
		machine.Pin(pin).Set(level == core.High)
	}
	return nil
}

// AddISRHandler implements core.GPIODriver. The handler runs in interrupt
// context.
func (d *Driver) AddISRHandler(pin core.PinNumber, handler core.ISR, arg any) error {
	if !pin.Valid() || handler == nil {
		return core.ErrInvalidArg
	}
	d.handlers[pin] = isr{fn: handler, arg: arg}
	return d.arm(pin)
}

// arm installs or removes the pin interrupt to match its configuration
func (d *Driver) arm(pin core.PinNumber) error {
	h := d.handlers[pin]
	if d.configured&pin.Mask() == 0 || h.fn == nil {
		return nil
	}
	return rearm(machineLine(pin), d.intr[pin], func() { h.fn(h.arg) })
}

// machineLine is the irqLine of an on-chip pin
type machineLine machine.Pin

func (l machineLine) clearInterrupt() error {
	return machine.Pin(l).SetInterrupt(0, nil)
}

func (l machineLine) setInterrupt(t core.IntrType, cb func()) error {
	change, err := pinChange(t)
	if err != nil {
		return err
	}
	return machine.Pin(l).SetInterrupt(change, func(machine.Pin) { cb() })
}
