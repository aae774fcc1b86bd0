// Package periph implements core.GPIODriver on top of periph.io, for pins of
// the host the program runs on (Raspberry Pi and other Linux boards).
//
// The host drivers must be loaded with host.Init from periph.io/x/host/v3
// before pins can be found by name.
package periph

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"gopio/core"
	"gopio/logging"
)

// edgePoll bounds how long a watcher blocks before checking for shutdown
const edgePoll = 100 * time.Millisecond

// ByNumber finds pins the way the Raspberry Pi drivers register them
func ByNumber(pin core.PinNumber) gpio.PinIO {
	return gpioreg.ByName(fmt.Sprintf("GPIO%d", pin))
}

type line struct {
	io    gpio.PinIO
	cfg   core.DriverConfig
	latch core.Level

	handler core.ISR
	arg     any
	stop    chan struct{}
	done    chan struct{}
}

// Driver drives host pins through periph.io
type Driver struct {
	lookup func(core.PinNumber) gpio.PinIO

	mu    sync.Mutex
	lines map[core.PinNumber]*line
}

var _ core.GPIODriver = (*Driver)(nil)

// Option configures a Driver
type Option func(*Driver)

// WithLookup replaces ByNumber for finding pins
func WithLookup(fn func(core.PinNumber) gpio.PinIO) Option {
	return func(d *Driver) { d.lookup = fn }
}

// New returns a driver; pins are looked up when first used
func New(opts ...Option) *Driver {
	d := &Driver{
		lookup: ByNumber,
		lines:  make(map[core.PinNumber]*line),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// line returns the state for pin, looking it up on first use.
// Must be called with d.mu held.
func (d *Driver) line(pin core.PinNumber) (*line, error) {
	if l, ok := d.lines[pin]; ok {
		return l, nil
	}
	if !pin.Valid() {
		return nil, core.ErrInvalidArg
	}
	io := d.lookup(pin)
	if io == nil {
		return nil, fmt.Errorf("%w: no host pin %d", core.ErrInvalidArg, pin)
	}
	l := &line{io: io}
	d.lines[pin] = l
	return l, nil
}

func pull(cfg core.DriverConfig) gpio.Pull {
	switch {
	case cfg.PullUpEn:
		return gpio.PullUp
	case cfg.PullDownEn:
		return gpio.PullDown
	default:
		return gpio.Float
	}
}

func edge(t core.IntrType) (gpio.Edge, error) {
	switch t {
	case core.IntrDisable:
		return gpio.NoEdge, nil
	case core.IntrPosEdge:
		return gpio.RisingEdge, nil
	case core.IntrNegEdge:
		return gpio.FallingEdge, nil
	case core.IntrAnyEdge:
		return gpio.BothEdges, nil
	default:
		// periph only reports edges
		return gpio.NoEdge, core.ErrNotSupported
	}
}

// Configure applies cfg to every pin of the mask. Open-drain outputs, level
// triggers and enabling both pulls are not supported.
func (d *Driver) Configure(cfg core.DriverConfig) error {
	pins := cfg.Pins()
	if len(pins) == 0 {
		return core.ErrInvalidArg
	}
	if cfg.Mode&core.ModeDefOD != 0 || (cfg.PullUpEn && cfg.PullDownEn) {
		return core.ErrNotSupported
	}
	e, err := edge(cfg.IntrType)
	if err != nil {
		return err
	}
	output := cfg.Mode&core.ModeDefOutput != 0
	if output && e != gpio.NoEdge {
		return core.ErrNotSupported
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, pin := range pins {
		l, err := d.line(pin)
		if err != nil {
			return err
		}
		d.stopWatch(l)

		if output {
			err = l.io.Out(gpio.Level(l.latch == core.High))
		} else {
			err = l.io.In(pull(cfg), e)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", l.io, err)
		}

		l.cfg = cfg
		l.cfg.PinBitMask = pin.Mask()
		d.startWatch(pin, l)
	}

	logging.Debug(logging.ComponentDriver, "periph configure", "mask", cfg.PinBitMask, "mode", cfg.Mode, "intr", cfg.IntrType)
	return nil
}

// GetLevel implements core.GPIODriver. Unknown pins read low.
func (d *Driver) GetLevel(pin core.PinNumber) core.Level {
	d.mu.Lock()
	l, err := d.line(pin)
	d.mu.Unlock()
	if err != nil {
		return core.Low
	}
	return core.LevelOf(bool(l.io.Read()))
}

// SetLevel latches level and drives it if the pin is an output
func (d *Driver) SetLevel(pin core.PinNumber, level core.Level) error {
	if level > core.High {
		return core.ErrInvalidArg
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	l, err := d.line(pin)
	if err != nil {
		return err
	}
	l.latch = level
	if l.cfg.Mode&core.ModeDefOutput == 0 {
		return nil
	}
	return l.io.Out(gpio.Level(level == core.High))
}

// AddISRHandler installs handler for pin. It runs on a watcher goroutine
// once per edge reported by the kernel.
func (d *Driver) AddISRHandler(pin core.PinNumber, handler core.ISR, arg any) error {
	if handler == nil {
		return core.ErrInvalidArg
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	l, err := d.line(pin)
	if err != nil {
		return err
	}
	d.stopWatch(l)
	l.handler, l.arg = handler, arg
	d.startWatch(pin, l)
	return nil
}

// Close stops every watcher and halts the pins
func (d *Driver) Close() error {
	var waits []<-chan struct{}
	var first error

	d.mu.Lock()
	for _, l := range d.lines {
		if done := d.stopWatch(l); done != nil {
			waits = append(waits, done)
		}
		if err := l.io.Halt(); err != nil && first == nil {
			first = err
		}
	}
	d.mu.Unlock()

	for _, done := range waits {
		<-done
	}
	return first
}

// startWatch starts the edge watcher if the pin has both a handler and an
// edge trigger. Must be called with d.mu held.
func (d *Driver) startWatch(pin core.PinNumber, l *line) {
	if l.handler == nil || l.stop != nil {
		return
	}
	if e, _ := edge(l.cfg.IntrType); e == gpio.NoEdge {
		return
	}

	stop, done := make(chan struct{}), make(chan struct{})
	l.stop, l.done = stop, done
	handler, arg, io := l.handler, l.arg, l.io

	go func() {
		defer close(done)
		logging.Debug(logging.ComponentDriver, "watching edges", "pin", pin)
		for {
			select {
			case <-stop:
				return
			default:
			}
			if !io.WaitForEdge(edgePoll) {
				continue
			}
			select {
			case <-stop:
				return
			default:
				handler(arg)
			}
		}
	}()
}

// stopWatch tells the edge watcher to exit and returns a channel closed once
// it has. Must be called with d.mu held. Handlers may call into the driver, so
// nobody waits on the watcher while holding d.mu.
func (d *Driver) stopWatch(l *line) <-chan struct{} {
	if l.stop == nil {
		return nil
	}
	close(l.stop)
	done := l.done
	l.stop, l.done = nil, nil
	return done
}
