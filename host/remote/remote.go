// Package remote implements core.GPIODriver for pins on a microcontroller
// running the pin server, reached over a serial link.
package remote

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"gopio/core"
	"gopio/host/serial"
	"gopio/logging"
	"gopio/protocol"
)

// eventQueue bounds interrupts waiting for their handler
const eventQueue = 64

type isr struct {
	fn  core.ISR
	arg any
}

// Driver forwards driver calls to a pin server
type Driver struct {
	transport *protocol.HostTransport

	mu       sync.Mutex
	handlers map[core.PinNumber]isr

	events chan core.PinNumber
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

var _ core.GPIODriver = (*Driver)(nil)

// Option configures a Driver
type Option func(*options)

type options struct {
	timeout time.Duration
}

// WithTimeout bounds every call to the server
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// New returns a driver talking to a server over port. The driver owns port
// and closes it on Close.
func New(port io.ReadWriteCloser, opts ...Option) *Driver {
	o := options{timeout: protocol.DefaultCallTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	d := &Driver{
		handlers: make(map[core.PinNumber]isr),
		events:   make(chan core.PinNumber, eventQueue),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	d.transport = protocol.NewHostTransport(port,
		protocol.WithCallTimeout(o.timeout),
		protocol.WithEventHandler(d.event),
	)

	go d.dispatch()
	return d
}

// Dial opens a serial port and returns a driver using it
func Dial(cfg *serial.Config, opts ...Option) (*Driver, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	return New(port, opts...), nil
}

// Close stops event delivery and closes the link
func (d *Driver) Close() error {
	var err error
	d.once.Do(func() {
		err = d.transport.Close()
		close(d.stop)
		<-d.done
	})
	return err
}

// Configure sends one config_pin per pin of the mask and stops at the first
// failure
func (d *Driver) Configure(cfg core.DriverConfig) error {
	pins := cfg.Pins()
	if len(pins) == 0 {
		return core.ErrInvalidArg
	}
	for _, pin := range pins {
		err := d.status(protocol.CmdConfigPin,
			uint32(pin), uint32(cfg.Mode), boolArg(cfg.PullUpEn), boolArg(cfg.PullDownEn), uint32(cfg.IntrType))
		if err != nil {
			return err
		}
	}
	return nil
}

// GetLevel reads the pin on the server. A failed read is logged and reads
// as low.
func (d *Driver) GetLevel(pin core.PinNumber) core.Level {
	r, err := d.transport.Call(context.Background(), protocol.CmdGetLevel, uint32(pin))
	if err == nil && r.ID == protocol.RspStatus {
		err = protocol.Status(r.Args[0]).Err()
	}
	if err == nil && r.ID != protocol.RspLevel {
		err = fmt.Errorf("unexpected %v reply", r.ID)
	}
	if err != nil {
		logging.Warn(logging.ComponentDriver, "remote get_level failed", "pin", pin, "err", err)
		return core.Low
	}
	return core.LevelOf(r.Args[1] != 0)
}

// SetLevel implements core.GPIODriver.
func (d *Driver) SetLevel(pin core.PinNumber, level core.Level) error {
	return d.status(protocol.CmdSetLevel, uint32(pin), uint32(level))
}

// AddISRHandler registers the interrupt on the server. The handler runs on
// the driver's event goroutine when the matching pin_event arrives.
func (d *Driver) AddISRHandler(pin core.PinNumber, handler core.ISR, arg any) error {
	if handler == nil {
		return core.ErrInvalidArg
	}

	d.mu.Lock()
	prev, had := d.handlers[pin]
	d.handlers[pin] = isr{fn: handler, arg: arg}
	d.mu.Unlock()

	if err := d.status(protocol.CmdAddISR, uint32(pin)); err != nil {
		d.mu.Lock()
		if had {
			d.handlers[pin] = prev
		} else {
			delete(d.handlers, pin)
		}
		d.mu.Unlock()
		return err
	}
	return nil
}

func (d *Driver) status(id protocol.MessageID, args ...uint32) error {
	r, err := d.transport.Call(context.Background(), id, args...)
	if err != nil {
		return err
	}
	if r.ID != protocol.RspStatus || len(r.Args) != 1 {
		return fmt.Errorf("%w: unexpected %v reply to %v", protocol.ErrRemoteFailure, r.ID, id)
	}
	return protocol.Status(r.Args[0]).Err()
}

// event runs on the transport read goroutine
func (d *Driver) event(r protocol.Reply) {
	if r.ID != protocol.RspEvent {
		return
	}
	select {
	case d.events <- core.PinNumber(r.Args[0]):
	default:
		logging.Warn(logging.ComponentDriver, "dropping pin event", "pin", r.Args[0])
	}
}

func (d *Driver) dispatch() {
	defer close(d.done)
	for {
		select {
		case <-d.stop:
			return
		case pin := <-d.events:
			d.mu.Lock()
			h, ok := d.handlers[pin]
			d.mu.Unlock()
			if ok {
				h.fn(h.arg)
			}
		}
	}
}

func boolArg(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
