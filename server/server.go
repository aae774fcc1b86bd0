// Package server exposes a local GPIO driver over the pin protocol. It runs on
// the device end of a serial link and answers requests from host/remote.
package server

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"gopio/core"
	"gopio/logging"
	"gopio/protocol"
)

// DefaultEventInterval is how often pending interrupts are reported
const DefaultEventInterval = time.Millisecond

// Server answers pin requests using a local driver. Interrupts registered
// through add_isr are latched by the handler and sent as pin_event frames by
// FlushEvents, so nothing is written from interrupt context. Several
// triggers of one pin between flushes are reported once, with the level seen
// by the last of them.
type Server struct {
	driver    core.GPIODriver
	rw        io.ReadWriter
	transport *protocol.Transport
	interval  time.Duration
	reserved  uint64 // pins the host may read but not configure or drive

	pending atomic.Uint64 // pins with an unreported interrupt
	levels  atomic.Uint64 // level seen by the latest interrupt per pin
}

// Option configures a Server
type Option func(*Server)

// WithEventInterval replaces DefaultEventInterval for Serve
func WithEventInterval(d time.Duration) Option {
	return func(s *Server) { s.interval = d }
}

// WithReservedPins keeps the pins in mask for the device's own use.
// config_pin, set_level and add_isr on them answer not supported.
func WithReservedPins(mask uint64) Option {
	return func(s *Server) { s.reserved |= mask }
}

// New returns a server driving driver and talking over rw
func New(driver core.GPIODriver, rw io.ReadWriter, opts ...Option) *Server {
	s := &Server{
		driver:   driver,
		rw:       rw,
		interval: DefaultEventInterval,
	}
	for _, opt := range opts {
		opt(s)
	}

	registry := protocol.NewCommandRegistry()
	s.transport = protocol.NewTransport(rw, registry)

	registry.Handle(protocol.CmdConfigPin, s.handleConfigPin)
	registry.Handle(protocol.CmdGetLevel, s.handleGetLevel)
	registry.Handle(protocol.CmdSetLevel, s.handleSetLevel)
	registry.Handle(protocol.CmdAddISR, s.handleAddISR)

	return s
}

// Receive processes bytes read from the link. Firmware with its own main
// loop calls Receive and FlushEvents directly instead of Serve.
func (s *Server) Receive(p []byte) {
	s.transport.Receive(p)
}

// FlushEvents sends one pin_event per pin whose interrupt fired since the
// last flush
func (s *Server) FlushEvents() error {
	mask := s.pending.Swap(0)
	if mask == 0 {
		return nil
	}
	levels := s.levels.Load()

	for _, pin := range (core.DriverConfig{PinBitMask: mask}).Pins() {
		level := uint32(0)
		if levels&pin.Mask() != 0 {
			level = 1
		}
		if err := s.transport.Send(protocol.MessageSeqEvent, protocol.RspEvent, uint32(pin), level); err != nil {
			return err
		}
	}
	return nil
}

// Serve reads requests and flushes events until ctx is done or the link
// fails. A read blocked in the link is only interrupted by closing it.
func (s *Server) Serve(ctx context.Context) error {
	readErr := make(chan error, 1)
	go func() {
		buf := make([]byte, protocol.MessageLengthMax)
		for {
			n, err := s.rw.Read(buf)
			if n > 0 {
				s.Receive(buf[:n])
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logging.Info(logging.ComponentServer, "serving", "pins", core.PinCount)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		case <-ticker.C:
			if err := s.FlushEvents(); err != nil {
				return err
			}
		}
	}
}

func (s *Server) reply(code error) error {
	if code != nil {
		logging.Debug(logging.ComponentServer, "request failed", "err", code)
	}
	return s.transport.Reply(protocol.RspStatus, uint32(protocol.StatusOf(code)))
}

func (s *Server) handleConfigPin(data *[]byte) error {
	var pin, mode, pullUp, pullDown, intr uint32
	if err := protocol.DecodeVLQUints(data, &pin, &mode, &pullUp, &pullDown, &intr); err != nil {
		return err
	}
	if err := s.writable(pin); err != nil {
		return s.reply(err)
	}

	cfg := core.DriverConfig{
		PinBitMask: core.PinNumber(pin).Mask(),
		Mode:       core.DriverMode(mode),
		PullUpEn:   pullUp != 0,
		PullDownEn: pullDown != 0,
		IntrType:   core.IntrType(intr),
	}
	return s.reply(s.driver.Configure(cfg))
}

func (s *Server) handleGetLevel(data *[]byte) error {
	pin, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if !core.PinNumber(pin).Valid() {
		return s.reply(core.ErrPinOutOfRange)
	}

	level := s.driver.GetLevel(core.PinNumber(pin))
	return s.transport.Reply(protocol.RspLevel, pin, uint32(level))
}

func (s *Server) handleSetLevel(data *[]byte) error {
	var pin, level uint32
	if err := protocol.DecodeVLQUints(data, &pin, &level); err != nil {
		return err
	}
	if !core.PinNumber(pin).Valid() || level > 1 {
		return s.reply(core.ErrInvalidArg)
	}
	if err := s.writable(pin); err != nil {
		return s.reply(err)
	}
	return s.reply(s.driver.SetLevel(core.PinNumber(pin), core.Level(level)))
}

func (s *Server) handleAddISR(data *[]byte) error {
	pin, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if err := s.writable(pin); err != nil {
		return s.reply(err)
	}
	return s.reply(s.driver.AddISRHandler(core.PinNumber(pin), s.interrupt, core.PinNumber(pin)))
}

// writable checks that the host may change pin
func (s *Server) writable(pin uint32) error {
	n := core.PinNumber(pin)
	if !n.Valid() {
		return core.ErrPinOutOfRange
	}
	if s.reserved&n.Mask() != 0 {
		return core.ErrNotSupported
	}
	return nil
}

// interrupt runs in interrupt context on the device
func (s *Server) interrupt(arg any) {
	pin := arg.(core.PinNumber)
	bit := pin.Mask()
	high := s.driver.GetLevel(pin) == core.High

	for {
		old := s.levels.Load()
		next := old &^ bit
		if high {
			next |= bit
		}
		if s.levels.CompareAndSwap(old, next) {
			break
		}
	}
	for {
		old := s.pending.Load()
		if s.pending.CompareAndSwap(old, old|bit) {
			break
		}
	}
}
