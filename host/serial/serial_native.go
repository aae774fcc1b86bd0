//go:build !wasm

package serial

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/tarm/serial"

	"gopio/logging"
)

// NativePort wraps a tarm/serial port
type NativePort struct {
	port   *serial.Port
	cfg    Config
	closed atomic.Bool
}

// Open opens a native serial port
func Open(cfg *Config) (Port, error) {
	if cfg == nil || cfg.Device == "" {
		return nil, ErrNoDevice
	}

	baud := cfg.Baud
	if baud == 0 {
		baud = DefaultBaud
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	logging.Info(logging.ComponentTransport, "serial port open", "device", cfg.Device, "baud", baud)
	return &NativePort{port: port, cfg: *cfg}, nil
}

// Read reads from the port. A read timeout is reported as (0, nil).
func (p *NativePort) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if err == io.EOF && n == 0 && !p.closed.Load() {
		return 0, nil
	}
	return n, err
}

// Write writes to the port
func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close closes the port. Reads blocked in the driver return once their
// timeout expires.
func (p *NativePort) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.port.Close()
}

// Flush discards buffered data in both directions
func (p *NativePort) Flush() error {
	return p.port.Flush()
}

// Device returns the path the port was opened with
func (p *NativePort) Device() string {
	return p.cfg.Device
}
