// Package serial opens the link to a pin server over a serial port.
package serial

import (
	"errors"
	"io"
	"time"
)

// DefaultBaud is ignored by USB CDC devices but needed for UARTs
const DefaultBaud = 250000

var ErrNoDevice = errors.New("no serial device given")

// Port is a serial link to a pin server
type Port interface {
	io.ReadWriteCloser

	// Flush discards unread input and untransmitted output
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	Baud int

	// ReadTimeout bounds a single read. A read that times out returns no
	// data and no error, so the reader can notice Close. Zero blocks.
	ReadTimeout time.Duration
}

// DefaultConfig returns the configuration used by the command line tool
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100 * time.Millisecond,
	}
}
