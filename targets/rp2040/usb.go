//go:build rp2040 || rp2350

package main

import (
	"machine"
)

// usbPort is the USB CDC serial link as an io.ReadWriter. Read never blocks:
// it returns what is buffered, possibly nothing.
type usbPort struct {
	failures int
}

func initUSB() *usbPort {
	// machine.Serial is USB CDC on the RP2040/RP2350
	machine.Serial.Configure(machine.UARTConfig{})
	return &usbPort{}
}

func (u *usbPort) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) && machine.Serial.Buffered() > 0 {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			return n, nil
		}
		p[n] = b
		n++
	}
	return n, nil
}

// Write sends p, dropping it once the host has stopped reading
func (u *usbPort) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := machine.Serial.Write(p[written:])
		if err != nil || n == 0 {
			u.failures++
			if u.failures > 10 {
				// host gone; drop output rather than stall the main loop
				return len(p), nil
			}
			return written, err
		}
		written += n
	}
	u.failures = 0
	return written, nil
}
