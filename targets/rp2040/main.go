//go:build rp2040 || rp2350

// Firmware serving the chip's GPIO bank over USB to host/remote.
package main

import (
	"machine"
	"time"

	"gopio/core"
	"gopio/protocol"
	"gopio/server"
	"gopio/targets/onchip"
)

// ledPin is the on-board LED of the Pico and Pico 2
var ledPin = core.GPIO[25]

const (
	blinkPeriod = 500 * time.Millisecond
	// blinkFault is the heartbeat while the loop is failing
	blinkFault = 100 * time.Millisecond
	faultHold  = 2 * time.Second
)

// faults counts main loop failures. There is no console to report them on;
// a recent failure speeds up the heartbeat.
type faults struct {
	panics    int
	flushes   int
	heartbeat int
	last      time.Time
}

func (f *faults) note(counter *int) {
	*counter++
	f.last = time.Now()
}

func (f *faults) recent() bool {
	return !f.last.IsZero() && time.Since(f.last) < faultHold
}

func main() {
	// disable a watchdog left running by a previous image
	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})

	usb := initUSB()
	driver := onchip.New()
	core.SetGPIODriver(driver)

	led, err := core.NewOutput(ledPin, core.PullUpDisable, core.PullDownDisable, core.InterruptNone)
	if err == nil {
		err = led.Init()
	}
	if err != nil {
		led = nil
	}

	srv := server.New(driver, usb, server.WithReservedPins(ledPin.Mask()))
	buf := make([]byte, protocol.MessageLengthMax)
	lastBlink := time.Now()
	var f faults

	for {
		func() {
			defer func() {
				// keep serving after a bad request
				if r := recover(); r != nil {
					f.note(&f.panics)
				}
			}()

			if n, _ := usb.Read(buf); n > 0 {
				srv.Receive(buf[:n])
			}
			if err := srv.FlushEvents(); err != nil {
				f.note(&f.flushes)
			}

			period := blinkPeriod
			if f.recent() {
				period = blinkFault
			}
			if led != nil && time.Since(lastBlink) > period {
				if err := led.Toggle(); err != nil {
					f.note(&f.heartbeat)
				}
				lastBlink = time.Now()
			}
		}()

		time.Sleep(10 * time.Microsecond)
	}
}
