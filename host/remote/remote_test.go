package remote

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"gopio/core"
	"gopio/protocol"
	"gopio/server"
	"gopio/sim"
)

func connect(t *testing.T) (*Driver, *sim.Driver) {
	t.Helper()
	hostEnd, devEnd := net.Pipe()

	drv := sim.New()
	srv := server.New(drv, devEnd)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Serve(ctx)
	}()

	d := New(hostEnd, WithTimeout(time.Second))
	t.Cleanup(func() {
		cancel()
		d.Close()
		devEnd.Close()
		<-done
	})
	return d, drv
}

func TestRemoteOutputPin(t *testing.T) {
	d, drv := connect(t)
	pin := core.GPIO[13]

	p, err := core.NewOutput(pin, core.PullUpDisable, core.PullDownDisable, core.InterruptNone,
		core.WithDriver(d), core.WithInitialLevel(core.High))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if drv.GetLevel(pin) != core.High {
		t.Error("initial level not driven on the device")
	}

	if err := p.Toggle(); err != nil {
		t.Fatal(err)
	}
	if got := p.Level(); got != core.Low {
		t.Errorf("Level() after toggle = %v, want low", got)
	}
	if drv.Writes(pin) != 2 {
		t.Errorf("device saw %d writes, want 2", drv.Writes(pin))
	}
}

func TestRemoteConfigureSplitsMask(t *testing.T) {
	d, drv := connect(t)

	mask := core.GPIO[1].Mask() | core.GPIO[4].Mask()
	if err := d.Configure(core.DriverConfig{PinBitMask: mask, Mode: core.ModeInput, PullUpEn: true}); err != nil {
		t.Fatal(err)
	}
	for _, pin := range []core.PinNumber{core.GPIO[1], core.GPIO[4]} {
		cfg, ok := drv.Config(pin)
		if !ok || !cfg.PullUpEn || cfg.Mode != core.ModeInput {
			t.Errorf("pin %d config %+v", pin, cfg)
		}
		if d.GetLevel(pin) != core.High {
			t.Errorf("pulled up pin %d reads low", pin)
		}
	}

	if err := d.Configure(core.DriverConfig{}); !errors.Is(err, core.ErrInvalidArg) {
		t.Errorf("empty mask: %v", err)
	}
}

func TestRemoteErrors(t *testing.T) {
	d, drv := connect(t)

	drv.Fail(sim.OpConfigure, core.ErrNotSupported)
	err := d.Configure(core.DriverConfig{PinBitMask: core.GPIO[2].Mask(), Mode: core.ModeInput})
	if !errors.Is(err, core.ErrNotSupported) {
		t.Errorf("Configure() error = %v, want not supported", err)
	}

	drv.Fail(sim.OpSetLevel, errors.New("bus fault"))
	if err := d.SetLevel(core.GPIO[2], core.High); !errors.Is(err, protocol.ErrRemoteFailure) {
		t.Errorf("SetLevel() error = %v, want remote failure", err)
	}

	if err := d.AddISRHandler(core.GPIO[2], nil, nil); !errors.Is(err, core.ErrInvalidArg) {
		t.Errorf("AddISRHandler(nil) error = %v", err)
	}

	drv.Fail(sim.OpAddISR, core.ErrInvalidArg)
	if err := d.AddISRHandler(core.GPIO[2], func(any) {}, nil); !errors.Is(err, core.ErrInvalidArg) {
		t.Errorf("AddISRHandler() error = %v", err)
	}
	if len(d.handlers) != 0 {
		t.Error("rejected handler was kept")
	}

	if got := d.GetLevel(core.PinNumber(core.PinCount)); got != core.Low {
		t.Errorf("GetLevel(missing pin) = %v, want low", got)
	}
}

func TestRemoteInterrupt(t *testing.T) {
	d, drv := connect(t)
	pin := core.GPIO[21]

	p, err := core.NewPullDownInput(pin, core.InterruptRising, core.WithDriver(d))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Init(); err != nil {
		t.Fatal(err)
	}

	fired := make(chan any, 4)
	if err := p.RegisterISR(func(arg any) {
		// reading the pin from the handler goes back over the link
		if p.Level() != core.High {
			t.Error("handler saw low level")
		}
		fired <- arg
	}, "button"); err != nil {
		t.Fatal(err)
	}

	drv.Drive(pin, core.High)

	select {
	case arg := <-fired:
		if arg != "button" {
			t.Errorf("handler arg = %v", arg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not run")
	}
}

func TestRemoteNoInterruptTrigger(t *testing.T) {
	d, _ := connect(t)

	p, err := core.NewInput(core.GPIO[8], core.PullUpDisable, core.PullDownDisable, core.InterruptNone, core.WithDriver(d))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.RegisterISR(func(any) {}, nil); !errors.Is(err, core.ErrNotSupported) {
		t.Errorf("RegisterISR() error = %v, want not supported", err)
	}
	if err := p.SetHigh(); !errors.Is(err, core.ErrNotSupported) {
		t.Errorf("SetHigh() on input error = %v, want not supported", err)
	}
}

func TestRemoteClosed(t *testing.T) {
	d, _ := connect(t)
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if err := d.SetLevel(core.GPIO[1], core.High); !errors.Is(err, protocol.ErrTransportClosed) {
		t.Errorf("SetLevel() after Close = %v", err)
	}
}
