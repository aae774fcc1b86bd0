package core

import (
	"errors"
	"testing"
)

type nopDriver struct{}

func (nopDriver) Configure(DriverConfig) error                { return nil }
func (nopDriver) GetLevel(PinNumber) Level                    { return Low }
func (nopDriver) SetLevel(PinNumber, Level) error             { return nil }
func (nopDriver) AddISRHandler(PinNumber, ISR, any) error     { return nil }

func TestRegistryClaim(t *testing.T) {
	r := NewRegistry()
	if err := r.Claim(3); err != nil {
		t.Fatalf("first Claim() error = %v", err)
	}
	if !r.Claimed(3) {
		t.Error("pin 3 not reported claimed")
	}
	if err := r.Claim(3); !errors.Is(err, ErrPinClaimed) {
		t.Errorf("second Claim() error = %v, want ErrPinClaimed", err)
	}
	r.Release(3)
	if r.Claimed(3) {
		t.Error("pin 3 still claimed after Release")
	}
	if err := r.Claim(PinCount); !errors.Is(err, ErrPinOutOfRange) {
		t.Errorf("Claim(PinCount) error = %v, want ErrPinOutOfRange", err)
	}
}

func TestPinWithRegistry(t *testing.T) {
	r := NewRegistry()
	a, err := NewOutput(GPIO[8], PullUpDisable, PullDownDisable, InterruptNone, WithDriver(nopDriver{}), WithRegistry(r))
	if err != nil {
		t.Fatalf("NewOutput() error = %v", err)
	}
	if _, err := NewPullUpInput(GPIO[8], InterruptNone, WithDriver(nopDriver{}), WithRegistry(r)); !errors.Is(err, ErrPinClaimed) {
		t.Errorf("second controller error = %v, want ErrPinClaimed", err)
	}

	a.Release()
	b, err := NewPullUpInput(GPIO[8], InterruptNone, WithDriver(nopDriver{}), WithRegistry(r))
	if err != nil {
		t.Fatalf("controller after Release error = %v", err)
	}
	b.Release()
	b.Release()
}

func TestPinWithoutRegistryAllowsDuplicates(t *testing.T) {
	if _, err := NewOutput(GPIO[2], PullUpDisable, PullDownDisable, InterruptNone, WithDriver(nopDriver{})); err != nil {
		t.Fatal(err)
	}
	if _, err := NewOutput(GPIO[2], PullUpDisable, PullDownDisable, InterruptNone, WithDriver(nopDriver{})); err != nil {
		t.Fatal(err)
	}
}

func TestGlobalDriver(t *testing.T) {
	defer SetGPIODriver(gpioDriver)

	SetGPIODriver(nil)
	func() {
		defer func() {
			if recover() == nil {
				t.Error("NewPin without any driver did not panic")
			}
		}()
		_, _ = NewPin(Config{Pin: 1})
	}()

	SetGPIODriver(nopDriver{})
	p, err := NewPin(Config{Pin: 1})
	if err != nil {
		t.Fatal(err)
	}
	if p.driver != (nopDriver{}) {
		t.Error("pin did not pick up the global driver")
	}
}
