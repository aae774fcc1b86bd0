package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gopio/core"
)

const sampleBoard = `{
	"name": "bench",
	"backend": "serial",
	"serial": {"device": "/dev/ttyACM0"},
	"pins": {
		"led":    {"pin": 25, "direction": "output", "initial": "high"},
		"button": {"pin": 14, "pull_up": true, "interrupt": "falling"},
		"bus":    {"pin": 3, "direction": "open_drain", "pull_up": true}
	}
}`

func TestParseBoard(t *testing.T) {
	b, err := ParseBoard([]byte(sampleBoard))
	if err != nil {
		t.Fatal(err)
	}

	if b.Backend != BackendSerial || b.Serial.Device != "/dev/ttyACM0" {
		t.Errorf("backend %q device %q", b.Backend, b.Serial.Device)
	}
	if b.Serial.Baud != 250000 || b.Serial.ReadTimeoutMs != 100 {
		t.Errorf("serial defaults not applied: %+v", b.Serial)
	}

	names := b.PinNames()
	if len(names) != 3 || names[0] != "bus" || names[2] != "led" {
		t.Errorf("PinNames() = %v", names)
	}

	button, err := b.Pin("button")
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := button.Config()
	if err != nil {
		t.Fatal(err)
	}
	want := core.Config{
		Pin:       core.GPIO[14],
		Direction: core.Input,
		PullUp:    core.PullUpEnable,
		Interrupt: core.InterruptFalling,
	}
	if cfg != want {
		t.Errorf("button config = %+v, want %+v", cfg, want)
	}

	led, _ := b.Pin("led")
	if l, _ := led.InitialLevel(); l != core.High {
		t.Errorf("led initial level = %v", l)
	}
	bus, _ := b.Pin("bus")
	if l, _ := bus.InitialLevel(); l != core.Low {
		t.Errorf("default initial level = %v", l)
	}

	if _, err := b.Pin("missing"); !errors.Is(err, ErrUnknownPin) {
		t.Errorf("Pin(missing) error = %v", err)
	}
}

func TestParseBoardErrors(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
		want error
	}{
		{"pin out of range", `{"pins": {"x": {"pin": 64}}}`, core.ErrPinOutOfRange},
		{"bad direction", `{"pins": {"x": {"pin": 1, "direction": "sideways"}}}`, core.ErrInvalidConfig},
		{"bad interrupt", `{"pins": {"x": {"pin": 1, "interrupt": "sometimes"}}}`, core.ErrInvalidConfig},
		{"bad level", `{"pins": {"x": {"pin": 1, "initial": "medium"}}}`, core.ErrInvalidConfig},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseBoard([]byte(tc.doc)); !errors.Is(err, tc.want) {
				t.Errorf("ParseBoard() error = %v, want %v", err, tc.want)
			}
		})
	}

	if _, err := ParseBoard([]byte(`{"backend": "carrier-pigeon"}`)); err == nil {
		t.Error("unknown backend accepted")
	}
	if _, err := ParseBoard([]byte(`{`)); err == nil {
		t.Error("malformed JSON accepted")
	}
}

func TestDefaultBoard(t *testing.T) {
	b := DefaultBoard()
	if b.Backend != BackendPeriph || b.Pins == nil || b.Serial.CallTimeout().Seconds() != 2 {
		t.Errorf("DefaultBoard() = %+v", b)
	}
}

func TestLoadBoard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.json")
	if err := os.WriteFile(path, []byte(sampleBoard), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := LoadBoard(path)
	if err != nil {
		t.Fatal(err)
	}
	if b.Name != "bench" {
		t.Errorf("Name = %q", b.Name)
	}

	if _, err := LoadBoard(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]core.Level{"low": core.Low, "HIGH": core.High, "0": core.Low, "1": core.High} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
}
