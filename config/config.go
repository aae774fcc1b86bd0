// Package config loads board files: JSON documents naming the pins of a board
// and the backend used to reach them.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopio/core"
)

// Backends understood by the command line tool
const (
	BackendPeriph = "periph"
	BackendSerial = "serial"
	BackendSim    = "sim"
)

var ErrUnknownPin = errors.New("unknown pin name")

// Board describes a board file
type Board struct {
	Name    string            `json:"name"`
	Backend string            `json:"backend"`
	Serial  SerialConfig      `json:"serial"`
	Pins    map[string]PinDef `json:"pins"`
}

// SerialConfig locates a pin server for the serial backend
type SerialConfig struct {
	Device        string `json:"device"`
	Baud          int    `json:"baud"`
	ReadTimeoutMs int    `json:"read_timeout_ms"`
	CallTimeoutMs int    `json:"call_timeout_ms"`
}

// ReadTimeout returns the read timeout as a duration
func (s SerialConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMs) * time.Millisecond
}

// CallTimeout returns the request timeout as a duration
func (s SerialConfig) CallTimeout() time.Duration {
	return time.Duration(s.CallTimeoutMs) * time.Millisecond
}

// PinDef is one named pin. Enumerations are spelled as in the log output:
// direction "input", "output" or "open_drain"; interrupt "none", "rising",
// "falling", "both", "low" or "high"; initial "low" or "high".
type PinDef struct {
	Pin       uint32 `json:"pin"`
	Direction string `json:"direction"`
	PullUp    bool   `json:"pull_up"`
	PullDown  bool   `json:"pull_down"`
	Interrupt string `json:"interrupt"`
	Initial   string `json:"initial"`
}

// LoadBoard reads and parses a board file
func LoadBoard(path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	b, err := ParseBoard(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// ParseBoard parses a board file and validates every pin
func ParseBoard(data []byte) (*Board, error) {
	var b Board
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	applyDefaults(&b)

	switch b.Backend {
	case BackendPeriph, BackendSerial, BackendSim:
	default:
		return nil, fmt.Errorf("unknown backend %q", b.Backend)
	}
	for _, name := range b.PinNames() {
		if _, err := b.Pins[name].Config(); err != nil {
			return nil, fmt.Errorf("pin %s: %w", name, err)
		}
		if _, err := b.Pins[name].InitialLevel(); err != nil {
			return nil, fmt.Errorf("pin %s: %w", name, err)
		}
	}
	return &b, nil
}

// applyDefaults fills in missing values
func applyDefaults(b *Board) {
	if b.Backend == "" {
		b.Backend = BackendPeriph
	}
	if b.Serial.Baud == 0 {
		b.Serial.Baud = 250000
	}
	if b.Serial.ReadTimeoutMs == 0 {
		b.Serial.ReadTimeoutMs = 100
	}
	if b.Serial.CallTimeoutMs == 0 {
		b.Serial.CallTimeoutMs = 2000
	}
	if b.Pins == nil {
		b.Pins = make(map[string]PinDef)
	}
	for name, p := range b.Pins {
		if p.Direction == "" {
			p.Direction = "input"
		}
		if p.Interrupt == "" {
			p.Interrupt = "none"
		}
		if p.Initial == "" {
			p.Initial = "low"
		}
		b.Pins[name] = p
	}
}

// DefaultBoard returns an empty board on the periph backend
func DefaultBoard() *Board {
	b := &Board{}
	applyDefaults(b)
	return b
}

// PinNames returns the pin names in sorted order
func (b *Board) PinNames() []string {
	names := make([]string, 0, len(b.Pins))
	for name := range b.Pins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Pin looks up a pin by name
func (b *Board) Pin(name string) (PinDef, error) {
	p, ok := b.Pins[name]
	if !ok {
		return PinDef{}, fmt.Errorf("%w: %q", ErrUnknownPin, name)
	}
	return p, nil
}

// Config converts the definition to a core configuration. Pin numbers from a file
// are only known at run time, so they are range checked here.
func (p PinDef) Config() (core.Config, error) {
	if !core.PinNumber(p.Pin).Valid() {
		return core.Config{}, fmt.Errorf("%w: %d >= %d", core.ErrPinOutOfRange, p.Pin, core.PinCount)
	}
	dir, err := ParseDirection(p.Direction)
	if err != nil {
		return core.Config{}, err
	}
	intr, err := ParseInterrupt(p.Interrupt)
	if err != nil {
		return core.Config{}, err
	}

	cfg := core.Config{
		Pin:       core.PinNumber(p.Pin),
		Direction: dir,
		Interrupt: intr,
	}
	if p.PullUp {
		cfg.PullUp = core.PullUpEnable
	}
	if p.PullDown {
		cfg.PullDown = core.PullDownEnable
	}
	return cfg, nil
}

// InitialLevel returns the level an output drives on Init
func (p PinDef) InitialLevel() (core.Level, error) {
	return ParseLevel(p.Initial)
}

// ParseDirection parses "input", "output" or "open_drain"
func ParseDirection(s string) (core.Direction, error) {
	switch strings.ToLower(s) {
	case "input", "in":
		return core.Input, nil
	case "output", "out":
		return core.Output, nil
	case "open_drain", "opendrain", "od":
		return core.OutputOpenDrain, nil
	}
	return 0, fmt.Errorf("%w: direction %q", core.ErrInvalidConfig, s)
}

// ParseInterrupt parses an interrupt trigger name
func ParseInterrupt(s string) (core.Interrupt, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return core.InterruptNone, nil
	case "rising":
		return core.InterruptRising, nil
	case "falling":
		return core.InterruptFalling, nil
	case "both", "any":
		return core.InterruptBothEdges, nil
	case "low":
		return core.InterruptLowLevel, nil
	case "high":
		return core.InterruptHighLevel, nil
	}
	return 0, fmt.Errorf("%w: interrupt %q", core.ErrInvalidConfig, s)
}

// ParseLevel parses "low"/"high" or "0"/"1"
func ParseLevel(s string) (core.Level, error) {
	switch strings.ToLower(s) {
	case "low", "0":
		return core.Low, nil
	case "high", "1":
		return core.High, nil
	}
	return 0, fmt.Errorf("%w: level %q", core.ErrInvalidConfig, s)
}
