package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gopio/config"
	"gopio/core"
	"gopio/logging"
	"gopio/protocol"
)

var errUsage = errors.New("usage")

// session runs commands against one driver. Pins are built on first use and
// kept, so toggles in an interactive session follow the cached level.
type session struct {
	driver   core.GPIODriver
	board    *config.Board
	registry *core.Registry
	pins     map[string]*sessionPin
	out      io.Writer
}

type sessionPin struct {
	core.Controller
}

func newSession(driver core.GPIODriver, board *config.Board, out io.Writer) *session {
	return &session{
		driver:   driver,
		board:    board,
		registry: core.NewRegistry(),
		pins:     make(map[string]*sessionPin),
		out:      out,
	}
}

// lookup resolves a board pin name, or a bare pin number with the given
// fallback configuration
func (s *session) lookup(name string, fallback config.PinDef) (config.PinDef, error) {
	if p, err := s.board.Pin(name); err == nil {
		return p, nil
	}
	n, err := strconv.ParseUint(name, 10, 32)
	if err != nil {
		return config.PinDef{}, fmt.Errorf("%w: %q", config.ErrUnknownPin, name)
	}
	fallback.Pin = uint32(n)
	return fallback, nil
}

// pin returns the initialized controller for name
func (s *session) pin(name string, fallback config.PinDef) (*sessionPin, error) {
	if p, ok := s.pins[name]; ok {
		return p, nil
	}

	def, err := s.lookup(name, fallback)
	if err != nil {
		return nil, err
	}
	cfg, err := def.Config()
	if err != nil {
		return nil, err
	}
	initial, err := def.InitialLevel()
	if err != nil {
		return nil, err
	}

	p, err := core.NewPin(cfg, core.WithDriver(s.driver), core.WithInitialLevel(initial), core.WithRegistry(s.registry))
	if err != nil {
		return nil, err
	}
	if err := p.Init(); err != nil {
		p.Release()
		return nil, err
	}
	logging.Debug(logging.ComponentCLI, "pin ready", "name", name, "desc", p.Descriptor().String())

	sp := &sessionPin{Controller: core.Locked(p)}
	s.pins[name] = sp
	return sp, nil
}

var (
	inputDef  = config.PinDef{Direction: "input", Interrupt: "none", Initial: "low"}
	outputDef = config.PinDef{Direction: "output", Interrupt: "none", Initial: "low"}
	watchDef  = config.PinDef{Direction: "input", Interrupt: "both", Initial: "low"}
)

// run executes one command line
func (s *session) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case "get":
		if len(args) != 1 {
			return errUsage
		}
		p, err := s.pin(args[0], inputDef)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s %v\n", args[0], p.Level())

	case "set":
		if len(args) != 2 {
			return errUsage
		}
		level, err := config.ParseLevel(args[1])
		if err != nil {
			return err
		}
		p, err := s.pin(args[0], outputDef)
		if err != nil {
			return err
		}
		return p.SetLevel(level)

	case "high", "low":
		if len(args) != 1 {
			return errUsage
		}
		p, err := s.pin(args[0], outputDef)
		if err != nil {
			return err
		}
		if cmd == "high" {
			return p.SetHigh()
		}
		return p.SetLow()

	case "toggle":
		if len(args) != 1 {
			return errUsage
		}
		p, err := s.pin(args[0], outputDef)
		if err != nil {
			return err
		}
		if err := p.Toggle(); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s %v\n", args[0], p.Level())

	case "watch":
		if len(args) < 1 || len(args) > 2 {
			return errUsage
		}
		var d time.Duration
		if len(args) == 2 {
			var err error
			if d, err = time.ParseDuration(args[1]); err != nil {
				return err
			}
		}
		return s.watch(ctx, args[0], d)

	case "pins":
		s.listPins()

	case "dict":
		fmt.Fprint(s.out, protocol.NewCommandRegistry().Dictionary())

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	return nil
}

// watch prints every interrupt of the pin until ctx ends or d elapses
func (s *session) watch(ctx context.Context, name string, d time.Duration) error {
	p, err := s.pin(name, watchDef)
	if err != nil {
		return err
	}

	events := make(chan core.Level, 16)
	err = p.RegisterISR(func(arg any) {
		select {
		case events <- arg.(core.Controller).Level():
		default:
		}
	}, p.Controller)
	if err != nil {
		return fmt.Errorf("watch %s: %w", name, err)
	}

	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case l := <-events:
			fmt.Fprintf(s.out, "%10.3fs %s %v\n", time.Since(start).Seconds(), name, l)
		}
	}
}

func (s *session) listPins() {
	for _, name := range s.board.PinNames() {
		def := s.board.Pins[name]
		cfg, err := def.Config()
		if err != nil {
			fmt.Fprintf(s.out, "%-12s invalid: %v\n", name, err)
			continue
		}
		fmt.Fprintf(s.out, "%-12s %s\n", name, core.MustDescriptor(cfg))
	}
}

const usage = `commands:
  get NAME             read a pin
  set NAME 0|1         drive an output
  high NAME, low NAME  drive an output
  toggle NAME          invert an output
  watch NAME [DUR]     print interrupts until interrupted or DUR elapses
  pins                 list the board's pins
  dict                 print the protocol dictionary
NAME is a pin from the board file or a pin number.`

func trimFields(line string) []string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	return strings.Fields(line)
}
