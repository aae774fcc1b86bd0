// Command gopio reads, drives and watches GPIO pins on the local host, on a
// microcontroller running the pin server, or on simulated lines.
//
//	gopio -board bench.json get button
//	gopio -backend serial -device /dev/ttyACM0 toggle 25
//	gopio -board bench.json shell
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"periph.io/x/host/v3"

	"gopio/config"
	"gopio/core"
	"gopio/host/periph"
	"gopio/host/remote"
	"gopio/host/serial"
	"gopio/logging"
	"gopio/sim"
)

var (
	boardFile = flag.String("board", "", "Board file naming the pins (JSON)")
	backend   = flag.String("backend", "", "Backend: periph, serial or sim (overrides the board file)")
	device    = flag.String("device", "", "Serial device path (overrides the board file)")
	timeout   = flag.Duration("timeout", 0, "Timeout for each request to a serial pin server")
	logLevel  = flag.String("log-level", "warn", "Log level: debug, info, warn or error")
	logFormat = flag.String("log-format", "text", "Log format: text or json")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: gopio [flags] command [args]\n\n%s\n  shell                read commands from stdin\n\nflags:\n", usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := setupLogging(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	board, err := loadBoard()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	driver, closeDriver, err := openDriver(board)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeDriver()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s := newSession(driver, board, os.Stdout)
	args := flag.Args()
	if len(args) == 1 && args[0] == "shell" {
		err = shell(ctx, s, os.Stdin)
	} else {
		err = s.run(ctx, args)
	}

	if errors.Is(err, errUsage) {
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closeDriver()
		os.Exit(1)
	}
}

func setupLogging() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		return err
	}
	format, ok := logging.ParseFormat(*logFormat)
	if !ok {
		return fmt.Errorf("unknown log format %q", *logFormat)
	}
	logging.SetOutput(os.Stderr, format)
	logging.SetLevel(level)
	return nil
}

func loadBoard() (*config.Board, error) {
	board := config.DefaultBoard()
	if *boardFile != "" {
		var err error
		if board, err = config.LoadBoard(*boardFile); err != nil {
			return nil, err
		}
	}
	if *backend != "" {
		board.Backend = *backend
	}
	if *device != "" {
		board.Serial.Device = *device
	}
	if *timeout > 0 {
		board.Serial.CallTimeoutMs = int(*timeout / time.Millisecond)
	}
	return board, nil
}

// openDriver returns the driver for the board's backend and a function
// releasing it
func openDriver(board *config.Board) (core.GPIODriver, func(), error) {
	logging.Info(logging.ComponentCLI, "opening backend", "backend", board.Backend, "board", board.Name)

	switch board.Backend {
	case config.BackendPeriph:
		if _, err := host.Init(); err != nil {
			return nil, nil, fmt.Errorf("periph host init: %w", err)
		}
		d := periph.New()
		return d, func() { d.Close() }, nil

	case config.BackendSerial:
		cfg := serial.DefaultConfig(board.Serial.Device)
		cfg.Baud = board.Serial.Baud
		cfg.ReadTimeout = board.Serial.ReadTimeout()
		d, err := remote.Dial(cfg, remote.WithTimeout(board.Serial.CallTimeout()))
		if err != nil {
			return nil, nil, err
		}
		return d, func() { d.Close() }, nil

	case config.BackendSim:
		return sim.New(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", board.Backend)
	}
}

// shell runs one command per input line until EOF or "quit"
func shell(ctx context.Context, s *session, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}

		fields := trimFields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "quit", "exit", "q":
			return nil
		case "help", "?":
			fmt.Fprintln(s.out, usage)
			continue
		}

		if err := s.run(ctx, fields); err != nil {
			if errors.Is(err, errUsage) {
				fmt.Fprintln(s.out, usage)
				continue
			}
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}
