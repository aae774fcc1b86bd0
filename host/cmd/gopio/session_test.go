package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gopio/config"
	"gopio/core"
	"gopio/sim"
)

const board = `{
	"backend": "sim",
	"pins": {
		"led":    {"pin": 25, "direction": "output", "initial": "high"},
		"button": {"pin": 14, "pull_up": true, "interrupt": "falling"},
		"sensor": {"pin": 15}
	}
}`

func newTestSession(t *testing.T) (*session, *sim.Driver, *bytes.Buffer) {
	t.Helper()
	b, err := config.ParseBoard([]byte(board))
	if err != nil {
		t.Fatal(err)
	}
	drv := sim.New()
	out := &bytes.Buffer{}
	return newSession(drv, b, out), drv, out
}

func TestSessionOutput(t *testing.T) {
	s, drv, out := newTestSession(t)
	ctx := context.Background()

	if err := s.run(ctx, []string{"toggle", "led"}); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "led low\n" {
		t.Errorf("toggle output = %q", got)
	}
	if drv.GetLevel(core.GPIO[25]) != core.Low {
		t.Error("led not driven low")
	}

	if err := s.run(ctx, []string{"set", "led", "high"}); err != nil {
		t.Fatal(err)
	}
	if err := s.run(ctx, []string{"low", "led"}); err != nil {
		t.Fatal(err)
	}
	if drv.Writes(core.GPIO[25]) != 4 {
		t.Errorf("led writes = %d, want 4", drv.Writes(core.GPIO[25]))
	}
	if drv.Configures(core.GPIO[25]) != 1 {
		t.Error("pin was initialized more than once")
	}
}

func TestSessionInput(t *testing.T) {
	s, drv, out := newTestSession(t)
	ctx := context.Background()

	if err := s.run(ctx, []string{"get", "button"}); err != nil {
		t.Fatal(err)
	}
	if out.String() != "button high\n" {
		t.Errorf("get output = %q", out.String())
	}

	if err := s.run(ctx, []string{"set", "button", "0"}); !errors.Is(err, core.ErrNotSupported) {
		t.Errorf("set on input error = %v", err)
	}
	if drv.Writes(core.GPIO[14]) != 0 {
		t.Error("write reached an input pin")
	}
}

func TestSessionPinNumbers(t *testing.T) {
	s, drv, _ := newTestSession(t)
	ctx := context.Background()

	if err := s.run(ctx, []string{"high", "7"}); err != nil {
		t.Fatal(err)
	}
	if drv.GetLevel(core.GPIO[7]) != core.High {
		t.Error("numbered pin not driven")
	}
	if err := s.run(ctx, []string{"get", "nope"}); !errors.Is(err, config.ErrUnknownPin) {
		t.Errorf("unknown name error = %v", err)
	}
	if err := s.run(ctx, []string{"get", "99"}); !errors.Is(err, core.ErrPinOutOfRange) {
		t.Errorf("pin 99 error = %v", err)
	}
}

func TestSessionWatch(t *testing.T) {
	s, drv, out := newTestSession(t)

	go func() {
		time.Sleep(20 * time.Millisecond)
		drv.Drive(core.GPIO[14], core.Low)
	}()
	if err := s.run(context.Background(), []string{"watch", "button", "200ms"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "button low") {
		t.Errorf("watch output = %q", out.String())
	}

	if err := s.run(context.Background(), []string{"watch", "sensor", "1ms"}); !errors.Is(err, core.ErrNotSupported) {
		t.Errorf("watch without trigger error = %v", err)
	}
}

func TestSessionUsage(t *testing.T) {
	s, _, out := newTestSession(t)
	ctx := context.Background()

	for _, args := range [][]string{nil, {"get"}, {"set", "led"}, {"frobnicate"}} {
		if err := s.run(ctx, args); !errors.Is(err, errUsage) {
			t.Errorf("run(%v) error = %v, want usage", args, err)
		}
	}

	if err := s.run(ctx, []string{"pins"}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "button") || !strings.Contains(lines[1], "gpio25") {
		t.Errorf("pins output:\n%s", out.String())
	}
}

func TestShell(t *testing.T) {
	s, drv, out := newTestSession(t)
	in := strings.NewReader("high 3 # comment\n\nbogus\ntoggle 3\nquit\nhigh 4\n")

	if err := shell(context.Background(), s, in); err != nil {
		t.Fatal(err)
	}
	if drv.GetLevel(core.GPIO[3]) != core.Low {
		t.Error("toggle after high left the pin high")
	}
	if drv.Writes(core.GPIO[4]) != 0 {
		t.Error("commands after quit were run")
	}
	if !strings.Contains(out.String(), "commands:") {
		t.Error("usage not printed for an unknown command")
	}
}
