package onchip

import (
	"errors"
	"testing"

	"gopio/core"
)

var errInstalled = errors.New("callback already installed")

// fakeLine refuses a second callback like machine.Pin.SetInterrupt does
type fakeLine struct {
	cb       func()
	trigger  core.IntrType
	clearErr error
	sets     int
}

func (l *fakeLine) clearInterrupt() error {
	if l.clearErr != nil {
		return l.clearErr
	}
	l.cb, l.trigger = nil, core.IntrDisable
	return nil
}

func (l *fakeLine) setInterrupt(t core.IntrType, cb func()) error {
	if l.cb != nil {
		return errInstalled
	}
	l.cb, l.trigger = cb, t
	l.sets++
	return nil
}

func TestRearmReplacesCallback(t *testing.T) {
	line := &fakeLine{}
	var got []string

	if err := rearm(line, core.IntrPosEdge, func() { got = append(got, "first") }); err != nil {
		t.Fatalf("first rearm error = %v", err)
	}
	if err := rearm(line, core.IntrAnyEdge, func() { got = append(got, "second") }); err != nil {
		t.Fatalf("second rearm error = %v", err)
	}
	if line.trigger != core.IntrAnyEdge {
		t.Errorf("trigger = %v, want %v", line.trigger, core.IntrAnyEdge)
	}
	line.cb()
	if len(got) != 1 || got[0] != "second" {
		t.Errorf("callbacks run = %v, want [second]", got)
	}
}

func TestRearmDisableClears(t *testing.T) {
	line := &fakeLine{}
	if err := rearm(line, core.IntrNegEdge, func() {}); err != nil {
		t.Fatal(err)
	}
	if err := rearm(line, core.IntrDisable, func() {}); err != nil {
		t.Fatalf("rearm(disable) error = %v", err)
	}
	if line.cb != nil {
		t.Error("callback still installed after disable")
	}
	if line.sets != 1 {
		t.Errorf("setInterrupt called %d times, want 1", line.sets)
	}
}

func TestRearmClearError(t *testing.T) {
	errClear := errors.New("clear failed")
	line := &fakeLine{clearErr: errClear}
	if err := rearm(line, core.IntrPosEdge, func() {}); !errors.Is(err, errClear) {
		t.Errorf("rearm() error = %v, want %v", err, errClear)
	}
	if line.sets != 0 {
		t.Errorf("setInterrupt called %d times after failed clear, want 0", line.sets)
	}
}
