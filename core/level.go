package core

import "strconv"

// Level is the electrical level of a pin.
type Level uint8

const (
	Low Level = iota
	High
)

func (l Level) String() string {
	if l == Low {
		return "low"
	}
	return "high"
}

// Invert returns the opposite level
func (l Level) Invert() Level {
	if l == Low {
		return High
	}
	return Low
}

// LevelOf converts a boolean line state to a Level
func LevelOf(high bool) Level {
	if high {
		return High
	}
	return Low
}

// Direction is the configured direction of a pin
type Direction uint8

const (
	Input Direction = iota
	Output
	OutputOpenDrain
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	case OutputOpenDrain:
		return "output_open_drain"
	default:
		return "Direction(" + strconv.Itoa(int(d)) + ")"
	}
}

// IsOutput reports whether the direction can drive the line
func (d Direction) IsOutput() bool {
	return d == Output || d == OutputOpenDrain
}

// PullUp selects the internal pull-up resistor
type PullUp uint8

const (
	PullUpDisable PullUp = iota
	PullUpEnable
)

// PullDown selects the internal pull-down resistor
type PullDown uint8

const (
	PullDownDisable PullDown = iota
	PullDownEnable
)

// Interrupt is the trigger condition for a pin interrupt
type Interrupt uint8

const (
	InterruptNone Interrupt = iota
	InterruptRising
	InterruptFalling
	InterruptBothEdges
	InterruptLowLevel
	InterruptHighLevel
)

var interruptNames = [...]string{
	InterruptNone:      "none",
	InterruptRising:    "rising",
	InterruptFalling:   "falling",
	InterruptBothEdges: "both_edges",
	InterruptLowLevel:  "low_level",
	InterruptHighLevel: "high_level",
}

func (i Interrupt) String() string {
	if int(i) < len(interruptNames) {
		return interruptNames[i]
	}
	return "Interrupt(" + strconv.Itoa(int(i)) + ")"
}

// IsEdge reports whether the trigger fires on a transition rather than a level
func (i Interrupt) IsEdge() bool {
	return i == InterruptRising || i == InterruptFalling || i == InterruptBothEdges
}

// Fires reports whether a line moving from prev to next satisfies the trigger.
// Level triggers fire whenever next is at the configured level.
func (i Interrupt) Fires(prev, next Level) bool {
	switch i {
	case InterruptRising:
		return prev == Low && next == High
	case InterruptFalling:
		return prev == High && next == Low
	case InterruptBothEdges:
		return prev != next
	case InterruptLowLevel:
		return next == Low
	case InterruptHighLevel:
		return next == High
	default:
		return false
	}
}
