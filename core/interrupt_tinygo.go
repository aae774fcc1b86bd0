//go:build tinygo

package core

import "runtime/interrupt"

type irqState = interrupt.State

// criticalSection disables interrupts, so a handler cannot run while normal
// code holds the section
type criticalSection struct{}

func (*criticalSection) enter() irqState {
	return interrupt.Disable()
}

func (*criticalSection) exit(state irqState) {
	interrupt.Restore(state)
}

// deliver runs fn directly: interrupts are already masked while the section
// is held
func (*criticalSection) deliver(fn ISR, arg any) {
	fn(arg)
}
