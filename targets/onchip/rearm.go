package onchip

import "gopio/core"

// irqLine is a pin interrupt as machine exposes it: a new callback is only
// accepted once the previous one is cleared
type irqLine interface {
	clearInterrupt() error
	setInterrupt(t core.IntrType, cb func()) error
}

// rearm replaces the interrupt of l with cb firing on t. IntrDisable only
// clears it.
func rearm(l irqLine, t core.IntrType, cb func()) error {
	if err := l.clearInterrupt(); err != nil || t == core.IntrDisable {
		return err
	}
	return l.setInterrupt(t, cb)
}
