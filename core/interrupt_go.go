//go:build !tinygo

package core

import "sync"

// irqState is a placeholder for interrupt state on regular Go
type irqState uintptr

type isrCall struct {
	fn  ISR
	arg any
}

// criticalSection is a mutex on regular Go, where handlers run on goroutines.
// A handler delivered while the section is held, including one a driver runs
// synchronously from inside it, is queued and runs after the holder exits,
// the way a masked interrupt is taken on restore.
type criticalSection struct {
	mu sync.Mutex

	state    sync.Mutex // guards held and deferred
	held     bool
	deferred []isrCall
}

func (cs *criticalSection) enter() irqState {
	cs.mu.Lock()
	cs.state.Lock()
	cs.held = true
	cs.state.Unlock()
	return 0
}

func (cs *criticalSection) exit(irqState) {
	cs.state.Lock()
	calls := cs.deferred
	cs.deferred = nil
	cs.held = false
	cs.state.Unlock()
	cs.mu.Unlock()

	for _, c := range calls {
		c.fn(c.arg)
	}
}

// deliver runs fn now, or once the section is released if it is held
func (cs *criticalSection) deliver(fn ISR, arg any) {
	cs.state.Lock()
	if cs.held {
		cs.deferred = append(cs.deferred, isrCall{fn: fn, arg: arg})
		cs.state.Unlock()
		return
	}
	cs.state.Unlock()
	fn(arg)
}
