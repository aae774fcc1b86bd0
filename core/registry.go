package core

import (
	"fmt"
	"sync"
)

// Registry records which pins have a controller. It is optional: pins only
// consult it when built WithRegistry.
type Registry struct {
	mu      sync.Mutex
	claimed uint64 // bit n set when pin n is claimed
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Claim marks pin as owned, failing with ErrPinClaimed if it already is
func (r *Registry) Claim(pin PinNumber) error {
	if !pin.Valid() {
		return fmt.Errorf("%w: %d", ErrPinOutOfRange, pin)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.claimed&pin.Mask() != 0 {
		return fmt.Errorf("%w: gpio%d", ErrPinClaimed, pin)
	}
	r.claimed |= pin.Mask()
	return nil
}

// Release drops the claim on pin
func (r *Registry) Release(pin PinNumber) {
	if !pin.Valid() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.claimed &^= pin.Mask()
}

// Claimed reports whether pin is currently claimed
func (r *Registry) Claimed(pin PinNumber) bool {
	if !pin.Valid() {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.claimed&pin.Mask() != 0
}
