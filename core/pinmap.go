package core

// PinNumber identifies a hardware GPIO pin number
type PinNumber uint32

// GPIO holds every valid pin number of the target, indexed by itself.
//
// Board code names pins through this table with a constant index:
//
//	var statusLED = core.GPIO[5]
//
// A constant index at or beyond PinCount does not compile, so a pin that the
// device does not have is rejected at build time rather than at runtime.
var GPIO = func() (pins [PinCount]PinNumber) {
	for i := range pins {
		pins[i] = PinNumber(i)
	}
	return pins
}()

// The conversion below fails to compile if PinCount cannot be represented in a
// 64-bit pin mask.
const _ = uint8(64 - PinCount)

// Valid reports whether the pin exists on the target
func (p PinNumber) Valid() bool {
	return p < PinCount
}

// Mask returns the single-pin bitmask used by driver configuration calls
func (p PinNumber) Mask() uint64 {
	return 1 << uint64(p)
}
