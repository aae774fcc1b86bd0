//go:build rp2350

package core

// PinCount is the number of GPIO pins of the RP2350B (GPIO0-GPIO47)
const PinCount = 48
