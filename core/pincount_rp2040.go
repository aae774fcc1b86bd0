//go:build rp2040

package core

// PinCount is the number of GPIO pins of the RP2040 (GPIO0-GPIO29)
const PinCount = 30
