//go:build !rp2040 && !rp2350

package core

// PinCount is the number of GPIO pins of the target (ESP32 class by default)
const PinCount = 40
